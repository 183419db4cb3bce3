package store

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/apierr"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
)

// CountPoller refreshes a best-effort counter (unread notifications) on a
// fixed interval. Its failures are background failures: noted at debug
// level and never surfaced.
type CountPoller struct {
	fetch    func(ctx context.Context) (int, error)
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger
	onChange func(int)

	count atomic.Int64
}

func NewCountPoller(fetch func(ctx context.Context) (int, error), interval time.Duration, log logging.Logger) *CountPoller {
	return &CountPoller{fetch: fetch, interval: interval, timeout: 3 * time.Second, log: log}
}

// OnChange registers fn, called from the polling goroutine when the count
// changes.
func (p *CountPoller) OnChange(fn func(int)) {
	p.onChange = fn
}

func (p *CountPoller) Count() int {
	return int(p.count.Load())
}

// Poll does one refresh.
func (p *CountPoller) Poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	n, err := p.fetch(ctx)
	cancel()

	if err != nil {
		apierr.Report(ctx, p.log, apierr.Background(err))
		return
	}

	if old := p.count.Swap(int64(n)); old != int64(n) && p.onChange != nil {
		p.onChange(n)
	}
}

// Run polls until ctx is done.
func (p *CountPoller) Run(ctx context.Context) {
	if p.interval <= 0 {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}
