package renewal

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/apierr"
	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
)

// Fetcher loads renewal data from the API.
type Fetcher interface {
	Renewal(ctx context.Context) (*client.RenewalInfo, error)
}

// Widget is the one place the notice state is derived. It holds the last
// fetched notice and the fetch-in-flight flag.
type Widget struct {
	fetch      Fetcher
	dismissals *Dismissals
	log        logging.Logger
	now        func() time.Time

	mu      sync.Mutex
	notice  *Notice
	loading bool
	lastErr string
}

func NewWidget(fetch Fetcher, dismissals *Dismissals, log logging.Logger, now func() time.Time) *Widget {
	if now == nil {
		now = time.Now
	}
	return &Widget{fetch: fetch, dismissals: dismissals, log: log, now: now}
}

// Refresh fetches the notice and returns the resulting state. A failed
// fetch keeps the previous notice and reports the normalized message.
func (w *Widget) Refresh(ctx context.Context) (State, error) {
	w.mu.Lock()
	w.loading = true
	w.mu.Unlock()

	info, err := w.fetch.Renewal(ctx)

	w.mu.Lock()
	w.loading = false
	if err != nil {
		w.lastErr = apierr.Normalize(err)
	} else {
		w.lastErr = ""
		w.notice = &Notice{NextRenewalDate: info.NextRenewalDate, SufficientBalance: info.SufficientBalance}
	}
	w.mu.Unlock()

	st, derr := w.State(ctx)
	if err == nil {
		err = derr
	}
	return st, err
}

// State derives the current state without fetching.
func (w *Widget) State(ctx context.Context) (State, error) {
	until, err := w.dismissals.DismissedUntil(ctx)
	if err != nil {
		w.log.Warn(ctx, "dismissal unavailable", "error", err)
	}

	w.mu.Lock()
	in := Input{Notice: w.notice, Loading: w.loading, DismissedUntil: until}
	w.mu.Unlock()

	return DeriveState(in, w.now()), err
}

// Notice returns a copy of the last fetched notice, or nil.
func (w *Widget) Notice() *Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.notice == nil {
		return nil
	}
	n := *w.notice
	return &n
}

// LastError is the normalized message of the last failed fetch.
func (w *Widget) LastError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Dismiss hides the notice for the current renewal cycle. Only a visible
// notice can be dismissed; a hidden one may belong to a cycle that has not
// been shown yet.
func (w *Widget) Dismiss(ctx context.Context) (time.Time, error) {
	st, err := w.State(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if st == StateHidden {
		return time.Time{}, apierr.Validation("renewal", NothingToDismiss)
	}
	return w.dismissals.Dismiss(ctx, w.now())
}

// NothingToDismiss is the message of a refused dismissal.
const NothingToDismiss = "There is no renewal notice to dismiss."
