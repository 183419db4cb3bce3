package renewal

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
)

// Dismissals persists the notice dismissal as an RFC 3339 expiry under a
// single key. Expired records are ignored, not purged.
type Dismissals struct {
	repo metadata.Repository
	log  logging.Logger
}

func NewDismissals(repo metadata.Repository, log logging.Logger) *Dismissals {
	return &Dismissals{repo: repo, log: log}
}

// Dismiss hides the notice until NextDismissalExpiry(now) and returns that
// expiry.
func (d *Dismissals) Dismiss(ctx context.Context, now time.Time) (time.Time, error) {
	until := NextDismissalExpiry(now)
	if err := d.repo.Set(ctx, common.RenewalNoticeDismissedUntil, []byte(until.Format(time.RFC3339))); err != nil {
		return time.Time{}, fmt.Errorf("save dismissal: %w", err)
	}
	return until, nil
}

// DismissedUntil returns the stored expiry, or the zero time when there is
// none or the record is unreadable.
func (d *Dismissals) DismissedUntil(ctx context.Context) (time.Time, error) {
	raw, err := d.repo.Get(ctx, common.RenewalNoticeDismissedUntil)
	if err != nil {
		return time.Time{}, fmt.Errorf("load dismissal: %w", err)
	}
	if len(raw) == 0 {
		return time.Time{}, nil
	}
	until, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		d.log.Warn(ctx, "ignoring malformed dismissal record", "value", string(raw))
		return time.Time{}, nil
	}
	return until, nil
}
