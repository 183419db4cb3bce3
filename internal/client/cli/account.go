package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cardkeeper/internal/client/renewal"
	"github.com/dmitrijs2005/cardkeeper/internal/client/session"
	"github.com/dmitrijs2005/cardkeeper/internal/client/store"
)

func (a *App) Balance(ctx context.Context) error {
	if !a.enter(ctx, session.RuleProtected) {
		return nil
	}

	b, err := a.balance.Load(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrDiscarded) {
			a.println(a.balance.Snapshot().Err)
		}
		return err
	}
	a.println("Available balance: " + a.formatAmount(b.Available, b.Currency))
	return nil
}

// Renewal fetches and shows the renewal notice, if it is due.
func (a *App) Renewal(ctx context.Context) error {
	if !a.enter(ctx, session.RuleProtected) {
		return nil
	}

	st, err := a.renewal.Refresh(ctx)
	if err != nil {
		a.report(ctx, err)
		return err
	}
	if st == renewal.StateHidden {
		a.println("No renewal notice.")
		return nil
	}
	a.println(renewal.Message(st, a.renewal.Notice()))
	a.println("Type 'dismiss' to hide this notice until the next cycle.")
	return nil
}

func (a *App) Dismiss(ctx context.Context) error {
	if !a.enter(ctx, session.RuleProtected) {
		return nil
	}

	if a.renewal.Notice() == nil {
		if _, err := a.renewal.Refresh(ctx); err != nil {
			a.report(ctx, err)
			return err
		}
	}

	until, err := a.renewal.Dismiss(ctx)
	if err != nil {
		a.report(ctx, err)
		return err
	}
	a.println(fmt.Sprintf("Renewal notice hidden until %s.", until.Format("January 2")))
	return nil
}
