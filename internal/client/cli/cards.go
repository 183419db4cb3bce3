package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cardkeeper/internal/client/session"
	"github.com/dmitrijs2005/cardkeeper/internal/client/signing"
)

// Freeze freezes a card. The request is signed when a secret is available.
func (a *App) Freeze(ctx context.Context, id string) error {
	if !a.enter(ctx, session.RuleProtected) {
		return nil
	}

	outcome, err := a.api.FreezeCard(ctx, id)
	a.warnUnsigned(outcome)
	if err != nil {
		a.report(ctx, err)
		return err
	}
	a.println(fmt.Sprintf("Card %s frozen.", id))

	if v := a.currentView(); v != nil && v.name() == cardsTitle {
		return a.reload(ctx, v)
	}
	return nil
}

// Delete deletes a card remotely and drops it from the open cards list.
func (a *App) Delete(ctx context.Context, id string) error {
	if !a.enter(ctx, session.RuleProtected) {
		return nil
	}

	outcome, err := a.api.DeleteCard(ctx, id)
	a.warnUnsigned(outcome)
	if err != nil {
		a.report(ctx, err)
		return err
	}
	a.println(fmt.Sprintf("Card %s deleted.", id))

	if v := a.currentView(); v != nil && v.name() == cardsTitle {
		v.remove(id)
		v.render(a.out)
	}
	return nil
}

func (a *App) warnUnsigned(o signing.Outcome) {
	if o == signing.OutcomeUnsigned {
		a.println("Warning: no signing secret is available, the request was sent unsigned.")
	}
}
