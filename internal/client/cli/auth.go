package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cardkeeper/internal/client/apierr"
	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
	"github.com/dmitrijs2005/cardkeeper/internal/client/session"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// enter is the entry check of every command group. It reports whether the
// command may run; otherwise it has already told the user why not.
func (a *App) enter(ctx context.Context, rule session.Rule) bool {
	d, _ := a.gate.Guard(ctx, rule)

	switch d.Action {
	case session.ActionRender:
		return true
	case session.ActionLoading:
		a.println("Checking your session, try again in a moment.")
	case session.ActionRetry:
		a.println(a.gate.Snapshot().LastError + " Type 'retry' to try again.")
	case session.ActionRedirect:
		if d.Target == session.SignInTarget {
			a.println("Please sign in first: type 'login'.")
		} else if s := a.gate.Snapshot(); s.User != nil {
			a.println(fmt.Sprintf("Already signed in as %s.", s.User.Email))
		}
	}
	return false
}

// report prints the normalized message of err unless it is a background
// failure.
func (a *App) report(ctx context.Context, err error) {
	if msg, surface := apierr.Report(ctx, a.log, err); surface {
		a.println(msg)
	}
}

func (a *App) println(s string) {
	fmt.Fprintln(a.out, s)
}

// Login prompts for credentials and signs in through the session gate.
// The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	if !a.enter(ctx, session.RuleAuthOnly) {
		return nil
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.gate.Login(ctx, client.Credentials{Email: email, Password: string(password)})
	if err != nil {
		a.report(ctx, err)
		return err
	}

	if s.User != nil && s.User.Email != "" {
		email = s.User.Email
	}
	a.println(fmt.Sprintf("Signed in as %s.", email))
	return nil
}

// Logout signs out and forgets the stored credential.
func (a *App) Logout(ctx context.Context) error {
	if err := a.gate.Logout(ctx); err != nil {
		a.report(ctx, err)
		return err
	}
	a.println("Signed out.")
	return nil
}

// Retry re-runs the session check, e.g. after a network failure.
func (a *App) Retry(ctx context.Context) error {
	s, err := a.gate.CheckAuth(ctx)
	switch s.Status {
	case session.StatusAuthenticated:
		a.println(fmt.Sprintf("Signed in as %s.", s.User.Email))
	case session.StatusError:
		a.println(s.LastError)
	default:
		a.println("You are signed out. Type 'login' to sign in.")
	}
	return err
}

// Ping checks that the API answers. It needs no session.
func (a *App) Ping(ctx context.Context) error {
	if err := a.api.Ping(ctx); err != nil {
		a.report(ctx, err)
		return err
	}
	a.println("API is reachable.")
	return nil
}
