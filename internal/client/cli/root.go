package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cardkeeper/internal/client/session"
)

func (a *App) getStatus() string {
	s := a.gate.Snapshot()

	var parts []string
	switch s.Status {
	case session.StatusAuthenticated:
		parts = append(parts, s.User.Email)
		if n := a.unread.Count(); n > 0 {
			parts = append(parts, fmt.Sprintf("%d unread", n))
		}
	case session.StatusError:
		parts = append(parts, "offline")
	default:
		parts = append(parts, "signed out")
	}
	if v := a.currentView(); v != nil {
		parts = append(parts, v.name())
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

func (a *App) isLoggedIn() bool {
	return a.gate.Snapshot().Status == session.StatusAuthenticated
}

// Root greets the user, resolves the session once and serves the REPL.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to cardkeeper (type 'help' for commands)")

	s, _ := a.gate.CheckAuth(ctx)
	switch s.Status {
	case session.StatusAuthenticated:
		printlnFn(fmt.Sprintf("Signed in as %s.", s.User.Email))
	case session.StatusError:
		printlnFn(s.LastError + " Type 'retry' to try again.")
	default:
		printlnFn("You are signed out. Type 'login' to sign in.")
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
