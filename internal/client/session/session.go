// Package session owns the authenticated session of the process.
//
// A single Gate is shared by every command group. Entering a group calls
// Guard with the group's Rule; the gate resolves the session at most once
// per logical check, no matter how many entry points ask concurrently, and
// Decide turns the resulting state into one of four decisions.
package session

import (
	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusChecking
	StatusAuthenticated
	StatusUnauthenticated
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Session is a point-in-time view of the session. User is non-nil exactly
// when Status is StatusAuthenticated.
type Session struct {
	User      *client.UserProfile
	Status    Status
	LastError string
}

// Resolved reports whether a check has settled the session.
func (s Session) Resolved() bool {
	return s.Status != StatusUnknown && s.Status != StatusChecking
}

func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
