// Package renewal derives the display state of the recurring-billing
// renewal notice from server data and the calendar, and keeps the user's
// dismissal of it across runs.
package renewal

import (
	"fmt"
	"math"
	"time"
)

// WindowStartDay is the first day of the month on which the notice can show.
const WindowStartDay = 25

type State int

const (
	StateHidden State = iota
	StateUpcoming
	StateProcessing
	StateCompleted
	StateInsufficient
)

func (s State) String() string {
	switch s {
	case StateUpcoming:
		return "upcoming"
	case StateProcessing:
		return "processing"
	case StateCompleted:
		return "completed"
	case StateInsufficient:
		return "insufficient"
	default:
		return "hidden"
	}
}

// Notice is the server-reported renewal data.
type Notice struct {
	NextRenewalDate   time.Time
	SufficientBalance bool
}

// Input is everything DeriveState looks at besides the date. A zero
// DismissedUntil means not dismissed.
type Input struct {
	Notice         *Notice
	Loading        bool
	DismissedUntil time.Time
}

// DeriveState is a pure function of in and today.
func DeriveState(in Input, today time.Time) State {
	if in.Notice == nil || in.Loading || today.Before(in.DismissedUntil) {
		return StateHidden
	}
	if today.Day() < WindowStartDay {
		return StateHidden
	}

	days := DaysUntil(in.Notice.NextRenewalDate, today)
	switch {
	case days < -3:
		return StateCompleted
	case days < 0:
		return StateProcessing
	case !in.Notice.SufficientBalance:
		return StateInsufficient
	default:
		return StateUpcoming
	}
}

// DaysUntil is ceil((renewal - today) / 24h).
func DaysUntil(renewal, today time.Time) int {
	return int(math.Ceil(renewal.Sub(today).Hours() / 24))
}

// NextDismissalExpiry is midnight local time on the 25th of the month after
// now's month.
func NextDismissalExpiry(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m+1, WindowStartDay, 0, 0, 0, 0, now.Location())
}

// Message is the one-line text shown for s.
func Message(s State, n *Notice) string {
	if n == nil {
		return ""
	}
	date := n.NextRenewalDate.Format("January 2")
	switch s {
	case StateUpcoming:
		return fmt.Sprintf("Your plan renews on %s.", date)
	case StateProcessing:
		return "Your renewal payment is being processed."
	case StateCompleted:
		return fmt.Sprintf("Your plan was renewed on %s.", date)
	case StateInsufficient:
		return fmt.Sprintf("Your balance is too low for the renewal on %s. Top up to avoid interruption.", date)
	default:
		return ""
	}
}
