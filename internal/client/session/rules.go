package session

// Rule is the access rule of a command group.
type Rule int

const (
	// RuleProtected groups need an authenticated session.
	RuleProtected Rule = iota
	// RuleAuthOnly groups (sign-in, registration) are for anonymous users.
	RuleAuthOnly
)

func (r Rule) String() string {
	if r == RuleAuthOnly {
		return "auth_only"
	}
	return "protected"
}

type Action int

const (
	ActionLoading Action = iota
	ActionRedirect
	ActionRetry
	ActionRender
)

func (a Action) String() string {
	switch a {
	case ActionRedirect:
		return "redirect"
	case ActionRetry:
		return "retry"
	case ActionRender:
		return "render"
	default:
		return "loading"
	}
}

// Target names where a redirect sends the user.
type Target string

const (
	SignInTarget Target = "login"
	HomeTarget   Target = "home"
)

// Decision is what a group entry point must do next. Target is set only
// for ActionRedirect.
type Decision struct {
	Action Action
	Target Target
}

var (
	DecisionLoading = Decision{Action: ActionLoading}
	DecisionRetry   = Decision{Action: ActionRetry}
	DecisionRender  = Decision{Action: ActionRender}
)

func Redirect(t Target) Decision {
	return Decision{Action: ActionRedirect, Target: t}
}

// Decide applies rule to s. It is pure.
func Decide(s Session, rule Rule) Decision {
	switch s.Status {
	case StatusUnknown, StatusChecking:
		return DecisionLoading
	}

	switch rule {
	case RuleProtected:
		switch s.Status {
		case StatusUnauthenticated:
			return Redirect(SignInTarget)
		case StatusError:
			return DecisionRetry
		}
	case RuleAuthOnly:
		if s.Status == StatusAuthenticated {
			return Redirect(HomeTarget)
		}
	}
	return DecisionRender
}
