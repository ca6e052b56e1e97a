package routeguard

import (
	"fmt"

	auth "github.com/goliatone/go-auth-session"
)

// Outcome is what the guard tells the navigation layer to do.
type Outcome int

const (
	// Suspend means the session is not settled yet: render a neutral loading
	// state and decide again once it changes.
	Suspend Outcome = iota
	// Allow renders the protected view.
	Allow
	// Deny redirects to the sign-in view.
	Deny
)

func (o Outcome) String() string {
	switch o {
	case Suspend:
		return "suspend"
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Decision is the result of evaluating a navigation request.
type Decision struct {
	Outcome    Outcome
	RedirectTo string
	// From is the requested path, kept for Deny so it can be replayed later.
	From string
}

// Decide is the pure guard policy. Unresolved and Confirming sessions always
// suspend; only an observer confirmed session is allowed through.
func Decide(session auth.Session, path, signInPath string) Decision {
	switch session.Status() {
	case auth.StatusAuthenticated:
		return Decision{Outcome: Allow}
	case auth.StatusAnonymous:
		return Decision{Outcome: Deny, RedirectTo: signInPath, From: path}
	default:
		return Decision{Outcome: Suspend}
	}
}
