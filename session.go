package auth

import "fmt"

// Status is the resolution state of the process wide session.
type Status int

const (
	// StatusUnresolved is the initial status, before the provider reported anything.
	StatusUnresolved Status = iota
	// StatusAnonymous means the provider confirmed nobody is signed in.
	StatusAnonymous
	// StatusConfirming means a credential operation succeeded but the observer
	// has not confirmed the identity yet.
	StatusConfirming
	// StatusAuthenticated means the observer confirmed a signed in identity.
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusAnonymous:
		return "anonymous"
	case StatusConfirming:
		return "confirming"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Session is an immutable snapshot of the authentication status.
type Session struct {
	status   Status
	identity Identity
	epoch    uint64
}

// Unresolved returns the initial session.
func Unresolved() Session {
	return Session{status: StatusUnresolved}
}

// Anonymous returns a resolved session without identity.
func Anonymous() Session {
	return Session{status: StatusAnonymous}
}

// Confirming returns an optimistic session waiting for observer confirmation.
func Confirming(identity Identity) Session {
	return Session{status: StatusConfirming, identity: identity}
}

// Authenticated returns a confirmed session for identity.
func Authenticated(identity Identity) Session {
	return Session{status: StatusAuthenticated, identity: identity}
}

func (s Session) Status() Status {
	return s.status
}

// Identity returns the cached identity, if the session carries one.
func (s Session) Identity() (Identity, bool) {
	if s.status != StatusAuthenticated && s.status != StatusConfirming {
		return Identity{}, false
	}
	return s.identity, true
}

// IsResolved reports whether the provider has reported the session at least once.
func (s Session) IsResolved() bool {
	return s.status != StatusUnresolved
}

// IsAuthenticated is true only for observer confirmed sessions.
func (s Session) IsAuthenticated() bool {
	return s.status == StatusAuthenticated
}

// Epoch is the number of confirmed authentications the store had seen when
// this snapshot was taken.
func (s Session) Epoch() uint64 {
	return s.epoch
}

// WithEpoch returns a copy of the session stamped with epoch.
func (s Session) WithEpoch(epoch uint64) Session {
	s.epoch = epoch
	return s
}

func (s Session) withIdentity(identity Identity) Session {
	s.identity = identity
	return s
}

func (s Session) String() string {
	if id, ok := s.Identity(); ok {
		return fmt.Sprintf("session=%s epoch=%d %s", s.status, s.epoch, id)
	}
	return fmt.Sprintf("session=%s epoch=%d", s.status, s.epoch)
}
