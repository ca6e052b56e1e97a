package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

const textCodeInvalidTransition = "INVALID_SESSION_TRANSITION"

// ErrInvalidTransition is returned when a requested session change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid session transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// TransitionSource identifies who is writing the session.
type TransitionSource string

const (
	// SourceObserver marks authoritative writes pushed by the identity provider.
	SourceObserver TransitionSource = "observer"
	// SourceOperation marks optimistic writes from a settled credential operation.
	SourceOperation TransitionSource = "operation"
)

// sessionMachine owns the transition graph for session writes. Observer writes
// may land on Anonymous or Authenticated from anywhere. Operation writes follow
// the table and can never leave Unresolved.
type sessionMachine struct {
	observer   map[Status]struct{}
	operations map[Status]map[Status]struct{}
}

func newSessionMachine() sessionMachine {
	return sessionMachine{
		observer: map[Status]struct{}{
			StatusAnonymous:     {},
			StatusAuthenticated: {},
		},
		operations: map[Status]map[Status]struct{}{
			StatusAnonymous: {
				StatusAnonymous:  {},
				StatusConfirming: {},
			},
			StatusConfirming: {
				StatusConfirming: {},
				StatusAnonymous:  {},
			},
			StatusAuthenticated: {
				StatusAuthenticated: {},
				StatusConfirming:    {},
				StatusAnonymous:     {},
			},
		},
	}
}

func (m sessionMachine) canTransition(source TransitionSource, from, to Status) bool {
	if source == SourceObserver {
		_, ok := m.observer[to]
		return ok
	}

	if allowed, ok := m.operations[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

// transition validates the write and stamps the next session with the right
// epoch. The epoch only moves when the observer confirms a new authentication.
func (m sessionMachine) transition(source TransitionSource, current, next Session) (Session, error) {
	if !m.canTransition(source, current.status, next.status) {
		return current, ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"source": string(source),
			"from":   current.status.String(),
			"to":     next.status.String(),
		})
	}

	epoch := current.epoch
	if next.status == StatusAuthenticated && isNewAuthentication(current, next) {
		epoch++
	}

	return next.WithEpoch(epoch), nil
}

func isNewAuthentication(current, next Session) bool {
	if current.status != StatusAuthenticated {
		return true
	}
	return current.identity.UID != next.identity.UID
}
