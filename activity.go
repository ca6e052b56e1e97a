package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess           ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure           ActivityEventType = "auth.login.failure"
	ActivityEventSocialLogin            ActivityEventType = "auth.social.login"
	ActivityEventRegisterSuccess        ActivityEventType = "auth.register.success"
	ActivityEventRegisterFailure        ActivityEventType = "auth.register.failure"
	ActivityEventLogout                 ActivityEventType = "auth.logout"
	ActivityEventProfileUpdated         ActivityEventType = "auth.profile.updated"
	ActivityEventSessionChanged         ActivityEventType = "auth.session.changed"
	ActivityEventPasswordResetRequested ActivityEventType = "auth.password.reset.requested"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	FromStatus Status
	ToStatus   Status
	Kind       ErrorKind
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
