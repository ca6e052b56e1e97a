package auth_test

import (
	"context"
	"sync"

	auth "github.com/goliatone/go-auth-session"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider implements auth.IdentityProvider. The observer passed
// to ObserveSession is kept so tests can push notifications.
type MockIdentityProvider struct {
	mock.Mock

	mu       sync.Mutex
	observer auth.SessionObserver
}

func (m *MockIdentityProvider) ObserveSession(ctx context.Context, observer auth.SessionObserver) (auth.Unsubscribe, error) {
	m.mu.Lock()
	m.observer = observer
	m.mu.Unlock()

	args := m.Called(ctx, observer)
	unsubscribe, _ := args.Get(0).(auth.Unsubscribe)
	return unsubscribe, args.Error(1)
}

func (m *MockIdentityProvider) Register(ctx context.Context, email, password string) (auth.Identity, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(auth.Identity), args.Error(1)
}

func (m *MockIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (auth.Identity, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(auth.Identity), args.Error(1)
}

func (m *MockIdentityProvider) SignInWithFederatedProvider(ctx context.Context) (auth.Identity, error) {
	args := m.Called(ctx)
	return args.Get(0).(auth.Identity), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockIdentityProvider) UpdateProfile(ctx context.Context, identity auth.Identity, patch auth.ProfilePatch) error {
	args := m.Called(ctx, identity, patch)
	return args.Error(0)
}

// Emit pushes a notification through the registered observer.
func (m *MockIdentityProvider) Emit(identity *auth.Identity) {
	m.mu.Lock()
	observer := m.observer
	m.mu.Unlock()

	if observer != nil {
		observer(identity)
	}
}

// MockPasswordResetProvider adds auth.PasswordResetter to the mock provider.
type MockPasswordResetProvider struct {
	MockIdentityProvider
}

func (m *MockPasswordResetProvider) SendPasswordResetEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type stubFeatureGate struct {
	enabled map[string]bool
	calls   []string
	err     error
}

func (s *stubFeatureGate) Enabled(ctx context.Context, key string, opts ...gate.ResolveOption) (bool, error) {
	s.calls = append(s.calls, key)
	if s.err != nil {
		return false, s.err
	}
	if s.enabled == nil {
		return true, nil
	}
	enabled, ok := s.enabled[key]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

type captureSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (c *captureSink) Record(_ context.Context, event auth.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureSink) types() []auth.ActivityEventType {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]auth.ActivityEventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.EventType)
	}
	return out
}

// sessionRecorder collects every snapshot a store subscription delivers.
type sessionRecorder struct {
	mu       sync.Mutex
	sessions []auth.Session
}

func (r *sessionRecorder) listen(s auth.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

func (r *sessionRecorder) statuses() []auth.Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]auth.Status, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Status())
	}
	return out
}

func noopUnsubscribe() auth.Unsubscribe {
	return func() {}
}
