package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-featuregate/gate"
)

const storeLoggerName = "auth.session_store"

// StoreOption customizes SessionStore construction.
type StoreOption func(*SessionStore)

// WithStoreLogger overrides the logger used by the store.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.loggerProvider, s.logger = ResolveLogger(storeLoggerName, nil, logger)
		}
	}
}

// WithStoreLoggerProvider resolves the store logger from provider.
func WithStoreLoggerProvider(provider LoggerProvider) StoreOption {
	return func(s *SessionStore) {
		if provider != nil {
			s.loggerProvider, s.logger = ResolveLogger(storeLoggerName, provider, s.logger)
		}
	}
}

// WithStoreActivitySink sets the sink used to publish session activity.
func WithStoreActivitySink(sink ActivitySink) StoreOption {
	return func(s *SessionStore) {
		s.activitySink = normalizeActivitySink(sink)
	}
}

// WithStoreFeatureGate gates signup, federated sign-in and password reset.
func WithStoreFeatureGate(featureGate gate.FeatureGate) StoreOption {
	return func(s *SessionStore) {
		s.featureGate = featureGate
	}
}

// WithStoreClock injects a custom clock (useful for tests).
func WithStoreClock(clock func() time.Time) StoreOption {
	return func(s *SessionStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithStoreConfig applies the password policy and default avatar from cfg.
func WithStoreConfig(cfg Config) StoreOption {
	return func(s *SessionStore) {
		if cfg != nil {
			s.config = cfg
			s.policy = PasswordPolicyFromConfig(cfg)
		}
	}
}

// WithPasswordPolicy overrides the password policy.
func WithPasswordPolicy(policy PasswordPolicy) StoreOption {
	return func(s *SessionStore) {
		s.policy = policy
	}
}

// WithProviderErrorMapper overrides how provider failures are classified.
func WithProviderErrorMapper(mapper ProviderErrorMapper) StoreOption {
	return func(s *SessionStore) {
		if mapper != nil {
			s.mapper = mapper
		}
	}
}

// SessionStore owns the single process wide Session. The identity provider
// observer is the authoritative writer; credential actions settle optimistic
// Confirming sessions that the observer later confirms.
type SessionStore struct {
	provider IdentityProvider
	machine  sessionMachine

	mu        sync.RWMutex
	session   Session
	listeners map[uint64]func(Session)
	nextID    uint64

	// observed counts observer deliveries, no-op ones included.
	observed uint64

	// dispatchMu is taken before mu is released so listeners see changes in
	// the order they were applied.
	dispatchMu sync.Mutex

	lifecycleMu sync.Mutex
	initialized bool
	closed      atomic.Bool
	unsubscribe Unsubscribe

	config         Config
	policy         PasswordPolicy
	mapper         ProviderErrorMapper
	featureGate    gate.FeatureGate
	activitySink   ActivitySink
	now            func() time.Time
	logger         Logger
	loggerProvider LoggerProvider
}

// NewSessionStore creates a store in the Unresolved state. Call Initialize to
// start observing the provider.
func NewSessionStore(provider IdentityProvider, opts ...StoreOption) *SessionStore {
	loggerProvider, logger := ResolveLogger(storeLoggerName, nil, nil)
	s := &SessionStore{
		provider:       provider,
		machine:        newSessionMachine(),
		session:        Unresolved(),
		listeners:      map[uint64]func(Session){},
		config:         Options{},
		policy:         DefaultPasswordPolicy(),
		mapper:         DefaultProviderErrorMapper,
		activitySink:   noopActivitySink{},
		now:            time.Now,
		logger:         logger,
		loggerProvider: loggerProvider,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Initialize registers the store observer with the provider. Calling it more
// than once is a no-op; calling it after Close returns ErrStoreClosed.
func (s *SessionStore) Initialize(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.closed.Load() {
		return ErrStoreClosed
	}

	if s.initialized {
		return nil
	}

	unsubscribe, err := s.provider.ObserveSession(ctx, s.observe)
	if err != nil {
		s.logger.Error("observe session", "error", err)
		return classify(s.mapper, "observe_session", err)
	}

	s.unsubscribe = unsubscribe
	s.initialized = true
	s.logger.Debug("session observer registered")
	return nil
}

// Close releases the provider subscription. It is safe to call more than once.
func (s *SessionStore) Close() error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.closed.Swap(true) {
		return nil
	}

	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}

	s.logger.Debug("session observer released")
	return nil
}

// Current returns the current session snapshot.
func (s *SessionStore) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Subscribe registers listener for session changes. Listeners run
// synchronously after each change, in the order changes were applied, and
// must not call store actions from inside the callback.
func (s *SessionStore) Subscribe(listener func(Session)) func() {
	if listener == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *SessionStore) observe(identity *Identity) {
	if s.closed.Load() {
		return
	}

	next := Anonymous()
	if identity != nil && !identity.IsZero() {
		next = Authenticated(*identity)
	}

	s.write(context.Background(), SourceObserver, func(Session) (Session, bool) {
		return next, true
	})
}

// write applies fn against the session current at call time. fn returns
// false to leave the session untouched.
func (s *SessionStore) write(ctx context.Context, source TransitionSource, fn func(current Session) (Session, bool)) (Session, bool) {
	s.mu.Lock()
	if source == SourceObserver {
		s.observed++
	}
	current := s.session

	next, ok := fn(current)
	if !ok {
		s.mu.Unlock()
		return current, false
	}

	applied, err := s.machine.transition(source, current, next)
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("session write rejected", "source", source, "from", current.status, "to", next.status)
		return current, false
	}

	if applied == current {
		s.mu.Unlock()
		return current, false
	}

	s.session = applied
	listeners := make([]func(Session), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}

	s.dispatchMu.Lock()
	s.mu.Unlock()
	for _, l := range listeners {
		l(applied)
	}
	s.dispatchMu.Unlock()

	s.logger.Debug("session changed", "source", source, "from", current.status, "to", applied.status, "epoch", applied.epoch)

	if source == SourceObserver {
		identity, _ := applied.Identity()
		s.recordActivity(ctx, ActivityEvent{
			EventType:  ActivityEventSessionChanged,
			UserID:     identity.UID,
			Email:      identity.Email,
			FromStatus: current.status,
			ToStatus:   applied.status,
		})
	}

	return applied, true
}

// observedMark returns the observer delivery count, taken before a provider
// call so the settlement can tell whether the observer spoke in between.
func (s *SessionStore) observedMark() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.observed
}

func (s *SessionStore) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	sink := normalizeActivitySink(s.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("session store activity sink error", "error", err)
	}
}
