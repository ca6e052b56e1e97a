package routeguard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	auth "github.com/goliatone/go-auth-session"
	goerrors "github.com/goliatone/go-errors"
)

const guardLoggerName = "auth.route_guard"

// Option customizes a RouteGuard.
type Option func(*RouteGuard)

// WithSignInPath sets where denied navigation is redirected.
func WithSignInPath(path string) Option {
	return func(g *RouteGuard) {
		if path != "" {
			g.signInPath = path
		}
	}
}

// WithLandingPath sets where AfterSignIn goes when nothing valid is pending.
func WithLandingPath(path string) Option {
	return func(g *RouteGuard) {
		if path != "" {
			g.landingPath = path
		}
	}
}

// WithProtectedRoutes restricts the guard to paths matching any of patterns.
// Patterns use glob syntax with '/' as separator, e.g. "/skills/*".
func WithProtectedRoutes(patterns ...string) Option {
	return func(g *RouteGuard) {
		g.patterns = append([]string(nil), patterns...)
	}
}

// WithPendingTTL sets how long a pending destination may be replayed.
func WithPendingTTL(ttl time.Duration) Option {
	return func(g *RouteGuard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(g *RouteGuard) {
		if clock != nil {
			g.now = clock
		}
	}
}

// WithLogger overrides the guard logger.
func WithLogger(logger auth.Logger) Option {
	return func(g *RouteGuard) {
		if logger != nil {
			g.loggerProvider, g.logger = auth.ResolveLogger(guardLoggerName, nil, logger)
		}
	}
}

// WithLoggerProvider resolves the guard logger from provider.
func WithLoggerProvider(provider auth.LoggerProvider) Option {
	return func(g *RouteGuard) {
		if provider != nil {
			g.loggerProvider, g.logger = auth.ResolveLogger(guardLoggerName, provider, g.logger)
		}
	}
}

// WithConfig applies paths, protected routes and timings from cfg.
func WithConfig(cfg auth.Config) Option {
	return func(g *RouteGuard) {
		if cfg == nil {
			return
		}
		g.signInPath = cfg.GetSignInPath()
		g.landingPath = cfg.GetLandingPath()
		g.patterns = cfg.GetProtectedRoutes()
		g.ttl = cfg.GetPendingDestinationTTL()
		g.suspendTimeout = cfg.GetSuspendTimeout()
	}
}

// RouteGuard decides whether protected views may render and remembers the
// view a signed out user asked for.
type RouteGuard struct {
	store auth.SessionReader

	signInPath     string
	landingPath    string
	patterns       []string
	matchers       []glob.Glob
	ttl            time.Duration
	suspendTimeout time.Duration
	now            func() time.Time

	mu      sync.Mutex
	pending *PendingDestination

	logger         auth.Logger
	loggerProvider auth.LoggerProvider
}

// New builds a guard reading from store. With no protected routes configured
// every path is protected.
func New(store auth.SessionReader, opts ...Option) (*RouteGuard, error) {
	if store == nil {
		return nil, goerrors.New("route guard requires a session reader", goerrors.CategoryBadInput)
	}

	loggerProvider, logger := auth.ResolveLogger(guardLoggerName, nil, nil)
	g := &RouteGuard{
		store:          store,
		signInPath:     auth.DefaultSignInPath,
		landingPath:    auth.DefaultLandingPath,
		ttl:            auth.DefaultPendingDestinationTTL,
		suspendTimeout: auth.DefaultSuspendTimeout,
		now:            time.Now,
		logger:         logger,
		loggerProvider: loggerProvider,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	for _, pattern := range g.patterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid protected route pattern").
				WithMetadata(map[string]any{"pattern": pattern})
		}
		g.matchers = append(g.matchers, matcher)
	}

	return g, nil
}

// SignInPath returns the configured sign-in path.
func (g *RouteGuard) SignInPath() string {
	return g.signInPath
}

// IsProtected reports whether path needs a signed in user. Query strings and
// fragments are ignored.
func (g *RouteGuard) IsProtected(path string) bool {
	if len(g.matchers) == 0 {
		return true
	}

	clean := stripQuery(path)
	for _, matcher := range g.matchers {
		if matcher.Match(clean) {
			return true
		}
	}
	return false
}

// AuthorizeOption customizes a single Authorize call.
type AuthorizeOption func(*authorizeOptions)

type authorizeOptions struct {
	payload map[string]any
}

// WithPayload attaches navigation state that is kept with the pending
// destination when the request is denied.
func WithPayload(payload map[string]any) AuthorizeOption {
	return func(o *authorizeOptions) {
		o.payload = clonePayload(payload)
	}
}

// Authorize evaluates a navigation to path against the current session. A
// Deny records path as the pending destination, replacing any earlier one.
func (g *RouteGuard) Authorize(path string, opts ...AuthorizeOption) Decision {
	if !g.IsProtected(path) {
		return Decision{Outcome: Allow}
	}

	session := g.store.Current()
	decision := Decide(session, path, g.signInPath)

	if decision.Outcome == Deny {
		o := authorizeOptions{}
		for _, opt := range opts {
			if opt != nil {
				opt(&o)
			}
		}
		g.record(PendingDestination{
			Path:       path,
			Payload:    o.payload,
			Epoch:      session.Epoch(),
			RecordedAt: g.now(),
		})
	}

	g.logger.Debug("route decision", "path", path, "outcome", decision.Outcome, "session", session.Status())
	return decision
}

// Wait blocks until the decision for path is no longer Suspend or ctx is
// done. On ctx expiry it returns the Suspend decision with ctx's error.
func (g *RouteGuard) Wait(ctx context.Context, path string, opts ...AuthorizeOption) (Decision, error) {
	if !g.IsProtected(path) {
		return Decision{Outcome: Allow}, nil
	}

	changed := make(chan struct{}, 1)
	unsubscribe := g.store.Subscribe(func(auth.Session) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		decision := g.Authorize(path, opts...)
		if decision.Outcome != Suspend {
			return decision, nil
		}

		select {
		case <-ctx.Done():
			return decision, ctx.Err()
		case <-changed:
		}
	}
}

// AfterSignIn returns where to go after a successful sign-in: the pending
// destination if it is still valid, otherwise the landing path. The slot is
// always cleared.
func (g *RouteGuard) AfterSignIn() string {
	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	if pending == nil {
		return g.landingPath
	}

	epoch := g.store.Current().Epoch()
	if !pending.validAt(epoch, g.now(), g.ttl) {
		g.logger.Debug("pending destination discarded", "path", pending.Path, "recorded_epoch", pending.Epoch, "epoch", epoch)
		return g.landingPath
	}

	return pending.Path
}

// Pending returns the recorded destination without consuming it.
func (g *RouteGuard) Pending() (PendingDestination, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil {
		return PendingDestination{}, false
	}

	out := *g.pending
	out.Payload = clonePayload(out.Payload)
	return out, true
}

// Clear drops the pending destination.
func (g *RouteGuard) Clear() {
	g.mu.Lock()
	g.pending = nil
	g.mu.Unlock()
}

func (g *RouteGuard) record(dest PendingDestination) {
	g.mu.Lock()
	g.pending = &dest
	g.mu.Unlock()
}

func stripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}
