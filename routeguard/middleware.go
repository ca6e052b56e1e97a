package routeguard

import (
	"context"
	"errors"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// ErrSessionUnresolved is returned by the middleware when the session did not
// settle within the suspend timeout and no loading view is configured.
var ErrSessionUnresolved = goerrors.New("session not resolved yet", goerrors.CategoryOperation).
	WithTextCode("SESSION_UNRESOLVED").
	WithCode(http.StatusServiceUnavailable)

// MiddlewareConfig configures Middleware.
type MiddlewareConfig struct {
	// LoadingView is rendered when the session is still unresolved after
	// SuspendTimeout.
	LoadingView string
	// SuspendTimeout bounds how long a request waits for the session to
	// settle. Zero uses the guard default.
	SuspendTimeout time.Duration
	// ErrorHandler receives failures. Defaults to returning the error.
	ErrorHandler func(router.Context, error) error
}

// navigationContext is the part of router.Context the guard needs.
type navigationContext interface {
	OriginalURL() string
	Method() string
	Context() context.Context
	Redirect(location string, status ...int) error
	Render(name string, bind any, layout ...string) error
	Next() error
}

// Middleware guards the wrapped handlers. Denied requests are redirected to
// the sign-in path and remembered for AfterSignIn.
func (g *RouteGuard) Middleware(config ...MiddlewareConfig) router.MiddlewareFunc {
	cfg := MiddlewareConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.SuspendTimeout <= 0 {
		cfg.SuspendTimeout = g.suspendTimeout
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(_ router.Context, err error) error {
			return err
		}
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			decision, err := g.navigate(ctx, cfg)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			switch decision.Outcome {
			case Allow:
				if next != nil {
					return next(ctx)
				}
				return ctx.Next()
			case Deny:
				return ctx.Redirect(decision.RedirectTo, redirectStatus(ctx.Method()))
			default:
				return ctx.Render(cfg.LoadingView, router.ViewContext{
					"path": ctx.OriginalURL(),
				})
			}
		}
	}
}

func (g *RouteGuard) navigate(ctx navigationContext, cfg MiddlewareConfig) (Decision, error) {
	path := ctx.OriginalURL()

	decision := g.Authorize(path)
	if decision.Outcome != Suspend {
		return decision, nil
	}

	parent := ctx.Context()
	if parent == nil {
		parent = context.Background()
	}

	waitCtx, cancel := context.WithTimeout(parent, cfg.SuspendTimeout)
	defer cancel()

	decision, err := g.Wait(waitCtx, path)
	if err == nil {
		return decision, nil
	}

	if !errors.Is(err, context.DeadlineExceeded) || parent.Err() != nil {
		return decision, err
	}

	g.logger.Warn("session still unresolved", "path", path, "timeout", cfg.SuspendTimeout)
	if cfg.LoadingView == "" {
		return decision, ErrSessionUnresolved.Clone().WithMetadata(map[string]any{"path": path})
	}
	return decision, nil
}

func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead || method == "" {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
