package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-logger/glog"
)

// Logger is the structured logger contract shared across the module.
type Logger = glog.Logger

// LoggerProvider resolves named loggers.
type LoggerProvider = glog.LoggerProvider

// SessionObserver receives every session change pushed by the identity
// provider. A nil identity means nobody is signed in.
type SessionObserver func(identity *Identity)

// Unsubscribe releases an observer registration.
type Unsubscribe func()

// IdentityProvider is the external identity service the session core consumes.
// All methods may block on I/O and may fail; failures should carry a provider
// code through ProviderError so they can be classified.
type IdentityProvider interface {
	ObserveSession(ctx context.Context, observer SessionObserver) (Unsubscribe, error)
	Register(ctx context.Context, email, password string) (Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (Identity, error)
	SignInWithFederatedProvider(ctx context.Context) (Identity, error)
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, identity Identity, patch ProfilePatch) error
}

// PasswordResetter is implemented by providers able to send reset e-mails.
type PasswordResetter interface {
	SendPasswordResetEmail(ctx context.Context, email string) error
}

// SessionReader is the read side of the store, enough for guards and views.
type SessionReader interface {
	Current() Session
	Subscribe(listener func(Session)) func()
}

// ResolveLogger returns a provider/logger pair for the given scope. An explicit
// provider wins; when it yields nil the fallback logger is used instead.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) (LoggerProvider, Logger) {
	if logger == nil {
		logger = defaultLogger()
	}

	if provider == nil {
		provider = glog.ProviderFromLogger(logger)
		return provider, logger
	}

	resolved := provider.GetLogger(name)
	if resolved == nil {
		return fallbackProvider{fallback: logger}, logger
	}

	return provider, resolved
}

type fallbackProvider struct {
	fallback Logger
}

func (p fallbackProvider) GetLogger(string) Logger {
	return p.fallback
}

func defaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Trace(msg string, args ...any) {
	fmt.Print(formatKV("TRC", msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print(formatKV("DBG", msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print(formatKV("INF", msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print(formatKV("WRN", msg, args...))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print(formatKV("ERR", msg, args...))
}

func (d defLogger) Fatal(msg string, args ...any) {
	fmt.Print(formatKV("FTL", msg, args...))
}

func (d defLogger) WithContext(context.Context) Logger {
	return d
}

// formatKV renders msg followed by key=value pairs. A trailing key without a
// value is printed on its own.
func formatKV(level, msg string, kv ...any) string {
	var b strings.Builder
	b.WriteString("[" + level + "] AUTH " + msg)
	for i := 0; i < len(kv); i += 2 {
		if i+1 < len(kv) {
			fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
		} else {
			fmt.Fprintf(&b, " %v", kv[i])
		}
	}
	return newline(b.String())
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
