package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logCall struct {
	level   string
	message string
	args    []any
}

type captureLogger struct {
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Trace(message string, args ...any) { l.record("trace", message, args...) }
func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Warn(message string, args ...any)  { l.record("warn", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }
func (l *captureLogger) Fatal(message string, args ...any) { l.record("fatal", message, args...) }
func (l *captureLogger) WithContext(context.Context) Logger {
	return l
}

func (l *captureLogger) levels() []string {
	out := make([]string, 0, len(l.calls))
	for _, c := range l.calls {
		out = append(out, c.level)
	}
	return out
}

type namedProvider struct {
	loggers map[string]Logger
	asked   []string
}

func (p *namedProvider) GetLogger(name string) Logger {
	p.asked = append(p.asked, name)
	return p.loggers[name]
}

func TestResolveLoggerPrefersProvider(t *testing.T) {
	scoped := &captureLogger{}
	fallback := &captureLogger{}
	provider := &namedProvider{loggers: map[string]Logger{storeLoggerName: scoped}}

	gotProvider, got := ResolveLogger(storeLoggerName, provider, fallback)
	assert.Same(t, scoped, got)
	assert.Equal(t, provider, gotProvider)
	assert.Equal(t, []string{storeLoggerName}, provider.asked)
}

func TestResolveLoggerFallsBackWhenProviderReturnsNil(t *testing.T) {
	fallback := &captureLogger{}
	provider := &namedProvider{}

	gotProvider, got := ResolveLogger("auth.unknown", provider, fallback)
	assert.Same(t, fallback, got)
	assert.Same(t, fallback, gotProvider.GetLogger("anything"))
}

func TestResolveLoggerDefaults(t *testing.T) {
	provider, logger := ResolveLogger("auth.test", nil, nil)
	require.NotNil(t, provider)
	require.NotNil(t, logger)
	assert.IsType(t, defLogger{}, logger)
}

func TestFormatKV(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		msg      string
		kv       []any
		expected string
	}{
		{"pairs", "INF", "signed in", []any{"uid", "ann"}, "[INF] AUTH signed in uid=ann\n"},
		{"dangling key", "DBG", "odd", []any{"dangling"}, "[DBG] AUTH odd dangling\n"},
		{"percent kept verbatim", "ERR", "100% failed", []any{"code", 7}, "[ERR] AUTH 100% failed code=7\n"},
		{"no pairs", "WRN", "bare", nil, "[WRN] AUTH bare\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatKV(tt.level, tt.msg, tt.kv...))
		})
	}
}

func TestStoreLogsFailures(t *testing.T) {
	logger := &captureLogger{}
	store := NewSessionStore(stubProvider{}, WithStoreLogger(logger))
	store.session = Anonymous()

	res := store.SignIn(context.Background(), "ann@x.com", "")
	require.False(t, res.Succeeded())

	assert.Contains(t, logger.levels(), "error")
	assert.Equal(t, "credential operation failed", logger.calls[0].message)
	assert.Contains(t, logger.calls[0].args, opSignIn)
}

func TestStoreLoggerProviderOption(t *testing.T) {
	scoped := &captureLogger{}
	provider := &namedProvider{loggers: map[string]Logger{storeLoggerName: scoped}}

	store := NewSessionStore(stubProvider{}, WithStoreLoggerProvider(provider))
	store.session = Anonymous()
	store.UpdateProfile(context.Background(), PatchDisplayName("x"))

	assert.Contains(t, scoped.levels(), "error")
}

// stubProvider fails every call; only used where no provider call is expected.
type stubProvider struct{}

func (stubProvider) ObserveSession(context.Context, SessionObserver) (Unsubscribe, error) {
	return func() {}, nil
}

func (stubProvider) Register(context.Context, string, string) (Identity, error) {
	return Identity{}, NewProviderError("auth/unexpected", "unexpected call")
}

func (stubProvider) SignInWithPassword(context.Context, string, string) (Identity, error) {
	return Identity{}, NewProviderError("auth/unexpected", "unexpected call")
}

func (stubProvider) SignInWithFederatedProvider(context.Context) (Identity, error) {
	return Identity{}, NewProviderError("auth/unexpected", "unexpected call")
}

func (stubProvider) SignOut(context.Context) error {
	return NewProviderError("auth/unexpected", "unexpected call")
}

func (stubProvider) UpdateProfile(context.Context, Identity, ProfilePatch) error {
	return NewProviderError("auth/unexpected", "unexpected call")
}
