package auth_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDefaults(t *testing.T) {
	opts := auth.Options{}

	assert.Equal(t, "/login", opts.GetSignInPath())
	assert.Equal(t, "/", opts.GetLandingPath())
	assert.Equal(t, []string{"/profile", "/skills/*"}, opts.GetProtectedRoutes())
	assert.Equal(t, 5*time.Minute, opts.GetPendingDestinationTTL())
	assert.Equal(t, 6, opts.GetPasswordMinLength())
	assert.Equal(t, auth.DefaultPhotoURL, opts.GetDefaultPhotoURL())
	assert.Equal(t, 3*time.Second, opts.GetSuspendTimeout())
}

func TestOptionsProtectedRoutesAreCopied(t *testing.T) {
	routes := auth.Options{}.GetProtectedRoutes()
	routes[0] = "/mutated"
	assert.Equal(t, "/profile", auth.DefaultProtectedRoutes[0])

	assert.Empty(t, auth.Options{ProtectedRoutes: []string{}}.GetProtectedRoutes())
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	content := `
sign_in_path: /signin
landing_path: /home
protected_routes:
  - /profile
  - /settings/**
pending_destination_ttl: 90s
password_min_length: 8
suspend_timeout: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	opts, err := auth.LoadOptions(path)
	require.NoError(t, err)

	assert.Equal(t, "/signin", opts.GetSignInPath())
	assert.Equal(t, "/home", opts.GetLandingPath())
	assert.Equal(t, []string{"/profile", "/settings/**"}, opts.GetProtectedRoutes())
	assert.Equal(t, 90*time.Second, opts.GetPendingDestinationTTL())
	assert.Equal(t, 8, opts.GetPasswordMinLength())
	assert.Equal(t, time.Second, opts.GetSuspendTimeout())
	assert.Equal(t, auth.DefaultPhotoURL, opts.GetDefaultPhotoURL())
}

func TestLoadOptionsMissingFile(t *testing.T) {
	_, err := auth.LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
