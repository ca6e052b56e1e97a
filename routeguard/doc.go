// Package routeguard blocks protected views until the session resolves and
// remembers the view a signed out user asked for, so it can be replayed once
// after sign-in.
package routeguard
