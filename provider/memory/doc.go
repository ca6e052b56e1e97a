// Package memory implements an in-memory identity provider, used in tests and
// demos in place of a hosted one.
package memory
