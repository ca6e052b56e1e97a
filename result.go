package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

// Result is the outcome of a credential operation. On success Identity holds
// the resulting identity and Err is nil; on failure Kind and Err describe why.
type Result struct {
	Identity Identity
	Kind     ErrorKind
	Err      error
}

func success(identity Identity) Result {
	return Result{Identity: identity}
}

func failure(err *goerrors.Error) Result {
	return Result{Kind: KindOf(err), Err: err}
}

// partialFailure keeps the identity that was created before the failure.
func partialFailure(identity Identity, err *goerrors.Error) Result {
	return Result{Identity: identity, Kind: KindOf(err), Err: err}
}

// Succeeded reports whether the operation completed without error.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Message returns a human readable description of the failure, empty on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if goerrors.As(r.Err, &richErr) && richErr != nil && richErr.Message != "" {
		return richErr.Message
	}
	return r.Err.Error()
}

// AsError returns the failure, nil on success.
func (r Result) AsError() error {
	return r.Err
}
