package auth

import (
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrorKind classifies the failure of a credential operation. The value is
// also used as the TextCode of the rich error carried by a Result.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindValidation         ErrorKind = "VALIDATION_ERROR"
	KindCredentialNotFound ErrorKind = "CREDENTIAL_NOT_FOUND"
	KindWrongCredential    ErrorKind = "WRONG_CREDENTIAL"
	KindCancelled          ErrorKind = "CANCELLED"
	KindProfileUpdate      ErrorKind = "PROFILE_UPDATE_ERROR"
	KindUnauthenticated    ErrorKind = "UNAUTHENTICATED"
	KindEmailInUse         ErrorKind = "EMAIL_IN_USE"
	KindDisabled           ErrorKind = "FEATURE_DISABLED"
	KindOther              ErrorKind = "OTHER"
)

func (k ErrorKind) String() string {
	if k == KindNone {
		return "none"
	}
	return strings.ToLower(string(k))
}

// ErrValidation is returned when local preconditions fail. No provider call is made.
var ErrValidation = goerrors.New("invalid credentials payload", goerrors.CategoryValidation).
	WithTextCode(string(KindValidation)).
	WithCode(goerrors.CodeBadRequest)

// ErrCredentialNotFound is returned when the provider has no account for the identifier.
var ErrCredentialNotFound = goerrors.New("no account found for the given e-mail", goerrors.CategoryNotFound).
	WithTextCode(string(KindCredentialNotFound)).
	WithCode(goerrors.CodeNotFound)

// ErrWrongCredential is returned when the provider rejects the password.
var ErrWrongCredential = goerrors.New("incorrect credentials", goerrors.CategoryAuth).
	WithTextCode(string(KindWrongCredential)).
	WithCode(goerrors.CodeUnauthorized)

// ErrCancelled is returned when the user aborts a federated sign-in flow.
var ErrCancelled = goerrors.New("federated sign-in cancelled", goerrors.CategoryOperation).
	WithTextCode(string(KindCancelled)).
	WithCode(goerrors.CodeBadRequest)

// ErrProfileUpdate is returned when the account was created but the profile
// could not be updated. The account is kept.
var ErrProfileUpdate = goerrors.New("account created but profile update failed", goerrors.CategoryOperation).
	WithTextCode(string(KindProfileUpdate)).
	WithCode(goerrors.CodeInternal)

// ErrUnauthenticated is returned when a write requires a signed in identity.
var ErrUnauthenticated = goerrors.New("no user signed in", goerrors.CategoryAuth).
	WithTextCode(string(KindUnauthenticated)).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailInUse is returned when registering an e-mail that already has an account.
var ErrEmailInUse = goerrors.New("e-mail already registered", goerrors.CategoryConflict).
	WithTextCode(string(KindEmailInUse)).
	WithCode(goerrors.CodeConflict)

// ErrSignupDisabled is returned when the signup feature is turned off.
var ErrSignupDisabled = goerrors.New("signup is disabled", goerrors.CategoryAuthz).
	WithTextCode(string(KindDisabled)).
	WithCode(goerrors.CodeForbidden)

// ErrFederatedSignInDisabled is returned when federated sign-in is turned off.
var ErrFederatedSignInDisabled = goerrors.New("federated sign-in is disabled", goerrors.CategoryAuthz).
	WithTextCode(string(KindDisabled)).
	WithCode(goerrors.CodeForbidden)

// ErrPasswordResetDisabled is returned when password reset is turned off.
var ErrPasswordResetDisabled = goerrors.New("password reset is disabled", goerrors.CategoryAuthz).
	WithTextCode(string(KindDisabled)).
	WithCode(goerrors.CodeForbidden)

// ErrOther wraps provider failures we could not classify.
var ErrOther = goerrors.New("identity provider failure", goerrors.CategoryInternal).
	WithTextCode(string(KindOther)).
	WithCode(goerrors.CodeInternal)

// ErrStoreClosed is returned by Initialize after Close.
var ErrStoreClosed = goerrors.New("session store closed", goerrors.CategoryOperation).
	WithTextCode("SESSION_STORE_CLOSED").
	WithCode(goerrors.CodeInternal)

// Provider codes understood by the default mapper.
const (
	ProviderCodeUserNotFound       = "auth/user-not-found"
	ProviderCodeWrongPassword      = "auth/wrong-password"
	ProviderCodeInvalidCredential  = "auth/invalid-credential"
	ProviderCodePopupClosed        = "auth/popup-closed-by-user"
	ProviderCodeCancelledPopup     = "auth/cancelled-popup-request"
	ProviderCodeEmailAlreadyInUse  = "auth/email-already-in-use"
	ProviderCodeInvalidEmail       = "auth/invalid-email"
	ProviderCodeWeakPassword       = "auth/weak-password"
	ProviderCodeNetworkRequestFail = "auth/network-request-failed"
)

// ProviderError carries the opaque failure code reported by an identity provider.
type ProviderError struct {
	Code    string
	Message string
	Err     error
}

// NewProviderError builds a ProviderError for code.
func NewProviderError(code, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}

	switch {
	case e.Message != "" && e.Code != "":
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return fmt.Sprintf("provider failed: %s", e.Code)
	case e.Err != nil:
		return fmt.Sprintf("provider failed: %v", e.Err)
	}
	return "provider error"
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProviderCode extracts the provider code from err, if any.
func ProviderCode(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) && perr != nil {
		return perr.Code
	}
	return ""
}

// ProviderErrorMapper turns a provider failure into a kind.
type ProviderErrorMapper func(err error) ErrorKind

var defaultProviderCodes = map[string]ErrorKind{
	ProviderCodeUserNotFound:      KindCredentialNotFound,
	ProviderCodeWrongPassword:     KindWrongCredential,
	ProviderCodeInvalidCredential: KindWrongCredential,
	ProviderCodePopupClosed:       KindCancelled,
	ProviderCodeCancelledPopup:    KindCancelled,
	ProviderCodeEmailAlreadyInUse: KindEmailInUse,
}

// DefaultProviderErrorMapper classifies provider failures by code. Codes it
// does not know are KindOther.
func DefaultProviderErrorMapper(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	if kind, ok := defaultProviderCodes[ProviderCode(err)]; ok {
		return kind
	}

	return KindOther
}

// KindOf returns the kind carried by err. Unknown errors are KindOther.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		switch kind := ErrorKind(richErr.TextCode); kind {
		case KindValidation, KindCredentialNotFound, KindWrongCredential, KindCancelled,
			KindProfileUpdate, KindUnauthenticated, KindEmailInUse, KindDisabled, KindOther:
			return kind
		}
	}

	return KindOther
}

func sentinelFor(kind ErrorKind) *goerrors.Error {
	switch kind {
	case KindValidation:
		return ErrValidation
	case KindCredentialNotFound:
		return ErrCredentialNotFound
	case KindWrongCredential:
		return ErrWrongCredential
	case KindCancelled:
		return ErrCancelled
	case KindProfileUpdate:
		return ErrProfileUpdate
	case KindUnauthenticated:
		return ErrUnauthenticated
	case KindEmailInUse:
		return ErrEmailInUse
	default:
		return ErrOther
	}
}

// classify wraps a provider failure into the rich error for its kind, keeping
// the provider code and the operation in the metadata.
func classify(mapper ProviderErrorMapper, operation string, err error) *goerrors.Error {
	if mapper == nil {
		mapper = DefaultProviderErrorMapper
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil && KindOf(richErr) != KindOther {
		return richErr
	}

	return wrapKind(sentinelFor(mapper(err)), operation, err)
}

func wrapKind(base *goerrors.Error, operation string, err error, extra ...map[string]any) *goerrors.Error {
	clone := base.Clone()
	if clone == nil {
		clone = base
	}

	meta := map[string]any{"operation": operation}
	for _, m := range extra {
		for k, v := range m {
			meta[k] = v
		}
	}
	if err != nil {
		clone.Source = err
		meta["error"] = err.Error()
		if code := ProviderCode(err); code != "" {
			meta["provider_code"] = code
		}
	}

	return clone.WithMetadata(meta)
}
