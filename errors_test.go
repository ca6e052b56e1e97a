package auth_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	auth "github.com/goliatone/go-auth-session"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProviderErrorMapper(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected auth.ErrorKind
	}{
		{"nil", nil, auth.KindNone},
		{"user not found", auth.NewProviderError(auth.ProviderCodeUserNotFound, ""), auth.KindCredentialNotFound},
		{"wrong password", auth.NewProviderError(auth.ProviderCodeWrongPassword, ""), auth.KindWrongCredential},
		{"invalid credential", auth.NewProviderError(auth.ProviderCodeInvalidCredential, ""), auth.KindWrongCredential},
		{"popup closed", auth.NewProviderError(auth.ProviderCodePopupClosed, ""), auth.KindCancelled},
		{"popup cancelled", auth.NewProviderError(auth.ProviderCodeCancelledPopup, ""), auth.KindCancelled},
		{"email in use", auth.NewProviderError(auth.ProviderCodeEmailAlreadyInUse, ""), auth.KindEmailInUse},
		{"wrapped code", fmt.Errorf("sign in: %w", auth.NewProviderError(auth.ProviderCodeUserNotFound, "")), auth.KindCredentialNotFound},
		{"context cancelled", context.Canceled, auth.KindOther},
		{"unknown code", auth.NewProviderError("auth/quota-exceeded", ""), auth.KindOther},
		{"plain error", errors.New("boom"), auth.KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.DefaultProviderErrorMapper(tt.err))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, auth.KindNone, auth.KindOf(nil))
	assert.Equal(t, auth.KindOther, auth.KindOf(errors.New("boom")))
	assert.Equal(t, auth.KindValidation, auth.KindOf(auth.ErrValidation))
	assert.Equal(t, auth.KindDisabled, auth.KindOf(auth.ErrSignupDisabled))
	assert.Equal(t, auth.KindOther, auth.KindOf(auth.ErrInvalidTransition))
}

func TestProviderError(t *testing.T) {
	err := &auth.ProviderError{Code: auth.ProviderCodeWrongPassword, Message: "nope", Err: context.DeadlineExceeded}
	assert.Equal(t, "nope (auth/wrong-password)", err.Error())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, auth.ProviderCodeWrongPassword, auth.ProviderCode(fmt.Errorf("wrap: %w", err)))
	assert.Equal(t, "", auth.ProviderCode(errors.New("plain")))
	assert.Equal(t, "provider failed: auth/x", auth.NewProviderError("auth/x", "").Error())
}

func TestFailureResultCarriesRichMetadata(t *testing.T) {
	store, provider := newMockStore(t)
	provider.Emit(nil)
	provider.On("SignInWithPassword", context.Background(), "ann@x.com", "Ab1234").
		Return(auth.Identity{}, auth.NewProviderError(auth.ProviderCodeUserNotFound, "missing")).Once()

	res := store.SignIn(context.Background(), "ann@x.com", "Ab1234")
	require.False(t, res.Succeeded())
	assert.Equal(t, "no account found for the given e-mail", res.Message())

	var richErr *goerrors.Error
	require.True(t, goerrors.As(res.AsError(), &richErr))
	assert.Equal(t, string(auth.KindCredentialNotFound), richErr.TextCode)
	assert.Equal(t, "sign_in", richErr.Metadata["operation"])
	assert.Equal(t, auth.ProviderCodeUserNotFound, richErr.Metadata["provider_code"])

	// sentinels are cloned, never mutated
	assert.Empty(t, auth.ErrCredentialNotFound.Metadata)
}

func TestSuccessResult(t *testing.T) {
	store, provider := newMockStore(t)
	provider.Emit(nil)
	provider.On("SignOut", context.Background()).Return(nil).Once()

	res := store.SignOut(context.Background())
	assert.True(t, res.Succeeded())
	assert.Equal(t, "", res.Message())
	assert.NoError(t, res.AsError())
	assert.Equal(t, "none", res.Kind.String())
}
