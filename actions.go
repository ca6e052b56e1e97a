package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-print"
)

const (
	opRegister        = "register"
	opSignIn          = "sign_in"
	opSignInFederated = "sign_in_federated"
	opSignOut         = "sign_out"
	opUpdateProfile   = "update_profile"
	opPasswordReset   = "password_reset"
)

// Register creates an account and sets its display name and avatar. If the
// account is created but the profile update fails, the account is kept and
// the result carries KindProfileUpdate together with the created identity.
func (s *SessionStore) Register(ctx context.Context, name, email, photoURL, password string) Result {
	payload := RegisterPayload{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		PhotoURL: strings.TrimSpace(photoURL),
		Password: password,
	}

	if err := payload.Validate(s.policy); err != nil {
		return s.fail(ctx, opRegister, ActivityEventRegisterFailure, payload.Email, validationFailure(opRegister, err))
	}

	if err := requireFeatureGate(ctx, s.featureGate, gate.FeatureUsersSignup, ErrSignupDisabled); err != nil {
		return s.fail(ctx, opRegister, ActivityEventRegisterFailure, payload.Email, gateFailure(opRegister, err))
	}

	mark := s.observedMark()
	created, err := s.provider.Register(ctx, payload.Email, payload.Password)
	if err != nil {
		return s.fail(ctx, opRegister, ActivityEventRegisterFailure, payload.Email, classify(s.mapper, opRegister, err))
	}

	if payload.PhotoURL == "" {
		payload.PhotoURL = s.config.GetDefaultPhotoURL()
	}
	patch := NewProfilePatch(payload.Name, payload.PhotoURL)

	if err := s.provider.UpdateProfile(ctx, created, patch); err != nil {
		s.settleSignedIn(ctx, mark, created)
		richErr := wrapKind(ErrProfileUpdate, opRegister, err, map[string]any{"uid": created.UID})
		s.logFailure(opRegister, richErr)
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventRegisterFailure,
			UserID:    created.UID,
			Email:     created.Email,
			Kind:      KindProfileUpdate,
		})
		return partialFailure(created, richErr)
	}

	merged := s.settleProfile(ctx, mark, created, patch, true)

	s.logger.Info("account registered", "uid", merged.UID, "email", merged.Email)
	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventRegisterSuccess,
		UserID:    merged.UID,
		Email:     merged.Email,
	})

	return success(merged)
}

// SignIn authenticates with e-mail and password.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) Result {
	payload := SignInPayload{Email: strings.TrimSpace(email), Password: password}
	if err := payload.Validate(); err != nil {
		return s.fail(ctx, opSignIn, ActivityEventLoginFailure, payload.Email, validationFailure(opSignIn, err))
	}

	mark := s.observedMark()
	identity, err := s.provider.SignInWithPassword(ctx, payload.Email, payload.Password)
	if err != nil {
		return s.fail(ctx, opSignIn, ActivityEventLoginFailure, payload.Email, classify(s.mapper, opSignIn, err))
	}

	s.settleSignedIn(ctx, mark, identity)

	s.logger.Info("signed in", "uid", identity.UID)
	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    identity.UID,
		Email:     identity.Email,
	})

	return success(identity)
}

// SignInFederated runs the provider federated flow. A flow the user closes
// is reported as KindCancelled.
func (s *SessionStore) SignInFederated(ctx context.Context) Result {
	if err := requireFeatureGate(ctx, s.featureGate, FeatureFederatedSignIn, ErrFederatedSignInDisabled); err != nil {
		return s.fail(ctx, opSignInFederated, ActivityEventLoginFailure, "", gateFailure(opSignInFederated, err))
	}

	mark := s.observedMark()
	identity, err := s.provider.SignInWithFederatedProvider(ctx)
	if err != nil {
		richErr := classify(s.mapper, opSignInFederated, err)
		if KindOf(richErr) == KindOther && (errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled) {
			richErr = wrapKind(ErrCancelled, opSignInFederated, err)
		}
		return s.fail(ctx, opSignInFederated, ActivityEventLoginFailure, "", richErr)
	}

	s.settleSignedIn(ctx, mark, identity)

	s.logger.Info("signed in with federated provider", "uid", identity.UID)
	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSocialLogin,
		UserID:    identity.UID,
		Email:     identity.Email,
	})

	return success(identity)
}

// SignOut ends the session. The session becomes Anonymous once the provider
// confirms; on failure it is left untouched.
func (s *SessionStore) SignOut(ctx context.Context) Result {
	before := s.Current()
	identity, _ := before.Identity()

	mark := s.observedMark()
	if err := s.provider.SignOut(ctx); err != nil {
		return s.fail(ctx, opSignOut, "", identity.Email, classify(s.mapper, opSignOut, err))
	}

	s.settle(ctx, mark, func(current Session) (Session, bool) {
		if current.status == StatusAnonymous {
			return current, false
		}
		return Anonymous(), true
	})

	s.logger.Info("signed out", "uid", identity.UID)
	s.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventLogout,
		UserID:     identity.UID,
		Email:      identity.Email,
		FromStatus: before.status,
		ToStatus:   s.Current().status,
	})

	return success(Identity{})
}

// UpdateProfile merges patch into the signed in identity. The merge is
// applied to the session current when the provider confirms, not to the
// snapshot taken when the call started.
func (s *SessionStore) UpdateProfile(ctx context.Context, patch ProfilePatch) Result {
	identity, ok := s.Current().Identity()
	if !ok {
		return s.fail(ctx, opUpdateProfile, "", "", wrapKind(ErrUnauthenticated, opUpdateProfile, nil))
	}

	if patch.DisplayName != nil {
		trimmed := strings.TrimSpace(*patch.DisplayName)
		patch.DisplayName = &trimmed
	}

	if err := validateProfilePatch(patch); err != nil {
		return s.fail(ctx, opUpdateProfile, "", identity.Email, validationFailure(opUpdateProfile, err))
	}

	mark := s.observedMark()
	if err := s.provider.UpdateProfile(ctx, identity, patch); err != nil {
		return s.fail(ctx, opUpdateProfile, "", identity.Email, classify(s.mapper, opUpdateProfile, err))
	}

	merged := s.settleProfile(ctx, mark, identity, patch, false)

	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProfileUpdated,
		UserID:    merged.UID,
		Email:     merged.Email,
		Metadata:  patch.Metadata(),
	})

	return success(merged)
}

// RequestPasswordReset asks the provider to send a reset e-mail. The session
// is never touched.
func (s *SessionStore) RequestPasswordReset(ctx context.Context, email string) Result {
	payload := PasswordResetPayload{Email: strings.TrimSpace(email)}
	if err := payload.Validate(); err != nil {
		return s.fail(ctx, opPasswordReset, "", payload.Email, validationFailure(opPasswordReset, err))
	}

	if err := requireFeatureGate(ctx, s.featureGate, gate.FeatureUsersPasswordReset, ErrPasswordResetDisabled); err != nil {
		return s.fail(ctx, opPasswordReset, "", payload.Email, gateFailure(opPasswordReset, err))
	}

	resetter, ok := s.provider.(PasswordResetter)
	if !ok {
		richErr := wrapKind(ErrOther, opPasswordReset, nil)
		richErr.Message = "password reset not supported"
		return s.fail(ctx, opPasswordReset, "", payload.Email, richErr)
	}

	if err := resetter.SendPasswordResetEmail(ctx, payload.Email); err != nil {
		return s.fail(ctx, opPasswordReset, "", payload.Email, classify(s.mapper, opPasswordReset, err))
	}

	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventPasswordResetRequested,
		Email:     payload.Email,
	})

	return success(Identity{})
}

// settle applies an operation write unless the observer delivered a
// notification after mark was taken. The observer value always stands.
func (s *SessionStore) settle(ctx context.Context, mark uint64, fn func(current Session) (Session, bool)) {
	s.write(ctx, SourceOperation, func(current Session) (Session, bool) {
		if s.observed != mark {
			return current, false
		}
		return fn(current)
	})
}

// settleSignedIn moves the session to Confirming unless the observer already
// reported on the sign-in.
func (s *SessionStore) settleSignedIn(ctx context.Context, mark uint64, identity Identity) {
	s.settle(ctx, mark, func(current Session) (Session, bool) {
		if current.status == StatusAuthenticated && current.identity.UID == identity.UID {
			return current, false
		}
		return Confirming(identity), true
	})
}

// settleProfile merges patch into the session value current at settlement
// when it carries the same identity. Otherwise nothing is written unless
// signIn is set and the observer has stayed silent since mark, in which case
// the merged identity is settled as Confirming.
func (s *SessionStore) settleProfile(ctx context.Context, mark uint64, identity Identity, patch ProfilePatch, signIn bool) Identity {
	merged := identity.Merge(patch)

	s.write(ctx, SourceOperation, func(current Session) (Session, bool) {
		if cached, ok := current.Identity(); ok && cached.UID == identity.UID {
			merged = cached.Merge(patch)
			return current.withIdentity(merged), true
		}
		if signIn && s.observed == mark {
			return Confirming(merged), true
		}
		return current, false
	})

	return merged
}

func (s *SessionStore) fail(ctx context.Context, operation string, event ActivityEventType, email string, richErr *errors.Error) Result {
	s.logFailure(operation, richErr)

	if event != "" {
		s.recordActivity(ctx, ActivityEvent{
			EventType: event,
			Email:     email,
			Kind:      KindOf(richErr),
			Metadata:  map[string]any{"operation": operation},
		})
	}

	return failure(richErr)
}

func (s *SessionStore) logFailure(operation string, richErr *errors.Error) {
	s.logger.Error("credential operation failed",
		"operation", operation,
		"kind", KindOf(richErr),
		"error", richErr.Message,
	)
	s.logger.Debug("credential operation failure details",
		"operation", operation,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)
}

func gateFailure(operation string, err error) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) && KindOf(richErr) == KindDisabled {
		return wrapKind(richErr, operation, nil)
	}
	return wrapKind(ErrOther, operation, err)
}
