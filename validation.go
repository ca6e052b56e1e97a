package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// PasswordPolicy holds the rules a new password must satisfy.
type PasswordPolicy struct {
	MinLength    int
	RequireUpper bool
	RequireLower bool
}

// DefaultPasswordPolicy requires six characters with mixed case.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:    6,
		RequireUpper: true,
		RequireLower: true,
	}
}

// Violations lists every rule the password breaks, in a stable order.
func (p PasswordPolicy) Violations(password string) []string {
	var out []string

	if p.MinLength > 0 && len([]rune(password)) < p.MinLength {
		out = append(out, fmt.Sprintf("must be at least %d characters", p.MinLength))
	}

	var hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}

	if p.RequireUpper && !hasUpper {
		out = append(out, "must contain an upper-case letter")
	}
	if p.RequireLower && !hasLower {
		out = append(out, "must contain a lower-case letter")
	}

	return out
}

func (p PasswordPolicy) rule(value any) error {
	password, _ := value.(string)
	if violations := p.Violations(password); len(violations) > 0 {
		return errors.New(strings.Join(violations, "; "))
	}
	return nil
}

// RegisterPayload is the input of SessionStore.Register.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photo_url"`
	Password string `json:"password"`
}

// Validate checks the payload against policy.
func (r RegisterPayload) Validate(policy PasswordPolicy) error {
	r.Name = strings.TrimSpace(r.Name)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.By(policy.rule)),
	)
}

// SignInPayload is the input of SessionStore.SignIn.
type SignInPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks both fields are present and the e-mail is well formed.
func (s SignInPayload) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Email, validation.Required, is.Email),
		validation.Field(&s.Password, validation.Required),
	)
}

// PasswordResetPayload is the input of SessionStore.RequestPasswordReset.
type PasswordResetPayload struct {
	Email string `json:"email"`
}

// Validate checks the e-mail is present and well formed.
func (p PasswordResetPayload) Validate() error {
	p.Email = strings.TrimSpace(p.Email)
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

func validateProfilePatch(patch ProfilePatch) error {
	if patch.IsEmpty() {
		return errors.New("profile patch: nothing to update")
	}

	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if err := validation.Validate(name, validation.Required); err != nil {
			return validation.Errors{"display_name": err}
		}
	}

	return nil
}

// validationFailure wraps a local precondition failure. The message lists the
// broken rules so views can show them directly.
func validationFailure(operation string, err error) *goerrors.Error {
	extra := map[string]any{}

	var fields validation.Errors
	if errors.As(err, &fields) {
		details := make(map[string]any, len(fields))
		for name, fieldErr := range fields {
			details[name] = fieldErr.Error()
		}
		extra["fields"] = details
	}

	richErr := wrapKind(ErrValidation, operation, err, extra)
	richErr.Message = fmt.Sprintf("%s: %s", ErrValidation.Message, err.Error())
	return richErr
}
