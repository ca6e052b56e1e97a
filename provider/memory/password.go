package memory

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errEmptyPassword      = errors.New("password must not be empty")
	errMismatchedPassword = errors.New("password does not match hash")
)

// hashPassword generates a bcrypt hash with the given cost.
func hashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errEmptyPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(h), err
}

// comparePasswordAndHash validates the cleartext password against hash.
func comparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errMismatchedPassword
		}
		return err
	}
	return nil
}

// randomPasswordHash is stored for federated accounts, which never sign in
// with a password.
func randomPasswordHash(cost int) string {
	h, err := hashPassword(uuid.NewString(), cost)
	if err != nil {
		return ""
	}
	return h
}
