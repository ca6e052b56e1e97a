package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := hashPassword("Ab1234", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Ab1234", hash)

	assert.NoError(t, comparePasswordAndHash("Ab1234", hash))
	assert.ErrorIs(t, comparePasswordAndHash("ab1234", hash), errMismatchedPassword)

	_, err = hashPassword("", bcrypt.MinCost)
	assert.ErrorIs(t, err, errEmptyPassword)
}

func TestRandomPasswordHashIsUsable(t *testing.T) {
	a := randomPasswordHash(bcrypt.MinCost)
	b := randomPasswordHash(bcrypt.MinCost)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
