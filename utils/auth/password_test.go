package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, VerifyPassword(hash, "correct horse battery staple"))
	assert.Error(t, VerifyPassword(hash, "wrong password"))
}

func TestHashPasswordProducesUniqueHashes(t *testing.T) {
	first, err := HashPassword("same password")
	require.NoError(t, err)
	second, err := HashPassword("same password")
	require.NoError(t, err)

	// bcrypt salts every hash
	assert.NotEqual(t, first, second)
}

func TestIsPasswordValid(t *testing.T) {
	assert.False(t, IsPasswordValid(""))
	assert.False(t, IsPasswordValid("short"))
	assert.False(t, IsPasswordValid("1234567"))
	assert.True(t, IsPasswordValid("12345678"))
	assert.True(t, IsPasswordValid("a perfectly fine password"))
}
