package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestComparePassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("securepassword"), bcrypt.DefaultCost)
	require.NoError(t, err)

	assert.True(t, ComparePassword(string(hash), "securepassword"))
	assert.False(t, ComparePassword(string(hash), "wrong"))
	assert.False(t, ComparePassword("", "securepassword"))
	assert.False(t, ComparePassword("not a bcrypt hash", "securepassword"))
}
