package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	jwtService := NewJWTService("test-secret")

	token, err := jwtService.GenerateJWT("admin", time.Now().Add(time.Hour))
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "groupgate", claims.Issuer)
}

func TestValidateToken(t *testing.T) {
	jwtService := NewJWTService("test-secret")

	tests := []struct {
		name        string
		token       func() string
		expectError bool
	}{
		{
			name: "Expired token",
			token: func() string {
				token, _ := jwtService.GenerateJWT("admin", time.Now().Add(-time.Hour))
				return token
			},
			expectError: true,
		},
		{
			name: "Garbage token",
			token: func() string {
				return "not.a.token"
			},
			expectError: true,
		},
		{
			name: "Token signed with a different secret",
			token: func() string {
				token, _ := NewJWTService("other-secret").GenerateJWT("admin", time.Now().Add(time.Minute))
				return token
			},
			expectError: true,
		},
		{
			name: "Valid token",
			token: func() string {
				token, _ := jwtService.GenerateJWT("admin", time.Now().Add(time.Minute))
				return token
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := jwtService.ValidateToken(tt.token())
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, claims)
			}
		})
	}
}
