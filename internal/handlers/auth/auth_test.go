package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ndenisov/groupgate/internal/dto"
	"github.com/ndenisov/groupgate/pkg/auth"
)

func operatorHash(t *testing.T) string {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginHandler(t *testing.T) {
	hash := operatorHash(t)

	tests := []struct {
		name         string
		passwordHash string
		body         string
		expectedCode int
	}{
		{
			name:         "Successful login",
			passwordHash: hash,
			body:         `{"password":"correct horse"}`,
			expectedCode: http.StatusOK,
		},
		{
			name:         "Wrong password",
			passwordHash: hash,
			body:         `{"password":"battery staple"}`,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "No operator hash configured",
			passwordHash: "",
			body:         `{"password":"correct horse"}`,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "Invalid request body",
			passwordHash: hash,
			body:         `{`,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := New(tt.passwordHash, auth.NewJWTService("test-secret"))

			req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			handler.Login(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
			if tt.expectedCode == http.StatusOK {
				assert.NotEmpty(t, rr.Header().Get("Authorization"))
				var resp dto.LoginResponseDTO
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, "Operator successfully authenticated", resp.Message)
			}
		})
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	handler := New(operatorHash(t), jwtService)

	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(`{"password":"correct horse"}`))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	token := rr.Header().Get("Authorization")
	require.True(t, len(token) > len("Bearer "))
	claims, err := jwtService.ValidateToken(token[len("Bearer "):])
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
}
