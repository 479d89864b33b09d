package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ndenisov/groupgate/internal/dto"
	"github.com/ndenisov/groupgate/pkg/auth"
	"github.com/ndenisov/groupgate/pkg/utils"
)

const tokenTTL = 24 * time.Hour

// AuthHandler issues admin tokens. There is a single operator account whose
// bcrypt hash comes from configuration, no registration path.
type AuthHandler struct {
	passwordHash string
	jwtService   auth.JWTServiceInterface
}

func New(passwordHash string, jwtService auth.JWTServiceInterface) *AuthHandler {
	return &AuthHandler{
		passwordHash: passwordHash,
		jwtService:   jwtService,
	}
}

// Login godoc
//
//	@Summary		Authenticate the operator
//	@Description	Exchange the admin password for a JWT token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.LoginRequestDTO	true	"Login request body"
//	@Success		200		{object}	dto.LoginResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"Invalid credentials"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequestDTO
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if h.passwordHash == "" || !auth.ComparePassword(h.passwordHash, req.Password) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := h.jwtService.GenerateJWT("admin", time.Now().Add(tokenTTL))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error generating token")
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	utils.RespondWithJSON(w, http.StatusOK, dto.LoginResponseDTO{
		Message: "Operator successfully authenticated",
	})
}
