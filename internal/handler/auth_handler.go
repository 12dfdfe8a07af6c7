package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"sim-sync/internal/domain"
	"sim-sync/internal/service"
	"sim-sync/pkg/response"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validate
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator.New(),
	}
}

// Session opens a development session for the user named in the
// optional {"user_id": "..."} body.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	session, err := h.authService.IssueSession(req.UserID)
	if err != nil {
		response.InternalError(w, "Failed to issue session")
		return
	}

	response.Created(w, session)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.Unauthorized(w, "Refresh token is required")
		return
	}

	tokenResp, err := h.authService.RefreshToken(&req)
	if err != nil {
		response.Unauthorized(w, "Invalid refresh token")
		return
	}

	response.Success(w, tokenResp)
}
