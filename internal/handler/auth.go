package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/service"
)

// AuthHandler holds the account and session handlers.
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Signup handles POST /auth/signup
// Creates a member account and returns its id.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}

	writeJSON(w, http.StatusCreated, model.SignupResponse{
		Message: "user created successfully",
		UserID:  user.ID,
	})
}

// Login handles POST /auth/login
// Exchanges email and password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	user, err := h.svc.Me(r.Context(), principal.UserID)
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Logout handles POST /auth/logout
// Tokens are stateless; the client discards its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "logged out"})
}
