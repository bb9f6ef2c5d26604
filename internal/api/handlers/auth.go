package handlers

import (
	"net/http"
	"time"

	"github.com/dom/bloghub/internal/api/middleware"
	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/service"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	FullName string  `json:"fullName" validate:"required,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Gender   *string `json:"gender" validate:"omitempty,max=32"`
	Age      *int    `json:"age"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"fullName" validate:"omitempty,max=100"`
	Gender   *string `json:"gender" validate:"omitempty,max=32"`
	Age      *int    `json:"age"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type AuthResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func newAuthResponse(result *service.AuthResult) AuthResponse {
	return AuthResponse{User: result.User, Token: result.Token, ExpiresAt: result.ExpiresAt}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Gender:   req.Gender,
		Age:      req.Age,
		Device:   middleware.Device(r),
	})
	if err != nil {
		writeError(w, r, "AuthHandler.Register", err)
		return
	}

	writeJSON(w, http.StatusCreated, newAuthResponse(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Device:   middleware.Device(r),
	})
	if err != nil {
		writeError(w, r, "AuthHandler.Login", err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(result))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := service.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, sess.User)
}

// Logout always succeeds for the caller; an unknown or already logged-out
// token is ignored.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.BearerToken(r); ok {
		if err := h.authService.Logout(r.Context(), token); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("[AuthHandler.Logout] failed to end session")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), service.SessionFromContext(r.Context()), service.ProfileUpdate{
		FullName: req.FullName,
		Gender:   req.Gender,
		Age:      req.Age,
	})
	if err != nil {
		writeError(w, r, "AuthHandler.UpdateProfile", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	err := h.authService.ChangePassword(r.Context(), service.SessionFromContext(r.Context()), req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, "AuthHandler.ChangePassword", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
