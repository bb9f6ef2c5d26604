package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dom/bloghub/internal/api/middleware"
	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/service"
)

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if service.SessionFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", pageData{Title: "Sign in"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
		Device:   middleware.Device(r),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.render(w, r, http.StatusUnauthorized, "login", pageData{
				Title: "Sign in",
				Error: "Invalid email or password",
				Form:  withoutPasswords(r.PostForm),
			})
			return
		}
		h.serverError(w, r, "Login", err)
		return
	}

	if previous := service.SessionFromContext(r.Context()); previous != nil {
		if err := h.auth.Logout(r.Context(), previous.Token); err != nil {
			h.logWarn(r, "Login", err)
		}
	}
	if err := h.writeAuth(w, r, result.Token, result.User); err != nil {
		h.serverError(w, r, "Login", err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if service.SessionFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "register", pageData{Title: "Create account"})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	input := service.RegisterInput{
		FullName: r.PostForm.Get("fullName"),
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
		Gender:   optionalString(r.PostForm.Get("gender")),
		Device:   middleware.Device(r),
	}
	age, err := optionalInt(r.PostForm.Get("age"))
	if err != nil {
		h.renderRegisterError(w, r, http.StatusBadRequest, domain.ErrInvalidAge.Error())
		return
	}
	input.Age = age

	if r.PostForm.Get("password") != r.PostForm.Get("confirmPassword") {
		h.renderRegisterError(w, r, http.StatusBadRequest, "Passwords do not match")
		return
	}

	result, err := h.auth.Register(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			h.renderRegisterError(w, r, http.StatusConflict, "An account with this email already exists")
		case domain.IsValidationError(err):
			h.renderRegisterError(w, r, http.StatusBadRequest, err.Error())
		default:
			h.serverError(w, r, "Register", err)
		}
		return
	}

	if err := h.writeAuth(w, r, result.Token, result.User); err != nil {
		h.serverError(w, r, "Register", err)
		return
	}
	h.addFlash(w, r, "Welcome to BlogHub, "+result.User.FullName+"!")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) renderRegisterError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.render(w, r, status, "register", pageData{
		Title: "Create account",
		Error: msg,
		Form:  withoutPasswords(r.PostForm),
	})
}

// Logout ends the session server-side when possible and always clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if stored := h.readAuth(r); stored.Token != "" {
		if err := h.auth.Logout(r.Context(), stored.Token); err != nil {
			h.logWarn(r, "Logout", err)
		}
	}
	h.clearAuth(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) SettingsPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "settings", pageData{Title: "Settings"})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	sess := service.SessionFromContext(r.Context())

	fullName := r.PostForm.Get("fullName")
	gender := r.PostForm.Get("gender")
	update := service.ProfileUpdate{FullName: &fullName, Gender: &gender}
	age, err := optionalInt(r.PostForm.Get("age"))
	if err != nil {
		h.renderSettingsError(w, r, domain.ErrInvalidAge.Error())
		return
	}
	update.Age = age

	user, err := h.auth.UpdateProfile(r.Context(), sess, update)
	if err != nil {
		if domain.IsValidationError(err) {
			h.renderSettingsError(w, r, err.Error())
			return
		}
		h.serverError(w, r, "UpdateProfile", err)
		return
	}

	// Refresh the snapshot so the next page load shows the new profile.
	if err := h.writeAuth(w, r, sess.Token, user); err != nil {
		h.serverError(w, r, "UpdateProfile", err)
		return
	}
	h.addFlash(w, r, "Profile updated")
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	newPassword := r.PostForm.Get("newPassword")
	if newPassword != r.PostForm.Get("confirmPassword") {
		h.renderSettingsError(w, r, "New passwords do not match")
		return
	}

	err := h.auth.ChangePassword(r.Context(), service.SessionFromContext(r.Context()), r.PostForm.Get("currentPassword"), newPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIncorrectPassword):
			h.renderSettingsError(w, r, "Current password is incorrect")
		case domain.IsValidationError(err):
			h.renderSettingsError(w, r, err.Error())
		default:
			h.serverError(w, r, "ChangePassword", err)
		}
		return
	}

	h.addFlash(w, r, "Password changed. Other devices have been signed out.")
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

func (h *Handler) renderSettingsError(w http.ResponseWriter, r *http.Request, msg string) {
	h.render(w, r, http.StatusBadRequest, "settings", pageData{Title: "Settings", Error: msg})
}

func optionalString(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func optionalInt(s string) (*int, error) {
	if s = strings.TrimSpace(s); s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func withoutPasswords(form map[string][]string) map[string][]string {
	out := make(map[string][]string, len(form))
	for k, v := range form {
		if !strings.Contains(strings.ToLower(k), "password") {
			out[k] = v
		}
	}
	return out
}
