package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/service"
	"github.com/rs/zerolog"
)

// Auth requires a valid bearer token and puts the resolved session on the
// request context.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				zerolog.Ctx(r.Context()).Warn().Msg("[middleware.Auth] missing or malformed authorization header")
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			sess, err := authService.ValidateToken(r.Context(), token)
			if err != nil {
				if service.IsAuthError(err) {
					zerolog.Ctx(r.Context()).Warn().Err(err).Msg("[middleware.Auth] token rejected")
					http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
					return
				}
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("[middleware.Auth] token validation failed")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithSession(r.Context(), sess)))
		})
	}
}

// OptionalAuth resolves a bearer token when one is sent and lets anonymous
// requests through. A token that is sent but invalid is still rejected.
func OptionalAuth(authService *service.AuthService) func(http.Handler) http.Handler {
	required := Auth(authService)
	return func(next http.Handler) http.Handler {
		withAuth := required(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			withAuth.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Device describes the client that sent r, for the session's device metadata.
func Device(r *http.Request) domain.DeviceInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	return domain.DeviceInfo{
		UserAgent: r.UserAgent(),
		Platform:  strings.Trim(r.Header.Get("Sec-CH-UA-Platform"), `"`),
		Language:  firstLanguage(r.Header.Get("Accept-Language")),
		IP:        ip,
		Timestamp: time.Now().UTC(),
	}
}

func firstLanguage(header string) string {
	lang, _, _ := strings.Cut(header, ",")
	lang, _, _ = strings.Cut(lang, ";")
	return strings.TrimSpace(lang)
}
