package web

import (
	"crypto/sha256"
	"encoding/json"
	"net/http"

	"github.com/dom/bloghub/internal/config"
	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/service"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

const (
	authCookieName  = "bloghub_session"
	flashCookieName = "bloghub_flash"

	keyAuthToken = "auth_token"
	keyUserData  = "user_data"
)

// NewCookieStore returns the browser-side store for the login token and
// user snapshot. Cookies are signed with SESSION_SECRET and encrypted with a
// key derived from it.
func NewCookieStore(cfg *config.Config) *sessions.CookieStore {
	blockKey := sha256.Sum256([]byte(cfg.SessionSecret))
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret), blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// readAuth loads the stored token and user snapshot. Missing, tampered or
// undecodable cookies read as empty.
func (h *Handler) readAuth(r *http.Request) service.StoredAuth {
	sess, err := h.store.Get(r, authCookieName)
	if err != nil {
		return service.StoredAuth{}
	}

	token, _ := sess.Values[keyAuthToken].(string)
	raw, _ := sess.Values[keyUserData].(string)
	if token == "" || raw == "" {
		return service.StoredAuth{}
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return service.StoredAuth{}
	}
	return service.StoredAuth{Token: token, User: &user}
}

func (h *Handler) writeAuth(w http.ResponseWriter, r *http.Request, token string, user *domain.User) error {
	snapshot, err := json.Marshal(user.Sanitized())
	if err != nil {
		return err
	}

	sess, _ := h.store.Get(r, authCookieName)
	sess.Values[keyAuthToken] = token
	sess.Values[keyUserData] = string(snapshot)
	return sess.Save(r, w)
}

func (h *Handler) clearAuth(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.store.Get(r, authCookieName)
	sess.Values = map[interface{}]interface{}{}
	// The session object is shared for the rest of the request, so a later
	// writeAuth must not inherit the expiry.
	opts := *sess.Options
	opts.MaxAge = -1
	sess.Options = &opts
	if err := sess.Save(r, w); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("[web.clearAuth] failed to clear cookie")
	}
}

func (h *Handler) addFlash(w http.ResponseWriter, r *http.Request, msg string) {
	sess, _ := h.store.Get(r, flashCookieName)
	sess.AddFlash(msg)
	if err := sess.Save(r, w); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("[web.addFlash] failed to save flash")
	}
}

func (h *Handler) popFlashes(w http.ResponseWriter, r *http.Request) []string {
	sess, err := h.store.Get(r, flashCookieName)
	if err != nil {
		return nil
	}
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("[web.popFlashes] failed to save flash")
	}

	out := make([]string, 0, len(flashes))
	for _, f := range flashes {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Session restores the signed-in session from the cookie on every request.
// The token is re-checked against the session table each time; when it is
// rejected the cookie is cleared and the request continues anonymously.
func (h *Handler) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stored := h.readAuth(r)
		if stored.Token == "" {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := h.auth.CheckAuth(r.Context(), stored)
		if err != nil {
			if service.IsAuthError(err) {
				zerolog.Ctx(r.Context()).Info().Err(err).Msg("[web.Session] stored session rejected")
				h.clearAuth(w, r)
			} else {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("[web.Session] session check failed")
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(service.WithSession(r.Context(), sess)))
	})
}
