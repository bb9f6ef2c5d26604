package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsDashboardPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/dashboard", true},
		{"/dashboard/blog", true},
		{"/my-posts", true},
		{"/my-posts/123/delete", true},
		{"/create-post", true},
		{"/categories", true},
		{"/analytics", true},
		{"/comments", true},
		{"/settings/password", true},
		{"/help", true},
		{"/admin/users", true},
		{"/", false},
		{"/login", false},
		{"/register", false},
		{"/posts/123", false},
		{"/posts/123/comments", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDashboardPath(tt.path))
		})
	}
}

func TestChrome(t *testing.T) {
	assert.Equal(t, ChromeDashboard, Chrome("/settings"))
	assert.Equal(t, ChromePublic, Chrome("/"))
	assert.Equal(t, ChromePublic, Chrome("/login"))
}

func TestGate(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	gated := Gate(ok)

	signedIn := &service.Session{ID: uuid.New(), User: &domain.User{ID: uuid.New()}}

	tests := []struct {
		name     string
		path     string
		session  *service.Session
		wantCode int
	}{
		{"anonymous dashboard", "/dashboard", nil, http.StatusSeeOther},
		{"anonymous nested dashboard", "/my-posts/1/delete", nil, http.StatusSeeOther},
		{"anonymous public", "/", nil, http.StatusOK},
		{"signed in dashboard", "/dashboard", signedIn, http.StatusOK},
		{"signed in public", "/login", signedIn, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.session != nil {
				req = req.WithContext(service.WithSession(req.Context(), tt.session))
			}
			rec := httptest.NewRecorder()
			gated.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusSeeOther {
				assert.Equal(t, "/login", rec.Header().Get("Location"))
			}
		})
	}
}
