package web

import (
	"net/http"
	"strings"

	"github.com/dom/bloghub/internal/service"
)

const (
	ChromeDashboard = "dashboard"
	ChromePublic    = "public"
)

var dashboardPrefixes = []string{
	"/dashboard",
	"/my-posts",
	"/create-post",
	"/categories",
	"/analytics",
	"/comments",
	"/settings",
	"/help",
	"/admin",
}

// IsDashboardPath reports whether path belongs to the signed-in area. It is
// a plain prefix match, so "/settings/password" and "/dashboard-x" both count.
func IsDashboardPath(path string) bool {
	for _, prefix := range dashboardPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Chrome picks the navigation shell for path: the sidebar for dashboard
// pages, the top navbar everywhere else.
func Chrome(path string) string {
	if IsDashboardPath(path) {
		return ChromeDashboard
	}
	return ChromePublic
}

// Gate redirects anonymous requests for dashboard paths to the login page.
// It must run after the session middleware.
func Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsDashboardPath(r.URL.Path) && service.SessionFromContext(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
