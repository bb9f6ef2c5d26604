package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/bloghub/internal/api"
	"github.com/dom/bloghub/internal/config"
	"github.com/dom/bloghub/internal/repository"
	"github.com/dom/bloghub/internal/repository/gormrepo"
	"github.com/dom/bloghub/internal/service"
	"github.com/dom/bloghub/internal/web"
	"github.com/dom/bloghub/internal/websocket"
	"github.com/rs/zerolog"
)

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Environment:        "test",
		LogLevel:           "disabled",
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		DatabaseDriver:     "sqlite",
		SessionSecret:      "test-session-secret-0123456789abcdef",
		SessionTTL:         time.Hour,
		RateLimit:          "1000-M",
		CORSAllowedOrigins: []string{"*"},
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
}

// NewTestServer starts the full application, API and HTML site, over a
// fresh test database.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithConfig(t, TestConfig())
}

func NewTestServerWithConfig(t *testing.T, cfg *config.Config) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)

	repos := gormrepo.NewRepositories(testDB.DB)
	hub := websocket.NewHub()
	go hub.Run()

	services := service.NewServices(repos, cfg, hub)

	limiter, err := newTestLimiter(cfg)
	if err != nil {
		t.Fatalf("failed to create rate limiter: %v", err)
	}

	site, err := web.NewHandler(services, web.NewCookieStore(cfg), limiter)
	if err != nil {
		t.Fatalf("failed to create web handler: %v", err)
	}

	router := api.NewRouter(api.Deps{
		Services:  services,
		Hub:       hub,
		Config:    cfg,
		Logger:    zerolog.New(io.Discard),
		AuthLimit: limiter,
		Site:      site.Routes(),
	})

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// WebSocketURL returns the live feed URL, with the token when one is given.
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + ts.Server.URL[4:] + "/api/v1/ws"
	if token != "" {
		wsURL += "?token=" + token
	}
	return wsURL
}

// Browser returns a client that keeps cookies and does not follow redirects,
// so tests can assert on each redirect.
func (ts *TestServer) Browser(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
