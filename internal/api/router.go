package api

import (
	"net/http"

	"github.com/dom/bloghub/internal/api/handlers"
	"github.com/dom/bloghub/internal/api/middleware"
	"github.com/dom/bloghub/internal/config"
	"github.com/dom/bloghub/internal/logging"
	"github.com/dom/bloghub/internal/metrics"
	"github.com/dom/bloghub/internal/service"
	"github.com/dom/bloghub/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps is everything the router needs besides the services.
type Deps struct {
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
	Logger   zerolog.Logger
	// AuthLimit throttles login and register, on both the API and the site.
	AuthLimit func(http.Handler) http.Handler
	// Site serves the HTML pages. It is mounted at "/" when set.
	Site http.Handler
}

func NewRouter(deps Deps) http.Handler {
	services, cfg := deps.Services, deps.Config
	authLimit := deps.AuthLimit
	if authLimit == nil {
		authLimit = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(logging.Middleware(deps.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authHandler := handlers.NewAuthHandler(services.Auth)
	postHandler := handlers.NewPostHandler(services.Post, services.Interaction)
	interactionHandler := handlers.NewInteractionHandler(services.Interaction)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, services.Auth, cfg.CORSAllowedOrigins)

	requireAuth := middleware.Auth(services.Auth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			AllowCredentials: false,
			MaxAge:           300,
		}))

		r.Route("/auth", func(r chi.Router) {
			r.With(authLimit).Post("/register", authHandler.Register)
			r.With(authLimit).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Patch("/me", authHandler.UpdateProfile)
				r.Post("/me/password", authHandler.ChangePassword)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.List)
			r.Get("/featured", postHandler.Featured)
			r.Get("/stats", postHandler.Stats)
			r.With(requireAuth).Post("/", postHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.Get)
				r.Get("/comments", interactionHandler.ListComments)
				r.With(middleware.OptionalAuth(services.Auth)).Post("/comments", interactionHandler.AddComment)

				r.Group(func(r chi.Router) {
					r.Use(requireAuth)
					r.Delete("/", postHandler.Delete)
					r.Post("/like", interactionHandler.Like)
					r.Delete("/like", interactionHandler.Unlike)
				})
			})
		})

		r.With(requireAuth).Get("/users/me/posts", postHandler.MyPosts)

		r.Get("/ws", wsHandler.Handle)
	})

	if deps.Site != nil {
		r.Mount("/", deps.Site)
	}

	return r
}
