package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/bloghub/internal/api"
	"github.com/dom/bloghub/internal/config"
	"github.com/dom/bloghub/internal/logging"
	"github.com/dom/bloghub/internal/ratelimit"
	"github.com/dom/bloghub/internal/repository/gormrepo"
	"github.com/dom/bloghub/internal/service"
	"github.com/dom/bloghub/internal/web"
	"github.com/dom/bloghub/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.Setup(cfg.LogLevel, cfg.Environment)

	// Initialize database
	db, err := gormrepo.Open(cfg.DatabaseDriver, cfg.DatabaseURL, gormrepo.LogLevel(cfg.LogLevel))
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to connect to database")
	}

	// Initialize repositories
	repos := gormrepo.NewRepositories(db)

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize services
	services := service.NewServices(repos, cfg, hub)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter, err := ratelimit.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create rate limiter")
	}
	defer limiter.Close()

	site, err := web.NewHandler(services, web.NewCookieStore(cfg), limiter.Handler)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load templates")
	}

	// Initialize router
	router := api.NewRouter(api.Deps{
		Services:  services,
		Hub:       hub,
		Config:    cfg,
		Logger:    logger,
		AuthLimit: limiter.Handler,
		Site:      site.Routes(),
	})

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	logger.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	hub.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info().Msg("server stopped")
}
