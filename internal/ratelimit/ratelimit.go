// Package ratelimit throttles the login and register endpoints per client IP.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dom/bloghub/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const storePrefix = "bloghub:auth"

type Limiter struct {
	middleware *stdlib.Middleware
	redis      *redis.Client
}

// New builds the limiter from cfg.RateLimit (limiter format, e.g. "10-M").
// With REDIS_URL set the counters are shared through Redis, otherwise they
// live in process memory.
func New(ctx context.Context, cfg *config.Config) (*Limiter, error) {
	if cfg.RedisURL == "" {
		return NewWithStore(memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: storePrefix}), cfg.RateLimit)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: storePrefix})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create redis limiter store: %w", err)
	}

	l, err := NewWithStore(store, cfg.RateLimit)
	if err != nil {
		client.Close()
		return nil, err
	}
	l.redis = client
	return l, nil
}

func NewWithStore(store limiter.Store, formatted string) (*Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT %q: %w", formatted, err)
	}

	instance := limiter.New(store, rate)
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(limitReached),
		stdlib.WithErrorHandler(storeFailed),
	)
	return &Limiter{middleware: mw}, nil
}

func (l *Limiter) Handler(next http.Handler) http.Handler {
	return l.middleware.Handler(next)
}

func (l *Limiter) Close() error {
	if l.redis != nil {
		return l.redis.Close()
	}
	return nil
}

func limitReached(w http.ResponseWriter, r *http.Request) {
	zerolog.Ctx(r.Context()).Warn().
		Str("path", r.URL.Path).
		Msg("[ratelimit] limit reached")
	http.Error(w, "Too many attempts, please try again later", http.StatusTooManyRequests)
}

func storeFailed(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("[ratelimit] store error")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
