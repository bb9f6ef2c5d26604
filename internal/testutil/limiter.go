package testutil

import (
	"net/http"

	"github.com/dom/bloghub/internal/config"
	"github.com/dom/bloghub/internal/ratelimit"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// newTestLimiter always uses an in-memory store so tests never need Redis.
func newTestLimiter(cfg *config.Config) (func(http.Handler) http.Handler, error) {
	l, err := ratelimit.NewWithStore(memory.NewStore(), cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	return l.Handler, nil
}
