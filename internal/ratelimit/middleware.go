package ratelimit

import (
	"fmt"
	"net/http"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	mstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/evertill/pos-api/internal/common"
)

// NewLoginLimiter builds the middleware guarding the login endpoint. The rate
// uses limiter's formatted syntax, e.g. "10-M" for ten requests per minute
// per client IP, counted in Redis so every API replica shares the budget.
func NewLoginLimiter(rdb *redis.Client, rate string) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("parse login rate %q: %w", rate, err)
	}
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix: "ratelimit:login",
	})
	if err != nil {
		return nil, fmt.Errorf("init limiter store: %w", err)
	}
	middleware := mstdlib.NewMiddleware(
		limiter.New(store, parsed, limiter.WithTrustForwardHeader(true)),
		mstdlib.WithLimitReachedHandler(limitReached),
		mstdlib.WithErrorHandler(limiterError),
	)
	return middleware.Handler, nil
}

func limitReached(w http.ResponseWriter, _ *http.Request) {
	common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many login attempts, slow down", nil)
}

func limiterError(w http.ResponseWriter, _ *http.Request, _ error) {
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rate limiter unavailable", nil)
}
