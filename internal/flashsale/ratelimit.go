package flashsale

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/flashdealz-backend/pkg/config"
	"github.com/angelmondragon/flashdealz-backend/pkg/logger"
)

// RateLimiter bounds purchase attempts per (user, item) using a
// counter-with-TTL over the shared counter store.
type RateLimiter struct {
	store  CounterStore
	logg   *logger.Logger
	limit  int64
	window time.Duration
}

// NewRateLimiter builds the purchase-path limiter.
func NewRateLimiter(store CounterStore, cfg config.FlashSaleConfig, logg *logger.Logger) (*RateLimiter, error) {
	if store == nil {
		return nil, errors.New("counter store required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	limit := int64(cfg.RateLimitCount)
	if limit <= 0 {
		limit = 5
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Second
	}
	return &RateLimiter{store: store, logg: logg, limit: limit, window: window}, nil
}

// Allow reports whether the caller is within the window budget. A counter
// store outage fails OPEN: denying all traffic because the limiter is down
// is worse than briefly over-admitting, and the atomic stock decrement
// still protects the inventory invariants downstream.
func (r *RateLimiter) Allow(ctx context.Context, userID string, itemID uuid.UUID) bool {
	count, err := r.store.IncrWithTTL(ctx, rateLimitKey(userID, itemID), r.window)
	if err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "rate limiter store unreachable, failing open")
		return true
	}
	return count <= r.limit
}
