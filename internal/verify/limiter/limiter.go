// Package limiter caps verification attempts per user over a sliding window.
//
// The trust provider treats repeated failures as abuse and can lock the
// client out, and every attempt consumes a unique request id. The limiter is
// a guard in front of the orchestrator, not a correctness mechanism, so it
// fails open: if Redis is unreachable the attempt proceeds and the outage is
// logged.
package limiter

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "cashout/pkg/domain"
	dErrors "cashout/pkg/domain-errors"
)

// Limiter tracks attempt counts in Redis with a fixed window per user.
type Limiter struct {
	client      *redis.Client
	logger      *slog.Logger
	maxAttempts int64
	window      time.Duration
}

// New constructs a limiter. A nil client disables limiting entirely
// (Redis not configured).
func New(client *redis.Client, logger *slog.Logger, maxAttempts int64, window time.Duration) *Limiter {
	return &Limiter{
		client:      client,
		logger:      logger,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Allow returns nil when the user may attempt verification now, or a
// rate_limited domain error when the window is exhausted.
func (l *Limiter) Allow(ctx context.Context, userID id.UserID) error {
	if l.client == nil {
		return nil
	}
	key := "verify:attempts:" + userID.String()

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.WarnContext(ctx, "attempt limiter unavailable, failing open",
			"user_id", userID,
			"error", err,
		)
		return nil
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.WarnContext(ctx, "attempt limiter expire failed",
				"user_id", userID,
				"error", err,
			)
		}
	}
	if count > l.maxAttempts {
		return dErrors.New(dErrors.CodeRateLimited, "too many verification attempts, try again later")
	}
	return nil
}
