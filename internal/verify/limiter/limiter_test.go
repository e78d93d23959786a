package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashout/internal/platform/logger"
	id "cashout/pkg/domain"
)

func TestAllow_NilClientDisablesLimiting(t *testing.T) {
	l := New(nil, logger.New(), 3, time.Minute)
	userID := id.NewUserID()

	for i := 0; i < 10; i++ {
		require.NoError(t, l.Allow(context.Background(), userID))
	}
}

func TestAllow_FailsOpenWhenRedisUnreachable(t *testing.T) {
	// Port 1 is never listening; every command errors immediately.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	l := New(client, logger.New(), 3, time.Minute)
	assert.NoError(t, l.Allow(context.Background(), id.NewUserID()))
}
