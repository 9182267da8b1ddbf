package ratelimit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Requires a reachable Redis; set REDIS_TEST_ADDR to run.
func TestRedisLimiter_SlidingWindow(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	l, err := NewRedisLimiter(ctx, NewRedisLimiterConfig{Address: addr, Limit: 2, Window: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	defer l.Close()

	key := fmt.Sprintf("test:%d", time.Now().UnixNano())
	defer l.Reset(ctx, key)

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Reset(ctx, key))
	ok, err = l.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}
