package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisLimiter is a sliding-window limiter shared by every server instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisLimiterConfig contains options for creating a new RedisLimiter.
type NewRedisLimiterConfig struct {
	Address  string
	Password string
	DB       int
	// Limit is the number of events allowed per Window.
	Limit  int
	Window time.Duration
}

// NewRedisLimiter connects to Redis and verifies the connection.
func NewRedisLimiter(ctx context.Context, cfg NewRedisLimiterConfig, logger *zap.Logger) (*RedisLimiter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}
	logger.Info("Connected to Redis rate limiter", zap.String("addr", cfg.Address), zap.Int("limit", cfg.Limit))
	return newRedisLimiter(rdb, cfg.Limit, cfg.Window), nil
}

func newRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "lyra:ratelimit:", now: time.Now}
}

// Allow records the event and reports whether the window was below the limit.
// Rejected events are still recorded, so a client that keeps retrying stays limited.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	now := l.now()
	redisKey := l.prefix + key
	nowNano := now.UnixNano()
	windowStart := now.Add(-l.window).UnixNano()

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))
	count := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, &redis.Z{Score: float64(nowNano), Member: nowNano})
	pipe.Expire(ctx, redisKey, l.window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit pipeline for %q: %w", key, err)
	}
	return count.Val() < int64(l.limit), nil
}

// Reset clears the window of key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit for %q: %w", key, err)
	}
	return nil
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
