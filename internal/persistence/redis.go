package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/joshliford/amplify-guitar/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client redis.Cmdable
	closer func() error
}

// NewRedis connects to Redis. It returns nil when no address is configured.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; login throttling disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client, closer: client.Close}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.closer != nil {
		_ = r.closer()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// AttemptStore is a Redis-backed fixed-window counter.
type AttemptStore struct {
	client redis.Cmdable
}

// NewAttemptStore returns nil when r is not configured.
func NewAttemptStore(r *Redis) *AttemptStore {
	if r == nil || r.Client == nil {
		return nil
	}
	return &AttemptStore{client: r.Client}
}

// Increment bumps key and starts its window on the first hit.
func (s *AttemptStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Reset deletes key.
func (s *AttemptStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
