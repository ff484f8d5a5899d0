package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ViewCache is a generic JSON-backed Redis cache for read model projections.
// Bind it to a specific view type T; each instance holds a Redis client and an
// optional TTL (pass 0 for keys that should not expire).
type ViewCache[T any] struct {
	client *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewViewCache[T any](client *goredis.Client, ttl time.Duration, logger *zap.Logger) *ViewCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewCache[T]{client: client, ttl: ttl, logger: logger}
}

// Get returns (nil, false) on any miss or deserialisation error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.logger.Warn("view cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("view cache decode failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &v, true
}

// Set errors are logged rather than returned; a cache write miss is non-fatal.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("view cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("view cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("view cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Generation returns the write generation stored at genKey, "0" when unset.
// ok is false when Redis could not be read; callers should then skip SetAt.
func (c *ViewCache[T]) Generation(ctx context.Context, genKey string) (gen string, ok bool) {
	gen, err := c.client.Get(ctx, genKey).Result()
	if errors.Is(err, goredis.Nil) {
		return "0", true
	}
	if err != nil {
		c.logger.Warn("view cache generation read failed", zap.String("key", genKey), zap.Error(err))
		return "", false
	}
	return gen, true
}

// SetAt stores value under key only while genKey still holds gen. A writer
// that called Invalidate in between makes the fill a no-op.
func (c *ViewCache[T]) SetAt(ctx context.Context, key, genKey, gen string, value *T) bool {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("view cache encode failed", zap.String("key", key), zap.Error(err))
		return false
	}

	stored := false
	err = c.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if errors.Is(err, goredis.Nil) {
			current = "0"
		} else if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)

	switch {
	case errors.Is(err, goredis.TxFailedErr):
		return false
	case err != nil:
		c.logger.Warn("view cache write failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return stored
}

// Invalidate bumps genKey before dropping key, so fills that read the old
// generation are discarded.
func (c *ViewCache[T]) Invalidate(ctx context.Context, key, genKey string) {
	if err := c.client.Incr(ctx, genKey).Err(); err != nil {
		c.logger.Warn("view cache generation bump failed", zap.String("key", genKey), zap.Error(err))
	}
	c.Delete(ctx, key)
}
