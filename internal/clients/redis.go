package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recist-io/recist/internal/logging"
)

// RedisClient wraps go-redis with JSON value encoding and a default TTL.
type RedisClient struct {
	client     *redis.Client
	defaultTTL time.Duration
	logger     *logging.Logger
}

// NewRedisClient creates a client for the given URL, e.g.
// redis://localhost:6379.
func NewRedisClient(url string, defaultTTL time.Duration) (*RedisClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return &RedisClient{
		client:     redis.NewClient(opts),
		defaultTTL: defaultTTL,
		logger:     logging.GetLogger("clients.redis"),
	}, nil
}

// Set stores the value as JSON under the default TTL.
func (c *RedisClient) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.defaultTTL)
}

// SetWithTTL stores the value as JSON with an explicit TTL.
func (c *RedisClient) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	serialized, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, serialized, ttl).Err(); err != nil {
		return fmt.Errorf("set key %s: %w", key, err)
	}

	c.logger.Debug("Set key %s with TTL %ds", key, int64(ttl.Seconds()))
	return nil
}

// Get unmarshals the value stored under key into out. The boolean reports
// whether the key existed.
func (c *RedisClient) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Key %s not found", key)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, fmt.Errorf("decode value for key %s: %w", key, err)
	}
	c.logger.Debug("Got key %s", key)
	return true, nil
}

// Delete removes the key and reports whether it existed.
func (c *RedisClient) Delete(ctx context.Context, key string) (bool, error) {
	deleted, err := c.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("delete key %s: %w", key, err)
	}
	return deleted > 0, nil
}

// Exists reports whether the key is present.
func (c *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check key %s: %w", key, err)
	}
	return n > 0, nil
}

// LPush prepends the JSON-encoded value to the list.
func (c *RedisClient) LPush(ctx context.Context, key string, value interface{}) error {
	serialized, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode list item for key %s: %w", key, err)
	}

	if err := c.client.LPush(ctx, key, serialized).Err(); err != nil {
		return fmt.Errorf("push to list %s: %w", key, err)
	}

	c.logger.Debug("Pushed to list %s", key)
	return nil
}

// LRange returns the raw JSON-encoded items in [start, stop].
func (c *RedisClient) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	items, err := c.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("range list %s: %w", key, err)
	}
	return items, nil
}

// LTrim trims the list to [start, stop].
func (c *RedisClient) LTrim(ctx context.Context, key string, start, stop int64) error {
	if err := c.client.LTrim(ctx, key, start, stop).Err(); err != nil {
		return fmt.Errorf("trim list %s: %w", key, err)
	}

	c.logger.Debug("Trimmed list %s to [%d, %d]", key, start, stop)
	return nil
}

// Incr increments the integer value stored at key and returns the result.
func (c *RedisClient) Incr(ctx context.Context, key string) (int64, error) {
	value, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment key %s: %w", key, err)
	}
	return value, nil
}

// Expire sets a TTL on the key and reports whether the key existed.
func (c *RedisClient) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("expire key %s: %w", key, err)
	}
	return ok, nil
}

// Ping checks connectivity.
func (c *RedisClient) Ping(ctx context.Context) (bool, error) {
	result, err := c.client.Ping(ctx).Result()
	if err != nil {
		return false, fmt.Errorf("ping: %w", err)
	}
	return result == "PONG", nil
}

// Close releases the connection pool.
func (c *RedisClient) Close() error {
	return c.client.Close()
}
