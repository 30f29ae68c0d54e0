package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"marketplace-backend/internal/common/config"
)

// ErrAlreadyLocked is returned when another holder owns the lock key.
var ErrAlreadyLocked = errors.New("resource is already locked")

// Client wraps go-redis with the small surface this service needs:
// advisory locks for the sweeper and a cache for settled winner sets.
type Client struct {
	rdb *redis.Client
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, cfg *config.Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error { return c.rdb.Close() }

// AcquireLock takes an advisory lock via SETNX with a TTL.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := c.rdb.SetNX(ctx, key, "locked", ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyLocked
	}
	return nil
}

// ReleaseLock drops an advisory lock.
func (c *Client) ReleaseLock(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// GetCached returns the cached payload for key, or ("", nil) on a miss.
func (c *Client) GetCached(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// SetCached stores a payload under key with a TTL (0 means no expiry).
func (c *Client) SetCached(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}
