// Package redis wraps go-redis with the connection settings shared by the gateway
// and the workers.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Varun5711/easywedding/internal/config"
	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned by Connect when no address is configured.
var ErrDisabled = errors.New("redis disabled: REDIS_ADDR not set")

type Client struct {
	client *redis.Client
}

func Connect(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.Addr == "" {
		return nil, ErrDisabled
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: rdb}, nil
}

// Raw exposes the go-redis client. It is nil-safe so an optional connection can be
// handed straight to components that accept a nil client.
func (c *Client) Raw() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// Ping reports ErrDisabled on a nil client.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return ErrDisabled
	}
	return c.client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
