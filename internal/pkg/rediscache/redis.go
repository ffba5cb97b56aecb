// Package rediscache is a single-node Redis client for the caching needs of
// this service (the embedding cache), adapted from the teacher's internal/pkg/redis.Client by
// dropping the sentinel/cluster/read-write topologies and read-strategy
// routing that package supports — no SPEC_FULL.md component runs Redis as
// anything but a single local/managed instance.
package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ragcore/internal/pkg/logger"
)

type Config struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:6379",
		DB:           0,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Client wraps a *redis.Client with the handful of operations this service
// needs: string get/set-with-ttl for the embedding cache, plus generic
// list/len operations.
type Client struct {
	rdb *redis.Client
	log *logger.Logger
}

func New(cfg *Config, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.L()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("rediscache: ping failed: %w", err)
	}

	log.Info("redis client initialized", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &Client{rdb: rdb, log: log}, nil
}

func (c *Client) Close() error { return c.rdb.Close() }

func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("rediscache: get %q: %w", key, err)
	}
	return val, true, nil
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: set %q: %w", key, err)
	}
	return nil
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("rediscache: del: %w", err)
	}
	return nil
}

// LPush, RPop and LLen are generic list operations; the ingestion pipeline
// (C5) does not use them, as its jobs run on the workerpool.
func (c *Client) LPush(ctx context.Context, key string, values ...interface{}) error {
	if err := c.rdb.LPush(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("rediscache: lpush %q: %w", key, err)
	}
	return nil
}

func (c *Client) RPop(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.RPop(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("rediscache: rpop %q: %w", key, err)
	}
	return val, true, nil
}

func (c *Client) LLen(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("rediscache: llen %q: %w", key, err)
	}
	return n, nil
}
