// Package rediscache provides a configcat.ConfigCache backed by Redis, so
// that several processes can share one fetched configuration.
package rediscache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	configcat "github.com/configcat/go-sdk/v9"
)

const (
	defaultKeyPrefix = "configcat:"
	defaultTimeout   = 2 * time.Second
)

// Config holds the options of a Cache.
type Config struct {
	// KeyPrefix is prepended to every cache key. The default is "configcat:".
	KeyPrefix string
	// TTL is the expiration of stored entries. Zero means no expiration.
	TTL time.Duration
	// Timeout bounds every Redis operation. The default is 2 seconds.
	Timeout time.Duration
}

// Cache implements configcat.ConfigCache on top of a Redis client.
type Cache struct {
	db      redis.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

var _ configcat.ConfigCache = (*Cache)(nil)

// New returns a Cache that stores entries through db.
func New(db redis.UniversalClient, cfg Config) *Cache {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Cache{
		db:      db,
		prefix:  cfg.KeyPrefix,
		ttl:     cfg.TTL,
		timeout: cfg.Timeout,
	}
}

// Get reads the entry stored under key. A missing entry is reported as
// configcat.ErrCacheMiss.
func (c *Cache) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	val, err := c.db.Get(ctx, c.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", configcat.ErrCacheMiss
	}
	return val, err
}

// Set stores value under key.
func (c *Cache) Set(key string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	return c.db.Set(ctx, c.redisKey(key), value, c.ttl).Err()
}

func (c *Cache) redisKey(key string) string {
	return c.prefix + key
}
