package rdx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache is a best-effort JSON read cache. Misses and failures both report
// found=false; callers fall through to the store.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (found bool)
	Set(ctx context.Context, key string, v any)
	Del(ctx context.Context, keys ...string)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string, any) bool { return false }
func (nopCache) Set(context.Context, string, any)      {}
func (nopCache) Del(context.Context, ...string)        {}

// NopCache disables caching.
var NopCache Cache = nopCache{}

type RedisCache struct {
	Conn   *redis.Client
	TTL    time.Duration
	Prefix string
	Log    logrus.FieldLogger
}

// NewCache returns a redis-backed cache, or NopCache when conn is nil.
func NewCache(conn *redis.Client, prefix string, ttl time.Duration, log logrus.FieldLogger) Cache {
	if conn == nil {
		return NopCache
	}
	return &RedisCache{Conn: conn, TTL: ttl, Prefix: prefix, Log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) bool {
	raw, err := c.Conn.Get(ctx, c.Prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.Log.WithError(err).WithField("key", key).Warn("cache get failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.Log.WithError(err).WithField("key", key).Warn("cache entry undecodable")
		return false
	}
	return true
}

func (c *RedisCache) Set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.Conn.Set(ctx, c.Prefix+key, raw, c.TTL).Err(); err != nil {
		c.Log.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.Prefix + k
	}
	if err := c.Conn.Del(ctx, full...).Err(); err != nil {
		c.Log.WithError(err).WithField("keys", keys).Warn("cache delete failed")
	}
}
