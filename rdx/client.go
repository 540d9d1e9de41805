// Package rdx holds the optional redis integrations: the featured-set lock,
// the product read cache and the pub/sub connection used by mq.
package rdx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Connect parses REDIS_URL and pings the server. An empty url returns nil,
// which every caller in this package treats as "redis disabled".
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	conn := redis.NewClient(opts)
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return conn, nil
}
