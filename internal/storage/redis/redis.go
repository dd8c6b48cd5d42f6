// Package redis connects the catalog to the shared Redis instance.
package redis

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"
)

// Options builds client options from a redis_url value and an optional
// password. A bare host:port is accepted as well as a redis:// URL. A
// non-empty password overrides the one embedded in the URL.
func Options(url, password string) (*goredis.Options, error) {
	if url == "" {
		return nil, errors.New("empty redis url")
	}
	if !strings.Contains(url, "://") {
		url = "redis://" + url
	}

	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	if password != "" {
		opts.Password = password
	}
	return opts, nil
}

// NewClient connects to Redis and verifies the connection with PING.
func NewClient(ctx context.Context, url, password string) (*goredis.Client, error) {
	opts, err := Options(url, password)
	if err != nil {
		return nil, err
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

// Pinger is the part of a Redis client used by health checks.
type Pinger interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

// Check returns a health check function that pings Redis.
func Check(c Pinger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return c.Ping(ctx).Err()
	}
}
