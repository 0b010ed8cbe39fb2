// Package cache is a small string key-value port with a Redis adapter. The
// user directory uses it to keep hot profiles out of SQLite.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss reports that the key is absent.
var ErrMiss = errors.New("cache: miss")

// Cache is safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}
