package cache

import (
	"context"
	"errors"
	"time"
)

// ErrStoreClosed is returned by stores used after Close
var ErrStoreClosed = errors.New("cache store closed")

// Store is a byte-oriented key/value cache with per-entry expiry
type Store interface {
	// Get returns the value and true, or false on a miss or expired entry
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl; ttl <= 0 means no expiry
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes keys; missing keys are ignored
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
