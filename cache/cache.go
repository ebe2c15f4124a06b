// Package cache provides the key-value stores backing the location cache,
// with interchangeable persistence backends behind one Store interface.
package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when a key has no stored value.
var ErrNotFound = errors.New("cache: key not found")

// Store is a minimal key-value store. Implementations must be safe for
// concurrent use; values are opaque bytes owned by the caller.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// Options carries backend-specific settings for Open.
type Options struct {
	Dir           string // file: cache directory, defaults under the home dir
	RedisAddr     string // redis: host:port
	RedisPassword string
	RedisDB       int
	DSN           string // sqlite: database file path; postgres: connection string
}

// Open constructs the Store named by backend. An empty backend selects the
// file store, matching the zero-config development default.
func Open(backend string, opts Options) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		return NewFileStore(opts.Dir)
	case BackendRedis:
		return NewRedisStore(opts.RedisAddr, opts.RedisPassword, opts.RedisDB), nil
	case BackendSQLite, BackendPostgres:
		return NewSQLStore(backend, opts.DSN)
	case BackendNone:
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", backend)
	}
}
