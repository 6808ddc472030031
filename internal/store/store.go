// Package store provides the key-value backends that hold the dashboard state.
//
// Values are opaque byte slices with an optional time-to-live. An expired value
// behaves exactly like a missing one; PurgeExpired reclaims the space.
//
// Two backends are provided:
//   - SQLite: embedded database file (ncruces/go-sqlite3, WAL mode)
//   - Memory: process-local map, used by tests and throwaway servers
package store

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("store is closed")

// KV is the contract every backend implements.
type KV interface {
	// Get returns the value stored under key. ok is false when the key is
	// missing or its value has expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value as a whole.
	// A positive ttl makes the value expire ttl after the call; ttl <= 0
	// keeps it forever.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// PurgeExpired removes expired values and returns how many were removed.
	PurgeExpired(ctx context.Context) (int, error)

	// Close releases the backend's resources.
	Close() error
}

// Option configures a backend.
type Option func(*options)

type options struct {
	now func() time.Time
}

func defaultOptions() options {
	return options{now: time.Now}
}

// WithClock replaces the wall clock used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// expiry returns the absolute expiry for ttl, or the zero time for no expiry.
func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(expiresAt, now time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
