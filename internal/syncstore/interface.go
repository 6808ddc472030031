package syncstore

import (
	"context"
	"time"
)

// Syncer loads and saves the dashboard state.
//
// A Syncer is safe for concurrent use. Save calls on one Syncer are applied
// one at a time, so two saves to different regions never lose each other.
type Syncer interface {
	// Load returns the full stored state. A missing or unreadable value
	// loads as an empty state.
	//
	// Returns ErrStorageUnavailable if the backend fails or times out.
	Load(ctx context.Context) (State, error)

	// LoadRegions returns the stored state split by region, with empty
	// defaults for regions that have no valid data.
	//
	// Returns ErrStorageUnavailable if the backend fails or times out.
	LoadRegions(ctx context.Context) (Regions, error)

	// Save classifies body, merges it into the stored state and writes the
	// result back with a fresh expiry. It returns the region that was
	// updated.
	//
	// Returns ErrInvalidRequest if body is not a JSON object,
	// ErrInvalidPayload if it matches no region and ErrStorageUnavailable if
	// the backend fails. Nothing is written in any of these cases.
	//
	// Example:
	//   region, err := s.Save(ctx, []byte(`{"seriesList":[]}`))
	Save(ctx context.Context, body []byte) (Region, error)

	// Reset deletes the stored state.
	Reset(ctx context.Context) error

	// PurgeExpired removes expired values from the backend.
	PurgeExpired(ctx context.Context) (int, error)
}

// SaveEvent describes a successful Save.
type SaveEvent struct {
	Region Region
	Keys   []string
	At     time.Time
}

// Options configures a Syncer.
type Options struct {
	// Key is the storage key of the state (default "ielts:state")
	Key string

	// TTL is the expiry set on every write (default 30 days)
	TTL time.Duration

	// Timeout bounds each backend round trip (default 5s)
	Timeout time.Duration

	// OnSave, if set, is called after every successful Save. It runs on the
	// saving goroutine and must not block.
	OnSave func(SaveEvent)
}

const (
	DefaultKey     = "ielts:state"
	DefaultTTL     = 30 * 24 * time.Hour
	DefaultTimeout = 5 * time.Second
)

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Key:     DefaultKey,
		TTL:     DefaultTTL,
		Timeout: DefaultTimeout,
	}
}

func (o Options) withDefaults() Options {
	if o.Key == "" {
		o.Key = DefaultKey
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}
