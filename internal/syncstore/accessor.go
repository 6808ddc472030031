package syncstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ieltsmaster/studyplan/internal/store"
)

// Accessor reads and writes the whole state under one key.
type Accessor struct {
	kv      store.KV
	key     string
	ttl     time.Duration
	timeout time.Duration
	logger  *log.Logger
}

// NewAccessor creates an accessor for key in kv.
func NewAccessor(kv store.KV, opts Options, logger *log.Logger) *Accessor {
	opts = opts.withDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &Accessor{
		kv:      kv,
		key:     opts.Key,
		ttl:     opts.TTL,
		timeout: opts.Timeout,
		logger:  logger,
	}
}

// Key returns the storage key.
func (a *Accessor) Key() string {
	return a.key
}

// Read returns the stored state. A missing, expired, corrupt or non-object
// value reads as an empty state. Backend failures and timeouts fail with
// ErrStorageUnavailable.
func (a *Accessor) Read(ctx context.Context) (State, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, ok, err := a.kv.Get(ctx, a.key)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorageUnavailable, a.key, err)
	}
	if !ok {
		return State{}, nil
	}

	obj, ok := decodeObject(raw)
	if !ok {
		a.logger.Printf("WARNING: stored value under %s is not a JSON object, treating as empty", a.key)
		return State{}, nil
	}
	return State(obj), nil
}

// Write stores st under the key and restarts its expiry clock.
func (a *Accessor) Write(ctx context.Context, st State) error {
	if st == nil {
		st = State{}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.kv.Set(ctx, a.key, data, a.ttl); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStorageUnavailable, a.key, err)
	}
	return nil
}

// Delete removes the stored state.
func (a *Accessor) Delete(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.kv.Delete(ctx, a.key); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrStorageUnavailable, a.key, err)
	}
	return nil
}
