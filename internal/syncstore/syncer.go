package syncstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/ieltsmaster/studyplan/internal/store"
)

// syncer implements the Syncer interface.
type syncer struct {
	acc    *Accessor
	kv     store.KV
	onSave func(SaveEvent)
	logger *log.Logger

	// mu serializes read-merge-write cycles
	mu sync.Mutex
}

// New creates a Syncer over kv.
//
// If logger is nil, a default logger writing to stderr is used.
//
// Example:
//
//	kv := store.NewMemory()
//	s := syncstore.New(kv, syncstore.DefaultOptions(), nil)
func New(kv store.KV, opts Options, logger *log.Logger) Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &syncer{
		acc:    NewAccessor(kv, opts, logger),
		kv:     kv,
		onSave: opts.OnSave,
		logger: logger,
	}
}

// Load implements Syncer.Load.
func (s *syncer) Load(ctx context.Context) (State, error) {
	st, err := s.acc.Read(ctx)
	if err != nil {
		s.logger.Printf("ERROR: load failed: %v", err)
		return nil, err
	}
	return st, nil
}

// LoadRegions implements Syncer.LoadRegions.
func (s *syncer) LoadRegions(ctx context.Context) (Regions, error) {
	st, err := s.Load(ctx)
	if err != nil {
		return Regions{}, err
	}
	return Shape(st), nil
}

// Save implements Syncer.Save.
func (s *syncer) Save(ctx context.Context, body []byte) (Region, error) {
	c, err := Classify(body)
	if err != nil {
		return RegionUnrecognized, err
	}
	if c.Region == RegionUnrecognized {
		s.logger.Printf("WARNING: unrecognized sync payload with keys %v", State(c.Payload).Keys())
		return RegionUnrecognized, fmt.Errorf("%w: payload matches no region", ErrInvalidPayload)
	}

	keys, err := s.apply(ctx, c)
	if err != nil {
		return c.Region, err
	}

	s.logger.Printf("Saved %s update: %v", c.Region, keys)
	if s.onSave != nil {
		s.onSave(SaveEvent{Region: c.Region, Keys: keys, At: time.Now()})
	}
	return c.Region, nil
}

// apply runs one read-merge-write cycle under the lock.
func (s *syncer) apply(ctx context.Context, c Classification) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.acc.Read(ctx)
	if err != nil {
		s.logger.Printf("ERROR: save aborted, read failed: %v", err)
		return nil, err
	}

	next, err := Merge(prev, c)
	if err != nil {
		return nil, err
	}

	if err := s.acc.Write(ctx, next); err != nil {
		s.logger.Printf("ERROR: save failed: %v", err)
		return nil, err
	}
	return c.Keys(), nil
}

// Reset implements Syncer.Reset.
func (s *syncer) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acc.Delete(ctx); err != nil {
		return err
	}
	s.logger.Printf("State %s reset", s.acc.Key())
	return nil
}

// PurgeExpired implements Syncer.PurgeExpired.
func (s *syncer) PurgeExpired(ctx context.Context) (int, error) {
	n, err := s.kv.PurgeExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: purge: %w", ErrStorageUnavailable, err)
	}
	if n > 0 {
		s.logger.Printf("Purged %d expired values", n)
	}
	return n, nil
}
