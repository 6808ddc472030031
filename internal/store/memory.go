package store

import (
	"context"
	"sync"
	"time"
)

var _ KV = (*Memory)(nil)

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a thread-safe in-memory KV.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]memEntry
	now    func() time.Time
	closed bool
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Memory{
		data: make(map[string]memEntry),
		now:  o.now,
	}
}

// Get implements KV.Get. The returned slice is a copy.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, ErrClosed
	}

	e, ok := m.data[key]
	if !ok || expired(e.expiresAt, m.now()) {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set implements KV.Set.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.data[key] = memEntry{
		value:     append([]byte(nil), value...),
		expiresAt: expiry(m.now(), ttl),
	}
	return nil
}

// Delete implements KV.Delete.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

// PurgeExpired implements KV.PurgeExpired.
func (m *Memory) PurgeExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	now := m.now()
	n := 0
	for k, e := range m.data {
		if expired(e.expiresAt, now) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

// Close implements KV.Close.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}
