package syncstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ieltsmaster/studyplan/internal/store"
)

var quiet = log.New(io.Discard, "", 0)

// failingKV fails every operation after failAfter successful calls.
type failingKV struct {
	store.KV
	mu        sync.Mutex
	calls     int
	failAfter int
}

var errBackend = errors.New("connection refused")

func (f *failingKV) step() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls > f.failAfter {
		return errBackend
	}
	return nil
}

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := f.step(); err != nil {
		return nil, false, err
	}
	return f.KV.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := f.step(); err != nil {
		return err
	}
	return f.KV.Set(ctx, key, value, ttl)
}

// slowKV blocks Get and/or Set until the caller's context is done.
type slowKV struct {
	store.KV
	blockGet bool
	blockSet bool
}

func (k *slowKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if k.blockGet {
		<-ctx.Done()
		return nil, false, ctx.Err()
	}
	return k.KV.Get(ctx, key)
}

func (k *slowKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if k.blockSet {
		<-ctx.Done()
		return ctx.Err()
	}
	return k.KV.Set(ctx, key, value, ttl)
}

func newTestSyncer(t *testing.T, kv store.KV, opts Options) Syncer {
	t.Helper()
	t.Cleanup(func() { kv.Close() })
	return New(kv, opts, quiet)
}

func stored(t *testing.T, kv store.KV) map[string]any {
	t.Helper()
	raw, ok, err := kv.Get(context.Background(), DefaultKey)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !ok {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("stored value is not JSON: %v", err)
	}
	return out
}

func TestSyncer_PlannerScenario(t *testing.T) {
	kv := store.NewMemory()
	s := newTestSyncer(t, kv, DefaultOptions())
	ctx := context.Background()

	if _, err := s.Save(ctx, []byte(`{"vocabulary":[{"name":"YouGlish"}]}`)); err != nil {
		t.Fatalf("Save() hub failed: %v", err)
	}
	region, err := s.Save(ctx, []byte(`{"2025-01-01":{"tasks":[{"id":"1","subject":"Listening","progress":50}],"review":{}}}`))
	if err != nil {
		t.Fatalf("Save() planner failed: %v", err)
	}
	if region != RegionPlanner {
		t.Errorf("Save() region = %v, want planner", region)
	}

	regions, err := s.LoadRegions(ctx)
	if err != nil {
		t.Fatalf("LoadRegions() failed: %v", err)
	}
	day, ok, err := regions.Day("2025-01-01")
	if err != nil || !ok {
		t.Fatalf("Day() = ok %v, err %v", ok, err)
	}
	if len(day.Tasks) != 1 || day.Tasks[0].Progress != 50 {
		t.Errorf("Day() tasks = %+v, want one task at 50%%", day.Tasks)
	}
	hub, err := regions.Hub()
	if err != nil {
		t.Fatalf("Hub() failed: %v", err)
	}
	if len(hub.Vocabulary) != 1 || hub.Vocabulary[0].Name != "YouGlish" {
		t.Errorf("Hub().Vocabulary = %+v, want YouGlish kept", hub.Vocabulary)
	}
}

func TestSyncer_HubScenario(t *testing.T) {
	kv := store.NewMemory()
	s := newTestSyncer(t, kv, DefaultOptions())
	ctx := context.Background()

	steps := []string{
		`{"vocabulary":[],"listening":[],"reading":[{"name":"R"}],"writing":[],"speaking":[]}`,
		`{"vocabulary":[{"name":"V"}],"listening":[{"name":"L"}]}`,
	}
	for _, body := range steps {
		if _, err := s.Save(ctx, []byte(body)); err != nil {
			t.Fatalf("Save(%s) failed: %v", body, err)
		}
	}

	want := map[string]any{
		"vocabulary": []any{map[string]any{"name": "V"}},
		"listening":  []any{map[string]any{"name": "L"}},
		"reading":    []any{map[string]any{"name": "R"}},
		"writing":    []any{},
		"speaking":   []any{},
	}
	if diff := cmp.Diff(want, stored(t, kv)); diff != "" {
		t.Errorf("stored state mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncer_RejectsWithoutWriting(t *testing.T) {
	kv := store.NewMemory()
	s := newTestSyncer(t, kv, DefaultOptions())
	ctx := context.Background()

	if _, err := s.Save(ctx, []byte(`{"seriesList":[{"id":1}]}`)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	before := stored(t, kv)

	tests := []struct {
		body    string
		wantErr error
	}{
		{`{"foo":"bar"}`, ErrInvalidPayload},
		{`[]`, ErrInvalidRequest},
		{`"hello"`, ErrInvalidRequest},
		{`42`, ErrInvalidRequest},
		{`null`, ErrInvalidRequest},
		{`{broken`, ErrInvalidRequest},
	}
	for _, tt := range tests {
		_, err := s.Save(ctx, []byte(tt.body))
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Save(%s) error = %v, want %v", tt.body, err, tt.wantErr)
		}
		if !IsClientError(err) {
			t.Errorf("IsClientError(%v) = false, want true", err)
		}
	}

	if diff := cmp.Diff(before, stored(t, kv)); diff != "" {
		t.Errorf("rejected saves changed state (-before +after):\n%s", diff)
	}
}

func TestSyncer_RoundTrip(t *testing.T) {
	s := newTestSyncer(t, store.NewMemory(), DefaultOptions())
	ctx := context.Background()

	body := `{"2025-05-05":{"tasks":[],"review":{"mood":"🚀"},"clientOnly":true}}`
	if _, err := s.Save(ctx, []byte(body)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	st, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := string(st["2025-05-05"]); got != `{"tasks":[],"review":{"mood":"🚀"},"clientOnly":true}` {
		t.Errorf("Load() entry = %s, want unchanged round trip", got)
	}
}

func TestSyncer_EmptyLoad(t *testing.T) {
	s := newTestSyncer(t, store.NewMemory(), DefaultOptions())

	regions, err := s.LoadRegions(context.Background())
	if err != nil {
		t.Fatalf("LoadRegions() failed: %v", err)
	}
	if !regions.Empty() {
		t.Errorf("Empty() = false for fresh store: %+v", regions)
	}
	data, err := json.Marshal(regions)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	want := `{"planner":{},"resourceHub":{"listening":[],"reading":[],"speaking":[],"vocabulary":[],"writing":[]},"chillZone":{"seriesList":[]}}`
	if string(data) != want {
		t.Errorf("LoadRegions() = %s, want %s", data, want)
	}
}

func TestSyncer_CorruptValueLoadsEmpty(t *testing.T) {
	kv := store.NewMemory()
	s := newTestSyncer(t, kv, DefaultOptions())
	ctx := context.Background()

	for _, raw := range []string{`[1,2]`, `not json`, `"str"`} {
		if err := kv.Set(ctx, DefaultKey, []byte(raw), 0); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}
		st, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if len(st) != 0 {
			t.Errorf("Load() with %s = %v, want empty", raw, st)
		}
	}

	if _, err := s.Save(ctx, []byte(`{"reading":[]}`)); err != nil {
		t.Fatalf("Save() over corrupt value failed: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"reading": []any{}}, stored(t, kv)); diff != "" {
		t.Errorf("stored state mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncer_StorageFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("read fails", func(t *testing.T) {
		s := newTestSyncer(t, &failingKV{KV: store.NewMemory()}, DefaultOptions())
		if _, err := s.Load(ctx); !errors.Is(err, ErrStorageUnavailable) {
			t.Errorf("Load() error = %v, want ErrStorageUnavailable", err)
		}
		if _, err := s.Save(ctx, []byte(`{"reading":[]}`)); !errors.Is(err, ErrStorageUnavailable) {
			t.Errorf("Save() error = %v, want ErrStorageUnavailable", err)
		}
	})

	t.Run("write fails", func(t *testing.T) {
		kv := &failingKV{KV: store.NewMemory(), failAfter: 1}
		s := newTestSyncer(t, kv, DefaultOptions())
		_, err := s.Save(ctx, []byte(`{"reading":[]}`))
		if !errors.Is(err, ErrStorageUnavailable) {
			t.Fatalf("Save() error = %v, want ErrStorageUnavailable", err)
		}
		if IsClientError(err) {
			t.Errorf("IsClientError(%v) = true, want false", err)
		}
		if !errors.Is(err, errBackend) {
			t.Errorf("Save() error = %v, want backend cause kept", err)
		}
	})
}

func TestSyncer_StorageTimeout(t *testing.T) {
	const timeout = 50 * time.Millisecond
	opts := Options{Timeout: timeout}
	ctx := context.Background()

	tests := []struct {
		name string
		kv   *slowKV
		load bool
	}{
		{"load blocks on read", &slowKV{KV: store.NewMemory(), blockGet: true}, true},
		{"save blocks on read", &slowKV{KV: store.NewMemory(), blockGet: true}, false},
		{"save blocks on write", &slowKV{KV: store.NewMemory(), blockSet: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSyncer(t, tt.kv, opts)

			start := time.Now()
			var err error
			if tt.load {
				_, err = s.Load(ctx)
			} else {
				_, err = s.Save(ctx, []byte(`{"reading":[]}`))
			}
			elapsed := time.Since(start)

			if !errors.Is(err, ErrStorageUnavailable) {
				t.Fatalf("error = %v, want ErrStorageUnavailable", err)
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("error = %v, want deadline exceeded cause", err)
			}
			if elapsed < timeout || elapsed > 20*timeout {
				t.Errorf("returned after %v, want about %v", elapsed, timeout)
			}
		})
	}
}

func TestSyncer_SaveRenewsExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	kv := store.NewMemory(store.WithClock(clock))
	s := newTestSyncer(t, kv, Options{TTL: 30 * 24 * time.Hour})
	ctx := context.Background()

	if _, err := s.Save(ctx, []byte(`{"reading":[]}`)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	now = now.Add(29 * 24 * time.Hour)
	if _, err := s.Save(ctx, []byte(`{"writing":[]}`)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	now = now.Add(29 * 24 * time.Hour)
	st, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"reading", "writing"}, st.Keys()); diff != "" {
		t.Errorf("Load() keys mismatch (-want +got):\n%s", diff)
	}

	now = now.Add(2 * 24 * time.Hour)
	st, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(st) != 0 {
		t.Errorf("Load() after expiry = %v, want empty", st)
	}

	n, err := s.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeExpired() = %d, want 1", n)
	}
}

func TestSyncer_ConcurrentSavesKeepEveryRegion(t *testing.T) {
	kv := store.NewMemory()
	s := newTestSyncer(t, kv, DefaultOptions())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var body string
			switch i % 3 {
			case 0:
				body = fmt.Sprintf(`{"2025-01-%02d":{"tasks":[]}}`, i+1)
			case 1:
				body = `{"reading":[{"name":"R"}]}`
			default:
				body = `{"seriesList":[{"id":1}]}`
			}
			if _, err := s.Save(ctx, []byte(body)); err != nil {
				t.Errorf("Save() failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	st, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	// 7 dates (i = 0, 3, ..., 18) plus reading and seriesList
	if len(st) != 9 {
		t.Errorf("Load() has %d keys, want 9: %v", len(st), st.Keys())
	}
}

func TestSyncer_OnSave(t *testing.T) {
	var events []SaveEvent
	opts := DefaultOptions()
	opts.OnSave = func(e SaveEvent) { events = append(events, e) }
	s := newTestSyncer(t, store.NewMemory(), opts)
	ctx := context.Background()

	if _, err := s.Save(ctx, []byte(`{"chillZone":{"seriesList":[]}}`)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := s.Save(ctx, []byte(`{"foo":1}`)); err == nil {
		t.Fatal("Save() with unknown payload succeeded")
	}

	if len(events) != 1 {
		t.Fatalf("OnSave called %d times, want 1", len(events))
	}
	if events[0].Region != RegionChillZone {
		t.Errorf("event region = %v, want chillZone", events[0].Region)
	}
	if diff := cmp.Diff([]string{"seriesList"}, events[0].Keys); diff != "" {
		t.Errorf("event keys mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncer_Reset(t *testing.T) {
	kv := store.NewMemory()
	s := newTestSyncer(t, kv, DefaultOptions())
	ctx := context.Background()

	if _, err := s.Save(ctx, []byte(`{"reading":[]}`)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if got := stored(t, kv); got != nil {
		t.Errorf("stored state after Reset() = %v, want nil", got)
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	got := Options{}.withDefaults()
	want := DefaultOptions()
	if got.Key != want.Key || got.TTL != want.TTL || got.Timeout != want.Timeout {
		t.Errorf("withDefaults() = %+v, want %+v", got, want)
	}

	custom := Options{Key: "k", TTL: time.Hour, Timeout: time.Second}.withDefaults()
	if custom.Key != "k" || custom.TTL != time.Hour || custom.Timeout != time.Second {
		t.Errorf("withDefaults() overrode explicit values: %+v", custom)
	}
}
