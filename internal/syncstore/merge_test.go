package syncstore

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustClassify(t *testing.T, body string) Classification {
	t.Helper()
	c, err := Classify([]byte(body))
	if err != nil {
		t.Fatalf("Classify(%s) failed: %v", body, err)
	}
	return c
}

func mustState(t *testing.T, doc string) State {
	t.Helper()
	var st State
	if err := json.Unmarshal([]byte(doc), &st); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	return st
}

// canonical re-encodes st so raw values compare independent of whitespace.
func canonical(t *testing.T, st State) map[string]any {
	t.Helper()
	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("failed to encode state: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	return out
}

func TestMerge_Isolation(t *testing.T) {
	prev := mustState(t, `{
		"2025-01-01": {"tasks": [], "review": {}},
		"vocabulary": [{"name": "YouGlish"}],
		"reading": [{"name": "Guardian"}],
		"seriesList": [{"id": 1}],
		"theme": "dark"
	}`)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "planner leaves hub and chill alone",
			body: `{"2025-01-02":{"tasks":[{"id":"1"}]}}`,
			want: `{
				"2025-01-01": {"tasks": [], "review": {}},
				"2025-01-02": {"tasks": [{"id": "1"}]},
				"vocabulary": [{"name": "YouGlish"}],
				"reading": [{"name": "Guardian"}],
				"seriesList": [{"id": 1}],
				"theme": "dark"
			}`,
		},
		{
			name: "hub replaces only sent categories",
			body: `{"vocabulary":[{"name":"A"}],"listening":[{"name":"B"}]}`,
			want: `{
				"2025-01-01": {"tasks": [], "review": {}},
				"vocabulary": [{"name": "A"}],
				"listening": [{"name": "B"}],
				"reading": [{"name": "Guardian"}],
				"seriesList": [{"id": 1}],
				"theme": "dark"
			}`,
		},
		{
			name: "chill replaces the whole list",
			body: `{"seriesList":[]}`,
			want: `{
				"2025-01-01": {"tasks": [], "review": {}},
				"vocabulary": [{"name": "YouGlish"}],
				"reading": [{"name": "Guardian"}],
				"seriesList": [],
				"theme": "dark"
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(prev, mustClassify(t, tt.body))
			if err != nil {
				t.Fatalf("Merge() failed: %v", err)
			}
			if diff := cmp.Diff(canonical(t, mustState(t, tt.want)), canonical(t, got)); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMerge_DoesNotModifyPrev(t *testing.T) {
	prev := mustState(t, `{"reading":[{"name":"x"}]}`)
	before := canonical(t, prev)

	if _, err := Merge(prev, mustClassify(t, `{"reading":[]}`)); err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}
	if diff := cmp.Diff(before, canonical(t, prev)); diff != "" {
		t.Errorf("prev was modified (-before +after):\n%s", diff)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	prev := mustState(t, `{"2025-01-01":{"tasks":[]},"speaking":[]}`)
	c := mustClassify(t, `{"2025-01-01":{"tasks":[{"id":"1","progress":75}]}}`)

	once, err := Merge(prev, c)
	if err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}
	twice, err := Merge(once, c)
	if err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}
	if diff := cmp.Diff(canonical(t, once), canonical(t, twice)); diff != "" {
		t.Errorf("second Merge() changed state (-once +twice):\n%s", diff)
	}
}

func TestMerge_NilPrev(t *testing.T) {
	got, err := Merge(nil, mustClassify(t, `{"seriesList":[{"id":7}]}`))
	if err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}
	want := map[string]any{"seriesList": []any{map[string]any{"id": float64(7)}}}
	if diff := cmp.Diff(want, canonical(t, got)); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_FlatAndNestedChillAreEquivalent(t *testing.T) {
	prev := mustState(t, `{"writing":[]}`)
	flat, err := Merge(prev, mustClassify(t, `{"seriesList":[{"id":3,"title":"Friends"}]}`))
	if err != nil {
		t.Fatalf("Merge() flat failed: %v", err)
	}
	nested, err := Merge(prev, mustClassify(t, `{"chillZone":{"seriesList":[{"id":3,"title":"Friends"}]}}`))
	if err != nil {
		t.Fatalf("Merge() nested failed: %v", err)
	}
	if diff := cmp.Diff(canonical(t, flat), canonical(t, nested)); diff != "" {
		t.Errorf("flat and nested differ (-flat +nested):\n%s", diff)
	}
}

func TestMerge_ProgressPassesThrough(t *testing.T) {
	got, err := Merge(nil, mustClassify(t, `{"2025-02-02":{"tasks":[{"id":"1","progress":33}]}}`))
	if err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}
	if string(got["2025-02-02"]) != `{"tasks":[{"id":"1","progress":33}]}` {
		t.Errorf("planner entry = %s, want it stored as sent", got["2025-02-02"])
	}
}

func TestMerge_Unrecognized(t *testing.T) {
	_, err := Merge(State{}, mustClassify(t, `{"foo":"bar"}`))
	if !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Merge() error = %v, want ErrInvalidPayload", err)
	}
}
