package syncstore

import (
	"bytes"
	"encoding/json"
	"sort"
)

// State is the whole stored object. Values are kept as raw JSON so fields the
// server does not model survive a round trip unchanged.
type State map[string]json.RawMessage

// Clone returns a shallow copy. Raw values are never mutated in place, so
// sharing them is safe.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Keys returns the top-level keys in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstByte(raw []byte) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isArray(raw json.RawMessage) bool {
	return firstByte(raw) == '['
}

func isObject(raw []byte) bool {
	return firstByte(raw) == '{'
}

// decodeObject decodes raw into an object, reporting false for anything that
// is not a JSON object.
func decodeObject(raw []byte) (map[string]json.RawMessage, bool) {
	if !isObject(raw) {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}
