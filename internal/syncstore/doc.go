// Package syncstore merges partial dashboard updates into one stored state.
//
// # Overview
//
// Three frontend modules save into the same JSON object without knowing about
// each other, and their payloads carry no explicit kind. The package infers the
// target region from the payload's shape, merges only that region into the
// previously stored object and writes the whole object back:
//
//	POST body (raw JSON)
//	     ↓
//	Classify      date key?  → Planner
//	              category array? → ResourceHub
//	              seriesList array? → ChillZone
//	     ↓
//	Merge         prior state + region updates (other regions untouched)
//	     ↓
//	Accessor      one key in a store.KV, TTL renewed on every write
//
// # Classification
//
// Rules are tried in a fixed order and the first match wins, so a payload that
// looks like two regions at once is always handled the same way:
//
//  1. Planner: at least one key matches YYYY-MM-DD.
//  2. ResourceHub: at least one of vocabulary, listening, reading, writing,
//     speaking is an array. One category is enough because the UI saves one
//     card at a time.
//  3. ChillZone: {"chillZone":{"seriesList":[...]}} or {"seriesList":[...]}.
//
// Anything else is rejected with ErrInvalidPayload before storage is touched.
//
// # Merge semantics
//
// Updates replace values wholesale at key granularity: a date's entry, a
// category's list or the series list. There is no element-level merge, and
// stray keys in a payload are ignored rather than stored.
//
// # Storage layout
//
// The stored object is flat. Planner dates, the five categories and
// seriesList are all top-level keys; nested Chill Zone input is unwrapped
// before it is stored.
//
// # Concurrency
//
// A Syncer serializes its own read-merge-write cycles, so concurrent saves to
// one server never lose each other's regions. Two processes sharing one
// database can still interleave and lose an update; there is no version check
// on write.
//
// # Usage
//
//	kv, err := store.Open("state.db")
//	if err != nil {
//	    return err
//	}
//	defer kv.Close()
//
//	s := syncstore.New(kv, syncstore.DefaultOptions(), nil)
//	region, err := s.Save(ctx, []byte(`{"2025-01-01":{"goal":"listening"}}`))
package syncstore
