package syncstore

import "fmt"

// Merge applies a classified update to the previous state and returns the new
// state. prev is not modified and may be nil.
//
// Only the keys of the matched region are written, each replaced as a whole.
// Every other key of prev is carried over unchanged. An unrecognized payload
// fails with ErrInvalidPayload.
func Merge(prev State, c Classification) (State, error) {
	if c.Region == RegionUnrecognized {
		return nil, fmt.Errorf("%w: payload matches no region", ErrInvalidPayload)
	}

	next := prev.Clone()
	for k, v := range c.Updates() {
		next[k] = v
	}
	return next, nil
}
