package syncstore

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ieltsmaster/studyplan/internal/schema"
)

// Region identifies the part of the state a payload updates.
type Region int

const (
	// RegionUnrecognized marks a payload that matches no region.
	RegionUnrecognized Region = iota
	// RegionPlanner is the per-date planner entries.
	RegionPlanner
	// RegionResourceHub is the five resource categories.
	RegionResourceHub
	// RegionChillZone is the watch list.
	RegionChillZone
)

// String returns the region's wire name.
func (r Region) String() string {
	switch r {
	case RegionPlanner:
		return "planner"
	case RegionResourceHub:
		return "resourceHub"
	case RegionChillZone:
		return "chillZone"
	default:
		return "unrecognized"
	}
}

const (
	seriesListKey = "seriesList"
	chillZoneKey  = "chillZone"
)

// Classification is a payload tagged with the region it updates.
type Classification struct {
	Region  Region
	Payload map[string]json.RawMessage
}

type rule struct {
	region Region
	match  func(map[string]json.RawMessage) bool
}

// rules is evaluated in order; the first match wins.
var rules = []rule{
	{RegionPlanner, hasDateKey},
	{RegionResourceHub, hasCategoryArray},
	{RegionChillZone, hasSeriesList},
}

// Classify parses body and tags it with a region. It fails with
// ErrInvalidRequest when body is not a JSON object. A well-formed object that
// matches no rule is returned with RegionUnrecognized and a nil error; Merge
// rejects it.
func Classify(body []byte) (Classification, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Classification{}, fmt.Errorf("%w: empty body", ErrInvalidRequest)
	}
	if !json.Valid(trimmed) {
		return Classification{}, fmt.Errorf("%w: invalid JSON body", ErrInvalidRequest)
	}

	obj, ok := decodeObject(trimmed)
	if !ok {
		return Classification{}, fmt.Errorf("%w: body must be a plain object", ErrInvalidRequest)
	}

	return Classification{Region: ClassifyObject(obj), Payload: obj}, nil
}

// ClassifyObject applies the rule chain to an already decoded object.
func ClassifyObject(obj map[string]json.RawMessage) Region {
	for _, r := range rules {
		if r.match(obj) {
			return r.region
		}
	}
	return RegionUnrecognized
}

func hasDateKey(obj map[string]json.RawMessage) bool {
	for k := range obj {
		if schema.IsDateKey(k) {
			return true
		}
	}
	return false
}

func hasCategoryArray(obj map[string]json.RawMessage) bool {
	for _, cat := range schema.Categories {
		if v, ok := obj[cat]; ok && isArray(v) {
			return true
		}
	}
	return false
}

func hasSeriesList(obj map[string]json.RawMessage) bool {
	_, ok := seriesList(obj)
	return ok
}

// seriesList extracts the watch list from either the nested or the flat form.
// The nested form is checked first.
func seriesList(obj map[string]json.RawMessage) (json.RawMessage, bool) {
	if nested, ok := obj[chillZoneKey]; ok {
		if inner, ok := decodeObject(nested); ok {
			if list, ok := inner[seriesListKey]; ok && isArray(list) {
				return list, true
			}
		}
	}
	if list, ok := obj[seriesListKey]; ok && isArray(list) {
		return list, true
	}
	return nil, false
}

// Updates returns the top-level keys and values a merge of c writes into the
// stored state. It is empty for an unrecognized payload.
func (c Classification) Updates() State {
	updates := State{}

	switch c.Region {
	case RegionPlanner:
		for k, v := range c.Payload {
			if schema.IsDateKey(k) {
				updates[k] = v
			}
		}

	case RegionResourceHub:
		for _, cat := range schema.Categories {
			if v, ok := c.Payload[cat]; ok && isArray(v) {
				updates[cat] = v
			}
		}

	case RegionChillZone:
		if list, ok := seriesList(c.Payload); ok {
			updates[seriesListKey] = list
		}
	}

	return updates
}

// Keys returns the sorted keys Updates would write.
func (c Classification) Keys() []string {
	return c.Updates().Keys()
}
