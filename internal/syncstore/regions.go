package syncstore

import (
	"encoding/json"
	"fmt"

	"github.com/ieltsmaster/studyplan/internal/schema"
)

var emptyArray = json.RawMessage(`[]`)

// Regions is the state split by region, the shape GET responses use. Every
// region is always present: a region with no valid data comes back as its
// empty default, never null.
type Regions struct {
	Planner     map[string]json.RawMessage `json:"planner"`
	ResourceHub map[string]json.RawMessage `json:"resourceHub"`
	ChillZone   map[string]json.RawMessage `json:"chillZone"`
}

// Shape splits st into regions. Categories and the series list that are not
// arrays are replaced by empty arrays; non-date, non-region keys are dropped.
func Shape(st State) Regions {
	r := Regions{
		Planner:     map[string]json.RawMessage{},
		ResourceHub: map[string]json.RawMessage{},
		ChillZone:   map[string]json.RawMessage{seriesListKey: emptyArray},
	}

	for k, v := range st {
		if schema.IsDateKey(k) {
			r.Planner[k] = v
		}
	}

	for _, cat := range schema.Categories {
		if v, ok := st[cat]; ok && isArray(v) {
			r.ResourceHub[cat] = v
		} else {
			r.ResourceHub[cat] = emptyArray
		}
	}

	if v, ok := st[seriesListKey]; ok && isArray(v) {
		r.ChillZone[seriesListKey] = v
	}

	return r
}

// Day decodes the planner entry for date. ok is false when there is none.
func (r Regions) Day(date string) (day schema.DayData, ok bool, err error) {
	raw, ok := r.Planner[date]
	if !ok {
		return schema.DayData{}, false, nil
	}
	if err := json.Unmarshal(raw, &day); err != nil {
		return schema.DayData{}, true, fmt.Errorf("failed to decode planner entry %s: %w", date, err)
	}
	return day, true, nil
}

// DayFields returns the planner entry for date as raw fields, keeping keys
// schema.DayData does not model. ok is false when there is none.
func (r Regions) DayFields(date string) (fields map[string]json.RawMessage, ok bool, err error) {
	raw, ok := r.Planner[date]
	if !ok {
		return nil, false, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, true, fmt.Errorf("planner entry %s is not an object", date)
	}
	return fields, true, nil
}

// Hub decodes the Resource Hub categories.
func (r Regions) Hub() (schema.ResourceHub, error) {
	hub := schema.EmptyResourceHub()
	targets := map[string]*[]schema.ResourceItem{
		schema.CategoryVocabulary: &hub.Vocabulary,
		schema.CategoryListening:  &hub.Listening,
		schema.CategoryReading:    &hub.Reading,
		schema.CategoryWriting:    &hub.Writing,
		schema.CategorySpeaking:   &hub.Speaking,
	}
	for cat, dst := range targets {
		raw, ok := r.ResourceHub[cat]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return schema.ResourceHub{}, fmt.Errorf("failed to decode %s: %w", cat, err)
		}
	}
	return hub, nil
}

// Chill decodes the Chill Zone watch list.
func (r Regions) Chill() (schema.ChillZone, error) {
	cz := schema.EmptyChillZone()
	raw, ok := r.ChillZone[seriesListKey]
	if !ok {
		return cz, nil
	}
	if err := json.Unmarshal(raw, &cz.SeriesList); err != nil {
		return schema.ChillZone{}, fmt.Errorf("failed to decode %s: %w", seriesListKey, err)
	}
	return cz, nil
}

// Empty reports whether the planner has no dates, the hub has no items and
// the watch list is empty.
func (r Regions) Empty() bool {
	if len(r.Planner) > 0 {
		return false
	}
	for _, raw := range r.ResourceHub {
		if string(raw) != "[]" {
			return false
		}
	}
	return string(r.ChillZone[seriesListKey]) == "[]"
}
