package schema

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed defaults.toml
var defaultsTOML string

// DefaultContent is the starter content seeded into empty regions.
type DefaultContent struct {
	Resources ResourceHub `toml:"resources"`
	Series    []Series    `toml:"series"`
}

// ChillZone returns the default series wrapped as a region.
func (d DefaultContent) ChillZone() ChillZone {
	return ChillZone{SeriesList: d.Series}
}

// Defaults decodes the embedded starter content.
func Defaults() (DefaultContent, error) {
	return ParseDefaults(defaultsTOML)
}

// ParseDefaults decodes starter content from a TOML document. Categories
// missing from the document come back as empty lists.
func ParseDefaults(doc string) (DefaultContent, error) {
	var d DefaultContent
	md, err := toml.Decode(doc, &d)
	if err != nil {
		return DefaultContent{}, fmt.Errorf("failed to decode defaults: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return DefaultContent{}, fmt.Errorf("unknown keys in defaults: %v", undecoded)
	}

	empty := EmptyResourceHub()
	if d.Resources.Vocabulary == nil {
		d.Resources.Vocabulary = empty.Vocabulary
	}
	if d.Resources.Listening == nil {
		d.Resources.Listening = empty.Listening
	}
	if d.Resources.Reading == nil {
		d.Resources.Reading = empty.Reading
	}
	if d.Resources.Writing == nil {
		d.Resources.Writing = empty.Writing
	}
	if d.Resources.Speaking == nil {
		d.Resources.Speaking = empty.Speaking
	}
	if d.Series == nil {
		d.Series = []Series{}
	}

	for i := range d.Series {
		if err := d.Series[i].Validate(); err != nil {
			return DefaultContent{}, fmt.Errorf("invalid series %d: %w", i, err)
		}
	}
	return d, nil
}
