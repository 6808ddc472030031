package schema

import "fmt"

// Series is one show in the Chill Zone watch list.
type Series struct {
	ID       string `json:"id" toml:"id"`
	Title    string `json:"title" toml:"title"`
	Desc     string `json:"desc" toml:"desc"`
	URL      string `json:"url" toml:"url"`
	Poster   string `json:"poster" toml:"poster"`
	IsCustom bool   `json:"isCustom,omitempty" toml:"custom"`
}

// Validate checks that the series can be shown.
func (s *Series) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("id is required")
	}
	if s.Title == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// ChillZone is the Chill Zone region.
type ChillZone struct {
	SeriesList []Series `json:"seriesList" toml:"series"`
}

// EmptyChillZone returns a Chill Zone with an empty, non-nil series list.
func EmptyChillZone() ChillZone {
	return ChillZone{SeriesList: []Series{}}
}
