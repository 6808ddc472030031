package schema

// Resource Hub category names, in display order.
const (
	CategoryVocabulary = "vocabulary"
	CategoryListening  = "listening"
	CategoryReading    = "reading"
	CategoryWriting    = "writing"
	CategorySpeaking   = "speaking"
)

// Categories lists the five Resource Hub fields.
var Categories = []string{
	CategoryVocabulary,
	CategoryListening,
	CategoryReading,
	CategoryWriting,
	CategorySpeaking,
}

// IsCategory reports whether name is a Resource Hub field.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// ResourceItem is one link or uploaded file in a Resource Hub category.
type ResourceItem struct {
	Name     string `json:"name" toml:"name" yaml:"name"`
	URL      string `json:"url,omitempty" toml:"url" yaml:"url,omitempty"`
	IsUpload bool   `json:"isUpload,omitempty" toml:"upload" yaml:"isUpload,omitempty"`
	Note     string `json:"note,omitempty" toml:"note" yaml:"note,omitempty"`
}

// ResourceHub holds every category list.
type ResourceHub struct {
	Vocabulary []ResourceItem `json:"vocabulary" toml:"vocabulary"`
	Listening  []ResourceItem `json:"listening" toml:"listening"`
	Reading    []ResourceItem `json:"reading" toml:"reading"`
	Writing    []ResourceItem `json:"writing" toml:"writing"`
	Speaking   []ResourceItem `json:"speaking" toml:"speaking"`
}

// EmptyResourceHub returns a hub whose categories are empty, non-nil lists so
// they encode as [] rather than null.
func EmptyResourceHub() ResourceHub {
	return ResourceHub{
		Vocabulary: []ResourceItem{},
		Listening:  []ResourceItem{},
		Reading:    []ResourceItem{},
		Writing:    []ResourceItem{},
		Speaking:   []ResourceItem{},
	}
}

// Category returns the list stored under name, or nil for an unknown name.
func (h *ResourceHub) Category(name string) []ResourceItem {
	switch name {
	case CategoryVocabulary:
		return h.Vocabulary
	case CategoryListening:
		return h.Listening
	case CategoryReading:
		return h.Reading
	case CategoryWriting:
		return h.Writing
	case CategorySpeaking:
		return h.Speaking
	}
	return nil
}

// Count returns the number of items over all categories.
func (h *ResourceHub) Count() int {
	n := 0
	for _, c := range Categories {
		n += len(h.Category(c))
	}
	return n
}
