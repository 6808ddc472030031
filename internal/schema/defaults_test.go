package schema

import (
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	d, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults() failed: %v", err)
	}

	counts := map[string]int{
		CategoryVocabulary: 3,
		CategoryListening:  3,
		CategoryReading:    1,
		CategoryWriting:    2,
		CategorySpeaking:   2,
	}
	for cat, want := range counts {
		if got := len(d.Resources.Category(cat)); got != want {
			t.Errorf("len(%s) = %d, want %d", cat, got, want)
		}
	}

	if len(d.Series) != 3 {
		t.Fatalf("len(Series) = %d, want 3", len(d.Series))
	}
	if !d.Series[2].IsCustom {
		t.Error("custom slot should be marked custom")
	}
	if !d.Resources.Vocabulary[2].IsUpload {
		t.Error("vocabulary PDF slot should be an upload")
	}
}

func TestParseDefaults_MissingCategories(t *testing.T) {
	doc := `
[[resources.reading]]
name = "Cambridge 18"
`
	d, err := ParseDefaults(doc)
	if err != nil {
		t.Fatalf("ParseDefaults() failed: %v", err)
	}

	if d.Resources.Vocabulary == nil || d.Resources.Speaking == nil {
		t.Error("missing categories should decode as empty lists, not nil")
	}
	if d.Series == nil {
		t.Error("missing series should decode as an empty list, not nil")
	}
	if d.Resources.Count() != 1 {
		t.Errorf("Count() = %d, want 1", d.Resources.Count())
	}
}

func TestParseDefaults_Errors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		errMsg string
	}{
		{
			name:   "syntax error",
			doc:    `[[series]`,
			errMsg: "failed to decode defaults",
		},
		{
			name: "unknown key",
			doc: `
[[resources.grammar]]
name = "x"
`,
			errMsg: "unknown keys",
		},
		{
			name: "series without title",
			doc: `
[[series]]
id = "x"
`,
			errMsg: "title is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefaults(tt.doc)
			if err == nil {
				t.Fatal("ParseDefaults() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.errMsg)
			}
		})
	}
}
