package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIsDateKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"2025-01-01", true},
		{"1999-12-31", true},
		{"2025-13-45", true}, // shape only
		{"2025-1-01", false},
		{"2025-01-01T00:00", false},
		{" 2025-01-01", false},
		{"vocabulary", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsDateKey(tt.key); got != tt.want {
			t.Errorf("IsDateKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestValidProgress(t *testing.T) {
	for _, p := range []int{0, 25, 50, 75, 100} {
		if !ValidProgress(p) {
			t.Errorf("ValidProgress(%d) = false, want true", p)
		}
	}
	for _, p := range []int{-25, 10, 99, 101, 125} {
		if ValidProgress(p) {
			t.Errorf("ValidProgress(%d) = true, want false", p)
		}
	}
}

func TestTask_Validate(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid task",
			task: Task{ID: "1", Subject: "Listening", Progress: 50},
		},
		{
			name:    "missing id",
			task:    Task{Subject: "Listening"},
			wantErr: true,
			errMsg:  "id is required",
		},
		{
			name:    "blank subject",
			task:    Task{ID: "1", Subject: "  "},
			wantErr: true,
			errMsg:  "subject is required",
		},
		{
			name:    "progress off the scale",
			task:    Task{ID: "1", Subject: "Reading", Progress: 30},
			wantErr: true,
			errMsg:  "progress must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestMood_Valid(t *testing.T) {
	if !MoodRocket.Valid() {
		t.Error("MoodRocket should be valid")
	}
	if Mood("🙃").Valid() {
		t.Error("unknown emoji should not be valid")
	}
}

func TestDayData_AddTask(t *testing.T) {
	day := NewDay()
	if len(day.Tasks) != 4 {
		t.Fatalf("NewDay() has %d tasks, want 4", len(day.Tasks))
	}

	day.AddTask(Task{Subject: "Vocabulary", Content: "Topic words"})
	if got := day.Tasks[4].ID; got != "5" {
		t.Errorf("new task id = %q, want %q", got, "5")
	}

	day.AddTask(Task{ID: "custom", Subject: "Mock test"})
	if got := day.Tasks[5].ID; got != "custom" {
		t.Errorf("explicit id overwritten: got %q", got)
	}

	var empty DayData
	empty.AddTask(Task{Subject: "Writing"})
	if got := empty.Tasks[0].ID; got != "1" {
		t.Errorf("first id on empty day = %q, want %q", got, "1")
	}
}

func TestDayData_AverageProgress(t *testing.T) {
	day := DayData{Tasks: []Task{{Progress: 100}, {Progress: 50}, {Progress: 0}, {Progress: 50}}}
	if got := day.AverageProgress(); got != 50 {
		t.Errorf("AverageProgress() = %d, want 50", got)
	}

	var empty DayData
	if got := empty.AverageProgress(); got != 0 {
		t.Errorf("AverageProgress() on empty day = %d, want 0", got)
	}
}

func TestDayData_JSONShape(t *testing.T) {
	day := DayData{Tasks: []Task{{ID: "1", TimeRange: "08:00 - 09:00", Subject: "Listening", Progress: 25}}}

	data, err := json.Marshal(day)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	got := string(data)
	for _, want := range []string{`"timeRange":"08:00 - 09:00"`, `"progress":25`, `"mood":null`, `"readingListening":""`} {
		if !strings.Contains(got, want) {
			t.Errorf("encoded day %s is missing %s", got, want)
		}
	}
}
