package schema

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateKeyLayout is the time layout of Planner keys.
const DateKeyLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsDateKey reports whether key has the YYYY-MM-DD shape of a Planner entry.
// Only the shape is checked; "2025-13-45" is a date key.
func IsDateKey(key string) bool {
	return datePattern.MatchString(key)
}

// DateKey formats t as a Planner key.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// Mood is the emoji a user picks in the daily review.
type Mood string

const (
	MoodNeutral  Mood = "😐"
	MoodGreat    Mood = "😄"
	MoodTired    Mood = "😴"
	MoodFighting Mood = "💪"
	MoodRocket   Mood = "🚀"
)

// Moods lists every mood in display order.
var Moods = []Mood{MoodNeutral, MoodGreat, MoodTired, MoodFighting, MoodRocket}

// Valid reports whether m is one of the known moods.
func (m Mood) Valid() bool {
	for _, known := range Moods {
		if m == known {
			return true
		}
	}
	return false
}

// ProgressSteps are the only progress values the planner UI produces.
var ProgressSteps = []int{0, 25, 50, 75, 100}

// ValidProgress reports whether p is one of ProgressSteps.
func ValidProgress(p int) bool {
	for _, step := range ProgressSteps {
		if p == step {
			return true
		}
	}
	return false
}

// Task is one time slot of a planner day.
type Task struct {
	ID        string `json:"id"`
	TimeRange string `json:"timeRange"`
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	Progress  int    `json:"progress"` // 0, 25, 50, 75, 100
}

// Validate checks the task fields the CLI relies on.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(t.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if !ValidProgress(t.Progress) {
		return fmt.Errorf("progress must be one of %v (got %d)", ProgressSteps, t.Progress)
	}
	return nil
}

// DailyReview holds the end-of-day notes.
type DailyReview struct {
	ReadingListening string `json:"readingListening"`
	SpeakingWriting  string `json:"speakingWriting"`
	Mood             *Mood  `json:"mood"`
}

// DayData is the value stored under one Planner date key.
type DayData struct {
	Tasks  []Task      `json:"tasks"`
	Review DailyReview `json:"review"`
}

// NewDay returns a day pre-filled with the default schedule.
func NewDay() DayData {
	return DayData{Tasks: DefaultTasks()}
}

// AddTask appends task and assigns it the next free numeric id when it has none.
func (d *DayData) AddTask(task Task) {
	if task.ID == "" {
		task.ID = d.nextID()
	}
	d.Tasks = append(d.Tasks, task)
}

func (d *DayData) nextID() string {
	max := 0
	for _, t := range d.Tasks {
		var n int
		if _, err := fmt.Sscanf(t.ID, "%d", &n); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%d", max+1)
}

// AverageProgress returns the mean progress over all tasks, 0 for an empty day.
func (d *DayData) AverageProgress() int {
	if len(d.Tasks) == 0 {
		return 0
	}
	sum := 0
	for _, t := range d.Tasks {
		sum += t.Progress
	}
	return sum / len(d.Tasks)
}

// DefaultTasks returns the four daily slots a new planner day starts with.
func DefaultTasks() []Task {
	return []Task{
		{ID: "1", TimeRange: "08:00 - 09:00", Subject: "Listening", Content: "Cambridge Practice"},
		{ID: "2", TimeRange: "10:15 - 11:30", Subject: "Reading", Content: "Passage 1-2 Focus"},
		{ID: "3", TimeRange: "15:30 - 16:30", Subject: "Writing", Content: "Task 1 Analysis"},
		{ID: "4", TimeRange: "16:30 - 17:00", Subject: "Speaking", Content: "Part 2 Practice"},
	}
}
