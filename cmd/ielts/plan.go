package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ieltsmaster/studyplan/internal/schema"
	"github.com/ieltsmaster/studyplan/internal/syncstore"
	"github.com/ieltsmaster/studyplan/internal/ui"
)

var planCmd = &cobra.Command{
	Use:     "plan",
	GroupID: "data",
	Short:   "Edit the daily planner",
}

var planAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a task to a planner day",
	Long: `Add a task to a planner day.

--date accepts YYYY-MM-DD or natural language such as "tomorrow" or
"next monday". A day without an entry starts from the default schedule.
When --subject is missing and the terminal is interactive, a form asks for
the task fields.

Example usage:
  ielts plan add --date tomorrow --subject Writing --content "Task 2 essay"
  ielts plan add --date 2025-03-01 --time "19:00 - 20:00" --subject Reading --progress 25`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := planInput{}
		in.Date, _ = cmd.Flags().GetString("date")
		in.Task.TimeRange, _ = cmd.Flags().GetString("time")
		in.Task.Subject, _ = cmd.Flags().GetString("subject")
		in.Task.Content, _ = cmd.Flags().GetString("content")
		in.Task.Progress, _ = cmd.Flags().GetInt("progress")

		if in.Task.Subject == "" {
			if !isInteractive() {
				return fmt.Errorf("--subject is required when not running in a terminal")
			}
			if err := askPlanInput(&in); err != nil {
				return err
			}
		}

		return withSyncer(cmd.Context(), func(ctx context.Context, s syncstore.Syncer) error {
			date, day, err := addTask(ctx, s, in, time.Now())
			if err != nil {
				return err
			}
			printDay(cmd.OutOrStdout(), date, day)
			return nil
		})
	},
}

func init() {
	planAddCmd.Flags().String("date", "today", "Day to plan (YYYY-MM-DD or natural language)")
	planAddCmd.Flags().String("time", "", "Time range, e.g. \"08:00 - 09:00\"")
	planAddCmd.Flags().String("subject", "", "Subject, e.g. Listening")
	planAddCmd.Flags().String("content", "", "What to study")
	planAddCmd.Flags().Int("progress", 0, "Progress: 0, 25, 50, 75 or 100")

	planCmd.AddCommand(planAddCmd)
	rootCmd.AddCommand(planCmd)
}

// isInteractive decides whether plan add may fall back to a form.
var isInteractive = ui.IsInteractive

type planInput struct {
	Date string
	Task schema.Task
}

// askPlanInput fills in the task interactively.
func askPlanInput(in *planInput) error {
	progress := strconv.Itoa(in.Task.Progress)
	options := make([]huh.Option[string], 0, len(schema.ProgressSteps))
	for _, p := range schema.ProgressSteps {
		v := strconv.Itoa(p)
		options = append(options, huh.NewOption(v+"%", v))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date").Description("YYYY-MM-DD, today, tomorrow, next monday...").Value(&in.Date),
			huh.NewInput().Title("Time range").Placeholder("08:00 - 09:00").Value(&in.Task.TimeRange),
			huh.NewSelect[string]().Title("Subject").
				Options(huh.NewOptions("Listening", "Reading", "Writing", "Speaking", "Vocabulary")...).
				Value(&in.Task.Subject),
			huh.NewInput().Title("Content").Value(&in.Task.Content),
			huh.NewSelect[string]().Title("Progress").Options(options...).Value(&progress),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("form cancelled: %w", err)
	}

	p, err := strconv.Atoi(progress)
	if err != nil {
		return fmt.Errorf("invalid progress %q: %w", progress, err)
	}
	in.Task.Progress = p
	return nil
}

// addTask appends in.Task to the planner day named by in.Date and saves the
// day. Fields of an existing entry that schema.DayData does not model are
// written back unchanged. It returns the resolved date key and the saved day.
func addTask(ctx context.Context, s syncstore.Syncer, in planInput, now time.Time) (string, schema.DayData, error) {
	date, err := schema.ParseDateKey(in.Date, now)
	if err != nil {
		return "", schema.DayData{}, err
	}

	regions, err := s.LoadRegions(ctx)
	if err != nil {
		return "", schema.DayData{}, err
	}
	fields, ok, err := regions.DayFields(date)
	if err != nil {
		return "", schema.DayData{}, err
	}
	if !ok {
		if fields, err = newDayFields(); err != nil {
			return "", schema.DayData{}, err
		}
	}

	if err := appendTask(fields, in.Task); err != nil {
		return "", schema.DayData{}, err
	}

	body, err := marshalPayload(map[string]map[string]json.RawMessage{date: fields})
	if err != nil {
		return "", schema.DayData{}, err
	}
	if _, err := s.Save(ctx, body); err != nil {
		return "", schema.DayData{}, err
	}

	// The returned day is for display; fields that do not fit DayData stay zero.
	var saved map[string]schema.DayData
	_ = json.Unmarshal(body, &saved)
	return date, saved[date], nil
}

// newDayFields returns the default schedule as raw day fields.
func newDayFields() (map[string]json.RawMessage, error) {
	data, err := json.Marshal(schema.NewDay())
	if err != nil {
		return nil, fmt.Errorf("failed to encode new day: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode new day: %w", err)
	}
	return fields, nil
}

// appendTask adds task to the "tasks" list in fields. Existing tasks are kept
// byte for byte; they are decoded only to pick the next free id.
func appendTask(fields map[string]json.RawMessage, task schema.Task) error {
	var tasks []json.RawMessage
	if raw, ok := fields["tasks"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &tasks); err != nil {
			return fmt.Errorf("planner tasks are not a list: %w", err)
		}
	}

	var day schema.DayData
	for _, raw := range tasks {
		var t schema.Task
		_ = json.Unmarshal(raw, &t)
		day.Tasks = append(day.Tasks, t)
	}
	day.AddTask(task)
	added := day.Tasks[len(day.Tasks)-1]
	if err := added.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	encoded, err := json.Marshal(added)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}
	list, err := json.Marshal(append(tasks, encoded))
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	fields["tasks"] = list
	return nil
}

func printDay(w io.Writer, date string, day schema.DayData) {
	fmt.Fprintf(w, "%s %s %s\n", ui.RenderPass(ui.IconDone), ui.Heading("", date), ui.ProgressBar(day.AverageProgress()))
	for _, t := range day.Tasks {
		fmt.Fprintf(w, "  %-2s %-15s %-10s %s\n", t.ID, t.TimeRange, t.Subject, ui.RenderMuted(t.Content))
	}
}
