package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ieltsmaster/studyplan/internal/logging"
	"github.com/ieltsmaster/studyplan/internal/schema"
	"github.com/ieltsmaster/studyplan/internal/syncstore"
	"github.com/ieltsmaster/studyplan/internal/ui"
)

var stateCmd = &cobra.Command{
	Use:     "state",
	GroupID: "data",
	Short:   "Inspect and manage the stored dashboard state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a summary of the stored state",
	Long: `Print a summary of the stored state.

Use --region to limit the output to planner, resources or chill.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		region, _ := cmd.Flags().GetString("region")
		return withSyncer(cmd.Context(), func(ctx context.Context, s syncstore.Syncer) error {
			return showState(ctx, s, region, cmd.OutOrStdout())
		})
	},
}

var stateExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored state as JSON or YAML",
	Long: `Write the stored state as JSON or YAML.

Example usage:
  ielts state export                      # JSON to stdout
  ielts state export --format yaml -o state.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		out := cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer f.Close()
			out = f
		}

		return withSyncer(cmd.Context(), func(ctx context.Context, s syncstore.Syncer) error {
			return exportState(ctx, s, format, out)
		})
	},
}

var stateImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge a JSON or YAML export into the stored state",
	Long: `Merge a JSON or YAML export into the stored state.

Each region found in the file is saved the same way the dashboard saves it,
so regions absent from the file are left untouched. Both the flat export
layout and the region-shaped GET layout are accepted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return withSyncer(cmd.Context(), func(ctx context.Context, s syncstore.Syncer) error {
			regions, err := importState(ctx, s, data, filepath.Ext(args[0]))
			if err != nil {
				return err
			}
			for _, r := range regions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %s\n", ui.RenderPass(ui.IconDone), r)
			}
			return nil
		})
	},
}

var stateSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill empty regions with the starter resources and watch list",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSyncer(cmd.Context(), func(ctx context.Context, s syncstore.Syncer) error {
			seeded, err := seedState(ctx, s)
			if err != nil {
				return err
			}
			if len(seeded) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to seed: every region already has data")
				return nil
			}
			for _, r := range seeded {
				fmt.Fprintf(cmd.OutOrStdout(), "%s Seeded %s\n", ui.RenderPass(ui.IconDone), r)
			}
			return nil
		})
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored state",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("refusing to delete the state without --yes")
		}
		return withSyncer(cmd.Context(), func(ctx context.Context, s syncstore.Syncer) error {
			if err := s.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s State deleted\n", ui.RenderWarn(ui.IconWarn))
			return nil
		})
	},
}

func init() {
	stateShowCmd.Flags().String("region", "", "Only show one region: planner, resources or chill")
	stateExportCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
	stateExportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	stateResetCmd.Flags().Bool("yes", false, "Confirm deletion")

	stateCmd.AddCommand(stateShowCmd, stateExportCmd, stateImportCmd, stateSeedCmd, stateResetCmd)
	rootCmd.AddCommand(stateCmd)
}

// withSyncer opens the configured backend for the duration of fn.
func withSyncer(ctx context.Context, fn func(context.Context, syncstore.Syncer) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, kv, err := openSyncer(cfg, logging.Discard())
	if err != nil {
		return err
	}
	defer kv.Close()
	return fn(ctx, s)
}

// showState prints a styled summary of one or all regions.
func showState(ctx context.Context, s syncstore.Syncer, region string, w io.Writer) error {
	regions, err := s.LoadRegions(ctx)
	if err != nil {
		return err
	}

	switch region {
	case "", "planner", "resources", "chill":
	default:
		return fmt.Errorf("unknown region %q (want planner, resources or chill)", region)
	}

	if region == "" && regions.Empty() {
		fmt.Fprintln(w, ui.RenderMuted("No state stored yet. Run 'ielts state seed' to add the starter resources."))
		return nil
	}

	if region == "" || region == "planner" {
		if err := showPlanner(regions, w); err != nil {
			return err
		}
	}
	if region == "" || region == "resources" {
		if err := showResources(regions, w); err != nil {
			return err
		}
	}
	if region == "" || region == "chill" {
		if err := showChill(regions, w); err != nil {
			return err
		}
	}
	return nil
}

func showPlanner(r syncstore.Regions, w io.Writer) error {
	fmt.Fprintln(w, ui.Heading(ui.IconPlan, "Planner"))
	if len(r.Planner) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("  no planned days"))
		fmt.Fprintln(w)
		return nil
	}

	dates := make([]string, 0, len(r.Planner))
	for d := range r.Planner {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, date := range dates {
		day, _, err := r.Day(date)
		if err != nil {
			fmt.Fprintf(w, "  %s %s\n", date, ui.RenderFail("unreadable"))
			continue
		}
		fmt.Fprintf(w, "  %s %s  %d tasks", date, ui.ProgressBar(day.AverageProgress()), len(day.Tasks))
		if day.Review.Mood != nil && day.Review.Mood.Valid() {
			fmt.Fprintf(w, "  %s", *day.Review.Mood)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
	return nil
}

func showResources(r syncstore.Regions, w io.Writer) error {
	hub, err := r.Hub()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, ui.Heading(ui.IconBook, "Resource Hub"))
	for _, cat := range schema.Categories {
		items := hub.Category(cat)
		fmt.Fprintf(w, "  %s\n", ui.LabelValue(cat, len(items)))
		for _, item := range items {
			line := "    - " + item.Name
			if item.URL != "" {
				line += " " + ui.RenderMuted(item.URL)
			}
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintln(w)
	return nil
}

func showChill(r syncstore.Regions, w io.Writer) error {
	cz, err := r.Chill()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, ui.Heading(ui.IconChill, "Chill Zone"))
	if len(cz.SeriesList) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("  watch list is empty"))
	}
	for _, series := range cz.SeriesList {
		fmt.Fprintf(w, "  - %s %s\n", series.Title, ui.RenderMuted(series.Desc))
	}
	fmt.Fprintln(w)
	return nil
}

// exportState writes the flat stored state in format.
func exportState(ctx context.Context, s syncstore.Syncer, format string, w io.Writer) error {
	st, err := s.Load(ctx)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)

	case "yaml", "yml":
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("failed to encode state: %w", err)
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to encode state: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to write yaml: %w", err)
		}
		return enc.Close()

	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

// importState saves every region found in data and returns the regions that
// were written. ext selects the decoder; anything but .yaml/.yml is JSON.
func importState(ctx context.Context, s syncstore.Syncer, data []byte, ext string) ([]syncstore.Region, error) {
	var doc map[string]any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("import file does not contain an object")
	}

	flat := flatten(doc)

	planner := map[string]any{}
	hub := map[string]any{}
	chill := map[string]any{}
	for k, v := range flat {
		switch {
		case schema.IsDateKey(k):
			planner[k] = v
		case schema.IsCategory(k):
			hub[k] = v
		case k == "seriesList":
			chill[k] = v
		}
	}

	var saved []syncstore.Region
	for _, payload := range []map[string]any{planner, hub, chill} {
		if len(payload) == 0 {
			continue
		}
		body, err := marshalPayload(payload)
		if err != nil {
			return saved, err
		}
		region, err := s.Save(ctx, body)
		if err != nil {
			return saved, fmt.Errorf("failed to import %v: %w", keysOf(payload), err)
		}
		saved = append(saved, region)
	}
	if len(saved) == 0 {
		return nil, fmt.Errorf("import file has no planner, resource or chill zone data")
	}
	return saved, nil
}

// flatten turns the region-shaped GET layout into the flat stored layout.
// Flat documents pass through unchanged.
func flatten(doc map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range doc {
		switch k {
		case "planner", "resourceHub", "chillZone":
			if inner, ok := v.(map[string]any); ok {
				for ik, iv := range inner {
					out[ik] = iv
				}
				continue
			}
		}
		out[k] = v
	}
	return out
}

// seedState saves the starter content into regions that have none.
func seedState(ctx context.Context, s syncstore.Syncer) ([]syncstore.Region, error) {
	defaults, err := schema.Defaults()
	if err != nil {
		return nil, err
	}

	regions, err := s.LoadRegions(ctx)
	if err != nil {
		return nil, err
	}

	var seeded []syncstore.Region

	hub, err := regions.Hub()
	if err != nil {
		return nil, err
	}
	if hub.Count() == 0 {
		body, err := marshalPayload(defaults.Resources)
		if err != nil {
			return nil, err
		}
		region, err := s.Save(ctx, body)
		if err != nil {
			return seeded, err
		}
		seeded = append(seeded, region)
	}

	cz, err := regions.Chill()
	if err != nil {
		return nil, err
	}
	if len(cz.SeriesList) == 0 {
		body, err := marshalPayload(defaults.ChillZone())
		if err != nil {
			return seeded, err
		}
		region, err := s.Save(ctx, body)
		if err != nil {
			return seeded, err
		}
		seeded = append(seeded, region)
	}

	return seeded, nil
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
