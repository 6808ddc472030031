package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ieltsmaster/studyplan/internal/loadtest"
	"github.com/ieltsmaster/studyplan/internal/store"
	"github.com/ieltsmaster/studyplan/internal/syncstore"
	"github.com/ieltsmaster/studyplan/internal/ui"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Simulate concurrent dashboard tabs saving at once",
	Long: `Run a save load test against a scratch store.

Each simulated tab posts planner days for its own dates, with resource and
chill zone saves mixed in. After the run every planner date must still be
present; a missing date means one tab's save overwrote another's.

The configured state database is never touched.

Examples:
  # 20 tabs, 10 saves each, on a temporary SQLite file
  ielts bench

  # In-memory store, JSON output
  ielts bench --driver memory --json
`,
	GroupID: "data",
	RunE: func(cmd *cobra.Command, args []string) error {
		tabs, _ := cmd.Flags().GetInt("tabs")
		saves, _ := cmd.Flags().GetInt("saves")
		driver, _ := cmd.Flags().GetString("driver")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		if tabs <= 0 || saves <= 0 {
			return fmt.Errorf("--tabs and --saves must be positive")
		}
		return runBench(cmd.Context(), driver, tabs, saves, jsonOutput, cmd.OutOrStdout())
	},
}

func init() {
	benchCmd.Flags().Int("tabs", 20, "Number of concurrent tabs to simulate")
	benchCmd.Flags().Int("saves", 10, "Number of saves per tab")
	benchCmd.Flags().String("driver", "sqlite", "Scratch store: sqlite or memory")
	benchCmd.Flags().Bool("json", false, "Output results as JSON")
	rootCmd.AddCommand(benchCmd)
}

// benchResult is the JSON form of a bench run.
type benchResult struct {
	Driver     string  `json:"driver"`
	Tabs       int     `json:"tabs"`
	Saves      int     `json:"saves_per_tab"`
	TotalSaves int     `json:"total_saves"`
	Errors     int     `json:"errors"`
	P50Ms      float64 `json:"p50_ms"`
	P95Ms      float64 `json:"p95_ms"`
	P99Ms      float64 `json:"p99_ms"`
	LostDays   string  `json:"lost_days,omitempty"`
}

func runBench(ctx context.Context, driver string, tabs, saves int, jsonOutput bool, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var kv store.KV
	switch driver {
	case "memory":
		kv = store.NewMemory()
	case "sqlite":
		dir, err := os.MkdirTemp("", "ielts-bench-")
		if err != nil {
			return fmt.Errorf("failed to create scratch dir: %w", err)
		}
		defer os.RemoveAll(dir)

		kv, err = store.Open(filepath.Join(dir, "bench.db"))
		if err != nil {
			return fmt.Errorf("failed to open scratch database: %w", err)
		}
	default:
		return fmt.Errorf("--driver must be 'sqlite' or 'memory'")
	}
	defer kv.Close()

	s := syncstore.New(kv, syncstore.DefaultOptions(), log.New(io.Discard, "", 0))

	stats, err := loadtest.RunConcurrentSaves(ctx, s, tabs, saves)
	if err != nil {
		return err
	}
	lost := loadtest.VerifyNoLostUpdates(ctx, s, tabs, saves)

	if jsonOutput {
		res := benchResult{
			Driver:     driver,
			Tabs:       tabs,
			Saves:      saves,
			TotalSaves: stats.TotalSaves,
			Errors:     stats.Errors,
			P50Ms:      float64(stats.P50.Microseconds()) / 1000,
			P95Ms:      float64(stats.P95.Microseconds()) / 1000,
			P99Ms:      float64(stats.P99.Microseconds()) / 1000,
		}
		if lost != nil {
			res.LostDays = lost.Error()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
		return lost
	}

	fmt.Fprintln(w, ui.Heading(ui.IconServer, fmt.Sprintf("Bench: %d tabs x %d saves (%s)", tabs, saves, driver)))
	stats.PrintStats(w)
	if lost != nil {
		fmt.Fprintf(w, "%s %v\n", ui.RenderFail("✗"), lost)
		return lost
	}
	fmt.Fprintf(w, "%s no lost updates\n", ui.RenderPass(ui.IconDone))
	return nil
}
