// Package loadtest simulates many dashboard tabs saving at once.
//
// Each simulated tab posts Planner days for dates no other tab touches, so
// after a run every one of those dates must be present. A missing date is a
// lost update: one tab's read-merge-write overwrote another's.
package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/ieltsmaster/studyplan/internal/schema"
	"github.com/ieltsmaster/studyplan/internal/syncstore"
)

// baseDate is the first date tabs write to.
var baseDate = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

// LatencyStats captures save latency over a run.
type LatencyStats struct {
	Min        time.Duration
	Max        time.Duration
	Mean       time.Duration
	P50        time.Duration // Median
	P95        time.Duration
	P99        time.Duration
	TotalSaves int
	Errors     int
	Durations  []time.Duration
}

// RunConcurrentSaves starts tabs goroutines that each perform savesPerTab
// saves through s. Every third save of a tab goes to the Resource Hub or the
// Chill Zone instead of the Planner, so regions interleave.
func RunConcurrentSaves(ctx context.Context, s syncstore.Syncer, tabs, savesPerTab int) (*LatencyStats, error) {
	if tabs <= 0 || savesPerTab <= 0 {
		return nil, fmt.Errorf("tabs and saves per tab must be positive")
	}

	var wg sync.WaitGroup
	resultsChan := make(chan []time.Duration, tabs)
	errorsChan := make(chan error, tabs)

	for i := 0; i < tabs; i++ {
		wg.Add(1)
		go func(tab int) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(int64(42 + tab)))
			durations := make([]time.Duration, 0, savesPerTab)

			for j := 0; j < savesPerTab; j++ {
				body, err := payload(rng, tab, j, savesPerTab)
				if err != nil {
					errorsChan <- err
					return
				}

				start := time.Now()
				_, err = s.Save(ctx, body)
				durations = append(durations, time.Since(start))

				if err != nil {
					errorsChan <- fmt.Errorf("tab %d save %d failed: %w", tab, j, err)
					resultsChan <- durations
					return
				}
			}

			resultsChan <- durations
		}(i)
	}

	wg.Wait()
	close(resultsChan)
	close(errorsChan)

	var all []time.Duration
	for d := range resultsChan {
		all = append(all, d...)
	}
	errorCount := 0
	var firstErr error
	for err := range errorsChan {
		if firstErr == nil {
			firstErr = err
		}
		errorCount++
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no saves completed: %w", firstErr)
	}

	stats := computeLatencyStats(all)
	stats.Errors = errorCount
	return stats, nil
}

// VerifyNoLostUpdates checks that every Planner date written by a run of
// tabs x savesPerTab is present in the stored state.
func VerifyNoLostUpdates(ctx context.Context, s syncstore.Syncer, tabs, savesPerTab int) error {
	regions, err := s.LoadRegions(ctx)
	if err != nil {
		return err
	}

	var missing []string
	for tab := 0; tab < tabs; tab++ {
		for j := 0; j < savesPerTab; j++ {
			if !isPlannerSave(j) {
				continue
			}
			date := DateFor(tab, j, savesPerTab)
			if _, ok := regions.Planner[date]; !ok {
				missing = append(missing, date)
			}
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%d planner days lost, first %s", len(missing), missing[0])
	}
	return nil
}

// DateFor returns the date key tab writes on its n-th save.
func DateFor(tab, n, savesPerTab int) string {
	return schema.DateKey(baseDate.AddDate(0, 0, tab*savesPerTab+n))
}

func isPlannerSave(n int) bool {
	return n%3 != 2
}

// payload builds the body of a tab's n-th save.
func payload(rng *rand.Rand, tab, n, savesPerTab int) ([]byte, error) {
	var v any
	switch {
	case isPlannerSave(n):
		day := schema.NewDay()
		for i := range day.Tasks {
			day.Tasks[i].Progress = schema.ProgressSteps[rng.Intn(len(schema.ProgressSteps))]
		}
		v = map[string]schema.DayData{DateFor(tab, n, savesPerTab): day}

	case tab%2 == 0:
		cat := schema.Categories[rng.Intn(len(schema.Categories))]
		v = map[string][]schema.ResourceItem{
			cat: {{Name: fmt.Sprintf("tab %d link %d", tab, n)}},
		}

	default:
		v = schema.ChillZone{SeriesList: []schema.Series{
			{ID: fmt.Sprintf("tab-%d-%d", tab, n), Title: fmt.Sprintf("Series %d", n)},
		}}
	}

	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return body, nil
}

// computeLatencyStats calculates statistics from a slice of durations.
func computeLatencyStats(durations []time.Duration) *LatencyStats {
	if len(durations) == 0 {
		return &LatencyStats{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return &LatencyStats{
		Min:        sorted[0],
		Max:        sorted[len(sorted)-1],
		Mean:       sum / time.Duration(len(durations)),
		P50:        sorted[len(sorted)*50/100],
		P95:        sorted[len(sorted)*95/100],
		P99:        sorted[len(sorted)*99/100],
		TotalSaves: len(durations),
		Durations:  sorted,
	}
}

// PrintStats writes the statistics to w.
func (s *LatencyStats) PrintStats(w io.Writer) {
	fmt.Fprintf(w, "Save Latency:\n")
	fmt.Fprintf(w, "  Total Saves:   %d\n", s.TotalSaves)
	fmt.Fprintf(w, "  Errors:        %d\n", s.Errors)
	fmt.Fprintf(w, "  Min:           %v\n", s.Min)
	fmt.Fprintf(w, "  P50 (Median):  %v\n", s.P50)
	fmt.Fprintf(w, "  Mean:          %v\n", s.Mean)
	fmt.Fprintf(w, "  P95:           %v\n", s.P95)
	fmt.Fprintf(w, "  P99:           %v\n", s.P99)
	fmt.Fprintf(w, "  Max:           %v\n", s.Max)
}
