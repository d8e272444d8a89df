package stats

import (
	"context"
	"strings"

	"github.com/verte-zerg/furitype/internal/model"
	"github.com/verte-zerg/furitype/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Runs          []model.RunAggregate
	WindowRunIDs  []int64
	KeyAggsAll    []model.KeyAggregate
	KeyAggsWindow []model.KeyAggregate
	// Keys are the keys drawn as per-key curves, PerRun their stats by run.
	Keys   []string
	PerRun map[int64]map[string]model.KeyAggregate
}

// BuildReport loads and prepares data for stats rendering. When cfg.Keys is
// empty the most practised keys of the window are charted.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	runs, err := st.ListRuns(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(runs) > cfg.Last {
		runs = runs[len(runs)-cfg.Last:]
	}

	allIDs := runIDs(runs)
	windowIDs := lastRunIDs(runs, cfg.CurveWindow)
	keyAggsAll, err := st.ListKeyAggregatesForRuns(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	keyAggsWindow, err := st.ListKeyAggregatesForRuns(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	keys := ParseKeys(cfg.Keys)
	if len(keys) == 0 {
		keys = TopKeysByFrequency(keyAggsWindow, defaultCurveKeys)
	}
	perRun, err := st.ListKeyStatsForRuns(ctx, allIDs, keys)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Runs:          runs,
		WindowRunIDs:  windowIDs,
		KeyAggsAll:    keyAggsAll,
		KeyAggsWindow: keyAggsWindow,
		Keys:          keys,
		PerRun:        perRun,
	}, nil
}

const defaultCurveKeys = 5

// ParseKeys splits a comma-separated key list, dropping blanks.
func ParseKeys(raw string) []string {
	var keys []string
	seen := map[string]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		key := strings.TrimSpace(part)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

func runIDs(runs []model.RunAggregate) []int64 {
	ids := make([]int64, len(runs))
	for i, r := range runs {
		ids[i] = r.RunID
	}
	return ids
}

func lastRunIDs(runs []model.RunAggregate, window int) []int64 {
	if window <= 0 || len(runs) <= window {
		return runIDs(runs)
	}
	return runIDs(runs[len(runs)-window:])
}
