// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	LayoutPath  string
	ProblemsDir string
	FocusWeak   bool
	WeakTop     int
	WeakFactor  float64
	WeakWindow  int
	DrillLines  int
	DrillLength int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Problem     string
	Since       *time.Time
	Last        int
	CurveWindow int
	Keys        string
}

// RunStats captures a completed practice run.
type RunStats struct {
	StartedAt  time.Time
	EndedAt    time.Time
	Problem    string
	Title      string
	Layout     string
	Lines      int
	Typed      int
	Missed     int
	DurationMs int64
}

// KeyStats stores per-key results for a run.
type KeyStats struct {
	Key       string
	Correct   int
	Incorrect int
}

// KeyAggregate aggregates key stats across runs.
type KeyAggregate struct {
	Key       string
	Correct   int
	Incorrect int
}

// RunAggregate summarizes a run for reporting.
type RunAggregate struct {
	RunID      int64
	EndedAt    time.Time
	Problem    string
	Typed      int
	Missed     int
	DurationMs int64
}
