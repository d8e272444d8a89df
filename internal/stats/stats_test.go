package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/furitype/internal/model"
)

func TestRunMetrics(t *testing.T) {
	speed, kpm, acc := RunMetrics(30, 10, 10000)
	if math.Abs(speed-3) > 1e-9 || math.Abs(kpm-180) > 1e-9 || math.Abs(acc-0.75) > 1e-9 {
		t.Fatalf("unexpected metrics: %.2f %.2f %.2f", speed, kpm, acc)
	}
	speed, kpm, acc = RunMetrics(5, 0, 0)
	if speed != 0 || kpm != 0 || acc != 1 {
		t.Fatalf("expected zero speed with full accuracy, got %.2f %.2f %.2f", speed, kpm, acc)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 3, 5, 7}, 2)
	want := []float64{1, 2, 4, 6}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: expected %.2f, got %.2f", i, want[i], got[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if got := Sparkline([]float64{2, 2, 2}); got != "+++" {
		t.Fatalf("unexpected flat sparkline: %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
}

func TestResample(t *testing.T) {
	got := Resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected resample: %v", got)
	}
	if got := Resample([]float64{1, 2}, 10); len(got) != 2 {
		t.Fatalf("short series should be kept, got %v", got)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(83*time.Second + 450*time.Millisecond); got != "01:23.45" {
		t.Fatalf("unexpected duration: %q", got)
	}
	if got := FormatDuration(-time.Second); got != "00:00.00" {
		t.Fatalf("unexpected negative duration: %q", got)
	}
}

func TestRenderSummaryAndCurves(t *testing.T) {
	runs := []model.RunAggregate{
		{RunID: 1, Typed: 20, Missed: 5, DurationMs: 10000},
		{RunID: 2, Typed: 40, Missed: 0, DurationMs: 10000},
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, runs); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Runs: 2") || !strings.Contains(out, "Best speed: 4.00 keys/s") {
		t.Fatalf("unexpected summary: %q", out)
	}

	buf.Reset()
	if err := RenderCurves(&buf, runs, 1, 40); err != nil {
		t.Fatalf("render curves: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "Learning Curves" {
		t.Fatalf("unexpected curves: %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "Speed    ") || !strings.HasSuffix(lines[1], "4.00 keys/s") {
		t.Fatalf("unexpected speed curve: %q", lines[1])
	}

	buf.Reset()
	if err := RenderSummary(&buf, nil); err != nil || buf.String() != "No runs found.\n" {
		t.Fatalf("unexpected empty summary: %q %v", buf.String(), err)
	}
}

func TestRenderKeyTableSortsWeakestFirst(t *testing.T) {
	var buf bytes.Buffer
	err := RenderKeyTable(&buf, []model.KeyAggregate{
		{Key: "か", Correct: 10},
		{Key: " ", Correct: 1, Incorrect: 1},
	})
	if err != nil {
		t.Fatalf("render table: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 4 {
		t.Fatalf("unexpected table: %q", buf.String())
	}
	if !strings.HasPrefix(lines[2], "<space>") || !strings.HasPrefix(lines[3], "か") {
		t.Fatalf("unexpected row order: %q", buf.String())
	}
}
