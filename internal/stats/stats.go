// Package stats contains metrics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/furitype/internal/model"
)

const sparkChars = " .:-=+*#%@"

// RunMetrics computes speed (keys per second), keys per minute and accuracy
// for a stored run.
func RunMetrics(typed, missed int, durationMs int64) (speed, kpm, accuracy float64) {
	den := float64(typed + missed)
	if den > 0 {
		accuracy = float64(typed) / den
	}
	if durationMs <= 0 {
		return 0, 0, accuracy
	}
	seconds := float64(durationMs) / 1000.0
	speed = float64(typed) / seconds
	kpm = speed * 60
	return speed, kpm, accuracy
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Resample stretches or shrinks values to width points by averaging buckets.
func Resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		return append([]float64(nil), values...)
	}
	out := make([]float64, width)
	for i := range out {
		lo := i * len(values) / width
		hi := (i + 1) * len(values) / width
		if hi <= lo {
			hi = lo + 1
		}
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

func minMax(values []float64) (float64, float64) {
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	return minVal, maxVal
}

// RenderSummary prints a summary of runs.
func RenderSummary(w io.Writer, runs []model.RunAggregate) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	var totalSpeed, totalKPM, totalAcc float64
	var totalMs int64
	bestSpeed := 0.0
	for _, r := range runs {
		speed, kpm, acc := RunMetrics(r.Typed, r.Missed, r.DurationMs)
		totalSpeed += speed
		totalKPM += kpm
		totalAcc += acc
		totalMs += r.DurationMs
		bestSpeed = math.Max(bestSpeed, speed)
	}
	count := float64(len(runs))
	lines := []string{
		"Summary",
		fmt.Sprintf("Runs: %d", len(runs)),
		fmt.Sprintf("Practice time: %s", FormatDuration(time.Duration(totalMs)*time.Millisecond)),
		fmt.Sprintf("Avg speed: %.2f keys/s", totalSpeed/count),
		fmt.Sprintf("Best speed: %.2f keys/s", bestSpeed),
		fmt.Sprintf("Avg KPM: %.1f", totalKPM/count),
		fmt.Sprintf("Avg accuracy: %.2f%%", (totalAcc/count)*100),
		"",
	}
	return writeLines(w, lines)
}

// RenderCurves prints speed and accuracy learning curves as sparklines fitted
// to totalWidth columns.
func RenderCurves(w io.Writer, runs []model.RunAggregate, window, totalWidth int) error {
	if len(runs) == 0 {
		return nil
	}
	speeds := make([]float64, len(runs))
	accs := make([]float64, len(runs))
	for i, r := range runs {
		speed, _, acc := RunMetrics(r.Typed, r.Missed, r.DurationMs)
		speeds[i] = speed
		accs[i] = acc * 100
	}
	return renderSeries(w, "Learning Curves", []series{
		{name: "Speed", unit: " keys/s", values: MovingAverage(speeds, window)},
		{name: "Accuracy", unit: "%", values: MovingAverage(accs, window)},
	}, totalWidth)
}

// RenderKeyCurves prints per-key accuracy curves across runs.
func RenderKeyCurves(w io.Writer, runs []model.RunAggregate, perRun map[int64]map[string]model.KeyAggregate, keys []string, window, totalWidth int) error {
	if len(keys) == 0 || len(runs) == 0 {
		return nil
	}
	list := make([]series, 0, len(keys))
	for _, key := range keys {
		values := make([]float64, len(runs))
		for i, r := range runs {
			if agg, ok := perRun[r.RunID][key]; ok {
				if total := agg.Correct + agg.Incorrect; total > 0 {
					values[i] = float64(agg.Correct) / float64(total) * 100
				}
			}
		}
		list = append(list, series{name: keyLabel(key), unit: "%", values: MovingAverage(values, window)})
	}
	return renderSeries(w, "Per-Key Accuracy", list, totalWidth)
}

type series struct {
	name   string
	unit   string
	values []float64
}

func renderSeries(w io.Writer, title string, list []series, totalWidth int) error {
	labelWidth := 0
	for _, s := range list {
		labelWidth = max(labelWidth, runewidth.StringWidth(s.name))
	}
	lines := []string{title}
	for _, s := range list {
		if len(s.values) == 0 {
			continue
		}
		last := s.values[len(s.values)-1]
		suffix := fmt.Sprintf(" %.2f%s", last, s.unit)
		width := 0
		if totalWidth > 0 {
			width = max(totalWidth-labelWidth-1-len(suffix), 8)
		}
		label := runewidth.FillRight(s.name, labelWidth)
		lines = append(lines, label+" "+Sparkline(Resample(s.values, width))+suffix)
	}
	lines = append(lines, "")
	return writeLines(w, lines)
}

// RenderKeyTable prints per-key aggregates, weakest first.
func RenderKeyTable(w io.Writer, aggs []model.KeyAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No key stats found.")
		return err
	}
	rows := append([]model.KeyAggregate(nil), aggs...)
	sort.Slice(rows, func(i, j int) bool {
		ai, aj := keyAccuracy(rows[i]), keyAccuracy(rows[j])
		if ai == aj {
			return rows[i].Key < rows[j].Key
		}
		return ai < aj
	})

	headers := []string{"Key", "Accuracy", "Correct", "Incorrect"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			keyLabel(r.Key),
			fmt.Sprintf("%.2f%%", keyAccuracy(r)*100),
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%d", r.Incorrect),
		})
	}
	lines := []string{"Per-Key (Windowed)"}
	lines = append(lines, formatTable(headers, tableRows, map[int]bool{1: true, 2: true, 3: true})...)
	lines = append(lines, "")
	return writeLines(w, lines)
}

// FormatDuration renders d as mm:ss.ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	seconds := (d % time.Minute).Seconds()
	return fmt.Sprintf("%02d:%05.2f", minutes, seconds)
}

func keyLabel(key string) string {
	switch key {
	case " ":
		return "<space>"
	case "　":
		return "<wide space>"
	default:
		return key
	}
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
