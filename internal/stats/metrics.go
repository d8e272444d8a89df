package stats

import (
	"time"

	"github.com/verte-zerg/furitype/internal/model"
	"github.com/verte-zerg/furitype/internal/typing"
)

// Metrics summarizes the keystrokes recorded in a typing model.
type Metrics struct {
	MissCount int
	TypeCount int
	TotalTime time.Duration
	// Accuracy is TypeCount / (TypeCount + MissCount).
	Accuracy float64
	// Speed is correct keystrokes per second.
	Speed float64
}

// Compute derives Metrics from every session of m. It does not modify m.
func Compute(m typing.TypingModel) Metrics {
	var out Metrics
	var first, last time.Time
	seen := false
	for _, s := range m.Sessions {
		if len(s.Inputs) == 0 {
			continue
		}
		for _, in := range s.Inputs {
			if in.Correct {
				out.TypeCount++
			} else {
				out.MissCount++
			}
		}
		start, end := s.Start(), s.End()
		if !seen || start.Before(first) {
			first = start
		}
		if !seen || end.After(last) {
			last = end
		}
		seen = true
	}
	if seen && last.After(first) {
		out.TotalTime = last.Sub(first)
	}
	if total := out.TypeCount + out.MissCount; total > 0 {
		out.Accuracy = float64(out.TypeCount) / float64(total)
	}
	if out.TotalTime > 0 {
		out.Speed = float64(out.TypeCount) / out.TotalTime.Seconds()
	}
	return out
}

// KeyStats counts committed target characters by correctness, in order of
// first appearance. Pending characters are not counted.
func KeyStats(m typing.TypingModel) []model.KeyStats {
	index := map[string]int{}
	var out []model.KeyStats
	for li, line := range m.Content.Lines {
		for si, seg := range line.Segments {
			for ci, r := range model.Target(seg) {
				state := m.Correctness.At(li, si, ci)
				if state == typing.Pending {
					continue
				}
				key := string(r)
				i, ok := index[key]
				if !ok {
					i = len(out)
					index[key] = i
					out = append(out, model.KeyStats{Key: key})
				}
				if state == typing.Correct {
					out[i].Correct++
				} else {
					out[i].Incorrect++
				}
			}
		}
	}
	return out
}
