package tui

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/verte-zerg/furitype/internal/generator"
	"github.com/verte-zerg/furitype/internal/logging"
	"github.com/verte-zerg/furitype/internal/model"
	"github.com/verte-zerg/furitype/internal/problems"
	"github.com/verte-zerg/furitype/internal/stats"
)

// Source supplies the content of a run.
type Source interface {
	// Name is stored with every run.
	Name() string
	Load(ctx context.Context) (model.Content, error)
}

// RunSaver persists finished runs.
type RunSaver interface {
	InsertRun(ctx context.Context, run model.RunStats, keys []model.KeyStats) (int64, error)
}

// WeakKeyStore reports recent per-key results.
type WeakKeyStore interface {
	GetWeakKeys(ctx context.Context, window int) ([]model.KeyAggregate, error)
}

// ProblemSource loads a problem file.
type ProblemSource struct {
	Problem problems.Problem
}

// Name implements Source.
func (s ProblemSource) Name() string {
	return s.Problem.Name
}

// Load implements Source.
func (s ProblemSource) Load(context.Context) (model.Content, error) {
	return problems.Load(s.Problem)
}

// DrillSource generates kana drills, optionally biased toward weak keys.
type DrillSource struct {
	Generator  *generator.Generator
	Pool       []string
	Lines      int
	Length     int
	FocusWeak  bool
	WeakTop    int
	WeakFactor float64
	WeakWindow int
	Weak       WeakKeyStore

	weakNoticeLogged bool
}

// Name implements Source.
func (d *DrillSource) Name() string {
	return "drill"
}

// Load implements Source. The weak set is refreshed on every call so each
// new drill reflects the previous run.
func (d *DrillSource) Load(ctx context.Context) (model.Content, error) {
	if len(d.Pool) == 0 {
		return model.Content{}, errors.New("layout has no kana keys to drill")
	}
	if !d.FocusWeak {
		return d.Generator.Generate(d.Pool, d.Lines, d.Length), nil
	}
	weakSet, err := d.weakSet(ctx)
	if err != nil {
		return model.Content{}, err
	}
	return d.Generator.GenerateWeighted(d.Pool, d.Lines, d.Length, weakSet, d.WeakFactor), nil
}

func (d *DrillSource) weakSet(ctx context.Context) (map[string]struct{}, error) {
	if d.Weak == nil {
		return nil, nil
	}
	aggs, err := d.Weak.GetWeakKeys(ctx, d.WeakWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load weak keys: %w", err)
	}
	weakSet := stats.SelectWeakKeys(aggs, d.WeakTop)
	if len(weakSet) == 0 && !d.weakNoticeLogged {
		logging.Info("no weak keys yet; using uniform drill")
		d.weakNoticeLogged = true
	}
	if len(weakSet) > 0 {
		logging.Debug("drill weak keys", zap.Int("count", len(weakSet)))
	}
	return weakSet, nil
}
