// Package generator builds kana drills from a layout.
package generator

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/furitype/internal/layout"
	"github.com/verte-zerg/furitype/internal/model"
)

// GroupSize is the number of keys between spaces in a drill line.
const GroupSize = 4

// DrillTitle is the title given to generated drills.
const DrillTitle = "ドリル"

// Generator produces randomized drills.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Pool returns the hiragana keys of l that can start a syllable, in match order.
func Pool(l *layout.Layout) []string {
	var pool []string
	for _, key := range l.Keys() {
		if isDrillKey(key) {
			pool = append(pool, key)
		}
	}
	return pool
}

func isDrillKey(key string) bool {
	runes := []rune(key)
	if len(runes) == 0 || len(runes) > 2 {
		return false
	}
	for _, r := range runes {
		if !unicode.Is(unicode.Hiragana, r) {
			return false
		}
	}
	// Small kana and sokuon only appear as part of longer keys.
	switch runes[0] {
	case 'ぁ', 'ぃ', 'ぅ', 'ぇ', 'ぉ', 'ゃ', 'ゅ', 'ょ', 'ゎ', 'っ', 'ゕ', 'ゖ':
		return false
	}
	return true
}

// Generate picks keys uniformly.
func (g *Generator) Generate(pool []string, lines, length int) model.Content {
	return g.GenerateWeighted(pool, lines, length, nil, 0)
}

// GenerateWeighted picks keys with a bias toward weak characters. A key's
// weight is 1 plus factor for every weak character it contains.
func (g *Generator) GenerateWeighted(pool []string, lines, length int, weakSet map[string]struct{}, factor float64) model.Content {
	content := model.Content{Title: model.Line{Segments: []model.Segment{model.Plain{Text: DrillTitle}}}}
	if len(pool) == 0 || lines <= 0 || length <= 0 {
		return content
	}
	weights := make([]float64, len(pool))
	total := 0.0
	for i, key := range pool {
		weakCount := 0
		for _, r := range key {
			if _, ok := weakSet[string(r)]; ok {
				weakCount++
			}
		}
		w := 1.0 + float64(weakCount)*factor
		weights[i] = w
		total += w
	}

	for i := 0; i < lines; i++ {
		var b strings.Builder
		for j := 0; j < length; j++ {
			if j > 0 && j%GroupSize == 0 {
				b.WriteByte(' ')
			}
			b.WriteString(pool[g.pick(weights, total)])
		}
		content.Lines = append(content.Lines, model.Line{Segments: []model.Segment{model.Plain{Text: b.String()}}})
	}
	return content
}

func (g *Generator) pick(weights []float64, total float64) int {
	r := g.rnd.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return len(weights) - 1
}
