package generator

import (
	"strings"
	"testing"

	"github.com/verte-zerg/furitype/internal/layout"
	"github.com/verte-zerg/furitype/internal/model"
)

func TestPoolKeepsHiraganaSyllables(t *testing.T) {
	l := layout.New("test", []layout.Entry{
		{Key: "しゃ", Encodings: []string{"sha"}},
		{Key: "っか", Encodings: []string{"kka"}},
		{Key: "か", Encodings: []string{"ka"}},
		{Key: "カ", Encodings: []string{"ka"}},
		{Key: "ゃ", Encodings: []string{"xya"}},
		{Key: "a", Encodings: []string{"a"}},
	})
	pool := Pool(l)
	if strings.Join(pool, ",") != "しゃ,か" {
		t.Fatalf("unexpected pool: %v", pool)
	}
}

func TestGenerateShape(t *testing.T) {
	g := NewWithSeed(1)
	content := g.Generate([]string{"か", "き"}, 3, 10)
	if content.Title.String() != DrillTitle {
		t.Fatalf("unexpected title: %q", content.Title.String())
	}
	if len(content.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(content.Lines))
	}
	for _, line := range content.Lines {
		text := line.String()
		groups := strings.Split(text, " ")
		if len(groups) != 3 {
			t.Fatalf("expected 3 groups in %q", text)
		}
		if got := len([]rune(strings.ReplaceAll(text, " ", ""))); got != 10 {
			t.Fatalf("expected 10 kana in %q, got %d", text, got)
		}
	}
}

func TestGenerateEmptyPool(t *testing.T) {
	content := NewWithSeed(1).Generate(nil, 3, 10)
	if len(content.Lines) != 0 {
		t.Fatalf("expected no lines, got %d", len(content.Lines))
	}
}

func TestGenerateWeightedFavoursWeakKeys(t *testing.T) {
	g := NewWithSeed(42)
	weak := map[string]struct{}{"つ": {}}
	content := g.GenerateWeighted([]string{"か", "つ"}, 20, 20, weak, 50)

	weakCount, total := 0, 0
	for _, line := range content.Lines {
		for _, r := range line.String() {
			if r == ' ' {
				continue
			}
			total++
			if r == 'つ' {
				weakCount++
			}
		}
	}
	if float64(weakCount)/float64(total) < 0.8 {
		t.Fatalf("expected weak key to dominate, got %d/%d", weakCount, total)
	}
}

func TestDrillIsTypeableWithDefaultLayout(t *testing.T) {
	l, err := layout.Default()
	if err != nil {
		t.Fatalf("default layout: %v", err)
	}
	content := NewWithSeed(7).Generate(Pool(l), 5, 12)
	for _, line := range content.Lines {
		for _, seg := range line.Segments {
			if !l.Covers(model.Target(seg)) {
				t.Fatalf("drill line not typeable: %q", line.String())
			}
		}
	}
}
