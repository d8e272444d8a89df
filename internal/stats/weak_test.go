package stats

import (
	"testing"

	"github.com/verte-zerg/furitype/internal/model"
)

func TestSelectWeakKeys(t *testing.T) {
	aggs := []model.KeyAggregate{
		{Key: "し", Correct: 9, Incorrect: 1},
		{Key: "つ", Correct: 1, Incorrect: 3},
		{Key: "ん", Correct: 2, Incorrect: 2},
		{Key: "か", Correct: 10, Incorrect: 0},
	}
	weak := SelectWeakKeys(aggs, 2)
	if len(weak) != 2 {
		t.Fatalf("expected 2 weak keys, got %v", weak)
	}
	for _, key := range []string{"つ", "ん"} {
		if _, ok := weak[key]; !ok {
			t.Fatalf("expected %q to be weak, got %v", key, weak)
		}
	}

	all := SelectWeakKeys(aggs, 0)
	if len(all) != 3 {
		t.Fatalf("expected keys with misses only, got %v", all)
	}
	if _, ok := all["か"]; ok {
		t.Fatalf("key without misses should not be weak")
	}
}
