package stats

import (
	"sort"

	"github.com/verte-zerg/furitype/internal/model"
)

// TopKeysByFrequency returns the n most practised keys.
func TopKeysByFrequency(aggs []model.KeyAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := append([]model.KeyAggregate(nil), aggs...)
	sort.Slice(items, func(i, j int) bool {
		ti := items[i].Correct + items[i].Incorrect
		tj := items[j].Correct + items[j].Incorrect
		if ti == tj {
			return items[i].Key < items[j].Key
		}
		return ti > tj
	})
	n = min(n, len(items))
	out := make([]string, 0, n)
	for _, item := range items[:n] {
		out = append(out, item.Key)
	}
	return out
}
