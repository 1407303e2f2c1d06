package relevance

import (
	"sort"
	"time"
)

// RankTrending scores candidates by vote differential minus a linear age penalty
// of decayPerHour per hour since creation, and returns at most limit items.
// The pool must already be restricted to the trending window.
func RankTrending(candidates []Item, now time.Time, limit int, decayPerHour float64) []Ranked {
	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked{Item: c, Score: TrendingScore(c, now, decayPerHour)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked[:clampLimit(limit, len(ranked))]
}

// TrendingScore computes (upvotes - downvotes) - ageHours*decayPerHour.
func TrendingScore(it Item, now time.Time, decayPerHour float64) float64 {
	ageHours := now.Sub(it.CreatedAt).Hours()
	return float64(it.Upvotes-it.Downvotes) - ageHours*decayPerHour
}
