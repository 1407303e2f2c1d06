package relevance

import "sort"

// RankRelated scores each candidate by shared tag count plus embedding similarity
// to target and returns at most limit candidates, best first.
// The pool must already exclude target and anything the caller may not show.
func RankRelated(target Item, candidates []Item, limit int) []Ranked {
	targetTags := make(map[string]struct{}, len(target.Tags))
	for _, t := range target.Tags {
		targetTags[t] = struct{}{}
	}

	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked{Item: c, Score: relatedScore(targetTags, target.Embedding, c)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked[:clampLimit(limit, len(ranked))]
}

func relatedScore(targetTags map[string]struct{}, targetEmb []float32, c Item) float64 {
	seen := make(map[string]struct{}, len(c.Tags))
	shared := 0
	for _, t := range c.Tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := targetTags[t]; ok {
			shared++
		}
	}

	score := float64(shared)
	if len(targetEmb) > 0 && len(c.Embedding) == len(targetEmb) {
		score += CosineSimilarity(c.Embedding, targetEmb)
	}
	return score
}
