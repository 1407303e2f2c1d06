package relevance

import (
	"sort"
	"strings"
)

// Keyword is an n-gram with its frequency score.
type Keyword struct {
	Text  string
	Score int
}

// ExtractKeywords returns up to maxK distinct unigrams/bigrams of text, ranked by
// frequency score. Used as the local fallback when AI tag suggestion fails.
func ExtractKeywords(text string, maxK int) []string {
	scored := ScoreKeywords(text)
	n := clampLimit(maxK, len(scored))

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = scored[i].Text
	}
	return out
}

// ScoreKeywords returns every distinct n-gram of text ordered by descending score.
// A unigram occurrence adds 1, a bigram occurrence adds 2. Ties keep first-seen order.
func ScoreKeywords(text string) []Keyword {
	tokens := Tokenize(text)

	// index preserves insertion order for tie-breaks
	index := make(map[string]int)
	var grams []Keyword

	add := func(words []string) {
		if allStopWords(words) {
			return
		}
		key := strings.Join(words, " ")
		weight := len(words)
		if i, ok := index[key]; ok {
			grams[i].Score += weight
			return
		}
		index[key] = len(grams)
		grams = append(grams, Keyword{Text: key, Score: weight})
	}

	for i := range tokens {
		add(tokens[i : i+1])
		if i+1 < len(tokens) {
			add(tokens[i : i+2])
		}
	}

	sort.SliceStable(grams, func(i, j int) bool {
		return grams[i].Score > grams[j].Score
	})

	if grams == nil {
		return []Keyword{}
	}
	return grams
}

func allStopWords(words []string) bool {
	for _, w := range words {
		if !IsStopWord(w) {
			return false
		}
	}
	return true
}
