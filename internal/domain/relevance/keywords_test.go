package relevance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeywords_Empty(t *testing.T) {
	assert.Empty(t, ExtractKeywords("", DefaultMaxKeywords))
	assert.Empty(t, ExtractKeywords("the a an of", DefaultMaxKeywords))
	assert.NotNil(t, ExtractKeywords("", DefaultMaxKeywords))
}

func TestExtractKeywords_BigramsOutweighUnigrams(t *testing.T) {
	got := ExtractKeywords("vector search engine", 5)

	// bigrams score 2, unigrams 1; ties keep first-seen order
	require.Len(t, got, 5)
	assert.Equal(t, []string{"vector search", "search engine", "vector", "search", "engine"}, got)
}

func TestExtractKeywords_FrequencyWins(t *testing.T) {
	text := "golang tips. golang tricks. golang everywhere"
	got := ExtractKeywords(text, 1)
	require.Len(t, got, 1)
	// "golang" appears 3 times as a unigram (3) and no bigram repeats
	assert.Equal(t, "golang", got[0])
}

func TestExtractKeywords_RespectsMaxK(t *testing.T) {
	text := "distributed systems require careful thought about consensus protocols and failure recovery"
	for _, k := range []int{0, 1, 3, 5, 100} {
		got := ExtractKeywords(text, k)
		assert.LessOrEqual(t, len(got), k)
	}
	assert.Empty(t, ExtractKeywords(text, -1))
}

func TestExtractKeywords_Invariants(t *testing.T) {
	texts := []string{
		"Machine learning models learn patterns from data data data",
		"The quick brown fox jumps over the lazy dog",
		"Rust vs Go: memory safety, concurrency and tooling compared",
		"!!!",
	}
	for _, text := range texts {
		got := ExtractKeywords(text, DefaultMaxKeywords)
		seen := map[string]bool{}
		for _, kw := range got {
			assert.NotEmpty(t, kw)
			assert.False(t, seen[kw], "duplicate keyword %q", kw)
			seen[kw] = true
			for _, w := range strings.Split(kw, " ") {
				assert.Greater(t, len(w), 3, "short token %q in %q", w, kw)
			}
		}
	}
}

func TestScoreKeywords(t *testing.T) {
	got := ScoreKeywords("cloud native cloud native")
	require.NotEmpty(t, got)
	assert.Equal(t, Keyword{Text: "cloud native", Score: 4}, got[0])
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}
