// Package relevance scores and ranks insights: keyword extraction for tag
// fallback, cosine similarity over embeddings, related-content and trending
// rankings. Everything here is a pure function over its arguments.
package relevance

import "time"

// Default limits used when callers have no configured value.
const (
	DefaultMaxKeywords   = 5
	DefaultRelatedLimit  = 20
	DefaultTrendingLimit = 50
	DefaultDecayPerHour  = 0.05
)

// Item is the scorable projection of an insight.
type Item struct {
	ID        string
	Tags      []string
	Embedding []float32 // empty or fixed length across one pool
	CreatedAt time.Time
	Upvotes   int
	Downvotes int
}

// Ranked is an Item with the score computed for a single ranking call.
type Ranked struct {
	Item
	Score float64
}

func clampLimit(limit, n int) int {
	if limit < 0 {
		return 0
	}
	if limit > n {
		return n
	}
	return limit
}
