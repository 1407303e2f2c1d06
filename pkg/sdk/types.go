package knowsphere

import "time"

// Visibility controls who may see an insight.
type Visibility string

// Visibility constants.
const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// TagSource tells where an insight's tags came from.
type TagSource string

// TagSource constants.
const (
	TagSourceUser     TagSource = "user"
	TagSourceAI       TagSource = "ai"
	TagSourceKeywords TagSource = "keywords"
)

// Insight is a published insight.
type Insight struct {
	ID           string
	AuthorID     string
	Title        string
	Body         string
	Tags         []string
	Visibility   Visibility
	Hidden       bool
	CreatedAt    time.Time
	Upvotes      int
	Downvotes    int
	HasEmbedding bool
}

// PublishRequest is the author-supplied part of a new insight.
// Empty Tags triggers tag suggestion.
type PublishRequest struct {
	AuthorID   string
	Title      string
	Body       string
	Tags       []string
	Visibility Visibility
}

// PublishResult is the stored insight plus the origin of its tags.
type PublishResult struct {
	Insight   Insight
	TagSource TagSource
}

// RankedInsight is an insight with its related or trending score.
type RankedInsight struct {
	Insight Insight
	Score   float64
}

// TagSuggestion is a set of suggested tags.
type TagSuggestion struct {
	Tags   []string
	Source TagSource
}

// Keyword is an extracted n-gram and its frequency score.
type Keyword struct {
	Text  string
	Score int
}

// RankingOptions tunes the ranking engine. Zero fields keep the defaults.
type RankingOptions struct {
	RelatedLimit       int
	TrendingLimit      int
	DecayPerHour       float64
	TrendingWindowDays int
	CandidatePoolSize  int
}
