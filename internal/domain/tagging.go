package domain

import "context"

// Tagger suggests topical tags for a piece of text using an external model.
type Tagger interface {
	SuggestTags(ctx context.Context, text string, maxTags int) ([]string, error)
}

// TagSource tells where a set of suggested tags came from.
type TagSource string

const (
	// TagSourceAI marks tags produced by the external model.
	TagSourceAI TagSource = "ai"
	// TagSourceKeywords marks tags produced by local n-gram extraction.
	TagSourceKeywords TagSource = "keywords"
	// TagSourceUser marks tags supplied by the author.
	TagSourceUser TagSource = "user"
)
