package tagging

import "context"

// Tagger is the AI tag suggestion provider consumed by the service.
type Tagger interface {
	SuggestTags(ctx context.Context, text string, maxTags int) ([]string, error)
}
