package knowsphere

import "context"

// Embedder converts text to vector embeddings.
// Optional: without it insights are stored without vectors and related
// ranking falls back to shared tags.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Tagger proposes topical tags for a piece of text using an external model.
type Tagger interface {
	SuggestTags(ctx context.Context, text string, maxTags int) ([]string, error)
}
