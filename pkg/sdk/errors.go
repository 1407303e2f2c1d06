package knowsphere

import "github.com/knowsphere/knowsphere/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidInsight         = domain.ErrInvalidInsight
	ErrInvalidVote            = domain.ErrInvalidVote
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrTaggingProviderError   = domain.ErrTaggingProviderError
)
