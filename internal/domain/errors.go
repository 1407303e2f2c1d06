package domain

import "errors"

var (
	// ErrNotFound signals a missing or invisible insight.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInsight signals an insight that failed validation.
	ErrInvalidInsight = errors.New("invalid insight")
	// ErrInvalidVote signals a vote value outside {-1, 0, 1} or a missing voter.
	ErrInvalidVote = errors.New("invalid vote")
	// ErrForbidden signals a caller without the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrTaggingProviderError signals a tag suggestion provider failure.
	ErrTaggingProviderError = errors.New("tagging provider error")
)
