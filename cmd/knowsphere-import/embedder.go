package main

import (
	"context"
	"fmt"

	"github.com/knowsphere/knowsphere/internal/domain"
	knowsphere "github.com/knowsphere/knowsphere/pkg/sdk"
)

// sdkEmbedder exposes an internal embedder through the SDK's Embedder contract.
type sdkEmbedder struct {
	inner domain.Embedder
}

func (e *sdkEmbedder) Embed(ctx context.Context, text string) (knowsphere.EmbeddingResult, error) {
	r, err := e.inner.Embed(ctx, text)
	if err != nil {
		return knowsphere.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return knowsphere.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// HealthCheck delegates when the inner embedder supports it.
func (e *sdkEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent adapter
	}
	return nil
}
