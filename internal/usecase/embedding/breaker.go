package embedding

import (
	"context"

	"github.com/knowsphere/knowsphere/internal/breaker"
	"github.com/knowsphere/knowsphere/internal/domain"
)

// BreakerEmbedder stops calling the provider after repeated failures.
// Rejections wrap domain.ErrEmbeddingProviderError.
type BreakerEmbedder struct {
	inner domain.Embedder
	br    *breaker.Breaker[domain.EmbeddingResult]
}

// NewBreakerEmbedder wraps inner with br.
func NewBreakerEmbedder(inner domain.Embedder, br *breaker.Breaker[domain.EmbeddingResult]) *BreakerEmbedder {
	return &BreakerEmbedder{inner: inner, br: br}
}

// Embed calls the inner embedder through the breaker.
func (b *BreakerEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return b.br.Execute(func() (domain.EmbeddingResult, error) {
		return b.inner.Embed(ctx, text)
	})
}

// HealthCheck fails while the circuit is open, otherwise delegates.
func (b *BreakerEmbedder) HealthCheck(ctx context.Context) error {
	if b.br.Open() {
		return b.br.OpenError()
	}
	if hc, ok := b.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
