package tagging

import (
	"context"

	"github.com/knowsphere/knowsphere/internal/breaker"
	"github.com/knowsphere/knowsphere/internal/domain"
)

// BreakerTagger stops calling the AI tagger after repeated failures, so
// suggestions fall back to keywords without waiting out the timeout.
type BreakerTagger struct {
	inner Tagger
	br    *breaker.Breaker[[]string]
}

// NewBreakerTagger wraps inner with br.
func NewBreakerTagger(inner Tagger, br *breaker.Breaker[[]string]) *BreakerTagger {
	return &BreakerTagger{inner: inner, br: br}
}

// SuggestTags calls the inner tagger through the breaker.
func (b *BreakerTagger) SuggestTags(ctx context.Context, text string, maxTags int) ([]string, error) {
	return b.br.Execute(func() ([]string, error) {
		return b.inner.SuggestTags(ctx, text, maxTags)
	})
}

// HealthCheck fails while the circuit is open, otherwise delegates.
func (b *BreakerTagger) HealthCheck(ctx context.Context) error {
	if b.br.Open() {
		return b.br.OpenError()
	}
	if hc, ok := b.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
