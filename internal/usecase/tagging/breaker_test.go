package tagging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/knowsphere/knowsphere/internal/breaker"
	"github.com/knowsphere/knowsphere/internal/domain"
)

func newBreakerTagger(t *testing.T, inner Tagger) *BreakerTagger {
	t.Helper()
	br := breaker.New[[]string](breaker.Settings{
		Name:                t.Name(),
		ConsecutiveFailures: 2,
		OpenTimeout:         time.Minute,
	}, domain.ErrTaggingProviderError, zap.NewNop())
	return NewBreakerTagger(inner, br)
}

func TestBreakerTagger_OpenSkipsProvider(t *testing.T) {
	inner := &mockTagger{err: errors.New("503")}
	bt := newBreakerTagger(t, inner)

	for i := 0; i < 2; i++ {
		_, err := bt.SuggestTags(context.Background(), text, 3)
		require.Error(t, err)
	}
	require.Equal(t, 2, inner.calls)

	_, err := bt.SuggestTags(context.Background(), text, 3)
	require.ErrorIs(t, err, domain.ErrTaggingProviderError)
	assert.Equal(t, 2, inner.calls)
	assert.ErrorIs(t, bt.HealthCheck(context.Background()), domain.ErrTaggingProviderError)
}

func TestBreakerTagger_ServiceFallsBackWhileOpen(t *testing.T) {
	inner := &mockTagger{err: errors.New("503")}
	svc := New(newBreakerTagger(t, inner), time.Second, 5, zap.NewNop())

	for i := 0; i < 3; i++ {
		got := svc.Suggest(context.Background(), text, 3)
		assert.Equal(t, domain.TagSourceKeywords, got.Source)
		assert.NotEmpty(t, got.Tags)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestBreakerTagger_Passthrough(t *testing.T) {
	inner := &mockTagger{tags: []string{"redis"}}
	bt := newBreakerTagger(t, inner)

	tags, err := bt.SuggestTags(context.Background(), text, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"redis"}, tags)
	assert.Equal(t, 4, inner.max)
	assert.NoError(t, bt.HealthCheck(context.Background()))
}
