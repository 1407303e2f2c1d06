package tagging

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/knowsphere/knowsphere/internal/domain"
	"github.com/knowsphere/knowsphere/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

type mockTagger struct {
	tags  []string
	err   error
	block bool
	calls int
	max   int
}

func (m *mockTagger) SuggestTags(ctx context.Context, _ string, maxTags int) ([]string, error) {
	m.calls++
	m.max = maxTags
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.tags, m.err
}

const text = "Redis caching strategies. Redis caching keeps hot data close to the application."

func TestSuggest_AI(t *testing.T) {
	tagger := &mockTagger{tags: []string{"redis", "caching"}}
	svc := New(tagger, time.Second, 5, zap.NewNop())

	before := testutil.ToFloat64(metrics.TagSuggestionsTotal.WithLabelValues("ai"))
	got := svc.Suggest(context.Background(), text, 3)

	assert.Equal(t, domain.TagSourceAI, got.Source)
	assert.Equal(t, []string{"redis", "caching"}, got.Tags)
	assert.Equal(t, 3, tagger.max)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.TagSuggestionsTotal.WithLabelValues("ai")))
}

func TestSuggest_DefaultMax(t *testing.T) {
	tagger := &mockTagger{tags: []string{"a", "b", "c", "d", "e", "f", "g"}}
	svc := New(tagger, time.Second, 4, zap.NewNop())

	got := svc.Suggest(context.Background(), text, 0)
	assert.Equal(t, 4, tagger.max)
	assert.Len(t, got.Tags, 4, "over-long provider output is truncated")
}

func TestSuggest_FallbackOnError(t *testing.T) {
	tagger := &mockTagger{err: errors.New("boom")}
	svc := New(tagger, time.Second, 5, zap.NewNop())

	before := testutil.ToFloat64(metrics.TaggingErrorsTotal.WithLabelValues("error"))
	got := svc.Suggest(context.Background(), text, 2)

	assert.Equal(t, domain.TagSourceKeywords, got.Source)
	assert.Equal(t, []string{"redis caching", "redis"}, got.Tags)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.TaggingErrorsTotal.WithLabelValues("error")))
}

func TestSuggest_FallbackOnTimeout(t *testing.T) {
	tagger := &mockTagger{block: true}
	svc := New(tagger, 10*time.Millisecond, 5, zap.NewNop())

	before := testutil.ToFloat64(metrics.TaggingErrorsTotal.WithLabelValues("timeout"))
	got := svc.Suggest(context.Background(), text, 2)

	assert.Equal(t, domain.TagSourceKeywords, got.Source)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.TaggingErrorsTotal.WithLabelValues("timeout")))
}

func TestSuggest_FallbackOnEmpty(t *testing.T) {
	svc := New(&mockTagger{tags: []string{}}, time.Second, 5, zap.NewNop())

	got := svc.Suggest(context.Background(), text, 2)
	assert.Equal(t, domain.TagSourceKeywords, got.Source)
	assert.NotEmpty(t, got.Tags)
}

func TestSuggest_Disabled(t *testing.T) {
	svc := New(nil, time.Second, 5, zap.NewNop())

	got := svc.Suggest(context.Background(), text, 2)
	assert.Equal(t, domain.TagSourceKeywords, got.Source)
	assert.Equal(t, []string{"redis caching", "redis"}, got.Tags)
}

func TestSuggest_EmptyText(t *testing.T) {
	svc := New(nil, time.Second, 5, zap.NewNop())

	got := svc.Suggest(context.Background(), "", 3)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
}
