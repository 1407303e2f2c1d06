package knowsphere

import (
	"context"
	"time"

	dominsight "github.com/knowsphere/knowsphere/internal/domain/insight"
	healthuc "github.com/knowsphere/knowsphere/internal/usecase/health"
	insightuc "github.com/knowsphere/knowsphere/internal/usecase/insight"
	"github.com/knowsphere/knowsphere/internal/usecase/tagging"
)

// --- insightUseCase mock ---

type mockInsightUC struct {
	publishFn   func(ctx context.Context, in insightuc.PublishInput) (insightuc.Published, error)
	getFn       func(ctx context.Context, id string) (dominsight.Insight, error)
	voteFn      func(ctx context.Context, id, userID string, value int) (dominsight.Insight, error)
	setHiddenFn func(ctx context.Context, id string, hidden bool) error
	deleteFn    func(ctx context.Context, id string) error
	relatedFn   func(ctx context.Context, id string, limit int) ([]insightuc.RankedInsight, error)
	trendingFn  func(ctx context.Context, windowDays, limit int) ([]insightuc.RankedInsight, error)
}

func (m *mockInsightUC) Publish(ctx context.Context, in insightuc.PublishInput) (insightuc.Published, error) {
	return m.publishFn(ctx, in)
}

func (m *mockInsightUC) Get(ctx context.Context, id string) (dominsight.Insight, error) {
	return m.getFn(ctx, id)
}

func (m *mockInsightUC) Vote(ctx context.Context, id, userID string, value int) (dominsight.Insight, error) {
	return m.voteFn(ctx, id, userID, value)
}

func (m *mockInsightUC) SetHidden(ctx context.Context, id string, hidden bool) error {
	return m.setHiddenFn(ctx, id, hidden)
}

func (m *mockInsightUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockInsightUC) Related(ctx context.Context, id string, limit int) ([]insightuc.RankedInsight, error) {
	return m.relatedFn(ctx, id, limit)
}

func (m *mockInsightUC) Trending(ctx context.Context, windowDays, limit int) ([]insightuc.RankedInsight, error) {
	return m.trendingFn(ctx, windowDays, limit)
}

// --- tagUseCase mock ---

type mockTagUC struct {
	suggestFn func(ctx context.Context, text string, limit int) tagging.Suggestion
}

func (m *mockTagUC) Suggest(ctx context.Context, text string, limit int) tagging.Suggestion {
	return m.suggestFn(ctx, text, limit)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- public provider mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type checkingEmbedder struct {
	mockEmbedder
	healthErr error
}

func (m *checkingEmbedder) HealthCheck(_ context.Context) error { return m.healthErr }

type mockTagger struct {
	tags []string
	err  error
}

func (m *mockTagger) SuggestTags(_ context.Context, _ string, _ int) ([]string, error) {
	return m.tags, m.err
}

// --- helpers ---

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleInsight(id string, up int) dominsight.Insight {
	return dominsight.Reconstruct(
		id, "author-1", "Title "+id, "Body of "+id, []string{"redis", "caching"},
		dominsight.Public, false, t0, []float32{1, 0}, up, 0,
	)
}
