package chi

import (
	"context"

	dominsight "github.com/knowsphere/knowsphere/internal/domain/insight"
	healthuc "github.com/knowsphere/knowsphere/internal/usecase/health"
	insightuc "github.com/knowsphere/knowsphere/internal/usecase/insight"
	"github.com/knowsphere/knowsphere/internal/usecase/tagging"
)

// InsightService is the insight use case consumed by the HTTP layer.
type InsightService interface {
	Publish(ctx context.Context, in insightuc.PublishInput) (insightuc.Published, error)
	Get(ctx context.Context, id string) (dominsight.Insight, error)
	Vote(ctx context.Context, id, userID string, value int) (dominsight.Insight, error)
	SetHidden(ctx context.Context, id string, hidden bool) error
	Delete(ctx context.Context, id string) error
	Related(ctx context.Context, id string, limit int) ([]insightuc.RankedInsight, error)
	Trending(ctx context.Context, windowDays, limit int) ([]insightuc.RankedInsight, error)
}

// TagService suggests tags for free text.
type TagService interface {
	Suggest(ctx context.Context, text string, limit int) tagging.Suggestion
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
