package insight

import (
	"context"

	"github.com/knowsphere/knowsphere/internal/domain"
	dominsight "github.com/knowsphere/knowsphere/internal/domain/insight"
	"github.com/knowsphere/knowsphere/internal/usecase/tagging"
)

// Repository defines the storage contract for insights.
type Repository interface {
	Save(ctx context.Context, in *dominsight.Insight) error
	Get(ctx context.Context, id string) (dominsight.Insight, error)
	List(ctx context.Context, limit int) ([]dominsight.Insight, error)
	SetHidden(ctx context.Context, id string, hidden bool) error
	Vote(ctx context.Context, id, userID string, value int) error
	Delete(ctx context.Context, id string) error
}

// Embedder vectorizes insight text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// TagSuggester proposes tags for insights published without any.
type TagSuggester interface {
	Suggest(ctx context.Context, text string, limit int) tagging.Suggestion
}
