package knowsphere

import (
	"context"
	"fmt"
	"time"

	dominsight "github.com/knowsphere/knowsphere/internal/domain/insight"
	insightuc "github.com/knowsphere/knowsphere/internal/usecase/insight"
)

// InsightService publishes, votes on, moderates and ranks insights.
type InsightService struct {
	svc insightUseCase
	obs *observer
}

// Publish validates and stores a new insight. Without tags, tags are suggested.
// An embedding failure does not fail the call; the insight is stored without a vector.
func (s *InsightService) Publish(ctx context.Context, req PublishRequest) (res PublishResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("insight.publish", start, err, "insight_id", res.Insight.ID) }()

	pub, err := s.svc.Publish(ctx, insightuc.PublishInput{
		AuthorID:   req.AuthorID,
		Title:      req.Title,
		Body:       req.Body,
		Tags:       req.Tags,
		Visibility: dominsight.Visibility(req.Visibility),
	})
	if err != nil {
		return PublishResult{}, fmt.Errorf("publish: %w", err)
	}
	return PublishResult{
		Insight:   fromInternalInsight(&pub.Insight),
		TagSource: TagSource(pub.TagSource),
	}, nil
}

// Get returns a visible insight. Hidden and private insights yield ErrNotFound.
func (s *InsightService) Get(ctx context.Context, id string) (_ Insight, err error) {
	start := time.Now()
	defer func() { s.obs.observe("insight.get", start, err, "insight_id", id) }()

	in, err := s.svc.Get(ctx, id)
	if err != nil {
		return Insight{}, fmt.Errorf("get insight: %w", err)
	}
	return fromInternalInsight(&in), nil
}

// Vote sets userID's vote on an insight: 1 up, -1 down, 0 retract.
// Returns the insight with updated counts.
func (s *InsightService) Vote(ctx context.Context, id, userID string, value int) (_ Insight, err error) {
	start := time.Now()
	defer func() { s.obs.observe("insight.vote", start, err, "insight_id", id) }()

	in, err := s.svc.Vote(ctx, id, userID, value)
	if err != nil {
		return Insight{}, fmt.Errorf("vote: %w", err)
	}
	return fromInternalInsight(&in), nil
}

// Hide removes an insight from reads and rankings without deleting it.
func (s *InsightService) Hide(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("insight.hide", start, err, "insight_id", id) }()

	if err = s.svc.SetHidden(ctx, id, true); err != nil {
		return fmt.Errorf("hide: %w", err)
	}
	return nil
}

// Unhide restores a hidden insight.
func (s *InsightService) Unhide(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("insight.unhide", start, err, "insight_id", id) }()

	if err = s.svc.SetHidden(ctx, id, false); err != nil {
		return fmt.Errorf("unhide: %w", err)
	}
	return nil
}

// Delete removes an insight and its votes.
func (s *InsightService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("insight.delete", start, err, "insight_id", id) }()

	if err = s.svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Related ranks visible insights by similarity to id. limit <= 0 uses the default.
func (s *InsightService) Related(ctx context.Context, id string, limit int) (_ []RankedInsight, err error) {
	start := time.Now()
	defer func() { s.obs.observe("insight.related", start, err, "insight_id", id) }()

	ranked, err := s.svc.Related(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("related: %w", err)
	}
	s.obs.ranked("insight.related", len(ranked))
	return fromInternalRanked(ranked), nil
}

// Trending ranks visible insights of the last windowDays by decayed net votes.
// windowDays <= 0 and limit <= 0 use the defaults.
func (s *InsightService) Trending(ctx context.Context, windowDays, limit int) (_ []RankedInsight, err error) {
	start := time.Now()
	defer func() { s.obs.observe("insight.trending", start, err) }()

	ranked, err := s.svc.Trending(ctx, windowDays, limit)
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}
	s.obs.ranked("insight.trending", len(ranked))
	return fromInternalRanked(ranked), nil
}

func fromInternalInsight(in *dominsight.Insight) Insight {
	return Insight{
		ID:           in.ID(),
		AuthorID:     in.AuthorID(),
		Title:        in.Title(),
		Body:         in.Body(),
		Tags:         in.Tags(),
		Visibility:   Visibility(in.Visibility()),
		Hidden:       in.Hidden(),
		CreatedAt:    in.CreatedAt(),
		Upvotes:      in.Upvotes(),
		Downvotes:    in.Downvotes(),
		HasEmbedding: len(in.Embedding()) > 0,
	}
}

func fromInternalRanked(ranked []insightuc.RankedInsight) []RankedInsight {
	out := make([]RankedInsight, len(ranked))
	for i := range ranked {
		out[i] = RankedInsight{
			Insight: fromInternalInsight(&ranked[i].Insight),
			Score:   ranked[i].Score,
		}
	}
	return out
}
