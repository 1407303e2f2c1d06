package insight

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/knowsphere/knowsphere/internal/domain"
	dominsight "github.com/knowsphere/knowsphere/internal/domain/insight"
	"github.com/knowsphere/knowsphere/internal/domain/relevance"
	"github.com/knowsphere/knowsphere/internal/metrics"
)

// DefaultTrendingWindowDays is the trending window used by callers without configuration.
const DefaultTrendingWindowDays = 7

// Config holds ranking and publishing settings.
type Config struct {
	RelatedLimit       int
	TrendingLimit      int
	DecayPerHour       float64
	TrendingWindowDays int
	// CandidatePoolSize caps ranking candidates; 0 means all stored insights.
	// Related samples the first N insights in store scan order, which is
	// arbitrary. Trending reads every insight and keeps the N newest inside
	// its window.
	CandidatePoolSize int
	EmbedTimeout      time.Duration
}

// PublishInput is the author-supplied part of a new insight.
type PublishInput struct {
	AuthorID   string
	Title      string
	Body       string
	Tags       []string
	Visibility dominsight.Visibility
}

// Published is a stored insight plus where its tags came from.
type Published struct {
	Insight   dominsight.Insight
	TagSource domain.TagSource
}

// RankedInsight is an insight with its relevance or trending score.
type RankedInsight struct {
	Insight dominsight.Insight
	Score   float64
}

// Service publishes insights and ranks them.
type Service struct {
	repo     Repository
	embedder Embedder
	tags     TagSuggester
	cfg      Config
	now      func() time.Time
	newID    func() string
	logger   *zap.Logger
}

// New creates an insight service. embedder and tags may be nil.
func New(repo Repository, embedder Embedder, tags TagSuggester, cfg Config, logger *zap.Logger) *Service {
	if cfg.RelatedLimit <= 0 {
		cfg.RelatedLimit = relevance.DefaultRelatedLimit
	}
	if cfg.TrendingLimit <= 0 {
		cfg.TrendingLimit = relevance.DefaultTrendingLimit
	}
	if cfg.DecayPerHour <= 0 {
		cfg.DecayPerHour = relevance.DefaultDecayPerHour
	}
	return &Service{
		repo:     repo,
		embedder: embedder,
		tags:     tags,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   logger,
	}
}

// WithClock overrides the time source used for creation stamps and trending decay.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Publish validates, tags, embeds and stores a new insight.
// An embedding failure is logged and the insight is stored without a vector.
func (s *Service) Publish(ctx context.Context, in PublishInput) (Published, error) {
	source := domain.TagSourceUser
	created, err := dominsight.New(
		s.newID(), in.AuthorID, in.Title, in.Body, in.Tags, in.Visibility, s.now(),
	)
	if err != nil {
		return Published{}, fmt.Errorf("%w: %v", domain.ErrInvalidInsight, err)
	}

	if len(created.Tags()) == 0 && s.tags != nil {
		sug := s.tags.Suggest(ctx, created.Text(), relevance.DefaultMaxKeywords)
		tags := dominsight.SanitizeTags(sug.Tags)
		if len(tags) < len(sug.Tags) {
			s.logger.Debug("Dropped unusable suggested tags",
				zap.String("insight_id", created.ID()),
				zap.Strings("suggested", sug.Tags),
				zap.Strings("kept", tags),
			)
		}
		if len(tags) > 0 {
			tagged, err := created.WithTags(tags)
			if err != nil {
				return Published{}, fmt.Errorf("apply suggested tags: %w", err)
			}
			created, source = tagged, sug.Source
		}
	}

	if s.embedder != nil {
		created = s.embed(ctx, created)
	}

	if err := s.repo.Save(ctx, &created); err != nil {
		return Published{}, fmt.Errorf("save insight: %w", err)
	}
	return Published{Insight: created, TagSource: source}, nil
}

func (s *Service) embed(ctx context.Context, in dominsight.Insight) dominsight.Insight {
	if s.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.EmbedTimeout)
		defer cancel()
	}

	res, err := s.embedder.Embed(ctx, in.Text())
	if err != nil {
		s.logger.Warn("Embedding failed, storing insight without vector",
			zap.String("insight_id", in.ID()),
			zap.Error(err),
		)
		return in
	}
	return in.WithEmbedding(res.Embedding)
}

// Get returns a visible insight. Hidden and private insights read as not found.
func (s *Service) Get(ctx context.Context, id string) (dominsight.Insight, error) {
	in, err := s.repo.Get(ctx, id)
	if err != nil {
		return dominsight.Insight{}, fmt.Errorf("get insight: %w", err)
	}
	if !in.Visible() {
		return dominsight.Insight{}, domain.ErrNotFound
	}
	return in, nil
}

// Vote records a user's vote on a visible insight: 1 up, -1 down, 0 retract.
func (s *Service) Vote(ctx context.Context, id, userID string, value int) (dominsight.Insight, error) {
	if userID == "" {
		return dominsight.Insight{}, fmt.Errorf("%w: user ID is required", domain.ErrInvalidVote)
	}
	if value < -1 || value > 1 {
		return dominsight.Insight{}, fmt.Errorf("%w: value must be -1, 0 or 1", domain.ErrInvalidVote)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return dominsight.Insight{}, err
	}
	if err := s.repo.Vote(ctx, id, userID, value); err != nil {
		return dominsight.Insight{}, fmt.Errorf("vote: %w", err)
	}
	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return dominsight.Insight{}, fmt.Errorf("reload insight: %w", err)
	}
	return updated, nil
}

// SetHidden hides or restores an insight (moderation).
func (s *Service) SetHidden(ctx context.Context, id string, hidden bool) error {
	if err := s.repo.SetHidden(ctx, id, hidden); err != nil {
		return fmt.Errorf("set hidden: %w", err)
	}
	s.logger.Info("Insight moderation changed", zap.String("insight_id", id), zap.Bool("hidden", hidden))
	return nil
}

// Delete removes an insight and its votes (moderation).
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete insight: %w", err)
	}
	s.logger.Info("Insight deleted", zap.String("insight_id", id))
	return nil
}

// Related ranks visible insights by shared tags and embedding similarity to id.
// limit <= 0 uses the configured default.
func (s *Service) Related(ctx context.Context, id string, limit int) ([]RankedInsight, error) {
	start := time.Now()
	defer observeRanking("related", start)

	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.RelatedLimit
	}

	pool, err := s.repo.List(ctx, s.cfg.CandidatePoolSize)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	byID := make(map[string]dominsight.Insight, len(pool))
	items := make([]relevance.Item, 0, len(pool))
	for i := range pool {
		c := &pool[i]
		if c.ID() == target.ID() || !c.Visible() {
			continue
		}
		byID[c.ID()] = *c
		items = append(items, c.Item())
	}
	metrics.RankingPoolSize.WithLabelValues("related").Observe(float64(len(items)))

	return attach(relevance.RankRelated(target.Item(), items, limit), byID), nil
}

// Trending ranks visible insights created within the last windowDays by
// time-decayed net votes. windowDays <= 0 uses the configured window (0 there
// means unbounded); limit <= 0 uses the configured default.
func (s *Service) Trending(ctx context.Context, windowDays, limit int) ([]RankedInsight, error) {
	start := time.Now()
	defer observeRanking("trending", start)

	if windowDays <= 0 {
		windowDays = s.cfg.TrendingWindowDays
	}
	if limit <= 0 {
		limit = s.cfg.TrendingLimit
	}

	// Scan order is arbitrary, so the cap applies after the window filter.
	pool, err := s.repo.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	now := s.now().UTC()
	var cutoff time.Time
	if windowDays > 0 {
		cutoff = now.AddDate(0, 0, -windowDays)
	}

	eligible := pool[:0]
	for i := range pool {
		if pool[i].Visible() && !pool[i].CreatedAt().Before(cutoff) {
			eligible = append(eligible, pool[i])
		}
	}
	if n := s.cfg.CandidatePoolSize; n > 0 && len(eligible) > n {
		slices.SortFunc(eligible, func(a, b dominsight.Insight) int {
			return b.CreatedAt().Compare(a.CreatedAt())
		})
		eligible = eligible[:n]
	}

	byID := make(map[string]dominsight.Insight, len(eligible))
	items := make([]relevance.Item, 0, len(eligible))
	for i := range eligible {
		c := &eligible[i]
		byID[c.ID()] = *c
		items = append(items, c.Item())
	}
	metrics.RankingPoolSize.WithLabelValues("trending").Observe(float64(len(items)))

	return attach(relevance.RankTrending(items, now, limit, s.cfg.DecayPerHour), byID), nil
}

func attach(ranked []relevance.Ranked, byID map[string]dominsight.Insight) []RankedInsight {
	out := make([]RankedInsight, len(ranked))
	for i, r := range ranked {
		out[i] = RankedInsight{Insight: byID[r.ID], Score: r.Score}
	}
	return out
}

func observeRanking(kind string, start time.Time) {
	metrics.RankingDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
