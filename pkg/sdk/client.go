package knowsphere

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/knowsphere/knowsphere/internal/db"
	dbRedis "github.com/knowsphere/knowsphere/internal/db/redis"
	"github.com/knowsphere/knowsphere/internal/domain"
	dominsight "github.com/knowsphere/knowsphere/internal/domain/insight"
	insightrepo "github.com/knowsphere/knowsphere/internal/repository/insight"
	healthuc "github.com/knowsphere/knowsphere/internal/usecase/health"
	insightuc "github.com/knowsphere/knowsphere/internal/usecase/insight"
	"github.com/knowsphere/knowsphere/internal/usecase/tagging"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for fakes in tests.
type insightUseCase interface {
	Publish(ctx context.Context, in insightuc.PublishInput) (insightuc.Published, error)
	Get(ctx context.Context, id string) (dominsight.Insight, error)
	Vote(ctx context.Context, id, userID string, value int) (dominsight.Insight, error)
	SetHidden(ctx context.Context, id string, hidden bool) error
	Delete(ctx context.Context, id string) error
	Related(ctx context.Context, id string, limit int) ([]insightuc.RankedInsight, error)
	Trending(ctx context.Context, windowDays, limit int) ([]insightuc.RankedInsight, error)
}

type tagUseCase interface {
	Suggest(ctx context.Context, text string, limit int) tagging.Suggestion
}

// Client is the knowsphere SDK entry point.
type Client struct {
	store     db.Store
	insights  insightUseCase
	tags      tagUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the database.
// The provided context bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("knowsphere: database address required (use WithValkey or WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("knowsphere: database not ready: %w", err)
	}

	return wireClient(store, cfg, obs), nil
}

// createStore opens a rueidis store. Valkey and Redis share the wire protocol,
// the driver name only tags errors.
func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
			DB:       cfg.db,
		})
		if err != nil {
			return nil, fmt.Errorf("knowsphere: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("knowsphere: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	logger := zap.NewNop()

	var tagger domain.Tagger
	if cfg.tagger != nil {
		tagger = cfg.tagger
	}
	tagSvc := tagging.New(tagger, cfg.tagTimeout, cfg.maxTags, logger)

	var emb insightuc.Embedder
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
	}

	window := cfg.ranking.TrendingWindowDays
	if window == 0 {
		window = insightuc.DefaultTrendingWindowDays
	}

	repo := insightrepo.New(store, cfg.keyPrefix)
	insightSvc := insightuc.New(repo, emb, tagSvc, insightuc.Config{
		RelatedLimit:       cfg.ranking.RelatedLimit,
		TrendingLimit:      cfg.ranking.TrendingLimit,
		DecayPerHour:       cfg.ranking.DecayPerHour,
		TrendingWindowDays: window,
		CandidatePoolSize:  cfg.ranking.CandidatePoolSize,
		EmbedTimeout:       cfg.embedTimeout,
	}, logger)

	healthSvc := healthuc.New(store).
		WithChecker("embedding", asChecker(cfg.embedder)).
		WithChecker("tagging", asChecker(cfg.tagger))

	return &Client{
		store:     store,
		insights:  insightSvc,
		tags:      tagSvc,
		healthSvc: healthSvc,
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Insights returns the insight publishing and ranking service.
func (c *Client) Insights() *InsightService {
	return &InsightService{svc: c.insights, obs: c.obs}
}

// Tags returns the tag suggestion service.
func (c *Client) Tags() *TagService {
	return &TagService{svc: c.tags, obs: c.obs}
}

// embedderAdapter wraps the public Embedder to satisfy the internal contract.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// asChecker returns v as a health checker, or a true nil interface when it has none.
func asChecker(v any) healthuc.Checker {
	if hc, ok := v.(healthuc.Checker); ok {
		return hc
	}
	return nil
}
