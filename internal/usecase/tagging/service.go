package tagging

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/knowsphere/knowsphere/internal/domain"
	"github.com/knowsphere/knowsphere/internal/domain/relevance"
	"github.com/knowsphere/knowsphere/internal/metrics"
)

// Suggestion is a set of tags and the source that produced them.
type Suggestion struct {
	Tags   []string
	Source domain.TagSource
}

// Service suggests tags with the AI tagger and falls back to local keyword extraction.
type Service struct {
	tagger  Tagger
	timeout time.Duration
	maxTags int
	logger  *zap.Logger
}

// New creates a tagging service. A nil tagger means AI tagging is disabled.
func New(tagger Tagger, timeout time.Duration, maxTags int, logger *zap.Logger) *Service {
	if maxTags <= 0 {
		maxTags = relevance.DefaultMaxKeywords
	}
	return &Service{tagger: tagger, timeout: timeout, maxTags: maxTags, logger: logger}
}

// Suggest returns up to limit tags for text. limit <= 0 uses the configured default.
// Never fails: any provider problem degrades to keyword extraction.
func (s *Service) Suggest(ctx context.Context, text string, limit int) Suggestion {
	if limit <= 0 {
		limit = s.maxTags
	}

	if s.tagger != nil {
		if tags, ok := s.suggestAI(ctx, text, limit); ok {
			metrics.TagSuggestionsTotal.WithLabelValues(string(domain.TagSourceAI)).Inc()
			return Suggestion{Tags: tags, Source: domain.TagSourceAI}
		}
	}

	metrics.TagSuggestionsTotal.WithLabelValues(string(domain.TagSourceKeywords)).Inc()
	return Suggestion{
		Tags:   relevance.ExtractKeywords(text, limit),
		Source: domain.TagSourceKeywords,
	}
}

func (s *Service) suggestAI(ctx context.Context, text string, limit int) ([]string, bool) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tags, err := s.tagger.SuggestTags(ctx, text, limit)
	switch {
	case err != nil:
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			reason = "timeout"
		}
		metrics.TaggingErrorsTotal.WithLabelValues(reason).Inc()
		s.logger.Warn("AI tag suggestion failed, falling back to keywords",
			zap.String("reason", reason),
			zap.Error(err),
		)
		return nil, false
	case len(tags) == 0:
		metrics.TaggingErrorsTotal.WithLabelValues("empty").Inc()
		s.logger.Debug("AI tagger returned no tags, falling back to keywords")
		return nil, false
	}

	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, true
}
