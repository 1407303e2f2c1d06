package knowsphere

import (
	"context"
	"time"

	"github.com/knowsphere/knowsphere/internal/domain/relevance"
)

// TagService suggests tags and extracts keywords.
type TagService struct {
	svc tagUseCase
	obs *observer
}

// Suggest returns up to limit tags for text (limit <= 0 uses the default).
// It never fails: when the AI tagger is missing or errors, keywords are used.
func (s *TagService) Suggest(ctx context.Context, text string, limit int) TagSuggestion {
	start := time.Now()
	sug := s.svc.Suggest(ctx, text, limit)
	s.obs.observe("tags.suggest", start, nil, "source", string(sug.Source))
	return TagSuggestion{Tags: sug.Tags, Source: TagSource(sug.Source)}
}

// Keywords scores every unigram and bigram of text and returns the top limit.
// limit <= 0 returns all of them.
func (s *TagService) Keywords(text string, limit int) []Keyword {
	scored := relevance.ScoreKeywords(text)
	if limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}
	out := make([]Keyword, len(scored))
	for i, k := range scored {
		out[i] = Keyword{Text: k.Text, Score: k.Score}
	}
	return out
}
