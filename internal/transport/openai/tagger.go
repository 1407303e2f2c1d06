package openai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/knowsphere/knowsphere/internal/domain"
)

const tagPrompt = "You label posts on a knowledge-sharing site. " +
	"Reply with at most %d short topical tags for the user's post, lowercase, " +
	"comma-separated, no numbering and no explanation."

var listMarker = regexp.MustCompile(`^(?:[-*#\x{2022}\s]+|\d+[.)]\s*)`)

// maxTagLen matches the insight tag limit; longer model output is discarded.
const maxTagLen = 40

// Tagger suggests tags through an OpenAI-compatible chat completion endpoint.
type Tagger struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewTagger creates a chat-completion tag suggester.
func NewTagger(cfg *Config) *Tagger {
	return &Tagger{
		client: newClient(cfg.APIKey, cfg.BaseURL),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// SuggestTags implements domain.Tagger.
func (t *Tagger) SuggestTags(ctx context.Context, text string, maxTags int) ([]string, error) {
	if maxTags <= 0 {
		return []string{}, nil
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(tagPrompt, maxTags)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.2,
		MaxTokens:   64,
	})
	if err != nil {
		return nil, parseAPIError(err, domain.ErrTaggingProviderError)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion: %w", domain.ErrTaggingProviderError)
	}

	tags := ParseTags(resp.Choices[0].Message.Content, maxTags)
	t.logger.Debug("AI tags suggested",
		zap.String("model", t.model),
		zap.Strings("tags", tags),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return tags, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (t *Tagger) HealthCheck(ctx context.Context) error {
	if _, err := t.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// ParseTags turns free-form model output into at most maxTags normalized tags.
// Separators are commas and newlines; list markers, hashes and quotes are stripped.
func ParseTags(content string, maxTags int) []string {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	out := make([]string, 0, maxTags)
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(out) >= maxTags {
			break
		}
		tag := strings.ToLower(strings.TrimSpace(f))
		tag = listMarker.ReplaceAllString(tag, "")
		tag = strings.Trim(tag, "\"'`")
		tag = strings.Join(strings.Fields(tag), " ")
		if tag == "" || len([]rune(tag)) > maxTagLen {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
