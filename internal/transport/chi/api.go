package chi

import (
	"time"

	dominsight "github.com/knowsphere/knowsphere/internal/domain/insight"
	"github.com/knowsphere/knowsphere/internal/domain/relevance"
	insightuc "github.com/knowsphere/knowsphere/internal/usecase/insight"
)

// ErrorCode is the machine-readable error code in ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeInvalidVote            ErrorCode = "invalid_vote"
	ErrorCodeNotFound               ErrorCode = "not_found"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeForbidden              ErrorCode = "forbidden"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeTaggingProviderError   ErrorCode = "tagging_provider_error"
	ErrorCodeInternalError          ErrorCode = "internal_error"
	ErrorCodeRateLimited            ErrorCode = "rate_limited"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// PublishRequest is the body of POST /insights.
type PublishRequest struct {
	AuthorID   string   `json:"author_id"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Tags       []string `json:"tags,omitempty"`
	Visibility string   `json:"visibility,omitempty"`
}

// VoteRequest is the body of POST /insights/{id}/votes.
type VoteRequest struct {
	UserID string `json:"user_id"`
	Value  *int   `json:"value"`
}

// TextRequest is the body of POST /tags/suggest and POST /keywords.
type TextRequest struct {
	Text string `json:"text"`
	Max  int    `json:"max,omitempty"`
}

// InsightResponse is the public view of an insight.
type InsightResponse struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Tags         []string  `json:"tags"`
	Visibility   string    `json:"visibility"`
	CreatedAt    time.Time `json:"created_at"`
	Upvotes      int       `json:"upvotes"`
	Downvotes    int       `json:"downvotes"`
	HasEmbedding bool      `json:"has_embedding"`
	TagSource    string    `json:"tag_source,omitempty"`
}

// RankedInsightResponse is an insight with its ranking score.
type RankedInsightResponse struct {
	InsightResponse
	Score float64 `json:"score"`
}

// RankedListResponse is the body of the related and trending endpoints.
type RankedListResponse struct {
	Items []RankedInsightResponse `json:"items"`
	Total int                     `json:"total"`
}

// TagsResponse is the body of POST /tags/suggest.
type TagsResponse struct {
	Tags   []string `json:"tags"`
	Source string   `json:"source"`
}

// KeywordResponse is one scored n-gram.
type KeywordResponse struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// KeywordsResponse is the body of POST /keywords.
type KeywordsResponse struct {
	Keywords []KeywordResponse `json:"keywords"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func insightToResponse(in *dominsight.Insight) InsightResponse {
	tags := in.Tags()
	if tags == nil {
		tags = []string{}
	}
	return InsightResponse{
		ID:           in.ID(),
		AuthorID:     in.AuthorID(),
		Title:        in.Title(),
		Body:         in.Body(),
		Tags:         tags,
		Visibility:   string(in.Visibility()),
		CreatedAt:    in.CreatedAt(),
		Upvotes:      in.Upvotes(),
		Downvotes:    in.Downvotes(),
		HasEmbedding: len(in.Embedding()) > 0,
	}
}

func rankedToResponse(ranked []insightuc.RankedInsight) RankedListResponse {
	items := make([]RankedInsightResponse, len(ranked))
	for i := range ranked {
		items[i] = RankedInsightResponse{
			InsightResponse: insightToResponse(&ranked[i].Insight),
			Score:           ranked[i].Score,
		}
	}
	return RankedListResponse{Items: items, Total: len(items)}
}

func keywordsToResponse(kw []relevance.Keyword) KeywordsResponse {
	out := make([]KeywordResponse, len(kw))
	for i, k := range kw {
		out[i] = KeywordResponse{Text: k.Text, Score: k.Score}
	}
	return KeywordsResponse{Keywords: out}
}
