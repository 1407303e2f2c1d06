package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/knowsphere/knowsphere/internal/domain"
	dominsight "github.com/knowsphere/knowsphere/internal/domain/insight"
	"github.com/knowsphere/knowsphere/internal/domain/relevance"
	logpkg "github.com/knowsphere/knowsphere/internal/logger"
	healthuc "github.com/knowsphere/knowsphere/internal/usecase/health"
	insightuc "github.com/knowsphere/knowsphere/internal/usecase/insight"
)

const (
	maxBodyBytes  = 1 << 20
	maxLimit      = 100
	maxWindowDays = 365
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers of the insight API.
type Server struct {
	insights      InsightService
	tags          TagService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(insights InsightService, tags TagService, health HealthService, logger *zap.Logger) *Server {
	return &Server{
		insights: insights,
		tags:     tags,
		health:   health,
		logger:   logger,
		errorHandlers: []errorHandler{
			sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound, false),
			sentinelHandler(domain.ErrInvalidInsight, http.StatusBadRequest, ErrorCodeValidationFailed, true),
			sentinelHandler(domain.ErrInvalidVote, http.StatusBadRequest, ErrorCodeInvalidVote, true),
			sentinelHandler(domain.ErrForbidden, http.StatusForbidden, ErrorCodeForbidden, false),
			sentinelHandler(domain.ErrEmbeddingProviderError,
				http.StatusBadGateway, ErrorCodeEmbeddingProviderError, false),
			sentinelHandler(domain.ErrTaggingProviderError,
				http.StatusBadGateway, ErrorCodeTaggingProviderError, false),
		},
	}
}

// PublishInsight handles POST /insights.
func (s *Server) PublishInsight(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pub, err := s.insights.Publish(r.Context(), insightuc.PublishInput{
		AuthorID:   req.AuthorID,
		Title:      req.Title,
		Body:       req.Body,
		Tags:       req.Tags,
		Visibility: dominsight.Visibility(req.Visibility),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := insightToResponse(&pub.Insight)
	resp.TagSource = string(pub.TagSource)
	w.Header().Set("Location", "/insights/"+pub.Insight.ID())
	writeJSON(w, http.StatusCreated, resp)
}

// GetInsight handles GET /insights/{id}.
func (s *Server) GetInsight(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	in, err := s.insights.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insightToResponse(&in))
}

// RelatedInsights handles GET /insights/{id}/related.
func (s *Server) RelatedInsights(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	limit, err := bindQueryInt(r, "limit", 1, maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	ranked, err := s.insights.Related(r.Context(), id, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rankedToResponse(ranked))
}

// TrendingInsights handles GET /insights/trending.
func (s *Server) TrendingInsights(w http.ResponseWriter, r *http.Request) {
	limit, err := bindQueryInt(r, "limit", 1, maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	windowDays, err := bindQueryInt(r, "window_days", 1, maxWindowDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	ranked, err := s.insights.Trending(r.Context(), windowDays, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rankedToResponse(ranked))
}

// VoteInsight handles POST /insights/{id}/votes.
func (s *Server) VoteInsight(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req VoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidVote, "value is required")
		return
	}

	in, err := s.insights.Vote(r.Context(), id, req.UserID, *req.Value)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insightToResponse(&in))
}

// SuggestTags handles POST /tags/suggest.
func (s *Server) SuggestTags(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTextRequest(w, r, dominsight.MaxTags)
	if !ok {
		return
	}

	sug := s.tags.Suggest(r.Context(), req.Text, req.Max)
	writeJSON(w, http.StatusOK, TagsResponse{Tags: sug.Tags, Source: string(sug.Source)})
}

// ExtractKeywords handles POST /keywords. Exposes the local fallback extractor with scores.
func (s *Server) ExtractKeywords(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTextRequest(w, r, maxLimit)
	if !ok {
		return
	}
	limit := req.Max
	if limit == 0 {
		limit = relevance.DefaultMaxKeywords
	}

	kw := relevance.ScoreKeywords(req.Text)
	if len(kw) > limit {
		kw = kw[:limit]
	}
	writeJSON(w, http.StatusOK, keywordsToResponse(kw))
}

// HideInsight handles POST /admin/insights/{id}/hide.
func (s *Server) HideInsight(w http.ResponseWriter, r *http.Request) {
	s.setHidden(w, r, true)
}

// UnhideInsight handles POST /admin/insights/{id}/unhide.
func (s *Server) UnhideInsight(w http.ResponseWriter, r *http.Request) {
	s.setHidden(w, r, false)
}

func (s *Server) setHidden(w http.ResponseWriter, r *http.Request, hidden bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.insights.SetHidden(r.Context(), id, hidden); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteInsight handles DELETE /admin/insights/{id}.
func (s *Server) DeleteInsight(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.insights.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health. Degraded still answers 200: reads work without providers.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil || id == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid insight id")
		return "", false
	}
	return id, true
}

// bindQueryInt reads an optional integer query parameter; 0 means absent.
func bindQueryInt(r *http.Request, name string, minV, maxV int) (int, error) {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	if v == nil {
		return 0, nil
	}
	if *v < minV || *v > maxV {
		return 0, fmt.Errorf("%s must be between %d and %d", name, minV, maxV)
	}
	return *v, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func decodeTextRequest(w http.ResponseWriter, r *http.Request, maxAllowed int) (TextRequest, bool) {
	var req TextRequest
	if !decodeBody(w, r, &req) {
		return TextRequest{}, false
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "text is required")
		return TextRequest{}, false
	}
	if req.Max < 0 || req.Max > maxAllowed {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			fmt.Sprintf("max must be between 0 and %d", maxAllowed))
		return TextRequest{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// detailed exposes the wrapped message; validation errors are built from caller input only.
func sentinelHandler(sentinel error, status int, code ErrorCode, detailed bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if detailed {
			msg = clientMessage(err, sentinel)
		}
		writeError(w, status, code, msg)
		return true
	}
}

// clientMessage trims use-case wrapping so the message starts at the sentinel.
func clientMessage(err, sentinel error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if msg := e.Error(); strings.HasPrefix(msg, sentinel.Error()) {
			return msg
		}
	}
	return sentinel.Error()
}

// requestLogger prefers the per-request logger placed by wideEventMiddleware.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logpkg.FromContext(r.Context(), s.logger)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
