package chi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	logpkg "github.com/knowsphere/knowsphere/internal/logger"
	"github.com/knowsphere/knowsphere/internal/metrics"
)

// RouterConfig holds the auth keys and request limits applied by NewRouter.
type RouterConfig struct {
	APIKeys            []string
	AdminKeys          []string
	CORSOrigins        []string
	RateLimitPerMinute int // 0 = unlimited
}

// NewRouter wires the middleware chain and every API route.
func NewRouter(s *Server, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.Use(BearerAuthMiddleware(cfg.APIKeys, cfg.AdminKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware(cfg.RateLimitPerMinute))

		r.Route("/insights", func(r chi.Router) {
			r.Post("/", s.PublishInsight)
			r.Get("/trending", s.TrendingInsights)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(insightScope(logger))
				r.Get("/", s.GetInsight)
				r.Get("/related", s.RelatedInsights)
				r.Post("/votes", s.VoteInsight)
			})
		})
		r.Post("/tags/suggest", s.SuggestTags)
		r.Post("/keywords", s.ExtractKeywords)

		r.Route("/admin/insights/{id}", func(r chi.Router) {
			r.Use(AdminKeyMiddleware(cfg.AdminKeys))
			r.Use(insightScope(logger))
			r.Post("/hide", s.HideInsight)
			r.Post("/unhide", s.UnhideInsight)
			r.Delete("/", s.DeleteInsight)
		})
	})

	return r
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(ErrorResponse{
						Code:    ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// insightScope tags the request logger with the insight id from the path.
func insightScope(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logpkg.With(r.Context(), logger, zap.String("insight_id", chi.URLParam(r, "id")))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
