package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

const corsMaxAgeSec = 600

// corsMiddleware allows browser clients from origins. No origins = no CORS headers.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return passThrough
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Location", "X-Request-ID"},
		MaxAge:         corsMaxAgeSec,
	})
}

// rateLimitMiddleware caps requests per minute per API key, or per client IP
// when the request carries no bearer token. perMinute <= 0 disables the limit.
func rateLimitMiddleware(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return passThrough
	}
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(keyByTokenOrIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusTooManyRequests, ErrorCodeRateLimited, "rate limit exceeded")
		}),
	)
}

func keyByTokenOrIP(r *http.Request) (string, error) {
	if token, msg := bearerToken(r); msg == "" {
		return "key:" + token, nil
	}
	return httprate.KeyByIP(r)
}

func passThrough(next http.Handler) http.Handler { return next }
