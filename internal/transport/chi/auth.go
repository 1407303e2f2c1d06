package chi

import (
	"net/http"
	"strings"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

const bearerPrefix = "Bearer "

func keySet(keys ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range keys {
		for _, k := range list {
			if k != "" {
				set[k] = struct{}{}
			}
		}
	}
	return set
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens against
// apiKeys and adminKeys. If both are empty, authentication is disabled (pass-through).
func BearerAuthMiddleware(apiKeys, adminKeys []string) func(http.Handler) http.Handler {
	validKeys := keySet(apiKeys, adminKeys)

	return func(next http.Handler) http.Handler {
		// Auth disabled: pass everything through
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, msg := bearerToken(r)
			if msg != "" {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, msg)
				return
			}
			if _, ok := validKeys[token]; !ok {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AdminKeyMiddleware guards moderation routes. Runs after BearerAuthMiddleware,
// so a token here is already known to be valid; it must also be an admin key.
// With no admin keys configured the guard is a pass-through (auth disabled).
func AdminKeyMiddleware(adminKeys []string) func(http.Handler) http.Handler {
	admins := keySet(adminKeys)

	return func(next http.Handler) http.Handler {
		if len(admins) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := bearerToken(r)
			if msg != "" {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, msg)
				return
			}
			if _, ok := admins[token]; !ok {
				writeError(w, http.StatusForbidden, ErrorCodeForbidden, "admin key required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token; a non-empty msg describes why it could not.
func bearerToken(r *http.Request) (token, msg string) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", "authorization header must use Bearer scheme"
	}
	return auth[len(bearerPrefix):], ""
}
