package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware_EmptyKeys_PassThrough(t *testing.T) {
	handler := BearerAuthMiddleware(nil, nil)(okHandler())

	if rr := serve(handler, "GET", "/insights/trending", ""); rr.Code != http.StatusOK {
		t.Errorf("empty keys: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_EmptyStringKeys_PassThrough(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"", ""}, []string{""})(okHandler())

	if rr := serve(handler, "GET", "/insights/trending", ""); rr.Code != http.StatusOK {
		t.Errorf("empty string keys: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_MissingHeader_401(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"}, nil)(okHandler())

	rr := serve(handler, "GET", "/insights/trending", "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("missing header: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrorCodeUnauthorized {
		t.Errorf("error code: got %s, want %s", errResp.Code, ErrorCodeUnauthorized)
	}
}

func TestAuthMiddleware_BasicScheme_401(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"}, nil)(okHandler())

	if rr := serve(handler, "GET", "/insights/trending", "Basic dXNlcjpwYXNz"); rr.Code != http.StatusUnauthorized {
		t.Errorf("basic scheme: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken_401(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"}, nil)(okHandler())

	if rr := serve(handler, "GET", "/insights/trending", "Bearer wrong-key"); rr.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_APIAndAdminKeysAccepted(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"key1", "key2"}, []string{"root"})(okHandler())

	for _, key := range []string{"key1", "key2", "root"} {
		if rr := serve(handler, "GET", "/insights/trending", "Bearer "+key); rr.Code != http.StatusOK {
			t.Errorf("key %s: got %d, want %d", key, rr.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"}, nil)(okHandler())

	for _, path := range []string{"/health", "/metrics"} {
		if rr := serve(handler, "GET", path, ""); rr.Code != http.StatusOK {
			t.Errorf("exempt path %s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}

func TestAdminKeyMiddleware(t *testing.T) {
	handler := AdminKeyMiddleware([]string{"root"})(okHandler())

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"admin key", "Bearer root", http.StatusOK},
		{"api key", "Bearer reader", http.StatusForbidden},
		{"missing", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := serve(handler, "POST", "/admin/insights/x/hide", tt.token); rr.Code != tt.want {
				t.Errorf("got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestAdminKeyMiddleware_NoKeys_PassThrough(t *testing.T) {
	handler := AdminKeyMiddleware(nil)(okHandler())

	if rr := serve(handler, "POST", "/admin/insights/x/hide", ""); rr.Code != http.StatusOK {
		t.Errorf("no admin keys: got %d, want %d", rr.Code, http.StatusOK)
	}
}
