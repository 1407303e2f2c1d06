package knowsphere

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/knowsphere/knowsphere/internal/domain"
	healthuc "github.com/knowsphere/knowsphere/internal/usecase/health"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestCreateStore_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown", addrs: []string{"localhost:1234"}}
	_, err := createStore(cfg)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestEmbedderAdapter(t *testing.T) {
	called := false
	mock := &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			called = true
			if text != "hello" {
				t.Errorf("text = %q, want hello", text)
			}
			return EmbeddingResult{Embedding: []float32{1, 2, 3}, PromptTokens: 5, TotalTokens: 10}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner embedder was not called")
	}
	if len(result.Embedding) != 3 {
		t.Errorf("embedding len = %d, want 3", len(result.Embedding))
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens = %d, want 10", result.TotalTokens)
	}
}

func TestEmbedderAdapter_ErrorWrapsProviderSentinel(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}

	adapter := &embedderAdapter{inner: mock}
	_, err := adapter.Embed(context.Background(), "hello")
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Fatalf("err = %v, want ErrEmbeddingProviderError", err)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}
	WithValkey("localhost:6379", "secret").apply(cfg)
	if cfg.driver != "valkey" {
		t.Errorf("driver = %q, want valkey", cfg.driver)
	}
	if cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addr = %q, want localhost:6379", cfg.addrs[0])
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q, want secret", cfg.password)
	}

	cfg2 := &clientConfig{}
	WithRedis("localhost:6380", "pass").apply(cfg2)
	WithDB(3).apply(cfg2)
	WithKeyPrefix("test:").apply(cfg2)
	if cfg2.driver != "redis" || cfg2.db != 3 || cfg2.keyPrefix != "test:" {
		t.Errorf("cfg = %+v", cfg2)
	}

	cfg3 := &clientConfig{}
	WithTagger(&mockTagger{}, 2*time.Second).apply(cfg3)
	WithMaxTags(8).apply(cfg3)
	WithRanking(RankingOptions{RelatedLimit: 7, DecayPerHour: 0.1}).apply(cfg3)
	if cfg3.tagger == nil || cfg3.tagTimeout != 2*time.Second || cfg3.maxTags != 8 {
		t.Errorf("tagging options not applied: %+v", cfg3)
	}
	if cfg3.ranking.RelatedLimit != 7 || cfg3.ranking.DecayPerHour != 0.1 {
		t.Errorf("ranking = %+v", cfg3.ranking)
	}

	cfg4 := &clientConfig{}
	logger := slog.Default()
	WithLogger(logger).apply(cfg4)
	if cfg4.logger != logger {
		t.Error("expected logger to be set")
	}

	cfg5 := &clientConfig{}
	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg5)
	if cfg5.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestWithEmbedder(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, nil
		},
	}
	cfg := &clientConfig{}
	WithEmbedder(mock, time.Second).apply(cfg)
	if cfg.embedder == nil {
		t.Error("expected non-nil embedder")
	}
	if cfg.embedTimeout != time.Second {
		t.Errorf("embedTimeout = %v, want 1s", cfg.embedTimeout)
	}
}

func TestWireClient_WiresServices(t *testing.T) {
	emb := &checkingEmbedder{healthErr: errors.New("down")}
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix, embedder: emb, tagger: &mockTagger{}}

	c := wireClient(nil, cfg, nil)
	if c.insights == nil || c.tags == nil || c.healthSvc == nil {
		t.Fatal("expected services to be wired")
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	c := &Client{store: nil}
	c.Close()
}

func TestHealth(t *testing.T) {
	c := &Client{healthSvc: &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			"database":  healthuc.CheckOK,
			"embedding": healthuc.CheckError,
		},
	}}}

	h := c.Health(context.Background())
	if h.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", h.Status)
	}
	if h.Checks["embedding"] != "error" {
		t.Errorf("embedding check = %q, want error", h.Checks["embedding"])
	}
	if !h.Healthy() {
		t.Error("degraded status should still count as healthy")
	}
	if (HealthStatus{Status: "error"}).Healthy() {
		t.Error("error status should be unhealthy")
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
	obs.ranked("test", 3)
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("insight.get", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("insight.get", time.Now(), domain.ErrNotFound)
	obs.ranked("insight.related", 4)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := map[string]int{}
	for _, f := range families {
		found[f.GetName()] = len(f.GetMetric())
	}
	if found["knowsphere_sdk_operations_total"] != 2 {
		t.Errorf("operations samples = %d, want 2 (ok + error)", found["knowsphere_sdk_operations_total"])
	}
	if found["knowsphere_sdk_ranked_results"] != 1 {
		t.Errorf("ranked_results samples = %d, want 1", found["knowsphere_sdk_ranked_results"])
	}
}

func TestObserver_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("first observer: %v", err)
	}
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("second observer should reuse collectors: %v", err)
	}
}

func TestObserver_WithLogger(t *testing.T) {
	obs, err := newObserver(slog.Default(), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("test.op", time.Now(), nil, "insight_id", "x")
	obs.observe("test.op", time.Now(), errors.New("test error"))
}
