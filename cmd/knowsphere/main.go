package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/knowsphere/knowsphere/internal/breaker"
	"github.com/knowsphere/knowsphere/internal/config"
	"github.com/knowsphere/knowsphere/internal/db"
	dbRedis "github.com/knowsphere/knowsphere/internal/db/redis"
	"github.com/knowsphere/knowsphere/internal/domain"
	logpkg "github.com/knowsphere/knowsphere/internal/logger"
	"github.com/knowsphere/knowsphere/internal/metrics"
	"github.com/knowsphere/knowsphere/internal/repository/embcache"
	insightrepo "github.com/knowsphere/knowsphere/internal/repository/insight"
	chiTransport "github.com/knowsphere/knowsphere/internal/transport/chi"
	openaiTransport "github.com/knowsphere/knowsphere/internal/transport/openai"
	embeddinguc "github.com/knowsphere/knowsphere/internal/usecase/embedding"
	healthuc "github.com/knowsphere/knowsphere/internal/usecase/health"
	insightuc "github.com/knowsphere/knowsphere/internal/usecase/insight"
	"github.com/knowsphere/knowsphere/internal/usecase/tagging"
	"github.com/knowsphere/knowsphere/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "knowsphere")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting knowsphere API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// valkey and redis share the RESP client
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.Register()

	embedder := buildEmbedder(cfg, store, logger)
	tagger := buildTagger(cfg, logger)

	repo := insightrepo.New(store, cfg.Storage.KeyPrefix)
	tagSvc := tagging.New(tagger, cfg.Tagging.Timeout(), cfg.Tagging.MaxTags, logger)
	insightSvc := insightuc.New(repo, embedder, tagSvc, insightuc.Config{
		RelatedLimit:       cfg.Ranking.RelatedLimit,
		TrendingLimit:      cfg.Ranking.TrendingLimit,
		DecayPerHour:       cfg.Ranking.DecayPerHour,
		TrendingWindowDays: cfg.Ranking.TrendingWindowDays,
		CandidatePoolSize:  cfg.Ranking.CandidatePoolSize,
		EmbedTimeout:       cfg.Embedding.Timeout(),
	}, logger)

	healthSvc := healthuc.New(store).
		WithChecker("embedding", asChecker(embedder)).
		WithChecker("tagging", asChecker(tagger))

	server := chiTransport.NewServer(insightSvc, tagSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:            cfg.Auth.APIKeys,
		AdminKeys:          cfg.Auth.AdminKeys,
		CORSOrigins:        cfg.HTTP.CORSOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMin,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Breaker -> Cached -> Instrumented -> Instruction.
// Returns nil when no provider is configured.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) domain.Embedder {
	if !cfg.Embedding.Enabled() {
		logger.Warn("Embedding provider not configured, related ranking uses tags only")
		return nil
	}
	ec := cfg.Embedding

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Logger:     logger,
	})

	guarded := embeddinguc.NewBreakerEmbedder(base, breaker.New[domain.EmbeddingResult](
		breakerSettings(cfg, "embedding"), domain.ErrEmbeddingProviderError, logger,
	))

	var embedder domain.Embedder = embcache.New(guarded, store, embcache.Config{
		KeyPrefix: cfg.Storage.KeyPrefix,
		Model:     ec.Model,
		TTL:       ec.CacheTTL(),
	}, metrics.EmbeddingCacheTotal, logger)

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, ec.Dimensions, logger)

	// Instruction prefix (outermost: cache key includes instruction)
	if ec.DocumentInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, ec.DocumentInstruction)
	}

	logger.Info("Embedder created",
		zap.String("provider", ec.Provider),
		zap.String("model", ec.Model),
		zap.Int("dimensions", ec.Dimensions),
	)
	return embedder
}

// buildTagger returns the AI tagger, or nil when tagging is disabled.
func buildTagger(cfg config.Config, logger *zap.Logger) tagging.Tagger {
	if !cfg.Tagging.Enabled {
		logger.Info("AI tagging disabled, using keyword extraction")
		return nil
	}
	logger.Info("AI tagger created", zap.String("model", cfg.Tagging.Model))
	base := openaiTransport.NewTagger(&openaiTransport.Config{
		APIKey:  cfg.Tagging.APIKey,
		BaseURL: cfg.Tagging.BaseURL,
		Model:   cfg.Tagging.Model,
		Logger:  logger,
	})
	return tagging.NewBreakerTagger(base, breaker.New[[]string](
		breakerSettings(cfg, "tagging"), domain.ErrTaggingProviderError, logger,
	))
}

func breakerSettings(cfg config.Config, name string) breaker.Settings {
	return breaker.Settings{
		Name:                name,
		ConsecutiveFailures: uint32(cfg.Breaker.ConsecutiveFailures), //nolint:gosec // positive after ApplyDefaults
		OpenTimeout:         cfg.Breaker.OpenTimeout(),
	}
}

// asChecker returns v as a health checker, or nil (a true nil interface) when it has none.
func asChecker(v any) healthuc.Checker {
	if hc, ok := v.(healthuc.Checker); ok {
		return hc
	}
	return nil
}
