// Command knowsphere-import bulk-publishes insights from Parquet exports.
//
// Every *.parquet file in -data-dir is read in lexical order. Rows go through
// the same publish pipeline as the API (validation, tag suggestion, embedding)
// via the embedded SDK. Progress is committed to -data-dir/cursor.json so an
// interrupted import resumes where it stopped.
//
// Usage:
//
//	knowsphere-import -data-dir /data/export -workers 4
//
// Database, embedding, tagging and ranking settings come from the same
// config/<ENV>.yaml the API server reads.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/knowsphere/knowsphere/internal/breaker"
	"github.com/knowsphere/knowsphere/internal/config"
	"github.com/knowsphere/knowsphere/internal/domain"
	logpkg "github.com/knowsphere/knowsphere/internal/logger"
	"github.com/knowsphere/knowsphere/internal/metrics"
	openaiTransport "github.com/knowsphere/knowsphere/internal/transport/openai"
	embeddinguc "github.com/knowsphere/knowsphere/internal/usecase/embedding"
	"github.com/knowsphere/knowsphere/internal/usecase/tagging"
	"github.com/knowsphere/knowsphere/internal/version"
	knowsphere "github.com/knowsphere/knowsphere/pkg/sdk"
)

type options struct {
	dataDir        string
	maxRows        int
	workers        int
	batchSize      int
	metricsAddr    string
	cursorInterval int
	reset          bool
	version        bool
}

func parseFlags() options {
	o := options{}
	flag.StringVar(&o.dataDir, "data-dir", "/data", "directory with parquet files; also holds cursor.json")
	flag.IntVar(&o.maxRows, "max-rows", 0, "max rows to import in this run (0 = all)")
	flag.IntVar(&o.workers, "workers", 4, "parallel publishing workers")
	flag.IntVar(&o.batchSize, "batch-size", 50, "rows per batch")
	flag.StringVar(&o.metricsAddr, "metrics-addr", ":9091", "Prometheus listen address (empty = off)")
	flag.IntVar(&o.cursorInterval, "cursor-interval", 500, "save cursor every N committed rows")
	flag.BoolVar(&o.reset, "reset", false, "discard cursor and start from the first row")
	flag.BoolVar(&o.version, "version", false, "print version and exit")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()
	if opts.version {
		fmt.Println("knowsphere-import", version.String())
		return
	}
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "knowsphere-import")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("Import failed", zap.Error(err))
		cancel()
		os.Exit(1) //nolint:gocritic // deferred Sync is best effort
	}
}

func run(ctx context.Context, cfg config.Config, opts options, logger *zap.Logger) error {
	if opts.workers <= 0 || opts.batchSize <= 0 {
		return fmt.Errorf("workers and batch-size must be positive")
	}

	reg := prometheus.NewRegistry()
	m := newImportMetrics(reg)
	reg.MustRegister(metrics.BreakerState, metrics.BreakerRejectedTotal)
	if opts.metricsAddr != "" {
		srv := serveMetrics(opts.metricsAddr, reg, logger)
		defer func() {
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutCancel()
			_ = srv.Shutdown(shutCtx)
		}()
	}

	cursor, err := newCursorTracker(opts.dataDir, opts.cursorInterval, logger)
	if err != nil {
		return fmt.Errorf("cursor: %w", err)
	}
	if opts.reset {
		cursor.Reset()
		logger.Info("Cursor reset, importing from the first row")
	}
	if cursor.Get().Done {
		logger.Info("Import already complete, use -reset to run again")
		return nil
	}

	reader, err := newParquetReader(opts.dataDir)
	if err != nil {
		return err
	}

	client, err := connect(ctx, cfg, reg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	ing := &ingester{
		pub:       client.Insights(),
		workers:   opts.workers,
		batchSize: opts.batchSize,
		metrics:   m,
		cursor:    cursor,
		logger:    logger,
	}

	logger.Info("Import started",
		zap.Int("files", len(reader.files)),
		zap.Int("workers", opts.workers),
		zap.Int("batch_size", opts.batchSize),
	)
	res, err := ing.Run(ctx, reader, opts.maxRows)
	if err != nil {
		cursor.save()
		return fmt.Errorf("import: %w", err)
	}
	if opts.maxRows <= 0 {
		cursor.Finish()
	} else {
		cursor.save()
	}

	rate := float64(res.Imported) / res.Duration.Seconds()
	logger.Info("Import finished",
		zap.Int64("imported", res.Imported),
		zap.Int64("failed", res.Failed),
		zap.Duration("duration", res.Duration.Round(time.Second)),
		zap.Float64("rows_per_sec", rate),
	)
	return nil
}

func connect(ctx context.Context, cfg config.Config, reg prometheus.Registerer, logger *zap.Logger) (*knowsphere.Client, error) {
	addr := ""
	if len(cfg.Database.Addrs) > 0 {
		addr = cfg.Database.Addrs[0]
	}

	opts := []knowsphere.Option{
		knowsphere.WithKeyPrefix(cfg.Storage.KeyPrefix),
		knowsphere.WithMaxTags(cfg.Tagging.MaxTags),
		knowsphere.WithRanking(knowsphere.RankingOptions{
			RelatedLimit:       cfg.Ranking.RelatedLimit,
			TrendingLimit:      cfg.Ranking.TrendingLimit,
			DecayPerHour:       cfg.Ranking.DecayPerHour,
			TrendingWindowDays: cfg.Ranking.TrendingWindowDays,
			CandidatePoolSize:  cfg.Ranking.CandidatePoolSize,
		}),
		knowsphere.WithPrometheus(reg),
	}
	if cfg.Database.Driver == "redis" {
		opts = append(opts, knowsphere.WithRedis(addr, cfg.Database.Password))
	} else {
		opts = append(opts, knowsphere.WithValkey(addr, cfg.Database.Password))
	}

	if ec := cfg.Embedding; ec.Enabled() {
		emb := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     logger,
		})
		guarded := embeddinguc.NewBreakerEmbedder(emb, breaker.New[domain.EmbeddingResult](
			breakerSettings(cfg, "import-embedding"), domain.ErrEmbeddingProviderError, logger,
		))
		opts = append(opts, knowsphere.WithEmbedder(&sdkEmbedder{inner: guarded}, ec.Timeout()))
	}
	if tc := cfg.Tagging; tc.Enabled {
		tagger := openaiTransport.NewTagger(&openaiTransport.Config{
			APIKey:  tc.APIKey,
			BaseURL: tc.BaseURL,
			Model:   tc.Model,
			Logger:  logger,
		})
		opts = append(opts, knowsphere.WithTagger(tagging.NewBreakerTagger(tagger, breaker.New[[]string](
			breakerSettings(cfg, "import-tagging"), domain.ErrTaggingProviderError, logger,
		)), tc.Timeout()))
	}

	client, err := knowsphere.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return client, nil
}

func breakerSettings(cfg config.Config, name string) breaker.Settings {
	return breaker.Settings{
		Name:                name,
		ConsecutiveFailures: uint32(cfg.Breaker.ConsecutiveFailures), //nolint:gosec // positive after ApplyDefaults
		OpenTimeout:         cfg.Breaker.OpenTimeout(),
	}
}
