package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const metricsNamespace = "knowsphere_import"

// importMetrics tracks import progress.
type importMetrics struct {
	rowsImported  prometheus.Counter
	rowsFailed    *prometheus.CounterVec
	tagSources    *prometheus.CounterVec
	batchDuration prometheus.Histogram
	cursorFile    prometheus.Gauge
	cursorRow     prometheus.Gauge
}

func newImportMetrics(reg prometheus.Registerer) *importMetrics {
	m := &importMetrics{
		rowsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_imported_total",
			Help:      "Rows published as insights",
		}),
		rowsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_failed_total",
			Help:      "Rows that could not be published",
		}, []string{"reason"}), // "invalid" / "error"
		tagSources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tag_source_total",
			Help:      "Imported insights by the origin of their tags",
		}, []string{"source"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "batch_duration_seconds",
			Help:      "Time to publish one batch",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		cursorFile: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "cursor_file_index",
			Help:      "File index of the committed cursor",
		}),
		cursorRow: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "cursor_row_offset",
			Help:      "Row offset of the committed cursor",
		}),
	}

	reg.MustRegister(
		m.rowsImported, m.rowsFailed, m.tagSources,
		m.batchDuration, m.cursorFile, m.cursorRow,
	)
	return m
}

// serveMetrics exposes reg on addr/metrics until Shutdown.
func serveMetrics(addr string, reg prometheus.Gatherer, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
