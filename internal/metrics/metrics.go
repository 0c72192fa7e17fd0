// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	BlocksProcessed prometheus.Counter
	LastBlock       prometheus.Gauge
	LogsScanned     prometheus.Counter
	EventsDecoded   *prometheus.CounterVec
	DecodeFailures  *prometheus.CounterVec
	DeltasCommitted *prometheus.CounterVec
	CommitLatency   prometheus.Histogram

	registry *prometheus.Registry
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		BlocksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "poolscope_blocks_processed_total",
			Help: "Blocks committed through the aggregation engine",
		}),
		LastBlock: factory.NewGauge(prometheus.GaugeOpts{
			Name: "poolscope_last_block",
			Help: "Last committed block number",
		}),
		LogsScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "poolscope_logs_scanned_total",
			Help: "Raw logs read by the extractor",
		}),
		EventsDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "poolscope_events_decoded_total",
			Help: "Decoded events by kind",
		}, []string{"kind"}),
		DecodeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "poolscope_decode_failures_total",
			Help: "Logs dropped by the decoder by event and reason",
		}, []string{"event", "reason"}),
		DeltasCommitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "poolscope_deltas_committed_total",
			Help: "Store deltas committed by store",
		}, []string{"store"}),
		CommitLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "poolscope_commit_seconds",
			Help:    "Time to commit one block to the backend",
			Buckets: prometheus.DefBuckets,
		}),
		registry: reg,
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
