// Package metrics exposes Prometheus counters for extraction runs.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultNamespace = "position_tracker"

// Metrics holds the tracker's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Extraction
	CallsSeen       *prometheus.CounterVec
	EventsExtracted *prometheus.CounterVec
	RecordsDropped  *prometheus.CounterVec

	// Tokens
	ResolverSize     prometheus.Gauge
	OnchainLookups   *prometheus.CounterVec
	ProviderRequests *prometheus.CounterVec

	// Analytics
	CreatorsTracked prometheus.Gauge
	RunDuration     *prometheus.HistogramVec
}

// New registers every collector under namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CallsSeen: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "calls_total",
			Help:      "Decoded calls handed to the extractor by kind",
		}, []string{"kind"}),
		EventsExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "events_total",
			Help:      "Events produced by the extractor by kind",
		}, []string{"kind"}),
		RecordsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "dropped_total",
			Help:      "Calls skipped during extraction by kind and reason",
		}, []string{"kind", "reason"}),
		ResolverSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "resolver_entries",
			Help:      "Tokens with known decimals in the current run",
		}),
		OnchainLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "onchain_lookups_total",
			Help:      "ERC20 metadata reads over RPC by status",
		}, []string{"status"}),
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Provider queries by query name and status",
		}, []string{"query", "status"}),
		CreatorsTracked: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "creators",
			Help:      "Distinct creator addresses in the last aggregation",
		}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a command run by command and status",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"command", "status"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBatch records one ExtractBatch call.
func (m *Metrics) ObserveBatch(kind string, total, extracted int) {
	m.CallsSeen.WithLabelValues(kind).Add(float64(total))
	m.EventsExtracted.WithLabelValues(kind).Add(float64(extracted))
}

// ObserveDrop records one skipped call.
func (m *Metrics) ObserveDrop(kind, reason string) {
	m.RecordsDropped.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) SetResolverSize(n int) { m.ResolverSize.Set(float64(n)) }
func (m *Metrics) SetCreators(n int)     { m.CreatorsTracked.Set(float64(n)) }
func (m *Metrics) ObserveLookup(ok bool) { m.OnchainLookups.WithLabelValues(status(ok)).Inc() }
func (m *Metrics) ObserveRequest(query string, err error) {
	m.ProviderRequests.WithLabelValues(query, status(err == nil)).Inc()
}

// ObserveRun records a command's duration since start.
func (m *Metrics) ObserveRun(command string, start time.Time, err error) {
	m.RunDuration.WithLabelValues(command, status(err == nil)).Observe(time.Since(start).Seconds())
}

// Handler returns the /metrics handler for this registry.
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

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
