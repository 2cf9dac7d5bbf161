// Package metrics exposes Prometheus counters for document loads and parses.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "geosoft"

// Load outcomes
const (
	OutcomeLoaded  = "loaded"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics holds the collectors registered for one process
type Metrics struct {
	registry *prometheus.Registry

	Loads        *prometheus.CounterVec
	LoadDuration prometheus.Histogram
	Lines        *prometheus.CounterVec
	Entities     *prometheus.CounterVec
	Warnings     *prometheus.CounterVec
	TableErrors  prometheus.Counter
	RankRequests prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg gets a
// fresh registry.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Accession loads by outcome.",
		}, []string{"outcome"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time to fetch, parse and store one accession.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		Lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "SOFT lines parsed by line kind.",
		}, []string{"kind"}),
		Entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_total",
			Help:      "Entities parsed by kind.",
		}, []string{"kind"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Schema warnings by code.",
		}, []string{"code"}),
		TableErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_errors_total",
			Help:      "Data tables that failed to parse.",
		}),
		RankRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rank_requests_total",
			Help:      "Rank normalization requests.",
		}),
	}

	collectors := []prometheus.Collector{
		m.Loads, m.LoadDuration, m.Lines, m.Entities, m.Warnings, m.TableErrors, m.RankRequests,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}
	return m, nil
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveLoad records one accession load
func (m *Metrics) ObserveLoad(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Loads.WithLabelValues(outcome).Inc()
	if outcome == OutcomeLoaded {
		m.LoadDuration.Observe(d.Seconds())
	}
}

// ObserveParse records the outcome of parsing one document. lineCounts is
// keyed by line kind, entityKinds and warningCodes hold one element per
// entity and warning.
func (m *Metrics) ObserveParse(lineCounts map[string]int, entityKinds, warningCodes []string, tableErrors int) {
	if m == nil {
		return
	}
	for kind, n := range lineCounts {
		m.Lines.WithLabelValues(kind).Add(float64(n))
	}
	for _, kind := range entityKinds {
		m.Entities.WithLabelValues(kind).Inc()
	}
	for _, code := range warningCodes {
		m.Warnings.WithLabelValues(code).Inc()
	}
	m.TableErrors.Add(float64(tableErrors))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "metrics server failed")
	}
	return nil
}
