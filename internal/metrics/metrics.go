// Package metrics exposes Prometheus collectors for provider fetches,
// entity values and gRPC traffic.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tejusbharadwaj/foenergy/internal/api"
	"github.com/tejusbharadwaj/foenergy/internal/models"
)

const namespace = "foenergy"

// Metrics groups every collector the service exports
type Metrics struct {
	FetchTotal    *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	Production    *prometheus.GaugeVec
	Available     *prometheus.GaugeVec
	Requests      *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Provider fetches by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of provider fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
		Production: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "production_mw",
			Help:      "Current production in MW by area and source.",
		}, []string{"area", "source"}),
		Available: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entity_available",
			Help:      "1 when the area's sensor has a value.",
		}, []string{"area"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC requests by method and status code.",
		}, []string{"method", "code"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_request_duration_seconds",
			Help:      "gRPC request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Register adds every collector to reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.FetchTotal, m.FetchDuration, m.Production, m.Available, m.Requests, m.Latency,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Fetcher matches the provider client
type Fetcher interface {
	Fetch(ctx context.Context) (*api.Snapshot, error)
}

type instrumentedFetcher struct {
	next    Fetcher
	metrics *Metrics
}

// Instrument records the outcome and duration of every fetch made through f
func (m *Metrics) Instrument(f Fetcher) Fetcher {
	return &instrumentedFetcher{next: f, metrics: m}
}

func (f *instrumentedFetcher) Fetch(ctx context.Context) (*api.Snapshot, error) {
	start := time.Now()
	snapshot, err := f.next.Fetch(ctx)
	f.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil || snapshot == nil:
		f.metrics.FetchTotal.WithLabelValues("error").Inc()
	case len(snapshot.Errors) > 0:
		f.metrics.FetchTotal.WithLabelValues("partial").Inc()
	default:
		f.metrics.FetchTotal.WithLabelValues("success").Inc()
	}
	return snapshot, err
}

func (m *Metrics) AddEntities(ctx context.Context, states []models.EntityState) error {
	for _, state := range states {
		m.record(state)
	}
	return nil
}

func (m *Metrics) UpdateEntity(ctx context.Context, state models.EntityState) error {
	m.record(state)
	return nil
}

func (m *Metrics) RemoveEntities(ctx context.Context, states []models.EntityState) error {
	for _, state := range states {
		area := string(state.Area)
		m.Available.DeleteLabelValues(area)
		m.Production.DeletePartialMatch(prometheus.Labels{"area": area})
	}
	return nil
}

func (m *Metrics) record(state models.EntityState) {
	area := string(state.Area)
	if !state.Available {
		m.Available.WithLabelValues(area).Set(0)
		m.Production.DeletePartialMatch(prometheus.Labels{"area": area})
		return
	}

	m.Available.WithLabelValues(area).Set(1)
	m.Production.WithLabelValues(area, "all").Set(state.Value)
	for _, source := range models.AllSources {
		if v, ok := state.Attributes[string(source)+"_"+string(models.KindEnergy)].(float64); ok {
			m.Production.WithLabelValues(area, string(source)).Set(v)
		}
	}
}
