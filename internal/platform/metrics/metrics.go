// Package metrics exposes Prometheus collectors for document decoding.
//
// Collectors are registered on a caller-supplied registry so that tests can use a
// private registry and the gateway can serve its own from /-/metrics.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jsonapi"

// Document outcomes used as the "outcome" label.
const (
	OutcomeOK             = "ok"
	OutcomeParseError     = "parse_error"
	OutcomeTransportError = "transport_error"
)

// Decoder records per-document decode results.
// A nil *Decoder is valid and records nothing.
type Decoder struct {
	documents  *prometheus.CounterVec
	linkages   prometheus.Counter
	unresolved prometheus.Counter
	resources  prometheus.Histogram
}

// NewDecoder creates the decode collectors and registers them on reg.
func NewDecoder(reg prometheus.Registerer) (*Decoder, error) {
	m := &Decoder{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents handled, by outcome (ok, protocol error kind, parse_error, transport_error).",
		}, []string{"outcome"}),
		linkages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "linkages_total",
			Help:      "Relationship linkages looked up in included resources.",
		}),
		unresolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_linkages_total",
			Help:      "Relationship linkages with no matching included resource.",
		}),
		resources: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "primary_resources",
			Help:      "Primary resources per decoded document.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
		}),
	}

	for _, c := range []prometheus.Collector{m.documents, m.linkages, m.unresolved, m.resources} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering decode metrics: %w", err)
		}
	}

	return m, nil
}

// ObserveOutcome counts one handled document.
func (m *Decoder) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}

	m.documents.WithLabelValues(outcome).Inc()
}

// ObserveDecode records the relationship statistics of a successful decode.
func (m *Decoder) ObserveDecode(resources, linkages, unresolved int) {
	if m == nil {
		return
	}

	m.resources.Observe(float64(resources))
	m.linkages.Add(float64(linkages))
	m.unresolved.Add(float64(unresolved))
}

// NewRegistry returns a registry preloaded with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
