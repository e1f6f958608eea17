// Package metrics provides Prometheus metrics collection for api2html.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "api2html"

// Run status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Collector holds all Prometheus metrics for api2html.
type Collector struct {
	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram

	// Resolution metrics
	SchemasResolved prometheus.Counter

	// Render metrics
	RendersTotal      *prometheus.CounterVec
	DuplicateRenders  prometheus.Counter
	MissingSelections prometheus.Counter

	// Watch metrics
	Rebuilds prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates a new metrics collector registered with the default registry.
func New() *Collector {
	return newCollector(promauto.With(prometheus.DefaultRegisterer), prometheus.DefaultGatherer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	return newCollector(promauto.With(reg), reg)
}

func newCollector(factory promauto.Factory, gatherer prometheus.Gatherer) *Collector {
	return &Collector{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of generation runs",
			},
			[]string{"status"},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Generation run duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		SchemasResolved: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schemas_resolved_total",
				Help:      "Total number of top-level schemas resolved",
			},
		),
		RendersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "renders_total",
				Help:      "Total number of render instructions by template",
			},
			[]string{"template"},
		),
		DuplicateRenders: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duplicate_renders_total",
				Help:      "Total number of schemas reached again after being rendered",
			},
		),
		MissingSelections: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "missing_selections_total",
				Help:      "Total number of selected ids with no matching schema",
			},
		),
		Rebuilds: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rebuilds_total",
				Help:      "Total number of rebuilds triggered in watch mode",
			},
		),
		gatherer: gatherer,
	}
}

// Handler returns an HTTP handler exposing the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// WriteTextfile writes the collected metrics to path in the text exposition
// format, for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.gatherer)
}
