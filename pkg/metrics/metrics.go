// Package metrics exposes conversion and validation outcomes as Prometheus
// metrics, written to a node_exporter textfile after each run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/coolbeans/taxo2rdf/pkg/taxonomy"
	"github.com/coolbeans/taxo2rdf/pkg/validate"
)

// Metrics holds the collectors of one process on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	triples         prometheus.Gauge
	nodes           *prometheus.GaugeVec
	taxonomySize    prometheus.Gauge
	englishLabels   prometheus.Gauge
	changedLabels   *prometheus.GaugeVec
	misspellings    prometheus.Gauge
	skippedRows     *prometheus.GaugeVec
	duplicateLabels prometheus.Gauge
	shapeConforms   prometheus.Gauge
	shapeAttempts   prometheus.Gauge
	lastRun         prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taxo2rdf_runs_total",
				Help: "Count of conversion runs by outcome",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "taxo2rdf_run_duration_seconds",
				Help:    "Duration of conversion runs",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		triples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxo2rdf_triples",
			Help: "Triples in the last generated graph",
		}),
		nodes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taxo2rdf_nodes",
				Help: "Nodes in the last generated graph by SKOS kind",
			},
			[]string{"kind"},
		),
		taxonomySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxo2rdf_taxonomy_size",
			Help: "Distinct nodes described by the input slugs",
		}),
		englishLabels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxo2rdf_english_labels",
			Help: "Preferred labels classified as English",
		}),
		changedLabels: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taxo2rdf_changed_labels",
				Help: "Labels changed by each cleaning rule",
			},
			[]string{"rule"},
		),
		misspellings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxo2rdf_misspellings",
			Help: "Unknown words found in definitions",
		}),
		skippedRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taxo2rdf_skipped_rows",
				Help: "Rows that produced no node, by reason",
			},
			[]string{"reason"},
		),
		duplicateLabels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxo2rdf_duplicate_labels",
			Help: "Preferred labels shared by several concepts",
		}),
		shapeConforms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxo2rdf_shape_conforms",
			Help: "1 if the graph conforms to the shapes, 0 if not, -1 if unknown",
		}),
		shapeAttempts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxo2rdf_shape_validation_attempts",
			Help: "Requests sent to the shape validator in the last run",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxo2rdf_last_run_timestamp_seconds",
			Help: "Unix time of the last run",
		}),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.triples,
		m.nodes,
		m.taxonomySize,
		m.englishLabels,
		m.changedLabels,
		m.misspellings,
		m.skippedRows,
		m.duplicateLabels,
		m.shapeConforms,
		m.shapeAttempts,
		m.lastRun,
	)
	m.shapeConforms.Set(-1)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveConversion records the graph a run produced.
func (m *Metrics) ObserveConversion(result *taxonomy.Result) {
	m.triples.Set(float64(result.Store.Count()))
	m.taxonomySize.Set(float64(result.TaxoSize))
	m.englishLabels.Set(float64(result.EnglishLabels.Len()))
	m.misspellings.Set(float64(len(result.Misspellings)))

	m.nodes.Reset()
	for _, kind := range []taxonomy.NodeKind{taxonomy.KindConceptScheme, taxonomy.KindTopConcept, taxonomy.KindConcept} {
		m.nodes.WithLabelValues(kind.String()).Set(float64(result.NodesByKind[kind]))
	}

	m.changedLabels.Reset()
	for _, entry := range result.ChangeLog.Entries() {
		m.changedLabels.WithLabelValues(entry.Rule).Set(float64(len(entry.Labels)))
	}

	m.skippedRows.Reset()
	for _, skipped := range result.Skipped {
		m.skippedRows.WithLabelValues(skipped.Reason).Inc()
	}
}

// ObserveValidation records a validation report.
func (m *Metrics) ObserveValidation(report *validate.Report) {
	if report.Duplicates != nil {
		m.duplicateLabels.Set(float64(len(report.Duplicates.Duplicates)))
	}

	m.shapeConforms.Set(-1)
	m.shapeAttempts.Set(0)
	if shape := report.Shape; shape != nil {
		m.shapeAttempts.Set(float64(shape.Attempts))
		if shape.Reachable && shape.Error == "" {
			if shape.Conforms {
				m.shapeConforms.Set(1)
			} else {
				m.shapeConforms.Set(0)
			}
		}
	}
}

// ObserveRun counts a finished run. status is the report status, or
// "error" when the run failed before validation.
func (m *Metrics) ObserveRun(status string, started, finished time.Time) {
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(finished.Sub(started).Seconds())
	m.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes every metric in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
