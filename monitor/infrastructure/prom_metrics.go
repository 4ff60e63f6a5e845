package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
)

const metricsNamespace = "water_monitor"

// PromMetrics tracks pipeline counters in a private Prometheus registry and exports
// them to a node-exporter textfile. Nothing is served over the network.
type PromMetrics struct {
	registry *prometheus.Registry
	path     string

	lines             *prometheus.CounterVec
	persistenceErrors prometheus.Counter
	renderErrors      prometheus.Counter
	analysisDropped   prometheus.Counter
	records           prometheus.Gauge
	averageFlow       prometheus.Gauge
	wasteLiters       prometheus.Gauge
	totalLiters       prometheus.Gauge
}

// LineAccepted counts an accepted reading and records the dataset size.
func (m *PromMetrics) LineAccepted(datasetSize int) {
	m.lines.WithLabelValues("accepted").Inc()
	m.records.Set(float64(datasetSize))
}

// LineRejected counts a skipped line by reason.
func (m *PromMetrics) LineRejected(reason string) {
	m.lines.WithLabelValues(reason).Inc()
}

// PersistenceFailed counts a failed append to the durable log.
func (m *PromMetrics) PersistenceFailed() {
	m.persistenceErrors.Inc()
}

// RenderFailed counts a failed visualization export.
func (m *PromMetrics) RenderFailed() {
	m.renderErrors.Inc()
}

// AnalysisDropped counts a queued analysis replaced by a newer snapshot.
func (m *PromMetrics) AnalysisDropped() {
	m.analysisDropped.Inc()
}

// ObserveReport publishes the figures of a full report. Insufficient-data reports
// only update the record count.
func (m *PromMetrics) ObserveReport(report monitorDomain.Report) {
	m.records.Set(float64(report.RecordCount))
	if report.InsufficientData {
		return
	}
	m.averageFlow.Set(report.AverageFlow)
	m.wasteLiters.Set(report.WasteLiters)
	m.totalLiters.Set(report.TotalLiters)
}

// Flush rewrites the textfile. Without a configured path it does nothing.
func (m *PromMetrics) Flush() error {
	if m.path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(m.path, m.registry)
}

// Registry exposes the underlying registry, mainly for tests.
func (m *PromMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// NewPromMetrics registers the pipeline metrics in a fresh registry.
// path is the textfile to export to; empty disables export.
func NewPromMetrics(path string) *PromMetrics {
	m := &PromMetrics{
		registry: prometheus.NewRegistry(),
		path:     path,

		lines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "lines_total",
				Help:      "Sensor lines processed, by result",
			},
			[]string{"result"},
		),
		persistenceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "persistence_errors_total",
			Help:      "Readings that could not be appended to the durable log",
		}),
		renderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "render_errors_total",
			Help:      "Failed plot exports",
		}),
		analysisDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analysis_dropped_total",
			Help:      "Queued analysis runs replaced by a newer snapshot",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "dataset_records",
			Help:      "Readings held in memory",
		}),
		averageFlow: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "average_flow_lpm",
			Help:      "Average flow of the last full report, in L/min",
		}),
		wasteLiters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "waste_liters",
			Help:      "Estimated unattended consumption of the last full report, in liters",
		}),
		totalLiters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "total_liters",
			Help:      "Cumulative consumption reported by the sensor at the last full report",
		}),
	}

	m.registry.MustRegister(
		m.lines,
		m.persistenceErrors,
		m.renderErrors,
		m.analysisDropped,
		m.records,
		m.averageFlow,
		m.wasteLiters,
		m.totalLiters,
	)
	return m
}
