package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	importSessions  *prometheus.CounterVec
	importRecords   prometheus.Counter
	exports         *prometheus.CounterVec
	exportDuration  *prometheus.HistogramVec
	auditPublishing *prometheus.CounterVec
}

// NewPrometheus registers the application metrics on reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		importSessions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordport_import_sessions_total",
				Help: "Import sessions by terminal state.",
			},
			[]string{"state"},
		),
		importRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recordport_import_records_received_total",
				Help: "Records received in import batches.",
			},
		),
		exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordport_exports_total",
				Help: "Export requests by format and status.",
			},
			[]string{"format", "status"},
		),
		exportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recordport_export_duration_seconds",
				Help:    "Time spent resolving and serializing exports.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),
		auditPublishing: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordport_audit_stream_published_total",
				Help: "Audit entries published to the Redis stream.",
			},
			[]string{"status"},
		),
	}
}

// IncImportSession counts a finished import session.
func (p *PrometheusRecorder) IncImportSession(state string) {
	p.importSessions.WithLabelValues(state).Inc()
}

// ObserveImportBatchSize counts received records.
func (p *PrometheusRecorder) ObserveImportBatchSize(size int) {
	p.importRecords.Add(float64(size))
}

// IncExport counts an export.
func (p *PrometheusRecorder) IncExport(format, status string) {
	p.exports.WithLabelValues(format, status).Inc()
}

// ObserveExportDuration records export latency.
func (p *PrometheusRecorder) ObserveExportDuration(format string, duration time.Duration) {
	p.exportDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// IncAuditPublished counts audit stream publishes.
func (p *PrometheusRecorder) IncAuditPublished(status string) {
	p.auditPublishing.WithLabelValues(status).Inc()
}
