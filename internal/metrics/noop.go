package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncImportSession is a no-op.
func (n *NoopRecorder) IncImportSession(state string) {}

// ObserveImportBatchSize is a no-op.
func (n *NoopRecorder) ObserveImportBatchSize(size int) {}

// IncExport is a no-op.
func (n *NoopRecorder) IncExport(format, status string) {}

// ObserveExportDuration is a no-op.
func (n *NoopRecorder) ObserveExportDuration(format string, duration time.Duration) {}

// IncAuditPublished is a no-op.
func (n *NoopRecorder) IncAuditPublished(status string) {}
