// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Import metrics
	IncImportSession(state string) // terminal state, e.g. "committed", "invalid"
	ObserveImportBatchSize(size int)

	// Export metrics
	IncExport(format, status string) // status: "success" or "failed"
	ObserveExportDuration(format string, duration time.Duration)

	// Audit stream metrics
	IncAuditPublished(status string) // status: "success" or "dropped"
}
