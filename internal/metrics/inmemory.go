package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ImportSessions        map[string]uint64
	ImportRecordsReceived uint64
	Exports               map[string]uint64 // keyed "format/status"
	ExportDurationCount   uint64
	ExportDurationTotalNs int64
	AuditPublished        uint64
	AuditDropped          uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                    sync.Mutex
	importSessions        map[string]uint64
	exports               map[string]uint64
	importRecordsReceived uint64
	exportDurationCount   uint64
	exportDurationTotalNs int64
	auditPublished        uint64
	auditDropped          uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		importSessions: make(map[string]uint64),
		exports:        make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	sessions := make(map[string]uint64, len(m.importSessions))
	for k, v := range m.importSessions {
		sessions[k] = v
	}
	exports := make(map[string]uint64, len(m.exports))
	for k, v := range m.exports {
		exports[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		ImportSessions:        sessions,
		ImportRecordsReceived: atomic.LoadUint64(&m.importRecordsReceived),
		Exports:               exports,
		ExportDurationCount:   atomic.LoadUint64(&m.exportDurationCount),
		ExportDurationTotalNs: atomic.LoadInt64(&m.exportDurationTotalNs),
		AuditPublished:        atomic.LoadUint64(&m.auditPublished),
		AuditDropped:          atomic.LoadUint64(&m.auditDropped),
	}
}

// IncImportSession counts a finished import session by terminal state.
func (m *InMemoryRecorder) IncImportSession(state string) {
	m.mu.Lock()
	m.importSessions[state]++
	m.mu.Unlock()
}

// ObserveImportBatchSize adds the batch size to the received record total.
func (m *InMemoryRecorder) ObserveImportBatchSize(size int) {
	atomic.AddUint64(&m.importRecordsReceived, uint64(size))
}

// IncExport counts an export by format and status.
func (m *InMemoryRecorder) IncExport(format, status string) {
	m.mu.Lock()
	m.exports[format+"/"+status]++
	m.mu.Unlock()
}

// ObserveExportDuration records export duration.
func (m *InMemoryRecorder) ObserveExportDuration(format string, duration time.Duration) {
	atomic.AddUint64(&m.exportDurationCount, 1)
	atomic.AddInt64(&m.exportDurationTotalNs, duration.Nanoseconds())
}

// IncAuditPublished counts audit stream publishes.
func (m *InMemoryRecorder) IncAuditPublished(status string) {
	if status == "success" {
		atomic.AddUint64(&m.auditPublished, 1)
		return
	}
	atomic.AddUint64(&m.auditDropped, 1)
}
