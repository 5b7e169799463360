package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncImportSession("committed")
	m.IncImportSession("committed")
	m.IncImportSession("rejected")
	m.ObserveImportBatchSize(3)
	m.IncExport("csv", "success")
	m.ObserveExportDuration("csv", 2*time.Millisecond)
	m.IncAuditPublished("success")
	m.IncAuditPublished("dropped")

	snap := m.Snapshot()
	if snap.ImportSessions["committed"] != 2 {
		t.Errorf("committed = %d, want 2", snap.ImportSessions["committed"])
	}
	if snap.ImportSessions["rejected"] != 1 {
		t.Errorf("rejected = %d, want 1", snap.ImportSessions["rejected"])
	}
	if snap.ImportRecordsReceived != 3 {
		t.Errorf("records = %d, want 3", snap.ImportRecordsReceived)
	}
	if snap.Exports["csv/success"] != 1 {
		t.Errorf("csv/success = %d, want 1", snap.Exports["csv/success"])
	}
	if snap.ExportDurationCount != 1 || snap.ExportDurationTotalNs != int64(2*time.Millisecond) {
		t.Errorf("unexpected duration totals: %d / %d", snap.ExportDurationCount, snap.ExportDurationTotalNs)
	}
	if snap.AuditPublished != 1 || snap.AuditDropped != 1 {
		t.Errorf("audit = %d/%d, want 1/1", snap.AuditPublished, snap.AuditDropped)
	}
}

func TestPrometheusRecorder_Counts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.IncImportSession("invalid")
	p.IncExport("xml", "failed")
	p.IncExport("xml", "failed")
	p.ObserveExportDuration("xml", time.Second)

	if got := testutil.ToFloat64(p.importSessions.WithLabelValues("invalid")); got != 1 {
		t.Errorf("import sessions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.exports.WithLabelValues("xml", "failed")); got != 2 {
		t.Errorf("exports = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(p.exportDuration); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}
