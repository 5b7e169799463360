// Package audit persists the append-only trail of imports and exports.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/recordport/recordport/internal/model"
)

// LogWriter stores audit entries.
type LogWriter interface {
	InsertLog(ctx context.Context, entry *model.LogEntry) error
}

// Logger writes entries to the logs table and, when a publisher is set,
// mirrors each stored entry to the audit stream.
type Logger struct {
	writer    LogWriter
	publisher *Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewLogger creates an audit logger. publisher may be nil.
func NewLogger(writer LogWriter, publisher *Publisher, logger *slog.Logger) *Logger {
	return &Logger{
		writer:    writer,
		publisher: publisher,
		logger:    logger.With("component", "audit"),
		now:       time.Now,
	}
}

// Log appends entry. A zero CreatedAt is stamped with the current UTC time.
func (l *Logger) Log(ctx context.Context, entry model.LogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now().UTC()
	}

	if err := l.writer.InsertLog(ctx, &entry); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}

	l.logger.Debug("audit entry written",
		"id", entry.ID,
		"adminname", entry.AdminName,
		"filename", entry.FileName,
		"action", entry.Action,
		"status", entry.Status,
		"number_of_records", entry.NumberOfRecords,
	)

	if l.publisher != nil {
		l.publisher.PublishAsync(entry)
	}
	return nil
}
