package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recordport/recordport/internal/metrics"
	"github.com/recordport/recordport/internal/model"
)

const (
	// StreamKey is the Redis stream audit entries are mirrored to.
	StreamKey = "stream:audit_log"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 10000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 250 * time.Millisecond
)

// EventPayload is the stream form of a LogEntry.
type EventPayload struct {
	ID              int64  `json:"id"`
	AdminName       string `json:"adminname"`
	FileName        string `json:"filename"`
	Action          string `json:"action"`
	Status          string `json:"status"`
	NumberOfRecords int    `json:"number_of_records"`
	CreatedAt       int64  `json:"t"` // Unix milliseconds
}

// NewEventPayload converts a stored entry to its stream payload.
func NewEventPayload(entry model.LogEntry) EventPayload {
	return EventPayload{
		ID:              entry.ID,
		AdminName:       entry.AdminName,
		FileName:        entry.FileName,
		Action:          string(entry.Action),
		Status:          string(entry.Status),
		NumberOfRecords: entry.NumberOfRecords,
		CreatedAt:       entry.CreatedAt.UnixMilli(),
	}
}

// Publisher mirrors audit entries to a Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new audit stream publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "audit.publisher"),
		metrics: recorder,
	}
}

// Publish adds an entry to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, entry model.LogEntry) (string, error) {
	data, err := json.Marshal(NewEventPayload(entry))
	if err != nil {
		return "", fmt.Errorf("marshal audit event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned.
func (p *Publisher) PublishAsync(entry model.LogEntry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, entry)
		if err != nil {
			p.logger.Warn("failed to publish audit event",
				"adminname", entry.AdminName,
				"action", entry.Action,
				"error", err,
			)
			p.metrics.IncAuditPublished("dropped")
			return
		}

		p.logger.Debug("audit event published",
			"adminname", entry.AdminName,
			"stream_id", streamID,
		)
		p.metrics.IncAuditPublished("success")
	}()
}
