package repository

import (
	"context"
	"fmt"

	"github.com/recordport/recordport/internal/model"
)

// InsertLog appends an audit entry and fills in its ID.
// A zero CreatedAt is stamped by the database.
func (r *Repository) InsertLog(ctx context.Context, entry *model.LogEntry) error {
	query := `
		INSERT INTO logs (adminname, filename, action, status, number_of_records, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING id, created_at
	`

	var createdAt any
	if !entry.CreatedAt.IsZero() {
		createdAt = entry.CreatedAt
	}

	err := r.pool.QueryRow(ctx, query,
		entry.AdminName,
		entry.FileName,
		string(entry.Action),
		string(entry.Status),
		entry.NumberOfRecords,
		createdAt,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert log: %w", err)
	}

	return nil
}

// ListLogs returns the audit entries of adminName, oldest first.
func (r *Repository) ListLogs(ctx context.Context, adminName string) ([]model.LogEntry, error) {
	query := `
		SELECT id, adminname, filename, action, status, number_of_records, created_at
		FROM logs
		WHERE adminname = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, adminName)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var e model.LogEntry
		var action, status string
		if err := rows.Scan(&e.ID, &e.AdminName, &e.FileName, &action, &status, &e.NumberOfRecords, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		e.Action = model.Action(action)
		e.Status = model.Status(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate logs: %w", err)
	}

	return entries, nil
}
