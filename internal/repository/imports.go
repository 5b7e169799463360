package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/recordport/recordport/internal/model"
)

// usersColumns is the COPY column list of the users table.
var usersColumns = []string{"username", "email", "phone", "created_at", "filename"}

// CommitImport registers fileName for adminName and copies every record
// into users inside one transaction. On error nothing is kept.
func (r *Repository) CommitImport(ctx context.Context, adminName, fileName string, records []model.Record) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx,
		`INSERT INTO data (adminname, filename) VALUES ($1, $2)`,
		adminName, fileName,
	); err != nil {
		return fmt.Errorf("insert data row: %w", err)
	}

	rows := make([][]any, len(records))
	for i := range records {
		rec := &records[i]
		rows[i] = []any{rec.Name, rec.Email, rec.Phone, rec.CreatedAt, fileName}
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"users"}, usersColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy users: %w", err)
	}
	if copied != int64(len(records)) {
		return fmt.Errorf("copy users: copied %d of %d rows", copied, len(records))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit import tx: %w", err)
	}
	return nil
}

// ListFiles returns the files imported by adminName, oldest first.
func (r *Repository) ListFiles(ctx context.Context, adminName string) ([]model.StoredFile, error) {
	query := `
		SELECT id, adminname, filename, created_at
		FROM data
		WHERE adminname = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, adminName)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []model.StoredFile
	for rows.Next() {
		var f model.StoredFile
		if err := rows.Scan(&f.ID, &f.AdminName, &f.FileName, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate files: %w", err)
	}

	return files, nil
}

// ListRecordsByFile returns the users stored under fileName in insertion order.
// NULL cells read as empty strings.
func (r *Repository) ListRecordsByFile(ctx context.Context, fileName string) ([]model.StoredRecord, error) {
	query := `
		SELECT COALESCE(username, ''), COALESCE(email, ''), COALESCE(phone, ''),
		       COALESCE(created_at, ''), filename
		FROM users
		WHERE filename = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.StoredRecord, error) {
		var rec model.StoredRecord
		err := row.Scan(&rec.Username, &rec.Email, &rec.Phone, &rec.CreatedAt, &rec.FileName)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}

	return records, nil
}
