// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"

	"github.com/recordport/recordport/internal/model"
)

// Service errors.
var (
	ErrSchema              = errors.New("missing required columns")
	ErrRowValidation       = errors.New("row validation failed")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrNoData              = errors.New("no data provided")
	ErrEmptyResult         = errors.New("no data found")
	ErrNotFound            = errors.New("no data found for the given admin name")
	ErrPersistence         = errors.New("persistence failed")
	ErrMalformedResponse   = errors.New("malformed confirmation")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrDisconnected        = errors.New("client disconnected")
)

// RequestError is a rejected request. Detail is safe to show the client.
type RequestError struct {
	Detail string
}

func (e *RequestError) Error() string {
	return ErrInvalidRequest.Error() + ": " + e.Detail
}

// Unwrap lets errors.Is match ErrInvalidRequest.
func (e *RequestError) Unwrap() error {
	return ErrInvalidRequest
}

// Store persists committed imports and answers export lookups.
type Store interface {
	// CommitImport registers fileName for adminName and inserts every record.
	// Either all of it is stored or none of it is.
	CommitImport(ctx context.Context, adminName, fileName string, records []model.Record) error
	// ListFiles returns the files imported by adminName, oldest first.
	ListFiles(ctx context.Context, adminName string) ([]model.StoredFile, error)
	// ListRecordsByFile returns the records stored under fileName in insertion order.
	ListRecordsByFile(ctx context.Context, fileName string) ([]model.StoredRecord, error)
}

// AuditLogger records the terminal outcome of an import or export.
type AuditLogger interface {
	Log(ctx context.Context, entry model.LogEntry) error
}
