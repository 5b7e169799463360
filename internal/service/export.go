package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/recordport/recordport/internal/export"
	"github.com/recordport/recordport/internal/metrics"
	"github.com/recordport/recordport/internal/model"
)

// ExportService resolves, serializes and audits exports.
type ExportService struct {
	store   Store
	audit   AuditLogger
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewExportService creates a new ExportService.
func NewExportService(store Store, audit AuditLogger, logger *slog.Logger, recorder metrics.Recorder) *ExportService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ExportService{
		store:   store,
		audit:   audit,
		logger:  logger.With("component", "service.export"),
		metrics: recorder,
	}
}

// ExportInput holds the raw export parameters.
type ExportInput struct {
	AdminName string
	FileName  string
	Scope     string
	Format    string
	Encoding  string
}

// ParseExportRequest validates raw parameters.
// Errors are *RequestError values, which match ErrInvalidRequest.
func ParseExportRequest(in ExportInput) (model.ExportRequest, error) {
	req := model.ExportRequest{
		AdminName: strings.TrimSpace(in.AdminName),
		FileName:  strings.TrimSpace(in.FileName),
		Scope:     model.Scope(in.Scope),
		Format:    model.Format(in.Format),
		Encoding:  strings.TrimSpace(in.Encoding),
	}
	if req.Format == "" {
		req.Format = model.FormatCSV
	}
	if req.Encoding == "" {
		req.Encoding = model.DefaultEncoding
	}

	if req.AdminName == "" || req.FileName == "" {
		return req, &RequestError{Detail: "Admin name and filename are required"}
	}
	if !req.Format.IsValid() {
		return req, &RequestError{Detail: "Unsupported file type"}
	}
	if !req.Scope.IsValid() {
		return req, &RequestError{Detail: "Unsupported mode export"}
	}
	return req, nil
}

// Export resolves the records for req and serializes them.
// Exactly one audit entry is written: success with the record count,
// or failed with zero.
func (s *ExportService) Export(ctx context.Context, req model.ExportRequest) (*export.File, error) {
	start := time.Now()

	file, count, err := s.export(ctx, req)

	status := model.StatusSuccess
	if err != nil {
		status = model.StatusFailed
		count = 0
	}
	s.writeLog(ctx, req, status, count)
	s.metrics.IncExport(string(req.Format), string(status))
	s.metrics.ObserveExportDuration(string(req.Format), time.Since(start))

	if err != nil {
		s.logger.Warn("export failed",
			"adminname", req.AdminName,
			"filename", req.FileName,
			"mode_export", req.Scope,
			"mode_file", req.Format,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("export completed",
		"adminname", req.AdminName,
		"filename", req.FileName,
		"mode_export", req.Scope,
		"mode_file", req.Format,
		"record_count", count,
	)
	return file, nil
}

func (s *ExportService) export(ctx context.Context, req model.ExportRequest) (*export.File, int, error) {
	records, err := s.Resolve(ctx, req)
	if err != nil {
		return nil, 0, err
	}

	file, err := export.Serialize(records, req)
	if err != nil {
		return nil, 0, err
	}
	return file, len(records), nil
}

// Resolve returns the records covered by req's scope.
func (s *ExportService) Resolve(ctx context.Context, req model.ExportRequest) ([]model.StoredRecord, error) {
	files, err := s.store.ListFiles(ctx, req.AdminName)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	var records []model.StoredRecord
	switch req.Scope {
	case model.ScopeAll:
		seen := make(map[string]bool, len(files))
		for _, f := range files {
			if seen[f.FileName] {
				continue
			}
			seen[f.FileName] = true

			rs, err := s.store.ListRecordsByFile(ctx, f.FileName)
			if err != nil {
				return nil, fmt.Errorf("list records for %s: %w", f.FileName, err)
			}
			records = append(records, rs...)
		}
	case model.ScopeSingle:
		if len(files) == 0 {
			return nil, ErrNotFound
		}
		records, err = s.store.ListRecordsByFile(ctx, req.FileName)
		if err != nil {
			return nil, fmt.Errorf("list records for %s: %w", req.FileName, err)
		}
	default:
		return nil, &RequestError{Detail: "Unsupported mode export"}
	}

	if len(records) == 0 {
		return nil, ErrEmptyResult
	}
	return records, nil
}

func (s *ExportService) writeLog(ctx context.Context, req model.ExportRequest, status model.Status, count int) {
	entry := model.LogEntry{
		AdminName:       req.AdminName,
		FileName:        req.FileName,
		Action:          model.ActionExport,
		Status:          status,
		NumberOfRecords: count,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Error("failed to write export log", "status", status, "error", err)
	}
}
