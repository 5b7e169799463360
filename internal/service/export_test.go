package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/recordport/recordport/internal/metrics"
	"github.com/recordport/recordport/internal/model"
)

func seededStore(t *testing.T) *fakeStore {
	t.Helper()
	store := &fakeStore{}
	ctx := t.Context()
	if err := store.CommitImport(ctx, "root", "a.csv", []model.Record{
		model.NewRecord("1", "A", "a@x.com", "1", "01/01/2020"),
		model.NewRecord("2", "B", "b@x.com", "2", "02/01/2020"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.CommitImport(ctx, "root", "b.xlsx", []model.Record{
		model.NewRecord("3", "C", "c@x.com", "3", "03/01/2020"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.CommitImport(ctx, "other", "c.csv", []model.Record{
		model.NewRecord("4", "D", "d@x.com", "4", "04/01/2020"),
	}); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestParseExportRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      ExportInput
		wantErr string
	}{
		{"ok defaults", ExportInput{AdminName: "root", FileName: "a.csv", Scope: "all"}, ""},
		{"missing admin", ExportInput{FileName: "a.csv", Scope: "all"}, "Admin name and filename are required"},
		{"missing file", ExportInput{AdminName: "root", Scope: "all"}, "Admin name and filename are required"},
		{"bad format", ExportInput{AdminName: "root", FileName: "a.csv", Scope: "all", Format: "pdf"}, "Unsupported file type"},
		{"bad scope", ExportInput{AdminName: "root", FileName: "a.csv", Scope: "some", Format: "csv"}, "Unsupported mode export"},
		{"empty scope", ExportInput{AdminName: "root", FileName: "a.csv", Format: "csv"}, "Unsupported mode export"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, err := ParseExportRequest(tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if req.Format != model.FormatCSV || req.Encoding != model.DefaultEncoding {
					t.Errorf("defaults not applied: %+v", req)
				}
				return
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("err = %v, want ErrInvalidRequest", err)
			}
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("err = %T, want *RequestError", err)
			}
			if reqErr.Detail != tt.wantErr {
				t.Errorf("Detail = %q, want %q", reqErr.Detail, tt.wantErr)
			}
		})
	}
}

func TestExportService_AllSumsFilesForEveryFormat(t *testing.T) {
	t.Parallel()

	for _, format := range []model.Format{model.FormatCSV, model.FormatXLSX, model.FormatJSON, model.FormatXML} {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			audit := &fakeAudit{}
			svc := NewExportService(seededStore(t), audit, discardLogger(), nil)
			req := model.ExportRequest{AdminName: "root", FileName: "a.csv", Scope: model.ScopeAll, Format: format, Encoding: "utf-8"}

			file, err := svc.Export(t.Context(), req)
			if err != nil {
				t.Fatalf("Export: %v", err)
			}
			if file.Name != "root_all."+string(format) {
				t.Errorf("Name = %q", file.Name)
			}
			if got := countExported(t, format, file.Body); got != 3 {
				t.Errorf("exported %d records, want 3", got)
			}

			entries := audit.all()
			if len(entries) != 1 || entries[0].Status != model.StatusSuccess || entries[0].NumberOfRecords != 3 || entries[0].Action != model.ActionExport {
				t.Errorf("entries = %+v", entries)
			}
		})
	}
}

func countExported(t *testing.T, format model.Format, body []byte) int {
	t.Helper()
	switch format {
	case model.FormatCSV:
		return strings.Count(string(body), "\r\n") - 1
	case model.FormatJSON:
		var rows []map[string]string
		if err := json.Unmarshal(body, &rows); err != nil {
			t.Fatalf("decode json: %v", err)
		}
		return len(rows)
	case model.FormatXML:
		return strings.Count(string(body), "<user>")
	case model.FormatXLSX:
		f, err := excelize.OpenReader(bytes.NewReader(body))
		if err != nil {
			t.Fatalf("open xlsx: %v", err)
		}
		defer f.Close()
		rows, err := f.GetRows("Sheet1")
		if err != nil {
			t.Fatalf("rows: %v", err)
		}
		return len(rows) - 1
	}
	return -1
}

func TestExportService_Single(t *testing.T) {
	t.Parallel()

	svc := NewExportService(seededStore(t), &fakeAudit{}, discardLogger(), nil)
	req := model.ExportRequest{AdminName: "root", FileName: "b.xlsx", Scope: model.ScopeSingle, Format: model.FormatJSON, Encoding: "utf-8"}

	file, err := svc.Export(t.Context(), req)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if file.Name != "root_b.json" {
		t.Errorf("Name = %q, want root_b.json", file.Name)
	}
	if !strings.Contains(string(file.Body), `"filename":"b.xlsx"`) {
		t.Errorf("body = %s", file.Body)
	}
}

func TestExportService_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		store   *fakeStore
		req     model.ExportRequest
		wantErr error
	}{
		{
			name:    "single unknown owner",
			store:   &fakeStore{},
			req:     model.ExportRequest{AdminName: "ghost", FileName: "a.csv", Scope: model.ScopeSingle, Format: model.FormatCSV},
			wantErr: ErrNotFound,
		},
		{
			name:    "single unknown file",
			store:   seededStore(t),
			req:     model.ExportRequest{AdminName: "root", FileName: "zzz.csv", Scope: model.ScopeSingle, Format: model.FormatCSV},
			wantErr: ErrEmptyResult,
		},
		{
			name:    "all with no files",
			store:   &fakeStore{},
			req:     model.ExportRequest{AdminName: "ghost", FileName: "a.csv", Scope: model.ScopeAll, Format: model.FormatCSV},
			wantErr: ErrEmptyResult,
		},
		{
			name:    "store failure",
			store:   &fakeStore{listErr: errors.New("pool closed")},
			req:     model.ExportRequest{AdminName: "root", FileName: "a.csv", Scope: model.ScopeAll, Format: model.FormatCSV},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			audit := &fakeAudit{}
			rec := metrics.NewInMemory()
			svc := NewExportService(tt.store, audit, discardLogger(), rec)

			_, err := svc.Export(t.Context(), tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}

			entries := audit.all()
			if len(entries) != 1 || entries[0].Status != model.StatusFailed || entries[0].NumberOfRecords != 0 {
				t.Errorf("entries = %+v, want one failed entry with count 0", entries)
			}
			if rec.Snapshot().Exports["csv/failed"] != 1 {
				t.Error("expected failed export metric")
			}
		})
	}
}

func TestExportService_DuplicateFileNamesExportedOnce(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	ctx := t.Context()
	for i := 0; i < 2; i++ {
		if err := store.CommitImport(ctx, "root", "a.csv", []model.Record{
			model.NewRecord("1", "A", "a@x.com", "1", "01/01/2020"),
		}); err != nil {
			t.Fatal(err)
		}
	}

	svc := NewExportService(store, &fakeAudit{}, discardLogger(), nil)
	records, err := svc.Resolve(ctx, model.ExportRequest{AdminName: "root", Scope: model.ScopeAll})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Both imports of a.csv are returned once each, not four times.
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
}

func TestExportService_UnsupportedEncoding(t *testing.T) {
	t.Parallel()

	audit := &fakeAudit{}
	svc := NewExportService(seededStore(t), audit, discardLogger(), nil)
	req := model.ExportRequest{AdminName: "root", FileName: "a.csv", Scope: model.ScopeAll, Format: model.FormatCSV, Encoding: "klingon"}

	if _, err := svc.Export(t.Context(), req); err == nil {
		t.Fatal("expected error")
	}
	if entries := audit.all(); len(entries) != 1 || entries[0].Status != model.StatusFailed {
		t.Errorf("entries = %+v", entries)
	}
}
