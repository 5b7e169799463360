package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/recordport/recordport/internal/export"
	"github.com/recordport/recordport/internal/model"
	"github.com/recordport/recordport/internal/service"
)

// Exporter produces export files.
type Exporter interface {
	Export(ctx context.Context, req model.ExportRequest) (*export.File, error)
}

// ExportHandler serves file downloads.
type ExportHandler struct {
	svc    Exporter
	logger *slog.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(svc Exporter, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		svc:    svc,
		logger: logger.With("component", "handler.export"),
	}
}

// Export handles GET /export.
//
// It answers 400 when adminname or filename is missing, when mode_file or
// mode_export is unrecognized, and when encoding names a charset that cannot
// be resolved. 404 means nothing matched the request. A body that cannot be
// represented in the requested charset is a 500 and is audited as failed.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := service.ParseExportRequest(service.ExportInput{
		AdminName: q.Get("adminname"),
		FileName:  q.Get("filename"),
		Scope:     q.Get("mode_export"),
		Format:    q.Get("mode_file"),
		Encoding:  q.Get("encoding"),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	file, err := h.svc.Export(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Body); err != nil {
		h.logger.Warn("failed to write export body", "error", err)
	}
}

func (h *ExportHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", requestErrorDetail(err))
	case errors.Is(err, export.ErrUnsupportedEncoding):
		writeError(w, http.StatusBadRequest, "UNSUPPORTED_ENCODING", "Unsupported encoding")
	case errors.Is(err, export.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Unsupported file type")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No data found for the given admin name")
	case errors.Is(err, service.ErrEmptyResult):
		writeError(w, http.StatusNotFound, "NO_DATA", "No data found")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// requestErrorDetail returns the client-facing part of an ErrInvalidRequest.
func requestErrorDetail(err error) string {
	var reqErr *service.RequestError
	if errors.As(err, &reqErr) && reqErr.Detail != "" {
		return reqErr.Detail
	}
	return "Invalid request"
}

// contentDisposition builds an attachment header. ASCII names are quoted,
// others use the RFC 2231 form.
func contentDisposition(name string) string {
	for _, r := range name {
		if r < 0x20 || r > 0x7e {
			return mime.FormatMediaType("attachment", map[string]string{"filename": name})
		}
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name)
	return `attachment; filename="` + escaped + `"`
}
