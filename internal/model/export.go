package model

import "strings"

// Scope selects which stored files an export covers.
type Scope string

const (
	ScopeAll    Scope = "all"
	ScopeSingle Scope = "one"
)

// IsValid checks if the scope is known.
func (s Scope) IsValid() bool {
	return s == ScopeAll || s == ScopeSingle
}

// Format is an export serialization format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// IsValid checks if the format is known.
func (f Format) IsValid() bool {
	switch f {
	case FormatCSV, FormatXLSX, FormatJSON, FormatXML:
		return true
	}
	return false
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	case FormatXML:
		return "application/xml"
	}
	return "application/octet-stream"
}

// DefaultEncoding is used when an export or import names no encoding.
const DefaultEncoding = "utf-8"

// ExportRequest describes one export call.
type ExportRequest struct {
	AdminName string
	FileName  string
	Scope     Scope
	Format    Format
	Encoding  string
}

// SuggestedFileName returns "<admin>_<all|basename>.<ext>".
func (r ExportRequest) SuggestedFileName() string {
	base := "all"
	if r.Scope == ScopeSingle {
		base = r.FileName
		if idx := strings.LastIndex(base, "."); idx >= 0 {
			base = base[:idx]
		}
	}
	return r.AdminName + "_" + base + "." + r.Format.Extension()
}
