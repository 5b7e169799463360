// Package model defines domain entities for the application.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Column names of an imported record.
const (
	ColumnID        = "id"
	ColumnName      = "name"
	ColumnEmail     = "email"
	ColumnPhone     = "phone"
	ColumnCreatedAt = "created_at"
)

// RequiredColumns lists every column an import batch must carry.
var RequiredColumns = []string{ColumnID, ColumnName, ColumnEmail, ColumnPhone, ColumnCreatedAt}

// Record is one row of an import batch.
// A nil field means the cell was absent or null on the wire.
type Record struct {
	ID        *string
	Name      *string
	Email     *string
	Phone     *string
	CreatedAt *string

	columns map[string]struct{}
}

// NewRecord builds a record with every column present.
func NewRecord(id, name, email, phone, createdAt string) Record {
	r := Record{
		ID:        &id,
		Name:      &name,
		Email:     &email,
		Phone:     &phone,
		CreatedAt: &createdAt,
	}
	r.columns = make(map[string]struct{}, len(RequiredColumns))
	for _, col := range RequiredColumns {
		r.columns[col] = struct{}{}
	}
	return r
}

// Field returns the value of a named column.
func (r *Record) Field(column string) *string {
	switch column {
	case ColumnID:
		return r.ID
	case ColumnName:
		return r.Name
	case ColumnEmail:
		return r.Email
	case ColumnPhone:
		return r.Phone
	case ColumnCreatedAt:
		return r.CreatedAt
	}
	return nil
}

// HasColumn reports whether the column key appeared on the wire for this record.
func (r *Record) HasColumn(column string) bool {
	_, ok := r.columns[column]
	return ok
}

// Columns returns the column keys seen for this record, sorted.
func (r *Record) Columns() []string {
	cols := make([]string, 0, len(r.columns))
	for c := range r.columns {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Value returns the field value or "" when absent.
func Value(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// UnmarshalJSON accepts a flat JSON object. Scalars are stringified,
// numbers keep their literal text and null leaves the field nil.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	*r = Record{columns: make(map[string]struct{}, len(raw))}
	for key, val := range raw {
		r.columns[key] = struct{}{}

		s, ok := stringify(val)
		if !ok {
			continue
		}
		switch key {
		case ColumnID:
			r.ID = &s
		case ColumnName:
			r.Name = &s
		case ColumnEmail:
			r.Email = &s
		case ColumnPhone:
			r.Phone = &s
		case ColumnCreatedAt:
			r.CreatedAt = &s
		}
	}
	return nil
}

// MarshalJSON writes present columns only.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]*string, len(r.columns))
	for col := range r.columns {
		out[col] = r.Field(col)
	}
	return json.Marshal(out)
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "True", true
		}
		return "False", true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t), true
		}
		return string(b), true
	}
}

// ImportBatch is one import attempt as sent by the client.
type ImportBatch struct {
	AdminName string   `json:"adminname"`
	FileName  string   `json:"filename"`
	Encoding  string   `json:"encoding,omitempty"`
	Records   []Record `json:"data"`
}

// Columns returns the union of column keys over every record.
func (b *ImportBatch) Columns() map[string]struct{} {
	set := make(map[string]struct{})
	for i := range b.Records {
		for col := range b.Records[i].columns {
			set[col] = struct{}{}
		}
	}
	return set
}

// Extension returns the lowercased text after the last dot of the file name.
func (b *ImportBatch) Extension() string {
	return FileExtension(b.FileName)
}

// FileExtension returns the lowercased text after the last dot of name.
func FileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return strings.ToLower(name)
	}
	return strings.ToLower(name[idx+1:])
}

// ImportExtensions are the file types accepted for import.
var ImportExtensions = map[string]bool{
	"csv":  true,
	"xlsx": true,
}
