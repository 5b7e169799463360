package model

import "time"

// Action is the kind of operation recorded in the audit log.
type Action string

const (
	ActionImport Action = "import"
	ActionExport Action = "export"
)

// Status is the terminal status of an audited operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// LogEntry is one row of the append-only audit trail.
type LogEntry struct {
	ID              int64     `json:"id,omitempty"`
	AdminName       string    `json:"adminname"`
	FileName        string    `json:"filename"`
	Action          Action    `json:"action"`
	Status          Status    `json:"status"`
	NumberOfRecords int       `json:"number_of_records"`
	CreatedAt       time.Time `json:"created_at"`
}

// StoredFile associates an admin owner with a file they imported.
type StoredFile struct {
	ID        int64     `json:"id"`
	AdminName string    `json:"adminname"`
	FileName  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredRecord is a persisted user row. The field order is the export order.
type StoredRecord struct {
	Username  string `json:"username" xml:"username"`
	Email     string `json:"email" xml:"email"`
	Phone     string `json:"phone" xml:"phone"`
	CreatedAt string `json:"created_at" xml:"created_at"`
	FileName  string `json:"filename" xml:"filename"`
}

// ExportFields is the fixed column order of every export format.
var ExportFields = []string{"username", "email", "phone", "created_at", "filename"}

// Values returns the record's values in ExportFields order.
func (r StoredRecord) Values() []string {
	return []string{r.Username, r.Email, r.Phone, r.CreatedAt, r.FileName}
}
