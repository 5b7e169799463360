// Package validation checks imported record batches against the user schema.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/recordport/recordport/internal/model"
)

// DateLayout is the accepted created_at layout (dd/mm/YYYY).
// Single-digit day and month are accepted.
const DateLayout = "2/1/2006"

// nonBlankColumns must carry a non-blank value on every row.
// Phone is required as a column but may be empty.
var nonBlankColumns = []string{
	model.ColumnID,
	model.ColumnName,
	model.ColumnEmail,
	model.ColumnCreatedAt,
}

// validate is safe for concurrent use.
var validate = validator.New()

// Validate returns one ValidationError per failing row, in row order.
// A batch missing required columns yields a single batch-level error and
// no row errors. An empty result means the batch is valid.
func Validate(records []model.Record) []model.ValidationError {
	batch := model.ImportBatch{Records: records}
	if missing := MissingColumns(batch.Columns()); len(missing) > 0 {
		messages := make([]string, len(missing))
		for i, col := range missing {
			messages[i] = fmt.Sprintf("Missing column '%s'", col)
		}
		return []model.ValidationError{{Row: model.RowAll, Messages: messages}}
	}

	var errs []model.ValidationError
	for i := range records {
		if messages := ValidateRecord(&records[i]); len(messages) > 0 {
			errs = append(errs, model.ValidationError{
				Row:      model.Row(i + 1),
				Messages: messages,
			})
		}
	}
	return errs
}

// MissingColumns returns the required columns absent from columns, in schema order.
func MissingColumns(columns map[string]struct{}) []string {
	var missing []string
	for _, col := range model.RequiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// ValidateRecord returns the messages for a single record.
func ValidateRecord(r *model.Record) []string {
	var messages []string

	for _, col := range nonBlankColumns {
		if IsBlank(r.Field(col)) {
			messages = append(messages, fmt.Sprintf("Missing data in '%s'", col))
		}
	}

	email := model.Value(r.Email)
	if !IsEmail(email) {
		messages = append(messages, "Invalid email format: "+email)
	}

	createdAt := model.Value(r.CreatedAt)
	if !IsDate(createdAt) {
		messages = append(messages, "Invalid date format (expected dd/mm/YYYY): "+createdAt)
	}

	return messages
}

// IsBlank reports whether v is absent or only whitespace.
func IsBlank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}

// IsEmail checks address syntax only. No DNS lookup is made.
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// IsDate checks s against DateLayout.
func IsDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
