package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Row identifies the row a ValidationError belongs to.
// RowAll marks a batch-level error.
type Row int

// RowAll is the row value of schema-level errors.
const RowAll Row = 0

// MarshalJSON encodes RowAll as "all" and any other row as its number.
func (r Row) MarshalJSON() ([]byte, error) {
	if r == RowAll {
		return []byte(`"all"`), nil
	}
	return []byte(strconv.Itoa(int(r))), nil
}

// UnmarshalJSON accepts either "all" or a positive integer.
func (r *Row) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "all" {
			return fmt.Errorf("invalid row %q", s)
		}
		*r = RowAll
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid row: %w", err)
	}
	*r = Row(n)
	return nil
}

// String returns "all" or the row number.
func (r Row) String() string {
	if r == RowAll {
		return "all"
	}
	return strconv.Itoa(int(r))
}

// ValidationError groups the problems found for a single row, or for the whole batch.
type ValidationError struct {
	Row      Row      `json:"row"`
	Messages []string `json:"messages"`
}
