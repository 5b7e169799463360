package validation

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/recordport/recordport/internal/model"
)

func decodeRecords(t *testing.T, payload string) []model.Record {
	t.Helper()
	var records []model.Record
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	return records
}

func TestValidate_ValidBatch(t *testing.T) {
	t.Parallel()

	records := []model.Record{
		model.NewRecord("1", "A", "a@x.com", "1", "01/01/2020"),
		model.NewRecord("2", "B", "b@example.org", "", "31/12/2024"),
	}

	if errs := Validate(records); len(errs) != 0 {
		t.Errorf("expected no errors, got %+v", errs)
	}
}

func TestValidate_InvalidEmail(t *testing.T) {
	t.Parallel()

	records := []model.Record{
		model.NewRecord("1", "A", "not-an-email", "1", "01/01/2020"),
	}

	got := Validate(records)
	want := []model.ValidationError{
		{Row: 1, Messages: []string{"Invalid email format: not-an-email"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Validate() = %+v, want %+v", got, want)
	}
}

func TestValidate_MissingColumnsShortCircuit(t *testing.T) {
	t.Parallel()

	records := decodeRecords(t, `[
		{"id": 1, "name": "A", "email": "bad", "created_at": "nope"},
		{"id": 2, "name": "", "email": "b@x.com", "created_at": "01/01/2020"}
	]`)

	got := Validate(records)
	want := []model.ValidationError{
		{Row: model.RowAll, Messages: []string{"Missing column 'phone'"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Validate() = %+v, want %+v", got, want)
	}
}

func TestValidate_AllColumnsMissingInSchemaOrder(t *testing.T) {
	t.Parallel()

	records := decodeRecords(t, `[{"other": "x"}]`)

	got := Validate(records)
	if len(got) != 1 {
		t.Fatalf("len(errors) = %d, want 1", len(got))
	}
	want := []string{
		"Missing column 'id'",
		"Missing column 'name'",
		"Missing column 'email'",
		"Missing column 'phone'",
		"Missing column 'created_at'",
	}
	if !reflect.DeepEqual(got[0].Messages, want) {
		t.Errorf("messages = %v, want %v", got[0].Messages, want)
	}
}

func TestValidate_ColumnPresentOnAnyRowCounts(t *testing.T) {
	t.Parallel()

	// phone only appears on the second row, so the column exists for the batch.
	records := decodeRecords(t, `[
		{"id": 1, "name": "A", "email": "a@x.com", "created_at": "01/01/2020"},
		{"id": 2, "name": "B", "email": "b@x.com", "phone": "5", "created_at": "02/01/2020"}
	]`)

	if errs := Validate(records); len(errs) != 0 {
		t.Errorf("expected no errors, got %+v", errs)
	}
}

func TestValidate_RowIsolation(t *testing.T) {
	t.Parallel()

	records := []model.Record{
		model.NewRecord("1", "A", "a@x.com", "1", "01/01/2020"),
		model.NewRecord("", " ", "a@x.com", "1", "2020-01-01"),
		model.NewRecord("3", "C", "c@x.com", "1", "05/05/2021"),
	}

	got := Validate(records)
	want := []model.ValidationError{
		{Row: 2, Messages: []string{
			"Missing data in 'id'",
			"Missing data in 'name'",
			"Invalid date format (expected dd/mm/YYYY): 2020-01-01",
		}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Validate() = %+v, want %+v", got, want)
	}
}

func TestValidate_NullCells(t *testing.T) {
	t.Parallel()

	records := decodeRecords(t, `[{"id": 1, "name": "A", "email": null, "phone": null, "created_at": null}]`)

	got := Validate(records)
	want := []model.ValidationError{
		{Row: 1, Messages: []string{
			"Missing data in 'email'",
			"Missing data in 'created_at'",
			"Invalid email format: ",
			"Invalid date format (expected dd/mm/YYYY): ",
		}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Validate() = %+v, want %+v", got, want)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	t.Parallel()

	records := []model.Record{
		model.NewRecord("1", "", "x", "1", "32/01/2020"),
		model.NewRecord("2", "B", "b@x.com", "1", "1/2/2020"),
	}

	first := Validate(records)
	for i := 0; i < 5; i++ {
		if again := Validate(records); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestIsDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"31/12/2024", true},
		{"01/01/2020", true},
		{"1/2/2020", true},
		{"29/02/2024", true},
		{"29/02/2023", false},
		{"12/31/2024", false},
		{"2024-12-31", false},
		{"31/12/24", false},
		{"", false},
		{" 01/01/2020", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := IsDate(tt.in); got != tt.want {
				t.Errorf("IsDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"a@x.com", true},
		{"first.last+tag@sub.example.org", true},
		{"not-an-email", false},
		{"@x.com", false},
		{"a@", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := IsEmail(tt.in); got != tt.want {
				t.Errorf("IsEmail(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
