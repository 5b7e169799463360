package model

import (
	"encoding/json"
	"testing"
)

func TestRecord_UnmarshalJSON_Stringifies(t *testing.T) {
	t.Parallel()

	var r Record
	data := `{"id": 7, "name": "Anna", "email": "a@x.com", "phone": 123456, "created_at": "01/01/2020"}`
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if Value(r.ID) != "7" {
		t.Errorf("ID = %q, want 7", Value(r.ID))
	}
	if Value(r.Phone) != "123456" {
		t.Errorf("Phone = %q, want 123456", Value(r.Phone))
	}
	if Value(r.Name) != "Anna" {
		t.Errorf("Name = %q, want Anna", Value(r.Name))
	}
	for _, col := range RequiredColumns {
		if !r.HasColumn(col) {
			t.Errorf("HasColumn(%q) = false, want true", col)
		}
	}
}

func TestRecord_UnmarshalJSON_NullKeepsColumn(t *testing.T) {
	t.Parallel()

	var r Record
	if err := json.Unmarshal([]byte(`{"id": null, "name": "A"}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if r.ID != nil {
		t.Errorf("ID = %q, want nil", *r.ID)
	}
	if !r.HasColumn(ColumnID) {
		t.Error("null id should still count as a present column")
	}
	if r.HasColumn(ColumnEmail) {
		t.Error("email column should be absent")
	}
}

func TestRecord_UnmarshalJSON_FloatLiteral(t *testing.T) {
	t.Parallel()

	var r Record
	if err := json.Unmarshal([]byte(`{"phone": 1.5e3}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if Value(r.Phone) != "1.5e3" {
		t.Errorf("Phone = %q, want literal 1.5e3", Value(r.Phone))
	}
}

func TestRecord_UnmarshalJSON_RejectsNonObject(t *testing.T) {
	t.Parallel()

	var r Record
	if err := json.Unmarshal([]byte(`[1,2]`), &r); err == nil {
		t.Error("expected error for array record")
	}
}

func TestImportBatch_Columns_Union(t *testing.T) {
	t.Parallel()

	var b ImportBatch
	payload := `{"adminname":"root","filename":"u.csv","data":[{"id":1},{"name":"x"}]}`
	if err := json.Unmarshal([]byte(payload), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	cols := b.Columns()
	if len(cols) != 2 {
		t.Fatalf("len(Columns) = %d, want 2", len(cols))
	}
	if _, ok := cols[ColumnID]; !ok {
		t.Error("missing id in union")
	}
	if _, ok := cols[ColumnName]; !ok {
		t.Error("missing name in union")
	}
}

func TestFileExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"csv", "users.csv", "csv"},
		{"upper", "USERS.XLSX", "xlsx"},
		{"double", "archive.tar.csv", "csv"},
		{"none", "users", "users"},
		{"trailing dot", "users.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FileExtension(tt.in); got != tt.want {
				t.Errorf("FileExtension(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRow_MarshalJSON(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal([]ValidationError{
		{Row: RowAll, Messages: []string{"Missing column 'id'"}},
		{Row: 3, Messages: []string{"Missing data in 'name'"}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `[{"row":"all","messages":["Missing column 'id'"]},{"row":3,"messages":["Missing data in 'name'"]}]`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}
}
