package model

import "testing"

func TestParseConfirmation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Confirmation
	}{
		{"yes", "yes", ConfirmationConfirm},
		{"yes padded upper", "  YES\n", ConfirmationConfirm},
		{"no", "No", ConfirmationDecline},
		{"maybe", "maybe", ConfirmationMalformed},
		{"empty", "", ConfirmationMalformed},
		{"json confirm", `{"confirm": true}`, ConfirmationConfirm},
		{"json decline", `{"confirm": false}`, ConfirmationDecline},
		{"json missing field", `{"answer": "yes"}`, ConfirmationMalformed},
		{"json broken", `{"confirm": tru`, ConfirmationMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseConfirmation([]byte(tt.in)); got != tt.want {
				t.Errorf("ParseConfirmation(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExportRequest_SuggestedFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  ExportRequest
		want string
	}{
		{"all csv", ExportRequest{AdminName: "root", FileName: "x.csv", Scope: ScopeAll, Format: FormatCSV}, "root_all.csv"},
		{"one xml", ExportRequest{AdminName: "root", FileName: "users.csv", Scope: ScopeSingle, Format: FormatXML}, "root_users.xml"},
		{"one keeps inner dots", ExportRequest{AdminName: "a", FileName: "q1.users.xlsx", Scope: ScopeSingle, Format: FormatJSON}, "a_q1.users.json"},
		{"one no ext", ExportRequest{AdminName: "a", FileName: "users", Scope: ScopeSingle, Format: FormatXLSX}, "a_users.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.req.SuggestedFileName(); got != tt.want {
				t.Errorf("SuggestedFileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat_IsValid(t *testing.T) {
	t.Parallel()

	for _, f := range []Format{FormatCSV, FormatXLSX, FormatJSON, FormatXML} {
		if !f.IsValid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if Format("pdf").IsValid() {
		t.Error("pdf should be invalid")
	}
	if !ScopeAll.IsValid() || !ScopeSingle.IsValid() || Scope("some").IsValid() {
		t.Error("unexpected scope validity")
	}
}
