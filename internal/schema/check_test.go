package schema

import (
	"strings"
	"testing"
)

func checkColumns() []Descriptor {
	return ApplyColTypes([]Declaration{
		{Field: "CD", Caption: Caption{"Code"}, ColType: "STR|PK", Validators: V("code")},
		{Field: "AMT", ColType: "NUM|NN"},
		{Field: "DT", ColType: "DATE"},
		{Field: "YM", ColType: "MONTH"},
		{Field: "MEMO", ColType: "EX|NN"},
	}, nil)
}

func TestCheckRow(t *testing.T) {
	tests := []struct {
		name       string
		row        map[string]any
		wantValid  bool
		wantFields []string
	}{
		{
			name:      "valid",
			row:       map[string]any{"CD": "A1", "AMT": 1200.5, "DT": "2024-03-01", "YM": "202403"},
			wantValid: true,
		},
		{
			name:      "numeric string with separators",
			row:       map[string]any{"CD": "A1", "AMT": "1,200"},
			wantValid: true,
		},
		{
			name:       "missing required",
			row:        map[string]any{"CD": "  ", "AMT": nil},
			wantFields: []string{"CD", "AMT"},
		},
		{
			name:       "rule failure",
			row:        map[string]any{"CD": "A-1", "AMT": 1},
			wantFields: []string{"CD"},
		},
		{
			name:       "bad number and dates",
			row:        map[string]any{"CD": "A1", "AMT": "abc", "DT": "03/01/2024", "YM": "2024-13"},
			wantFields: []string{"AMT", "DT", "YM"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckRow(checkColumns(), tt.row)
			if result.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors %v)", result.Valid, tt.wantValid, result.Errors)
			}
			if len(result.Errors) != len(tt.wantFields) {
				t.Fatalf("got %d errors, want %d: %v", len(result.Errors), len(tt.wantFields), result.Errors)
			}
			for i, f := range tt.wantFields {
				if result.Errors[i].Field != f {
					t.Errorf("error %d field = %q, want %q", i, result.Errors[i].Field, f)
				}
			}
		})
	}
}

func TestCheckRow_Messages(t *testing.T) {
	result := CheckRow(checkColumns(), map[string]any{"AMT": 1})
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if got := result.Errors[0].Error(); got != "CD: Code is required" {
		t.Errorf("Error() = %q", got)
	}

	result = CheckRow(checkColumns(), map[string]any{"CD": "x y", "AMT": 1})
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Message, "letters and digits") {
		t.Errorf("errors = %v", result.Errors)
	}
}

func TestCheckRowFirst(t *testing.T) {
	if err := CheckRowFirst(checkColumns(), map[string]any{"CD": "A", "AMT": "1"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := CheckRowFirst(checkColumns(), map[string]any{"AMT": "x"})
	if err == nil || !strings.HasPrefix(err.Error(), "CD:") {
		t.Errorf("CheckRowFirst = %v, want CD error first", err)
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"  x ", "x"},
		{float64(12), "12"},
		{1.25, "1.25"},
		{true, "true"},
		{7, "7"},
	}
	for _, tt := range tests {
		if got := CellString(tt.in); got != tt.want {
			t.Errorf("CellString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
