package schema

import (
	"testing"
)

// ============================================================================
// ParseColType Tests
// ============================================================================

func TestParseColType(t *testing.T) {
	tests := []struct {
		name    string
		colType string
		want    Attributes
	}{
		{
			name:    "string left required medium",
			colType: "STR|L|NN|M",
			want: Attributes{
				DataType: DataString, TypeCode: TypeCodeString, Align: AlignLeft,
				Width: 120, HasWidth: true, Required: true, Constraint: ConstraintNN,
			},
		},
		{
			name:    "PK before NN claims PK",
			colType: "STR|PK|NN",
			want: Attributes{
				DataType: DataString, TypeCode: TypeCodeString,
				Required: true, SkipPaste: true, IsPrimaryKey: true, Constraint: ConstraintPK,
			},
		},
		{
			name:    "NN before PK claims NN",
			colType: "NN|PK",
			want: Attributes{
				Required: true, SkipPaste: true, IsPrimaryKey: true, Constraint: ConstraintNN,
			},
		},
		{
			name:    "EX before NN claims EX",
			colType: "EX|NN",
			want:    Attributes{Required: true, SaveExclude: true, Constraint: ConstraintEX},
		},
		{
			name:    "lower case and spaces",
			colType: " num | r | xl ",
			want: Attributes{
				DataType: DataNumber, TypeCode: TypeCodeNumber, Align: AlignRight,
				Width: 200, HasWidth: true,
			},
		},
		{
			name:    "month calendar with literal width",
			colType: "MONTH|C|80",
			want: Attributes{
				DataType: DataDate, Calendar: CalendarYearMonth, TypeCode: TypeCodeString,
				Align: AlignCenter, Width: 80, HasWidth: true,
			},
		},
		{
			name:    "date",
			colType: "DATE",
			want:    Attributes{DataType: DataDate, Calendar: CalendarDate, TypeCode: TypeCodeString},
		},
		{
			name:    "last align wins",
			colType: "L|R",
			want:    Attributes{Align: AlignRight},
		},
		{
			name:    "last width wins",
			colType: "XS|300",
			want:    Attributes{Width: 300, HasWidth: true},
		},
		{
			name:    "flags",
			colType: "HIDDEN|READONLY|SKIPPASTE",
			want:    Attributes{Hidden: true, ReadOnly: true, SkipPaste: true},
		},
		{
			name:    "unknown tokens ignored",
			colType: "BOGUS|STR|12px|",
			want:    Attributes{DataType: DataString, TypeCode: TypeCodeString},
		},
		{
			name:    "empty",
			colType: "",
			want:    Attributes{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseColType(tt.colType)
			if got != tt.want {
				t.Errorf("ParseColType(%q) = %+v, want %+v", tt.colType, got, tt.want)
			}
		})
	}
}

func TestParseColType_Idempotent(t *testing.T) {
	inputs := []string{
		"STR|L|NN|M",
		"STR|PK|NN",
		"NN|PK",
		"EX|NN",
		"PK|EX|SP",
		"NUMBER|RIGHT|XXXL|H|RO",
		"MONTH|C|0",
		"DATE|REQ|EXCLUDE",
		"bogus",
		"",
	}

	for _, in := range inputs {
		first := ParseColType(in)
		second := ParseColType(first.String())
		if first != second {
			t.Errorf("re-parsing %q via %q changed attributes: %+v -> %+v", in, first.String(), first, second)
		}
		if again := second.String(); again != first.String() {
			t.Errorf("String() not stable for %q: %q vs %q", in, first.String(), again)
		}
	}
}

func TestTokenize_PreservesOrder(t *testing.T) {
	tokens := Tokenize("pk|nn|ex")
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	wantKinds := []TokenKind{TokenPrimaryKey, TokenRequired, TokenExclude}
	for i, tok := range tokens {
		if tok.Kind != wantKinds[i] {
			t.Errorf("token %d kind = %v, want %v", i, tok.Kind, wantKinds[i])
		}
	}
	if tokens[0].Text != "PK" {
		t.Errorf("token text = %q, want upper-cased %q", tokens[0].Text, "PK")
	}
}

// ============================================================================
// Save Code Tests
// ============================================================================

func TestAttributes_SaveCode(t *testing.T) {
	tests := []struct {
		colType string
		want    string
	}{
		{"NUM|NN", "NN\x07NUM"},
		{"PK|STR", "PK\x07STR"},
		{"DATE", "\x07STR"},
		{"EX", "EX\x07"},
		{"L|M", ""},
	}

	for _, tt := range tests {
		if got := ParseColType(tt.colType).SaveCode(); got != tt.want {
			t.Errorf("ParseColType(%q).SaveCode() = %q, want %q", tt.colType, got, tt.want)
		}
	}
}

func TestSchemaCode(t *testing.T) {
	tests := []struct {
		colType string
		want    string
	}{
		{"", "\x07STR"},
		{"STR|PK|NN", "PKNN\x07STR"},
		{"NUM|RO|EX", "EXRO\x07NUM"},
		{"L|M", "\x07STR"},
		{"date|nn", "NN\x07DATE"},
		{"NN|PK|DECIMAL|NUM", "PKNN\x07DECIMAL"},
	}

	for _, tt := range tests {
		if got := SchemaCode(tt.colType); got != tt.want {
			t.Errorf("SchemaCode(%q) = %q, want %q", tt.colType, got, tt.want)
		}
	}
}
