package schema

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestRegistry(buf *bytes.Buffer) *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(buf, nil)))
}

// ============================================================================
// NormalizeValidators Tests
// ============================================================================

func TestNormalizeValidators_Name(t *testing.T) {
	rules := NormalizeValidators(V("code")...)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Pattern != `^[a-zA-Z0-9]+$` {
		t.Errorf("pattern = %q, want %q", rules[0].Pattern, `^[a-zA-Z0-9]+$`)
	}
	if rules[0].Kind != RulePattern {
		t.Errorf("kind = %q, want %q", rules[0].Kind, RulePattern)
	}
	if !rules[0].Check("Abc123") || rules[0].Check("abc-123") {
		t.Error("code rule should accept letters and digits only")
	}
}

func TestNormalizeValidators_Special(t *testing.T) {
	rules := NormalizeValidators(V("code:special(_-)")...)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}

	want := `^[a-zA-Z0-9_\-]+$`
	if rules[0].Pattern != want {
		t.Errorf("pattern = %q, want %q", rules[0].Pattern, want)
	}
	if !strings.Contains(rules[0].Message, "_-") {
		t.Errorf("message %q should name the allowed characters", rules[0].Message)
	}
	if !rules[0].Check("PGM_01-a") {
		t.Error("expected underscore and hyphen to be accepted")
	}
	if rules[0].Check("PGM 01") {
		t.Error("expected space to be rejected")
	}
}

func TestNormalizeValidators_SpecialMetacharacters(t *testing.T) {
	rules := NormalizeValidators(V("code:special(.*[])")...)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}

	want := `^[a-zA-Z0-9\.\*\[\]]+$`
	if rules[0].Pattern != want {
		t.Errorf("pattern = %q, want %q", rules[0].Pattern, want)
	}
	if !rules[0].Check("a.b*[c]") {
		t.Error("expected escaped characters to be accepted literally")
	}
	if rules[0].Check("a+b") {
		t.Error("expected + to be rejected")
	}
}

func TestNormalizeValidators_Unknown(t *testing.T) {
	var buf bytes.Buffer
	reg := newTestRegistry(&buf)

	rules := reg.Normalize(V("bogus"))
	if len(rules) != 0 {
		t.Errorf("expected no rules, got %d", len(rules))
	}
	out := buf.String()
	if !strings.Contains(out, "unknown rule") || !strings.Contains(out, "bogus") {
		t.Errorf("expected a warning naming the rule, got %q", out)
	}
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("expected WARN level, got %q", out)
	}
}

func TestNormalizeValidators_OrderAndDuplicates(t *testing.T) {
	var buf bytes.Buffer
	reg := newTestRegistry(&buf)

	rules := reg.Normalize(V("number", "bogus", "code", "number"))
	var names []string
	for _, r := range rules {
		names = append(names, r.Name)
	}
	if got := strings.Join(names, ","); got != "number,code,number" {
		t.Errorf("rule order = %q, want %q", got, "number,code,number")
	}
}

func TestNormalizeValidators_ObjectForm(t *testing.T) {
	var buf bytes.Buffer
	reg := newTestRegistry(&buf)

	tests := []struct {
		name        string
		decl        ValidatorDecl
		wantName    string
		wantPattern string
		wantMessage string
	}{
		{
			name:        "message override",
			decl:        ValidatorDecl{Rule: "code", Message: "Codes only"},
			wantName:    "code",
			wantPattern: `^[a-zA-Z0-9]+$`,
			wantMessage: "Codes only",
		},
		{
			name:        "inline special",
			decl:        ValidatorDecl{Rule: "code", Special: "@"},
			wantName:    "code",
			wantPattern: `^[a-zA-Z0-9@]+$`,
			wantMessage: specialMessage("@"),
		},
		{
			name:        "special with message override",
			decl:        ValidatorDecl{Rule: "code", Special: "_", Message: "custom"},
			wantName:    "code",
			wantPattern: `^[a-zA-Z0-9_]+$`,
			wantMessage: "custom",
		},
		{
			name:        "custom inline pattern",
			decl:        ValidatorDecl{Rule: "zip", Pattern: `^\d{5}$`},
			wantName:    "zip",
			wantPattern: `^\d{5}$`,
			wantMessage: defaultRuleMessage,
		},
		{
			name:        "pattern override on registry rule",
			decl:        ValidatorDecl{Rule: "number", Pattern: `^[0-9]{3}$`},
			wantName:    "number",
			wantPattern: `^[0-9]{3}$`,
			wantMessage: "Only digits are allowed.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := reg.Normalize(ValidatorDecls{tt.decl})
			if len(rules) != 1 {
				t.Fatalf("expected 1 rule, got %d", len(rules))
			}
			r := rules[0]
			if r.Name != tt.wantName {
				t.Errorf("name = %q, want %q", r.Name, tt.wantName)
			}
			if r.Pattern != tt.wantPattern {
				t.Errorf("pattern = %q, want %q", r.Pattern, tt.wantPattern)
			}
			if r.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", r.Message, tt.wantMessage)
			}
		})
	}
}

func TestNormalizeValidators_Dropped(t *testing.T) {
	var buf bytes.Buffer
	reg := newTestRegistry(&buf)

	rules := reg.Normalize(ValidatorDecls{
		{Rule: "nope"},
		{Rule: "code", Pattern: "("},
	})
	if len(rules) != 0 {
		t.Errorf("expected no rules, got %+v", rules)
	}
	if !strings.Contains(buf.String(), "invalid pattern") {
		t.Errorf("expected invalid pattern warning, got %q", buf.String())
	}
}

func TestNormalizeValidators_MessagesNonEmpty(t *testing.T) {
	reg := NewRegistry(nil)
	rules := reg.Normalize(V(reg.Names()...))
	if len(rules) != len(builtinRules) {
		t.Fatalf("expected %d rules, got %d", len(builtinRules), len(rules))
	}
	for _, r := range rules {
		if r.Message == "" {
			t.Errorf("rule %q has an empty message", r.Name)
		}
	}
}

// ============================================================================
// Registry Tests
// ============================================================================

func TestRegistry_Jumin(t *testing.T) {
	rules := NormalizeValidators(V("jumin")...)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	r := rules[0]
	if r.Kind != RulePredicate {
		t.Errorf("kind = %q, want %q", r.Kind, RulePredicate)
	}

	tests := []struct {
		value string
		want  bool
	}{
		{"900101-1234567", true},
		{"9001011234567", true},
		{"900101-123456", false},
		{"90010a-1234567", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := r.Check(tt.value); got != tt.want {
			t.Errorf("jumin.Check(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestRegistry_Korean(t *testing.T) {
	rules := NormalizeValidators(V("korean")...)
	if !rules[0].Check("홍길동") {
		t.Error("expected Hangul to pass")
	}
	if rules[0].Check("Hong") {
		t.Error("expected Latin letters to fail")
	}
}

func TestRegistry_RegisterDuplicatePanics(t *testing.T) {
	reg := NewRegistry(nil)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	reg.Register(RuleDef{Name: "code", Pattern: ".*"})
}

func TestRegistry_CustomRule(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(RuleDef{Name: "upper", Pattern: `^[A-Z]+$`, Message: "Upper case only."})

	rules := reg.Normalize(V("upper", "upper:special(_)"))
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Message != "Upper case only." {
		t.Errorf("message = %q", rules[0].Message)
	}
	if rules[1].Pattern != `^[a-zA-Z0-9_]+$` {
		t.Errorf("special pattern = %q", rules[1].Pattern)
	}
}

func TestEscapeSpecial(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"_", "_"},
		{"-", `\-`},
		{"/\\", `\/\\`},
		{"^$", `\^\$`},
		{"(|)", `\(\|\)`},
		{"{}", `\{\}`},
		{"@#", "@#"},
	}
	for _, tt := range tests {
		if got := EscapeSpecial(tt.in); got != tt.want {
			t.Errorf("EscapeSpecial(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
