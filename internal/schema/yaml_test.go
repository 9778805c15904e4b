package schema

import (
	"testing"

	"gopkg.in/yaml.v3"
)

const pageColumns = `
- field: ID_PGM
  caption: Program ID
  colType: STR|L|PK|M
  captionCss: bold wide
  validators: code:special(_-)
- caption: [Period, From]
  columns:
    - field: DT_FROM
      colType: DATE|C
    - field: YN_USE
      combo: 2
      customFormat: YN
- field: CD_DIV
  inputCombo:
    - {CODE: "10", NAME: Seoul}
    - {value: "20", text: Busan}
    - "30"
  validators:
    - number
    - {rule: code, message: Codes only}
  cellTemplate: link
`

func TestDeclaration_UnmarshalYAML(t *testing.T) {
	var decls []Declaration
	if err := yaml.Unmarshal([]byte(pageColumns), &decls); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decls) != 3 {
		t.Fatalf("expected 3 declarations, got %d", len(decls))
	}

	first := decls[0]
	if first.Caption.Text() != "Program ID" {
		t.Errorf("caption = %q", first.Caption.Text())
	}
	if first.CaptionCSS.String() != "bold wide" {
		t.Errorf("captionCss = %v", first.CaptionCSS)
	}
	if len(first.Validators) != 1 || first.Validators[0].Name != "code:special(_-)" {
		t.Errorf("validators = %+v", first.Validators)
	}

	group := decls[1]
	if len(group.Caption) != 2 || group.Caption.Text() != "Period" {
		t.Errorf("group caption = %v", group.Caption)
	}
	if len(group.Columns) != 2 {
		t.Fatalf("expected 2 nested columns, got %d", len(group.Columns))
	}
	yn := group.Columns[1]
	if yn.Combo == nil || yn.Combo.Index == nil || *yn.Combo.Index != 2 {
		t.Errorf("combo = %+v", yn.Combo)
	}

	div := decls[2]
	if div.InputCombo == nil || len(div.InputCombo.Items) != 3 {
		t.Fatalf("inputCombo = %+v", div.InputCombo)
	}
	wantItems := []Option{{"10", "Seoul"}, {"20", "Busan"}, {"30", "30"}}
	for i, want := range wantItems {
		if div.InputCombo.Items[i] != want {
			t.Errorf("item %d = %+v, want %+v", i, div.InputCombo.Items[i], want)
		}
	}
	if len(div.Validators) != 2 || div.Validators[1].Rule != "code" || div.Validators[1].Message != "Codes only" {
		t.Errorf("validators = %+v", div.Validators)
	}
	if div.Extra["cellTemplate"] != "link" {
		t.Errorf("extra = %v", div.Extra)
	}
}

func TestDeclaration_UnmarshalYAML_Compiles(t *testing.T) {
	var decls []Declaration
	if err := yaml.Unmarshal([]byte(pageColumns), &decls); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	descs := ApplyColTypes(decls, nil)
	id := descs[0]
	if id.Constraint != ConstraintPK || id.CaptionCSS.String() != "bold wide required" {
		t.Errorf("id = %+v", id)
	}
	if len(id.Validators) != 1 || id.Validators[0].Pattern != `^[a-zA-Z0-9_\-]+$` {
		t.Errorf("id validators = %+v", id.Validators)
	}
	if descs[1].Columns[1].ComboIndex == nil {
		t.Error("combo index should stay unresolved without options")
	}
	if !descs[2].AutoComplete {
		t.Error("inputCombo should enable autocomplete")
	}
}

func TestComboSource_UnmarshalYAML_Scalar(t *testing.T) {
	var d Declaration
	if err := yaml.Unmarshal([]byte("combo: abc"), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Combo == nil || d.Combo.Index != nil {
		t.Fatalf("combo = %+v, want a literal list", d.Combo)
	}
	if len(d.Combo.Items) != 1 || d.Combo.Items[0] != (Option{Value: "abc", Text: "abc"}) {
		t.Errorf("items = %+v", d.Combo.Items)
	}

	descs := ApplyColTypes([]Declaration{d}, nil)
	if len(descs[0].Items) != 1 || descs[0].ComboIndex != nil {
		t.Errorf("descriptor = %+v", descs[0])
	}
}

func TestComboSource_UnmarshalYAML_Invalid(t *testing.T) {
	for _, src := range []string{`combo: ""`, "combo: {a: 1}"} {
		var d Declaration
		if err := yaml.Unmarshal([]byte(src), &d); err == nil {
			t.Errorf("%s: expected error", src)
		}
	}
}
