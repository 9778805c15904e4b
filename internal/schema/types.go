package schema

import "strings"

// DataType is the value type of a column.
type DataType string

const (
	DataString DataType = "string"
	DataNumber DataType = "number"
	DataDate   DataType = "date"
)

// Calendar is the picker granularity of a date column.
type Calendar string

const (
	CalendarDate      Calendar = "date"
	CalendarYearMonth Calendar = "yearMonth"
)

// Align is the horizontal cell alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Constraint is the single-slot save classification of a column.
// It is always one of ConstraintNone, ConstraintPK, ConstraintNN or ConstraintEX.
type Constraint string

const (
	ConstraintNone Constraint = ""
	ConstraintPK   Constraint = "PK"
	ConstraintNN   Constraint = "NN"
	ConstraintEX   Constraint = "EX"
)

// Type codes used in the save schema code.
const (
	TypeCodeString = "STR"
	TypeCodeNumber = "NUM"
)

// schemaSeparator separates the constraint and type code in a save schema code.
const schemaSeparator = "\x07"

// Column types set by combo shorthands and date tokens.
const (
	TypeCombo = "combo"
	TypeDate  = "date"
)

// RequiredClass is appended to the caption classes of required columns.
const RequiredClass = "required"

// Declaration is a raw column declaration as written in a page definition.
//
// Pointer fields and non-empty strings are explicit values that override
// whatever the colType string compiles to.
type Declaration struct {
	Field        string         `yaml:"field"`
	Caption      Caption        `yaml:"caption"`
	ColType      string         `yaml:"colType"`
	Columns      []Declaration  `yaml:"columns"`
	Combo        *ComboSource   `yaml:"combo"`
	InputCombo   *ComboSource   `yaml:"inputCombo"`
	CustomFormat string         `yaml:"customFormat"`
	CaptionCSS   ClassList      `yaml:"captionCss"`
	Validators   ValidatorDecls `yaml:"validators"`

	Type         string   `yaml:"type"`
	DataType     DataType `yaml:"dataType"`
	Calendar     Calendar `yaml:"calendarType"`
	Align        Align    `yaml:"align"`
	Width        *int     `yaml:"width"`
	Required     *bool    `yaml:"required"`
	IsPrimaryKey *bool    `yaml:"isPrimaryKey"`
	SaveExclude  *bool    `yaml:"saveExclude"`
	Editable     *bool    `yaml:"editable"`
	Visible      *bool    `yaml:"visible"`
	SkipPaste    *bool    `yaml:"skipPaste"`

	// Extra holds keys this package does not interpret (cell templates,
	// group titles, ...). They are carried to the descriptor untouched.
	Extra map[string]any `yaml:",inline"`
}

// Descriptor is a compiled column.
type Descriptor struct {
	Field        string     `json:"field,omitempty"`
	Caption      string     `json:"caption,omitempty"`
	Type         string     `json:"type,omitempty"`
	DataType     DataType   `json:"dataType,omitempty"`
	Calendar     Calendar   `json:"calendarType,omitempty"`
	Align        Align      `json:"align,omitempty"`
	Width        int        `json:"width,omitempty"`
	Required     bool       `json:"required"`
	IsPrimaryKey bool       `json:"isPrimaryKey"`
	SaveExclude  bool       `json:"saveExclude"`
	Editable     bool       `json:"editable"`
	Visible      bool       `json:"visible"`
	SkipPaste    bool       `json:"skipPaste"`
	Constraint   Constraint `json:"constraint"`
	TypeCode     string     `json:"typeCode,omitempty"`
	CaptionCSS   ClassList  `json:"captionCss,omitempty"`
	Validators   []Rule     `json:"validators,omitempty"`

	Items        []Option `json:"items,omitempty"`
	ComboIndex   *int     `json:"comboIndex,omitempty"` // unresolved combo reference
	AutoComplete bool     `json:"autoComplete,omitempty"`

	FormatName string `json:"format,omitempty"`
	Format     Format `json:"-"`

	Columns []Descriptor   `json:"columns,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// IsGroup reports whether d is a header group rather than a data column.
func (d Descriptor) IsGroup() bool {
	return len(d.Columns) > 0
}

// SaveCode returns the save schema code: constraint, a BEL separator, and the type code.
// Empty when the column carries neither.
func (d Descriptor) SaveCode() string {
	if d.Constraint == ConstraintNone && d.TypeCode == "" {
		return ""
	}
	return string(d.Constraint) + schemaSeparator + d.TypeCode
}

// Caption is a column caption. Multi-row headers use more than one line.
type Caption []string

// Text returns the display caption: the first line, or the single line with
// newlines removed.
func (c Caption) Text() string {
	switch len(c) {
	case 0:
		return ""
	case 1:
		return ExtractCaption(c[0])
	default:
		return c[0]
	}
}

// ExtractCaption returns a display caption from a string or a list caption.
func ExtractCaption(caption any) string {
	switch v := caption.(type) {
	case string:
		return strings.TrimSpace(strings.ReplaceAll(v, "\n", ""))
	case []string:
		if len(v) == 0 {
			return ""
		}
		return v[0]
	case Caption:
		if len(v) == 0 {
			return ""
		}
		return v[0]
	case []any:
		if len(v) == 0 {
			return ""
		}
		s, _ := v[0].(string)
		return s
	default:
		return ""
	}
}

// ClassList is a set of CSS classes, written either as a space separated
// string or as a list.
type ClassList []string

// With returns the list with class appended, unless it is already present.
func (l ClassList) With(class string) ClassList {
	for _, c := range l {
		if c == class {
			return l
		}
	}
	out := make(ClassList, 0, len(l)+1)
	out = append(out, l...)
	return append(out, class)
}

// String joins the classes with spaces.
func (l ClassList) String() string {
	return strings.Join(l, " ")
}

// Option is a single combo entry.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Text  string `json:"text" yaml:"text"`
}

// ComboSource is a combo shorthand: an index into the page's option table or
// a literal option list.
type ComboSource struct {
	Index *int
	Items []Option
}

// ComboIndex returns a ComboSource referencing option table entry i.
func ComboIndex(i int) *ComboSource {
	return &ComboSource{Index: &i}
}

// ComboItems returns a ComboSource with a literal option list.
func ComboItems(items ...Option) *ComboSource {
	return &ComboSource{Items: items}
}
