package schema

import (
	"strconv"
	"strings"
)

// WidthPresets maps named width tokens to pixel widths.
var WidthPresets = map[string]int{
	"XS":   50,
	"S":    80,
	"M":    120,
	"XM":   150,
	"XL":   200,
	"XXL":  250,
	"XXXL": 300,
}

// TokenKind classifies a colType token.
type TokenKind int

const (
	TokenUnknown TokenKind = iota
	TokenWidth
	TokenDataType
	TokenAlign
	TokenPrimaryKey
	TokenRequired
	TokenExclude
	TokenHidden
	TokenReadOnly
	TokenSkipPaste
)

// Token is one classified colType token.
type Token struct {
	Kind TokenKind
	Text string // upper-cased, trimmed

	Width    int
	DataType DataType
	Calendar Calendar
	TypeCode string
	Align    Align
}

// keywordTokens holds every non-width keyword.
var keywordTokens = map[string]Token{
	"STR":        {Kind: TokenDataType, DataType: DataString, TypeCode: TypeCodeString},
	"STRING":     {Kind: TokenDataType, DataType: DataString, TypeCode: TypeCodeString},
	"NUM":        {Kind: TokenDataType, DataType: DataNumber, TypeCode: TypeCodeNumber},
	"NUMBER":     {Kind: TokenDataType, DataType: DataNumber, TypeCode: TypeCodeNumber},
	"DATE":       {Kind: TokenDataType, DataType: DataDate, Calendar: CalendarDate, TypeCode: TypeCodeString},
	"MONTH":      {Kind: TokenDataType, DataType: DataDate, Calendar: CalendarYearMonth, TypeCode: TypeCodeString},
	"L":          {Kind: TokenAlign, Align: AlignLeft},
	"LEFT":       {Kind: TokenAlign, Align: AlignLeft},
	"C":          {Kind: TokenAlign, Align: AlignCenter},
	"CENTER":     {Kind: TokenAlign, Align: AlignCenter},
	"R":          {Kind: TokenAlign, Align: AlignRight},
	"RIGHT":      {Kind: TokenAlign, Align: AlignRight},
	"PK":         {Kind: TokenPrimaryKey},
	"PRIMARYKEY": {Kind: TokenPrimaryKey},
	"NN":         {Kind: TokenRequired},
	"REQ":        {Kind: TokenRequired},
	"REQUIRED":   {Kind: TokenRequired},
	"EX":         {Kind: TokenExclude},
	"EXCLUDE":    {Kind: TokenExclude},
	"H":          {Kind: TokenHidden},
	"HIDE":       {Kind: TokenHidden},
	"HIDDEN":     {Kind: TokenHidden},
	"RO":         {Kind: TokenReadOnly},
	"READONLY":   {Kind: TokenReadOnly},
	"SP":         {Kind: TokenSkipPaste},
	"SKIPPASTE":  {Kind: TokenSkipPaste},
}

// Tokenize splits a colType string into classified tokens, preserving order.
// Empty segments are dropped; unrecognized ones become TokenUnknown.
func Tokenize(colType string) []Token {
	if colType == "" {
		return nil
	}
	parts := strings.Split(strings.ToUpper(colType), "|")
	tokens := make([]Token, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tokens = append(tokens, classify(p))
	}
	return tokens
}

func classify(text string) Token {
	if isDigits(text) {
		if n, err := strconv.Atoi(text); err == nil {
			return Token{Kind: TokenWidth, Text: text, Width: n}
		}
		return Token{Kind: TokenUnknown, Text: text}
	}
	if w, ok := WidthPresets[text]; ok {
		return Token{Kind: TokenWidth, Text: text, Width: w}
	}
	if tok, ok := keywordTokens[text]; ok {
		tok.Text = text
		return tok
	}
	return Token{Kind: TokenUnknown, Text: text}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// Attributes is the compiled form of a colType string. Flags only record
// that a token was seen; the zero value means "colType says nothing".
type Attributes struct {
	DataType DataType
	Calendar Calendar
	TypeCode string
	Align    Align
	Width    int
	HasWidth bool

	Required     bool
	SkipPaste    bool
	IsPrimaryKey bool
	SaveExclude  bool
	Hidden       bool
	ReadOnly     bool

	Constraint Constraint
}

// ParseColType compiles a colType string.
func ParseColType(colType string) Attributes {
	return Compile(Tokenize(colType))
}

// Compile folds tokens into attributes in order. Single-value attributes
// take the last token; the constraint slot goes to the first claimant.
func Compile(tokens []Token) Attributes {
	var a Attributes
	claim := func(c Constraint) {
		if a.Constraint == ConstraintNone {
			a.Constraint = c
		}
	}

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenWidth:
			a.Width = tok.Width
			a.HasWidth = true
		case TokenDataType:
			a.DataType = tok.DataType
			a.Calendar = tok.Calendar
			a.TypeCode = tok.TypeCode
		case TokenAlign:
			a.Align = tok.Align
		case TokenPrimaryKey:
			a.Required = true
			a.SkipPaste = true
			a.IsPrimaryKey = true
			claim(ConstraintPK)
		case TokenRequired:
			a.Required = true
			claim(ConstraintNN)
		case TokenExclude:
			a.SaveExclude = true
			claim(ConstraintEX)
		case TokenHidden:
			a.Hidden = true
		case TokenReadOnly:
			a.ReadOnly = true
		case TokenSkipPaste:
			a.SkipPaste = true
		}
	}
	return a
}

// SaveCode returns the save schema code for the attributes.
func (a Attributes) SaveCode() string {
	if a.Constraint == ConstraintNone && a.TypeCode == "" {
		return ""
	}
	return string(a.Constraint) + schemaSeparator + a.TypeCode
}

// String renders the attributes as a canonical colType string.
// Parsing the result yields the same attributes.
func (a Attributes) String() string {
	var parts []string
	if a.Constraint != ConstraintNone {
		parts = append(parts, string(a.Constraint))
	}
	if a.IsPrimaryKey && a.Constraint != ConstraintPK {
		parts = append(parts, "PK")
	}
	if a.Required && !a.IsPrimaryKey && a.Constraint != ConstraintNN {
		parts = append(parts, "NN")
	}
	if a.SaveExclude && a.Constraint != ConstraintEX {
		parts = append(parts, "EX")
	}

	switch {
	case a.DataType == DataDate && a.Calendar == CalendarYearMonth:
		parts = append(parts, "MONTH")
	case a.DataType == DataDate:
		parts = append(parts, "DATE")
	case a.DataType == DataNumber:
		parts = append(parts, "NUM")
	case a.DataType == DataString:
		parts = append(parts, "STR")
	}

	switch a.Align {
	case AlignLeft:
		parts = append(parts, "L")
	case AlignCenter:
		parts = append(parts, "C")
	case AlignRight:
		parts = append(parts, "R")
	}

	if a.HasWidth {
		parts = append(parts, strconv.Itoa(a.Width))
	}
	if a.Hidden {
		parts = append(parts, "H")
	}
	if a.ReadOnly {
		parts = append(parts, "RO")
	}
	if a.SkipPaste && !a.IsPrimaryKey {
		parts = append(parts, "SP")
	}
	return strings.Join(parts, "|")
}

// SchemaCode summarizes a raw colType string as its exact PK, NN, EX and RO
// tokens followed by a BEL and the first data type token (default STR).
func SchemaCode(colType string) string {
	if colType == "" {
		return schemaSeparator + TypeCodeString
	}

	seen := make(map[string]bool)
	var order []string
	for _, p := range strings.Split(strings.ToUpper(colType), "|") {
		p = strings.TrimSpace(p)
		seen[p] = true
		order = append(order, p)
	}

	var b strings.Builder
	for _, c := range []string{"PK", "NN", "EX", "RO"} {
		if seen[c] {
			b.WriteString(c)
		}
	}

	b.WriteString(schemaSeparator)
	b.WriteString(firstDataType(order))
	return b.String()
}

func firstDataType(parts []string) string {
	for _, p := range parts {
		switch p {
		case "STR", "INT", "NUM", "DATE", "FLOAT", "DECIMAL":
			return p
		}
	}
	return TypeCodeString
}
