// Package page loads grid page definitions and keeps the compiled pages in a
// process-wide registry.
//
// A page definition is a YAML document naming the page, its columns and the
// remote functions it serves:
//
//	name: bpa100n
//	group: BPA
//	title: Program master
//	procedures:
//	  UfnQuery: {function: bpa100n_query, kind: query}
//	  UfnSave:  {function: bpa100n_save,  kind: save}
//	columns:
//	  - {field: ID_PGM, caption: Program ID, colType: STR|PK|M}
package page

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/JonMunkholm/gridform/internal/schema"
)

// Default function names used by legacy calls that carry none.
const (
	DefaultQueryFunc = "UfnQuery"
	DefaultSaveFunc  = "UfnSave"
	DefaultComboFunc = "CreateCombo"
)

// Kind classifies what a procedure does with a call.
type Kind string

const (
	KindQuery Kind = "query" // returns rows in rsData01
	KindSave  Kind = "save"  // applies SaveData rows in a transaction
	KindCombo Kind = "combo" // returns option lists per combo code
)

// Procedure binds a remote function name to a database function.
type Procedure struct {
	Function string `yaml:"function" json:"function"`
	Kind     Kind   `yaml:"kind" json:"kind"`
	// Outputs lists extra named payloads (rsData02, ...) filled by
	// additional database functions, in order.
	Outputs []string `yaml:"outputs" json:"outputs,omitempty"`
}

// Definition is a page as written on disk.
type Definition struct {
	Name       string               `yaml:"name"`
	Group      string               `yaml:"group"`
	Title      string               `yaml:"title"`
	Procedures map[string]Procedure `yaml:"procedures"`
	Combos     []string             `yaml:"combos"`
	Columns    []schema.Declaration `yaml:"columns"`
}

// Page is a compiled definition.
type Page struct {
	Name       string               `json:"name"`
	Group      string               `json:"group,omitempty"`
	Title      string               `json:"title,omitempty"`
	Procedures map[string]Procedure `json:"procedures"`
	Combos     []string             `json:"combos,omitempty"`
	Columns    []schema.Descriptor  `json:"columns"`

	// SchemaCodes maps each leaf field to the schema code of its raw colType.
	SchemaCodes map[string]string `json:"schemaCodes,omitempty"`
}

// Info is the summary used in page listings.
type Info struct {
	Name      string   `json:"name"`
	Group     string   `json:"group,omitempty"`
	Title     string   `json:"title,omitempty"`
	Functions []string `json:"functions"`
}

// Info summarizes the page.
func (p *Page) Info() Info {
	return Info{
		Name:      p.Name,
		Group:     p.Group,
		Title:     p.Title,
		Functions: p.FunctionNames(),
	}
}

// FunctionNames returns the page's remote function names, sorted.
func (p *Page) FunctionNames() []string {
	names := make([]string, 0, len(p.Procedures))
	for n := range p.Procedures {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the procedure for a remote function name. An empty name
// picks the page's default: the save function when a payload is present,
// the query function otherwise.
func (p *Page) Resolve(funcName string, hasPayload bool) (string, Procedure, bool) {
	if funcName == "" {
		funcName = DefaultQueryFunc
		if hasPayload {
			funcName = DefaultSaveFunc
		}
	}
	proc, ok := p.Procedures[funcName]
	return funcName, proc, ok
}

// SchemaCodes returns the schema code of every leaf column, keyed by field.
func (d *Definition) SchemaCodes() map[string]string {
	codes := make(map[string]string)
	collectSchemaCodes(d.Columns, codes)
	return codes
}

func collectSchemaCodes(decls []schema.Declaration, codes map[string]string) {
	for _, decl := range decls {
		if len(decl.Columns) > 0 {
			collectSchemaCodes(decl.Columns, codes)
			continue
		}
		if decl.Field != "" {
			codes[decl.Field] = schema.SchemaCode(decl.ColType)
		}
	}
}

// SaveColumns returns the leaf columns written by saves.
func (p *Page) SaveColumns() []schema.Descriptor {
	return schema.FlattenColumns(p.Columns, true)
}

// identRe matches names safe to splice into SQL as identifiers.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdentifier reports whether s is a plain or schema-qualified SQL identifier.
func ValidIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// Validate checks a definition before it is compiled.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("page name is required")
	}
	if !ValidIdentifier(d.Name) {
		return fmt.Errorf("page %q: name must be an identifier", d.Name)
	}
	if len(d.Procedures) == 0 {
		return fmt.Errorf("page %q: at least one procedure is required", d.Name)
	}
	for name, proc := range d.Procedures {
		switch proc.Kind {
		case KindQuery, KindSave, KindCombo:
		default:
			return fmt.Errorf("page %q: procedure %s: unknown kind %q", d.Name, name, proc.Kind)
		}
		if !ValidIdentifier(proc.Function) {
			return fmt.Errorf("page %q: procedure %s: invalid function %q", d.Name, name, proc.Function)
		}
		for _, out := range proc.Outputs {
			if !ValidIdentifier(out) {
				return fmt.Errorf("page %q: procedure %s: invalid output function %q", d.Name, name, out)
			}
		}
	}
	return nil
}
