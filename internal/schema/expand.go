package schema

import "log/slog"

// Expander compiles column declarations into descriptors.
//
// A nil Registry means the default registry, nil Formats means
// CustomFormats, and a nil Options leaves numeric combo references
// unresolved in Descriptor.ComboIndex.
type Expander struct {
	Registry *Registry
	Options  OptionsProvider
	Formats  map[string]CustomFormat
	Logger   *slog.Logger
}

// ApplyColTypes expands decls with the default registry and formats.
func ApplyColTypes(decls []Declaration, options OptionsProvider) []Descriptor {
	e := &Expander{Options: options}
	return e.Expand(decls)
}

// Expand compiles each declaration, recursing into nested groups.
// It never fails: unknown tokens, formats and validators degrade to no effect.
func (e *Expander) Expand(decls []Declaration) []Descriptor {
	if decls == nil {
		return nil
	}
	out := make([]Descriptor, 0, len(decls))
	for _, d := range decls {
		out = append(out, e.expand(d))
	}
	return out
}

func (e *Expander) expand(d Declaration) Descriptor {
	desc := Descriptor{
		Field:      d.Field,
		Caption:    d.Caption.Text(),
		Editable:   true,
		Visible:    true,
		CaptionCSS: d.CaptionCSS,
		Extra:      copyExtra(d.Extra),
	}

	if len(d.Columns) > 0 {
		desc.Columns = e.Expand(d.Columns)
	}

	if d.CustomFormat != "" {
		if f, ok := e.formats()[d.CustomFormat]; ok {
			desc.FormatName = d.CustomFormat
			desc.Format = f.Format
		} else {
			e.log().Warn("column: unknown custom format", "field", d.Field, "format", d.CustomFormat)
		}
	}

	if d.ColType != "" {
		applyAttributes(&desc, ParseColType(d.ColType))
	}

	e.applyCombo(&desc, d.Combo, false)
	e.applyCombo(&desc, d.InputCombo, true)

	applyDeclaration(&desc, d)

	if d.ColType != "" && desc.Required {
		desc.CaptionCSS = desc.CaptionCSS.With(RequiredClass)
	}

	if len(d.Validators) > 0 {
		desc.Validators = e.registry().Normalize(d.Validators)
	}
	return desc
}

func applyAttributes(desc *Descriptor, a Attributes) {
	if a.DataType != "" {
		desc.DataType = a.DataType
		desc.Calendar = a.Calendar
		desc.TypeCode = a.TypeCode
		if a.DataType == DataDate {
			desc.Type = TypeDate
		}
	}
	if a.Align != "" {
		desc.Align = a.Align
	}
	if a.HasWidth {
		desc.Width = a.Width
	}
	desc.Required = a.Required
	desc.SkipPaste = a.SkipPaste
	desc.IsPrimaryKey = a.IsPrimaryKey
	desc.SaveExclude = a.SaveExclude
	desc.Visible = !a.Hidden
	desc.Editable = !a.ReadOnly
	desc.Constraint = a.Constraint
}

func (e *Expander) applyCombo(desc *Descriptor, src *ComboSource, input bool) {
	if src == nil {
		return
	}
	desc.Type = TypeCombo
	if input {
		desc.AutoComplete = true
	}

	if src.Index == nil {
		desc.Items = src.Items
		desc.ComboIndex = nil
		return
	}

	idx := *src.Index
	if e.Options != nil {
		if items, ok := e.Options.Options(idx); ok {
			desc.Items = items
			desc.ComboIndex = nil
			return
		}
	}
	desc.Items = nil
	desc.ComboIndex = &idx
}

// applyDeclaration copies explicit declaration values over compiled ones.
func applyDeclaration(desc *Descriptor, d Declaration) {
	if d.Type != "" {
		desc.Type = d.Type
	}
	if d.DataType != "" {
		desc.DataType = d.DataType
		desc.TypeCode = TypeCodeString
		if d.DataType == DataNumber {
			desc.TypeCode = TypeCodeNumber
		}
	}
	if d.Calendar != "" {
		desc.Calendar = d.Calendar
	}
	if d.Align != "" {
		desc.Align = d.Align
	}
	if d.Width != nil {
		desc.Width = *d.Width
	}
	setBool(&desc.Required, d.Required)
	setBool(&desc.IsPrimaryKey, d.IsPrimaryKey)
	setBool(&desc.SaveExclude, d.SaveExclude)
	setBool(&desc.Editable, d.Editable)
	setBool(&desc.Visible, d.Visible)
	setBool(&desc.SkipPaste, d.SkipPaste)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func copyExtra(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FlattenColumns returns the leaf columns of descs in display order.
// With excludeEX set, save-excluded columns are skipped.
func FlattenColumns(descs []Descriptor, excludeEX bool) []Descriptor {
	var out []Descriptor
	for _, d := range descs {
		if d.IsGroup() {
			out = append(out, FlattenColumns(d.Columns, excludeEX)...)
			continue
		}
		if excludeEX && d.SaveExclude {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (e *Expander) registry() *Registry {
	if e.Registry != nil {
		return e.Registry
	}
	return defaultRegistry
}

func (e *Expander) formats() map[string]CustomFormat {
	if e.Formats != nil {
		return e.Formats
	}
	return CustomFormats
}

func (e *Expander) log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
