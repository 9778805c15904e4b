package schema

import "fmt"

// OptionsProvider supplies combo option lists by table index.
type OptionsProvider interface {
	Options(index int) ([]Option, bool)
}

// StaticOptions is an in-memory option table.
type StaticOptions [][]Option

// Options implements OptionsProvider.
func (s StaticOptions) Options(index int) ([]Option, bool) {
	if index < 0 || index >= len(s) || s[index] == nil {
		return nil, false
	}
	return s[index], true
}

// OptionFromMap builds an option from a decoded object, accepting both the
// value/text and the CODE/NAME spellings.
func OptionFromMap(m map[string]any) Option {
	return Option{
		Value: firstString(m, "value", "CODE"),
		Text:  firstString(m, "text", "NAME"),
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		s := fmt.Sprint(v)
		if s != "" {
			return s
		}
	}
	return ""
}
