package dataservice

import (
	"math"
	"reflect"
	"strings"
)

// NormalizeParams sanitizes positional call parameters.
//
// A non-slice input yields an empty list. Nil elements, nil pointers and NaN
// become "", strings are trimmed, and everything else passes through.
func NormalizeParams(params any) []any {
	v := reflect.ValueOf(params)
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return []any{}
	}

	out := make([]any, v.Len())
	for i := range out {
		out[i] = normalizeParam(v.Index(i).Interface())
	}
	return out
}

func normalizeParam(p any) any {
	switch t := p.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if math.IsNaN(t) {
			return ""
		}
	case float32:
		if math.IsNaN(float64(t)) {
			return ""
		}
	}

	if rv := reflect.ValueOf(p); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return ""
	}
	return p
}
