package schema

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Format renders a cell value for display.
type Format func(value any) string

// CustomFormat is a named formatter usable through the customFormat shorthand.
type CustomFormat struct {
	Format      Format
	Description string
}

const (
	iconYes = `<span class="cell-icon yes">Y</span>`
	iconNo  = `<span class="cell-icon no">N</span>`
)

// CustomFormats is the built-in formatter table.
var CustomFormats = map[string]CustomFormat{
	"YN": {
		Format: func(v any) string {
			if s, _ := v.(string); s == "N" {
				return iconNo
			}
			return iconYes
		},
		Description: "Y/N icon; N is no",
	},
	"YN_0": {
		Format: func(v any) string {
			if s, _ := v.(string); s == "0" {
				return iconNo
			}
			return iconYes
		},
		Description: "Y/N icon; 0 is no",
	},
	"CHECK": {
		Format: func(v any) string {
			switch s, _ := v.(string); s {
			case "O", "Y", "1":
				return `<span class="cell-icon yes">✓</span>`
			}
			return `<span class="cell-icon no">✗</span>`
		},
		Description: "check mark for O, Y or 1",
	},
	"NUMBER": {
		Format:      func(v any) string { return formatNumber(v, "") },
		Description: "thousands separators",
	},
	"CURRENCY": {
		Format:      func(v any) string { return formatNumber(v, "원") },
		Description: "thousands separators with a won suffix",
	},
}

var numberPrinter = message.NewPrinter(language.Korean)

func formatNumber(v any, suffix string) string {
	if v == nil {
		return ""
	}
	var n float64
	switch t := v.(type) {
	case string:
		if t == "" {
			return ""
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
		if err != nil {
			return t
		}
		n = f
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case int32:
		n = float64(t)
	default:
		return fmt.Sprint(v)
	}
	return numberPrinter.Sprint(number.Decimal(n, number.MaxFractionDigits(3))) + suffix
}
