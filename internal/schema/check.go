package schema

// check.go validates grid rows against compiled descriptors before they are saved.
//
// Each leaf column is checked in order:
//  1. Required: a required column must not be empty
//  2. Type: number and date columns must parse
//  3. Rules: the first failing validator rule reports its message
//
// Empty optional values skip the type and rule checks.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult contains the result of checking a row.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// CheckRow checks one row and returns every problem found.
// Save-excluded and group columns are not checked.
func CheckRow(descs []Descriptor, row map[string]any) ValidationResult {
	result := ValidationResult{Valid: true}
	for _, d := range FlattenColumns(descs, true) {
		if err, ok := checkCell(d, row); !ok {
			result.Valid = false
			result.Errors = append(result.Errors, err)
		}
	}
	return result
}

// CheckRowFirst returns the first problem in row, or nil.
func CheckRowFirst(descs []Descriptor, row map[string]any) error {
	for _, d := range FlattenColumns(descs, true) {
		if err, ok := checkCell(d, row); !ok {
			return err
		}
	}
	return nil
}

func checkCell(d Descriptor, row map[string]any) (ValidationError, bool) {
	if d.Field == "" {
		return ValidationError{}, true
	}
	raw := CellString(row[d.Field])

	if raw == "" {
		if d.Required {
			label := d.Caption
			if label == "" {
				label = d.Field
			}
			return ValidationError{
				Field:   d.Field,
				Message: fmt.Sprintf("%s is required", label),
			}, false
		}
		return ValidationError{}, true
	}

	if err := CheckValue(raw, d); err != nil {
		return ValidationError{Field: d.Field, Value: raw, Message: err.Error()}, false
	}
	return ValidationError{}, true
}

// CheckValue validates a non-empty cell value against a descriptor's type
// and validator rules.
func CheckValue(value string, d Descriptor) error {
	switch d.DataType {
	case DataNumber:
		if _, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64); err != nil {
			return fmt.Errorf("invalid number format")
		}
	case DataDate:
		if !isDate(value, d.Calendar) {
			if d.Calendar == CalendarYearMonth {
				return fmt.Errorf("invalid month format (use YYYYMM or YYYY-MM)")
			}
			return fmt.Errorf("invalid date format (use YYYYMMDD or YYYY-MM-DD)")
		}
	}

	for _, rule := range d.Validators {
		if !rule.Check(value) {
			return errors.New(rule.Message)
		}
	}
	return nil
}

var (
	dateLayouts  = []string{"20060102", "2006-01-02", "2006/01/02", "2006.01.02"}
	monthLayouts = []string{"200601", "2006-01", "2006/01", "2006.01"}
)

func isDate(value string, cal Calendar) bool {
	layouts := dateLayouts
	if cal == CalendarYearMonth {
		layouts = monthLayouts
	}
	for _, layout := range layouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// CellString renders a decoded cell value as trimmed text.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
