package dataservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/gridform/internal/logging"
)

// Well-known envelope fields.
const (
	FieldErrorCode = "ErrorCode"
	FieldErrorMsg  = "ErrorMsg"
	FieldCallID    = "CallID"

	// DefaultDataName is the first named data payload.
	DefaultDataName = "rsData01"
)

// Envelope is a decoded result envelope. An empty ErrorCode means success.
type Envelope map[string]any

// ParseEnvelope decodes a JSON envelope body.
func ParseEnvelope(body []byte) (Envelope, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode envelope: invalid JSON")
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("decode envelope: expected an object, got %s", parsed.Type)
	}
	m, _ := parsed.Value().(map[string]any)
	return Envelope(m), nil
}

// ErrorCode returns the envelope's error code. A missing code reads as success.
func (e Envelope) ErrorCode() string {
	return e.text(FieldErrorCode)
}

// ErrorMessage returns the envelope's error message, if any.
func (e Envelope) ErrorMessage() string {
	return e.text(FieldErrorMsg)
}

// CallID returns the server-assigned call id, if any.
func (e Envelope) CallID() string {
	return e.text(FieldCallID)
}

// OK reports whether the envelope signals success.
func (e Envelope) OK() bool {
	return e.ErrorCode() == ""
}

func (e Envelope) text(key string) string {
	switch v := e[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// ExtractData returns the named data payload of result as a list.
//
// String payloads are parsed as JSON; an empty string or a parse failure
// yields an empty list. Already-decoded lists are returned as is. When the
// field is absent and result itself is a list, result is returned. The
// returned slice is never nil.
//
// Parse failures are logged without request or call ids; use
// ExtractDataContext when a context is at hand.
func ExtractData(result any, dataName string) []any {
	return ExtractDataContext(context.Background(), result, dataName)
}

// ExtractDataContext is ExtractData logging parse failures through the
// request logger of ctx.
func ExtractDataContext(ctx context.Context, result any, dataName string) []any {
	if dataName == "" {
		dataName = DefaultDataName
	}

	if m, ok := asMap(result); ok {
		if v, present := m[dataName]; present && v != nil {
			if list, ok := decodeList(logging.FromContext(ctx), v, dataName); ok {
				return list
			}
		}
	}

	if list, ok := result.([]any); ok {
		return list
	}
	return []any{}
}

// decodeList converts a payload into a list. The second return is false
// when the payload decoded cleanly but is not a list.
func decodeList(logger *slog.Logger, v any, dataName string) ([]any, bool) {
	switch t := v.(type) {
	case string:
		return parseList(logger, []byte(t), dataName)
	case []byte:
		return parseList(logger, t, dataName)
	case json.RawMessage:
		return parseList(logger, t, dataName)
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, row := range t {
			out[i] = row
		}
		return out, true
	}
	return nil, false
}

func parseList(logger *slog.Logger, raw []byte, dataName string) ([]any, bool) {
	if len(raw) == 0 {
		return []any{}, true
	}
	if !gjson.ValidBytes(raw) {
		logger.Error("dataservice: failed to parse data field", "field", dataName, "bytes", len(raw))
		return []any{}, true
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsArray() {
		return nil, false
	}
	list, _ := parsed.Value().([]any)
	if list == nil {
		list = []any{}
	}
	return list, true
}

// DecodeField returns the named payload JSON-decoded when it is a valid JSON
// string, and the raw value otherwise. Missing and empty fields return nil.
func DecodeField(env Envelope, dataName string) any {
	v, ok := env[dataName]
	if !ok || v == nil {
		return nil
	}
	s, isString := v.(string)
	if !isString {
		return v
	}
	if s == "" {
		return nil
	}
	if gjson.Valid(s) {
		return gjson.Parse(s).Value()
	}
	return s
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case Envelope:
		return t, t != nil
	case map[string]any:
		return t, t != nil
	}
	return nil, false
}
