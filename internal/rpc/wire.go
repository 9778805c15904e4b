// Package rpc carries remote function calls over HTTP form posts.
//
// A call is a POST of form fields to a page endpoint:
//
//	jCerts    client certificate token (opaque)
//	KeyInfo   client key info (opaque)
//	FuncNm    JSON array [functionName, ""]; absent on legacy calls
//	bParam    JSON array of positional parameters
//	SaveData  JSON array of payload rows; absent on queries
//
// The response body is a JSON result envelope.
package rpc

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
)

// Form field names.
const (
	FieldCerts    = "jCerts"
	FieldKeyInfo  = "KeyInfo"
	FieldFuncName = "FuncNm"
	FieldParams   = "bParam"
	FieldSaveData = "SaveData"
)

// HeaderAPIKey carries the client API key.
const HeaderAPIKey = "X-API-Key"

// Request is the decoded form of one call.
type Request struct {
	Certs    string
	KeyInfo  string
	FuncName string // empty on legacy calls
	Params   []any
	SaveData []any // nil when absent
}

// FormData encodes r as form fields.
func (r Request) FormData() (map[string]string, error) {
	params := r.Params
	if params == nil {
		params = []any{}
	}
	bParam, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", FieldParams, err)
	}

	form := map[string]string{
		FieldCerts:   r.Certs,
		FieldKeyInfo: r.KeyInfo,
		FieldParams:  string(bParam),
	}
	if r.FuncName != "" {
		fn, err := json.Marshal([]string{r.FuncName, ""})
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", FieldFuncName, err)
		}
		form[FieldFuncName] = string(fn)
	}
	if r.SaveData != nil {
		data, err := json.Marshal(r.SaveData)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", FieldSaveData, err)
		}
		form[FieldSaveData] = string(data)
	}
	return form, nil
}

// DecodeRequest parses form fields into a Request. FuncNm may also be a bare
// function name.
func DecodeRequest(form url.Values) (Request, error) {
	req := Request{
		Certs:   form.Get(FieldCerts),
		KeyInfo: form.Get(FieldKeyInfo),
	}

	if raw := form.Get(FieldFuncName); raw != "" {
		name, err := decodeFuncName(raw)
		if err != nil {
			return Request{}, err
		}
		req.FuncName = name
	}

	params, err := decodeArray(FieldParams, form.Get(FieldParams))
	if err != nil {
		return Request{}, err
	}
	if params == nil {
		params = []any{}
	}
	req.Params = params

	if _, ok := form[FieldSaveData]; ok {
		data, err := decodeArray(FieldSaveData, form.Get(FieldSaveData))
		if err != nil {
			return Request{}, err
		}
		if data == nil {
			data = []any{}
		}
		req.SaveData = data
	}
	return req, nil
}

func decodeFuncName(raw string) (string, error) {
	if !gjson.Valid(raw) {
		return raw, nil
	}
	parsed := gjson.Parse(raw)
	switch {
	case parsed.IsArray():
		first := parsed.Get("0")
		if first.Type != gjson.String || first.Str == "" {
			return "", fmt.Errorf("%s: first element must be a function name", FieldFuncName)
		}
		return first.Str, nil
	case parsed.Type == gjson.String:
		return parsed.Str, nil
	}
	return "", fmt.Errorf("%s: expected [name, \"\"]", FieldFuncName)
}

func decodeArray(field, raw string) ([]any, error) {
	if raw == "" {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%s: invalid JSON", field)
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("%s: expected a JSON array", field)
	}
	list, _ := parsed.Value().([]any)
	return list, nil
}
