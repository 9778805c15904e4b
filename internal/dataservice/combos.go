package dataservice

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/gridform/internal/logging"
	"github.com/JonMunkholm/gridform/internal/schema"
)

// Combo call constants.
const (
	ComboFunc      = "CreateCombo"
	ComboInfoField = "gComboInfoc"
	ComboSeparator = "■"
)

// ComboQuery requests option lists for a set of combo codes.
type ComboQuery struct {
	Path    string
	DivCode string
	ERPDB   string
	Codes   []any
}

// LoadCombos fetches the option tables for q.Codes. The i-th table answers
// schema.OptionsProvider index i. Any failure is reported and yields nil,
// which leaves combo references unresolved.
func (s *Service) LoadCombos(ctx context.Context, q ComboQuery) schema.StaticOptions {
	if len(q.Codes) == 0 {
		return nil
	}
	if q.Path == "" || s.structured == nil {
		s.configError(ctx, ErrTransportUnavailable, msgNoTransport)
		return nil
	}
	logger := logging.WithFields(ctx, "op", "load_combos", "path", q.Path, "codes", len(q.Codes))

	s.busy.Show("")
	defer s.busy.Hide()

	env, err := s.structured.CallStructured(ctx, Call{
		Path:     q.Path,
		FuncName: ComboFunc,
		Params:   []any{q.DivCode, q.ERPDB},
		Payload:  q.Codes,
	})
	if err != nil {
		logger.Error("combo load failed", "error", err)
		s.diag.Report(ctx, Envelope{FieldErrorMsg: "Combo load error: " + err.Error()}, "ERROR")
		return nil
	}
	if env == nil {
		return nil
	}
	if code := env.ErrorCode(); code != "" {
		s.diag.Report(ctx, env, code)
		return nil
	}

	info, _ := env[ComboInfoField].(string)
	if info == "" {
		return nil
	}
	return ParseComboInfo(info)
}

// ParseComboInfo splits a combo info string into option tables. Each
// segment is a JSON array of {value|CODE, text|NAME} objects. A malformed
// segment yields a nil table at its position.
func ParseComboInfo(info string) schema.StaticOptions {
	segments := strings.Split(info, ComboSeparator)
	tables := make(schema.StaticOptions, len(segments))
	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" || !gjson.Valid(seg) {
			continue
		}
		parsed := gjson.Parse(seg)
		if !parsed.IsArray() {
			continue
		}
		opts := make([]schema.Option, 0)
		parsed.ForEach(func(_, item gjson.Result) bool {
			if m, ok := item.Value().(map[string]any); ok {
				opts = append(opts, schema.OptionFromMap(m))
			}
			return true
		})
		tables[i] = opts
	}
	return tables
}
