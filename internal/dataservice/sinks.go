package dataservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JonMunkholm/gridform/internal/logging"
)

// DefaultQueryFunc is the remote function used by page loads that name none.
const DefaultQueryFunc = "UfnQuery"

// SinkKind tags the variant of a Sink.
type SinkKind int

const (
	SinkData  SinkKind = iota + 1 // receives decoded data as is
	SinkGrid                      // receives a row list
	SinkValue                     // receives a single value
)

func (k SinkKind) String() string {
	switch k {
	case SinkData:
		return "data"
	case SinkGrid:
		return "grid"
	case SinkValue:
		return "value"
	}
	return fmt.Sprintf("SinkKind(%d)", int(k))
}

// Sink receives one target's share of a page load. Build one with
// DataSink, GridSink or ValueSink.
type Sink struct {
	kind     SinkKind
	setData  func(any)
	loadGrid func([]any)
	setValue func(any)
}

// DataSink delivers decoded data unchanged.
func DataSink(set func(data any)) Sink {
	return Sink{kind: SinkData, setData: set}
}

// GridSink delivers rows. A non-list payload is wrapped in a one-element list.
func GridSink(load func(rows []any)) Sink {
	return Sink{kind: SinkGrid, loadGrid: load}
}

// ValueSink delivers a single value.
func ValueSink(set func(value any)) Sink {
	return Sink{kind: SinkValue, setValue: set}
}

// Kind returns the sink's variant.
func (s Sink) Kind() SinkKind { return s.kind }

var errEmptySink = errors.New("sink has no receiver")

func (s Sink) deliver(data any) error {
	switch s.kind {
	case SinkData:
		if s.setData == nil {
			return errEmptySink
		}
		s.setData(data)
	case SinkGrid:
		if s.loadGrid == nil {
			return errEmptySink
		}
		rows, ok := data.([]any)
		if !ok {
			rows = []any{data}
		}
		s.loadGrid(rows)
	case SinkValue:
		if s.setValue == nil {
			return errEmptySink
		}
		s.setValue(data)
	default:
		return errEmptySink
	}
	return nil
}

// Target routes one named payload of the envelope to a sink.
type Target struct {
	Sink     Sink
	DataName string
	// Transform, when set, rewrites the decoded payload before delivery.
	Transform func(data any, env Envelope) any
}

// PageQuery is a single structured call whose payloads feed several targets.
type PageQuery struct {
	Path     string
	FuncName string // defaults to DefaultQueryFunc
	Params   []any
	Targets  []Target
}

// LoadPage runs q and distributes the envelope's payloads to its targets.
// It reports false on any failure and never returns an error.
func (s *Service) LoadPage(ctx context.Context, q PageQuery) bool {
	if q.Path == "" {
		s.configError(ctx, ErrMissingPath, msgNoTransport)
		return false
	}
	if s.structured == nil {
		s.configError(ctx, ErrTransportUnavailable, msgNoTransport)
		return false
	}

	funcName := q.FuncName
	if funcName == "" {
		funcName = DefaultQueryFunc
	}
	logger := logging.WithFields(ctx,
		"call_id", uuid.NewString(),
		"op", "load_page",
		"path", q.Path,
		"func", funcName,
	)

	s.busy.Show("")
	defer s.busy.Hide()

	env, err := s.structured.CallStructured(ctx, Call{
		Path:     q.Path,
		FuncName: funcName,
		Params:   NormalizeParams(q.Params),
	})
	if err != nil {
		logger.Error("page query failed", "error", err)
		s.diag.Message(ctx, "Query error: "+err.Error())
		return false
	}
	if env == nil {
		logger.Error("page query returned no envelope")
		return false
	}
	if code := env.ErrorCode(); code != "" {
		s.diag.Report(ctx, env, code)
		return false
	}

	for i, t := range q.Targets {
		var data any
		if t.DataName != "" {
			data = DecodeField(env, t.DataName)
		}
		if t.Transform != nil {
			data = t.Transform(data, env)
		}
		if data == nil {
			continue
		}
		if err := t.Sink.deliver(data); err != nil {
			logger.Warn("page target skipped", "target", i, "data", t.DataName, "error", err)
		}
	}
	return true
}
