package dataservice

import (
	"context"
	"log/slog"

	"github.com/JonMunkholm/gridform/internal/logging"
)

// Call is one structured remote function call.
type Call struct {
	Path     string
	FuncName string
	Params   []any
	Payload  []any // save rows or combo codes; nil for queries
}

// StructuredCaller invokes a named remote function. It is the preferred transport.
type StructuredCaller interface {
	CallStructured(ctx context.Context, call Call) (Envelope, error)
}

// LegacyCaller invokes the endpoint behind path without a function name.
type LegacyCaller interface {
	CallLegacy(ctx context.Context, path string, params, payload []any) (Envelope, error)
}

// Busy is the shared busy indicator. Show and Hide are not reference counted.
type Busy interface {
	Show(message string)
	Hide()
}

// Diagnostics is the error and message surface.
type Diagnostics interface {
	// Report surfaces a business error envelope.
	Report(ctx context.Context, env Envelope, code string)
	// Message shows a short status line.
	Message(ctx context.Context, msg string)
}

// Notifier shows a user-acknowledged alert, such as a modal.
type Notifier interface {
	Alert(ctx context.Context, msg string) error
}

// Capabilities are the collaborators injected into a Service.
// Every field is optional.
type Capabilities struct {
	Structured  StructuredCaller
	Legacy      LegacyCaller
	Busy        Busy
	Diagnostics Diagnostics
	Notifier    Notifier
}

type nopBusy struct{}

func (nopBusy) Show(string) {}
func (nopBusy) Hide()       {}

type nopDiagnostics struct{}

func (nopDiagnostics) Report(context.Context, Envelope, string) {}
func (nopDiagnostics) Message(context.Context, string)          {}

// LogDiagnostics writes diagnostics to the structured log.
type LogDiagnostics struct {
	Logger *slog.Logger // nil means the request logger
}

// Report logs a business error envelope at WARN.
func (d LogDiagnostics) Report(ctx context.Context, env Envelope, code string) {
	d.logger(ctx).Warn("business error",
		"error_code", code,
		"error_msg", env.ErrorMessage(),
		"call_id", env.CallID(),
	)
}

// Message logs msg at INFO.
func (d LogDiagnostics) Message(ctx context.Context, msg string) {
	d.logger(ctx).Info(msg)
}

func (d LogDiagnostics) logger(ctx context.Context) *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logging.FromContext(ctx)
}
