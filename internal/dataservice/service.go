package dataservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JonMunkholm/gridform/internal/logging"
)

// DefaultSaveFunc is the remote function used by saves that name none.
const DefaultSaveFunc = "UfnSave"

// User-facing status lines.
const (
	msgSaving        = "Saving data."
	msgSaved         = "Saved successfully."
	msgSavedShort    = "Saved."
	msgQueryFailed   = "An error occurred while querying data."
	msgSaveFailed    = "An error occurred while saving."
	msgNoSavePath    = "Save path is not configured."
	msgNoTransport   = "No transport is available for this call."
	msgMissingConfig = "Call configuration is missing."
)

// QueryConfig describes a query call.
type QueryConfig struct {
	Path     string
	FuncName string // required for the structured transport

	// Params is used when BuildParams is nil.
	Params      []any
	BuildParams func(input any) []any

	// OnQuery replaces the transport entirely.
	OnQuery func(ctx context.Context, input any) (Envelope, error)
}

// SaveConfig describes a save call.
type SaveConfig struct {
	Path     string
	FuncName string // defaults to DefaultSaveFunc

	Params      []any
	BuildParams func(input any) []any

	// OnSave replaces the transport entirely.
	OnSave func(ctx context.Context, params, rows []any, input any) (Envelope, error)

	// OnSuccess runs after the success notification.
	OnSuccess func(ctx context.Context, env Envelope, input any)
	// OnError receives transport errors, ErrNoResponse and *BusinessError.
	OnError func(ctx context.Context, err error, input any)
}

// Service runs query and save round-trips against the injected transport.
// It holds no per-call state and is safe for concurrent use; overlapping
// calls are neither serialized nor cancelled.
type Service struct {
	structured StructuredCaller
	legacy     LegacyCaller
	busy       Busy
	diag       Diagnostics
	notifier   Notifier
}

// NewService creates a Service. Missing busy and diagnostics capabilities are
// replaced by no-ops.
func NewService(caps Capabilities) *Service {
	s := &Service{
		structured: caps.Structured,
		legacy:     caps.Legacy,
		busy:       caps.Busy,
		diag:       caps.Diagnostics,
		notifier:   caps.Notifier,
	}
	if s.busy == nil {
		s.busy = nopBusy{}
	}
	if s.diag == nil {
		s.diag = nopDiagnostics{}
	}
	return s
}

// Query performs one query call.
//
// A business error (non-empty ErrorCode) is reported to diagnostics and
// returns (nil, nil). Configuration problems are reported and return
// (nil, nil) without touching the network. Only transport errors are returned.
func (s *Service) Query(ctx context.Context, cfg *QueryConfig, input any) (Envelope, error) {
	if cfg == nil {
		s.configError(ctx, ErrMissingConfig, msgMissingConfig)
		return nil, nil
	}
	if cfg.OnQuery == nil && cfg.Path == "" {
		s.configError(ctx, ErrMissingPath, msgNoTransport)
		return nil, nil
	}

	var raw any = cfg.Params
	if cfg.BuildParams != nil {
		raw = cfg.BuildParams(input)
	}
	params := NormalizeParams(raw)

	logger := logging.WithFields(ctx,
		"call_id", uuid.NewString(),
		"op", "query",
		"path", cfg.Path,
		"func", cfg.FuncName,
	)

	s.busy.Show("")
	defer s.busy.Hide()

	env, err := s.callQuery(ctx, cfg, input, params)
	if err != nil {
		if errors.Is(err, ErrTransportUnavailable) {
			s.configError(ctx, err, msgNoTransport)
			return nil, nil
		}
		logger.Error("query failed", "error", err)
		s.diag.Message(ctx, msgQueryFailed)
		return nil, fmt.Errorf("query %s: %w", cfg.Path, err)
	}
	if env == nil {
		logger.Debug("query returned no envelope")
		return nil, nil
	}

	if code := env.ErrorCode(); code != "" {
		logger.Warn("query business error", "error_code", code)
		s.diag.Report(ctx, env, code)
		return nil, nil
	}

	logger.Debug("query completed")
	return env, nil
}

func (s *Service) callQuery(ctx context.Context, cfg *QueryConfig, input any, params []any) (Envelope, error) {
	switch {
	case cfg.OnQuery != nil:
		return cfg.OnQuery(ctx, input)
	case s.structured != nil && cfg.FuncName != "":
		return s.structured.CallStructured(ctx, Call{
			Path:     cfg.Path,
			FuncName: cfg.FuncName,
			Params:   params,
		})
	case s.legacy != nil:
		return s.legacy.CallLegacy(ctx, cfg.Path, params, nil)
	default:
		return nil, ErrTransportUnavailable
	}
}

// Save performs one save call with rows as the payload.
//
// A business error is reported, passed to OnError as a *BusinessError, and
// the envelope is returned with a nil error so the caller can inspect it.
// Only transport errors are returned.
func (s *Service) Save(ctx context.Context, cfg *SaveConfig, rows []any, input any) (Envelope, error) {
	if cfg == nil {
		s.configError(ctx, ErrMissingConfig, msgMissingConfig)
		return nil, nil
	}
	if cfg.Path == "" {
		s.configError(ctx, ErrMissingPath, msgNoSavePath)
		return nil, nil
	}

	funcName := cfg.FuncName
	if funcName == "" {
		funcName = DefaultSaveFunc
	}

	params := cfg.Params
	if cfg.BuildParams != nil {
		params = cfg.BuildParams(input)
	}
	if params == nil {
		params = []any{}
	}

	logger := logging.WithFields(ctx,
		"call_id", uuid.NewString(),
		"op", "save",
		"path", cfg.Path,
		"func", funcName,
		"rows", len(rows),
	)

	s.busy.Show(msgSaving)
	defer s.busy.Hide()

	env, err := s.callSave(ctx, cfg, funcName, params, rows, input)
	if err != nil {
		if errors.Is(err, ErrTransportUnavailable) {
			s.configError(ctx, err, msgNoTransport)
			return nil, nil
		}
		logger.Error("save failed", "error", err)
		if cfg.OnError != nil {
			cfg.OnError(ctx, err, input)
		} else {
			s.diag.Message(ctx, msgSaveFailed)
		}
		return nil, fmt.Errorf("save %s: %w", cfg.Path, err)
	}

	if env == nil {
		logger.Error("save returned no envelope")
		if cfg.OnError != nil {
			cfg.OnError(ctx, ErrNoResponse, input)
		}
		return nil, nil
	}

	if code := env.ErrorCode(); code != "" {
		logger.Warn("save business error", "error_code", code)
		s.diag.Report(ctx, env, code)
		if cfg.OnError != nil {
			cfg.OnError(ctx, newBusinessError(env), input)
		}
		return env, nil
	}

	s.notifySaved(ctx, logger)
	if cfg.OnSuccess != nil {
		cfg.OnSuccess(ctx, env, input)
	}
	logger.Info("save completed")
	return env, nil
}

func (s *Service) callSave(ctx context.Context, cfg *SaveConfig, funcName string, params, rows []any, input any) (Envelope, error) {
	switch {
	case cfg.OnSave != nil:
		return cfg.OnSave(ctx, params, rows, input)
	case s.structured != nil:
		return s.structured.CallStructured(ctx, Call{
			Path:     cfg.Path,
			FuncName: funcName,
			Params:   params,
			Payload:  rows,
		})
	case s.legacy != nil:
		return s.legacy.CallLegacy(ctx, cfg.Path, params, rows)
	default:
		return nil, ErrTransportUnavailable
	}
}

func (s *Service) notifySaved(ctx context.Context, logger *slog.Logger) {
	if s.notifier == nil {
		s.diag.Message(ctx, msgSavedShort)
		return
	}
	if err := s.notifier.Alert(ctx, msgSaved); err != nil {
		logger.Warn("save notification failed", "error", err)
	}
}

func (s *Service) configError(ctx context.Context, err error, msg string) {
	logging.FromContext(ctx).Error("dataservice: call aborted", "error", err)
	s.diag.Message(ctx, msg)
}
