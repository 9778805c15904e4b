package procedure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/gridform/internal/dataservice"
	"github.com/JonMunkholm/gridform/internal/logging"
	"github.com/JonMunkholm/gridform/internal/page"
	"github.com/JonMunkholm/gridform/internal/schema"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// DB is a DBTX that can start transactions. Satisfied by *pgxpool.Pool.
type DB interface {
	DBTX
	Begin(context.Context) (pgx.Tx, error)
}

// StatusField is the reserved row key carrying the grid row state.
// Rows marked StatusDeleted skip the schema check.
const (
	StatusField   = "_status"
	StatusDeleted = "D"
)

// SaveCountField names the envelope field holding the number of saved rows.
const SaveCountField = "SaveCount"

// DefaultTimeout bounds a single call when none is configured.
const DefaultTimeout = 30 * time.Second

// Call is one decoded remote call.
type Call struct {
	FuncName string
	Params   []any
	SaveData []any // nil when the call carries no payload
}

// Executor runs page procedures against Postgres.
type Executor struct {
	db      DB
	timeout time.Duration
	saves   *SaveLimiter // nil means unbounded
}

// NewExecutor creates an executor. A zero timeout uses DefaultTimeout.
func NewExecutor(db DB, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{db: db, timeout: timeout}
}

// WithSaveLimiter bounds concurrent save transactions with l.
func (e *Executor) WithSaveLimiter(l *SaveLimiter) *Executor {
	e.saves = l
	return e
}

// SaveStatus reports the save limiter state, if one is set.
func (e *Executor) SaveStatus() (SaveLimiterStatus, bool) {
	if e.saves == nil {
		return SaveLimiterStatus{}, false
	}
	return e.saves.Status(), true
}

// Execute resolves call against p and runs the bound database function.
// A successful result is an envelope with an empty ErrorCode. Failures are
// returned as errors; callers map them with MapError.
func (e *Executor) Execute(ctx context.Context, p *page.Page, call Call) (dataservice.Envelope, error) {
	if p == nil {
		return nil, ErrUnknownPage
	}
	name, proc, ok := p.Resolve(call.FuncName, call.SaveData != nil)
	if !ok {
		return nil, fmt.Errorf("%w: %s on page %s", ErrUnknownFunction, name, p.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	logger := logging.WithFields(ctx, "page", p.Name, "func", name, "kind", proc.Kind)
	start := time.Now()

	var (
		env dataservice.Envelope
		err error
	)
	switch proc.Kind {
	case page.KindQuery:
		env, err = e.query(ctx, proc, call.Params)
	case page.KindSave:
		env, err = e.save(ctx, p, proc, call)
	case page.KindCombo:
		env, err = e.combo(ctx, proc, call)
	default:
		err = fmt.Errorf("%w: %s has kind %q", ErrUnknownFunction, name, proc.Kind)
	}
	if err != nil {
		logger.Error("procedure failed", "error", err, "duration", time.Since(start))
		return nil, err
	}
	logger.Debug("procedure completed", "duration", time.Since(start))
	return env, nil
}

// query runs the primary function into rsData01 and each output function
// into rsData02, rsData03, ...
func (e *Executor) query(ctx context.Context, proc page.Procedure, params []any) (dataservice.Envelope, error) {
	args := textArgs(params)
	env := dataservice.Envelope{dataservice.FieldErrorCode: ""}

	functions := append([]string{proc.Function}, proc.Outputs...)
	for i, fn := range functions {
		data, err := queryJSON(ctx, e.db, fn, args)
		if err != nil {
			return nil, err
		}
		env[DataName(i)] = data
	}
	return env, nil
}

// save applies every row inside one transaction, one function call per row.
// The row is passed as the final jsonb argument.
func (e *Executor) save(ctx context.Context, p *page.Page, proc page.Procedure, call Call) (dataservice.Envelope, error) {
	rows, err := PrepareRows(p, call.SaveData)
	if err != nil {
		return nil, err
	}

	if e.saves != nil {
		if err := e.saves.Acquire(ctx); err != nil {
			return nil, err
		}
		defer e.saves.Release()
	}

	args := textArgs(call.Params)
	sql := SaveSQL(proc.Function, len(args))

	rowArgs := make([]any, len(args)+1)
	copy(rowArgs, args)
	err = e.withTransaction(ctx, func(tx pgx.Tx) error {
		for i, row := range rows {
			payload, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("encode row %d: %w", i+1, err)
			}
			rowArgs[len(args)] = string(payload)
			if _, err := tx.Exec(ctx, sql, rowArgs...); err != nil {
				return fmt.Errorf("save row %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dataservice.Envelope{
		dataservice.FieldErrorCode: "",
		SaveCountField:             len(rows),
	}, nil
}

// withTransaction commits when fn succeeds and rolls back otherwise.
func (e *Executor) withTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logging.FromContext(ctx).Warn("transaction rollback failed after panic", "error", rbErr)
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logging.FromContext(ctx).Warn("transaction rollback failed", "error", rbErr)
			}
		} else if cErr := tx.Commit(ctx); cErr != nil {
			err = fmt.Errorf("commit: %w", cErr)
		}
	}()
	return fn(tx)
}

// combo runs the combo function once per code. Params carry the division
// and ERP database; SaveData carries the codes.
func (e *Executor) combo(ctx context.Context, proc page.Procedure, call Call) (dataservice.Envelope, error) {
	base := textArgs(call.Params)
	for len(base) < 2 {
		base = append(base, "")
	}
	base = base[:2]

	segments := make([]string, len(call.SaveData))
	for i, code := range call.SaveData {
		args := append(append([]any{}, base...), schema.CellString(code))
		data, err := queryJSON(ctx, e.db, proc.Function, args)
		if err != nil {
			return nil, fmt.Errorf("combo %v: %w", code, err)
		}
		segments[i] = data
	}

	return dataservice.Envelope{
		dataservice.FieldErrorCode: "",
		dataservice.ComboInfoField: strings.Join(segments, dataservice.ComboSeparator),
	}, nil
}

// PrepareRows checks SaveData rows against the page schema and strips them
// to the save columns. Unknown keys are rejected; save-excluded columns are
// dropped.
func PrepareRows(p *page.Page, saveData []any) ([]map[string]any, error) {
	all := schema.FlattenColumns(p.Columns, false)
	known := make(map[string]bool, len(all))
	for _, c := range all {
		known[c.Field] = true
	}
	saved := p.SaveColumns()

	out := make([]map[string]any, 0, len(saveData))
	for i, item := range saveData {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, &RowError{Row: i, Errors: []error{errors.New("row is not an object")}}
		}

		for key := range row {
			if key != StatusField && !known[key] {
				return nil, &RowError{Row: i, Errors: []error{fmt.Errorf("unknown column %q", key)}}
			}
		}

		status := schema.CellString(row[StatusField])
		if status != StatusDeleted {
			if res := schema.CheckRow(p.Columns, row); !res.Valid {
				errs := make([]error, len(res.Errors))
				for j, ve := range res.Errors {
					errs[j] = ve
				}
				return nil, &RowError{Row: i, Errors: errs}
			}
		}

		clean := make(map[string]any, len(saved)+1)
		for _, c := range saved {
			if v, ok := row[c.Field]; ok {
				clean[c.Field] = v
			}
		}
		if status != "" {
			clean[StatusField] = status
		}
		out = append(out, clean)
	}
	return out, nil
}

// DataName returns the envelope field of the i-th result set: rsData01, rsData02, ...
func DataName(i int) string {
	return fmt.Sprintf("rsData%02d", i+1)
}

// QuerySQL builds the set-returning call for fn with n positional arguments.
func QuerySQL(fn string, n int) string {
	return fmt.Sprintf("SELECT * FROM %s(%s)", fn, placeholders(1, n))
}

// SaveSQL builds the per-row save call: n positional arguments followed by
// the row as jsonb.
func SaveSQL(fn string, n int) string {
	args := placeholders(1, n)
	if args != "" {
		args += ", "
	}
	return fmt.Sprintf("SELECT %s(%s$%d::jsonb)", fn, args, n+1)
}

func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}

// textArgs passes parameters as text so Postgres resolves them against the
// function signature.
func textArgs(params []any) []any {
	args := make([]any, len(params))
	for i, p := range params {
		if p == nil {
			continue
		}
		args[i] = schema.CellString(p)
	}
	return args
}

// queryJSON runs fn and returns its rows as a JSON array string.
func queryJSON(ctx context.Context, db DBTX, fn string, args []any) (string, error) {
	rows, err := db.Query(ctx, QuerySQL(fn, len(args)), args...)
	if err != nil {
		return "", fmt.Errorf("query %s: %w", fn, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return "", fmt.Errorf("read %s: %w", fn, err)
		}
		rec := make(map[string]any, len(fields))
		for i, f := range fields {
			if i < len(values) {
				rec[f.Name] = jsonValue(values[i])
			}
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", fn, err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", fn, err)
	}
	return string(data), nil
}

// jsonValue converts driver values that do not encode cleanly.
func jsonValue(v any) any {
	switch t := v.(type) {
	case [16]byte:
		return uuid.UUID(t).String()
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	case []byte:
		return string(t)
	default:
		return v
	}
}

// NewCallID returns an identifier for correlating a response with server logs.
func NewCallID() string {
	return uuid.NewString()
}
