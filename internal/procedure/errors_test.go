package procedure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "duplicate key maps correctly",
			err:         errors.New("ERROR: duplicate key value violates unique constraint"),
			wantCode:    "DB001",
			wantMessage: "A record with this key already exists",
		},
		{
			name:        "unique constraint maps correctly",
			err:         errors.New("ERROR: unique constraint violated"),
			wantCode:    "DB002",
			wantMessage: "This value must be unique but already exists",
		},
		{
			name:        "foreign key maps correctly",
			err:         errors.New("violates foreign key constraint"),
			wantCode:    "DB003",
			wantMessage: "Referenced record does not exist",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "deadline maps to timeout",
			err:         fmt.Errorf("query app.f: %w", context.DeadlineExceeded),
			wantCode:    "DB006",
			wantMessage: "Operation timed out",
		},
		{
			name:        "cancellation maps correctly",
			err:         fmt.Errorf("query app.f: %w", context.Canceled),
			wantCode:    "RPC004",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "sqlstate wins over message text",
			err:         fmt.Errorf("save row 1: %w", &pgconn.PgError{Code: "23503", Message: "duplicate key"}),
			wantCode:    "DB003",
			wantMessage: "Referenced record does not exist",
		},
		{
			name:        "deadlock sqlstate",
			err:         &pgconn.PgError{Code: "40P01", Message: "detected"},
			wantCode:    "DB007",
			wantMessage: "Database was busy with conflicting operations",
		},
		{
			name:        "unmapped sqlstate falls back to patterns",
			err:         &pgconn.PgError{Code: "XX000", Message: "connection reset by peer"},
			wantCode:    "DB005",
			wantMessage: "Database connection was interrupted",
		},
		{
			name:        "unknown page maps correctly",
			err:         fmt.Errorf("%w: bpa999", ErrUnknownPage),
			wantCode:    "RPC001",
			wantMessage: "Page not found",
		},
		{
			name:        "malformed call maps correctly",
			err:         fmt.Errorf("%w: bParam must be a JSON array", ErrMalformedCall),
			wantCode:    "RPC003",
			wantMessage: "Call parameters could not be read",
		},
		{
			name:        "row rule failure falls back to VAL004",
			err:         &RowError{Row: 2, Errors: []error{errors.New("ID_USER: Letters and digits only")}},
			wantCode:    "VAL004",
			wantMessage: "A value does not match the column rules",
		},
		{
			name:        "row required failure",
			err:         &RowError{Row: 0, Errors: []error{errors.New("ID_USER: User ID is required")}},
			wantCode:    "VAL003",
			wantMessage: "Required value is empty",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "A record with this key already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := errors.New("duplicate key value violates")
	result := FormatUserError(err)

	expected := "A record with this key already exists (Code: DB001). Change the key value or edit the existing row"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	rowErr := &RowError{Row: 1, Errors: []error{errors.New("AMT: invalid number format")}}
	expected = "Invalid number format detected (Code: VAL002). Remove currency symbols and use standard decimal format [row 2: AMT: invalid number format]"
	if got := FormatUserError(rowErr); got != expected {
		t.Errorf("FormatUserError(row) = %q, want %q", got, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  errors.New("duplicate key"),
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
