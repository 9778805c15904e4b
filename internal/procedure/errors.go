// Package procedure runs page functions against Postgres and builds the
// result envelopes returned to callers.
//
// # Error Codes Reference
//
// Failures never surface as HTTP errors. They are mapped to a support code
// and returned in the envelope's ErrorCode/ErrorMsg fields, so clients
// handle them on their business-error path.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this key already exists
//	        SQLSTATE 23505, patterns: "duplicate key"
//	DB002 - Unique constraint: This value must be unique
//	        Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key: Referenced record does not exist
//	        SQLSTATE 23503, patterns: "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused: Unable to connect to database
//	DB005 - Connection reset: Database connection was interrupted
//	DB006 - Timeout: Operation timed out
//	        SQLSTATE 57014, patterns: "timeout", "context deadline exceeded"
//	DB007 - Deadlock: Database was busy with conflicting operations
//	        SQLSTATE 40P01, patterns: "deadlock"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date
//	VAL002 - Invalid number
//	VAL003 - Required value is empty
//	VAL004 - Value rejected by a column rule (row errors matching nothing else)
//	VAL005 - Unknown column in a save row
//	VAL006 - Save row is not an object
//
// # Call Errors (RPC001-RPC099)
//
//	RPC001 - Unknown page
//	RPC002 - Unknown function on the page
//	RPC003 - Malformed call parameters
//	RPC004 - Request cancelled
//	RPC005 - Too many concurrent saves
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the server log, keyed by CallID.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins. Postgres errors are classified by SQLSTATE before patterns are
// consulted.
package procedure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUnknownPage means the call named no registered page.
	ErrUnknownPage = errors.New("unknown page")

	// ErrUnknownFunction means the page has no procedure for the function name.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrMalformedCall means the call's parameters or payload could not be decoded.
	ErrMalformedCall = errors.New("malformed call parameters")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// String renders "Message (Code: XXX). Action".
func (m UserMessage) String() string {
	if m.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", m.Message, m.Code, m.Action)
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgDuplicateKey = UserMessage{
		Message: "A record with this key already exists",
		Action:  "Change the key value or edit the existing row",
		Code:    "DB001",
	}
	msgUnique = UserMessage{
		Message: "This value must be unique but already exists",
		Action:  "Check the grid for duplicate entries",
		Code:    "DB002",
	}
	msgForeignKey = UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Save the referenced record first",
		Code:    "DB003",
	}
	msgTimeout = UserMessage{
		Message: "Operation timed out",
		Action:  "Narrow the search conditions or try again later",
		Code:    "DB006",
	}
	msgDeadlock = UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "RPC004",
	}
)

// sqlStates maps Postgres SQLSTATE codes to messages.
var sqlStates = map[string]UserMessage{
	"23505": msgDuplicateKey,
	"23503": msgForeignKey,
	"40P01": msgDeadlock,
	"57014": msgTimeout,
}

// errorPatterns is ordered: specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{pattern: "duplicate key", msg: msgDuplicateKey},
	{pattern: "unique constraint", msg: msgUnique},
	{pattern: "violates unique", msg: msgUnique},
	{pattern: "foreign key constraint", msg: msgForeignKey},
	{pattern: "violates foreign key", msg: msgForeignKey},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{pattern: "timeout", msg: msgTimeout},
	{pattern: "deadlock", msg: msgDeadlock},

	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYYMMDD or YYYY-MM-DD",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid month",
		msg: UserMessage{
			Message: "Invalid month format detected",
			Action:  "Use YYYYMM or YYYY-MM",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Remove currency symbols and use standard decimal format",
			Code:    "VAL002",
		},
	},
	{
		pattern: "is required",
		msg: UserMessage{
			Message: "Required value is empty",
			Action:  "Fill in every highlighted column",
			Code:    "VAL003",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "The row contains a column the page does not define",
			Action:  "Reload the page and try again",
			Code:    "VAL005",
		},
	},
	{
		pattern: "row is not an object",
		msg: UserMessage{
			Message: "Save data is malformed",
			Action:  "Reload the page and try again",
			Code:    "VAL006",
		},
	},

	{
		pattern: "unknown page",
		msg: UserMessage{
			Message: "Page not found",
			Action:  "Verify the page path is correct",
			Code:    "RPC001",
		},
	},
	{
		pattern: "unknown function",
		msg: UserMessage{
			Message: "Function is not available on this page",
			Action:  "Verify the function name is correct",
			Code:    "RPC002",
		},
	},
	{
		pattern: "malformed call",
		msg: UserMessage{
			Message: "Call parameters could not be read",
			Action:  "Reload the page and try again",
			Code:    "RPC003",
		},
	},
	{pattern: "context canceled", msg: msgCancelled},
	{
		pattern: "too many concurrent saves",
		msg: UserMessage{
			Message: "Server is busy saving other data",
			Action:  "Wait a moment and save again",
			Code:    "RPC005",
		},
	},
}

var msgRuleFailed = UserMessage{
	Message: "A value does not match the column rules",
	Action:  "Correct the highlighted value",
	Code:    "VAL004",
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Postgres errors are classified by SQLSTATE first; otherwise the first
// matching pattern wins, and ERR000 is the fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := sqlStates[pgErr.Code]; ok {
			return msg
		}
	}

	var rowErr *RowError
	if errors.As(err, &rowErr) {
		if len(rowErr.Errors) > 0 {
			if msg, ok := matchPattern(rowErr.Errors[0].Error()); ok {
				return msg
			}
		}
		return msgRuleFailed
	}

	if msg, ok := matchPattern(err.Error()); ok {
		return msg
	}
	return defaultMessage
}

func matchPattern(s string) (UserMessage, bool) {
	errStr := strings.ToLower(s)
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError renders err for the envelope's ErrorMsg field. Row
// validation failures carry their detail so the user can find the cell.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}
	msg := MapError(err).String()
	var rowErr *RowError
	if errors.As(err, &rowErr) {
		msg += " [" + rowErr.Error() + "]"
	}
	return msg
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// RowError reports the save rows that failed validation.
type RowError struct {
	Row    int // zero-based index into SaveData
	Errors []error
}

func (e *RowError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("row %d: %s", e.Row+1, strings.Join(parts, "; "))
}
