package web

// errors.go provides unified error response handling for the web layer.
//
// Remote calls never fail at the HTTP level once they reach a handler: the
// technical error is logged and mapped by procedure.MapError, and the user
// message travels back in the envelope with HTTP 200, where the client's
// business-error path picks it up. The inspection API uses ordinary JSON
// error bodies with HTTP status codes.

import (
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/gridform/internal/dataservice"
	"github.com/JonMunkholm/gridform/internal/logging"
	"github.com/JonMunkholm/gridform/internal/procedure"
)

// ErrorResponse is the JSON body of inspection API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError maps err, logs it, and writes a JSON error with status.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := procedure.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	writeJSON(w, r, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// errorEnvelope builds the envelope returned for a failed remote call.
func errorEnvelope(err error, callID string) dataservice.Envelope {
	msg := procedure.MapError(err)
	return dataservice.Envelope{
		dataservice.FieldErrorCode: msg.Code,
		dataservice.FieldErrorMsg:  procedure.FormatUserError(err),
		dataservice.FieldCallID:    callID,
	}
}

// writeError writes a JSON error body for failures raised before a
// handler runs.
func writeError(w http.ResponseWriter, r *http.Request, status int, message, code string) {
	logging.FromContext(r.Context()).Warn("request rejected", "status", status, "reason", message, "path", r.URL.Path)
	writeJSON(w, r, status, ErrorResponse{Error: message, Message: message, Code: code})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
