package dataservice

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportUnavailable means no override or transport could serve a call.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrNoResponse means the transport returned without an envelope.
	ErrNoResponse = errors.New("no response from server")

	// ErrMissingPath means a call was configured without a transport path.
	ErrMissingPath = errors.New("transport path not configured")

	// ErrMissingConfig means Query or Save was called without a configuration.
	ErrMissingConfig = errors.New("call configuration missing")
)

// BusinessError is a successfully transported envelope carrying a non-empty ErrorCode.
type BusinessError struct {
	Code     string
	Message  string
	Envelope Envelope
}

func (e *BusinessError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("business error %s: %s", e.Code, e.Message)
	}
	return "business error " + e.Code
}

func newBusinessError(env Envelope) *BusinessError {
	return &BusinessError{
		Code:     env.ErrorCode(),
		Message:  env.ErrorMessage(),
		Envelope: env,
	}
}
