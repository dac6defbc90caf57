// Package apperr defines the error kinds shared by the request handlers and
// the HTTP status each one maps to.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a missing or malformed required input field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConfigurationError reports a required credential that is not configured.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// UpstreamError reports a third-party API that answered with a failure.
// Body is the upstream response as received.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: status %d", e.Service, e.StatusCode)
}

// Details returns the upstream body as JSON when it is valid JSON, and as a
// JSON string otherwise.
func (e *UpstreamError) Details() json.RawMessage {
	if len(e.Body) > 0 && json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	raw, _ := json.Marshal(string(e.Body))
	return raw
}

// StorageError reports an unavailable or failing analytics store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// Validation builds a ValidationError.
func Validation(msg string) error { return &ValidationError{Msg: msg} }

// Configuration builds a ConfigurationError.
func Configuration(msg string) error { return &ConfigurationError{Msg: msg} }

// Status maps an error to the HTTP status the handlers answer with.
func Status(err error) int {
	var (
		verr *ValidationError
		cerr *ConfigurationError
		uerr *UpstreamError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &cerr):
		return http.StatusInternalServerError
	case errors.As(err, &uerr):
		if uerr.StatusCode >= 400 {
			return uerr.StatusCode
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
