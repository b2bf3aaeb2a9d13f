package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Orchestration error taxonomy.
var (
	// ErrProviderCommunication means the model provider could not be reached or
	// broke the stream. Always fatal for a run.
	ErrProviderCommunication = errors.New("provider communication failed")

	// ErrMalformedToolRequest covers unknown tool names and tool inputs that
	// cannot be decoded. Recoverable: surfaced as a failed tool_result.
	ErrMalformedToolRequest = errors.New("malformed tool request")

	// ErrStreamClosed is returned when an event is emitted after the stream
	// reached its terminal event.
	ErrStreamClosed = errors.New("event stream closed")

	// ErrEventDelivery means the transport refused an event. Fatal: the loop
	// fails closed instead of continuing silently.
	ErrEventDelivery = errors.New("event delivery failed")
)

// ToolExecutionError wraps a failure raised by a tool handler.
// Recoverable: it never escapes the orchestrator loop.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// ProviderError wraps a transport-level failure talking to a model provider.
// errors.Is(err, ErrProviderCommunication) matches it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is() to match against ErrProviderCommunication
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderCommunication
}

// StatusCode implements the HTTPError interface
func (e *ProviderError) StatusCode() int {
	return http.StatusBadGateway
}
