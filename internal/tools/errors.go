package tools

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a tool failure.
type Kind string

// Failure kinds reported by the gateway and executors.
const (
	KindUnknownTool        Kind = "unknown_tool"
	KindInvalidArguments   Kind = "invalid_arguments"
	KindBackendUnavailable Kind = "backend_unavailable"
	KindTimeout            Kind = "timeout"
	KindEmptyResult        Kind = "empty_result"
	KindInternal           Kind = "internal"
)

// Error represents a tool dispatch or execution error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new tool error
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// NewUnknownToolError creates an unknown tool error
func NewUnknownToolError(name string) *Error {
	return &Error{
		Kind:    KindUnknownTool,
		Message: fmt.Sprintf("unknown tool: %q", name),
	}
}

// NewInvalidArgumentsError creates an error naming the offending argument.
// An empty argument refers to the argument object as a whole.
func NewInvalidArgumentsError(argument, reason string) *Error {
	msg := "invalid arguments: " + reason
	if argument != "" {
		msg = fmt.Sprintf("invalid argument %q: %s", argument, reason)
	}
	return &Error{
		Kind:    KindInvalidArguments,
		Message: msg,
	}
}

// NewBackendUnavailableError creates a backend unavailable error
func NewBackendUnavailableError(cause error) *Error {
	return &Error{
		Kind:    KindBackendUnavailable,
		Message: "backend unavailable",
		Cause:   cause,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(cause error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: "tool execution timed out",
		Cause:   cause,
	}
}

// NewEmptyResultError creates an empty result error
func NewEmptyResultError(query string) *Error {
	return &Error{
		Kind:    KindEmptyResult,
		Message: fmt.Sprintf("no results found for %q", query),
	}
}

// FromTransportError classifies a network failure as a timeout or an
// unavailable backend.
func FromTransportError(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err)
	}
	return NewBackendUnavailableError(err)
}

// KindOf returns the kind of err, or KindInternal when err is not a *Error.
func KindOf(err error) Kind {
	var toolErr *Error
	if errors.As(err, &toolErr) {
		return toolErr.Kind
	}
	return KindInternal
}

// describe renders an error for the model: the message of a *Error, with its
// cause appended, or the plain error text otherwise.
func describe(err error) string {
	var toolErr *Error
	if !errors.As(err, &toolErr) {
		return err.Error()
	}
	if toolErr.Cause != nil {
		return fmt.Sprintf("%s: %v", toolErr.Message, toolErr.Cause)
	}
	return toolErr.Message
}
