package agent

import (
	"fmt"
)

// Kind classifies why a query could not be answered.
type Kind string

const (
	KindModelUnavailable Kind = "model_unavailable"
	KindToolLoopExceeded Kind = "tool_loop_exceeded"
	KindCanceled         Kind = "canceled"
)

// Error is returned by Answer when no final answer could be produced.
type Error struct {
	Kind    Kind
	Message string
	Rounds  int
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

// NewModelUnavailableError creates a model unavailable error
func NewModelUnavailableError(rounds int, cause error) *Error {
	return &Error{
		Kind:    KindModelUnavailable,
		Message: "language model unavailable",
		Rounds:  rounds,
		Cause:   cause,
	}
}

// NewToolLoopExceededError creates a tool loop exceeded error
func NewToolLoopExceededError(limit int) *Error {
	return &Error{
		Kind:    KindToolLoopExceeded,
		Message: fmt.Sprintf("model requested more than %d tool calls", limit),
		Rounds:  limit,
	}
}

// NewCanceledError creates a canceled error
func NewCanceledError(rounds int, cause error) *Error {
	return &Error{
		Kind:    KindCanceled,
		Message: "query canceled",
		Rounds:  rounds,
		Cause:   cause,
	}
}
