package tools

import (
	"encoding/json"
)

// Status is the outcome of a tool call.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Call is a request to run a named tool.
type Call struct {
	ID        string          `json:"call_id"`
	Name      string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Result is the uniform envelope returned for every Call. CallID always
// equals the ID of the Call that produced it.
type Result struct {
	CallID    string          `json:"call_id"`
	Status    Status          `json:"status"`
	Payload   json.RawMessage `json:"payload"`
	ErrorKind Kind            `json:"error_kind,omitempty"`
}

// OK builds a successful result.
func OK(callID string, payload json.RawMessage) Result {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return Result{
		CallID:  callID,
		Status:  StatusOK,
		Payload: payload,
	}
}

// Failed builds an error result whose payload is a human readable JSON string.
func Failed(callID string, err error) Result {
	payload, _ := json.Marshal(describe(err))
	return Result{
		CallID:    callID,
		Status:    StatusError,
		Payload:   payload,
		ErrorKind: KindOf(err),
	}
}

// IsError reports whether the result carries a failure.
func (r Result) IsError() bool {
	return r.Status == StatusError
}

// Text returns the payload as plain text. JSON strings are unquoted, any
// other payload is returned as raw JSON.
func (r Result) Text() string {
	var s string
	if err := json.Unmarshal(r.Payload, &s); err == nil {
		return s
	}
	return string(r.Payload)
}
