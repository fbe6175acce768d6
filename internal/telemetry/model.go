package telemetry

import (
	"context"
	"time"

	"mcp-search-go/internal/llm"
)

// InstrumentedModel wraps a model to add telemetry
type InstrumentedModel struct {
	next    llm.Model
	name    string
	metrics *Metrics
}

// NewInstrumentedModel creates a new telemetry-aware model. name labels the metrics.
func NewInstrumentedModel(next llm.Model, name string, metrics *Metrics) *InstrumentedModel {
	return &InstrumentedModel{
		next:    next,
		name:    name,
		metrics: metrics,
	}
}

// Complete wraps the original Complete to add telemetry
func (m *InstrumentedModel) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	start := time.Now()

	resp, err := m.next.Complete(ctx, req)

	duration := time.Since(start)
	if err != nil {
		m.metrics.RecordModelRequest(m.name, "error", duration, 0, 0)
		return nil, err
	}

	outcome := "answer"
	if _, ok := resp.Message.Directive(); ok {
		outcome = "tool_call"
	}
	m.metrics.RecordModelRequest(m.name, outcome, duration, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	return resp, nil
}
