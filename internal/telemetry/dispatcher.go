package telemetry

import (
	"context"
	"time"

	"mcp-search-go/internal/dispatch"
	"mcp-search-go/internal/tools"
)

// InstrumentedDispatcher wraps a dispatcher to add telemetry
type InstrumentedDispatcher struct {
	next    dispatch.Dispatcher
	metrics *Metrics
}

// NewInstrumentedDispatcher creates a new telemetry-aware dispatcher
func NewInstrumentedDispatcher(next dispatch.Dispatcher, metrics *Metrics) *InstrumentedDispatcher {
	return &InstrumentedDispatcher{
		next:    next,
		metrics: metrics,
	}
}

// Dispatch wraps the original Dispatch to add telemetry
func (d *InstrumentedDispatcher) Dispatch(ctx context.Context, call tools.Call) tools.Result {
	start := time.Now()

	result := d.next.Dispatch(ctx, call)

	d.metrics.RecordToolDispatch(
		call.Name,
		string(result.Status),
		string(result.ErrorKind),
		time.Since(start),
		len(result.Payload),
	)

	return result
}
