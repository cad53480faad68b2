package history

import (
	"context"
	"time"
)

// Manager phases reported to metrics and tracing.
const (
	PhaseExecute = "execute"
	PhaseUndo    = "undo"
	PhaseRedo    = "redo"
)

// MetricsRecorder receives one observation per command phase.
type MetricsRecorder interface {
	Observe(ctx context.Context, command, phase string, success bool, duration time.Duration)
}

// Tracer starts a span around each command phase.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended with the phase outcome.
type TraceSpan interface {
	End(err error)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}
