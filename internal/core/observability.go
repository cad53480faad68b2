package core

import (
	"context"
	"dnacore/internal/config"
	"dnacore/internal/history"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	_ history.MetricsRecorder = (*ExpvarMetricsRecorder)(nil)
	_ history.MetricsRecorder = (*CommandMetrics)(nil)
	_ history.Tracer          = (*JSONTraceTracer)(nil)
	_ history.Tracer          = (*OTelTracer)(nil)
)

var expvarSeq uint64

// ExpvarMetricsRecorder publishes aggregate timing and result counters via
// expvar, keyed "<command>.<phase>".
type ExpvarMetricsRecorder struct {
	name      string
	mu        sync.Mutex
	durations map[string]float64
	results   map[string]map[string]int64
}

// ExpvarMetricsSnapshot captures a read-only view of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs an expvar-backed recorder and publishes it
// under the supplied name. When name is empty, a unique identifier is generated.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("dnacore_command_metrics_%d", id)
	}
	rec := &ExpvarMetricsRecorder{
		name:      name,
		durations: make(map[string]float64),
		results:   make(map[string]map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	durations := make(map[string]float64, len(r.durations))
	for op, total := range r.durations {
		durations[op] = total
	}
	results := make(map[string]map[string]int64, len(r.results))
	for op, statusCounts := range r.results {
		cpy := make(map[string]int64, len(statusCounts))
		for status, count := range statusCounts {
			cpy[status] = count
		}
		results[op] = cpy
	}
	return ExpvarMetricsSnapshot{
		DurationsMS: durations,
		Results:     results,
		RecordedAt:  time.Now().UTC(),
	}
}

// Observe records a command phase outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, command, phase string, success bool, duration time.Duration) {
	if command == "" {
		return
	}
	key := command + "." + phase
	ms := float64(duration) / float64(time.Millisecond)

	r.mu.Lock()
	r.durations[key] += ms
	if _, ok := r.results[key]; !ok {
		r.results[key] = make(map[string]int64, 2)
	}
	r.results[key][status(success)]++
	r.mu.Unlock()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// CommandMetrics records command phases as Prometheus metrics.
type CommandMetrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCommandMetrics creates the metrics and registers them with reg.
func NewCommandMetrics(reg prometheus.Registerer) (*CommandMetrics, error) {
	m := &CommandMetrics{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnacore",
			Name:      "commands_total",
			Help:      "Command phases run, by outcome",
		}, []string{"command", "phase", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dnacore",
			Name:      "command_duration_seconds",
			Help:      "Command phase latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"command", "phase"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.total, m.duration} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("register command metrics: %w", err)
			}
		}
	}
	return m, nil
}

// Observe implements history.MetricsRecorder.
func (m *CommandMetrics) Observe(_ context.Context, command, phase string, success bool, duration time.Duration) {
	m.total.WithLabelValues(command, phase, status(success)).Inc()
	m.duration.WithLabelValues(command, phase).Observe(duration.Seconds())
}

// JSONTraceEntry represents a serialized trace span emitted by JSONTraceTracer.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer serializes spans to a writer and retains them for inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer constructs a tracer that writes spans as JSON lines to w.
// A nil writer only retains spans.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	var enc *json.Encoder
	if w != nil {
		enc = json.NewEncoder(w)
	}
	return &JSONTraceTracer{enc: enc}
}

// Entries returns a copy of all recorded spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]JSONTraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Start implements history.Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, history.TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, operation: operation, started: time.Now().UTC()}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonTraceSpan) End(err error) {
	var errMsg string
	if err != nil {
		errMsg = err.Error()
	}
	ended := time.Now().UTC()
	entry := JSONTraceEntry{
		Operation:  s.operation,
		Status:     status(err == nil),
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		Error:      errMsg,
		StartedAt:  s.started,
		EndedAt:    ended,
	}

	s.tracer.mu.Lock()
	s.tracer.entries = append(s.tracer.entries, entry)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(entry)
	}
	s.tracer.mu.Unlock()
}

// TracerName is the instrumentation name used for OpenTelemetry spans.
const TracerName = "dnacore/internal/core"

// OTelTracer adapts an OpenTelemetry tracer to history.Tracer.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer wraps tracer, falling back to the global provider when nil.
func NewOTelTracer(tracer trace.Tracer) *OTelTracer {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &OTelTracer{tracer: tracer}
}

// Start implements history.Tracer.
func (t *OTelTracer) Start(ctx context.Context, operation string) (context.Context, history.TraceSpan) {
	ctx, span := t.tracer.Start(ctx, operation, trace.WithAttributes(attribute.String("dnacore.operation", operation)))
	return ctx, otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

// Observability holds the command recorder and tracer chosen by
// configuration. Either may be nil when its backend is "none".
type Observability struct {
	Metrics history.MetricsRecorder
	Tracer  history.Tracer

	expvar   *ExpvarMetricsRecorder
	gatherer prometheus.Gatherer
}

// OpenObservability builds the backends named in cfg. Prometheus metrics go
// to a private registry; JSON spans are written to traceOut.
func OpenObservability(cfg config.ObservabilityConfig, traceOut io.Writer) (*Observability, error) {
	obs := &Observability{}
	switch cfg.Metrics {
	case config.MetricsNone, "":
	case config.MetricsExpvar:
		obs.expvar = NewExpvarMetricsRecorder("")
		obs.Metrics = obs.expvar
	case config.MetricsPrometheus:
		reg := prometheus.NewRegistry()
		m, err := NewCommandMetrics(reg)
		if err != nil {
			return nil, err
		}
		obs.Metrics, obs.gatherer = m, reg
	default:
		return nil, fmt.Errorf("unknown metrics backend %s", cfg.Metrics)
	}
	switch cfg.Tracing {
	case config.TracingNone, "":
	case config.TracingJSON:
		obs.Tracer = NewJSONTracer(traceOut)
	case config.TracingOTel:
		obs.Tracer = NewOTelTracer(nil)
	default:
		return nil, fmt.Errorf("unknown tracing backend %s", cfg.Tracing)
	}
	return obs, nil
}

// Options returns the service options for the configured backends.
func (o *Observability) Options() []Option {
	var opts []Option
	if o.Metrics != nil {
		opts = append(opts, WithMetrics(o.Metrics))
	}
	if o.Tracer != nil {
		opts = append(opts, WithTracer(o.Tracer))
	}
	return opts
}

// PhaseCount returns how many command phases the metrics backend has seen.
func (o *Observability) PhaseCount() (int64, error) {
	switch {
	case o.expvar != nil:
		var n int64
		for _, byStatus := range o.expvar.Snapshot().Results {
			for _, count := range byStatus {
				n += count
			}
		}
		return n, nil
	case o.gatherer != nil:
		families, err := o.gatherer.Gather()
		if err != nil {
			return 0, fmt.Errorf("gather command metrics: %w", err)
		}
		var n float64
		for _, mf := range families {
			if mf.GetName() != "dnacore_commands_total" {
				continue
			}
			for _, m := range mf.GetMetric() {
				n += m.GetCounter().GetValue()
			}
		}
		return int64(n), nil
	}
	return 0, nil
}
