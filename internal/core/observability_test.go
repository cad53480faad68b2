package core

import (
	"bytes"
	"context"
	"dnacore/internal/config"
	"dnacore/internal/history"
	"dnacore/pkg/domain"
	"encoding/json"
	"errors"
	"expvar"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if expvar.Get(rec.Name()) == nil {
		t.Fatalf("recorder must be published as %s", rec.Name())
	}
	ctx := context.Background()
	rec.Observe(ctx, CommandCreateGrid, history.PhaseExecute, true, 2*time.Millisecond)
	rec.Observe(ctx, CommandCreateGrid, history.PhaseExecute, false, 3*time.Millisecond)
	rec.Observe(ctx, "", history.PhaseExecute, true, time.Second)

	snap := rec.Snapshot()
	key := CommandCreateGrid + "." + history.PhaseExecute
	if snap.DurationsMS[key] != 5 {
		t.Fatalf("expected 5ms total, got %v", snap.DurationsMS[key])
	}
	if snap.Results[key]["success"] != 1 || snap.Results[key]["error"] != 1 {
		t.Fatalf("unexpected results %+v", snap.Results)
	}
	if len(snap.Results) != 1 {
		t.Fatalf("unnamed commands must be ignored")
	}
}

func TestCommandMetricsThroughService(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewCommandMetrics(reg)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	if _, err := NewCommandMetrics(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	ctx := context.Background()
	svc := NewInMemoryService(nil, WithMetrics(metrics))
	if _, _, err := svc.CreateGrid(ctx, domain.Plane("diagonal"), domain.Vec3{}, domain.GridSquare); err == nil {
		t.Fatalf("expected invalid plane")
	}
	if _, _, err := svc.CreateGrid(ctx, domain.PlaneXY, domain.Vec3{}, domain.GridSquare); err != nil {
		t.Fatalf("create grid: %v", err)
	}
	if _, err := svc.Undo(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}

	if got := testutil.ToFloat64(metrics.total.WithLabelValues(CommandCreateGrid, history.PhaseExecute, "success")); got != 1 {
		t.Fatalf("expected one successful execute, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.total.WithLabelValues(CommandCreateGrid, history.PhaseExecute, "error")); got != 1 {
		t.Fatalf("expected one failed execute, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.total.WithLabelValues(CommandCreateGrid, history.PhaseUndo, "success")); got != 1 {
		t.Fatalf("expected one undo, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}
	hist, ok := byName["dnacore_command_duration_seconds"]
	if !ok || hist.GetType() != dto.MetricType_HISTOGRAM {
		t.Fatalf("missing duration histogram")
	}
	var samples uint64
	for _, m := range hist.GetMetric() {
		samples += m.GetHistogram().GetSampleCount()
	}
	if samples != 3 {
		t.Fatalf("expected 3 observations, got %d", samples)
	}
}

func TestJSONTracerWritesEntries(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	ctx := context.Background()
	_, span := tracer.Start(ctx, "history.execute")
	span.End(nil)
	_, span = tracer.Start(ctx, "history.undo")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	dec := json.NewDecoder(&buf)
	var first JSONTraceEntry
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Operation != "history.execute" {
		t.Fatalf("unexpected operation %q", first.Operation)
	}

	quiet := NewJSONTracer(nil)
	_, span = quiet.Start(ctx, "op")
	span.End(nil)
	if len(quiet.Entries()) != 1 {
		t.Fatalf("tracer without writer must still retain spans")
	}
}

func TestOTelTracerFallsBackToGlobalProvider(t *testing.T) {
	tracer := NewOTelTracer(nil)
	svc := NewInMemoryService(nil, WithTracer(tracer))
	ctx := context.Background()
	if _, _, err := svc.CreateGrid(ctx, domain.PlaneXY, domain.Vec3{}, domain.GridHoneycomb); err != nil {
		t.Fatalf("create grid: %v", err)
	}
	_, span := tracer.Start(ctx, "manual")
	span.End(errors.New("recorded"))
}

func TestOpenObservabilityBackends(t *testing.T) {
	ctx := context.Background()
	for _, metrics := range []string{config.MetricsExpvar, config.MetricsPrometheus} {
		var trace bytes.Buffer
		obs, err := OpenObservability(config.ObservabilityConfig{Metrics: metrics, Tracing: config.TracingJSON}, &trace)
		if err != nil {
			t.Fatalf("%s: %v", metrics, err)
		}
		if len(obs.Options()) != 2 {
			t.Fatalf("%s: expected metrics and tracer options", metrics)
		}
		svc := NewInMemoryService(nil, obs.Options()...)
		if _, _, err := svc.CreateGrid(ctx, domain.PlaneXY, domain.Vec3{}, domain.GridSquare); err != nil {
			t.Fatalf("create grid: %v", err)
		}
		if _, err := svc.Undo(ctx); err != nil {
			t.Fatalf("undo: %v", err)
		}
		if n, err := obs.PhaseCount(); err != nil || n != 2 {
			t.Fatalf("%s: expected 2 observed phases, got %d %v", metrics, n, err)
		}
		if !bytes.Contains(trace.Bytes(), []byte(CommandCreateGrid)) {
			t.Fatalf("%s: expected json spans, got %q", metrics, trace.String())
		}
	}

	obs, err := OpenObservability(config.ObservabilityConfig{Metrics: config.MetricsNone, Tracing: config.TracingOTel}, nil)
	if err != nil || obs.Metrics != nil || obs.Tracer == nil {
		t.Fatalf("expected otel tracer only, got %+v %v", obs, err)
	}
	if n, err := obs.PhaseCount(); n != 0 || err != nil {
		t.Fatalf("no metrics backend must count nothing, got %d %v", n, err)
	}
	if _, err := OpenObservability(config.ObservabilityConfig{Metrics: "statsd"}, nil); err == nil {
		t.Fatalf("expected unknown metrics backend to fail")
	}
	if _, err := OpenObservability(config.ObservabilityConfig{Tracing: "zipkin"}, nil); err == nil {
		t.Fatalf("expected unknown tracing backend to fail")
	}
}
