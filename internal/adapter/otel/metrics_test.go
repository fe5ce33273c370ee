package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Strob0t/blackboard/internal/domain/agent"
	"github.com/Strob0t/blackboard/internal/domain/event"
	"github.com/Strob0t/blackboard/internal/domain/task"
)

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: unexpected data type %T", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetricsCountEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	m, err := NewMetrics()
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	m.BroadcastEvent(ctx, string(event.TypeTaskAdded), task.Task{ID: "a", Role: "Coder"})
	m.BroadcastEvent(ctx, string(event.TypeTaskAdded), task.Task{ID: "b", Role: "Coder"})
	m.BroadcastEvent(ctx, string(event.TypeTaskUpdated), task.Task{ID: "a", Role: "Coder", Status: task.StatusInProgress})
	m.BroadcastEvent(ctx, string(event.TypeTaskUpdated), task.Task{ID: "a", Role: "Coder", Status: task.StatusDone})
	// A repeated completion report is not a new completion.
	m.BroadcastEvent(ctx, string(event.TypeTaskUpdated), task.Task{ID: "a", Role: "Coder", Status: task.StatusDone, Result: "again"})
	m.BroadcastEvent(ctx, string(event.TypeTaskUpdated), task.Task{ID: "b", Role: "Coder", Status: task.StatusError})
	m.BroadcastEvent(ctx, string(event.TypeAgentAdded), agent.Agent{ID: "coder-1", Role: "Coder"})
	m.BroadcastEvent(ctx, string(event.TypeAgentLog), event.LogPayload{Source: "x", Message: "y"})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}

	checks := map[string]int64{
		"blackboard.tasks.added":       2,
		"blackboard.tasks.completed":   1,
		"blackboard.tasks.failed":      1,
		"blackboard.agents.registered": 1,
	}
	for name, want := range checks {
		if got := counterValue(t, rm, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}
