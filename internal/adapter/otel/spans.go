package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "blackboard"

// StartDispatchSpan starts a span for dispatching one task.
func StartDispatchSpan(ctx context.Context, taskID, role string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dispatch",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("task.role", role),
		),
	)
}

// StartNotifySpan starts a span for one worker notification.
func StartNotifySpan(ctx context.Context, notifier, role string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "notify",
		trace.WithAttributes(
			attribute.String("notifier.name", notifier),
			attribute.String("task.role", role),
		),
	)
}

// StartTickSpan starts a span for one scheduler pass.
func StartTickSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "scheduler.tick")
}
