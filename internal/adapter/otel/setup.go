// Package otel wires OpenTelemetry tracing and metrics over OTLP/gRPC.
package otel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ShutdownFunc is called to flush and shut down the providers.
type ShutdownFunc func(ctx context.Context) error

// Options configures the exporters.
type Options struct {
	ServiceName    string
	Endpoint       string // host:port of the OTLP gRPC collector
	Insecure       bool
	ExportInterval time.Duration
}

// Init installs global trace and meter providers exporting to an OTLP
// collector. The returned function flushes both.
func Init(ctx context.Context, opts Options) (ShutdownFunc, error) {
	res := resource.NewSchemaless(attribute.String("service.name", opts.ServiceName))

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		creds := grpc.WithTransportCredentials(insecure.NewCredentials())
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure(), otlptracegrpc.WithDialOption(creds))
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure(), otlpmetricgrpc.WithDialOption(creds))
	}

	traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter: %w", err)
	}
	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		_ = traceExp.Shutdown(ctx)
		return nil, fmt.Errorf("otlp metric exporter: %w", err)
	}

	interval := opts.ExportInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	slog.Info("otel initialized", "service", opts.ServiceName, "endpoint", opts.Endpoint)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// Noop returns a shutdown function that does nothing, for when export is disabled.
func Noop() ShutdownFunc {
	return func(context.Context) error { return nil }
}
