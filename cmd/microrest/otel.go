package main

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// providers export logs, metrics and traces as JSON into a single writer.
type providers struct {
	logs    *sdklog.LoggerProvider
	metrics *sdkmetric.MeterProvider
	traces  *sdktrace.TracerProvider
}

func newProviders(w io.Writer, interval time.Duration) (*providers, error) {
	logExporter, err := stdoutlog.New(stdoutlog.WithWriter(w))
	if err != nil {
		return nil, err
	}

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, err
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}

	return &providers{
		logs: sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		),
		metrics: sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(interval))),
		),
		traces: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
		),
	}, nil
}

// Install registers the providers globally, so otelslog.NewLogger and the otel package
// getters pick them up.
func (p *providers) Install() {
	global.SetLoggerProvider(p.logs)
	otel.SetMeterProvider(p.metrics)
	otel.SetTracerProvider(p.traces)
}

// Shutdown flushes everything still buffered.
func (p *providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.traces.Shutdown(ctx),
		p.metrics.Shutdown(ctx),
		p.logs.Shutdown(ctx),
	)
}
