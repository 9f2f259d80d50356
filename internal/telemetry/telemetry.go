package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/indigo-web/microrest/http/method"
	"github.com/indigo-web/microrest/http/status"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const name = "github.com/indigo-web/microrest"

type Outcome string

const (
	// Served means a route matched and its handler was called.
	Served Outcome = "served"
	// NotFound means the not-found reply was sent.
	NotFound Outcome = "not_found"
	// Rejected means the request was malformed and answered with an error body.
	Rejected Outcome = "rejected"
	// Aborted means the connection was closed without a reply.
	Aborted Outcome = "aborted"
)

// Telemetry records every request served by a tick.
type Telemetry struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	aborted  metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates the instruments from the providers.
func New(mp metric.MeterProvider, tp trace.TracerProvider) (*Telemetry, error) {
	meter := mp.Meter(name)

	requests, err := meter.Int64Counter("microrest.requests",
		metric.WithDescription("The number of requests by method and outcome"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	aborted, err := meter.Int64Counter("microrest.connections.aborted",
		metric.WithDescription("The number of connections closed without a reply, by reason"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("microrest.request.duration",
		metric.WithDescription("Time from accepting a connection until closing it"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		tracer:   tp.Tracer(name),
		requests: requests,
		aborted:  aborted,
		duration: duration,
	}, nil
}

// Global uses the globally registered providers. Unless the application registers its
// own, they are no-op.
func Global() *Telemetry {
	t, err := New(otel.GetMeterProvider(), otel.GetTracerProvider())
	if err != nil {
		otel.Handle(err)
		t, _ = New(metricnoop.NewMeterProvider(), tracenoop.NewTracerProvider())
	}

	return t
}

// Start begins the span of a single connection.
func (t *Telemetry) Start(ctx context.Context, connID, remote string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "microrest.request", trace.WithAttributes(
		attribute.String("conn.id", connID),
		attribute.String("net.peer", remote),
	))
}

// Finish records the request and ends its span. The err is the reason of an Aborted or
// Rejected outcome, nil otherwise.
func (t *Telemetry) Finish(
	ctx context.Context, span trace.Span, m method.Method, path string, outcome Outcome, err error, began time.Time,
) {
	attrs := metric.WithAttributes(
		attribute.String("method", m.String()),
		attribute.String("outcome", string(outcome)),
	)
	t.requests.Add(ctx, 1, attrs)
	t.duration.Record(ctx, float64(time.Since(began))/float64(time.Millisecond), attrs)

	if outcome == Aborted {
		t.aborted.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason(err))))
	}

	// the path references the parser's buffer, which is reused by the next connection
	span.SetAttributes(
		attribute.String("method", m.String()),
		attribute.String("path", strings.Clone(path)),
		attribute.String("outcome", string(outcome)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

// reason keeps the cardinality low: wrapped causes like EOF are dropped.
func reason(err error) string {
	var httpErr status.HTTPError
	switch {
	case err == nil:
		return "unknown"
	case errors.As(err, &httpErr):
		return httpErr.Message
	default:
		return err.Error()
	}
}
