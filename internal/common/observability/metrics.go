package observability

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type Options struct {
	ServiceName    string
	TracingEnabled bool
	JaegerEndpoint string
	SampleRatio    float64
}

// Observability bundles the OpenTelemetry meter and tracer used by the engine.
// A nil *Observability is valid and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	buildCounter   otelmetric.Int64Counter
	missingCounter otelmetric.Int64Counter
}

// New creates metrics-only observability exported through Prometheus.
func New(serviceName string) *Observability {
	o, err := NewWithOptions(Options{ServiceName: serviceName})
	if err != nil {
		log.Printf("observability disabled: %v", err)
		return NewNoop()
	}
	return o
}

// NewWithOptions creates metrics and, when enabled, a Jaeger-backed tracer.
func NewWithOptions(opts Options) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", opts.ServiceName))
	provider := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(provider)

	o := &Observability{
		meterProvider: provider,
		meter:         provider.Meter(opts.ServiceName),
		tracer:        tracenoop.NewTracerProvider().Tracer(opts.ServiceName),
	}

	if opts.TracingEnabled {
		traceExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.JaegerEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("jaeger exporter: %w", err)
		}
		ratio := opts.SampleRatio
		if ratio <= 0 {
			ratio = 1
		}
		o.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		)
		otel.SetTracerProvider(o.tracerProvider)
		o.tracer = o.tracerProvider.Tracer(opts.ServiceName)
	}

	o.initInstruments()
	return o, nil
}

// NewNoop returns an Observability whose instruments discard everything.
func NewNoop() *Observability {
	o := &Observability{
		meter:  metricnoop.NewMeterProvider().Meter("noop"),
		tracer: tracenoop.NewTracerProvider().Tracer("noop"),
	}
	o.initInstruments()
	return o
}

func (o *Observability) initInstruments() {
	o.jobCounter, _ = o.meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	o.jobDuration, _ = o.meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	o.buildCounter, _ = o.meter.Int64Counter(
		"assistant.builds",
		otelmetric.WithDescription("Context builds by status"),
	)
	o.missingCounter, _ = o.meter.Int64Counter(
		"assistant.sources.missing",
		otelmetric.WithDescription("Requested source cells that produced no payload"),
	)
}

// StartSpan starts a span; callers must End it.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return tracenoop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordBuild counts one context build and its missing cells.
func (o *Observability) RecordBuild(ctx context.Context, status string, months, missing int) {
	if o == nil || o.buildCounter == nil {
		return
	}
	o.buildCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("status", status),
		attribute.Int("months", months),
	))
	if missing > 0 && o.missingCounter != nil {
		o.missingCounter.Add(ctx, int64(missing))
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
