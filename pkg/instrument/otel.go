package instrument

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/reaktor-dev/reaktor/pkg/reaktor"
)

// Default tracer name for reaktor engines.
const defaultTracerName = "reaktor"

// OTelConfig configures the OpenTelemetry hook.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "reaktor").
	TracerName string

	// Context is the parent context for root propagation spans.
	// Default: context.Background()
	Context context.Context

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry hook.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithContext sets the parent context for root propagation spans.
func WithContext(ctx context.Context) OTelOption {
	return func(c *OTelConfig) {
		c.Context = ctx
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
}

// OTelHook traces settle-then-notify passes as spans. A write made from
// inside an observer body starts a nested propagation, which becomes a
// child span of the outer pass. Observer triggers are recorded as child
// spans of the propagation that notified them.
//
// The hook uses the global OpenTelemetry tracer provider. Configure it
// in your main() before building the graph:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	)
//	otel.SetTracerProvider(tp)
//	reaktor.RegisterHook(instrument.OpenTelemetry())
//
// Like the engine itself, the hook expects a graph to be driven from a
// single goroutine; the span stack is not synchronized.
type OTelHook struct {
	reaktor.BaseHook

	config OTelConfig

	// open propagation spans, innermost last
	spans []trace.Span
	ctxs  []context.Context
}

// OpenTelemetry creates a tracing hook.
func OpenTelemetry(opts ...OTelOption) *OTelHook {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	config.tracer = otel.Tracer(config.TracerName)

	return &OTelHook{config: config}
}

// PropagationStarted implements reaktor.Hook.
func (h *OTelHook) PropagationStarted(rootID uint64) {
	parent := h.config.Context
	if n := len(h.ctxs); n > 0 {
		parent = h.ctxs[n-1]
	}

	ctx, span := h.config.tracer.Start(
		parent,
		"reaktor.propagation",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int64("reaktor.root_id", int64(rootID)),
		),
	)

	h.spans = append(h.spans, span)
	h.ctxs = append(h.ctxs, ctx)
}

// PropagationDone implements reaktor.Hook.
func (h *OTelHook) PropagationDone(stats reaktor.PropagationStats) {
	n := len(h.spans)
	if n == 0 {
		// Hook registered mid-propagation; nothing to close.
		return
	}
	span := h.spans[n-1]
	h.spans = h.spans[:n-1]
	h.ctxs = h.ctxs[:n-1]

	span.SetAttributes(
		attribute.Int("reaktor.signals_settled", stats.Signals),
		attribute.Int("reaktor.observers_notified", stats.Observers),
	)

	if stats.Err != nil {
		span.RecordError(stats.Err)
		span.SetStatus(codes.Error, stats.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// ObserverTriggered implements reaktor.Hook.
func (h *OTelHook) ObserverTriggered(stats reaktor.TriggerStats) {
	parent := h.config.Context
	if n := len(h.ctxs); n > 0 {
		parent = h.ctxs[n-1]
	}

	// The engine reports the trigger after the body ran, so the span is
	// back-dated by the measured duration.
	end := time.Now()
	_, span := h.config.tracer.Start(
		parent,
		"reaktor.observer",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end.Add(-stats.Duration)),
		trace.WithAttributes(
			attribute.Int64("reaktor.observer_id", int64(stats.ObserverID)),
		),
	)

	if stats.Err != nil {
		span.RecordError(stats.Err)
		span.SetStatus(codes.Error, stats.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(end))
}
