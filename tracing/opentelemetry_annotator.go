package tracing

import (
	"context"
	"errors"

	"github.com/jlaustill/c-next-sub006/analysis"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ContextOpenTelemetryTracerKey looks up a parent tracer name from a
	// context key.
	ContextOpenTelemetryTracerKey = "otelParentTracer"
)

var _ Annotator = &otelAnnotator{}

type otelAnnotator struct {
	tracer
	currentContext context.Context
	currentSpan    trace.Span
}

// NewOpenTelemetryAnnotator exports stages through the global OTel
// tracer provider.  Stage spans nest under whatever span parentContext
// already carries, so a build invoked inside a larger traced operation
// shows up as its children.
func NewOpenTelemetryAnnotator(parentContext context.Context, opts ...Option) *otelAnnotator {
	t := &otelAnnotator{currentContext: parentContext}
	t.applyOptions(opts...)
	return t
}

func (t *otelAnnotator) Enable() error {
	if t.currentContext == nil {
		return errors.New("we can only append spans to a context that is linked to opentelemetry")
	}
	return t.tracer.Enable()
}

func (t *otelAnnotator) Complete() error {
	if t.currentSpan != nil {
		t.currentSpan.End()
	}
	return nil
}

func contextTracer(ctx context.Context) trace.Tracer {
	tracerName, ok := ctx.Value(ContextOpenTelemetryTracerKey).(string)
	if !ok {
		tracerName = "cnext"
	}
	return otel.GetTracerProvider().Tracer(tracerName)
}

func (t *otelAnnotator) Start(stage analysis.Stage) func() {
	if t.skip(stage) {
		return func() {}
	}
	oldContext := t.currentContext
	t.currentContext, t.currentSpan = contextTracer(t.currentContext).Start(t.currentContext, t.label(stage))
	t.addCodeAttributes(stage)
	return func() {
		t.currentSpan.End()
		// And pop the current context back
		t.currentContext = oldContext
		t.currentSpan = trace.SpanFromContext(t.currentContext)
	}
}

func (t *otelAnnotator) addCodeAttributes(stage analysis.Stage) {
	attrs := []attribute.KeyValue{
		semconv.CodeFunction(stage.Name),
	}
	if stage.File != "" {
		attrs = append(attrs, semconv.CodeFilepath(stage.File))
	}
	t.currentSpan.SetAttributes(attrs...)
}
