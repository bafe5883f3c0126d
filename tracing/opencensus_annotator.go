package tracing

import (
	"context"
	"errors"

	"github.com/jlaustill/c-next-sub006/analysis"
	"go.opencensus.io/trace"
)

var _ Annotator = &ocAnnotator{}

type ocAnnotator struct {
	tracer
	currentContext context.Context
	currentSpan    *trace.Span
}

// NewOpenCensusAnnotator exports stages as OpenCensus spans under the
// span carried by parentContext.
func NewOpenCensusAnnotator(parentContext context.Context, opts ...Option) *ocAnnotator {
	t := &ocAnnotator{currentContext: parentContext}
	t.applyOptions(opts...)
	return t
}

func (t *ocAnnotator) Enable() error {
	if t.currentContext == nil {
		return errors.New("we can only append spans to a context that is linked to opencensus")
	}
	return t.tracer.Enable()
}

func (t *ocAnnotator) Complete() error {
	if t.currentSpan != nil {
		t.currentSpan.End()
	}
	return nil
}

func (t *ocAnnotator) Start(stage analysis.Stage) func() {
	if t.skip(stage) {
		return func() {}
	}
	oldContext := t.currentContext
	t.currentContext, t.currentSpan = trace.StartSpan(t.currentContext, t.label(stage))
	return func() {
		if stage.File != "" {
			t.currentSpan.Annotate([]trace.Attribute{
				trace.StringAttribute("file", stage.File),
			}, "source")
		}
		t.currentSpan.End()
		// And pop the current context back
		t.currentContext = oldContext
		t.currentSpan = trace.FromContext(t.currentContext)
	}
}
