package tracing

import (
	"context"
	"runtime/pprof"

	"github.com/jlaustill/c-next-sub006/analysis"
)

var _ Annotator = &pprofAnnotator{}

// pprofAnnotator tags pprof samples with the active stage.  It does not
// start pprof itself; it only labels whatever profile the caller is
// already collecting, so untraced runs pay nothing.
type pprofAnnotator struct {
	tracer
	currentContext context.Context
}

// NewPprofAnnotator labels pprof samples with a "stage" key while a
// stage is active.
func NewPprofAnnotator(parentContext context.Context, opts ...Option) *pprofAnnotator {
	t := &pprofAnnotator{currentContext: parentContext}
	t.applyOptions(opts...)
	return t
}

func (t *pprofAnnotator) Enable() error {
	if t.currentContext == nil {
		t.currentContext = context.Background()
	}
	return t.tracer.Enable()
}

func (t *pprofAnnotator) Complete() error {
	pprof.SetGoroutineLabels(context.Background())
	return nil
}

func (t *pprofAnnotator) Start(stage analysis.Stage) func() {
	if t.skip(stage) {
		return func() {}
	}
	oldContext := t.currentContext
	t.currentContext = pprof.WithLabels(t.currentContext, pprof.Labels("stage", t.label(stage)))
	pprof.SetGoroutineLabels(t.currentContext)
	return func() {
		t.currentContext = oldContext
		pprof.SetGoroutineLabels(t.currentContext)
	}
}
