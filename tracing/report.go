package tracing

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jlaustill/c-next-sub006/analysis"
)

// errWriter wraps an io.Writer and captures the first write error,
// short-circuiting subsequent writes after a failure.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

var _ Annotator = &reportAnnotator{}

// reportAnnotator accumulates wall time per stage label and writes a
// summary table on Complete.  It needs no tracing backend, which makes
// it the cheapest way to see where a build spends its time.
type reportAnnotator struct {
	tracer
	mu        sync.Mutex
	w         io.Writer
	startTime time.Time
	order     []string
	totals    map[string]*stageTotal
}

type stageTotal struct {
	count    int
	duration time.Duration
}

// NewReportAnnotator writes per-stage wall-time totals to w when the
// trace completes.  Stages sharing a label aggregate into one row, in
// first-seen order.
func NewReportAnnotator(w io.Writer, opts ...Option) *reportAnnotator {
	t := &reportAnnotator{
		w:      w,
		totals: make(map[string]*stageTotal),
	}
	t.applyOptions(opts...)
	return t
}

func (t *reportAnnotator) Enable() error {
	if t.w == nil {
		return errors.New("no output set for the stage report")
	}
	t.startTime = time.Now()
	return t.tracer.Enable()
}

func (t *reportAnnotator) Start(stage analysis.Stage) func() {
	if t.skip(stage) {
		return func() {}
	}
	label := t.label(stage)
	start := time.Now()
	return func() {
		t.record(label, time.Since(start))
	}
}

func (t *reportAnnotator) record(label string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	total, ok := t.totals[label]
	if !ok {
		total = &stageTotal{}
		t.totals[label] = total
		t.order = append(t.order, label)
	}
	total.count++
	total.duration += d
}

func (t *reportAnnotator) Complete() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	w := &errWriter{w: t.w}
	w.printf("stage timings (wall %s)\n", time.Since(t.startTime).Round(time.Microsecond))
	for _, label := range t.order {
		total := t.totals[label]
		w.printf("  %-24s %4d call(s) %12s\n",
			label, total.count, total.duration.Round(time.Microsecond))
	}
	return w.err
}
