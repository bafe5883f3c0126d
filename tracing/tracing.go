// Package tracing exports resolution stages as spans.  Annotators
// implement analysis.Tracer on top of a tracing backend; a command
// enables one annotator before the first file and calls Complete after
// the last.  With no annotator configured, resolution runs untraced.
package tracing

import (
	"fmt"
	"path/filepath"

	"github.com/jlaustill/c-next-sub006/analysis"
)

// Annotator is an analysis.Tracer with a managed lifecycle.
type Annotator interface {
	analysis.Tracer
	// Enable arms the annotator; stages before Enable are dropped.
	Enable() error
	// Complete ends the trace and flushes whatever the backend buffers.
	Complete() error
}

// SkipFilter reports stages to omit from the trace.
type SkipFilter func(stage analysis.Stage) bool

// Labeler provides an alternative span name for a stage.
type Labeler func(stage analysis.Stage) string

// Option configures an annotator.
type Option func(*tracer)

// WithSkipFilter sets the filter deciding which stages are omitted.
func WithSkipFilter(filter SkipFilter) Option {
	return func(t *tracer) {
		t.filter = filter
	}
}

// WithStages keeps only the named stages.
func WithStages(names ...string) Option {
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		keep[name] = true
	}
	return WithSkipFilter(func(stage analysis.Stage) bool {
		return !keep[stage.Name]
	})
}

// WithLabeler sets the labeler used to name spans.
func WithLabeler(labeler Labeler) Option {
	return func(t *tracer) {
		t.labeler = labeler
	}
}

// WithFileLabels names spans "stage file", so per-file traces read
// without expanding span attributes.
func WithFileLabels() Option {
	return WithLabeler(func(stage analysis.Stage) string {
		if stage.File == "" {
			return stage.Name
		}
		return stage.Name + " " + filepath.Base(stage.File)
	})
}

// tracer carries the state shared by every annotator.
type tracer struct {
	enabled bool
	filter  SkipFilter
	labeler Labeler
}

func (t *tracer) applyOptions(opts ...Option) {
	for _, opt := range opts {
		opt(t)
	}
}

func (t *tracer) IsEnabled() bool {
	return t.enabled
}

func (t *tracer) Enable() error {
	if t.enabled {
		return fmt.Errorf("annotator already enabled")
	}
	t.enabled = true
	return nil
}

func (t *tracer) skip(stage analysis.Stage) bool {
	return !t.enabled || t.filter != nil && t.filter(stage)
}

func (t *tracer) label(stage analysis.Stage) string {
	if t.labeler != nil {
		if label := t.labeler(stage); label != "" {
			return label
		}
	}
	return stage.Name
}
