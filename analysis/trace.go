package analysis

// Stage identifies one traced unit of pipeline work.
type Stage struct {
	// Name is the stage name, e.g. "resolve" or "consts".
	Name string
	// File is the translation unit or header the stage works on.
	File string
}

// Tracer marks stage boundaries during resolution.  The resolver
// reports one stage for the whole run and one per pass; the header
// resolvers report one stage per file.  Implementations live in the
// tracing package.
type Tracer interface {
	// IsEnabled reports whether spans are being recorded.
	IsEnabled() bool
	// Start marks the start of one stage and returns its end mark.
	Start(stage Stage) func()
}

// StartStage begins a tracer span covering one pipeline stage; the
// returned func ends it.  Safe to call on a nil config or tracer, so
// pipeline code never branches on tracing being configured.
func (cfg *Config) StartStage(name, file string) func() {
	if cfg == nil || cfg.Tracer == nil || !cfg.Tracer.IsEnabled() {
		return func() {}
	}
	return cfg.Tracer.Start(Stage{Name: name, File: file})
}
