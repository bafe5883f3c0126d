package cmd

import "github.com/jlaustill/c-next-sub006/analysis"

// Option configures an exported command factory (CheckCommand,
// SymbolsCommand, ExploreCommand, LSPCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	registry *analysis.Registry
	defines  map[string]int
	tracer   analysis.Tracer
}

// WithRegistry injects a pre-seeded symbol registry.  Embedders that
// register scopes or C++ namespaces from generated code make them
// visible to every build the command runs.
func WithRegistry(reg *analysis.Registry) Option {
	return func(c *cmdConfig) { c.registry = reg }
}

// WithDefines injects toolchain constants.  Config-file defines and -D
// flags are merged on top, so an explicit flag wins over an embedded
// value of the same name.
func WithDefines(defines map[string]int) Option {
	return func(c *cmdConfig) { c.defines = defines }
}

// WithTracer routes stage boundaries to an embedder's tracer.  When a
// tracer is injected the --trace flag is ignored.
func WithTracer(tr analysis.Tracer) Option {
	return func(c *cmdConfig) { c.tracer = tr }
}
