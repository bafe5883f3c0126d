// Package driver runs whole-program builds.  It parses every
// translation unit, chases project includes through their own includes
// in dependency order, resolves each header with the resolver for its
// language, and carries constants, registry state, and pass-by-value
// facts from file to file so later units observe everything earlier
// units declared.
//
// Builds are fault tolerant.  A file that fails to parse or a header
// that cannot be found is recorded as an error and the build moves on,
// so one broken file never hides findings from the rest.  System
// includes name toolchain headers outside the project and are never
// chased.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jlaustill/c-next-sub006/analysis"
	"github.com/jlaustill/c-next-sub006/ast"
	"github.com/jlaustill/c-next-sub006/cparser"
	"github.com/jlaustill/c-next-sub006/cppheader"
	"github.com/jlaustill/c-next-sub006/parser"
	"github.com/jlaustill/c-next-sub006/parser/token"
)

// Options configures a build.
type Options struct {
	// IncludeDirs lists directories searched for headers after the
	// including file's own directory.
	IncludeDirs []string

	// Defines seeds the constant map before the first file, the way a
	// toolchain injects -D values.
	Defines map[string]int

	// Registry receives scopes and functions from every file in the
	// build.  A fresh registry is created when nil.
	Registry *analysis.Registry

	// Tracer receives stage boundaries when non-nil.
	Tracer analysis.Tracer
}

// FileResult is the output for one translation unit.
type FileResult struct {
	File    string
	Program *ast.Program
	// Resolution holds the unit's symbols, warnings, and errors.
	Resolution *analysis.Result
	// PassByValue covers the functions this unit defines.
	PassByValue analysis.PassByValueSet
}

// HeaderResult is the contribution of one resolved header.
type HeaderResult struct {
	File    string
	Lang    analysis.Lang
	Symbols []analysis.Symbol
	Consts  map[string]int
	Types   map[string]analysis.TypeDesc
}

// Result is the combined output of a build.  Errors collects parse
// failures, include failures, and per-declaration resolution errors
// from every file; an empty Errors slice means the build is clean.
type Result struct {
	Files   []*FileResult
	Headers []*HeaderResult

	// Registry is the shared scope and function registry, populated by
	// headers and translation units alike.
	Registry *analysis.Registry

	// Consts is the whole-build constant map: macros, enumerators, and
	// C-Next constants from every file, keyed by mangled name.
	Consts map[string]int

	// Types maps typedef and alias names from every header to their
	// resolved descriptors.
	Types map[string]analysis.TypeDesc

	// PassByValue merges the per-unit decisions for every function the
	// build defines.
	PassByValue analysis.PassByValueSet

	Warnings []*analysis.Warning
	Errors   []error
}

// Symbols returns every symbol the build produced: headers first in
// resolution order, then translation units in build order.
func (r *Result) Symbols() []analysis.Symbol {
	var out []analysis.Symbol
	for _, h := range r.Headers {
		out = append(out, h.Symbols...)
	}
	for _, f := range r.Files {
		out = append(out, f.Resolution.Symbols...)
	}
	return out
}

// IncludeError reports a header that could not be located, read, or
// resolved.  From is the including file and Target the include text as
// written; Source is the include's location when the including file is
// a translation unit.
type IncludeError struct {
	From   string
	Target string
	Source *token.Location
	Err    error
}

func (e *IncludeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: include %q: %v", e.From, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: include %q: header not found", e.From, e.Target)
}

func (e *IncludeError) Unwrap() error { return e.Err }

// builder carries one build's accumulated state.  It owns the single
// analysis config shared by every resolver call; the config's external
// const map is the builder's live map, so each file resolves against
// everything collected before it.
type builder struct {
	opts     *Options
	registry *analysis.Registry
	cfg      *analysis.Config
	consts   map[string]int
	types    map[string]analysis.TypeDesc
	seen     map[string]bool
	sources  map[string][]byte
	state    *analysis.CrossFileState
	analyzer *analysis.PassByValueAnalyzer
	res      *Result
}

func newBuilder(opts *Options) *builder {
	if opts == nil {
		opts = &Options{}
	}
	registry := opts.Registry
	if registry == nil {
		registry = analysis.NewRegistry()
	}
	b := &builder{
		opts:     opts,
		registry: registry,
		consts:   make(map[string]int),
		types:    make(map[string]analysis.TypeDesc),
		seen:     make(map[string]bool),
		state:    analysis.NewCrossFileState(),
		analyzer: analysis.NewPassByValueAnalyzer(),
		res: &Result{
			Registry:    registry,
			PassByValue: make(analysis.PassByValueSet),
		},
	}
	for name, value := range opts.Defines {
		b.consts[name] = value
	}
	b.cfg = &analysis.Config{
		Registry:       registry,
		ExternalConsts: b.consts,
		Tracer:         opts.Tracer,
	}
	return b
}

func (b *builder) finish() *Result {
	b.res.Consts = b.consts
	b.res.Types = b.types
	return b.res
}

// Build parses and resolves files in order and returns the combined
// result.  Build never fails as a whole; inspect Result.Errors.
func Build(ctx context.Context, files []string, opts *Options) *Result {
	b := newBuilder(opts)
	defer b.cfg.StartStage("build", "")()
	for _, file := range files {
		b.buildFile(ctx, file)
	}
	return b.finish()
}

// BuildSource builds a single unit from in-memory content, as an editor
// holds unsaved edits.  Includes still resolve on disk relative to file.
func BuildSource(ctx context.Context, file string, src []byte, opts *Options) *Result {
	b := newBuilder(opts)
	b.sources = map[string][]byte{file: src}
	defer b.cfg.StartStage("build", "")()
	b.buildFile(ctx, file)
	return b.finish()
}

func (b *builder) parse(file string) (*ast.Program, error) {
	if src, ok := b.sources[file]; ok {
		return parser.ParseString(file, string(src))
	}
	return parser.ParseFile(file)
}

func (b *builder) buildFile(ctx context.Context, file string) {
	defer b.cfg.StartStage("file", file)()
	prog, err := b.parse(file)
	if err != nil {
		b.res.Errors = append(b.res.Errors, err)
		return
	}

	// Headers resolve before the unit itself so its array dimensions
	// can use macro and enumerator constants.
	for _, inc := range prog.Includes() {
		if inc.System {
			continue
		}
		b.processHeader(ctx, inc.Target, filepath.Dir(file), file, inc.Loc())
	}

	res := analysis.Resolve(prog, b.cfg)
	for name, value := range res.ConstValues {
		b.consts[name] = value
	}
	b.res.Warnings = append(b.res.Warnings, res.Warnings...)
	b.res.Errors = append(b.res.Errors, res.Errors...)

	done := b.cfg.StartStage("passbyvalue", file)
	set := b.analyzer.Analyze(res.Symbols, b.state)
	done()
	for name, decisions := range set {
		b.res.PassByValue[name] = decisions
	}

	b.res.Files = append(b.res.Files, &FileResult{
		File:        file,
		Program:     prog,
		Resolution:  res,
		PassByValue: set,
	})
}

// processHeader locates one included header, resolves its own project
// includes first, then resolves the header itself.  A header already
// seen under its cleaned path is skipped, which also terminates include
// cycles: the path is marked before recursing.
func (b *builder) processHeader(ctx context.Context, target, fromDir, from string, loc *token.Location) {
	path, ok := b.findHeader(target, fromDir)
	if !ok {
		b.res.Errors = append(b.res.Errors, &IncludeError{From: from, Target: target, Source: loc})
		return
	}
	if b.seen[path] {
		return
	}
	b.seen[path] = true

	src, err := os.ReadFile(path)
	if err != nil {
		b.res.Errors = append(b.res.Errors, &IncludeError{From: from, Target: target, Source: loc, Err: err})
		return
	}
	for _, inc := range cparser.ScanIncludes(src) {
		if inc.System {
			continue
		}
		b.processHeader(ctx, inc.Target, filepath.Dir(path), path, nil)
	}
	b.resolveHeader(ctx, path, src, from, target, loc)
}

// findHeader searches the including file's directory first, then the
// configured include directories.
func (b *builder) findHeader(target, fromDir string) (string, bool) {
	dirs := append([]string{fromDir}, b.opts.IncludeDirs...)
	for _, dir := range dirs {
		path := filepath.Join(dir, target)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return filepath.Clean(path), true
	}
	return "", false
}

// cppExts marks extensions resolved with the C++ header resolver; plain
// .h headers go through the C resolver.
var cppExts = map[string]bool{".hpp": true, ".hh": true, ".hxx": true, ".h++": true}

func (b *builder) resolveHeader(ctx context.Context, path string, src []byte, from, target string, loc *token.Location) {
	hr := &HeaderResult{File: path}
	if cppExts[strings.ToLower(filepath.Ext(path))] {
		res, err := cppheader.Resolve(ctx, path, src, b.cfg)
		if err != nil {
			b.res.Errors = append(b.res.Errors, &IncludeError{From: from, Target: target, Source: loc, Err: err})
			return
		}
		hr.Lang = analysis.LangCpp
		hr.Symbols, hr.Consts, hr.Types = res.Symbols, res.Consts, res.Types
	} else {
		res, err := analysis.ResolveCHeader(path, src, b.cfg)
		if err != nil {
			b.res.Errors = append(b.res.Errors, &IncludeError{From: from, Target: target, Source: loc, Err: err})
			return
		}
		hr.Lang = analysis.LangC
		hr.Symbols, hr.Consts, hr.Types = res.Symbols, res.Consts, res.Types
	}
	for name, value := range hr.Consts {
		b.consts[name] = value
	}
	for name, t := range hr.Types {
		b.types[name] = t
	}
	b.res.Headers = append(b.res.Headers, hr)
}
