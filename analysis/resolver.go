// Package analysis resolves parsed C-Next programs into symbol models.
//
// Resolution runs fixed, dependency-ordered passes over one translation
// unit: constants first, then bitmaps and scoped structs, then everything
// else.  The pass order is a correctness requirement, not an optimization:
// register collection tests membership in a completed bitmap set, and
// array sizing reads the completed const-value map.  The separate
// pass-by-value analyzer (see passbyvalue.go) is a genuine fixed-point
// computation and must not be confused with this schedule.
package analysis

import (
	"github.com/jlaustill/c-next-sub006/ast"
	"github.com/jlaustill/c-next-sub006/parser/token"
)

// Config controls a resolution run.
type Config struct {
	// Registry receives scopes and registered functions.  A fresh registry
	// is created when nil.  Callers sharing a registry across files must
	// call Reset between independent runs.
	Registry *Registry

	// ExternalConsts seeds the const-value map with constants from
	// already-processed files.  Local constants win on name collision.
	ExternalConsts map[string]int

	// Tracer receives stage boundaries when non-nil.  The tracing
	// package provides exporters.
	Tracer Tracer
}

// Result holds the output of resolving one translation unit.  Resolution
// always returns a result: hard errors abort individual declarations, not
// the file.
type Result struct {
	Symbols  []Symbol
	Warnings []*Warning
	Errors   []error

	// ConstValues is the completed const-value map, external seeds overlaid
	// by this file's constants.  Callers feed it to later files.
	ConstValues map[string]int
}

// resolver carries one run's mutable state through the passes.
type resolver struct {
	cfg          *Config
	registry     *Registry
	file         string
	consts       map[string]int
	knownBitmaps map[string]bool
	produced     map[ast.Decl]bool
	result       *Result
}

func (res *resolver) stage(name string) func() {
	return res.cfg.StartStage(name, res.file)
}

// Resolve runs the full pass schedule over one parsed translation unit.
func Resolve(prog *ast.Program, cfg *Config) *Result {
	if cfg == nil {
		cfg = &Config{}
	}
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	res := &resolver{
		cfg:          cfg,
		registry:     registry,
		file:         prog.File,
		consts:       make(map[string]int),
		knownBitmaps: make(map[string]bool),
		produced:     make(map[ast.Decl]bool),
		result:       &Result{},
	}
	for name, value := range cfg.ExternalConsts {
		res.consts[name] = value
	}

	done := res.stage("resolve")
	res.collectConsts(prog)
	res.collectBitmapsAndScopedStructs(prog)
	res.collectRemainder(prog)
	done()

	res.result.ConstValues = res.consts
	return res.result
}

// collectConsts is pass 0: simple integer-literal constants, top-level and
// scoped, keyed by mangled name for scoped constants.  Array-dimension
// expressions elsewhere resolve against this map.
func (res *resolver) collectConsts(prog *ast.Program) {
	defer res.stage("consts")()
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			if value, ok := constIntInit(d); ok {
				res.consts[d.Name] = value
			}
		case *ast.ScopeDecl:
			for _, member := range d.Decls {
				v, ok := member.(*ast.VarDecl)
				if !ok {
					continue
				}
				if value, ok := constIntInit(v); ok {
					res.consts[Mangle(d.Name, v.Name)] = value
				}
			}
		}
	}
}

// constIntInit extracts the value of a constant declaration initialized
// with an integer literal, including a negated literal.
func constIntInit(decl *ast.VarDecl) (int, bool) {
	if !decl.Const || decl.Init == nil {
		return 0, false
	}
	switch init := decl.Init.(type) {
	case *ast.BasicLit:
		return parseIntText(init.Text)
	case *ast.UnaryExpr:
		lit, ok := init.X.(*ast.BasicLit)
		if !ok {
			return 0, false
		}
		n, ok := parseIntText(lit.Text)
		if !ok {
			return 0, false
		}
		switch init.Op {
		case token.MINUS:
			return -n, true
		case token.PLUS:
			return n, true
		}
	}
	return 0, false
}

// collectBitmapsAndScopedStructs is pass 1.  Every bitmap is collected
// before any register so registers can test membership in a completed
// known-bitmap set; scoped structs are collected early so later
// declarations can reference scoped types.
func (res *resolver) collectBitmapsAndScopedStructs(prog *ast.Program) {
	defer res.stage("bitmaps")()
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.BitmapDecl:
			res.produceBitmap(d, res.registry.GlobalScope(), true)
		case *ast.ScopeDecl:
			scope := res.registry.GetOrCreateScope(d.Name)
			for _, member := range d.Decls {
				switch m := member.(type) {
				case *ast.BitmapDecl:
					public := memberVisibility(m.Visibility, true)
					scope.AddMember(m.Name, public)
					res.produceBitmap(m, scope, public)
					res.produced[member] = true
				case *ast.StructDecl:
					public := memberVisibility(m.Visibility, true)
					scope.AddMember(m.Name, public)
					res.emit(res.collectStruct(m, res.file, scope, public))
					res.produced[member] = true
				}
			}
		}
	}
}

func (res *resolver) produceBitmap(decl *ast.BitmapDecl, scope *Scope, public bool) {
	bitmap, err := collectBitmap(decl, res.file, scope, public)
	if err != nil {
		res.result.Errors = append(res.result.Errors, err)
		return
	}
	res.knownBitmaps[bitmap.SymName] = true
	res.emit(bitmap)
	for _, f := range bitmap.Fields {
		res.emit(f)
	}
}

// collectRemainder is pass 2: scopes (re-walked, skipping members already
// produced in pass 1), top-level structs, enums, registers, functions, and
// variables.
func (res *resolver) collectRemainder(prog *ast.Program) {
	defer res.stage("collect")()
	global := res.registry.GlobalScope()
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.ScopeDecl:
			res.collectScope(d)
		case *ast.StructDecl:
			res.emit(res.collectStruct(d, res.file, global, true))
		case *ast.EnumDecl:
			res.emitEnum(collectEnum(d, res.file, global, true))
		case *ast.RegisterDecl:
			res.emitRegister(res.collectRegister(d, res.file, global, true))
		case *ast.FuncDecl:
			res.emit(res.collectFunctionRegistering(d, res.file, global, true))
		case *ast.VarDecl:
			res.emit(res.collectVariable(d, res.file, global, true))
		}
	}
}

// collectScope iterates a scope's members, computing each member's
// visibility from its explicit modifier or its kind's default, and fans
// out to the per-kind collectors.
func (res *resolver) collectScope(decl *ast.ScopeDecl) {
	scope := res.registry.GetOrCreateScope(decl.Name)
	sym := &ScopeSymbol{
		SymbolBase: symbolBase(decl.Name, res.registry.GlobalScope(), res.file, decl.Loc(), true),
	}
	res.emit(sym)
	for _, member := range decl.Decls {
		if res.produced[member] {
			continue
		}
		switch m := member.(type) {
		case *ast.StructDecl:
			public := memberVisibility(m.Visibility, true)
			scope.AddMember(m.Name, public)
			res.emit(res.collectStruct(m, res.file, scope, public))
		case *ast.EnumDecl:
			public := memberVisibility(m.Visibility, true)
			scope.AddMember(m.Name, public)
			res.emitEnum(collectEnum(m, res.file, scope, public))
		case *ast.BitmapDecl:
			public := memberVisibility(m.Visibility, true)
			scope.AddMember(m.Name, public)
			res.produceBitmap(m, scope, public)
		case *ast.RegisterDecl:
			public := memberVisibility(m.Visibility, true)
			scope.AddMember(m.Name, public)
			res.emitRegister(res.collectRegister(m, res.file, scope, public))
		case *ast.FuncDecl:
			public := memberVisibility(m.Visibility, true)
			scope.AddMember(m.Name, public)
			res.emit(res.collectFunctionRegistering(m, res.file, scope, public))
		case *ast.VarDecl:
			public := memberVisibility(m.Visibility, false)
			scope.AddMember(m.Name, public)
			res.emit(res.collectVariable(m, res.file, scope, public))
		}
	}
}

// memberVisibility applies an explicit modifier over the kind-dependent
// default: functions and type declarations default public, variables
// default private.
func memberVisibility(vis ast.Visibility, defaultPublic bool) bool {
	switch vis {
	case ast.VisPublic:
		return true
	case ast.VisPrivate:
		return false
	}
	return defaultPublic
}

func (res *resolver) emit(sym Symbol) {
	res.result.Symbols = append(res.result.Symbols, sym)
}

func (res *resolver) emitEnum(enum *Enum) {
	res.emit(enum)
	for _, m := range enum.Members {
		res.emit(m)
	}
}

func (res *resolver) emitRegister(reg *Register) {
	res.emit(reg)
	for _, m := range reg.Members {
		res.emit(m)
	}
}
