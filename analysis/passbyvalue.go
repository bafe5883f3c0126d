package analysis

import (
	"github.com/jlaustill/c-next-sub006/ast"
	"github.com/jlaustill/c-next-sub006/astutil"
)

// PassByValueSet records, per mangled function name, which parameters may
// be lowered by value instead of by pointer.
type PassByValueSet map[string]map[string]bool

// PassByValue reports the decision for one parameter.  Unknown functions
// and parameters report false, the conservative lowering.
func (s PassByValueSet) PassByValue(function, param string) bool {
	return s[function][param]
}

// CrossFileState accumulates function facts across translation units so a
// caller in one file observes modifications made by a callee defined in
// another.  The zero value is not usable; construct with NewCrossFileState
// and share one instance across a whole build.
type CrossFileState struct {
	// Params holds each function's parameter names in declaration order,
	// keyed by mangled function name.
	Params map[string][]string
	// Modified marks parameters written anywhere in the function's body,
	// directly or through calls.
	Modified map[string]map[string]bool
}

func NewCrossFileState() *CrossFileState {
	return &CrossFileState{
		Params:   make(map[string][]string),
		Modified: make(map[string]map[string]bool),
	}
}

// callEdge records one argument of one call site: the caller's parameter
// arg flows into the callee's parameter at position pos.  Edges are only
// recorded when the argument is a bare parameter identifier; anything else
// cannot carry a modification back to the caller's parameter.
type callEdge struct {
	caller string
	callee string
	pos    int
	arg    string
}

// PassByValueAnalyzer decides which parameters keep value semantics in
// generated code.  A parameter passes by value when its type is a small
// primitive, it is not an array, and no statement in the function or in any
// transitively called function writes through it.
//
// Modification facts propagate along call edges to a fixed point, so the
// analysis is insensitive to declaration order and handles call cycles.
// The analyzer is reusable; each Analyze call starts from a clean slate.
type PassByValueAnalyzer struct {
	params      map[string][]string
	types       map[string]map[string]TypeDesc
	arrays      map[string]map[string]bool
	modified    map[string]map[string]bool
	subscripted map[string]map[string]bool
	local       map[string]bool
	edges       []callEdge
}

func NewPassByValueAnalyzer() *PassByValueAnalyzer {
	return &PassByValueAnalyzer{}
}

// Analyze computes pass-by-value decisions for every function symbol in
// symbols.  state carries parameter and modification facts between files;
// it is read for seeding and updated with this file's functions.  A nil
// state analyzes the file in isolation.
func (a *PassByValueAnalyzer) Analyze(symbols []Symbol, state *CrossFileState) PassByValueSet {
	a.reset()
	if state != nil {
		for name, params := range state.Params {
			a.params[name] = params
		}
		for name, set := range state.Modified {
			for param := range set {
				mark(a.modified, name, param)
			}
		}
	}

	var functions []*Function
	for _, sym := range symbols {
		fn, ok := sym.(*Function)
		if !ok {
			continue
		}
		functions = append(functions, fn)
		a.register(fn)
	}
	for _, fn := range functions {
		a.scanBody(fn)
	}
	a.propagate()

	set := make(PassByValueSet, len(a.local))
	for name := range a.local {
		decisions := make(map[string]bool, len(a.params[name]))
		for _, p := range a.params[name] {
			t := a.types[name][p]
			decisions[p] = t.SmallPrimitive() &&
				!a.arrays[name][p] &&
				!a.modified[name][p] &&
				!a.subscripted[name][p]
		}
		set[name] = decisions
	}

	if state != nil {
		for name := range a.local {
			state.Params[name] = a.params[name]
			modified := make(map[string]bool, len(a.modified[name]))
			for param := range a.modified[name] {
				modified[param] = true
			}
			state.Modified[name] = modified
		}
	}
	return set
}

func (a *PassByValueAnalyzer) reset() {
	a.params = make(map[string][]string)
	a.types = make(map[string]map[string]TypeDesc)
	a.arrays = make(map[string]map[string]bool)
	a.modified = make(map[string]map[string]bool)
	a.subscripted = make(map[string]map[string]bool)
	a.local = make(map[string]bool)
	a.edges = nil
}

// register records a local function's parameter list.  A local definition
// supersedes any seeded entry of the same name.
func (a *PassByValueAnalyzer) register(fn *Function) {
	name := fn.SymName
	a.local[name] = true
	params := make([]string, 0, len(fn.Params))
	types := make(map[string]TypeDesc, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, p.Name)
		types[p.Name] = p.Type
		if p.IsArray {
			mark(a.arrays, name, p.Name)
		}
	}
	a.params[name] = params
	a.types[name] = types
	delete(a.modified, name)
}

// scanBody walks one function body recording direct parameter writes,
// single-index subscripts of parameters, and call edges.  A two-index
// subscript extracts bits from a scalar and does not make its operand an
// array, so it never disqualifies.
func (a *PassByValueAnalyzer) scanBody(fn *Function) {
	if fn.Body == nil {
		return
	}
	name := fn.SymName
	scopeName := ""
	if fn.Owner != nil {
		scopeName = fn.Owner.Name
	}
	isParam := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		isParam[p.Name] = true
	}
	astutil.WalkStmt(fn.Body, func(stmt ast.Stmt) bool {
		if as, ok := stmt.(*ast.AssignStmt); ok {
			if root, ok := astutil.RootIdent(as.Target); ok && isParam[root] {
				mark(a.modified, name, root)
			}
		}
		return true
	})
	astutil.Exprs(fn.Body, func(expr ast.Expr) bool {
		switch x := expr.(type) {
		case *ast.IndexExpr:
			if base, ok := astutil.BaseIdent(x.X); ok && isParam[base] {
				mark(a.subscripted, name, base)
			}
		case *ast.CallExpr:
			a.recordCall(name, scopeName, isParam, x)
		}
		return true
	})
}

// recordCall resolves the callee name and records an edge for every
// argument that is a bare parameter of the caller.
func (a *PassByValueAnalyzer) recordCall(caller, scopeName string, isParam map[string]bool, call *ast.CallExpr) {
	callee := a.calleeName(call.Fun, scopeName)
	if callee == "" {
		return
	}
	for pos, arg := range call.Args {
		if name, ok := astutil.BaseIdent(arg); ok && isParam[name] {
			a.edges = append(a.edges, callEdge{caller: caller, callee: callee, pos: pos, arg: name})
		}
	}
}

// calleeName maps a call target expression to a mangled function name.  A
// plain call from inside a scope prefers the scope-local function when one
// is known, matching name resolution in generated code.
func (a *PassByValueAnalyzer) calleeName(fun ast.Expr, scopeName string) string {
	switch f := fun.(type) {
	case *ast.Ident:
		if scopeName != "" {
			scoped := Mangle(scopeName, f.Name)
			if _, ok := a.params[scoped]; ok {
				return scoped
			}
		}
		return f.Name
	case *ast.SelectorExpr:
		path, ok := astutil.SelectorPath(f)
		if !ok {
			return ""
		}
		switch path[0] {
		case "this":
			return MangleParts(append([]string{scopeName}, path[1:]...)...)
		case "global":
			return MangleParts(path[1:]...)
		}
		return MangleParts(path...)
	}
	return ""
}

// propagate runs the modification fixed point: whenever a modified callee
// parameter receives a caller parameter, the caller parameter is modified
// too.  Iteration stops on the first pass that adds nothing.
func (a *PassByValueAnalyzer) propagate() {
	for changed := true; changed; {
		changed = false
		for _, e := range a.edges {
			params := a.params[e.callee]
			if e.pos >= len(params) {
				continue
			}
			if !a.modified[e.callee][params[e.pos]] {
				continue
			}
			if mark(a.modified, e.caller, e.arg) {
				changed = true
			}
		}
	}
}

// mark sets m[fn][param] and reports whether it was newly set.
func mark(m map[string]map[string]bool, fn, param string) bool {
	set := m[fn]
	if set == nil {
		set = make(map[string]bool)
		m[fn] = set
	}
	if set[param] {
		return false
	}
	set[param] = true
	return true
}
