package analysis

import "github.com/jlaustill/c-next-sub006/ast"

// Scope represents a namespace grouping related declarations.  The global
// scope has an empty name and a nil parent; every named scope parents
// directly to global.
type Scope struct {
	Name   string
	Parent *Scope

	members    []string
	visibility map[string]bool
	functions  map[string]*Function
	variables  map[string]*Variable
}

func newScope(name string, parent *Scope) *Scope {
	return &Scope{
		Name:       name,
		Parent:     parent,
		visibility: make(map[string]bool),
		functions:  make(map[string]*Function),
		variables:  make(map[string]*Variable),
	}
}

// IsGlobal reports whether s is the global scope.
func (s *Scope) IsGlobal() bool { return s.Parent == nil }

// AddMember records a member name and its visibility.  Re-adding a member
// updates its visibility and keeps its original position.
func (s *Scope) AddMember(name string, public bool) {
	if _, ok := s.visibility[name]; !ok {
		s.members = append(s.members, name)
	}
	s.visibility[name] = public
}

// Members returns the member names in registration order.
func (s *Scope) Members() []string {
	return s.members
}

// MemberPublic reports a member's visibility.  The second value is false
// when the name is not a member of s.
func (s *Scope) MemberPublic(name string) (bool, bool) {
	public, ok := s.visibility[name]
	return public, ok
}

// DefineFunction registers a function symbol in the scope's function
// sub-collection under its bare (unmangled) name.
func (s *Scope) DefineFunction(name string, fn *Function) {
	s.functions[name] = fn
}

// Function looks up a function by bare name in this scope only.
func (s *Scope) Function(name string) (*Function, bool) {
	fn, ok := s.functions[name]
	return fn, ok
}

// DefineVariable registers a variable symbol under its bare name.
func (s *Scope) DefineVariable(name string, v *Variable) {
	s.variables[name] = v
}

// Variable looks up a variable by bare name in this scope only.
func (s *Scope) Variable(name string) (*Variable, bool) {
	v, ok := s.variables[name]
	return v, ok
}

// Registry owns the scope tree for resolution runs.  It is constructed by
// the caller and passed by handle through the pipeline; it is not safe for
// concurrent mutation.  Callers processing many files serialize on one
// instance, calling Reset between independent runs, or give each file its
// own instance.
type Registry struct {
	global        *Scope
	scopes        map[string]*Scope
	scopeOrder    []string
	cppNamespaces map[string]bool
}

// NewRegistry returns a Registry holding a fresh global scope.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset clears all scopes, leaving a freshly created global scope.
// Registered C++ namespaces are cleared as well.
func (r *Registry) Reset() {
	r.global = newScope("", nil)
	r.scopes = make(map[string]*Scope)
	r.scopeOrder = nil
	r.cppNamespaces = make(map[string]bool)
}

// GlobalScope returns the single global scope.
func (r *Registry) GlobalScope() *Scope {
	return r.global
}

// GetOrCreateScope returns the named scope, creating it parented to global
// on first use.  Repeated calls with the same name return the identical
// instance.
func (r *Registry) GetOrCreateScope(name string) *Scope {
	if name == "" {
		return r.global
	}
	if s, ok := r.scopes[name]; ok {
		return s
	}
	s := newScope(name, r.global)
	r.scopes[name] = s
	r.scopeOrder = append(r.scopeOrder, name)
	return s
}

// Scope returns the named scope if it exists.
func (r *Registry) Scope(name string) (*Scope, bool) {
	if name == "" {
		return r.global, true
	}
	s, ok := r.scopes[name]
	return s, ok
}

// ScopeNames returns the named scopes in creation order.
func (r *Registry) ScopeNames() []string {
	return r.scopeOrder
}

// FunctionResolution is the result of a successful function lookup.
type FunctionResolution struct {
	ReturnType TypeDesc
	Body       *ast.BlockStmt
}

// ResolveFunction looks up a function by bare name in scope, returning its
// resolved return type and stored body.  The second value is false when the
// scope has no such function; lookups never fail otherwise.
func (r *Registry) ResolveFunction(name string, scope *Scope) (FunctionResolution, bool) {
	if scope == nil {
		scope = r.global
	}
	fn, ok := scope.Function(name)
	if !ok {
		return FunctionResolution{}, false
	}
	return FunctionResolution{ReturnType: fn.ReturnType, Body: fn.Body}, true
}

// RegisterCppNamespace marks a dotted scope path as a native C++ namespace
// for namespace conversion.
func (r *Registry) RegisterCppNamespace(path string) {
	r.cppNamespaces[path] = true
}

// IsCppNamespace reports whether the dotted scope path was registered as a
// native C++ namespace.
func (r *Registry) IsCppNamespace(path string) bool {
	return r.cppNamespaces[path]
}
