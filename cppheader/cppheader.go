// Package cppheader resolves C++ headers into symbols using the
// tree-sitter C++ grammar.  It extracts the declaration surface
// reachable from generated code: namespaces, free functions, classes and
// structs with their public members, every enum flavor, typedefs and
// aliases, and the compile-time constants (macros, constexpr values,
// enumerators) that can size arrays.
//
// Templates, operator overloads, constructors, and destructors are
// unreachable from generated code and are skipped.
package cppheader

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/jlaustill/c-next-sub006/analysis"
	"github.com/jlaustill/c-next-sub006/cparser"
)

// Result is everything one C++ header contributes.
type Result struct {
	Symbols []analysis.Symbol
	// Consts holds macro, constexpr, and enumerator values usable in
	// array dimensions, keyed by mangled name.
	Consts map[string]int
	// Types maps mangled typedef and alias names to descriptors.
	Types map[string]analysis.TypeDesc
	// Namespaces lists every namespace path seen, dot-joined, in source
	// order.
	Namespaces []string
	Includes   []cparser.Include
}

// Resolve parses a C++ header and converts its declaration surface into
// symbols.  Namespace paths register with the registry so code
// generation can qualify their members with ::.  Configuration follows
// the same sharing rules as analysis.Resolve: a nil config or registry
// gets a private one, and cfg.ExternalConsts seeds constant resolution
// from headers processed earlier.
func Resolve(ctx context.Context, file string, src []byte, cfg *analysis.Config) (*Result, error) {
	defer cfg.StartStage("cpp-header", file)()
	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if cfg == nil {
		cfg = &analysis.Config{}
	}
	registry := cfg.Registry
	if registry == nil {
		registry = analysis.NewRegistry()
	}
	r := &resolver{
		src:      src,
		file:     file,
		registry: registry,
		global:   registry.GlobalScope(),
		extern:   cfg.ExternalConsts,
		seenNS:   make(map[string]bool),
		res: &Result{
			Consts: make(map[string]int),
			Types:  make(map[string]analysis.TypeDesc),
		},
	}
	r.walk(tree.RootNode(), nil)
	return r.res, nil
}

type resolver struct {
	src      []byte
	file     string
	registry *analysis.Registry
	global   *analysis.Scope
	extern   map[string]int
	seenNS   map[string]bool
	res      *Result
}

// walk dispatches the children of a translation unit, namespace body, or
// preprocessor branch.  path carries the enclosing namespace segments.
func (r *resolver) walk(node *sitter.Node, path []string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "namespace_definition":
			r.addNamespace(child, path)
		case "class_specifier", "struct_specifier":
			r.addClass(child, path)
		case "enum_specifier":
			r.addEnum(child, path)
		case "function_definition":
			r.addFunctionDefinition(child, path)
		case "declaration":
			r.addDeclaration(child, path)
		case "type_definition":
			r.addTypedef(child, path)
		case "alias_declaration":
			r.addAlias(child, path)
		case "preproc_def":
			r.addMacro(child)
		case "preproc_include":
			r.addInclude(child)
		case "template_declaration":
			// Templates cannot be instantiated from generated code.
		case "linkage_specification", "declaration_list",
			"preproc_ifdef", "preproc_if", "preproc_else":
			r.walk(child, path)
		}
	}
}

func (r *resolver) addNamespace(node *sitter.Node, path []string) {
	newPath := append([]string{}, path...)
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		// namespace A::B { } introduces every level of the path.
		for _, seg := range strings.Split(nameNode.Content(r.src), "::") {
			if seg == "" {
				continue
			}
			newPath = append(newPath, seg)
			r.registerNamespace(newPath)
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		r.walk(body, newPath)
	}
}

func (r *resolver) registerNamespace(path []string) {
	dotted := strings.Join(path, ".")
	if r.seenNS[dotted] {
		return
	}
	r.seenNS[dotted] = true
	r.registry.RegisterCppNamespace(dotted)
	r.res.Namespaces = append(r.res.Namespaces, dotted)
}

// addFunctionDefinition handles inline definitions at namespace level,
// including constexpr functions and out-of-line qualified definitions.
func (r *resolver) addFunctionDefinition(node *sitter.Node, path []string) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		// Constructor or destructor.
		return
	}
	decl, ptrs := r.unwrapDeclarator(node.ChildByFieldName("declarator"))
	if decl == nil || decl.Type() != "function_declarator" {
		return
	}
	r.emitFunction(node, typeNode, decl, ptrs, path)
}

// addDeclaration handles namespace-level declarations: function
// prototypes, constexpr constants, and extern variables.
func (r *resolver) addDeclaration(node *sitter.Node, path []string) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	for _, d := range declarators(node) {
		var valueNode *sitter.Node
		if d.Type() == "init_declarator" {
			valueNode = d.ChildByFieldName("value")
			d = d.ChildByFieldName("declarator")
		}
		decl, ptrs := r.unwrapDeclarator(d)
		if decl == nil {
			continue
		}
		switch decl.Type() {
		case "function_declarator":
			r.emitFunction(node, typeNode, decl, ptrs, path)
		case "identifier", "field_identifier", "array_declarator":
			r.emitVariable(node, typeNode, decl, ptrs, valueNode, path)
		}
	}
}

func (r *resolver) emitFunction(node, typeNode, fdecl *sitter.Node, ptrs int, path []string) {
	nameNode := fdecl.ChildByFieldName("declarator")
	if nameNode == nil {
		return
	}
	raw := nameNode.Content(r.src)
	short := raw
	if i := strings.LastIndex(raw, "::"); i >= 0 {
		short = raw[i+2:]
	}
	if strings.HasPrefix(short, "operator") || strings.HasPrefix(short, "~") {
		return
	}
	var parts []string
	if strings.Contains(raw, "::") {
		// Out-of-line definition carries its own qualification.
		parts = strings.Split(raw, "::")
	} else {
		parts = childPath(path, raw)
	}
	fn := &analysis.Function{
		SymbolBase: r.base(parts, line(node)),
		ReturnType: r.typeDesc(typeNode, ptrs, path),
	}
	r.addParams(fn, fdecl.ChildByFieldName("parameters"), path)
	fn.Signature = analysis.FormatSignature(fn)
	r.global.DefineFunction(fn.SymName, fn)
	r.res.Symbols = append(r.res.Symbols, fn)
}

func (r *resolver) addParams(fn *analysis.Function, params *sitter.Node, path []string) {
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
		default:
			continue
		}
		typeNode := p.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		d, ptrs := r.unwrapDeclarator(p.ChildByFieldName("declarator"))
		if d == nil && typeNode.Content(r.src) == "void" {
			continue
		}
		prm := analysis.FuncParam{Type: r.typeDesc(typeNode, ptrs, path)}
		if d != nil {
			switch d.Type() {
			case "identifier", "field_identifier":
				prm.Name = d.Content(r.src)
			case "array_declarator":
				prm.IsArray = true
				elem := prm.Type
				prm.Type = analysis.TypeDesc{Kind: analysis.TypeArray, Name: elem.Name, Elem: &elem}
				if inner, _ := r.unwrapDeclarator(d.ChildByFieldName("declarator")); inner != nil {
					prm.Name = inner.Content(r.src)
				}
			case "function_declarator":
				// Function-pointer parameter.
				prm.Type = analysis.TypeDesc{Kind: analysis.TypePointer, Name: typeNode.Content(r.src) + " (*)"}
				if id := findNode(d, "identifier", 4); id != nil {
					prm.Name = id.Content(r.src)
				}
			}
		}
		fn.Params = append(fn.Params, prm)
	}
}

func (r *resolver) emitVariable(node, typeNode, decl *sitter.Node, ptrs int, valueNode *sitter.Node, path []string) {
	t := r.typeDesc(typeNode, ptrs, path)
	if decl.Type() == "array_declarator" {
		size := ""
		if sz := decl.ChildByFieldName("size"); sz != nil {
			size = sz.Content(r.src)
		}
		inner, more := r.unwrapDeclarator(decl.ChildByFieldName("declarator"))
		if inner == nil {
			return
		}
		t = r.arrayType(r.typeDesc(typeNode, ptrs+more, path), size)
		decl = inner
	}
	parts := childPath(path, decl.Content(r.src))
	mangled := analysis.MangleParts(parts...)
	v := &analysis.Variable{
		SymbolBase: r.base(parts, line(node)),
		Type:       t,
		Const:      hasQualifier(node, r.src, "const") || hasQualifier(node, r.src, "constexpr"),
	}
	if valueNode != nil {
		v.InitText = valueNode.Content(r.src)
	}
	// const and constexpr integers feed dimension resolution.
	if v.Const && valueNode != nil {
		if val, err := cparser.EvalConstExpr(v.InitText, r.lookupConst); err == nil {
			r.res.Consts[mangled] = int(val)
		}
	}
	r.global.DefineVariable(mangled, v)
	r.res.Symbols = append(r.res.Symbols, v)
}

func (r *resolver) addMacro(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	valueNode := node.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil {
		return
	}
	text := strings.TrimSpace(valueNode.Content(r.src))
	if v, err := cparser.EvalConstExpr(text, r.lookupConst); err == nil {
		r.res.Consts[nameNode.Content(r.src)] = int(v)
	}
}

func (r *resolver) addInclude(node *sitter.Node) {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	text := strings.TrimSpace(pathNode.Content(r.src))
	if len(text) < 2 {
		return
	}
	r.res.Includes = append(r.res.Includes, cparser.Include{
		Target: text[1 : len(text)-1],
		System: text[0] == '<',
		Line:   line(node),
	})
}

func (r *resolver) addTypedef(node *sitter.Node, path []string) {
	typeNode := node.ChildByFieldName("type")
	for _, d := range declarators(node) {
		decl, ptrs := r.unwrapDeclarator(d)
		if decl == nil {
			continue
		}
		if decl.Type() != "type_identifier" && decl.Type() != "identifier" {
			continue
		}
		mangled := analysis.MangleParts(childPath(path, decl.Content(r.src))...)
		switch {
		case ptrs > 0 || typeNode == nil:
			r.res.Types[mangled] = analysis.TypeDesc{Kind: analysis.TypePointer, Name: mangled}
		default:
			r.res.Types[mangled] = r.typeDesc(typeNode, 0, path)
		}
	}
}

func (r *resolver) addAlias(node *sitter.Node, path []string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	mangled := analysis.MangleParts(childPath(path, nameNode.Content(r.src))...)
	typeNode := node.ChildByFieldName("type")
	switch {
	case typeNode == nil:
		r.res.Types[mangled] = analysis.UserType(mangled)
	case strings.Contains(typeNode.Content(r.src), "*"):
		r.res.Types[mangled] = analysis.TypeDesc{Kind: analysis.TypePointer, Name: mangled}
	default:
		r.res.Types[mangled] = r.typeDesc(typeNode, 0, path)
	}
}
