package cppheader

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jlaustill/c-next-sub006/analysis"
	"github.com/jlaustill/c-next-sub006/cparser"
)

// addClass converts a class or struct.  Only the public surface is
// recorded: private and protected members cannot be reached from
// generated code.  Nested classes, enums, and aliases nest under the
// class name like a namespace level.
func (r *resolver) addClass(node *sitter.Node, path []string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	classPath := childPath(path, nameNode.Content(r.src))
	mangled := analysis.MangleParts(classPath...)

	st := &analysis.Struct{SymbolBase: r.base(classPath, line(node))}
	r.res.Types[mangled] = analysis.UserType(mangled)
	body := node.ChildByFieldName("body")
	if body == nil {
		// Forward declaration.
		st.Opaque = true
		r.res.Symbols = append(r.res.Symbols, st)
		return
	}

	// struct members default to public, class members to private.
	public := node.Type() == "struct_specifier"
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		switch member.Type() {
		case "access_specifier":
			public = member.Content(r.src) == "public"
		case "field_declaration":
			if public {
				r.addMember(st, member, classPath)
			}
		case "function_definition":
			if public {
				r.addFunctionDefinition(member, classPath)
			}
		case "class_specifier", "struct_specifier":
			if public {
				r.addClass(member, classPath)
			}
		case "enum_specifier":
			if public {
				r.addEnum(member, classPath)
			}
		case "type_definition":
			if public {
				r.addTypedef(member, classPath)
			}
		case "alias_declaration":
			if public {
				r.addAlias(member, classPath)
			}
		case "template_declaration":
			// Member templates are skipped like namespace-level ones.
		}
	}

	r.res.Symbols = append(r.res.Symbols, st)
}

// addMember converts one field_declaration inside a class body: an
// instance field, a static data member, or a method prototype.
func (r *resolver) addMember(st *analysis.Struct, node *sitter.Node, classPath []string) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		// Constructor, destructor, or friend declaration.
		return
	}
	static := hasQualifier(node, r.src, "static")
	for _, d := range declarators(node) {
		decl, ptrs := r.unwrapDeclarator(d)
		if decl == nil {
			continue
		}
		switch decl.Type() {
		case "function_declarator":
			r.emitFunction(node, typeNode, decl, ptrs, classPath)
		case "field_identifier", "identifier":
			if static {
				r.emitStaticMember(node, typeNode, decl, ptrs, classPath)
				continue
			}
			st.Fields = append(st.Fields, analysis.StructField{
				Name: decl.Content(r.src),
				Type: r.typeDesc(typeNode, ptrs, classPath),
			})
		case "array_declarator":
			size := ""
			if sz := decl.ChildByFieldName("size"); sz != nil {
				size = sz.Content(r.src)
			}
			inner, more := r.unwrapDeclarator(decl.ChildByFieldName("declarator"))
			if inner == nil {
				continue
			}
			st.Fields = append(st.Fields, analysis.StructField{
				Name: inner.Content(r.src),
				Type: r.arrayType(r.typeDesc(typeNode, ptrs+more, classPath), size),
			})
		}
	}
}

// emitStaticMember records a static data member as a class-scoped
// variable.  static constexpr integers join the constant table so they
// can size arrays.
func (r *resolver) emitStaticMember(node, typeNode, decl *sitter.Node, ptrs int, classPath []string) {
	parts := childPath(classPath, decl.Content(r.src))
	mangled := analysis.MangleParts(parts...)
	v := &analysis.Variable{
		SymbolBase: r.base(parts, line(node)),
		Type:       r.typeDesc(typeNode, ptrs, classPath),
		Const:      hasQualifier(node, r.src, "const") || hasQualifier(node, r.src, "constexpr"),
	}
	if value := node.ChildByFieldName("default_value"); value != nil {
		v.InitText = strings.TrimSpace(value.Content(r.src))
		if v.Const {
			if val, err := cparser.EvalConstExpr(v.InitText, r.lookupConst); err == nil {
				r.res.Consts[mangled] = int(val)
			}
		}
	}
	r.global.DefineVariable(mangled, v)
	r.res.Symbols = append(r.res.Symbols, v)
}
