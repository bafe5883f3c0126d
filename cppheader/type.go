package cppheader

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jlaustill/c-next-sub006/analysis"
	"github.com/jlaustill/c-next-sub006/cparser"
)

// childPath returns path extended by name without sharing the backing
// array with the caller's slice.
func childPath(path []string, name string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, name)
}

func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

func (r *resolver) base(parts []string, ln int) analysis.SymbolBase {
	return analysis.SymbolBase{
		SymName: analysis.MangleParts(parts...),
		Owner:   r.global,
		SrcFile: r.file,
		SrcLine: ln,
		Lang:    analysis.LangCpp,
		Public:  true,
	}
}

func (r *resolver) lookupConst(name string) (int64, bool) {
	if v, ok := r.res.Consts[name]; ok {
		return int64(v), true
	}
	if v, ok := r.extern[name]; ok {
		return int64(v), true
	}
	return 0, false
}

// unwrapDeclarator descends pointer, reference, and parenthesized
// declarators and returns the innermost node plus the pointer depth.
func (r *resolver) unwrapDeclarator(d *sitter.Node) (*sitter.Node, int) {
	ptrs := 0
	for d != nil {
		switch d.Type() {
		case "pointer_declarator":
			ptrs++
			d = d.ChildByFieldName("declarator")
		case "reference_declarator":
			// References behave like the referent for declaration
			// purposes.
			inner := d.ChildByFieldName("declarator")
			if inner == nil && d.NamedChildCount() > 0 {
				inner = d.NamedChild(int(d.NamedChildCount()) - 1)
			}
			d = inner
		case "parenthesized_declarator":
			if d.NamedChildCount() == 0 {
				return nil, ptrs
			}
			d = d.NamedChild(0)
		default:
			return d, ptrs
		}
	}
	return nil, ptrs
}

// declarators collects every child filling the declarator field, which
// is how comma lists such as "float x, y;" surface in the grammar.
func declarators(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.FieldNameForChild(i) == "declarator" {
			out = append(out, node.Child(i))
		}
	}
	return out
}

// findNode returns the first descendant of the given type within depth
// levels, searching preorder.
func findNode(node *sitter.Node, typ string, depth int) *sitter.Node {
	if node == nil || depth < 0 {
		return nil
	}
	if node.Type() == typ {
		return node
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := findNode(node.NamedChild(i), typ, depth-1); found != nil {
			return found
		}
	}
	return nil
}

// hasQualifier reports whether the declaration carries the given
// qualifier or storage class keyword.
func hasQualifier(node *sitter.Node, src []byte, word string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		switch c.Type() {
		case "type_qualifier", "storage_class_specifier":
			if c.Content(src) == word {
				return true
			}
		}
	}
	return false
}

// typeDesc converts a type node into a descriptor.  Qualified names
// mangle :: to the flat separator so C++ and C-Next symbol names share
// one namespace.  path is the scope the spelling appears in; unqualified
// user types resolve against it innermost-first, the way C++ looks
// names up.
func (r *resolver) typeDesc(typeNode *sitter.Node, ptrs int, path []string) analysis.TypeDesc {
	name := strings.TrimSpace(typeNode.Content(r.src))
	name = strings.TrimSpace(strings.TrimPrefix(name, "const "))
	t := analysis.CTypeDesc(name)
	if t.Kind == analysis.TypeUser {
		t = r.lookupUserType(name, path)
	}
	for i := 0; i < ptrs; i++ {
		elem := t
		t = analysis.TypeDesc{Kind: analysis.TypePointer, Name: elem.Name + " *", Elem: &elem}
	}
	return t
}

func (r *resolver) lookupUserType(name string, path []string) analysis.TypeDesc {
	flat := strings.ReplaceAll(name, "::", analysis.Separator)
	for i := len(path); i >= 0; i-- {
		parts := make([]string, 0, i+1)
		parts = append(parts, path[:i]...)
		qualified := analysis.MangleParts(append(parts, flat)...)
		if known, ok := r.res.Types[qualified]; ok {
			return known
		}
	}
	return analysis.UserType(flat)
}

func (r *resolver) arrayType(elem analysis.TypeDesc, size string) analysis.TypeDesc {
	t := analysis.TypeDesc{Kind: analysis.TypeArray, Name: elem.Name, Elem: &elem}
	if size == "" {
		return t
	}
	t.DimText = size
	if v, err := cparser.EvalConstExpr(size, r.lookupConst); err == nil {
		t.Dim = int(v)
		t.DimKnown = true
	}
	return t
}
