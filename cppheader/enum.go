package cppheader

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jlaustill/c-next-sub006/analysis"
	"github.com/jlaustill/c-next-sub006/cparser"
)

// addEnum converts an enum declaration.  Scoped enumerators (enum class)
// qualify under the enum name; unscoped ones inject into the enclosing
// scope, matching C++ name lookup.  Every enumerator with a computable
// value lands in the constant table.
func (r *resolver) addEnum(node *sitter.Node, path []string) {
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	scoped := false
	for i := 0; i < int(node.ChildCount()); i++ {
		switch node.Child(i).Type() {
		case "class", "struct":
			scoped = true
		}
	}

	var enumParts []string
	var enum *analysis.Enum
	mangledEnum := ""
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		enumParts = childPath(path, nameNode.Content(r.src))
		mangledEnum = analysis.MangleParts(enumParts...)
		enum = &analysis.Enum{SymbolBase: r.base(enumParts, line(node))}
		r.res.Types[mangledEnum] = analysis.UserType(mangledEnum)
	}

	next := int64(0)
	haveNext := true
	index := 0
	for i := 0; i < int(body.NamedChildCount()); i++ {
		e := body.NamedChild(i)
		if e.Type() != "enumerator" {
			continue
		}
		nameNode := e.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Content(r.src)

		var memberParts []string
		if scoped && enumParts != nil {
			memberParts = childPath(enumParts, name)
		} else {
			memberParts = childPath(path, name)
		}
		mangled := analysis.MangleParts(memberParts...)

		valueText := ""
		if valueNode := e.ChildByFieldName("value"); valueNode != nil {
			valueText = valueNode.Content(r.src)
			if v, err := cparser.EvalConstExpr(valueText, r.lookupConst); err == nil {
				next = v
				haveNext = true
			} else {
				haveNext = false
			}
		}
		if haveNext {
			r.res.Consts[mangled] = int(next)
			if !scoped && enumParts != nil {
				// C++11 also allows qualifying an unscoped enumerator
				// through the enum name.
				r.res.Consts[analysis.MangleParts(childPath(enumParts, name)...)] = int(next)
			}
			next++
		}

		member := &analysis.EnumMember{
			SymbolBase: r.base(memberParts, line(e)),
			EnumName:   mangledEnum,
			Value:      valueText,
			Index:      index,
		}
		index++
		if enum != nil {
			enum.Members = append(enum.Members, member)
		}
		r.res.Symbols = append(r.res.Symbols, member)
	}

	if enum != nil {
		r.res.Symbols = append(r.res.Symbols, enum)
	}
}
