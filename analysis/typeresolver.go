package analysis

import (
	"strconv"
	"strings"

	"github.com/jlaustill/c-next-sub006/ast"
	"github.com/jlaustill/c-next-sub006/astutil"
)

// resolveType maps a parsed type spelling to its canonical descriptor.
// Every collector funnels through here, making its mangling the single
// source of truth for cross-module name uniqueness.
func (res *resolver) resolveType(typ *ast.TypeExpr, scope *Scope) TypeDesc {
	if typ == nil {
		return TypeDesc{Kind: TypeUnknown}
	}
	base := res.resolveBaseType(typ, scope)
	for i := len(typ.Dims) - 1; i >= 0; i-- {
		elem := base
		base = TypeDesc{
			Kind: TypeArray,
			Name: elem.Name,
			Elem: &elem,
		}
		res.resolveDim(&base, typ.Dims[i], scope)
	}
	return base
}

func (res *resolver) resolveBaseType(typ *ast.TypeExpr, scope *Scope) TypeDesc {
	switch {
	case typ.Qualifier == "this":
		// Scope-local qualification mangles with the enclosing scope name.
		return UserType(Mangle(scope.Name, typ.Name))
	case typ.Qualifier == "global":
		// Escape qualification strips back to the bare name.
		if prim, ok := Primitive(typ.Name); ok {
			return prim
		}
		return UserType(typ.Name)
	case len(typ.Path) > 0:
		parts := append(append([]string{}, typ.Path...), typ.Name)
		return UserType(MangleParts(parts...))
	}
	if prim, ok := Primitive(typ.Name); ok {
		return prim
	}
	if typ.Name == "string" {
		desc := TypeDesc{Kind: TypeString, Name: "string"}
		if n, ok := res.evalConst(typ.StringCap, scope); ok {
			desc.Capacity = n + 1
		}
		return desc
	}
	if typ.StringCap != nil {
		// Unrecognized parameterized form falls back to verbatim text.
		return UserType(astutil.TypeString(typ))
	}
	return UserType(typ.Name)
}

// resolveDim fills an array descriptor's dimension from a literal, a named
// constant, or leaves it as symbolic text for a later pass to resolve.
func (res *resolver) resolveDim(arr *TypeDesc, dim *ast.Dimension, scope *Scope) {
	if dim.Empty {
		return
	}
	arr.DimText = dim.Text
	if n, ok := res.evalConst(dim.Size, scope); ok {
		arr.Dim = n
		arr.DimKnown = true
	}
}

// evalConst evaluates an expression that must reduce to an integer: a
// literal, a named constant, or a scope-qualified constant.  Anything else
// reports false so the caller degrades to symbolic text.
func (res *resolver) evalConst(expr ast.Expr, scope *Scope) (int, bool) {
	switch x := expr.(type) {
	case nil:
		return 0, false
	case *ast.ParenExpr:
		return res.evalConst(x.X, scope)
	case *ast.BasicLit:
		return parseIntText(x.Text)
	case *ast.Ident:
		return res.constValue(x.Name, scope)
	case *ast.SelectorExpr:
		path, ok := astutil.SelectorPath(x)
		if !ok {
			return 0, false
		}
		if path[0] == "this" && len(path) == 2 {
			return res.constValue(path[1], scope)
		}
		if path[0] == "global" && len(path) == 2 {
			n, ok := res.consts[path[1]]
			return n, ok
		}
		n, ok := res.consts[MangleParts(path...)]
		return n, ok
	}
	return 0, false
}

// constValue resolves a bare constant name from the enclosing scope:
// scope-qualified first, then bare.
func (res *resolver) constValue(name string, scope *Scope) (int, bool) {
	if scope != nil && !scope.IsGlobal() {
		if n, ok := res.consts[Mangle(scope.Name, name)]; ok {
			return n, true
		}
	}
	n, ok := res.consts[name]
	return n, ok
}

// parseIntText parses decimal, hexadecimal (0x), and binary (0b) integer
// literal spellings.
func parseIntText(text string) (int, bool) {
	text = strings.TrimSpace(text)
	neg := false
	if strings.HasPrefix(text, "-") {
		neg = true
		text = strings.TrimSpace(text[1:])
	}
	var n int64
	var err error
	switch {
	case len(text) > 2 && (text[:2] == "0x" || text[:2] == "0X"):
		n, err = strconv.ParseInt(text[2:], 16, 64)
	case len(text) > 2 && (text[:2] == "0b" || text[:2] == "0B"):
		n, err = strconv.ParseInt(text[2:], 2, 64)
	default:
		n, err = strconv.ParseInt(text, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return int(n), true
}
