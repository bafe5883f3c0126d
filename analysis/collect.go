package analysis

import (
	"fmt"
	"strings"

	"github.com/jlaustill/c-next-sub006/ast"
	"github.com/jlaustill/c-next-sub006/astutil"
	"github.com/jlaustill/c-next-sub006/parser/token"
)

// Each collector turns one parsed declaration into a typed symbol.  They
// never mutate the parse tree; auxiliary context (const values, known
// bitmaps) comes in through the resolver.

func symbolBase(name string, scope *Scope, file string, loc *token.Location, public bool) SymbolBase {
	line := 0
	if loc != nil {
		line = loc.Line
	}
	return SymbolBase{
		SymName: name,
		Owner:   scope,
		SrcFile: file,
		SrcLine: line,
		Lang:    LangCNext,
		Public:  public,
	}
}

// collectBitmap validates that summed field widths exactly equal the
// declared backing width before producing any symbols.  A mismatch aborts
// this declaration only.
func collectBitmap(decl *ast.BitmapDecl, file string, scope *Scope, public bool) (*Bitmap, *BitmapWidthError) {
	sum := 0
	for _, f := range decl.Fields {
		sum += f.Bits
	}
	name := Mangle(scope.Name, decl.Name)
	if sum != decl.Width {
		return nil, &BitmapWidthError{
			Bitmap:   name,
			Declared: decl.Width,
			Sum:      sum,
			Source:   decl.Loc(),
		}
	}
	bitmap := &Bitmap{
		SymbolBase: symbolBase(name, scope, file, decl.Loc(), public),
		Width:      decl.Width,
	}
	offset := 0
	for _, f := range decl.Fields {
		bitmap.Fields = append(bitmap.Fields, &BitmapField{
			SymbolBase: symbolBase(Mangle(name, f.Name), scope, file, f.Loc(), public),
			BitmapName: name,
			Offset:     offset,
			Bits:       f.Bits,
		})
		offset += f.Bits
	}
	return bitmap, nil
}

func collectEnum(decl *ast.EnumDecl, file string, scope *Scope, public bool) *Enum {
	name := Mangle(scope.Name, decl.Name)
	enum := &Enum{
		SymbolBase: symbolBase(name, scope, file, decl.Loc(), public),
	}
	for i, m := range decl.Members {
		member := &EnumMember{
			SymbolBase: symbolBase(Mangle(scope.Name, m.Name), scope, file, m.Loc(), public),
			EnumName:   name,
			Index:      i,
		}
		if m.Value != nil {
			member.Value = astutil.ExprString(m.Value)
		}
		enum.Members = append(enum.Members, member)
	}
	return enum
}

func (res *resolver) collectStruct(decl *ast.StructDecl, file string, scope *Scope, public bool) *Struct {
	name := Mangle(scope.Name, decl.Name)
	st := &Struct{
		SymbolBase: symbolBase(name, scope, file, decl.Loc(), public),
	}
	for _, f := range decl.Fields {
		if reservedWords[f.Name] {
			res.warnf(f.Loc(), "struct %s field %s collides with reserved identifier %q",
				name, f.Name, f.Name)
		}
		st.Fields = append(st.Fields, StructField{
			Name: f.Name,
			Type: res.resolveType(f.Type, scope),
		})
	}
	return st
}

func (res *resolver) collectVariable(decl *ast.VarDecl, file string, scope *Scope, public bool) *Variable {
	typ := res.resolveType(decl.Type, scope)
	if typ.IsArray() && !typ.DimKnown && typ.DimText == "" {
		// Empty-dimension arrays take their size from the initializer.
		if lit, ok := decl.Init.(*ast.ArrayLit); ok {
			typ.Dim = len(lit.Elems)
			typ.DimKnown = true
		}
	}
	v := &Variable{
		SymbolBase: symbolBase(Mangle(scope.Name, decl.Name), scope, file, decl.Loc(), public),
		Type:       typ,
		Const:      decl.Const,
		Atomic:     decl.Atomic,
		InitText:   decl.InitText,
	}
	scope.DefineVariable(decl.Name, v)
	return v
}

func (res *resolver) collectFunction(decl *ast.FuncDecl, file string, scope *Scope, public bool) *Function {
	name := Mangle(scope.Name, decl.Name)
	fn := &Function{
		SymbolBase: symbolBase(name, scope, file, decl.Loc(), public),
		ReturnType: res.resolveType(decl.Return, scope),
		Body:       decl.Body,
	}
	for _, p := range decl.Params {
		typ := res.resolveType(p.Type, scope)
		fn.Params = append(fn.Params, FuncParam{
			Name:    p.Name,
			Type:    typ,
			IsArray: typ.IsArray(),
		})
	}
	fn.Signature = FormatSignature(fn)
	return fn
}

// collectFunctionRegistering also inserts the function into the scope
// registry so later lookups and the pass-by-value analyzer can resolve it
// by bare name.
func (res *resolver) collectFunctionRegistering(decl *ast.FuncDecl, file string, scope *Scope, public bool) *Function {
	fn := res.collectFunction(decl, file, scope, public)
	scope.DefineFunction(decl.Name, fn)
	return fn
}

// FormatSignature builds the overload/duplicate-detection key: return
// type, mangled name, and parameter type list.
func FormatSignature(fn *Function) string {
	var sb strings.Builder
	sb.WriteString(fn.ReturnType.Name)
	sb.WriteByte(' ')
	sb.WriteString(fn.SymName)
	sb.WriteByte('(')
	for i, p := range fn.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Type.Name)
		if p.IsArray {
			sb.WriteString("[]")
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func (res *resolver) collectRegister(decl *ast.RegisterDecl, file string, scope *Scope, public bool) *Register {
	name := Mangle(scope.Name, decl.Name)
	reg := &Register{
		SymbolBase: symbolBase(name, scope, file, decl.Loc(), public),
		Type:       res.resolveType(decl.Type, scope),
		Address:    decl.AddrText,
	}
	for _, m := range decl.Members {
		typ := res.resolveType(m.Type, scope)
		member := &RegisterMember{
			SymbolBase:   symbolBase(Mangle(name, m.Name), scope, file, m.Loc(), public),
			RegisterName: name,
			Type:         typ,
			Access:       m.Access,
			IsBitmap:     res.isKnownBitmap(m.Type, typ, scope),
		}
		reg.Members = append(reg.Members, member)
	}
	return reg
}

// isKnownBitmap cross-references a member type against the bitmap names
// completed in the earlier pass: scope-qualified first, then bare, then
// the fully resolved spelling for explicitly qualified types.
func (res *resolver) isKnownBitmap(typ *ast.TypeExpr, resolved TypeDesc, scope *Scope) bool {
	if typ == nil || resolved.Kind != TypeUser {
		return false
	}
	if typ.Qualifier == "" && len(typ.Path) == 0 {
		if res.knownBitmaps[Mangle(scope.Name, typ.Name)] {
			return true
		}
		return res.knownBitmaps[typ.Name]
	}
	return res.knownBitmaps[resolved.Name]
}

func (res *resolver) warnf(loc *token.Location, format string, v ...interface{}) {
	res.result.Warnings = append(res.result.Warnings, &Warning{
		Message: fmt.Sprintf(format, v...),
		Source:  loc,
	})
}

// reservedWords are identifiers that cannot appear as field names in
// generated code.
var reservedWords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true,
	"continue": true, "default": true, "do": true, "double": true,
	"extern": true, "float": true, "goto": true, "inline": true,
	"int": true, "long": true, "restrict": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "switch": true,
	"typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "_Bool": true, "_Complex": true, "_Imaginary": true,
}
