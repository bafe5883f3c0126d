// Package cparser parses the declaration subset of C found in library
// headers: typedefs, struct/union/enum definitions, function prototypes,
// external variables, and object-like macros.
//
// It is not a C front end.  Constructs outside the modeled subset
// (function bodies, attributes, conditional-compilation structure) are
// skipped structurally rather than rejected, because vendor headers mix
// API declarations with implementation detail.  The parser never fails on
// an individual declaration; it fails only on input it cannot recover a
// token boundary from.
package cparser

import "strings"

// Type is a parsed C type reference: a base spelling plus pointer depth.
type Type struct {
	// Base is the canonical spelling: "unsigned long", "uint8_t",
	// "struct _point_t".  Anonymous aggregates use "struct" or "union".
	Base string
	// Tag is the aggregate or enum tag when the base is a struct, union,
	// or enum reference.
	Tag      string
	Struct   bool
	Union    bool
	Enum     bool
	Const    bool
	Pointers int
}

// IsPointer reports whether the type has at least one level of
// indirection.
func (t Type) IsPointer() bool { return t.Pointers > 0 }

func (t Type) String() string {
	s := t.Base
	if t.Const {
		s = "const " + s
	}
	if t.Pointers > 0 {
		s += " " + strings.Repeat("*", t.Pointers)
	}
	return s
}

// Field is one member of a struct or union body.
type Field struct {
	Name string
	Type Type
	// Bits is the bit-field width, 0 when the member is not a bit-field.
	Bits      int
	Array     bool
	ArraySize string // verbatim dimension text, "" when empty
	// Anon holds the inline body of an anonymous aggregate member.
	Anon *StructDef
	// Func holds the signature of a function-pointer member.
	Func *FuncPtr
	Line int
}

// StructDef is a struct or union definition with a visible body.
type StructDef struct {
	Tag    string
	Union  bool
	Fields []Field
	Line   int
}

// FuncPtr is the signature of a function-pointer declarator.
type FuncPtr struct {
	Return   Type
	Params   []Param
	Variadic bool
}

// Param is one function parameter.  Headers frequently omit parameter
// names; Name is "" in that case.
type Param struct {
	Name  string
	Type  Type
	Array bool
	Func  *FuncPtr
}

// Typedef is one name introduced by a typedef declaration.  Exactly one
// of the underlying forms applies: Func for function-pointer typedefs,
// otherwise Type (with Body or Enum attached when the declaration carried
// an inline definition).
type Typedef struct {
	Name string
	Type Type
	Body *StructDef
	Enum *EnumDef
	Func *FuncPtr
	Line int
}

// Function is a function declaration.
type Function struct {
	Name     string
	Return   Type
	Params   []Param
	Variadic bool
	Extern   bool
	Static   bool
	Inline   bool
	Line     int
}

// Variable is a file-scope object declaration.
type Variable struct {
	Name   string
	Type   Type
	Extern bool
	// Func holds the signature when the object is a function pointer.
	Func      *FuncPtr
	Array     bool
	ArraySize string
	Line      int
}

// EnumDef is an enum definition with a visible body.
type EnumDef struct {
	Tag     string
	Members []EnumMember
	Line    int
}

// EnumMember is a single enumerator.  Value keeps the verbatim
// initializer text, "" when implicit.
type EnumMember struct {
	Name  string
	Value string
	Line  int
}

// Include is one #include directive.
type Include struct {
	Target string
	System bool // angle-bracket form
	Line   int
}

// Define is one object-like macro definition.  Function-like macros are
// not recorded.
type Define struct {
	Name string
	Body string
	Line int
}

// Header is the parsed declaration content of one C header.
type Header struct {
	File      string
	Includes  []Include
	Defines   []*Define
	Typedefs  []*Typedef
	Structs   []*StructDef
	Enums     []*EnumDef
	Functions []*Function
	Variables []*Variable
}

// StructByTag returns the defined body for a tag, searching standalone
// definitions and inline typedef bodies.
func (h *Header) StructByTag(tag string) (*StructDef, bool) {
	if tag == "" {
		return nil, false
	}
	for _, def := range h.Structs {
		if def.Tag == tag {
			return def, true
		}
	}
	for _, td := range h.Typedefs {
		if td.Body != nil && td.Body.Tag == tag {
			return td.Body, true
		}
	}
	return nil, false
}

// Parse parses C header source.  The returned header contains every
// declaration the parser could model; unmodeled constructs are skipped.
func Parse(file string, src []byte) (*Header, error) {
	tokens, directives := tokenize(src)
	hdr := &Header{File: file}
	for _, d := range directives {
		switch d.name {
		case "include":
			if inc, ok := parseIncludeTarget(d); ok {
				hdr.Includes = append(hdr.Includes, inc)
			}
		case "define":
			if def := parseDefine(d); def != nil {
				hdr.Defines = append(hdr.Defines, def)
			}
		}
	}
	p := &parser{file: file, tokens: tokens}
	p.parseTop(hdr)
	return hdr, nil
}

// ScanIncludes extracts only the #include directives from header source.
// It tokenizes but never parses declarations, so it is safe on headers
// in languages the declaration parser does not handle, C++ included.
// Build drivers use it to discover the header graph before resolving
// anything.
func ScanIncludes(src []byte) []Include {
	_, directives := tokenize(src)
	var includes []Include
	for _, d := range directives {
		if d.name != "include" {
			continue
		}
		if inc, ok := parseIncludeTarget(d); ok {
			includes = append(includes, inc)
		}
	}
	return includes
}

func parseIncludeTarget(d directive) (Include, bool) {
	rest := strings.TrimSpace(d.rest)
	if len(rest) < 2 {
		return Include{}, false
	}
	switch {
	case rest[0] == '<':
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return Include{}, false
		}
		return Include{Target: rest[1:end], System: true, Line: d.line}, true
	case rest[0] == '"':
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			return Include{}, false
		}
		return Include{Target: rest[1 : 1+end], Line: d.line}, true
	}
	return Include{}, false
}

func parseDefine(d directive) *Define {
	rest := d.rest
	i := 0
	for i < len(rest) && isIdentChar(rest[i]) {
		i++
	}
	if i == 0 {
		return nil
	}
	if i < len(rest) && rest[i] == '(' {
		// Function-like macro, not a constant definition.
		return nil
	}
	return &Define{Name: rest[:i], Body: strings.TrimSpace(rest[i:]), Line: d.line}
}
