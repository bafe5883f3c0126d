package analysis

import (
	"strings"

	"github.com/jlaustill/c-next-sub006/cparser"
)

// CHeaderResult is everything one C header contributes: symbols for the
// registry, macro and enum constants usable in array dimensions, typedef
// descriptors, and the includes the header pulls in.
type CHeaderResult struct {
	Symbols []Symbol
	Consts  map[string]int
	// Types maps typedef names to their resolved descriptors, including
	// pointer and function-pointer typedefs that produce no symbol of
	// their own.
	Types    map[string]TypeDesc
	Includes []cparser.Include
}

// ResolveCHeader parses a C header and converts its declarations into
// symbols.  Configuration follows the same sharing rules as Resolve: a
// nil config or registry gets a private one, and cfg.ExternalConsts seeds
// macro resolution with constants from headers processed earlier.
//
// Struct-backed typedefs resolve against the whole header, so a
// forward-declaring typedef is complete as long as the struct body
// appears anywhere in the file.  A typedef whose struct body never
// appears is marked opaque.  Pointer typedefs are handles and are never
// opaque.
func ResolveCHeader(file string, src []byte, cfg *Config) (*CHeaderResult, error) {
	defer cfg.StartStage("c-header", file)()
	hdr, err := cparser.Parse(file, src)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	c := &cheaderConverter{
		hdr:    hdr,
		global: registry.GlobalScope(),
		extern: cfg.ExternalConsts,
		res: &CHeaderResult{
			Consts:   make(map[string]int),
			Types:    make(map[string]TypeDesc),
			Includes: hdr.Includes,
		},
	}
	c.convertDefines()
	c.convertEnums()
	c.convertTypedefs()
	c.convertFunctions()
	c.convertVariables()
	return c.res, nil
}

type cheaderConverter struct {
	hdr    *cparser.Header
	global *Scope
	extern map[string]int
	res    *CHeaderResult
}

func (c *cheaderConverter) base(name string, line int) SymbolBase {
	return SymbolBase{
		SymName: name,
		Owner:   c.global,
		SrcFile: c.hdr.File,
		SrcLine: line,
		Lang:    LangC,
		Public:  true,
	}
}

func (c *cheaderConverter) lookupConst(name string) (int64, bool) {
	if v, ok := c.res.Consts[name]; ok {
		return int64(v), true
	}
	if v, ok := c.extern[name]; ok {
		return int64(v), true
	}
	return 0, false
}

func (c *cheaderConverter) convertDefines() {
	extern := func(name string) (int64, bool) {
		v, ok := c.extern[name]
		return int64(v), ok
	}
	for name, v := range cparser.EvalDefines(c.hdr.Defines, extern) {
		c.res.Consts[name] = int(v)
	}
}

// convertEnums visits typedef'd enums before standalone definitions so a
// tagged enum reached through a typedef takes the typedef's name.
func (c *cheaderConverter) convertEnums() {
	seen := make(map[*cparser.EnumDef]bool)
	for _, td := range c.hdr.Typedefs {
		if td.Enum != nil {
			c.convertEnum(td.Enum, td.Name, td.Line, seen)
		}
	}
	for _, def := range c.hdr.Enums {
		c.convertEnum(def, def.Tag, def.Line, seen)
	}
}

func (c *cheaderConverter) convertEnum(def *cparser.EnumDef, name string, line int, seen map[*cparser.EnumDef]bool) {
	if def == nil || seen[def] {
		return
	}
	seen[def] = true
	enum := &Enum{SymbolBase: c.base(name, line)}
	next := 0
	haveNext := true
	for i, m := range def.Members {
		value, known := next, haveNext
		if m.Value != "" {
			if v, err := cparser.EvalConstExpr(m.Value, c.lookupConst); err == nil {
				value, known = int(v), true
			} else {
				known = false
			}
		}
		if known {
			c.res.Consts[m.Name] = value
			next, haveNext = value+1, true
		} else {
			haveNext = false
		}
		enum.Members = append(enum.Members, &EnumMember{
			SymbolBase: c.base(m.Name, m.Line),
			EnumName:   name,
			Value:      m.Value,
			Index:      i,
		})
	}
	// An anonymous enum contributes constants but no type of its own.
	if name != "" {
		c.res.Symbols = append(c.res.Symbols, enum)
	}
	for _, m := range enum.Members {
		c.res.Symbols = append(c.res.Symbols, m)
	}
}

func (c *cheaderConverter) convertTypedefs() {
	for _, td := range c.hdr.Typedefs {
		switch {
		case td.Func != nil:
			c.res.Types[td.Name] = TypeDesc{Kind: TypePointer, Name: td.Name}
		case td.Enum != nil:
			// The enum symbol already went out under this name.
			c.res.Types[td.Name] = UserType(td.Name)
		case td.Type.IsPointer():
			// A pointer typedef is a handle; it never needs the
			// pointee's body and is never opaque.
			st := &Struct{SymbolBase: c.base(td.Name, td.Line)}
			c.res.Symbols = append(c.res.Symbols, st)
			c.res.Types[td.Name] = TypeDesc{Kind: TypePointer, Name: td.Name}
		case td.Type.Struct || td.Type.Union:
			body := td.Body
			if body == nil {
				body, _ = c.hdr.StructByTag(td.Type.Tag)
			}
			st := &Struct{SymbolBase: c.base(td.Name, td.Line)}
			if body != nil {
				st.Fields = c.convertFields(body)
			} else {
				st.Opaque = true
			}
			c.res.Symbols = append(c.res.Symbols, st)
			c.res.Types[td.Name] = UserType(td.Name)
		default:
			c.res.Types[td.Name] = c.typeDesc(td.Type)
		}
	}
}

func (c *cheaderConverter) convertFields(def *cparser.StructDef) []StructField {
	var fields []StructField
	for _, f := range def.Fields {
		if f.Name == "" && f.Anon != nil {
			// C11 anonymous member: its fields belong to the enclosing
			// aggregate.
			fields = append(fields, c.convertFields(f.Anon)...)
			continue
		}
		fields = append(fields, c.convertField(f))
	}
	return fields
}

func (c *cheaderConverter) convertField(f cparser.Field) StructField {
	var t TypeDesc
	switch {
	case f.Func != nil:
		t = TypeDesc{Kind: TypePointer, Name: funcPtrName(f.Func)}
	case f.Anon != nil:
		t = UserType(f.Type.Base)
	default:
		t = c.typeDesc(f.Type)
		if f.Array {
			t = c.arrayOf(t, f.ArraySize)
		}
	}
	return StructField{Name: f.Name, Type: t}
}

func (c *cheaderConverter) convertFunctions() {
	for _, fn := range c.hdr.Functions {
		f := &Function{
			SymbolBase: c.base(fn.Name, fn.Line),
			ReturnType: c.typeDesc(fn.Return),
		}
		for _, prm := range fn.Params {
			p := FuncParam{Name: prm.Name}
			switch {
			case prm.Func != nil:
				p.Type = TypeDesc{Kind: TypePointer, Name: funcPtrName(prm.Func)}
			case prm.Array:
				p.Type = c.arrayOf(c.typeDesc(prm.Type), "")
				p.IsArray = true
			default:
				p.Type = c.typeDesc(prm.Type)
			}
			f.Params = append(f.Params, p)
		}
		f.Signature = FormatSignature(f)
		c.global.DefineFunction(fn.Name, f)
		c.res.Symbols = append(c.res.Symbols, f)
	}
}

func (c *cheaderConverter) convertVariables() {
	for _, v := range c.hdr.Variables {
		sym := &Variable{
			SymbolBase: c.base(v.Name, v.Line),
			Const:      v.Type.Const,
		}
		if v.Func != nil {
			sym.Type = TypeDesc{Kind: TypePointer, Name: funcPtrName(v.Func)}
		} else {
			sym.Type = c.typeDesc(v.Type)
			if v.Array {
				sym.Type = c.arrayOf(sym.Type, v.ArraySize)
			}
		}
		c.global.DefineVariable(v.Name, sym)
		c.res.Symbols = append(c.res.Symbols, sym)
	}
}

func (c *cheaderConverter) typeDesc(t cparser.Type) TypeDesc {
	if t.Pointers > 0 {
		inner := t
		inner.Pointers = 0
		inner.Const = false
		elem := c.typeDesc(inner)
		return TypeDesc{Kind: TypePointer, Name: t.String(), Elem: &elem}
	}
	if p, ok := cPrimitives[t.Base]; ok {
		return p
	}
	if named, ok := c.res.Types[t.Base]; ok {
		return named
	}
	return UserType(t.Base)
}

func (c *cheaderConverter) arrayOf(elem TypeDesc, size string) TypeDesc {
	t := TypeDesc{Kind: TypeArray, Name: elem.Name, Elem: &elem}
	if size == "" {
		return t
	}
	t.DimText = size
	if v, err := cparser.EvalConstExpr(size, c.lookupConst); err == nil {
		t.Dim = int(v)
		t.DimKnown = true
	}
	return t
}

// CTypeDesc resolves a C or C++ builtin spelling to its width
// descriptor, falling back to a user type reference for everything else.
func CTypeDesc(name string) TypeDesc {
	if p, ok := cPrimitives[name]; ok {
		return p
	}
	return UserType(name)
}

func funcPtrName(fp *cparser.FuncPtr) string {
	var b strings.Builder
	b.WriteString(fp.Return.String())
	b.WriteString(" (*)(")
	for i, p := range fp.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Func != nil {
			b.WriteString(funcPtrName(p.Func))
			continue
		}
		b.WriteString(p.Type.String())
	}
	if fp.Variadic {
		if len(fp.Params) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteString(")")
	return b.String()
}

// cPrimitives maps C builtin spellings, in the canonical order headers
// write them, onto width descriptors.  long is 32 bits to match the
// 32-bit microcontroller targets the language compiles for.
var cPrimitives = map[string]TypeDesc{
	"void":               {Kind: TypePrimitive, Name: "void"},
	"_Bool":              {Kind: TypePrimitive, Name: "bool", Bits: 8, Bool: true},
	"bool":               {Kind: TypePrimitive, Name: "bool", Bits: 8, Bool: true},
	"char":               {Kind: TypePrimitive, Name: "char", Bits: 8, Signed: true},
	"signed char":        {Kind: TypePrimitive, Name: "signed char", Bits: 8, Signed: true},
	"unsigned char":      {Kind: TypePrimitive, Name: "unsigned char", Bits: 8},
	"short":              {Kind: TypePrimitive, Name: "short", Bits: 16, Signed: true},
	"short int":          {Kind: TypePrimitive, Name: "short", Bits: 16, Signed: true},
	"unsigned short":     {Kind: TypePrimitive, Name: "unsigned short", Bits: 16},
	"unsigned short int": {Kind: TypePrimitive, Name: "unsigned short", Bits: 16},
	"int":                {Kind: TypePrimitive, Name: "int", Bits: 32, Signed: true},
	"signed":             {Kind: TypePrimitive, Name: "int", Bits: 32, Signed: true},
	"signed int":         {Kind: TypePrimitive, Name: "int", Bits: 32, Signed: true},
	"unsigned":           {Kind: TypePrimitive, Name: "unsigned int", Bits: 32},
	"unsigned int":       {Kind: TypePrimitive, Name: "unsigned int", Bits: 32},
	"long":               {Kind: TypePrimitive, Name: "long", Bits: 32, Signed: true},
	"long int":           {Kind: TypePrimitive, Name: "long", Bits: 32, Signed: true},
	"unsigned long":      {Kind: TypePrimitive, Name: "unsigned long", Bits: 32},
	"unsigned long int":  {Kind: TypePrimitive, Name: "unsigned long", Bits: 32},
	"long long":          {Kind: TypePrimitive, Name: "long long", Bits: 64, Signed: true},
	"unsigned long long": {Kind: TypePrimitive, Name: "unsigned long long", Bits: 64},
	"float":              {Kind: TypePrimitive, Name: "float", Bits: 32, Signed: true, Float: true},
	"double":             {Kind: TypePrimitive, Name: "double", Bits: 64, Signed: true, Float: true},
	"int8_t":             {Kind: TypePrimitive, Name: "int8_t", Bits: 8, Signed: true},
	"uint8_t":            {Kind: TypePrimitive, Name: "uint8_t", Bits: 8},
	"int16_t":            {Kind: TypePrimitive, Name: "int16_t", Bits: 16, Signed: true},
	"uint16_t":           {Kind: TypePrimitive, Name: "uint16_t", Bits: 16},
	"int32_t":            {Kind: TypePrimitive, Name: "int32_t", Bits: 32, Signed: true},
	"uint32_t":           {Kind: TypePrimitive, Name: "uint32_t", Bits: 32},
	"int64_t":            {Kind: TypePrimitive, Name: "int64_t", Bits: 64, Signed: true},
	"uint64_t":           {Kind: TypePrimitive, Name: "uint64_t", Bits: 64},
	"size_t":             {Kind: TypePrimitive, Name: "size_t", Bits: 32},
	"intptr_t":           {Kind: TypePrimitive, Name: "intptr_t", Bits: 32, Signed: true},
	"uintptr_t":          {Kind: TypePrimitive, Name: "uintptr_t", Bits: 32},
}
