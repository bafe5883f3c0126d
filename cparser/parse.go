package cparser

import (
	"strconv"
	"strings"
)

type parser struct {
	file   string
	tokens []ctoken
	pos    int
}

func (p *parser) tok() ctoken { return p.tokens[p.pos] }

func (p *parser) next() ctoken {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) atEOF() bool { return p.tok().kind == tokenEOF }

func (p *parser) peekText(ahead int) string {
	if p.pos+ahead >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos+ahead].text
}

func (p *parser) accept(text string) bool {
	if p.tok().kind != tokenEOF && p.tok().text == text {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseTop(hdr *Header) {
	for !p.atEOF() {
		switch {
		case p.accept(";"):
		case p.tok().text == "extern" && p.peekText(1) == `"C"`:
			// extern "C" { ... }: the declarations inside are plain C;
			// the braces are dropped and the closer falls out as a stray.
			p.next()
			p.next()
			p.accept("{")
		case p.tok().text == "}" || p.tok().text == ")" || p.tok().text == "]":
			p.next()
		case p.tok().text == "_Static_assert" || p.tok().text == "static_assert":
			p.skipStatement()
		case p.tok().text == "typedef":
			p.parseTypedef(hdr)
		default:
			p.parseDeclaration(hdr)
		}
	}
}

// typeSpec is the leading type portion of a declaration, before any
// declarators.
type typeSpec struct {
	typ    Type
	body   *StructDef
	enum   *EnumDef
	extern bool
	static bool
	inline bool
	// plainIdent marks a base that came from a single unrecognized
	// identifier; the declaration parser may need to reinterpret it as
	// the declarator of an unprototyped function.
	plainIdent bool
}

var cSkipWords = map[string]bool{
	"volatile": true, "restrict": true, "register": true, "auto": true,
	"_Noreturn": true, "_Atomic": true, "__restrict": true,
	"__restrict__": true, "__extension__": true,
}

var cBuiltinWords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"_Bool": true,
}

func (p *parser) parseTypeSpec() typeSpec {
	var spec typeSpec
	var words []string
loop:
	for p.tok().kind == tokenIdent {
		w := p.tok().text
		switch {
		case w == "extern":
			spec.extern = true
			p.next()
		case w == "static":
			spec.static = true
			p.next()
		case w == "inline" || w == "__inline" || w == "__inline__":
			spec.inline = true
			p.next()
		case w == "const":
			spec.typ.Const = true
			p.next()
		case cSkipWords[w]:
			p.next()
		case w == "__attribute__":
			p.next()
			p.skipBalanced("(", ")")
		case w == "struct" || w == "union":
			line := p.next().line
			spec.typ.Struct = w == "struct"
			spec.typ.Union = w == "union"
			spec.typ.Base = w
			if p.tok().kind == tokenIdent {
				spec.typ.Tag = p.next().text
				spec.typ.Base = w + " " + spec.typ.Tag
			}
			if p.accept("{") {
				spec.body = p.parseStructBody(spec.typ.Tag, spec.typ.Union, line)
			}
			return spec
		case w == "enum":
			line := p.next().line
			spec.typ.Enum = true
			spec.typ.Base = "enum"
			if p.tok().kind == tokenIdent {
				spec.typ.Tag = p.next().text
				spec.typ.Base = "enum " + spec.typ.Tag
			}
			if p.accept("{") {
				spec.enum = p.parseEnumBody(spec.typ.Tag, line)
			}
			return spec
		case cBuiltinWords[w]:
			words = append(words, w)
			p.next()
		default:
			if len(words) == 0 && spec.typ.Base == "" {
				spec.typ.Base = w
				spec.plainIdent = true
				p.next()
			}
			// The next identifier belongs to the declarator.
			break loop
		}
	}
	if len(words) > 0 {
		spec.typ.Base = strings.Join(words, " ")
	}
	return spec
}

// declarator carries the pieces a single declarator contributes on top of
// the shared type spec.
type declarator struct {
	name      string
	pointers  int
	funcPtr   *FuncPtr
	params    []Param
	isFunc    bool
	variadic  bool
	array     bool
	arraySize string
	bits      int
}

func (p *parser) parseDeclarator(base Type) declarator {
	var d declarator
	for {
		if p.accept("*") {
			d.pointers++
			continue
		}
		w := p.tok().text
		if p.tok().kind == tokenIdent && (w == "const" || cSkipWords[w]) {
			p.next()
			continue
		}
		break
	}
	if p.peekText(0) == "(" && p.peekText(1) == "*" {
		// Function-pointer form: ( * name ) ( params ).
		p.next()
		for p.accept("*") {
		}
		if p.tok().kind == tokenIdent {
			d.name = p.next().text
		}
		p.skipTo(")")
		if p.accept("(") {
			params, variadic := p.parseParams()
			ret := base
			ret.Pointers += d.pointers
			d.pointers = 0
			d.funcPtr = &FuncPtr{Return: ret, Params: params, Variadic: variadic}
		}
		return d
	}
	if p.tok().kind == tokenIdent {
		d.name = p.next().text
	}
	for {
		if p.accept("[") {
			if !d.array {
				d.array = true
				d.arraySize = p.textUntil("]")
			} else {
				// Only the first dimension is kept.
				p.textUntil("]")
			}
			p.accept("]")
			continue
		}
		if d.name != "" && p.accept("(") {
			d.isFunc = true
			d.params, d.variadic = p.parseParams()
		}
		break
	}
	if p.accept(":") {
		if p.tok().kind == tokenNumber {
			d.bits, _ = strconv.Atoi(p.next().text)
		}
	}
	return d
}

// parseParams parses a parameter list after the opening paren and
// consumes the closing paren.
func (p *parser) parseParams() ([]Param, bool) {
	var params []Param
	variadic := false
	for !p.atEOF() {
		if p.accept(")") {
			break
		}
		if p.accept("...") {
			variadic = true
			continue
		}
		if p.accept(",") {
			continue
		}
		spec := p.parseTypeSpec()
		if spec.typ.Base == "" && spec.body == nil && spec.enum == nil {
			p.next()
			continue
		}
		d := p.parseDeclarator(spec.typ)
		if spec.typ.Base == "void" && d.name == "" && d.pointers == 0 && d.funcPtr == nil {
			// void parameter list
			continue
		}
		prm := Param{Name: d.name}
		if d.funcPtr != nil {
			prm.Func = d.funcPtr
		} else {
			t := spec.typ
			t.Pointers += d.pointers
			prm.Type = t
			prm.Array = d.array
		}
		params = append(params, prm)
	}
	return params, variadic
}

func (p *parser) parseStructBody(tag string, union bool, line int) *StructDef {
	def := &StructDef{Tag: tag, Union: union, Line: line}
	for !p.atEOF() && !p.accept("}") {
		if p.accept(";") {
			continue
		}
		p.parseFieldDecl(def)
	}
	return def
}

func (p *parser) parseFieldDecl(def *StructDef) {
	line := p.tok().line
	spec := p.parseTypeSpec()
	if spec.typ.Base == "" && spec.body == nil {
		p.skipStatement()
		return
	}
	for {
		d := p.parseDeclarator(spec.typ)
		f := Field{Name: d.name, Line: line}
		if d.funcPtr != nil {
			f.Func = d.funcPtr
		} else {
			t := spec.typ
			t.Pointers += d.pointers
			f.Type = t
			f.Bits = d.bits
			f.Array = d.array
			f.ArraySize = d.arraySize
			f.Anon = spec.body
		}
		def.Fields = append(def.Fields, f)
		if !p.accept(",") {
			break
		}
	}
	p.terminate()
}

func (p *parser) parseEnumBody(tag string, line int) *EnumDef {
	def := &EnumDef{Tag: tag, Line: line}
	for !p.atEOF() && !p.accept("}") {
		if p.tok().kind != tokenIdent {
			p.next()
			continue
		}
		tok := p.next()
		m := EnumMember{Name: tok.text, Line: tok.line}
		if p.accept("=") {
			m.Value = p.textUntil(",", "}")
		}
		def.Members = append(def.Members, m)
		p.accept(",")
	}
	return def
}

func (p *parser) parseTypedef(hdr *Header) {
	line := p.next().line
	spec := p.parseTypeSpec()
	if spec.typ.Base == "" && spec.body == nil && spec.enum == nil {
		p.skipStatement()
		return
	}
	if spec.body != nil && spec.body.Tag != "" {
		hdr.Structs = append(hdr.Structs, spec.body)
	}
	if spec.enum != nil && spec.enum.Tag != "" {
		hdr.Enums = append(hdr.Enums, spec.enum)
	}
	for {
		d := p.parseDeclarator(spec.typ)
		if d.name == "" {
			break
		}
		td := &Typedef{Name: d.name, Line: line}
		if d.funcPtr != nil {
			td.Func = d.funcPtr
		} else {
			t := spec.typ
			t.Pointers += d.pointers
			td.Type = t
			td.Body = spec.body
			td.Enum = spec.enum
		}
		hdr.Typedefs = append(hdr.Typedefs, td)
		if !p.accept(",") {
			break
		}
	}
	p.terminate()
}

func (p *parser) parseDeclaration(hdr *Header) {
	line := p.tok().line
	spec := p.parseTypeSpec()
	if spec.typ.Base == "" && spec.body == nil && spec.enum == nil {
		p.skipStatement()
		return
	}
	if spec.body != nil || spec.enum != nil {
		if p.accept(";") {
			if spec.body != nil {
				hdr.Structs = append(hdr.Structs, spec.body)
			}
			if spec.enum != nil {
				hdr.Enums = append(hdr.Enums, spec.enum)
			}
			return
		}
		// Definition with a declarator attached: record the body, then
		// continue with the object declaration.
		if spec.body != nil && spec.body.Tag != "" {
			hdr.Structs = append(hdr.Structs, spec.body)
		}
		if spec.enum != nil && spec.enum.Tag != "" {
			hdr.Enums = append(hdr.Enums, spec.enum)
		}
	}
	for {
		d := p.parseDeclarator(spec.typ)
		if d.name == "" && d.funcPtr == nil && !d.isFunc {
			if spec.plainIdent && p.tok().text == "(" {
				// The identifier read as the type was really the
				// declarator: an unprototyped function such as
				// legacy_fn(void).  The return type defaults to int.
				d.name = spec.typ.Base
				spec.typ = Type{Base: "int"}
				spec.plainIdent = false
				p.next()
				d.params, d.variadic = p.parseParams()
				d.isFunc = true
			} else {
				p.skipStatement()
				return
			}
		}
		switch {
		case d.isFunc:
			ret := spec.typ
			ret.Pointers += d.pointers
			hdr.Functions = append(hdr.Functions, &Function{
				Name:     d.name,
				Return:   ret,
				Params:   d.params,
				Variadic: d.variadic,
				Extern:   spec.extern,
				Static:   spec.static,
				Inline:   spec.inline,
				Line:     line,
			})
			if p.tok().text == "{" {
				// Inline definition; the body is not modeled.
				p.skipBalanced("{", "}")
				return
			}
		case d.funcPtr != nil:
			hdr.Variables = append(hdr.Variables, &Variable{
				Name:   d.name,
				Func:   d.funcPtr,
				Extern: spec.extern,
				Line:   line,
			})
		default:
			t := spec.typ
			t.Pointers += d.pointers
			hdr.Variables = append(hdr.Variables, &Variable{
				Name:      d.name,
				Type:      t,
				Extern:    spec.extern,
				Array:     d.array,
				ArraySize: d.arraySize,
				Line:      line,
			})
			if p.accept("=") {
				p.skipInitializer()
			}
		}
		if !p.accept(",") {
			break
		}
	}
	p.terminate()
}

// skipStatement advances past the next ';' at depth zero, consuming
// balanced braces, parens, and brackets on the way.
func (p *parser) skipStatement() {
	depth := 0
	for !p.atEOF() {
		switch p.next().text {
		case "{", "(", "[":
			depth++
		case "}", ")", "]":
			if depth > 0 {
				depth--
			}
		case ";":
			if depth == 0 {
				return
			}
		}
	}
}

// skipBalanced consumes a balanced open..close group.  It is a no-op when
// the current token is not open.
func (p *parser) skipBalanced(open, close string) {
	if !p.accept(open) {
		return
	}
	depth := 1
	for !p.atEOF() && depth > 0 {
		switch p.next().text {
		case open:
			depth++
		case close:
			depth--
		}
	}
}

// skipTo consumes tokens through the first depth-zero occurrence of text.
func (p *parser) skipTo(text string) {
	depth := 0
	for !p.atEOF() {
		t := p.next()
		if depth == 0 && t.text == text {
			return
		}
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth > 0 {
				depth--
			}
		}
	}
}

// terminate consumes the trailing ';' of a declaration, abandoning
// anything unexpected before it.
func (p *parser) terminate() {
	if p.accept(";") {
		return
	}
	p.skipStatement()
}

// textUntil renders tokens up to (not including) the first depth-zero
// stop, or any unbalanced closer.
func (p *parser) textUntil(stops ...string) string {
	var toks []ctoken
	depth := 0
	for !p.atEOF() {
		t := p.tok()
		if depth == 0 {
			for _, s := range stops {
				if t.text == s {
					return renderTokens(toks)
				}
			}
		}
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth == 0 {
				return renderTokens(toks)
			}
			depth--
		}
		toks = append(toks, t)
		p.next()
	}
	return renderTokens(toks)
}

func renderTokens(toks []ctoken) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && t.text != ")" && t.text != "]" && t.text != "," && toks[i-1].text != "(" && toks[i-1].text != "[" {
			b.WriteByte(' ')
		}
		b.WriteString(t.text)
	}
	return b.String()
}

func (p *parser) skipInitializer() {
	if p.tok().text == "{" {
		p.skipBalanced("{", "}")
		return
	}
	p.textUntil(",", ";")
}
