// Package cnparser implements the recursive descent parser for C-Next
// source files.
package cnparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jlaustill/c-next-sub006/ast"
	"github.com/jlaustill/c-next-sub006/astutil"
	"github.com/jlaustill/c-next-sub006/parser/token"
)

// Parser is a C-Next parser.
type Parser struct {
	src   *TokenSource
	input []byte
	file  string
}

// NewFromSource initializes and returns a Parser that reads tokens from
// src.  Without source bytes the parser falls back to canonical rendering
// when verbatim expression text is requested.
func NewFromSource(src *TokenSource) *Parser {
	return &Parser{src: src}
}

// New initializes and returns a new Parser that reads tokens from scanner.
func New(scanner *token.Scanner) *Parser {
	p := NewFromSource(NewTokenSource(scanner))
	p.input = scanner.Input()
	return p
}

// SetFile records the name attached to the parsed Program.
func (p *Parser) SetFile(name string) {
	p.file = name
}

// ParseProgram parses a whole translation unit.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{File: p.file}
	prog.Source = p.src.Peek().Source
	for !p.src.IsEOF() {
		if p.src.AcceptType(token.SEMICOLON) {
			continue
		}
		decl, err := p.parseTopDecl()
		if err != nil {
			return nil, err
		}
		prog.Decls = append(prog.Decls, decl)
	}
	return prog, nil
}

func (p *Parser) parseTopDecl() (ast.Decl, error) {
	switch p.src.Peek().Type {
	case token.INCLUDE:
		return p.parseInclude()
	case token.SCOPE:
		return p.parseScope()
	default:
		return p.parseDecl(ast.VisDefault, false)
	}
}

// parseDecl parses a declaration other than #include or scope.  Inside a
// scope body the caller has already consumed any visibility modifier.
func (p *Parser) parseDecl(vis ast.Visibility, inScope bool) (ast.Decl, error) {
	switch tok := p.src.Peek(); tok.Type {
	case token.ENUM:
		return p.parseEnum(vis)
	case token.STRUCT:
		return p.parseStruct(vis)
	case token.REGISTER:
		return p.parseRegister(vis)
	case token.CONST, token.ATOMIC:
		return p.parseVar(vis)
	case token.IDENT:
		if bitmapWidth(tok.Text) != 0 && p.src.PeekAt(1).Type == token.IDENT {
			return p.parseBitmap(vis)
		}
		return p.parseFuncOrVar(vis)
	case token.SCOPE:
		if inScope {
			return nil, p.errorf(tok.Source, "scopes do not nest")
		}
		return nil, p.errorf(tok.Source, "unexpected scope declaration")
	default:
		return nil, p.errorf(tok.Source, "unexpected token %s", describe(tok))
	}
}

func (p *Parser) parseInclude() (*ast.IncludeDecl, error) {
	tok, err := p.expect(token.INCLUDE)
	if err != nil {
		return nil, err
	}
	decl := &ast.IncludeDecl{Directive: strings.TrimRight(tok.Text, " \t")}
	decl.Source = tok.Source
	rest := strings.TrimSpace(strings.TrimPrefix(decl.Directive, "#"))
	if !strings.HasPrefix(rest, "include") {
		return nil, p.errorf(tok.Source, "unsupported directive %q", decl.Directive)
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "include"))
	switch {
	case strings.HasPrefix(rest, "<"):
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return nil, p.errorf(tok.Source, "malformed include %q", decl.Directive)
		}
		decl.Target = rest[1:end]
		decl.System = true
	case strings.HasPrefix(rest, `"`):
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			return nil, p.errorf(tok.Source, "malformed include %q", decl.Directive)
		}
		decl.Target = rest[1 : 1+end]
	default:
		return nil, p.errorf(tok.Source, "malformed include %q", decl.Directive)
	}
	return decl, nil
}

func (p *Parser) parseScope() (*ast.ScopeDecl, error) {
	kw, err := p.expect(token.SCOPE)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	decl := &ast.ScopeDecl{Name: name.Text}
	decl.Source = kw.Source
	if _, err := p.expect(token.BRACE_L); err != nil {
		return nil, err
	}
	for !p.src.AcceptType(token.BRACE_R) {
		if p.src.IsEOF() {
			return nil, p.errorf(kw.Source, "unmatched { in scope %s", decl.Name)
		}
		if p.src.AcceptType(token.SEMICOLON) {
			continue
		}
		vis := ast.VisDefault
		switch {
		case p.src.AcceptType(token.PUBLIC):
			vis = ast.VisPublic
		case p.src.AcceptType(token.PRIVATE):
			vis = ast.VisPrivate
		}
		member, err := p.parseDecl(vis, true)
		if err != nil {
			return nil, err
		}
		decl.Decls = append(decl.Decls, member)
	}
	return decl, nil
}

func (p *Parser) parseEnum(vis ast.Visibility) (*ast.EnumDecl, error) {
	kw, err := p.expect(token.ENUM)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	decl := &ast.EnumDecl{Visibility: vis, Name: name.Text}
	decl.Source = kw.Source
	if _, err := p.expect(token.BRACE_L); err != nil {
		return nil, err
	}
	for !p.src.AcceptType(token.BRACE_R) {
		mtok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		member := &ast.EnumMember{Name: mtok.Text}
		member.Source = mtok.Source
		if p.src.AcceptType(token.ASSIGN) {
			member.Value, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		decl.Members = append(decl.Members, member)
		if !p.src.AcceptType(token.COMMA) {
			if _, err := p.expect(token.BRACE_R); err != nil {
				return nil, err
			}
			break
		}
	}
	p.src.AcceptType(token.SEMICOLON)
	return decl, nil
}

func (p *Parser) parseStruct(vis ast.Visibility) (*ast.StructDecl, error) {
	kw, err := p.expect(token.STRUCT)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	decl := &ast.StructDecl{Visibility: vis, Name: name.Text}
	decl.Source = kw.Source
	if _, err := p.expect(token.BRACE_L); err != nil {
		return nil, err
	}
	for !p.src.AcceptType(token.BRACE_R) {
		if p.src.IsEOF() {
			return nil, p.errorf(kw.Source, "unmatched { in struct %s", decl.Name)
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ftok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if err := p.parseDims(typ); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		field := &ast.StructField{Type: typ, Name: ftok.Text}
		field.Source = typ.Source
		decl.Fields = append(decl.Fields, field)
	}
	p.src.AcceptType(token.SEMICOLON)
	return decl, nil
}

func (p *Parser) parseBitmap(vis ast.Visibility) (*ast.BitmapDecl, error) {
	kw, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	width := bitmapWidth(kw.Text)
	if width == 0 {
		return nil, p.errorf(kw.Source, "invalid bitmap keyword %q", kw.Text)
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	decl := &ast.BitmapDecl{Visibility: vis, Name: name.Text, Width: width}
	decl.Source = kw.Source
	if _, err := p.expect(token.BRACE_L); err != nil {
		return nil, err
	}
	for !p.src.AcceptType(token.BRACE_R) {
		ftok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		field := &ast.BitmapField{Name: ftok.Text, Bits: 1}
		field.Source = ftok.Source
		if p.src.AcceptType(token.COLON) {
			wtok, err := p.expect(token.INT)
			if err != nil {
				return nil, err
			}
			bits, err := strconv.Atoi(wtok.Text)
			if err != nil || bits < 1 {
				return nil, p.errorf(wtok.Source, "invalid bit width %q", wtok.Text)
			}
			field.Bits = bits
		}
		decl.Fields = append(decl.Fields, field)
		if !p.src.AcceptType(token.COMMA) {
			if _, err := p.expect(token.BRACE_R); err != nil {
				return nil, err
			}
			break
		}
	}
	p.src.AcceptType(token.SEMICOLON)
	return decl, nil
}

func (p *Parser) parseRegister(vis ast.Visibility) (*ast.RegisterDecl, error) {
	kw, err := p.expect(token.REGISTER)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	decl := &ast.RegisterDecl{Visibility: vis, Name: name.Text}
	decl.Source = kw.Source
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	decl.Type, err = p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.AT); err != nil {
		return nil, err
	}
	start := p.src.Peek()
	decl.Address, err = p.parseExpr()
	if err != nil {
		return nil, err
	}
	decl.AddrText = p.spanText(start, p.src.Token, decl.Address)
	if !p.src.AcceptType(token.BRACE_L) {
		_, err := p.expect(token.SEMICOLON)
		return decl, err
	}
	for !p.src.AcceptType(token.BRACE_R) {
		if p.src.IsEOF() {
			return nil, p.errorf(kw.Source, "unmatched { in register %s", decl.Name)
		}
		mtok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		member := &ast.RegisterMember{Name: mtok.Text}
		member.Source = mtok.Source
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		member.Type, err = p.parseType()
		if err != nil {
			return nil, err
		}
		if p.src.Peek().Type == token.IDENT {
			atok := p.src.Peek()
			access, ok := ast.ParseAccess(atok.Text)
			if !ok {
				return nil, p.errorf(atok.Source, "invalid access mode %q", atok.Text)
			}
			p.src.Scan()
			member.Access = access
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		decl.Members = append(decl.Members, member)
	}
	p.src.AcceptType(token.SEMICOLON)
	return decl, nil
}

// parseFuncOrVar disambiguates functions from variables: both start with a
// type and a name, functions continue with a parameter list.
func (p *Parser) parseFuncOrVar(vis ast.Visibility) (ast.Decl, error) {
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if p.src.Peek().Type == token.PAREN_L {
		return p.parseFunc(vis, typ, name)
	}
	return p.finishVar(vis, false, false, typ, name)
}

func (p *Parser) parseVar(vis ast.Visibility) (*ast.VarDecl, error) {
	var isConst, isAtomic bool
	for {
		switch {
		case p.src.AcceptType(token.CONST):
			isConst = true
			continue
		case p.src.AcceptType(token.ATOMIC):
			isAtomic = true
			continue
		}
		break
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	return p.finishVar(vis, isConst, isAtomic, typ, name)
}

func (p *Parser) finishVar(vis ast.Visibility, isConst, isAtomic bool, typ *ast.TypeExpr, name *token.Token) (*ast.VarDecl, error) {
	decl := &ast.VarDecl{
		Visibility: vis,
		Const:      isConst,
		Atomic:     isAtomic,
		Type:       typ,
		Name:       name.Text,
	}
	decl.Source = typ.Source
	if err := p.parseDims(typ); err != nil {
		return nil, err
	}
	if p.src.AcceptType(token.ASSIGN) {
		start := p.src.Peek()
		init, err := p.parseInit()
		if err != nil {
			return nil, err
		}
		decl.Init = init
		decl.InitText = p.spanText(start, p.src.Token, init)
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseFunc(vis ast.Visibility, ret *ast.TypeExpr, name *token.Token) (*ast.FuncDecl, error) {
	decl := &ast.FuncDecl{Visibility: vis, Return: ret, Name: name.Text}
	decl.Source = ret.Source
	if _, err := p.expect(token.PAREN_L); err != nil {
		return nil, err
	}
	for !p.src.AcceptType(token.PAREN_R) {
		if len(decl.Params) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ptok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if err := p.parseDims(typ); err != nil {
			return nil, err
		}
		param := &ast.Param{Type: typ, Name: ptok.Text}
		param.Source = typ.Source
		decl.Params = append(decl.Params, param)
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	decl.Body = body
	return decl, nil
}

// parseType parses a possibly qualified type spelling.  Array dimensions
// written on the type itself are consumed here; dimension-suffix syntax
// after a declared name is folded in later by parseDims.
func (p *Parser) parseType() (*ast.TypeExpr, error) {
	first, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	typ := &ast.TypeExpr{}
	typ.Source = first.Source
	segs := []string{first.Text}
	for p.src.Peek().Type == token.DOT && p.src.PeekAt(1).Type == token.IDENT {
		p.src.Scan()
		p.src.Scan()
		segs = append(segs, p.src.Token.Text)
	}
	if segs[0] == "this" || segs[0] == "global" {
		if len(segs) == 1 {
			return nil, p.errorf(first.Source, "%s qualifier requires a type name", segs[0])
		}
		typ.Qualifier = segs[0]
		segs = segs[1:]
	}
	typ.Name = segs[len(segs)-1]
	typ.Path = segs[:len(segs)-1]
	if typ.Name == "string" && p.src.AcceptType(token.LT) {
		capExpr, err := p.parseBinary(precShift)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.GT); err != nil {
			return nil, err
		}
		typ.StringCap = capExpr
	}
	if err := p.parseDims(typ); err != nil {
		return nil, err
	}
	return typ, nil
}

// parseDims consumes zero or more bracketed array dimensions, appending
// them to typ.
func (p *Parser) parseDims(typ *ast.TypeExpr) error {
	for p.src.Peek().Type == token.BRACK_L {
		p.src.Scan()
		open := p.src.Token
		dim := &ast.Dimension{}
		dim.Source = open.Source
		if p.src.AcceptType(token.BRACK_R) {
			dim.Empty = true
			typ.Dims = append(typ.Dims, dim)
			continue
		}
		start := p.src.Peek()
		size, err := p.parseExpr()
		if err != nil {
			return err
		}
		dim.Size = size
		dim.Text = p.spanText(start, p.src.Token, size)
		if _, err := p.expect(token.BRACK_R); err != nil {
			return err
		}
		typ.Dims = append(typ.Dims, dim)
	}
	return nil
}

func (p *Parser) parseBlock() (*ast.BlockStmt, error) {
	open, err := p.expect(token.BRACE_L)
	if err != nil {
		return nil, err
	}
	block := &ast.BlockStmt{}
	block.Source = open.Source
	for !p.src.AcceptType(token.BRACE_R) {
		if p.src.IsEOF() {
			return nil, p.errorf(open.Source, "unmatched {")
		}
		if p.src.AcceptType(token.SEMICOLON) {
			continue
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.List = append(block.List, stmt)
	}
	return block, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.src.Peek().Type {
	case token.BRACE_L:
		return p.parseBlock()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		return p.parseReturn()
	case token.CONST, token.ATOMIC:
		return p.parseDeclStmt()
	case token.IDENT:
		if p.declAhead() {
			return p.parseDeclStmt()
		}
		return p.parseSimpleStmt(token.SEMICOLON)
	default:
		return p.parseSimpleStmt(token.SEMICOLON)
	}
}

func (p *Parser) parseDeclStmt() (*ast.DeclStmt, error) {
	decl, err := p.parseVar(ast.VisDefault)
	if err != nil {
		return nil, err
	}
	stmt := &ast.DeclStmt{Decl: decl}
	stmt.Source = decl.Source
	return stmt, nil
}

// parseSimpleStmt parses an expression or assignment statement terminated
// by term.  For-loop post statements pass PAREN_R and leave it unconsumed.
func (p *Parser) parseSimpleStmt(term token.Type) (ast.Stmt, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var stmt ast.Stmt
	if p.src.AcceptType(token.ASSIGN) {
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		assign := &ast.AssignStmt{Target: expr, Value: value}
		assign.Source = expr.Loc()
		stmt = assign
	} else {
		es := &ast.ExprStmt{X: expr}
		es.Source = expr.Loc()
		stmt = es
	}
	if term == token.SEMICOLON {
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseIf() (*ast.IfStmt, error) {
	kw, err := p.expect(token.IF)
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{}
	stmt.Source = kw.Source
	if _, err := p.expect(token.PAREN_L); err != nil {
		return nil, err
	}
	stmt.Cond, err = p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.PAREN_R); err != nil {
		return nil, err
	}
	stmt.Body, err = p.parseBlock()
	if err != nil {
		return nil, err
	}
	if p.src.AcceptType(token.ELSE) {
		if p.src.Peek().Type == token.IF {
			stmt.Else, err = p.parseIf()
		} else {
			stmt.Else, err = p.parseBlock()
		}
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (*ast.WhileStmt, error) {
	kw, err := p.expect(token.WHILE)
	if err != nil {
		return nil, err
	}
	stmt := &ast.WhileStmt{}
	stmt.Source = kw.Source
	if _, err := p.expect(token.PAREN_L); err != nil {
		return nil, err
	}
	stmt.Cond, err = p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.PAREN_R); err != nil {
		return nil, err
	}
	stmt.Body, err = p.parseBlock()
	return stmt, err
}

func (p *Parser) parseFor() (*ast.ForStmt, error) {
	kw, err := p.expect(token.FOR)
	if err != nil {
		return nil, err
	}
	stmt := &ast.ForStmt{}
	stmt.Source = kw.Source
	if _, err := p.expect(token.PAREN_L); err != nil {
		return nil, err
	}
	if !p.src.AcceptType(token.SEMICOLON) {
		if p.declAhead() || p.src.Peek().Type == token.CONST || p.src.Peek().Type == token.ATOMIC {
			stmt.Init, err = p.parseDeclStmt()
		} else {
			stmt.Init, err = p.parseSimpleStmt(token.SEMICOLON)
		}
		if err != nil {
			return nil, err
		}
	}
	if !p.src.AcceptType(token.SEMICOLON) {
		stmt.Cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
	}
	if p.src.Peek().Type != token.PAREN_R {
		stmt.Post, err = p.parseSimpleStmt(token.PAREN_R)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.PAREN_R); err != nil {
		return nil, err
	}
	stmt.Body, err = p.parseBlock()
	return stmt, err
}

func (p *Parser) parseReturn() (*ast.ReturnStmt, error) {
	kw, err := p.expect(token.RETURN)
	if err != nil {
		return nil, err
	}
	stmt := &ast.ReturnStmt{}
	stmt.Source = kw.Source
	if !p.src.AcceptType(token.SEMICOLON) {
		stmt.Value, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// declAhead reports whether the upcoming tokens spell a declaration rather
// than an expression statement: a type shape followed by a declared name.
func (p *Parser) declAhead() bool {
	i := 0
	if p.src.PeekAt(i).Type != token.IDENT {
		return false
	}
	last := p.src.PeekAt(i).Text
	i++
	for p.src.PeekAt(i).Type == token.DOT {
		if p.src.PeekAt(i+1).Type != token.IDENT {
			return false
		}
		last = p.src.PeekAt(i + 1).Text
		i += 2
	}
	if last == "string" && p.src.PeekAt(i).Type == token.LT {
		i++
		for p.src.PeekAt(i).Type != token.GT {
			switch p.src.PeekAt(i).Type {
			case token.SEMICOLON, token.EOF, token.BRACE_L, token.BRACE_R:
				return false
			}
			i++
		}
		i++
	}
	for p.src.PeekAt(i).Type == token.BRACK_L {
		depth := 1
		i++
		for depth > 0 {
			switch p.src.PeekAt(i).Type {
			case token.BRACK_L:
				depth++
			case token.BRACK_R:
				depth--
			case token.SEMICOLON, token.EOF:
				return false
			}
			i++
		}
	}
	return p.src.PeekAt(i).Type == token.IDENT
}

// Expression parsing uses precedence climbing over the C operator ladder.
const (
	precLOr = iota + 1
	precLAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precCompare
	precShift
	precAdd
	precMul
)

func binaryPrec(typ token.Type) int {
	switch typ {
	case token.LOR:
		return precLOr
	case token.LAND:
		return precLAnd
	case token.PIPE:
		return precBitOr
	case token.CARET:
		return precBitXor
	case token.AMP:
		return precBitAnd
	case token.EQ, token.NE:
		return precEquality
	case token.LT, token.GT, token.LE, token.GE:
		return precCompare
	case token.SHL, token.SHR:
		return precShift
	case token.PLUS, token.MINUS:
		return precAdd
	case token.STAR, token.SLASH, token.PERCENT:
		return precMul
	}
	return 0
}

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseBinary(precLOr)
}

func (p *Parser) parseBinary(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec := binaryPrec(p.src.Peek().Type)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		p.src.Scan()
		op := p.src.Token
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		bin := &ast.BinaryExpr{Op: op.Type, X: left, Y: right}
		bin.Source = left.Loc()
		left = bin
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.src.Peek().Type {
	case token.BANG, token.TILDE, token.MINUS, token.PLUS:
		p.src.Scan()
		op := p.src.Token
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr := &ast.UnaryExpr{Op: op.Type, X: x}
		expr.Source = op.Source
		return expr, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.src.Peek().Type {
		case token.PAREN_L:
			p.src.Scan()
			call := &ast.CallExpr{Fun: x}
			call.Source = x.Loc()
			for !p.src.AcceptType(token.PAREN_R) {
				if len(call.Args) > 0 {
					if _, err := p.expect(token.COMMA); err != nil {
						return nil, err
					}
				}
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, arg)
			}
			x = call
		case token.DOT:
			p.src.Scan()
			sel, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			next := &ast.SelectorExpr{X: x, Sel: sel.Text}
			next.Source = x.Loc()
			x = next
		case token.BRACK_L:
			p.src.Scan()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.src.AcceptType(token.COMMA) {
				width, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(token.BRACK_R); err != nil {
					return nil, err
				}
				bit := &ast.BitIndexExpr{X: x, Index: index, Width: width}
				bit.Source = x.Loc()
				x = bit
				continue
			}
			if _, err := p.expect(token.BRACK_R); err != nil {
				return nil, err
			}
			idx := &ast.IndexExpr{X: x, Index: index}
			idx.Source = x.Loc()
			x = idx
		default:
			return x, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.src.Peek()
	switch tok.Type {
	case token.INT, token.FLOAT, token.STRING, token.TRUE, token.FALSE:
		p.src.Scan()
		lit := &ast.BasicLit{Kind: tok.Type, Text: tok.Text}
		lit.Source = tok.Source
		return lit, nil
	case token.IDENT:
		p.src.Scan()
		id := &ast.Ident{Name: tok.Text}
		id.Source = tok.Source
		return id, nil
	case token.PAREN_L:
		p.src.Scan()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.PAREN_R); err != nil {
			return nil, err
		}
		expr := &ast.ParenExpr{X: inner}
		expr.Source = tok.Source
		return expr, nil
	case token.ERROR, token.INVALID:
		p.src.Scan()
		return nil, p.errorf(tok.Source, "%s", tok.Text)
	default:
		return nil, p.errorf(tok.Source, "unexpected token %s", describe(tok))
	}
}

// parseInit parses an initializer: a plain expression or a bracketed
// element list.
func (p *Parser) parseInit() (ast.Expr, error) {
	if p.src.Peek().Type != token.BRACK_L {
		return p.parseExpr()
	}
	p.src.Scan()
	lit := &ast.ArrayLit{}
	lit.Source = p.src.Token.Source
	for !p.src.AcceptType(token.BRACK_R) {
		if len(lit.Elems) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
			if p.src.AcceptType(token.BRACK_R) {
				return lit, nil
			}
		}
		el, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit.Elems = append(lit.Elems, el)
	}
	return lit, nil
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	if !p.src.AcceptType(typ) {
		tok := p.src.Peek()
		return nil, p.errorf(tok.Source, "unexpected token %s, expected %s", describe(tok), typ)
	}
	return p.src.Token, nil
}

func (p *Parser) errorf(loc *token.Location, format string, v ...interface{}) error {
	return &token.LocationError{
		Err:    fmt.Errorf(format, v...),
		Source: loc,
	}
}

// spanText recovers the verbatim source text between two tokens, falling
// back to canonical rendering when source bytes are not available.
func (p *Parser) spanText(start, end *token.Token, node ast.Expr) string {
	if p.input != nil && start.Pos < end.End && end.End <= len(p.input) {
		return string(p.input[start.Pos:end.End])
	}
	return astutil.ExprString(node)
}

func bitmapWidth(text string) int {
	switch text {
	case "bitmap8":
		return 8
	case "bitmap16":
		return 16
	case "bitmap32":
		return 32
	case "bitmap64":
		return 64
	}
	return 0
}

func describe(tok *token.Token) string {
	if tok.Text != "" {
		return fmt.Sprintf("%s (%q)", tok.Type, tok.Text)
	}
	return tok.Type.String()
}
