package lexer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/jlaustill/c-next-sub006/parser/token"
)

func testToken(typ token.Type, text string) *token.Token {
	return &token.Token{Type: typ, Text: text}
}

func TestLexer(t *testing.T) {
	tests := []struct {
		input  string
		tokens []*token.Token
	}{
		{``, []*token.Token{
			testToken(token.EOF, ""),
		}},
		{`counter`, []*token.Token{
			testToken(token.IDENT, "counter"),
			testToken(token.EOF, ""),
		}},
		{`u8 counter <- 0;`, []*token.Token{
			testToken(token.IDENT, "u8"),
			testToken(token.IDENT, "counter"),
			testToken(token.ASSIGN, "<-"),
			testToken(token.INT, "0"),
			testToken(token.SEMICOLON, ";"),
			testToken(token.EOF, ""),
		}},
		{`< <= << <- > >= >>`, []*token.Token{
			testToken(token.LT, "<"),
			testToken(token.LE, "<="),
			testToken(token.SHL, "<<"),
			testToken(token.ASSIGN, "<-"),
			testToken(token.GT, ">"),
			testToken(token.GE, ">="),
			testToken(token.SHR, ">>"),
			testToken(token.EOF, ""),
		}},
		{`== != && || & | ! ~ ^ %`, []*token.Token{
			testToken(token.EQ, "=="),
			testToken(token.NE, "!="),
			testToken(token.LAND, "&&"),
			testToken(token.LOR, "||"),
			testToken(token.AMP, "&"),
			testToken(token.PIPE, "|"),
			testToken(token.BANG, "!"),
			testToken(token.TILDE, "~"),
			testToken(token.CARET, "^"),
			testToken(token.PERCENT, "%"),
			testToken(token.EOF, ""),
		}},
		{`scope Blink { public void setup() {} }`, []*token.Token{
			testToken(token.SCOPE, "scope"),
			testToken(token.IDENT, "Blink"),
			testToken(token.BRACE_L, "{"),
			testToken(token.PUBLIC, "public"),
			testToken(token.IDENT, "void"),
			testToken(token.IDENT, "setup"),
			testToken(token.PAREN_L, "("),
			testToken(token.PAREN_R, ")"),
			testToken(token.BRACE_L, "{"),
			testToken(token.BRACE_R, "}"),
			testToken(token.BRACE_R, "}"),
			testToken(token.EOF, ""),
		}},
		{`10 0x1F 0b1010 3.14 2.5e-3 0`, []*token.Token{
			testToken(token.INT, "10"),
			testToken(token.INT, "0x1F"),
			testToken(token.INT, "0b1010"),
			testToken(token.FLOAT, "3.14"),
			testToken(token.FLOAT, "2.5e-3"),
			testToken(token.INT, "0"),
			testToken(token.EOF, ""),
		}},
		{`register PINB : GPIO8 @ 0x23;`, []*token.Token{
			testToken(token.REGISTER, "register"),
			testToken(token.IDENT, "PINB"),
			testToken(token.COLON, ":"),
			testToken(token.IDENT, "GPIO8"),
			testToken(token.AT, "@"),
			testToken(token.INT, "0x23"),
			testToken(token.SEMICOLON, ";"),
			testToken(token.EOF, ""),
		}},
		{`this.state <- global.Config.mode;`, []*token.Token{
			testToken(token.IDENT, "this"),
			testToken(token.DOT, "."),
			testToken(token.IDENT, "state"),
			testToken(token.ASSIGN, "<-"),
			testToken(token.IDENT, "global"),
			testToken(token.DOT, "."),
			testToken(token.IDENT, "Config"),
			testToken(token.DOT, "."),
			testToken(token.IDENT, "mode"),
			testToken(token.SEMICOLON, ";"),
			testToken(token.EOF, ""),
		}},
		{"#include <Arduino.h>\nx", []*token.Token{
			testToken(token.INCLUDE, "#include <Arduino.h>"),
			testToken(token.IDENT, "x"),
			testToken(token.EOF, ""),
		}},
		{"// line note\ny", []*token.Token{
			testToken(token.COMMENT, "// line note"),
			testToken(token.IDENT, "y"),
			testToken(token.EOF, ""),
		}},
		{"/* multi\nline */ z", []*token.Token{
			testToken(token.COMMENT, "/* multi\nline */"),
			testToken(token.IDENT, "z"),
			testToken(token.EOF, ""),
		}},
		{`"hello" "a\"b" true false`, []*token.Token{
			testToken(token.STRING, `"hello"`),
			testToken(token.STRING, `"a\"b"`),
			testToken(token.TRUE, "true"),
			testToken(token.FALSE, "false"),
			testToken(token.EOF, ""),
		}},
		{`const enum struct if else while for return atomic`, []*token.Token{
			testToken(token.CONST, "const"),
			testToken(token.ENUM, "enum"),
			testToken(token.STRUCT, "struct"),
			testToken(token.IF, "if"),
			testToken(token.ELSE, "else"),
			testToken(token.WHILE, "while"),
			testToken(token.FOR, "for"),
			testToken(token.RETURN, "return"),
			testToken(token.ATOMIC, "atomic"),
			testToken(token.EOF, ""),
		}},
		{`data[3] data[i, 1]`, []*token.Token{
			testToken(token.IDENT, "data"),
			testToken(token.BRACK_L, "["),
			testToken(token.INT, "3"),
			testToken(token.BRACK_R, "]"),
			testToken(token.IDENT, "data"),
			testToken(token.BRACK_L, "["),
			testToken(token.IDENT, "i"),
			testToken(token.COMMA, ","),
			testToken(token.INT, "1"),
			testToken(token.BRACK_R, "]"),
			testToken(token.EOF, ""),
		}},
	}
testloop:
	for i, test := range tests {
		lex := New(token.NewScanner("", strings.NewReader(test.input)))
		var tokens []*token.Token
		numToken := 0
		for {
			toks := lex.ReadToken()
			if len(toks) != 1 {
				t.Fatalf("test %d: lexer returned %d tokens", i, len(toks))
			}
			tok := toks[0]
			tok.Source = nil
			tok.Pos, tok.End = 0, 0
			tokens = append(tokens, tok)
			if tok.Type == token.EOF || tok.Type == token.ERROR {
				break
			}
			numToken++
			if numToken > 100000 {
				t.Errorf("test %d: apparent infinite scanning loop", i)
				for _, tok := range tokens[len(tokens)-10:] {
					t.Log(tok)
				}
				continue testloop
			}
		}
		if !reflect.DeepEqual(tokens, test.tokens) {
			t.Errorf("test %d: unexpected tokens for input", i)
			t.Logf("source:\n\t%s", test.input)
			t.Logf("tokens:")
			for _, tok := range tokens {
				t.Logf("\t%v", tok)
			}
		}
	}
}

func TestLexerBareEquals(t *testing.T) {
	lex := New(token.NewScanner("", strings.NewReader("x = 1")))
	toks := lex.ReadToken()
	if len(toks) != 1 || toks[0].Type != token.IDENT {
		t.Fatalf("unexpected tokens: %v", toks)
	}
	toks = lex.ReadToken()
	if len(toks) != 1 || toks[0].Type != token.ERROR {
		t.Fatalf("expected an error token for bare =, got %v", toks)
	}
	if !strings.Contains(toks[0].Text, "<-") {
		t.Errorf("error should mention the <- operator: %s", toks[0].Text)
	}
}

func TestLexerLocations(t *testing.T) {
	lex := New(token.NewScanner("test.cn", strings.NewReader("u8 x;\nx <- 1;")))
	type loc struct{ line, col int }
	want := []loc{
		{1, 1}, {1, 4}, {1, 5},
		{2, 1}, {2, 3}, {2, 6}, {2, 7},
	}
	for i, w := range want {
		toks := lex.ReadToken()
		if len(toks) != 1 {
			t.Fatalf("token %d: lexer returned %d tokens", i, len(toks))
		}
		tok := toks[0]
		if tok.Source == nil {
			t.Fatalf("token %d: missing source location", i)
		}
		if tok.Source.File != "test.cn" {
			t.Errorf("token %d: unexpected file %q", i, tok.Source.File)
		}
		if tok.Source.Line != w.line || tok.Source.Col != w.col {
			t.Errorf("token %d (%s): location %d:%d, want %d:%d",
				i, tok.Text, tok.Source.Line, tok.Source.Col, w.line, w.col)
		}
	}
}
