package cnparser

import (
	"github.com/jlaustill/c-next-sub006/parser/lexer"
	"github.com/jlaustill/c-next-sub006/parser/token"
)

// TokenStream is an arbitrary sequence of tokens.  Typically, a TokenStream
// will be a *lexer.Lexer but other implementations may be desirable for a
// REPL or other dynamic environments.
type TokenStream interface {
	// ReadToken returns a set of tokens from an input source.  When no more
	// tokens can be generated ReadToken returns a token with type token.EOF.
	// ReadToken never returns an empty slice.  In the presence of io errors
	// a TokenStream must return a token with type token.ERROR whenever
	// called.
	ReadToken() []*token.Token
}

// TokenGenerator implements TokenStream.  The function will be called any
// time a TokenSource wants a token.
type TokenGenerator func() []*token.Token

// ReadToken implements TokenStream.
func (fn TokenGenerator) ReadToken() []*token.Token {
	return fn()
}

// TokenSource abstracts a TokenStream by adding "memory" and providing
// methods to process and branch off the stream's tokens.  Comment tokens
// are consumed transparently; parse rules never see them.
type TokenSource struct {
	lex   TokenStream
	Token *token.Token
	peek  []*token.Token
}

func NewTokenStreamSource(stream TokenStream) *TokenSource {
	return &TokenSource{
		lex: stream,
	}
}

// NewTokenSource initializes and returns a new TokenSource that scans
// tokens from scanner.
func NewTokenSource(scanner *token.Scanner) *TokenSource {
	lex := lexer.New(scanner)
	return NewTokenStreamSource(lex)
}

func (s *TokenSource) Peek() *token.Token {
	return s.PeekAt(0)
}

// PeekAt returns the token i positions ahead of the stream without
// consuming anything.  PeekAt(0) is the next token to be scanned.
func (s *TokenSource) PeekAt(i int) *token.Token {
	for len(s.peek) <= i {
		if n := len(s.peek); n > 0 && s.peek[n-1].Type == token.EOF {
			return s.peek[n-1]
		}
		s.peek = append(s.peek, s.read()...)
	}
	return s.peek[i]
}

// read pulls tokens from the stream, dropping comments.
func (s *TokenSource) read() []*token.Token {
	for {
		toks := s.lex.ReadToken()
		out := toks[:0:0]
		for _, tok := range toks {
			if tok.Type != token.COMMENT {
				out = append(out, tok)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
}

func (s *TokenSource) Accept(fn func(*token.Token) bool) bool {
	if fn(s.Peek()) {
		s.scan()
		return true
	}
	return false
}

func (s *TokenSource) AcceptType(typ ...token.Type) bool {
	for _, typ := range typ {
		if s.Peek().Type == typ {
			s.scan()
			return true
		}
	}
	return false
}

func (s *TokenSource) Scan() bool {
	if s.IsEOF() {
		s.Token = s.Peek()
		return false
	}
	s.scan()
	return true
}

func (s *TokenSource) IsEOF() bool {
	return s.Peek().Type == token.EOF
}

func (s *TokenSource) scan() {
	s.Token = s.peek[0]
	s.peek = s.peek[1:]
}
