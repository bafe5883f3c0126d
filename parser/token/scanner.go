package token

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Source is an abstract stream of tokens which allows one token lookahead.
type Source interface {
	// Token returns the current token.  Token returns nil if Scan has not
	// been called.
	Token() *Token
	// Peek returns the next token in the stream.  At the end of the stream
	// Peek returns a token with type EOF.
	Peek() *Token
	// Scan advances the token stream if possible.  If there are no tokens
	// remaining Scan returns false.
	Scan() bool
}

// Scanner facilitates construction of tokens from source text.  The full
// source is buffered up front; C-Next translation units are single small
// files so streaming buys nothing here.
type Scanner struct {
	file string
	path string

	buf  []byte
	next int // byte offset of the rune following pos
	c    rune
	cw   int // byte width of c

	line int // line number of c
	col  int // column number of c

	start     int // byte offset of the current token's first rune
	startLine int
	startCol  int

	err error
}

// NewScanner initializes and returns a new Scanner reading from r.
func NewScanner(file string, r io.Reader) *Scanner {
	buf, err := io.ReadAll(r)
	s := &Scanner{
		file: file,
		buf:  buf,
		line: 1,
		col:  0,
		err:  err,
	}
	return s
}

// NewScannerString initializes a Scanner from in-memory source text.
func NewScannerString(file, text string) *Scanner {
	return &Scanner{
		file: file,
		buf:  []byte(text),
		line: 1,
	}
}

// SetPath associates a physical location (e.g. filesystem path) with s to
// aid in debugging projects which scan many ungrouped files.
func (s *Scanner) SetPath(path string) {
	s.path = path
}

// Err returns an error encountered while reading the input stream.
func (s *Scanner) Err() error {
	return s.err
}

// EOF returns true once all input has been consumed.
func (s *Scanner) EOF() bool {
	return s.next >= len(s.buf)
}

// Rune returns the current rune, the last rune accepted into the pending
// token.
func (s *Scanner) Rune() rune {
	return s.c
}

// Peek returns the next rune to be scanned.  The second value is false at
// the end of input.
func (s *Scanner) Peek() (rune, bool) {
	if s.EOF() {
		return 0, false
	}
	c, _ := utf8.DecodeRune(s.buf[s.next:])
	return c, true
}

// ScanRune consumes the next rune into the pending token.
func (s *Scanner) ScanRune() bool {
	if s.EOF() {
		return false
	}
	if s.c == '\n' {
		s.line++
		s.col = 0
	}
	c, n := utf8.DecodeRune(s.buf[s.next:])
	s.c = c
	s.cw = n
	s.next += n
	s.col++
	return true
}

// Accept consumes the next rune when fn approves of it.
func (s *Scanner) Accept(fn func(rune) bool) bool {
	c, ok := s.Peek()
	if !ok || !fn(c) {
		return false
	}
	return s.ScanRune()
}

// AcceptRune consumes the next rune when it equals c.
func (s *Scanner) AcceptRune(c rune) bool {
	peek, ok := s.Peek()
	if !ok || peek != c {
		return false
	}
	return s.ScanRune()
}

// AcceptAny consumes the next rune when it appears in charset.
func (s *Scanner) AcceptAny(charset string) bool {
	peek, ok := s.Peek()
	if !ok || !strings.ContainsRune(charset, peek) {
		return false
	}
	return s.ScanRune()
}

// AcceptDigit consumes the next rune when it is a decimal digit.
func (s *Scanner) AcceptDigit() bool {
	return s.Accept(func(c rune) bool { return '0' <= c && c <= '9' })
}

// AcceptSeq consumes a run of runes approved by fn, returning its length.
func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

// AcceptSeqDigit consumes a run of decimal digits.
func (s *Scanner) AcceptSeqDigit() int {
	return s.AcceptSeq(func(c rune) bool { return '0' <= c && c <= '9' })
}

// AcceptSeqSpace consumes a run of whitespace.
func (s *Scanner) AcceptSeqSpace() int {
	return s.AcceptSeq(unicode.IsSpace)
}

// Text returns the text scanned since the last call to EmitToken or Ignore.
func (s *Scanner) Text() string {
	return string(s.buf[s.start:s.next])
}

// EmitToken returns a token containing the text scanned since the last call
// to either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocStart(),
		Pos:    s.start,
		End:    s.next,
	}
	s.Ignore()
	return tok
}

// Input returns the full buffered source text.
func (s *Scanner) Input() []byte {
	return s.buf
}

// Ignore discards all text scanned since the last call to EmitToken or
// Ignore.
func (s *Scanner) Ignore() {
	s.start = s.next
	s.startLine = s.line
	s.startCol = s.col + 1
	if s.c == '\n' {
		s.startLine++
		s.startCol = 1
	}
}

// LocStart returns a Location referencing the beginning of the pending
// token.
func (s *Scanner) LocStart() *Location {
	line, col := s.startLine, s.startCol
	if line == 0 {
		line, col = 1, 1
	}
	return &Location{
		File: s.file,
		Path: s.path,
		Line: line,
		Col:  col,
	}
}

// Loc returns a Location referencing the current scanner position.
func (s *Scanner) Loc() *Location {
	return &Location{
		File: s.file,
		Path: s.path,
		Line: s.line,
		Col:  s.col,
	}
}
