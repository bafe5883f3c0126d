package lexer

import (
	"fmt"
	"unicode"

	"github.com/jlaustill/c-next-sub006/parser/token"
)

// Lexer tokenizes C-Next source text read from a token.Scanner.
type Lexer struct {
	scanner *token.Scanner
}

func New(s *token.Scanner) *Lexer {
	return &Lexer{scanner: s}
}

// ReadToken produces the next batch of tokens from the stream.  The slice is
// never empty.  At the end of input ReadToken returns a single EOF token.
func (lex *Lexer) ReadToken() []*token.Token {
	lex.skipWhitespace()
	if !lex.scanner.Accept(func(c rune) bool { return true }) {
		if lex.scanner.EOF() {
			return lex.emit(token.EOF, "")
		}
		if err := lex.scanner.Err(); err != nil {
			return lex.emit(token.ERROR, err.Error())
		}
	}
	switch lex.scanner.Rune() {
	case '(':
		return lex.emitText(token.PAREN_L)
	case ')':
		return lex.emitText(token.PAREN_R)
	case '{':
		return lex.emitText(token.BRACE_L)
	case '}':
		return lex.emitText(token.BRACE_R)
	case '[':
		return lex.emitText(token.BRACK_L)
	case ']':
		return lex.emitText(token.BRACK_R)
	case ',':
		return lex.emitText(token.COMMA)
	case ';':
		return lex.emitText(token.SEMICOLON)
	case ':':
		return lex.emitText(token.COLON)
	case '.':
		return lex.emitText(token.DOT)
	case '@':
		return lex.emitText(token.AT)
	case '+':
		return lex.emitText(token.PLUS)
	case '-':
		return lex.emitText(token.MINUS)
	case '*':
		return lex.emitText(token.STAR)
	case '%':
		return lex.emitText(token.PERCENT)
	case '^':
		return lex.emitText(token.CARET)
	case '~':
		return lex.emitText(token.TILDE)
	case '/':
		return lex.readSlash()
	case '#':
		lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
		return lex.emitText(token.INCLUDE)
	case '<':
		switch {
		case lex.scanner.AcceptRune('-'):
			return lex.emitText(token.ASSIGN)
		case lex.scanner.AcceptRune('<'):
			return lex.emitText(token.SHL)
		case lex.scanner.AcceptRune('='):
			return lex.emitText(token.LE)
		default:
			return lex.emitText(token.LT)
		}
	case '>':
		switch {
		case lex.scanner.AcceptRune('>'):
			return lex.emitText(token.SHR)
		case lex.scanner.AcceptRune('='):
			return lex.emitText(token.GE)
		default:
			return lex.emitText(token.GT)
		}
	case '=':
		if lex.scanner.AcceptRune('=') {
			return lex.emitText(token.EQ)
		}
		return lex.errorf("unexpected %q (assignment is written <-)", "=")
	case '!':
		if lex.scanner.AcceptRune('=') {
			return lex.emitText(token.NE)
		}
		return lex.emitText(token.BANG)
	case '&':
		if lex.scanner.AcceptRune('&') {
			return lex.emitText(token.LAND)
		}
		return lex.emitText(token.AMP)
	case '|':
		if lex.scanner.AcceptRune('|') {
			return lex.emitText(token.LOR)
		}
		return lex.emitText(token.PIPE)
	case '"':
		return lex.readString()
	default:
		if isDigit(lex.scanner.Rune()) {
			return lex.readNumber()
		}
		if isWordStart(lex.scanner.Rune()) {
			return lex.readWord()
		}
		return lex.errorf("unexpected text starting with %q", lex.scanner.Rune())
	}
}

func (lex *Lexer) emit(typ token.Type, text string) []*token.Token {
	tok := []*token.Token{{
		Type:   typ,
		Text:   text,
		Source: lex.scanner.LocStart(),
	}}
	lex.scanner.Ignore()
	return tok
}

func (lex *Lexer) emitText(typ token.Type) []*token.Token {
	return []*token.Token{lex.scanner.EmitToken(typ)}
}

func (lex *Lexer) errorf(format string, v ...interface{}) []*token.Token {
	return lex.emit(token.ERROR, fmt.Sprintf(format, v...))
}

// readSlash disambiguates division from the two comment forms.
func (lex *Lexer) readSlash() []*token.Token {
	switch {
	case lex.scanner.AcceptRune('/'):
		lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
		return lex.emitText(token.COMMENT)
	case lex.scanner.AcceptRune('*'):
		var star bool
		for {
			if !lex.scanner.Accept(func(c rune) bool { return true }) {
				return lex.errorf("unterminated block comment")
			}
			c := lex.scanner.Rune()
			if star && c == '/' {
				return lex.emitText(token.COMMENT)
			}
			star = c == '*'
		}
	default:
		return lex.emitText(token.SLASH)
	}
}

func (lex *Lexer) readString() []*token.Token {
	for {
		lex.scanner.AcceptSeq(func(c rune) bool {
			return c != '"' && c != '\\' && c != '\n'
		})
		switch {
		case lex.scanner.AcceptRune('"'):
			return lex.emitText(token.STRING)
		case lex.scanner.AcceptRune('\\'):
			// Escape validity is checked during parsing.
			if !lex.scanner.Accept(func(c rune) bool { return c != '\n' }) {
				return lex.errorf("unterminated string literal")
			}
		default:
			return lex.errorf("unterminated string literal")
		}
	}
}

func (lex *Lexer) readNumber() []*token.Token {
	if lex.scanner.Rune() == '0' && lex.scanner.AcceptAny("xX") {
		if lex.scanner.AcceptSeq(isHexDigit) == 0 {
			return lex.errorf("invalid hexadecimal literal starting: %v", lex.scanner.Text())
		}
		return lex.emitText(token.INT)
	}
	if lex.scanner.Rune() == '0' && lex.scanner.AcceptAny("bB") {
		if lex.scanner.AcceptSeq(func(c rune) bool { return c == '0' || c == '1' }) == 0 {
			return lex.errorf("invalid binary literal starting: %v", lex.scanner.Text())
		}
		return lex.emitText(token.INT)
	}
	lex.scanner.AcceptSeqDigit()
	if !lex.scanner.AcceptRune('.') {
		return lex.emitText(token.INT)
	}
	if lex.scanner.AcceptSeqDigit() == 0 {
		return lex.errorf("invalid floating point literal starting: %v", lex.scanner.Text())
	}
	if lex.scanner.AcceptAny("eE") {
		lex.scanner.AcceptAny("+-")
		if lex.scanner.AcceptSeqDigit() == 0 {
			return lex.errorf("invalid floating point literal starting: %v", lex.scanner.Text())
		}
	}
	return lex.emitText(token.FLOAT)
}

func (lex *Lexer) readWord() []*token.Token {
	lex.scanner.AcceptSeq(isWord)
	return lex.emitText(token.Keyword(lex.scanner.Text()))
}

func (lex *Lexer) skipWhitespace() {
	if lex.scanner.AcceptSeqSpace() > 0 {
		lex.scanner.Ignore()
	}
}

func isWordStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isWord(c rune) bool {
	return isWordStart(c) || isDigit(c)
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c rune) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
