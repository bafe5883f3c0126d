package cparser

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenChar
	tokenPunct
)

type ctoken struct {
	kind tokenKind
	text string
	line int
}

// directive is one preprocessor line with backslash continuations folded
// in and comments replaced by spaces.
type directive struct {
	name string
	rest string
	line int
}

type lexer struct {
	src  []byte
	pos  int
	line int
}

// tokenize splits header source into declaration tokens and preprocessor
// directives.  Directives never reach the token stream; the declaration
// parser sees the file as the preprocessor's output would read with every
// conditional branch taken.
func tokenize(src []byte) ([]ctoken, []directive) {
	lex := &lexer{src: src, line: 1}
	var tokens []ctoken
	var directives []directive
	for lex.pos < len(lex.src) {
		c := lex.src[lex.pos]
		switch {
		case c == '\n':
			lex.line++
			lex.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f':
			lex.pos++
		case c == '/' && lex.peek(1) == '/':
			lex.skipLineComment()
		case c == '/' && lex.peek(1) == '*':
			lex.skipBlockComment()
		case c == '#':
			directives = append(directives, lex.readDirective())
		case isIdentStart(c):
			tokens = append(tokens, lex.readIdent())
		case c >= '0' && c <= '9':
			tokens = append(tokens, lex.readNumber())
		case c == '"':
			tokens = append(tokens, lex.readQuoted('"', tokenString))
		case c == '\'':
			tokens = append(tokens, lex.readQuoted('\'', tokenChar))
		default:
			tokens = append(tokens, lex.readPunct())
		}
	}
	tokens = append(tokens, ctoken{kind: tokenEOF, line: lex.line})
	return tokens, directives
}

func (lex *lexer) peek(ahead int) byte {
	if lex.pos+ahead >= len(lex.src) {
		return 0
	}
	return lex.src[lex.pos+ahead]
}

// skipLineComment stops before the newline so the caller still sees the
// line boundary.
func (lex *lexer) skipLineComment() {
	for lex.pos < len(lex.src) && lex.src[lex.pos] != '\n' {
		lex.pos++
	}
}

func (lex *lexer) skipBlockComment() {
	lex.pos += 2
	for lex.pos < len(lex.src) {
		if lex.src[lex.pos] == '\n' {
			lex.line++
		} else if lex.src[lex.pos] == '*' && lex.peek(1) == '/' {
			lex.pos += 2
			return
		}
		lex.pos++
	}
}

func (lex *lexer) readDirective() directive {
	startLine := lex.line
	lex.pos++ // '#'
	for lex.pos < len(lex.src) && (lex.src[lex.pos] == ' ' || lex.src[lex.pos] == '\t') {
		lex.pos++
	}
	start := lex.pos
	for lex.pos < len(lex.src) && isIdentChar(lex.src[lex.pos]) {
		lex.pos++
	}
	name := string(lex.src[start:lex.pos])
	var body []byte
	for lex.pos < len(lex.src) {
		c := lex.src[lex.pos]
		if c == '\\' && lex.peek(1) == '\n' {
			lex.pos += 2
			lex.line++
			body = append(body, ' ')
			continue
		}
		if c == '\n' {
			break
		}
		if c == '/' && lex.peek(1) == '/' {
			lex.skipLineComment()
			continue
		}
		if c == '/' && lex.peek(1) == '*' {
			lex.skipBlockComment()
			body = append(body, ' ')
			continue
		}
		body = append(body, c)
		lex.pos++
	}
	return directive{name: name, rest: trimSpaceBytes(body), line: startLine}
}

func (lex *lexer) readIdent() ctoken {
	start, line := lex.pos, lex.line
	for lex.pos < len(lex.src) && isIdentChar(lex.src[lex.pos]) {
		lex.pos++
	}
	return ctoken{kind: tokenIdent, text: string(lex.src[start:lex.pos]), line: line}
}

// readNumber absorbs integer and floating literals including hex digits
// and the usual u/l/f suffixes.  Identifier characters and '.' extend the
// literal, which is exact enough for declaration parsing.
func (lex *lexer) readNumber() ctoken {
	start, line := lex.pos, lex.line
	for lex.pos < len(lex.src) {
		c := lex.src[lex.pos]
		if isIdentChar(c) || c == '.' {
			lex.pos++
			continue
		}
		break
	}
	return ctoken{kind: tokenNumber, text: string(lex.src[start:lex.pos]), line: line}
}

func (lex *lexer) readQuoted(quote byte, kind tokenKind) ctoken {
	start, line := lex.pos, lex.line
	lex.pos++
	for lex.pos < len(lex.src) {
		c := lex.src[lex.pos]
		if c == '\\' {
			lex.pos += 2
			continue
		}
		lex.pos++
		if c == quote || c == '\n' {
			break
		}
	}
	return ctoken{kind: kind, text: string(lex.src[start:lex.pos]), line: line}
}

func (lex *lexer) readPunct() ctoken {
	line := lex.line
	if lex.src[lex.pos] == '.' && lex.peek(1) == '.' && lex.peek(2) == '.' {
		lex.pos += 3
		return ctoken{kind: tokenPunct, text: "...", line: line}
	}
	text := string(lex.src[lex.pos])
	lex.pos++
	return ctoken{kind: tokenPunct, text: text, line: line}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func trimSpaceBytes(b []byte) string {
	i, j := 0, len(b)
	for i < j && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	for j > i && (b[j-1] == ' ' || b[j-1] == '\t') {
		j--
	}
	return string(b[i:j])
}
