package token

import "fmt"

// Token is a single lexical element of a C-Next source file.  Pos and End
// are byte offsets into the scanned source, allowing callers to recover
// verbatim source text for any token span.
type Token struct {
	Type   Type
	Text   string
	Source *Location
	Pos    int
	End    int
}

type Type uint

// Type constants for the C-Next lexer.
const (
	INVALID Type = iota
	ERROR
	EOF

	// Atomic expressions & literals
	IDENT
	INT
	FLOAT
	STRING
	TRUE
	FALSE

	COMMENT
	INCLUDE // a full #include directive line

	// Keywords
	CONST
	ATOMIC
	ENUM
	STRUCT
	REGISTER
	SCOPE
	PUBLIC
	PRIVATE
	IF
	ELSE
	WHILE
	FOR
	RETURN

	// Operators
	ASSIGN // <-
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	AMP
	PIPE
	CARET
	TILDE
	BANG
	SHL // <<
	SHR // >>
	LAND
	LOR
	EQ // ==
	NE // !=
	LT
	GT
	LE // <=
	GE // >=
	AT
	DOT
	COMMA
	COLON
	SEMICOLON

	// Delimiters
	PAREN_L
	PAREN_R
	BRACE_L
	BRACE_R
	BRACK_L
	BRACK_R

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:   "invalid",
		ERROR:     "error",
		EOF:       "EOF",
		IDENT:     "identifier",
		INT:       "int",
		FLOAT:     "float",
		STRING:    "string",
		TRUE:      "true",
		FALSE:     "false",
		COMMENT:   "comment",
		INCLUDE:   "#include",
		CONST:     "const",
		ATOMIC:    "atomic",
		ENUM:      "enum",
		STRUCT:    "struct",
		REGISTER:  "register",
		SCOPE:     "scope",
		PUBLIC:    "public",
		PRIVATE:   "private",
		IF:        "if",
		ELSE:      "else",
		WHILE:     "while",
		FOR:       "for",
		RETURN:    "return",
		ASSIGN:    "<-",
		PLUS:      "+",
		MINUS:     "-",
		STAR:      "*",
		SLASH:     "/",
		PERCENT:   "%",
		AMP:       "&",
		PIPE:      "|",
		CARET:     "^",
		TILDE:     "~",
		BANG:      "!",
		SHL:       "<<",
		SHR:       ">>",
		LAND:      "&&",
		LOR:       "||",
		EQ:        "==",
		NE:        "!=",
		LT:        "<",
		GT:        ">",
		LE:        "<=",
		GE:        ">=",
		AT:        "@",
		DOT:       ".",
		COMMA:     ",",
		COLON:     ":",
		SEMICOLON: ";",
		PAREN_L:   "(",
		PAREN_R:   ")",
		BRACE_L:   "{",
		BRACE_R:   "}",
		BRACK_L:   "[",
		BRACK_R:   "]",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// keywords maps reserved words to their token types.  Primitive type names
// (u8, bool, ...) are deliberately not keywords; they lex as identifiers and
// are recognized during type resolution.
var keywords = map[string]Type{
	"const":    CONST,
	"atomic":   ATOMIC,
	"enum":     ENUM,
	"struct":   STRUCT,
	"register": REGISTER,
	"scope":    SCOPE,
	"public":   PUBLIC,
	"private":  PRIVATE,
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"return":   RETURN,
	"true":     TRUE,
	"false":    FALSE,
}

// Keyword returns the keyword token type for text, or IDENT when text is not
// a reserved word.
func Keyword(text string) Type {
	if typ, ok := keywords[text]; ok {
		return typ
	}
	return IDENT
}

// Location identifies a position in a source stream.
type Location struct {
	File string // a name representing the source stream
	Path string // a physical location which may differ from File
	Line int    // line number (starting at 1 when tracked)
	Col  int    // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	switch {
	case loc.Line == 0:
		return loc.File
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

// LocationError couples an error with the source location it refers to.
type LocationError struct {
	Err    error
	Source *Location
}

func (e *LocationError) Error() string {
	if e.Source == nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *LocationError) Unwrap() error {
	return e.Err
}
