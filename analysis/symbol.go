package analysis

import "github.com/jlaustill/c-next-sub006/ast"

// Lang tags which source language a symbol came from.
type Lang int

const (
	LangCNext Lang = iota
	LangC
	LangCpp
)

func (l Lang) String() string {
	switch l {
	case LangC:
		return "c"
	case LangCpp:
		return "cpp"
	default:
		return "cnext"
	}
}

// Symbol is the closed set of resolved symbol kinds.  Consumers switch
// exhaustively over the concrete types; the unexported marker method keeps
// the set closed to this package.
type Symbol interface {
	// Name returns the mangled symbol name.
	Name() string
	// Kind returns the symbol kind as a stable lowercase word.
	Kind() string
	// Scope returns the owning scope, shared with the registry.
	Scope() *Scope
	// File and Line locate the declaration.
	File() string
	Line() int
	// Language tags the source language that produced the symbol.
	Language() Lang
	// Exported reports scope-member visibility; global symbols are always
	// exported.
	Exported() bool

	symbol()
}

// SymbolBase carries the attributes common to every symbol kind.
type SymbolBase struct {
	SymName string
	Owner   *Scope
	SrcFile string
	SrcLine int
	Lang    Lang
	Public  bool
}

func (b *SymbolBase) Name() string   { return b.SymName }
func (b *SymbolBase) Scope() *Scope  { return b.Owner }
func (b *SymbolBase) File() string   { return b.SrcFile }
func (b *SymbolBase) Line() int      { return b.SrcLine }
func (b *SymbolBase) Language() Lang { return b.Lang }
func (b *SymbolBase) Exported() bool { return b.Public }
func (b *SymbolBase) symbol()        {}

// Struct is a record type symbol.
type Struct struct {
	SymbolBase
	Fields []StructField
	// Opaque marks a C struct typedef whose layout is unknown because only
	// a forward declaration was seen.
	Opaque bool
}

func (*Struct) Kind() string { return "struct" }

// StructField is one resolved field of a struct.  Fields are attributes of
// their struct, not standalone symbols.
type StructField struct {
	Name string
	Type TypeDesc
}

// Enum is an enumeration type symbol.
type Enum struct {
	SymbolBase
	Members []*EnumMember
}

func (*Enum) Kind() string { return "enum" }

// EnumMember is a single enumerator.
type EnumMember struct {
	SymbolBase
	EnumName string
	Value    string // explicit value text, "" when implicit
	Index    int
}

func (*EnumMember) Kind() string { return "enum-member" }

// Bitmap is a fixed-width integer type with named bit runs.
type Bitmap struct {
	SymbolBase
	Width  int
	Fields []*BitmapField
}

func (*Bitmap) Kind() string { return "bitmap" }

// BitmapField names a run of bits inside its bitmap.
type BitmapField struct {
	SymbolBase
	BitmapName string
	Offset     int
	Bits       int
}

func (*BitmapField) Kind() string { return "bitmap-field" }

// FuncParam is one resolved function parameter.
type FuncParam struct {
	Name    string
	Type    TypeDesc
	IsArray bool
}

// Function is a function symbol.  Body points into the parse tree and is
// shared, never copied.
type Function struct {
	SymbolBase
	ReturnType TypeDesc
	Params     []FuncParam
	// Signature is the duplicate-detection key: return type, mangled name,
	// and parameter types.
	Signature string
	Body      *ast.BlockStmt
}

func (*Function) Kind() string { return "function" }

// Variable is a variable or constant symbol.
type Variable struct {
	SymbolBase
	Type     TypeDesc
	Const    bool
	Atomic   bool
	InitText string // initializer source text, verbatim
}

func (*Variable) Kind() string { return "variable" }

// Register is a typed view over a fixed memory address.
type Register struct {
	SymbolBase
	Type    TypeDesc
	Address string
	Members []*RegisterMember
}

func (*Register) Kind() string { return "register" }

// RegisterMember is one member of a register block.  IsBitmap marks
// members whose type resolved to a known bitmap.
type RegisterMember struct {
	SymbolBase
	RegisterName string
	Type         TypeDesc
	Access       ast.Access
	IsBitmap     bool
}

func (*RegisterMember) Kind() string { return "register-member" }

// ScopeSymbol records a scope declaration itself.
type ScopeSymbol struct {
	SymbolBase
}

func (*ScopeSymbol) Kind() string { return "scope" }
