// Package ast declares the typed parse tree for C-Next translation units.
// Nodes are built once by the parser and consumed read-only afterward; every
// node records the source location of its first token.
package ast

import (
	"github.com/jlaustill/c-next-sub006/parser/token"
)

// Node is the interface implemented by all parse tree nodes.
type Node interface {
	Loc() *token.Location
}

// Decl is a top-level or scope-level declaration.
type Decl interface {
	Node
	declNode()
}

// Stmt is a statement inside a function body.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// node provides the common source location for all tree nodes.  The Source
// field promotes into every node type so the parser can stamp locations
// after construction.
type node struct {
	Source *token.Location
}

func (n *node) Loc() *token.Location { return n.Source }

// Visibility is an explicit public/private modifier on a scope member.  The
// zero value means no modifier was written and the member's kind decides.
type Visibility int

const (
	VisDefault Visibility = iota
	VisPublic
	VisPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisPublic:
		return "public"
	case VisPrivate:
		return "private"
	default:
		return "default"
	}
}

// Program is the root of a parsed translation unit.
type Program struct {
	node
	File  string
	Decls []Decl
}

// Includes returns the #include directives in source order.
func (p *Program) Includes() []*IncludeDecl {
	var out []*IncludeDecl
	for _, d := range p.Decls {
		if inc, ok := d.(*IncludeDecl); ok {
			out = append(out, inc)
		}
	}
	return out
}

// Scopes returns the scope declarations in source order.
func (p *Program) Scopes() []*ScopeDecl {
	var out []*ScopeDecl
	for _, d := range p.Decls {
		if s, ok := d.(*ScopeDecl); ok {
			out = append(out, s)
		}
	}
	return out
}

// Bitmaps returns the top-level bitmap declarations in source order.
func (p *Program) Bitmaps() []*BitmapDecl {
	var out []*BitmapDecl
	for _, d := range p.Decls {
		if b, ok := d.(*BitmapDecl); ok {
			out = append(out, b)
		}
	}
	return out
}

// Structs returns the top-level struct declarations in source order.
func (p *Program) Structs() []*StructDecl {
	var out []*StructDecl
	for _, d := range p.Decls {
		if s, ok := d.(*StructDecl); ok {
			out = append(out, s)
		}
	}
	return out
}

// Enums returns the top-level enum declarations in source order.
func (p *Program) Enums() []*EnumDecl {
	var out []*EnumDecl
	for _, d := range p.Decls {
		if e, ok := d.(*EnumDecl); ok {
			out = append(out, e)
		}
	}
	return out
}

// Registers returns the top-level register declarations in source order.
func (p *Program) Registers() []*RegisterDecl {
	var out []*RegisterDecl
	for _, d := range p.Decls {
		if r, ok := d.(*RegisterDecl); ok {
			out = append(out, r)
		}
	}
	return out
}

// Functions returns the top-level function declarations in source order.
func (p *Program) Functions() []*FuncDecl {
	var out []*FuncDecl
	for _, d := range p.Decls {
		if f, ok := d.(*FuncDecl); ok {
			out = append(out, f)
		}
	}
	return out
}

// Variables returns the top-level variable declarations in source order,
// including constants.
func (p *Program) Variables() []*VarDecl {
	var out []*VarDecl
	for _, d := range p.Decls {
		if v, ok := d.(*VarDecl); ok {
			out = append(out, v)
		}
	}
	return out
}

// IncludeDecl is a single #include directive.  Directive preserves the full
// line as written.
type IncludeDecl struct {
	node
	Directive string
	Target    string // header name with <> or "" stripped
	System    bool   // angle-bracket form
}

// ScopeDecl groups declarations under a named scope.
type ScopeDecl struct {
	node
	Name  string
	Decls []Decl
}

// VarDecl declares a variable or constant, at file scope, scope scope, or
// locally inside a function body.
type VarDecl struct {
	node
	Visibility Visibility
	Const      bool
	Atomic     bool
	Type       *TypeExpr
	Name       string
	Init       Expr   // nil when uninitialized
	InitText   string // initializer source text, verbatim
}

// FuncDecl declares a function.
type FuncDecl struct {
	node
	Visibility Visibility
	Return     *TypeExpr
	Name       string
	Params     []*Param
	Body       *BlockStmt
}

// Param is a single function parameter.
type Param struct {
	node
	Type *TypeExpr
	Name string
}

// StructDecl declares a record type.
type StructDecl struct {
	node
	Visibility Visibility
	Name       string
	Fields     []*StructField
}

// StructField is one field of a struct.
type StructField struct {
	node
	Type *TypeExpr
	Name string
}

// EnumDecl declares an enumeration.
type EnumDecl struct {
	node
	Visibility Visibility
	Name       string
	Members    []*EnumMember
}

// EnumMember is one enumerator, optionally with an explicit value.
type EnumMember struct {
	node
	Name  string
	Value Expr // nil when implicit
}

// BitmapDecl declares a fixed-width integer type with named bit fields.
// Width is the backing width in bits: 8, 16, 32, or 64.
type BitmapDecl struct {
	node
	Visibility Visibility
	Name       string
	Width      int
	Fields     []*BitmapField
}

// BitmapField is a named run of bits inside a bitmap.  Bits is 1 unless an
// explicit width was written.
type BitmapField struct {
	node
	Name string
	Bits int
}

// RegisterDecl declares a typed view over a fixed memory address.
type RegisterDecl struct {
	node
	Visibility Visibility
	Name       string
	Type       *TypeExpr
	Address    Expr
	AddrText   string // address expression source text, verbatim
	Members    []*RegisterMember
}

// Access is a register member's hardware access mode.
type Access int

const (
	AccessReadWrite Access = iota
	AccessReadOnly
	AccessWriteOnly
	AccessWrite1Clear
	AccessWrite1Set
)

func (a Access) String() string {
	switch a {
	case AccessReadOnly:
		return "ro"
	case AccessWriteOnly:
		return "wo"
	case AccessWrite1Clear:
		return "w1c"
	case AccessWrite1Set:
		return "w1s"
	default:
		return "rw"
	}
}

// ParseAccess maps an access-mode keyword to its Access value.
func ParseAccess(text string) (Access, bool) {
	switch text {
	case "rw":
		return AccessReadWrite, true
	case "ro":
		return AccessReadOnly, true
	case "wo":
		return AccessWriteOnly, true
	case "w1c":
		return AccessWrite1Clear, true
	case "w1s":
		return AccessWrite1Set, true
	}
	return AccessReadWrite, false
}

// RegisterMember is one member of a register block.
type RegisterMember struct {
	node
	Name   string
	Type   *TypeExpr
	Access Access
}

// TypeExpr is a type as written in source: an optional scope qualifier, a
// base name, an optional string capacity, and optional array dimensions.
type TypeExpr struct {
	node
	Qualifier string   // "", "this", or "global"
	Path      []string // explicit Scope.Sub qualification, outermost first
	Name      string   // base type name
	StringCap Expr     // string<N> capacity, nil otherwise
	Dims      []*Dimension
}

// IsArray reports whether the type carries array dimensions.
func (t *TypeExpr) IsArray() bool { return len(t.Dims) > 0 }

// Dimension is one array dimension.  Empty dimensions take their size from
// an initializer.
type Dimension struct {
	node
	Size  Expr // nil when empty
	Text  string
	Empty bool
}

// BlockStmt is a braced statement list.
type BlockStmt struct {
	node
	List []Stmt
}

// DeclStmt is a local variable declaration appearing as a statement.
type DeclStmt struct {
	node
	Decl *VarDecl
}

// AssignStmt binds the value of an expression to a storage location.
type AssignStmt struct {
	node
	Target Expr
	Value  Expr
}

// IfStmt is a conditional with an optional else branch.  Else is nil, a
// *BlockStmt, or another *IfStmt for else-if chains.
type IfStmt struct {
	node
	Cond Expr
	Body *BlockStmt
	Else Stmt
}

// WhileStmt is a pre-test loop.
type WhileStmt struct {
	node
	Cond Expr
	Body *BlockStmt
}

// ForStmt is a C-style counted loop.  Init and Post may be nil.
type ForStmt struct {
	node
	Init Stmt
	Cond Expr // nil for an infinite loop
	Post Stmt
	Body *BlockStmt
}

// ReturnStmt returns from the enclosing function, optionally with a value.
type ReturnStmt struct {
	node
	Value Expr
}

// ExprStmt is an expression evaluated for effect, typically a call.
type ExprStmt struct {
	node
	X Expr
}

// Ident is a bare identifier.  The qualifier keywords this and global parse
// as ordinary identifiers and are given meaning during resolution.
type Ident struct {
	node
	Name string
}

// SelectorExpr is a dotted member access, X.Sel.
type SelectorExpr struct {
	node
	X   Expr
	Sel string
}

// IndexExpr is a single-index subscript, X[Index].  On array operands it is
// an element access; on scalar operands it selects a bit.  Either way the
// operand is addressed, not copied.
type IndexExpr struct {
	node
	X     Expr
	Index Expr
}

// BitIndexExpr is a two-index subscript, X[Index, Width], extracting Width
// bits starting at Index.  It reads the operand by value.
type BitIndexExpr struct {
	node
	X     Expr
	Index Expr
	Width Expr
}

// CallExpr is a function call.
type CallExpr struct {
	node
	Fun  Expr
	Args []Expr
}

// UnaryExpr is a prefix operator application.
type UnaryExpr struct {
	node
	Op token.Type
	X  Expr
}

// BinaryExpr is an infix operator application.
type BinaryExpr struct {
	node
	Op token.Type
	X  Expr
	Y  Expr
}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	node
	X Expr
}

// BasicLit is an integer, float, string, or boolean literal.  Text is the
// literal exactly as written.
type BasicLit struct {
	node
	Kind token.Type
	Text string
}

// ArrayLit is a bracketed initializer list.
type ArrayLit struct {
	node
	Elems []Expr
}

func (*IncludeDecl) declNode()  {}
func (*ScopeDecl) declNode()    {}
func (*VarDecl) declNode()      {}
func (*FuncDecl) declNode()     {}
func (*StructDecl) declNode()   {}
func (*EnumDecl) declNode()     {}
func (*BitmapDecl) declNode()   {}
func (*RegisterDecl) declNode() {}

func (*BlockStmt) stmtNode()  {}
func (*DeclStmt) stmtNode()   {}
func (*AssignStmt) stmtNode() {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*ForStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode() {}
func (*ExprStmt) stmtNode()   {}

func (*Ident) exprNode()        {}
func (*SelectorExpr) exprNode() {}
func (*IndexExpr) exprNode()    {}
func (*BitIndexExpr) exprNode() {}
func (*CallExpr) exprNode()     {}
func (*UnaryExpr) exprNode()    {}
func (*BinaryExpr) exprNode()   {}
func (*ParenExpr) exprNode()    {}
func (*BasicLit) exprNode()     {}
func (*ArrayLit) exprNode()     {}
