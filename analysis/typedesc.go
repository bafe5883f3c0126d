package analysis

// TypeKind discriminates the forms a resolved type can take.
type TypeKind int

const (
	TypeUnknown TypeKind = iota
	TypePrimitive
	TypeUser
	TypeArray
	TypeString
	TypePointer
)

func (k TypeKind) String() string {
	switch k {
	case TypePrimitive:
		return "primitive"
	case TypeUser:
		return "user"
	case TypeArray:
		return "array"
	case TypeString:
		return "string"
	case TypePointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// TypeDesc is the canonical descriptor for a resolved type.  Name holds the
// mangled spelling used in generated code; for unrecognized forms it falls
// back to the verbatim source text.
type TypeDesc struct {
	Kind   TypeKind
	Name   string
	Bits   int
	Signed bool
	Float  bool
	Bool   bool

	// Array attributes.  Dim is valid only when DimKnown; DimText keeps the
	// symbolic dimension spelling either way.
	Elem     *TypeDesc
	Dim      int
	DimText  string
	DimKnown bool

	// String capacity including the terminator slot.
	Capacity int
}

// IsArray reports whether the descriptor is an array type.
func (t TypeDesc) IsArray() bool { return t.Kind == TypeArray }

// IsVoid reports whether the descriptor is the void primitive.
func (t TypeDesc) IsVoid() bool { return t.Kind == TypePrimitive && t.Name == "void" }

// SmallPrimitive reports whether the type is in the fixed set eligible for
// pass-by-value: 8/16/32/64-bit signed or unsigned integers and bool.
// Floats are excluded.
func (t TypeDesc) SmallPrimitive() bool {
	if t.Kind != TypePrimitive {
		return false
	}
	if t.Bool {
		return true
	}
	if t.Float || t.Bits == 0 {
		return false
	}
	return t.Bits <= 64
}

var primitives = map[string]TypeDesc{
	"u8":   {Kind: TypePrimitive, Name: "u8", Bits: 8},
	"u16":  {Kind: TypePrimitive, Name: "u16", Bits: 16},
	"u32":  {Kind: TypePrimitive, Name: "u32", Bits: 32},
	"u64":  {Kind: TypePrimitive, Name: "u64", Bits: 64},
	"i8":   {Kind: TypePrimitive, Name: "i8", Bits: 8, Signed: true},
	"i16":  {Kind: TypePrimitive, Name: "i16", Bits: 16, Signed: true},
	"i32":  {Kind: TypePrimitive, Name: "i32", Bits: 32, Signed: true},
	"i64":  {Kind: TypePrimitive, Name: "i64", Bits: 64, Signed: true},
	"f32":  {Kind: TypePrimitive, Name: "f32", Bits: 32, Float: true, Signed: true},
	"f64":  {Kind: TypePrimitive, Name: "f64", Bits: 64, Float: true, Signed: true},
	"bool": {Kind: TypePrimitive, Name: "bool", Bits: 8, Bool: true},
	"void": {Kind: TypePrimitive, Name: "void"},
}

// Primitive returns the descriptor for a built-in primitive type name.
func Primitive(name string) (TypeDesc, bool) {
	t, ok := primitives[name]
	return t, ok
}

// UserType returns a descriptor for a user-defined type spelling.
func UserType(name string) TypeDesc {
	return TypeDesc{Kind: TypeUser, Name: name}
}
