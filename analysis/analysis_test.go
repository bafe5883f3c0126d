package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaustill/c-next-sub006/ast"
	"github.com/jlaustill/c-next-sub006/parser"
)

func resolveSource(t *testing.T, source string) *Result {
	t.Helper()
	return resolveConfig(t, source, nil)
}

func resolveConfig(t *testing.T, source string, cfg *Config) *Result {
	t.Helper()
	prog, err := parser.ParseString("test.cn", source)
	require.NoError(t, err)
	return Resolve(prog, cfg)
}

func symbolNamed(t *testing.T, res *Result, name string) Symbol {
	t.Helper()
	for _, sym := range res.Symbols {
		if sym.Name() == name {
			return sym
		}
	}
	t.Fatalf("no symbol named %q", name)
	return nil
}

func TestResolveVariable(t *testing.T) {
	res := resolveSource(t, "u8 counter <- 0;\n")
	require.Empty(t, res.Errors)

	v, ok := symbolNamed(t, res, "counter").(*Variable)
	require.True(t, ok)
	assert.Equal(t, "variable", v.Kind())
	assert.Equal(t, TypePrimitive, v.Type.Kind)
	assert.Equal(t, "u8", v.Type.Name)
	assert.Equal(t, 8, v.Type.Bits)
	assert.False(t, v.Type.Signed)
	assert.Equal(t, "0", v.InitText)
	assert.False(t, v.Const)
	assert.False(t, v.Atomic)
	assert.True(t, v.Exported())
	assert.Equal(t, "test.cn", v.File())
	assert.Equal(t, 1, v.Line())
}

func TestResolveVariableModifiers(t *testing.T) {
	res := resolveSource(t, "const u32 LIMIT <- 500;\natomic bool running <- true;\n")
	require.Empty(t, res.Errors)

	limit := symbolNamed(t, res, "LIMIT").(*Variable)
	assert.True(t, limit.Const)
	assert.False(t, limit.Atomic)

	running := symbolNamed(t, res, "running").(*Variable)
	assert.True(t, running.Atomic)
	assert.True(t, running.Type.Bool)
	assert.Equal(t, "true", running.InitText)
}

func TestResolveInitTextVerbatim(t *testing.T) {
	res := resolveSource(t, "const u32 BASE <- 2;\nu32 mask <- (BASE << 4) | 0x0F;\n")
	require.Empty(t, res.Errors)

	mask := symbolNamed(t, res, "mask").(*Variable)
	assert.Equal(t, "(BASE << 4) | 0x0F", mask.InitText)
}

func TestResolveConstants(t *testing.T) {
	src := `
const u8 SIZE <- 4;
const i8 OFFSET <- -3;
const u32 FLAGS <- 0b1010;
scope Timer {
    const u16 LIMIT <- 0x1000;
}
`
	res := resolveSource(t, src)
	require.Empty(t, res.Errors)

	assert.Equal(t, 4, res.ConstValues["SIZE"])
	assert.Equal(t, -3, res.ConstValues["OFFSET"])
	assert.Equal(t, 10, res.ConstValues["FLAGS"])
	assert.Equal(t, 0x1000, res.ConstValues["Timer_LIMIT"])

	limit := symbolNamed(t, res, "Timer_LIMIT").(*Variable)
	assert.True(t, limit.Const)
	assert.False(t, limit.Exported())
}

func TestExternalConstsLocalWins(t *testing.T) {
	cfg := &Config{ExternalConsts: map[string]int{"SIZE": 9, "SHARED": 7}}
	res := resolveConfig(t, "const u8 SIZE <- 4;\nu8 data[SIZE];\nu8 pool[SHARED];\n", cfg)
	require.Empty(t, res.Errors)

	assert.Equal(t, 4, res.ConstValues["SIZE"])
	assert.Equal(t, 7, res.ConstValues["SHARED"])

	data := symbolNamed(t, res, "data").(*Variable)
	require.True(t, data.Type.DimKnown)
	assert.Equal(t, 4, data.Type.Dim)

	pool := symbolNamed(t, res, "pool").(*Variable)
	require.True(t, pool.Type.DimKnown)
	assert.Equal(t, 7, pool.Type.Dim)
}

func TestResolveArrayDimensions(t *testing.T) {
	src := `
u8 buffer[LATER];
const u8 LATER <- 6;
u8 lut[] <- [1, 2, 3];
const u8 ROWS <- 2;
const u8 COLS <- 3;
u8 grid[ROWS][COLS];
u8 dynamic[count];
`
	res := resolveSource(t, src)
	require.Empty(t, res.Errors)

	// Constants are collected before any variable, so declaration order
	// does not matter.
	buffer := symbolNamed(t, res, "buffer").(*Variable)
	require.True(t, buffer.Type.IsArray())
	require.True(t, buffer.Type.DimKnown)
	assert.Equal(t, 6, buffer.Type.Dim)
	assert.Equal(t, "LATER", buffer.Type.DimText)

	// An empty dimension takes its size from the initializer.
	lut := symbolNamed(t, res, "lut").(*Variable)
	require.True(t, lut.Type.DimKnown)
	assert.Equal(t, 3, lut.Type.Dim)
	assert.Equal(t, "[1, 2, 3]", lut.InitText)

	grid := symbolNamed(t, res, "grid").(*Variable)
	require.True(t, grid.Type.IsArray())
	assert.Equal(t, 2, grid.Type.Dim)
	require.NotNil(t, grid.Type.Elem)
	require.True(t, grid.Type.Elem.IsArray())
	assert.Equal(t, 3, grid.Type.Elem.Dim)
	assert.Equal(t, "u8", grid.Type.Elem.Elem.Name)

	// Unresolvable dimensions keep their symbolic spelling.
	dynamic := symbolNamed(t, res, "dynamic").(*Variable)
	assert.False(t, dynamic.Type.DimKnown)
	assert.Equal(t, "count", dynamic.Type.DimText)
}

func TestResolveStringType(t *testing.T) {
	res := resolveSource(t, "string<32> name;\n")
	require.Empty(t, res.Errors)

	v := symbolNamed(t, res, "name").(*Variable)
	assert.Equal(t, TypeString, v.Type.Kind)
	// Declared capacity plus one terminator slot.
	assert.Equal(t, 33, v.Type.Capacity)
}

func TestResolveBitmap(t *testing.T) {
	src := `
bitmap8 Flags {
    ready,
    fault,
    mode:2,
    depth:4,
}
`
	res := resolveSource(t, src)
	require.Empty(t, res.Errors)

	bm := symbolNamed(t, res, "Flags").(*Bitmap)
	assert.Equal(t, "bitmap", bm.Kind())
	assert.Equal(t, 8, bm.Width)
	require.Len(t, bm.Fields, 4)

	want := []struct {
		name   string
		offset int
		bits   int
	}{
		{"Flags_ready", 0, 1},
		{"Flags_fault", 1, 1},
		{"Flags_mode", 2, 2},
		{"Flags_depth", 4, 4},
	}
	for i, w := range want {
		f := bm.Fields[i]
		assert.Equal(t, w.name, f.Name())
		assert.Equal(t, w.offset, f.Offset)
		assert.Equal(t, w.bits, f.Bits)
		assert.Equal(t, "Flags", f.BitmapName)
	}

	// Fields are standalone symbols too.
	field := symbolNamed(t, res, "Flags_mode").(*BitmapField)
	assert.Equal(t, "bitmap-field", field.Kind())
	assert.Equal(t, 2, field.Offset)
}

func TestResolveBitmapSingleBits(t *testing.T) {
	src := `
bitmap8 Pins {
    p0, p1, p2, p3, p4, p5, p6, p7,
}
`
	res := resolveSource(t, src)
	require.Empty(t, res.Errors)

	bm := symbolNamed(t, res, "Pins").(*Bitmap)
	require.Len(t, bm.Fields, 8)
	for i, f := range bm.Fields {
		assert.Equal(t, i, f.Offset)
		assert.Equal(t, 1, f.Bits)
	}
}

func TestBitmapWidthMismatch(t *testing.T) {
	src := `
bitmap8 Bad {
    a:2,
    b:2,
}
u8 survivor;
`
	res := resolveSource(t, src)
	require.Len(t, res.Errors, 1)

	var werr *BitmapWidthError
	require.ErrorAs(t, res.Errors[0], &werr)
	assert.Equal(t, "Bad", werr.Bitmap)
	assert.Equal(t, 8, werr.Declared)
	assert.Equal(t, 4, werr.Sum)
	assert.Contains(t, werr.Error(), "8")
	assert.Contains(t, werr.Error(), "4")

	// Only the bad declaration is skipped.
	for _, sym := range res.Symbols {
		assert.NotEqual(t, "Bad", sym.Name())
	}
	symbolNamed(t, res, "survivor")
}

func TestRegisterBeforeBitmap(t *testing.T) {
	src := `
register GPIO : u32 @ 0x42004000 {
    pins : PortBits rw;
    raw : u32 ro;
}
bitmap32 PortBits {
    data:31,
    parity,
}
`
	res := resolveSource(t, src)
	require.Empty(t, res.Errors)

	reg := symbolNamed(t, res, "GPIO").(*Register)
	assert.Equal(t, "register", reg.Kind())
	assert.Equal(t, "0x42004000", reg.Address)
	require.Len(t, reg.Members, 2)

	// Bitmaps resolve before registers, so the later declaration is
	// already known here.
	pins := reg.Members[0]
	assert.Equal(t, "GPIO_pins", pins.Name())
	assert.True(t, pins.IsBitmap)
	assert.Equal(t, ast.AccessReadWrite, pins.Access)

	raw := reg.Members[1]
	assert.False(t, raw.IsBitmap)
	assert.Equal(t, ast.AccessReadOnly, raw.Access)
}

func TestRegisterAddressVerbatim(t *testing.T) {
	src := `
const u32 BASE <- 0x40000000;
register CTRL : u32 @ BASE + 0x40;
`
	res := resolveSource(t, src)
	require.Empty(t, res.Errors)

	reg := symbolNamed(t, res, "CTRL").(*Register)
	assert.Equal(t, "BASE + 0x40", reg.Address)
	assert.Empty(t, reg.Members)
}

func TestScopedRegisterMembers(t *testing.T) {
	src := `
scope Port {
    bitmap16 Status {
        busy,
        level:15,
    }
    register STAT : u16 @ 0x40002000 {
        status : Status ro;
        clear : u16 w1c;
    }
}
`
	res := resolveSource(t, src)
	require.Empty(t, res.Errors)

	reg := symbolNamed(t, res, "Port_STAT").(*Register)
	require.Len(t, reg.Members, 2)
	assert.Equal(t, "Port_STAT_status", reg.Members[0].Name())
	assert.True(t, reg.Members[0].IsBitmap)
	assert.Equal(t, ast.AccessWrite1Clear, reg.Members[1].Access)
}

func TestResolveScopeVisibility(t *testing.T) {
	src := `
scope Motor {
    u8 speed <- 0;
    public u8 limit <- 100;
    private void tune() {
    }
    void tick() {
        this.speed <- this.speed + 1;
    }
    struct Config {
        u16 rate;
    }
}
`
	registry := NewRegistry()
	res := resolveConfig(t, src, &Config{Registry: registry})
	require.Empty(t, res.Errors)

	scopeSym := symbolNamed(t, res, "Motor").(*ScopeSymbol)
	assert.Equal(t, "scope", scopeSym.Kind())
	assert.True(t, scopeSym.Exported())

	// Variables default private, functions and types default public.
	assert.False(t, symbolNamed(t, res, "Motor_speed").Exported())
	assert.True(t, symbolNamed(t, res, "Motor_limit").Exported())
	assert.False(t, symbolNamed(t, res, "Motor_tune").Exported())
	assert.True(t, symbolNamed(t, res, "Motor_tick").Exported())
	assert.True(t, symbolNamed(t, res, "Motor_Config").Exported())

	motor, ok := registry.Scope("Motor")
	require.True(t, ok)
	public, known := motor.MemberPublic("speed")
	assert.True(t, known)
	assert.False(t, public)
	public, known = motor.MemberPublic("tick")
	assert.True(t, known)
	assert.True(t, public)
	_, known = motor.MemberPublic("absent")
	assert.False(t, known)
}

func TestResolveFunction(t *testing.T) {
	src := `
scope Motor {
    u8 clamp(u8 value, u8 table[]) {
        return value;
    }
}
`
	registry := NewRegistry()
	res := resolveConfig(t, src, &Config{Registry: registry})
	require.Empty(t, res.Errors)

	fn := symbolNamed(t, res, "Motor_clamp").(*Function)
	assert.Equal(t, "function", fn.Kind())
	assert.Equal(t, "u8 Motor_clamp(u8, u8[])", fn.Signature)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "value", fn.Params[0].Name)
	assert.False(t, fn.Params[0].IsArray)
	assert.True(t, fn.Params[1].IsArray)
	require.NotNil(t, fn.Body)

	motor, ok := registry.Scope("Motor")
	require.True(t, ok)
	resolution, ok := registry.ResolveFunction("clamp", motor)
	require.True(t, ok)
	assert.Equal(t, "u8", resolution.ReturnType.Name)
	assert.Same(t, fn.Body, resolution.Body)

	_, ok = registry.ResolveFunction("missing", motor)
	assert.False(t, ok)
}

func TestResolveEnum(t *testing.T) {
	src := `
scope Protocol {
    enum Status {
        IDLE,
        ACTIVE,
        FAILED <- 10,
    }
}
`
	res := resolveSource(t, src)
	require.Empty(t, res.Errors)

	enum := symbolNamed(t, res, "Protocol_Status").(*Enum)
	require.Len(t, enum.Members, 3)

	idle := enum.Members[0]
	assert.Equal(t, "Protocol_IDLE", idle.Name())
	assert.Equal(t, "Protocol_Status", idle.EnumName)
	assert.Equal(t, 0, idle.Index)
	assert.Equal(t, "", idle.Value)

	failed := enum.Members[2]
	assert.Equal(t, "Protocol_FAILED", failed.Name())
	assert.Equal(t, 2, failed.Index)
	assert.Equal(t, "10", failed.Value)

	// Members are standalone symbols.
	symbolNamed(t, res, "Protocol_ACTIVE")
}

func TestReservedFieldWarnings(t *testing.T) {
	src := `
struct Packet {
    u8 length;
    u8 switch;
    u8 static;
}
`
	res := resolveSource(t, src)
	require.Empty(t, res.Errors)
	require.Len(t, res.Warnings, 2)

	assert.Contains(t, res.Warnings[0].Message, "Packet")
	assert.Contains(t, res.Warnings[0].Message, "switch")
	assert.Contains(t, res.Warnings[1].Message, "static")
	assert.NotNil(t, res.Warnings[0].Source)

	st := symbolNamed(t, res, "Packet").(*Struct)
	require.Len(t, st.Fields, 3)
}

func TestScopedTypeReferences(t *testing.T) {
	src := `
Display.Pixel cursor;
scope Display {
    struct Pixel {
        u16 x;
        u16 y;
    }
    this.Pixel origin;
}
`
	res := resolveSource(t, src)
	require.Empty(t, res.Errors)

	cursor := symbolNamed(t, res, "cursor").(*Variable)
	assert.Equal(t, TypeUser, cursor.Type.Kind)
	assert.Equal(t, "Display_Pixel", cursor.Type.Name)

	origin := symbolNamed(t, res, "Display_origin").(*Variable)
	assert.Equal(t, "Display_Pixel", origin.Type.Name)
}

func TestResolveGlobalQualifier(t *testing.T) {
	src := `
struct Point {
    u16 x;
}
scope Map {
    global.Point marker;
}
`
	res := resolveSource(t, src)
	require.Empty(t, res.Errors)

	marker := symbolNamed(t, res, "Map_marker").(*Variable)
	assert.Equal(t, "Point", marker.Type.Name)
}

func TestRegistryScopes(t *testing.T) {
	registry := NewRegistry()

	a := registry.GetOrCreateScope("Sensors")
	b := registry.GetOrCreateScope("Sensors")
	assert.Same(t, a, b)
	assert.Same(t, registry.GlobalScope(), registry.GetOrCreateScope(""))
	assert.Equal(t, []string{"Sensors"}, registry.ScopeNames())
	assert.False(t, a.IsGlobal())
	assert.True(t, registry.GlobalScope().IsGlobal())

	registry.Reset()
	_, ok := registry.Scope("Sensors")
	assert.False(t, ok)
	assert.Empty(t, registry.ScopeNames())
}

func TestConvertNamespace(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterCppNamespace("Wire.Driver")

	tests := []struct {
		scope  string
		member string
		want   string
	}{
		{"", "begin", "begin"},
		{"Motor", "tick", "Motor_tick"},
		{"Wire.Driver", "begin", "Wire::Driver::begin"},
		{"Wire.Other", "begin", "Wire_Other_begin"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, registry.ConvertNamespace(test.scope, test.member))
	}
}

func TestMangle(t *testing.T) {
	assert.Equal(t, "Motor_speed", Mangle("Motor", "speed"))
	assert.Equal(t, "speed", Mangle("", "speed"))
	assert.Equal(t, "A_B_C", MangleParts("A", "B", "C"))
	assert.Equal(t, "B_C", MangleParts("", "B", "C"))
}

func TestSmallPrimitive(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"u8", true},
		{"u16", true},
		{"u32", true},
		{"u64", true},
		{"i8", true},
		{"i64", true},
		{"bool", true},
		{"f32", false},
		{"f64", false},
		{"void", false},
	}
	for _, test := range tests {
		prim, ok := Primitive(test.name)
		require.True(t, ok, test.name)
		assert.Equal(t, test.want, prim.SmallPrimitive(), test.name)
	}

	assert.False(t, UserType("Motor_Config").SmallPrimitive())
	array := TypeDesc{Kind: TypeArray, Name: "u8"}
	assert.False(t, array.SmallPrimitive())
}

func TestResolveSharedRegistry(t *testing.T) {
	registry := NewRegistry()
	first := resolveConfig(t, "scope Motor {\n    void tick() {\n    }\n}\n", &Config{Registry: registry})
	require.Empty(t, first.Errors)

	// A second file sees the first file's scope through the shared registry.
	second := resolveConfig(t, "scope Motor {\n    u8 speed <- 0;\n}\n", &Config{Registry: registry})
	require.Empty(t, second.Errors)

	motor, ok := registry.Scope("Motor")
	require.True(t, ok)
	_, ok = motor.Function("tick")
	assert.True(t, ok)
	_, ok = motor.Variable("speed")
	assert.True(t, ok)
	assert.Equal(t, []string{"Motor"}, registry.ScopeNames())
}
