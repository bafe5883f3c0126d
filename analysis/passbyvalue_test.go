package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaustill/c-next-sub006/parser"
)

func analyzeSource(t *testing.T, source string, state *CrossFileState) PassByValueSet {
	t.Helper()
	prog, err := parser.ParseString("test.cn", source)
	require.NoError(t, err)
	res := Resolve(prog, nil)
	require.Empty(t, res.Errors)
	return NewPassByValueAnalyzer().Analyze(res.Symbols, state)
}

func TestPassByValueBasics(t *testing.T) {
	src := `
void show(u8 value, u32 count) {
    u8 copy <- value;
}
void bump(u8 value) {
    value <- value + 1;
}
void fill(u8 data[], u8 seed) {
    data[0] <- seed;
}
void scale(f32 factor) {
    f32 local <- factor;
}
`
	set := analyzeSource(t, src, nil)

	// Unmodified small primitives pass by value.
	assert.True(t, set.PassByValue("show", "value"))
	assert.True(t, set.PassByValue("show", "count"))

	// A direct write disqualifies.
	assert.False(t, set.PassByValue("bump", "value"))

	// Arrays always pass by reference.
	assert.False(t, set.PassByValue("fill", "data"))
	assert.True(t, set.PassByValue("fill", "seed"))

	// Floats are outside the small-primitive set.
	assert.False(t, set.PassByValue("scale", "factor"))
}

func TestPassByValueSubscripts(t *testing.T) {
	src := `
bool pick(u32 word, u8 i) {
    return word[i];
}
u8 extract(u32 status, u8 start) {
    return status[start, 4];
}
void set(u32 flags, u8 bit) {
    flags[bit] <- 1;
}
`
	set := analyzeSource(t, src, nil)

	// A single subscript addresses one bit in place, which needs the
	// original storage.
	assert.False(t, set.PassByValue("pick", "word"))
	assert.True(t, set.PassByValue("pick", "i"))

	// A two-index subscript extracts a bit run into a fresh value and
	// leaves the operand eligible.
	assert.True(t, set.PassByValue("extract", "status"))
	assert.True(t, set.PassByValue("extract", "start"))

	// Writing through a subscript both modifies and subscripts.
	assert.False(t, set.PassByValue("set", "flags"))
	assert.True(t, set.PassByValue("set", "bit"))
}

func TestPassByValuePropagation(t *testing.T) {
	src := `
void outer(u8 thing) {
    middle(thing);
}
void middle(u8 item) {
    writer(item);
}
void writer(u8 target) {
    target <- 1;
}
void caller(u8 x) {
    reader(x);
}
void reader(u8 item) {
    u8 copy <- item;
}
`
	set := analyzeSource(t, src, nil)

	// Modification reaches callers through the call graph regardless of
	// declaration order.
	assert.False(t, set.PassByValue("writer", "target"))
	assert.False(t, set.PassByValue("middle", "item"))
	assert.False(t, set.PassByValue("outer", "thing"))

	// A read-only chain stays eligible.
	assert.True(t, set.PassByValue("reader", "item"))
	assert.True(t, set.PassByValue("caller", "x"))
}

func TestPassByValueRecursion(t *testing.T) {
	src := `
void ping(u8 n) {
    pong(n);
}
void pong(u8 n) {
    ping(n);
    n <- n - 1;
}
`
	set := analyzeSource(t, src, nil)

	assert.False(t, set.PassByValue("pong", "n"))
	assert.False(t, set.PassByValue("ping", "n"))
}

func TestPassByValueScopedCalls(t *testing.T) {
	src := `
scope Motor {
    void poke(u8 target) {
        target <- 9;
    }
    void direct(u8 a) {
        poke(a);
    }
    void qualified(u8 b) {
        this.poke(b);
    }
}
scope Driver {
    void run(u8 v) {
        Motor.poke(v);
    }
    void touch(u8 p) {
        drain(p);
    }
}
void drain(u8 level) {
    level <- 0;
}
`
	set := analyzeSource(t, src, nil)

	assert.False(t, set.PassByValue("Motor_poke", "target"))

	// A plain call inside a scope binds to the scope-local function.
	assert.False(t, set.PassByValue("Motor_direct", "a"))
	assert.False(t, set.PassByValue("Motor_qualified", "b"))

	// Dotted calls cross scopes; plain calls with no scope-local match
	// fall back to the global function.
	assert.False(t, set.PassByValue("Driver_run", "v"))
	assert.False(t, set.PassByValue("Driver_touch", "p"))
}

func TestPassByValueArgumentForms(t *testing.T) {
	src := `
void sink(u8 v) {
    v <- 1;
}
void caller(u8 data[], u8 x) {
    sink(data[0]);
    sink(x + 1);
}
`
	set := analyzeSource(t, src, nil)

	// Only a bare parameter argument carries the callee's modification
	// back; element reads and arithmetic copies do not.
	assert.True(t, set.PassByValue("caller", "x"))
	assert.False(t, set.PassByValue("caller", "data"))
}

func TestPassByValueCrossFile(t *testing.T) {
	state := NewCrossFileState()

	first := `
void store(u32 slot) {
    slot <- 42;
}
void render(u32 view) {
    u32 copy <- view;
}
`
	_ = analyzeSource(t, first, state)
	require.Equal(t, []string{"slot"}, state.Params["store"])
	assert.True(t, state.Modified["store"]["slot"])
	assert.Empty(t, state.Modified["render"])

	second := `
void use(u32 n) {
    store(n);
}
void show(u32 m) {
    render(m);
}
`
	set := analyzeSource(t, second, state)

	// The callee lives in the first file; its modification still reaches
	// this caller through the shared state.
	assert.False(t, set.PassByValue("use", "n"))
	assert.True(t, set.PassByValue("show", "m"))

	// Decisions cover only the current file's functions.
	_, ok := set["store"]
	assert.False(t, ok)
}

func TestPassByValueAnalyzerReuse(t *testing.T) {
	writer := `
void store(u32 slot) {
    slot <- 42;
}
`
	caller := `
void use(u32 n) {
    store(n);
}
`
	analyzer := NewPassByValueAnalyzer()

	prog, err := parser.ParseString("a.cn", writer)
	require.NoError(t, err)
	analyzer.Analyze(Resolve(prog, nil).Symbols, nil)

	// Without shared state the second run starts clean and cannot see the
	// first file's functions.
	prog, err = parser.ParseString("b.cn", caller)
	require.NoError(t, err)
	set := analyzer.Analyze(Resolve(prog, nil).Symbols, nil)
	assert.True(t, set.PassByValue("use", "n"))
}
