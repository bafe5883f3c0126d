package cparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseHeader(t *testing.T, src string) *Header {
	t.Helper()
	hdr, err := Parse("test.h", []byte(src))
	require.NoError(t, err)
	return hdr
}

func typedefNamed(t *testing.T, hdr *Header, name string) *Typedef {
	t.Helper()
	for _, td := range hdr.Typedefs {
		if td.Name == name {
			return td
		}
	}
	t.Fatalf("no typedef %q in header", name)
	return nil
}

func functionNamed(t *testing.T, hdr *Header, name string) *Function {
	t.Helper()
	for _, fn := range hdr.Functions {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("no function %q in header", name)
	return nil
}

func variableNamed(t *testing.T, hdr *Header, name string) *Variable {
	t.Helper()
	for _, v := range hdr.Variables {
		if v.Name == name {
			return v
		}
	}
	t.Fatalf("no variable %q in header", name)
	return nil
}

func TestParseDefines(t *testing.T) {
	hdr := parseHeader(t, `
#ifndef TEST_H
#define TEST_H

#define BUF_SIZE 8
#define FLAG_MASK 0x0F
#define TOTAL (BUF_SIZE * 2)
#define WIDE \
    16
#define NAME(x) ((x) + 1)
#define VERSION_STR "1.0"

#endif
`)
	bodies := make(map[string]string)
	for _, d := range hdr.Defines {
		bodies[d.Name] = d.Body
	}
	assert.Equal(t, "8", bodies["BUF_SIZE"])
	assert.Equal(t, "0x0F", bodies["FLAG_MASK"])
	assert.Equal(t, "(BUF_SIZE * 2)", bodies["TOTAL"])
	assert.Equal(t, "16", bodies["WIDE"])
	assert.Equal(t, `"1.0"`, bodies["VERSION_STR"])
	if _, ok := bodies["TEST_H"]; assert.True(t, ok, "include guard should be recorded") {
		assert.Equal(t, "", bodies["TEST_H"])
	}
	_, ok := bodies["NAME"]
	assert.False(t, ok, "function-like macros are not constants")
}

func TestParseIncludes(t *testing.T) {
	hdr := parseHeader(t, `
#include <stdint.h>
#include "local/util.h"
`)
	require.Len(t, hdr.Includes, 2)
	assert.Equal(t, "stdint.h", hdr.Includes[0].Target)
	assert.True(t, hdr.Includes[0].System)
	assert.Equal(t, "local/util.h", hdr.Includes[1].Target)
	assert.False(t, hdr.Includes[1].System)
}

func TestParseStructTypedef(t *testing.T) {
	hdr := parseHeader(t, `
typedef struct rect_t {
    int32_t x;
    int32_t y;
} rect_t;
`)
	td := typedefNamed(t, hdr, "rect_t")
	require.NotNil(t, td.Body)
	require.Len(t, td.Body.Fields, 2)
	assert.Equal(t, "x", td.Body.Fields[0].Name)
	assert.Equal(t, "int32_t", td.Body.Fields[0].Type.Base)
	assert.Equal(t, "y", td.Body.Fields[1].Name)

	body, ok := hdr.StructByTag("rect_t")
	require.True(t, ok)
	assert.Same(t, td.Body, body)
}

func TestParseAnonymousStructTypedef(t *testing.T) {
	hdr := parseHeader(t, `
#define BUF_SIZE 8
typedef struct {
    uint8_t len;
    uint8_t data[BUF_SIZE];
} msg_t;
`)
	td := typedefNamed(t, hdr, "msg_t")
	require.NotNil(t, td.Body)
	assert.Equal(t, "", td.Body.Tag)
	require.Len(t, td.Body.Fields, 2)
	data := td.Body.Fields[1]
	assert.True(t, data.Array)
	assert.Equal(t, "BUF_SIZE", data.ArraySize)
}

func TestParseForwardTypedef(t *testing.T) {
	hdr := parseHeader(t, `
typedef struct _point_t point_t;

point_t make_point(int32_t x, int32_t y);

struct _point_t {
    int32_t x;
    int32_t y;
};
`)
	td := typedefNamed(t, hdr, "point_t")
	assert.Nil(t, td.Body)
	assert.Equal(t, "_point_t", td.Type.Tag)
	assert.True(t, td.Type.Struct)

	body, ok := hdr.StructByTag("_point_t")
	require.True(t, ok)
	assert.Len(t, body.Fields, 2)
}

func TestParsePointerTypedef(t *testing.T) {
	hdr := parseHeader(t, `
typedef struct spi_device_t *spi_device_handle_t;
`)
	td := typedefNamed(t, hdr, "spi_device_handle_t")
	assert.Nil(t, td.Body)
	assert.Equal(t, 1, td.Type.Pointers)
	assert.Equal(t, "spi_device_t", td.Type.Tag)
}

func TestParseFunctionPointerTypedef(t *testing.T) {
	hdr := parseHeader(t, `
typedef void (*flush_cb_t)(widget_t *, const rect_t *, uint8_t *);
typedef void (*ConfigCallback)(SimpleConfig cfg);
`)
	flush := typedefNamed(t, hdr, "flush_cb_t")
	require.NotNil(t, flush.Func)
	assert.Equal(t, "void", flush.Func.Return.Base)
	require.Len(t, flush.Func.Params, 3)
	assert.Equal(t, "", flush.Func.Params[0].Name)
	assert.Equal(t, "widget_t", flush.Func.Params[0].Type.Base)
	assert.Equal(t, 1, flush.Func.Params[0].Type.Pointers)
	assert.True(t, flush.Func.Params[1].Type.Const)

	cb := typedefNamed(t, hdr, "ConfigCallback")
	require.NotNil(t, cb.Func)
	require.Len(t, cb.Func.Params, 1)
	assert.Equal(t, "cfg", cb.Func.Params[0].Name)
	assert.Equal(t, "SimpleConfig", cb.Func.Params[0].Type.Base)
}

func TestParseEnums(t *testing.T) {
	hdr := parseHeader(t, `
typedef enum {
    COLOR_RED = 1,
    COLOR_GREEN,
    COLOR_BLUE = (1 << 4),
} color_t;

enum Direction { NORTH, SOUTH };
`)
	td := typedefNamed(t, hdr, "color_t")
	require.NotNil(t, td.Enum)
	require.Len(t, td.Enum.Members, 3)
	assert.Equal(t, "COLOR_RED", td.Enum.Members[0].Name)
	assert.Equal(t, "1", td.Enum.Members[0].Value)
	assert.Equal(t, "", td.Enum.Members[1].Value)
	assert.Equal(t, "(1 << 4)", td.Enum.Members[2].Value)

	require.Len(t, hdr.Enums, 1)
	assert.Equal(t, "Direction", hdr.Enums[0].Tag)
	require.Len(t, hdr.Enums[0].Members, 2)
	assert.Equal(t, "SOUTH", hdr.Enums[0].Members[1].Name)
}

func TestParseFunctions(t *testing.T) {
	hdr := parseHeader(t, `
void pinMode(uint8_t pin, uint8_t mode);
unsigned long millis(void);
esp_err_t spi_bus_add_device(spi_host_device_t host_id,
                             const spi_device_interface_config_t *dev_config,
                             spi_device_handle_t *handle);
int log_printf(const char *fmt, ...);
`)
	pinMode := functionNamed(t, hdr, "pinMode")
	require.Len(t, pinMode.Params, 2)
	assert.Equal(t, "pin", pinMode.Params[0].Name)
	assert.Equal(t, "uint8_t", pinMode.Params[0].Type.Base)
	assert.Equal(t, "void", pinMode.Return.Base)

	millis := functionNamed(t, hdr, "millis")
	assert.Equal(t, "unsigned long", millis.Return.Base)
	assert.Empty(t, millis.Params)

	spi := functionNamed(t, hdr, "spi_bus_add_device")
	assert.Equal(t, "esp_err_t", spi.Return.Base)
	require.Len(t, spi.Params, 3)
	assert.Equal(t, "dev_config", spi.Params[1].Name)
	assert.True(t, spi.Params[1].Type.Const)
	assert.Equal(t, 1, spi.Params[1].Type.Pointers)

	logf := functionNamed(t, hdr, "log_printf")
	assert.True(t, logf.Variadic)
	require.Len(t, logf.Params, 1)
	assert.Equal(t, "fmt", logf.Params[0].Name)
}

func TestParseStaticInlineBody(t *testing.T) {
	hdr := parseHeader(t, `
static inline void fill_msg(msg_t* m) {
    m->len = 0;
    for (int i = 0; i < 4; i++) { m->data[i] = 0; }
}

uint16_t after_fn(void);
`)
	fill := functionNamed(t, hdr, "fill_msg")
	assert.True(t, fill.Static)
	assert.True(t, fill.Inline)
	require.Len(t, fill.Params, 1)
	assert.Equal(t, "m", fill.Params[0].Name)
	assert.Equal(t, 1, fill.Params[0].Type.Pointers)

	after := functionNamed(t, hdr, "after_fn")
	assert.Equal(t, "uint16_t", after.Return.Base)
}

func TestParseVariables(t *testing.T) {
	hdr := parseHeader(t, `
extern const font_t *font_ptr;
extern SerialClass Serial;
extern uint8_t lut[16];
`)
	font := variableNamed(t, hdr, "font_ptr")
	assert.True(t, font.Extern)
	assert.True(t, font.Type.Const)
	assert.Equal(t, 1, font.Type.Pointers)
	assert.Equal(t, "font_t", font.Type.Base)

	serial := variableNamed(t, hdr, "Serial")
	assert.Equal(t, "SerialClass", serial.Type.Base)

	lut := variableNamed(t, hdr, "lut")
	assert.True(t, lut.Array)
	assert.Equal(t, "16", lut.ArraySize)
}

func TestParseFuncPtrFields(t *testing.T) {
	hdr := parseHeader(t, `
typedef struct {
    void (*begin)(long baud);
    int (*available)(void);
    uint8_t mode;
} SerialClass;
`)
	td := typedefNamed(t, hdr, "SerialClass")
	require.NotNil(t, td.Body)
	require.Len(t, td.Body.Fields, 3)

	begin := td.Body.Fields[0]
	assert.Equal(t, "begin", begin.Name)
	require.NotNil(t, begin.Func)
	require.Len(t, begin.Func.Params, 1)
	assert.Equal(t, "baud", begin.Func.Params[0].Name)
	assert.Equal(t, "long", begin.Func.Params[0].Type.Base)

	available := td.Body.Fields[1]
	require.NotNil(t, available.Func)
	assert.Equal(t, "int", available.Func.Return.Base)
	assert.Empty(t, available.Func.Params)

	assert.Equal(t, "mode", td.Body.Fields[2].Name)
	assert.Nil(t, td.Body.Fields[2].Func)
}

func TestParseNestedAnonymous(t *testing.T) {
	hdr := parseHeader(t, `
typedef struct {
    int kind;
    union {
        struct {
            unsigned int flag_a: 1;
            unsigned int flag_b: 1;
            unsigned int level: 6;
        } bits;
        uint32_t raw;
    } u;
} wrapped_t;
`)
	td := typedefNamed(t, hdr, "wrapped_t")
	require.NotNil(t, td.Body)
	require.Len(t, td.Body.Fields, 2)

	u := td.Body.Fields[1]
	assert.Equal(t, "u", u.Name)
	require.NotNil(t, u.Anon)
	assert.True(t, u.Anon.Union)
	require.Len(t, u.Anon.Fields, 2)

	bits := u.Anon.Fields[0]
	assert.Equal(t, "bits", bits.Name)
	require.NotNil(t, bits.Anon)
	require.Len(t, bits.Anon.Fields, 3)
	assert.Equal(t, "flag_a", bits.Anon.Fields[0].Name)
	assert.Equal(t, 1, bits.Anon.Fields[0].Bits)
	assert.Equal(t, 6, bits.Anon.Fields[2].Bits)

	assert.Equal(t, "raw", u.Anon.Fields[1].Name)
}

func TestParseUnprototypedFunction(t *testing.T) {
	hdr := parseHeader(t, `
custom_t value;
legacy_fn(void);
`)
	v := variableNamed(t, hdr, "value")
	assert.Equal(t, "custom_t", v.Type.Base)

	fn := functionNamed(t, hdr, "legacy_fn")
	assert.Equal(t, "int", fn.Return.Base)
	assert.Empty(t, fn.Params)
}

func TestParseExternC(t *testing.T) {
	hdr := parseHeader(t, `
#ifdef __cplusplus
extern "C" {
#endif

void api_init(void);
int api_read(uint8_t *buf, size_t len);

#ifdef __cplusplus
}
#endif
`)
	functionNamed(t, hdr, "api_init")
	read := functionNamed(t, hdr, "api_read")
	require.Len(t, read.Params, 2)
	assert.Equal(t, "len", read.Params[1].Name)
}

func TestParseSkipsUnknownConstructs(t *testing.T) {
	hdr := parseHeader(t, `
_Static_assert(sizeof(int) == 4, "int width");

__attribute__((packed)) struct packed_t { uint8_t a; };

void ok_fn(void);
`)
	functionNamed(t, hdr, "ok_fn")
	for _, fn := range hdr.Functions {
		assert.NotEqual(t, "_Static_assert", fn.Name)
	}
	_, ok := hdr.StructByTag("packed_t")
	assert.True(t, ok)
}

func TestParseCommentsIgnored(t *testing.T) {
	hdr := parseHeader(t, `
// line comment with struct keyword
/* block
   comment */
uint8_t real_var; /* trailing */ uint8_t second_var;
`)
	variableNamed(t, hdr, "real_var")
	variableNamed(t, hdr, "second_var")
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Type{Base: "uint8_t"}, "uint8_t"},
		{Type{Base: "uint8_t", Pointers: 1}, "uint8_t *"},
		{Type{Base: "char", Const: true, Pointers: 1}, "const char *"},
		{Type{Base: "struct rect_t", Struct: true, Tag: "rect_t"}, "struct rect_t"},
		{Type{Base: "void", Pointers: 2}, "void **"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.typ.String())
	}
}
