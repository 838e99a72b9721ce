package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmsym/decoder/symtab"
	"github.com/wasmsym/decoder/wasmerr"
)

var preamble = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func join(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Scenario 1: a module with only the preamble decodes successfully and
// produces an empty symbol table.
func TestDecode_PreambleOnly(t *testing.T) {
	ctx := newTestContext()
	err := Decode(ctx, preamble)
	require.NoError(t, err)
	assert.Empty(t, ctx.SymbolTable.Functions)
	assert.Empty(t, ctx.SymbolTable.FunctionTypes)
}

// Scenario 2: a bad version is rejected.
func TestDecode_BadVersionRejected(t *testing.T) {
	ctx := newTestContext()
	bad := []byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00}
	err := Decode(ctx, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, wasmerr.ErrMalformed)
}

// Scenario 3: a type section with one () -> () signature.
func TestDecode_TypeSectionOnly(t *testing.T) {
	ctx := newTestContext()
	data := join(preamble, []byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00})
	require.NoError(t, Decode(ctx, data))
	require.Len(t, ctx.SymbolTable.FunctionTypes, 1)
	assert.Equal(t, "() -> ()", ctx.SymbolTable.FunctionTypes[0].String())
}

// Scenario 4: one declared function of type (i32)->() with an empty body.
func TestDecode_DeclaredFunctionEmptyBody(t *testing.T) {
	ctx := newTestContext()
	data := join(preamble,
		[]byte{0x01, 0x05, 0x01, 0x60, 0x01, 0x7f, 0x00}, // type: (i32) -> ()
		[]byte{0x03, 0x02, 0x01, 0x00},                   // function section: 1 entry, type 0
		[]byte{0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b},        // code section: 1 entry, size 2, 0 locals, end
	)
	require.NoError(t, Decode(ctx, data))
	require.Len(t, ctx.SymbolTable.Functions, 1)
	fn := ctx.SymbolTable.Functions[0]
	require.NotNil(t, fn.Code)
	assert.Equal(t, 0, fn.Code.MaxStackSize)
	assert.Empty(t, fn.Code.Body.Children)
}

// Scenario 5: a function computing i32.const 7 then end.
func TestDecode_I32ConstComputesLongConstant(t *testing.T) {
	ctx := newTestContext()
	data := join(preamble,
		[]byte{0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f}, // type: () -> i32
		[]byte{0x03, 0x02, 0x01, 0x00},
		[]byte{0x0a, 0x06, 0x01, 0x04, 0x00, 0x41, 0x07, 0x0b}, // 0 locals; i32.const 7; end
	)
	require.NoError(t, Decode(ctx, data))
	fn := ctx.SymbolTable.Functions[0]
	assert.Equal(t, []int64{7}, fn.Code.LongConstants)
	assert.Equal(t, 1, fn.Code.MaxStackSize)
	assert.Equal(t, []byte{1}, fn.Code.ByteConstants)
}

// Scenario 6: an invalid limits prefix is rejected.
func TestDecode_InvalidLimitsPrefixRejected(t *testing.T) {
	ctx := newTestContext()
	// table section: 1 table, elem type funcref, limits prefix 0x02 (invalid)
	data := join(preamble, []byte{0x04, 0x04, 0x01, 0x70, 0x02, 0x00})
	err := Decode(ctx, data)
	require.Error(t, err)
	var malformed *wasmerr.MalformedError
	require.ErrorAs(t, err, &malformed)
}

// Scenario 7: two tables declared in one section is rejected.
func TestDecode_TwoTablesRejected(t *testing.T) {
	ctx := newTestContext()
	data := join(preamble, []byte{0x04, 0x07, 0x02, 0x70, 0x00, 0x01, 0x70, 0x00, 0x01})
	err := Decode(ctx, data)
	require.Error(t, err)
}

// Scenario 8: a global initialized by global.get of an unresolved imported
// global is recorded as UNRESOLVED_GET with a back-reference, value slot 0.
func TestDecode_UnresolvedImportedGlobalBackref(t *testing.T) {
	ctx := newTestContext()
	data := join(preamble,
		// import section: 1 import "env"."g" global i32 immutable
		[]byte{0x02, 0x0a, 0x01, 0x03, 'e', 'n', 'v', 0x01, 'g', 0x03, 0x7f, 0x00},
		// global section: 1 global, i32 immutable, init = global.get 0
		[]byte{0x06, 0x06, 0x01, 0x7f, 0x00, 0x23, 0x00, 0x0b},
	)
	require.NoError(t, Decode(ctx, data))
	require.Equal(t, uint32(2), ctx.SymbolTable.MaxGlobalIndex())
	assert.Equal(t, symtab.UnresolvedGet, ctx.SymbolTable.GlobalResolutionOf(1))
	assert.False(t, ctx.SymbolTable.IsGlobalResolved(1))
	backref, ok := ctx.SymbolTable.UnresolvedGlobalBackrefs[1]
	require.True(t, ok)
	assert.Equal(t, uint32(0), backref)
}

// Boundary: LEB128 at exactly 5 bytes (32-bit) is accepted.
func TestDecode_Leb128FiveByteBoundaryAccepted(t *testing.T) {
	ctx := newTestContext()
	// function section declaring a count of 0 via a 5-byte LEB128 encoding
	// of zero (0x80 0x80 0x80 0x80 0x00), padded with trailing continuation
	// bits that are all zero.
	data := join(preamble, []byte{0x03, 0x05, 0x80, 0x80, 0x80, 0x80, 0x00})
	require.NoError(t, Decode(ctx, data))
	assert.Empty(t, ctx.SymbolTable.Functions)
}
