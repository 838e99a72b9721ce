package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmsym/decoder/linker"
)

func TestTryJumpToSection_FindsTarget(t *testing.T) {
	data := join(preamble,
		[]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00}, // type section
		[]byte{0x03, 0x02, 0x01, 0x00},             // function section
	)
	r, found, err := tryJumpToSection(data, SectionFunction)
	require.NoError(t, err)
	require.True(t, found)
	count, _, err := r.ReadUnsignedInt32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)
}

func TestTryJumpToSection_NotFound(t *testing.T) {
	data := join(preamble, []byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00})
	_, found, err := tryJumpToSection(data, SectionGlobal)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResetGlobalState_RewritesConstantGlobal(t *testing.T) {
	globals := linker.NewFakeGlobals(1)
	ctx := NewContext("m", nil, globals, nil)

	data := join(preamble,
		[]byte{0x06, 0x06, 0x01, 0x7f, 0x00, 0x41, 0x07, 0x0b}, // global i32, init i32.const 7
	)
	require.NoError(t, Decode(ctx, data))
	assert.Equal(t, int64(7), globals.LoadAsLong(0))

	globals.StoreLong(0, 99) // simulate external mutation (won't happen for immutable, but exercise rewrite)
	require.NoError(t, resetGlobalState(ctx))
	assert.Equal(t, int64(7), globals.LoadAsLong(0))
}

func TestResetGlobalState_RejectsMutableDependency(t *testing.T) {
	globals := linker.NewFakeGlobals(2)
	ctx := NewContext("m", nil, globals, nil)

	data := join(preamble,
		// global 0: i32 mutable, init 1
		[]byte{0x06, 0x0b, 0x02, 0x7f, 0x01, 0x41, 0x01, 0x0b, 0x7f, 0x00, 0x23, 0x00, 0x0b},
	)
	require.NoError(t, Decode(ctx, data))
	err := resetGlobalState(ctx)
	require.Error(t, err)
}

// TestResetGlobalState_RejectsMutableImportDependency exercises supplemented
// feature 4: the mutability check for a global.get dependency on an
// imported global must come from re-reading the import section, not from
// cached SymbolTable state.
func TestResetGlobalState_RejectsMutableImportDependency(t *testing.T) {
	globals := linker.NewFakeGlobals(2)
	ctx := NewContext("m", nil, globals, nil)

	data := join(preamble,
		// import section: 1 import "env"."g" global i32 mutable
		[]byte{0x02, 0x0a, 0x01, 0x03, 'e', 'n', 'v', 0x01, 'g', 0x03, 0x7f, 0x01},
		// global section: 1 global i32 immutable, init = global.get 0
		[]byte{0x06, 0x06, 0x01, 0x7f, 0x00, 0x23, 0x00, 0x0b},
	)
	require.NoError(t, Decode(ctx, data))
	err := resetGlobalState(ctx)
	require.Error(t, err)
}

func TestResetMemoryState_ZeroesThenReplaysData(t *testing.T) {
	mem := linker.NewFakeMemory(16)
	ctx := NewContext("m", nil, nil, mem)

	data := join(preamble,
		[]byte{0x05, 0x03, 0x01, 0x00, 0x01}, // memory section: 1 memory, limits {min:1}
		[]byte{0x0b, 0x07, 0x01, 0x00, 0x41, 0x00, 0x0b, 0x01, 0xAB}, // data segment: mem 0, offset 0, bytes [0xAB]
	)
	require.NoError(t, Decode(ctx, data))

	mem.StoreI32_8(0, 0xFF) // simulate runtime mutation
	require.NoError(t, resetMemoryState(ctx, true))
	assert.Equal(t, byte(0xAB), mem.Bytes[0])
}
