package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/symtab"
)

func newTestContext() *Context {
	return NewContext("test", nil, nil, nil)
}

func TestDecodeFunctionBody_EmptyVoid(t *testing.T) {
	r := reader.New([]byte{0x0b}) // end
	ctx := newTestContext()
	state := NewExecutionState(nil)

	node, err := decodeFunctionBody(ctx, r, state, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, state.MaxStackSize)
	assert.Equal(t, 1, node.EndOffset-node.StartOffset)
}

func TestDecodeBlock_LeavesDeclaredArityOnStack(t *testing.T) {
	// block (result i32) \n i32.const 7 \n end \n end
	r := reader.New([]byte{0x02, 0x7f, 0x41, 0x07, 0x0b, 0x0b})
	ctx := newTestContext()
	state := NewExecutionState(nil)

	_, err := decodeFunctionBody(ctx, r, state, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, state.StackSize)
	assert.Equal(t, []int64{7}, state.LongConstants)
}

func TestDecodeLoop_StatePointerCorrection(t *testing.T) {
	// loop (result i32) \n i32.const 1 \n i32.const 2 \n end \n end
	// Net effect inside the loop pushes two values, but the correction
	// forces the final depth to entry+arity regardless.
	r := reader.New([]byte{0x03, 0x7f, 0x41, 0x01, 0x41, 0x02, 0x0b, 0x0b})
	ctx := newTestContext()
	state := NewExecutionState(nil)

	_, err := decodeFunctionBody(ctx, r, state, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, state.StackSize)
	assert.Equal(t, 2, state.MaxStackSize) // the high-water mark still reflects what was actually decoded
}

func TestDecodeIf_WithElse(t *testing.T) {
	// i32.const 1 \n if (result i32) \n i32.const 2 \n else \n i32.const 3 \n end \n end
	r := reader.New([]byte{
		0x41, 0x01,
		0x04, 0x7f,
		0x41, 0x02,
		0x05,
		0x41, 0x03,
		0x0b,
		0x0b,
	})
	ctx := newTestContext()
	state := NewExecutionState(nil)

	node, err := decodeFunctionBody(ctx, r, state, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, state.StackSize)
	require.Len(t, node.Children, 1)
	ifNode := node.Children[0]
	assert.Len(t, ifNode.Children, 1) // the synthesized/decoded false branch
}

func TestDecodeIf_WithoutElseVoid(t *testing.T) {
	// i32.const 1 \n if \n i32.const 2 \n drop \n end \n end  -- void if, no else
	r := reader.New([]byte{
		0x41, 0x01,
		0x04, 0x40,
		0x41, 0x02,
		0x1a,
		0x0b,
		0x0b,
	})
	ctx := newTestContext()
	state := NewExecutionState(nil)

	node, err := decodeFunctionBody(ctx, r, state, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, state.StackSize)
	require.Len(t, node.Children, 1)
	assert.Len(t, node.Children[0].Children, 1)
}

func TestDecodeIf_NonVoidWithoutElseRejected(t *testing.T) {
	// i32.const 1 \n if (result i32) \n i32.const 2 \n end \n end -- missing else
	r := reader.New([]byte{
		0x41, 0x01,
		0x04, 0x7f,
		0x41, 0x02,
		0x0b,
		0x0b,
	})
	ctx := newTestContext()
	state := NewExecutionState(nil)

	_, err := decodeFunctionBody(ctx, r, state, 1)
	require.Error(t, err)
}

func TestDecodeBr_EmitsLabelAndScope(t *testing.T) {
	// block \n br 0 \n end \n end
	r := reader.New([]byte{0x02, 0x40, 0x0c, 0x00, 0x0b, 0x0b})
	ctx := newTestContext()
	state := NewExecutionState(nil)

	_, err := decodeFunctionBody(ctx, r, state, 0)
	require.NoError(t, err)
	require.Len(t, state.LongConstants, 1)
	assert.Equal(t, int64(0), state.LongConstants[0])
	require.Len(t, state.ByteConstants, 1)
}

func TestDecodeBrTable_MismatchedArityRejected(t *testing.T) {
	// block (result i32) \n block \n i32.const 0 \n br_table 0 1 \n end \n unreachable \n end \n end
	// label 0 (inner block) has void continuation, label 1 (outer block)
	// has arity 1: mismatched, must be rejected.
	r := reader.New([]byte{
		0x02, 0x7f, // outer block, result i32
		0x02, 0x40, // inner block, void
		0x41, 0x00, // i32.const 0 (selector)
		0x0e, 0x01, 0x00, 0x01, // br_table [0] default=1
		0x0b, // end inner
		0x00, // unreachable (outer needs a value but this path is unreachable after br_table)
		0x0b, // end outer
		0x0b, // end function
	})
	ctx := newTestContext()
	state := NewExecutionState(nil)

	_, err := decodeFunctionBody(ctx, r, state, 1)
	require.Error(t, err)
}

func TestDecodeCall_PopsArgsPushesResults(t *testing.T) {
	ctx := newTestContext()
	ti := ctx.SymbolTable.AllocateFunctionType(1, 1)
	ctx.SymbolTable.RegisterFunctionTypeParameterType(ti, 0, symtab.ValueTypeI32)
	ctx.SymbolTable.RegisterFunctionTypeReturnType(ti, 0, symtab.ValueTypeI32)
	ctx.SymbolTable.DeclareFunction(ti)

	// i32.const 5 \n call 0 \n end
	r := reader.New([]byte{0x41, 0x05, 0x10, 0x00, 0x0b})
	state := NewExecutionState(nil)

	_, err := decodeFunctionBody(ctx, r, state, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, state.StackSize)
}

func TestDecodeCall_UnknownFunctionRejected(t *testing.T) {
	ctx := newTestContext()
	r := reader.New([]byte{0x10, 0x00, 0x0b})
	state := NewExecutionState(nil)

	_, err := decodeFunctionBody(ctx, r, state, 0)
	require.Error(t, err)
}

func TestDecodeLocalGetSet_BoundsCheck(t *testing.T) {
	ctx := newTestContext()
	state := NewExecutionState([]symtab.ValueType{symtab.ValueTypeI32})

	r := reader.New([]byte{0x20, 0x00, 0x1a, 0x0b}) // local.get 0, drop, end
	_, err := decodeFunctionBody(ctx, r, state, 0)
	require.NoError(t, err)

	state2 := NewExecutionState([]symtab.ValueType{symtab.ValueTypeI32})
	r2 := reader.New([]byte{0x20, 0x01, 0x0b}) // local.get 1 -- out of range
	_, err = decodeFunctionBody(ctx, r2, state2, 0)
	require.Error(t, err)
}

func TestDecodeGlobalSet_RejectsImmutable(t *testing.T) {
	ctx := newTestContext()
	ctx.SymbolTable.DeclareGlobal(0, symtab.ValueTypeI32, false, symtab.Declared, "", "")
	state := NewExecutionState(nil)

	r := reader.New([]byte{0x41, 0x01, 0x24, 0x00, 0x0b}) // i32.const 1, global.set 0, end
	_, err := decodeFunctionBody(ctx, r, state, 0)
	require.Error(t, err)
}

func TestDecodeGlobalSet_AllowsMutable(t *testing.T) {
	ctx := newTestContext()
	ctx.SymbolTable.DeclareGlobal(0, symtab.ValueTypeI32, true, symtab.Declared, "", "")
	state := NewExecutionState(nil)

	r := reader.New([]byte{0x41, 0x01, 0x24, 0x00, 0x0b})
	_, err := decodeFunctionBody(ctx, r, state, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, state.StackSize)
}

func TestDecodeLoad_EmitsAlignAndOffset(t *testing.T) {
	ctx := newTestContext()
	state := NewExecutionState(nil)

	// i32.const 0 \n i32.load align=2 offset=4 \n drop \n end
	r := reader.New([]byte{0x41, 0x00, 0x28, 0x02, 0x04, 0x1a, 0x0b})
	_, err := decodeFunctionBody(ctx, r, state, 0)
	require.NoError(t, err)
	// The long pool holds the i32.const value (0) followed by the load's offset (4).
	require.Len(t, state.LongConstants, 2)
	assert.Equal(t, int64(4), state.LongConstants[1])
	// The byte pool holds the byte-lengths of the i32.const, the align and the offset immediates.
	assert.Equal(t, []byte{1, 1, 1}, state.ByteConstants)
}

func TestDecodeMemoryGrow_RequiresReservedZero(t *testing.T) {
	ctx := newTestContext()
	state := NewExecutionState(nil)

	r := reader.New([]byte{0x41, 0x01, 0x40, 0x01, 0x1a, 0x0b}) // i32.const 1, memory.grow <bad reserved>, drop, end
	_, err := decodeFunctionBody(ctx, r, state, 0)
	require.Error(t, err)
}

func TestDecodeInvalidOpcodeRejected(t *testing.T) {
	ctx := newTestContext()
	state := NewExecutionState(nil)
	r := reader.New([]byte{0xff, 0x0b})
	_, err := decodeFunctionBody(ctx, r, state, 0)
	require.Error(t, err)
}
