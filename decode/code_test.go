package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/symtab"
)

// TestReadCodeSection_ForwardReference exercises the two-sweep allocation:
// function 0 calls function 1, which is declared later in the same vector.
// Sweep 1 must have installed a CodeEntry for every function before sweep 2
// decodes any body, or this call would be unresolvable.
func TestReadCodeSection_ForwardReference(t *testing.T) {
	ctx := newTestContext()
	ti := ctx.SymbolTable.AllocateFunctionType(0, 0)
	ctx.SymbolTable.DeclareFunction(ti) // function 0
	ctx.SymbolTable.DeclareFunction(ti) // function 1
	ctx.nextFunctionIndex = 2           // mirrors what readFunctionSection would have bumped

	// function 0 body: call 1; end
	// function 1 body: end
	data := []byte{
		0x02,       // vector count = 2
		0x04,       // entry 0 size
		0x00,       // 0 local groups
		0x10, 0x01, // call 1
		0x0b,       // end
		0x02,       // entry 1 size
		0x00,       // 0 local groups
		0x0b,       // end
	}
	r := reader.New(data)
	require.NoError(t, readCodeSection(ctx, r))

	fn0 := ctx.SymbolTable.Function(0)
	require.NotNil(t, fn0.Code)
	require.Len(t, fn0.Code.Body.Calls, 1)
	assert.Equal(t, uint32(1), fn0.Code.Body.Calls[0].FunctionIndex)
}

func TestReadCodeSection_TracksTouchedLocals(t *testing.T) {
	ctx := newTestContext()
	ti := ctx.SymbolTable.AllocateFunctionType(0, 0)
	ctx.SymbolTable.DeclareFunction(ti)
	ctx.nextFunctionIndex = 1

	// function 0 body: 1 local group of 2×i32; local.get 1; drop; end
	data := []byte{
		0x01,       // vector count = 1
		0x07,       // entry size
		0x01,       // 1 local group
		0x02, 0x7f, // 2×i32
		0x20, 0x01, // local.get 1
		0x1a,       // drop
		0x0b,       // end
	}
	r := reader.New(data)
	require.NoError(t, readCodeSection(ctx, r))

	fn := ctx.SymbolTable.Function(0)
	require.NotNil(t, fn.Code.TouchedLocals)
	assert.True(t, fn.Code.TouchedLocals.Test(1))
	assert.False(t, fn.Code.TouchedLocals.Test(0))
}

// TestReadCodeSection_FunctionIndexCounterDesyncRejected exercises the
// cross-check between ctx.nextFunctionIndex and len(SymbolTable.Functions)
// that supplemented feature 1 calls for.
func TestReadCodeSection_FunctionIndexCounterDesyncRejected(t *testing.T) {
	ctx := newTestContext()
	ti := ctx.SymbolTable.AllocateFunctionType(0, 0)
	ctx.SymbolTable.DeclareFunction(ti)
	// nextFunctionIndex deliberately left at 0, simulating a caller that
	// bypassed readFunctionSection's bookkeeping.

	data := []byte{0x01, 0x02, 0x00, 0x0b}
	r := reader.New(data)
	require.Error(t, readCodeSection(ctx, r))
}

func TestReadCodeSection_DeclaredCountMismatchRejected(t *testing.T) {
	ctx := newTestContext()
	ti := ctx.SymbolTable.AllocateFunctionType(0, 0)
	ctx.SymbolTable.DeclareFunction(ti)
	ctx.nextFunctionIndex = 1

	data := []byte{0x02, 0x02, 0x00, 0x0b, 0x02, 0x00, 0x0b} // claims 2 entries, only 1 declared
	r := reader.New(data)
	require.Error(t, readCodeSection(ctx, r))
}

func TestReadLocalTypeGroups_ExpandsAndPrependsParams(t *testing.T) {
	// 2 groups: 2×i32, 1×f64
	data := []byte{0x02, 0x02, 0x7f, 0x01, 0x7c}
	r := reader.New(data)
	locals, err := readLocalTypeGroups(r, []symtab.ValueType{symtab.ValueTypeI32})
	require.NoError(t, err)
	assert.Equal(t, []symtab.ValueType{
		symtab.ValueTypeI32, // the parameter
		symtab.ValueTypeI32,
		symtab.ValueTypeI32,
		symtab.ValueTypeF64,
	}, locals)
}
