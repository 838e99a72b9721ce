package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmsym/decoder/symtab"
)

func TestFakeGlobalsStoreAndLoad(t *testing.T) {
	g := NewFakeGlobals(2)
	g.StoreLong(1, 42)
	assert.Equal(t, int64(42), g.LoadAsLong(1))
}

func TestFakeMemoryValidateAddress(t *testing.T) {
	m := NewFakeMemory(4)
	require.NoError(t, m.ValidateAddress(0, 4))
	require.Error(t, m.ValidateAddress(1, 4))
}

func TestFakeMemoryStoreAndClear(t *testing.T) {
	m := NewFakeMemory(2)
	m.StoreI32_8(0, 0xFF)
	assert.Equal(t, byte(0xFF), m.Bytes[0])
	m.Clear()
	assert.Equal(t, byte(0), m.Bytes[0])
}

func TestFakeLinkerRecordsCalls(t *testing.T) {
	var l Linker = NewFakeLinker()
	require.NoError(t, l.ImportGlobal("main", 0, "env", "counter", symtab.ValueTypeI32, false))
	require.NoError(t, l.TryInitializeElements("main", 0, []uint32{1, 2, 3}))

	fl := l.(*FakeLinker)
	require.Len(t, fl.ImportedGlobals, 1)
	assert.Equal(t, "env", fl.ImportedGlobals[0].ModuleName)
	require.Len(t, fl.DeferredElements, 1)
	assert.Equal(t, []uint32{1, 2, 3}, fl.DeferredElements[0].Contents)
}
