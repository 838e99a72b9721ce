package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateFunctionType(t *testing.T) {
	s := NewSymbolTable()
	idx := s.AllocateFunctionType(1, 1)
	assert.Equal(t, uint32(0), idx)
	s.RegisterFunctionTypeParameterType(idx, 0, ValueTypeI32)
	s.RegisterFunctionTypeReturnType(idx, 0, ValueTypeI32)
	assert.Equal(t, "(i32) -> (i32)", s.FunctionTypes[0].String())
	assert.Equal(t, 1, s.FunctionTypeArgumentCount(idx))
	assert.Equal(t, 1, s.FunctionTypeReturnTypeLength(idx))
}

func TestImportThenDeclareFunctionIndexSpace(t *testing.T) {
	s := NewSymbolTable()
	ti := s.AllocateFunctionType(0, 0)
	i0 := s.ImportFunction("env", "log", ti)
	i1 := s.ImportFunction("env", "abort", ti)
	d0 := s.DeclareFunction(ti)

	assert.Equal(t, uint32(0), i0)
	assert.Equal(t, uint32(1), i1)
	assert.Equal(t, uint32(2), d0)
	assert.Equal(t, 2, s.NumImportedFunctions)
	assert.True(t, s.Function(i0).IsImported)
	assert.False(t, s.Function(d0).IsImported)
}

func TestDeclareGlobalRecordsImportIdentity(t *testing.T) {
	s := NewSymbolTable()
	s.DeclareGlobal(0, ValueTypeI32, false, ImportedUnresolved, "env", "g")
	s.DeclareGlobal(1, ValueTypeI32, false, Declared, "", "")

	assert.Equal(t, "env", s.Globals[0].ModuleName)
	assert.Equal(t, "g", s.Globals[0].MemberName)
	assert.Empty(t, s.Globals[1].ModuleName)
	assert.Empty(t, s.Globals[1].MemberName)
}

func TestDeclareGlobalTracksResolution(t *testing.T) {
	s := NewSymbolTable()
	addr := s.DeclareGlobal(0, ValueTypeI32, false, Declared, "", "")
	assert.Equal(t, uint32(0), addr)
	assert.True(t, s.IsGlobalResolved(0))
	assert.Equal(t, Declared, s.GlobalResolutionOf(0))

	s.DeclareGlobal(1, ValueTypeI32, false, UnresolvedGet, "", "")
	assert.False(t, s.IsGlobalResolved(1))

	s.MarkGlobalResolved(1, Resolved)
	assert.True(t, s.IsGlobalResolved(1))
	assert.Equal(t, uint32(2), s.MaxGlobalIndex())
}

func TestTableAndMemoryCardinality(t *testing.T) {
	s := NewSymbolTable()
	assert.False(t, s.TableExists())
	s.AllocateTable(FuncRefType, LimitsType{Min: 1})
	assert.True(t, s.TableExists())
	assert.Equal(t, 1, s.TableCount())
}

func TestExportsAndStart(t *testing.T) {
	s := NewSymbolTable()
	s.ExportFunction("main", 3)
	s.SetStartFunction(3)
	require.Contains(t, s.Exports, "main")
	assert.Equal(t, ExportKindFunc, s.Exports["main"].Kind)
	require.NotNil(t, s.StartFunction)
	assert.Equal(t, uint32(3), *s.StartFunction)
}

func TestInitializeTableWithFunctionsBoundsCheck(t *testing.T) {
	s := NewSymbolTable()
	s.AllocateTable(FuncRefType, LimitsType{Min: 2})
	require.NoError(t, s.InitializeTableWithFunctions(0, []uint32{1, 2}))
	require.Error(t, s.InitializeTableWithFunctions(1, []uint32{1, 2}))
}
