package linker

import "github.com/wasmsym/decoder/symtab"

// FakeGlobals is a minimal in-memory Globals implementation for tests that
// exercise the decoder without a real linked runtime.
type FakeGlobals struct {
	Values []int64
}

// NewFakeGlobals returns a FakeGlobals with n pre-allocated zeroed slots.
func NewFakeGlobals(n int) *FakeGlobals {
	return &FakeGlobals{Values: make([]int64, n)}
}

func (g *FakeGlobals) LoadAsLong(address uint32) int64 { return g.Values[address] }

func (g *FakeGlobals) StoreLong(address uint32, value int64) {
	if int(address) >= len(g.Values) {
		grown := make([]int64, address+1)
		copy(grown, g.Values)
		g.Values = grown
	}
	g.Values[address] = value
}

// FakeMemory is a minimal in-memory Memory implementation for tests.
type FakeMemory struct {
	Bytes []byte
}

// NewFakeMemory returns a FakeMemory backed by n zeroed bytes.
func NewFakeMemory(n int) *FakeMemory {
	return &FakeMemory{Bytes: make([]byte, n)}
}

func (m *FakeMemory) ValidateAddress(base uint32, length uint32) error {
	if uint64(base)+uint64(length) > uint64(len(m.Bytes)) {
		return errAddressOutOfRange
	}
	return nil
}

func (m *FakeMemory) StoreI32_8(address uint32, value byte) { m.Bytes[address] = value }

func (m *FakeMemory) Clear() {
	for i := range m.Bytes {
		m.Bytes[i] = 0
	}
}

var errAddressOutOfRange = fakeMemoryError("memory address out of range")

type fakeMemoryError string

func (e fakeMemoryError) Error() string { return string(e) }

// FakeLinker is a minimal Linker implementation for tests: it records
// every call it receives instead of performing real cross-module
// resolution.
type FakeLinker struct {
	ImportedGlobals []FakeImportedGlobal
	DeferredElements []FakeDeferredElements
}

type FakeImportedGlobal struct {
	Module, ModuleName, MemberName string
	Index                          uint32
	ValType                        symtab.ValueType
	Mutable                        bool
}

type FakeDeferredElements struct {
	Module      string
	GlobalIndex uint32
	Contents    []uint32
}

func NewFakeLinker() *FakeLinker { return &FakeLinker{} }

func (l *FakeLinker) ImportGlobal(module string, index uint32, moduleName, memberName string, valType symtab.ValueType, mutable bool) error {
	l.ImportedGlobals = append(l.ImportedGlobals, FakeImportedGlobal{module, moduleName, memberName, index, valType, mutable})
	return nil
}

func (l *FakeLinker) TryInitializeElements(module string, globalIndex uint32, contents []uint32) error {
	l.DeferredElements = append(l.DeferredElements, FakeDeferredElements{module, globalIndex, contents})
	return nil
}
