// Package linker defines the narrow collaborator interfaces the decoder
// calls into for cross-module work it cannot finish on its own: resolving
// an imported global's value, and deferring a table write until a global
// that offsets it resolves. Implementing a linker is explicitly out of
// scope; this package only specifies the contract the decoder is written
// against.
package linker

import "github.com/wasmsym/decoder/symtab"

// Linker is the decoder's sole cross-module collaborator. A real linker
// sees every module in a link unit simultaneously and is the only
// component allowed to resolve a reference that spans modules; the
// decoder only ever calls these two entry points, both pure bookkeeping
// with no blocking (§5).
type Linker interface {
	// ImportGlobal declares that the global at index in module imports
	// module_name.member_name with the given type and mutability. The
	// linker records the declaration; it does not resolve it inline.
	ImportGlobal(module string, index uint32, moduleName, memberName string, valType symtab.ValueType, mutable bool) error

	// TryInitializeElements defers an element-segment table write until
	// the global at globalIndex (the segment's offset expression)
	// resolves. contents is the function-index vector to write once that
	// happens.
	TryInitializeElements(module string, globalIndex uint32, contents []uint32) error
}

// Globals is the process-wide globals array the decoder writes resolved
// initializer values into. Every global's 64-bit payload is stored
// uninterpreted; callers reinterpret the bits according to its
// symtab.GlobalRecord.ValueType.
type Globals interface {
	LoadAsLong(address uint32) int64
	StoreLong(address uint32, value int64)
}

// Memory is the linear memory a data segment's bytes are written into.
// Allocation, growth, and bounds-checked runtime access belong to an
// execution engine; the decoder only ever validates a segment's extent
// and stores its initial bytes.
type Memory interface {
	// ValidateAddress raises an error if the byte range
	// [base, base+length) would overflow the memory's current extent.
	ValidateAddress(base uint32, length uint32) error
	// StoreI32_8 writes a single byte at address.
	StoreI32_8(address uint32, value byte)
	// Clear zeroes every page, used by reset_memory_state before
	// re-running the data section.
	Clear()
}
