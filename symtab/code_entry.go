package symtab

import (
	"github.com/willf/bitset"

	"github.com/wasmsym/decoder/decode/nodes"
)

// BranchTable is the side table built for one br_table instruction:
// DefaultReturnLength plus one (TargetLabel, TargetStackState) pair per
// listed target, followed by the default itself as the final pair.
type BranchTable struct {
	DefaultReturnLength int32
	Targets             []BranchTarget
}

// BranchTarget is one entry of a BranchTable: the label depth the bytecode
// named, and the abstract stack depth at that label's block entry.
type BranchTarget struct {
	Label       int64
	StackState  int32
}

// CodeEntry is a declared function's decode output: its local-slot layout,
// its three constant pools, its branch tables, and the root execution node
// returned by the block-body decoder.
type CodeEntry struct {
	// LocalTypes is parameters followed by locals, one byte per slot, per
	// the invariant that a function's local-index space is contiguous
	// starting from its own parameters.
	LocalTypes []ValueType

	ByteConstants []byte
	IntConstants  []int32
	LongConstants []int64
	BranchTables  []BranchTable

	MaxStackSize int
	Body         *nodes.Node

	// TouchedLocals marks which local slots any LOCAL_GET/SET/TEE actually
	// referenced while decoding Body. Unused by decoding itself; it exists
	// so a downstream dead-local diagnostic can flag slots a function
	// declares but never touches, without re-decoding the body.
	TouchedLocals *bitset.BitSet
}

// NewCodeEntry allocates an empty code entry, used during the code
// section's first sweep so that CALL opcodes decoded in sweep two can
// already reference every function's entry regardless of decode order.
func NewCodeEntry() *CodeEntry {
	return &CodeEntry{}
}
