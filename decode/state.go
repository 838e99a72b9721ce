package decode

import (
	"github.com/willf/bitset"

	"github.com/wasmsym/decoder/decode/nodes"
	"github.com/wasmsym/decoder/symtab"
)

// ExecutionState is the abstract stack interpreter's working memory for
// one function body (§3). It is decoder-local: built up while decoding a
// single code entry, then discarded once the entry's CodeEntry has been
// populated from it.
type ExecutionState struct {
	StackSize    int
	MaxStackSize int

	// StackStateSnapshots and ContinuationReturnLengths are parallel
	// stacks, depth-indexed identically: entry i at the top of both
	// describes the innermost enclosing block. Label depth d (0 =
	// innermost) resolves to the entry len-1-d from the top.
	StackStateSnapshots       []int
	ContinuationReturnLengths []int

	ByteConstants []byte
	IntConstants  []int32
	LongConstants []int64
	BranchTables  []symtab.BranchTable

	LocalTypes []symtab.ValueType

	// touchedLocals tracks which local slots any LOCAL_GET/SET/TEE
	// actually referenced, bitset-backed per the pack's tracking-sets
	// convention. It has no bearing on stack simulation; it exists so a
	// later optimization pass (out of scope) could prune genuinely dead
	// local slots without re-decoding the body.
	touchedLocals *bitset.BitSet
}

// NewExecutionState returns an ExecutionState for a function whose
// combined parameter+local slots are localTypes.
func NewExecutionState(localTypes []symtab.ValueType) *ExecutionState {
	return &ExecutionState{
		LocalTypes:    localTypes,
		touchedLocals: bitset.New(uint(len(localTypes))),
	}
}

// Push advances the simulated stack depth by n, updating the high-water mark.
func (s *ExecutionState) Push(n int) {
	s.StackSize += n
	if s.StackSize > s.MaxStackSize {
		s.MaxStackSize = s.StackSize
	}
}

// Pop retreats the simulated stack depth by n.
func (s *ExecutionState) Pop(n int) {
	s.StackSize -= n
}

// PushStackSnapshot records the abstract stack depth at a nested control
// scope's entry. It is pushed by the opcode that opens the scope (BLOCK,
// LOOP, IF, or the function-body wrapper for the outermost scope) before
// recursing into the scope's body.
func (s *ExecutionState) PushStackSnapshot(stackDepthAtEntry int) {
	s.StackStateSnapshots = append(s.StackStateSnapshots, stackDepthAtEntry)
}

// PopStackSnapshot discards the innermost scope's stack-depth snapshot.
func (s *ExecutionState) PopStackSnapshot() {
	s.StackStateSnapshots = s.StackStateSnapshots[:len(s.StackStateSnapshots)-1]
}

// PushContinuation records the arity a branch landing on a scope's
// continuation must leave behind. Unlike PushStackSnapshot, this is
// pushed and popped by the block-body decoder itself (§4.9 steps 2, 5),
// since it describes the scope being decoded, not a child of it.
func (s *ExecutionState) PushContinuation(returnLength int) {
	s.ContinuationReturnLengths = append(s.ContinuationReturnLengths, returnLength)
}

// PopContinuation discards the innermost scope's continuation arity.
func (s *ExecutionState) PopContinuation() {
	s.ContinuationReturnLengths = s.ContinuationReturnLengths[:len(s.ContinuationReturnLengths)-1]
}

// ScopeDepth returns the number of currently nested control scopes.
func (s *ExecutionState) ScopeDepth() int { return len(s.StackStateSnapshots) }

// ScopeAt resolves branch label depth (0 = innermost enclosing block) to
// its recorded stack depth and continuation return length.
func (s *ExecutionState) ScopeAt(labelDepth int) (stackState int, returnLength int, ok bool) {
	idx := len(s.StackStateSnapshots) - 1 - labelDepth
	if idx < 0 || idx >= len(s.StackStateSnapshots) {
		return 0, 0, false
	}
	return s.StackStateSnapshots[idx], s.ContinuationReturnLengths[idx], true
}

func (s *ExecutionState) emitByte(b byte)  { s.ByteConstants = append(s.ByteConstants, b) }
func (s *ExecutionState) emitInt(v int32)  { s.IntConstants = append(s.IntConstants, v) }
func (s *ExecutionState) emitLong(v int64) { s.LongConstants = append(s.LongConstants, v) }

func (s *ExecutionState) emitBranchTable(bt symtab.BranchTable) {
	s.BranchTables = append(s.BranchTables, bt)
}

func (s *ExecutionState) touchLocal(index uint32) {
	s.touchedLocals.Set(uint(index))
}

// TouchedLocals returns the bitset tracking which local slots were
// referenced, for installing onto the finished CodeEntry.
func (s *ExecutionState) TouchedLocals() *bitset.BitSet {
	return s.touchedLocals
}

// poolLengths captures the current length of each append-only pool, so a
// block node's consumption can later be computed as a delta.
func (s *ExecutionState) poolLengths() nodes.PoolDeltas {
	return nodes.PoolDeltas{
		ByteConstants: len(s.ByteConstants),
		IntConstants:  len(s.IntConstants),
		LongConstants: len(s.LongConstants),
		BranchTables:  len(s.BranchTables),
	}
}

// poolDeltasSince returns how many entries were appended to each pool
// since before was captured via poolLengths.
func (s *ExecutionState) poolDeltasSince(before nodes.PoolDeltas) nodes.PoolDeltas {
	return nodes.PoolDeltas{
		ByteConstants: len(s.ByteConstants) - before.ByteConstants,
		IntConstants:  len(s.IntConstants) - before.IntConstants,
		LongConstants: len(s.LongConstants) - before.LongConstants,
		BranchTables:  len(s.BranchTables) - before.BranchTables,
	}
}
