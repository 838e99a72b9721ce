// Package nodes defines the opaque tree of execution nodes the decoder
// emits. Their runtime semantics belong to an execution engine and are not
// part of this package: a Node only carries the structural metadata the
// decoder already knows at decode time (byte extents, constant-pool
// deltas, child nodes, pending call stubs) so that invariants about it
// (§8.2: end_offset-start_offset equals bytes consumed) can be checked
// without an interpreter.
package nodes

// Kind distinguishes the shapes of control node the decoder builds. It is
// not an opcode; LOOP and IF collapse BLOCK-shaped children under one kind
// each because the decoder's stack-pointer corrections are what make them
// distinct, not their node shape.
type Kind int

const (
	KindBlock Kind = iota
	KindLoop
	KindIf
	KindFunctionBody
)

// PoolDeltas records how many entries a node's subtree appended to each of
// the four append-only pools, so a node's consumption can be validated and
// so an execution engine can locate the right slice of each pool.
type PoolDeltas struct {
	ByteConstants int
	IntConstants  int
	LongConstants int
	BranchTables  int
}

// CallStub is a lazily-resolved call site: only the numeric function index
// is known at decode time, because the callee's node may not exist yet
// (forward references within a module) or may belong to a module the
// linker hasn't loaded. An execution engine materializes the real call
// node on first execution and may cache it back onto the stub.
type CallStub struct {
	FunctionIndex uint32
	Resolved      interface{}
}

// IndirectCallStub is CALL_INDIRECT's counterpart: the type index is
// checked against the callee's signature at call time, not decode time,
// since the table slot isn't known until execution.
type IndirectCallStub struct {
	TypeIndex uint32
}

// Node is one control-flow node of a function body: a block, loop, if, or
// the function's own root. Its Children are the nested control nodes
// decoded inside it, in source order; its Calls are every CALL stub and
// its IndirectCalls every CALL_INDIRECT stub encountered directly inside
// it (not inside a nested child, which owns its own).
type Node struct {
	Kind           Kind
	ReturnLength   int
	Children       []*Node
	Calls          []CallStub
	IndirectCalls  []IndirectCallStub
	StartOffset    int
	EndOffset      int
	Deltas         PoolDeltas
}

// NewNode constructs a Node from the decoder's accumulated state. It is
// the "constructor interface" through which the decoder hands finished
// subtrees to whatever consumes them next; nothing here interprets what
// the node does.
func NewNode(kind Kind, returnLength int, children []*Node, calls []CallStub, indirectCalls []IndirectCallStub, startOffset, endOffset int, deltas PoolDeltas) *Node {
	return &Node{
		Kind:          kind,
		ReturnLength:  returnLength,
		Children:      children,
		Calls:         calls,
		IndirectCalls: indirectCalls,
		StartOffset:   startOffset,
		EndOffset:     endOffset,
		Deltas:        deltas,
	}
}
