package decode

import (
	"github.com/wasmsym/decoder/decode/nodes"
	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/symtab"
	"github.com/wasmsym/decoder/wasmerr"
)

// readBlockType reads a block-type byte: 0x40 means void (arity 0),
// any legal value-type byte means arity 1.
func readBlockType(r *reader.ByteReader) (arity int, err error) {
	b, err := r.Read1()
	if err != nil {
		return 0, err
	}
	if b == symtab.VoidBlockType {
		return 0, nil
	}
	if !symtab.IsValueType(b) {
		return 0, wasmerr.Malformedf(r.Offset()-1, "invalid block type %#02X", b)
	}
	return 1, nil
}

// decodeFunctionBody is the Sweep 2 entry point for one code entry: it
// wraps the block-body decoder with the outermost control scope's
// stack-state snapshot, since the function body itself is the target of
// any branch whose label depth reaches past every nested block (§4.9,
// "invoke the block-body decoder with return_type_id =
// continuation_type_id = function_return_type").
func decodeFunctionBody(ctx *Context, r *reader.ByteReader, state *ExecutionState, returnArity int) (*nodes.Node, error) {
	state.PushStackSnapshot(state.StackSize)
	node, terminator, err := decodeBlockBody(ctx, r, state, returnArity, returnArity)
	state.PopStackSnapshot()
	if err != nil {
		return nil, err
	}
	if terminator != byte(symtab.OpEnd) {
		return nil, wasmerr.Malformedf(r.Offset()-1, "function body must end with END, got %#02X", terminator)
	}
	node.Kind = nodes.KindFunctionBody
	return node, nil
}

// decodeBlockBody decodes instructions until END or ELSE, per §4.9's
// block-body decoder procedure. returnArity is what the block leaves on
// the stack on normal fallthrough; continuationArity is what a branch
// *to* this block's continuation must carry (always 0 for loops).
func decodeBlockBody(ctx *Context, r *reader.ByteReader, state *ExecutionState, returnArity, continuationArity int) (*nodes.Node, byte, error) {
	startOffset := r.Offset()
	before := state.poolLengths()
	state.PushContinuation(continuationArity)

	var children []*nodes.Node
	var calls []nodes.CallStub
	var indirectCalls []nodes.IndirectCallStub
	var terminator byte

	for {
		op, err := r.Read1()
		if err != nil {
			return nil, 0, err
		}

		if op == byte(symtab.OpEnd) || op == byte(symtab.OpElse) {
			terminator = op
			break
		}

		child, call, indirectCall, err := decodeInstruction(ctx, r, state, symtab.Opcode(op))
		if err != nil {
			return nil, 0, err
		}
		if child != nil {
			children = append(children, child)
		}
		if call != nil {
			calls = append(calls, *call)
		}
		if indirectCall != nil {
			indirectCalls = append(indirectCalls, *indirectCall)
		}
	}

	state.PopContinuation()
	deltas := state.poolDeltasSince(before)
	node := nodes.NewNode(nodes.KindBlock, returnArity, children, calls, indirectCalls, startOffset, r.Offset(), deltas)
	return node, terminator, nil
}

// decodeInstruction decodes exactly one opcode and mutates state
// according to its stack-arity contract (§4.9). Control opcodes return a
// non-nil child node; CALL/CALL_INDIRECT return a non-nil call stub.
func decodeInstruction(ctx *Context, r *reader.ByteReader, state *ExecutionState, op symtab.Opcode) (*nodes.Node, *nodes.CallStub, *nodes.IndirectCallStub, error) {
	switch op {
	case symtab.OpUnreachable, symtab.OpNop:
		return nil, nil, nil, nil

	case symtab.OpBlock:
		arity, err := readBlockType(r)
		if err != nil {
			return nil, nil, nil, err
		}
		state.PushStackSnapshot(state.StackSize)
		child, term, err := decodeBlockBody(ctx, r, state, arity, arity)
		state.PopStackSnapshot()
		if err != nil {
			return nil, nil, nil, err
		}
		if term != byte(symtab.OpEnd) {
			return nil, nil, nil, wasmerr.Malformedf(r.Offset()-1, "block must end with END, got %#02X", term)
		}
		child.Kind = nodes.KindBlock
		return child, nil, nil, nil

	case symtab.OpLoop:
		arity, err := readBlockType(r)
		if err != nil {
			return nil, nil, nil, err
		}
		entryStack := state.StackSize
		state.PushStackSnapshot(entryStack)
		child, term, err := decodeBlockBody(ctx, r, state, arity, 0)
		state.PopStackSnapshot()
		if err != nil {
			return nil, nil, nil, err
		}
		if term != byte(symtab.OpEnd) {
			return nil, nil, nil, wasmerr.Malformedf(r.Offset()-1, "loop must end with END, got %#02X", term)
		}
		child.Kind = nodes.KindLoop
		// State-pointer correction: branches back to the loop header
		// consume nothing, so the abstract stack after the loop must
		// reflect "as if no branch was taken", not whatever the last
		// decoded path left behind.
		state.StackSize = entryStack + arity
		return child, nil, nil, nil

	case symtab.OpIf:
		return decodeIf(ctx, r, state)

	case symtab.OpBr:
		return nil, nil, nil, decodeBr(r, state, false)
	case symtab.OpBrIf:
		return nil, nil, nil, decodeBr(r, state, true)
	case symtab.OpBrTable:
		return nil, nil, nil, decodeBrTable(r, state)

	case symtab.OpReturn:
		state.emitLong(int64(state.ScopeDepth()))
		_, fnReturnLength, ok := state.ScopeAt(state.ScopeDepth() - 1)
		if !ok {
			fnReturnLength = 0
		}
		state.emitInt(int32(fnReturnLength))
		return nil, nil, nil, nil

	case symtab.OpCall:
		return decodeCall(ctx, r, state)
	case symtab.OpCallIndirect:
		return decodeCallIndirect(ctx, r, state)

	case symtab.OpDrop:
		state.Pop(1)
		return nil, nil, nil, nil
	case symtab.OpSelect:
		state.Pop(3)
		state.Push(1)
		return nil, nil, nil, nil

	case symtab.OpLocalGet:
		return nil, nil, nil, decodeLocalIndex(r, state, 1, 0)
	case symtab.OpLocalSet:
		return nil, nil, nil, decodeLocalIndex(r, state, 0, 1)
	case symtab.OpLocalTee:
		return nil, nil, nil, decodeLocalIndex(r, state, 0, 0)

	case symtab.OpGlobalGet:
		return nil, nil, nil, decodeGlobalIndex(ctx, r, state, false)
	case symtab.OpGlobalSet:
		return nil, nil, nil, decodeGlobalIndex(ctx, r, state, true)

	case symtab.OpMemorySize:
		if _, err := expectReservedZero(r); err != nil {
			return nil, nil, nil, err
		}
		state.Push(1)
		return nil, nil, nil, nil
	case symtab.OpMemoryGrow:
		if _, err := expectReservedZero(r); err != nil {
			return nil, nil, nil, err
		}
		state.Pop(1)
		state.Push(1)
		return nil, nil, nil, nil

	case symtab.OpI32Const:
		v, n, err := r.ReadSignedInt32()
		if err != nil {
			return nil, nil, nil, err
		}
		state.emitByte(byte(n))
		state.emitLong(int64(v))
		state.Push(1)
		return nil, nil, nil, nil
	case symtab.OpI64Const:
		v, n, err := r.ReadSignedInt64()
		if err != nil {
			return nil, nil, nil, err
		}
		state.emitByte(byte(n))
		state.emitLong(v)
		state.Push(1)
		return nil, nil, nil, nil
	case symtab.OpF32Const:
		bits, err := r.ReadFloat32AsInt32()
		if err != nil {
			return nil, nil, nil, err
		}
		state.emitLong(int64(uint32(bits)))
		state.Push(1)
		return nil, nil, nil, nil
	case symtab.OpF64Const:
		bits, err := r.ReadFloat64AsInt64()
		if err != nil {
			return nil, nil, nil, err
		}
		state.emitLong(bits)
		state.Push(1)
		return nil, nil, nil, nil
	}

	if isLoadOpcode(op) {
		return nil, nil, nil, decodeLoad(r, state)
	}
	if isStoreOpcode(op) {
		return nil, nil, nil, decodeStore(r, state)
	}
	if arity, ok := numericOpcodeArity(op); ok {
		state.Pop(arity.pop)
		state.Push(arity.push)
		return nil, nil, nil, nil
	}

	return nil, nil, nil, wasmerr.Malformedf(r.Offset()-1, "invalid opcode %#02X", byte(op))
}

func expectReservedZero(r *reader.ByteReader) (byte, error) {
	b, err := r.Read1()
	if err != nil {
		return 0, err
	}
	if b != 0x00 {
		return 0, wasmerr.Malformedf(r.Offset()-1, "reserved byte must be 0x00, got %#02X", b)
	}
	return b, nil
}

func decodeIf(ctx *Context, r *reader.ByteReader, state *ExecutionState) (*nodes.Node, *nodes.CallStub, *nodes.IndirectCallStub, error) {
	arity, err := readBlockType(r)
	if err != nil {
		return nil, nil, nil, err
	}

	snapshot := state.StackSize - 1 // the condition is popped before entry
	state.PushStackSnapshot(snapshot)
	state.Pop(1)

	trueBranch, term, err := decodeBlockBody(ctx, r, state, arity, arity)
	if err != nil {
		state.PopStackSnapshot()
		return nil, nil, nil, err
	}
	trueBranch.Kind = nodes.KindIf

	var falseBranch *nodes.Node
	switch term {
	case byte(symtab.OpElse):
		if arity != 0 {
			state.Pop(arity) // compensate before decoding the false branch
		}
		var elseErr error
		falseBranch, term, elseErr = decodeBlockBody(ctx, r, state, arity, arity)
		if elseErr != nil {
			state.PopStackSnapshot()
			return nil, nil, nil, elseErr
		}
		if term != byte(symtab.OpEnd) {
			state.PopStackSnapshot()
			return nil, nil, nil, wasmerr.Malformedf(r.Offset()-1, "if/else must end with END, got %#02X", term)
		}
		falseBranch.Kind = nodes.KindBlock

	case byte(symtab.OpEnd):
		if arity != 0 {
			state.PopStackSnapshot()
			return nil, nil, nil, wasmerr.Malformedf(r.Offset()-1, "if with non-void result type requires an else branch")
		}
		// Else-less ifs synthesize an empty false branch so the node tree
		// is uniform regardless of whether ELSE was present in the source.
		falseBranch = nodes.NewNode(nodes.KindBlock, 0, nil, nil, nil, r.Offset(), r.Offset(), nodes.PoolDeltas{})

	default:
		state.PopStackSnapshot()
		return nil, nil, nil, wasmerr.Malformedf(r.Offset()-1, "if must end with ELSE or END, got %#02X", term)
	}

	state.PopStackSnapshot()
	// State-pointer correction: the stack after a fully-decoded if must
	// reflect "condition consumed, the if's result (if any) pushed"
	// regardless of which branch's decode happened to run last.
	state.StackSize = snapshot + arity

	trueBranch.Children = append(trueBranch.Children, falseBranch)
	return trueBranch, nil, nil, nil
}

func decodeBr(r *reader.ByteReader, state *ExecutionState, conditional bool) error {
	label, n, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	if conditional {
		state.Pop(1)
	}

	stackState, returnLength, ok := state.ScopeAt(int(label))
	if !ok {
		return wasmerr.Malformedf(r.Offset(), "branch label %d has no enclosing block", label)
	}

	state.emitLong(int64(label))
	state.emitByte(byte(n))
	state.emitInt(int32(stackState))
	state.emitInt(int32(returnLength))
	return nil
}

func decodeBrTable(r *reader.ByteReader, state *ExecutionState) error {
	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}

	targets := make([]symtab.BranchTarget, 0, count+1)
	for i := uint32(0); i < count; i++ {
		label, _, err := r.ReadUnsignedInt32()
		if err != nil {
			return err
		}
		stackState, _, ok := state.ScopeAt(int(label))
		if !ok {
			return wasmerr.Malformedf(r.Offset(), "br_table label %d has no enclosing block", label)
		}
		targets = append(targets, symtab.BranchTarget{Label: int64(label), StackState: int32(stackState)})
	}

	defaultLabel, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	defaultStackState, defaultReturnLength, ok := state.ScopeAt(int(defaultLabel))
	if !ok {
		return wasmerr.Malformedf(r.Offset(), "br_table default label %d has no enclosing block", defaultLabel)
	}
	targets = append(targets, symtab.BranchTarget{Label: int64(defaultLabel), StackState: int32(defaultStackState)})

	for _, t := range targets {
		_, rl, _ := state.ScopeAt(int(t.Label))
		if rl != defaultReturnLength {
			return wasmerr.Malformedf(r.Offset(), "br_table targets have mismatched return arity: %d != %d", rl, defaultReturnLength)
		}
	}

	state.Pop(1) // the selector
	tableIndex := len(state.BranchTables)
	state.emitBranchTable(symtab.BranchTable{DefaultReturnLength: int32(defaultReturnLength), Targets: targets})
	state.emitInt(int32(tableIndex))
	return nil
}

func decodeCall(ctx *Context, r *reader.ByteReader, state *ExecutionState) (*nodes.Node, *nodes.CallStub, *nodes.IndirectCallStub, error) {
	index, n, err := r.ReadUnsignedInt32()
	if err != nil {
		return nil, nil, nil, err
	}
	if int(index) >= len(ctx.SymbolTable.Functions) {
		return nil, nil, nil, wasmerr.Malformedf(r.Offset(), "call references unknown function %d", index)
	}
	fn := ctx.SymbolTable.Function(index)
	numArgs := ctx.SymbolTable.FunctionTypeArgumentCount(fn.TypeIndex)
	numResults := ctx.SymbolTable.FunctionTypeReturnTypeLength(fn.TypeIndex)

	state.Pop(numArgs)
	state.Push(numResults)
	state.emitLong(int64(index))
	state.emitByte(byte(n))

	stub := nodes.CallStub{FunctionIndex: index}
	return nil, &stub, nil, nil
}

func decodeCallIndirect(ctx *Context, r *reader.ByteReader, state *ExecutionState) (*nodes.Node, *nodes.CallStub, *nodes.IndirectCallStub, error) {
	typeIndex, n, err := r.ReadUnsignedInt32()
	if err != nil {
		return nil, nil, nil, err
	}
	if int(typeIndex) >= len(ctx.SymbolTable.FunctionTypes) {
		return nil, nil, nil, wasmerr.Malformedf(r.Offset(), "call_indirect references unknown type %d", typeIndex)
	}
	if _, err := expectReservedZero(r); err != nil {
		return nil, nil, nil, err
	}

	numArgs := ctx.SymbolTable.FunctionTypeArgumentCount(typeIndex)
	numResults := ctx.SymbolTable.FunctionTypeReturnTypeLength(typeIndex)

	state.Pop(numArgs + 1) // the table index is popped first, then the arguments
	state.Push(numResults)
	state.emitLong(int64(typeIndex))
	state.emitByte(byte(n))

	stub := nodes.IndirectCallStub{TypeIndex: typeIndex}
	return nil, nil, &stub, nil
}

func decodeLocalIndex(r *reader.ByteReader, state *ExecutionState, push, pop int) error {
	index, n, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	if int(index) >= len(state.LocalTypes) {
		return wasmerr.Malformedf(r.Offset(), "local index %d out of range (%d locals)", index, len(state.LocalTypes))
	}
	state.touchLocal(index)
	state.Pop(pop)
	state.Push(push)
	state.emitLong(int64(index))
	state.emitByte(byte(n))
	return nil
}

func decodeGlobalIndex(ctx *Context, r *reader.ByteReader, state *ExecutionState, isSet bool) error {
	index, n, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	if index >= ctx.SymbolTable.MaxGlobalIndex() {
		return wasmerr.Malformedf(r.Offset(), "global index %d out of range (%d globals)", index, ctx.SymbolTable.MaxGlobalIndex())
	}
	if isSet {
		if !ctx.SymbolTable.GlobalMutability(index) {
			return wasmerr.Malformedf(r.Offset(), "global.set targets immutable global %d", index)
		}
		state.Pop(1)
	} else {
		state.Push(1)
	}
	state.emitLong(int64(index))
	state.emitByte(byte(n))
	return nil
}

func decodeLoad(r *reader.ByteReader, state *ExecutionState) error {
	_, alignN, err := r.ReadUnsignedInt32() // align is discarded (§9 open question 3); its byte-length is kept
	if err != nil {
		return err
	}
	state.emitByte(byte(alignN))

	offset, offsetN, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	state.emitLong(int64(offset))
	state.emitByte(byte(offsetN))

	state.Pop(1)
	state.Push(1)
	return nil
}

func decodeStore(r *reader.ByteReader, state *ExecutionState) error {
	_, alignN, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	state.emitByte(byte(alignN))

	offset, offsetN, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	state.emitLong(int64(offset))
	state.emitByte(byte(offsetN))

	state.Pop(2)
	return nil
}

func isLoadOpcode(op symtab.Opcode) bool {
	switch op {
	case symtab.OpI32Load, symtab.OpI64Load, symtab.OpF32Load, symtab.OpF64Load,
		symtab.OpI32Load8S, symtab.OpI32Load8U, symtab.OpI32Load16S, symtab.OpI32Load16U,
		symtab.OpI64Load8S, symtab.OpI64Load8U, symtab.OpI64Load16S, symtab.OpI64Load16U,
		symtab.OpI64Load32S, symtab.OpI64Load32U:
		return true
	}
	return false
}

func isStoreOpcode(op symtab.Opcode) bool {
	switch op {
	case symtab.OpI32Store, symtab.OpI64Store, symtab.OpF32Store, symtab.OpF64Store,
		symtab.OpI32Store8, symtab.OpI32Store16, symtab.OpI64Store8, symtab.OpI64Store16, symtab.OpI64Store32:
		return true
	}
	return false
}

type stackArity struct{ pop, push int }

// numericOpcodeArity covers every remaining numeric opcode: comparisons,
// unary and binary arithmetic, and conversions. None of these carry
// immediates.
func numericOpcodeArity(op symtab.Opcode) (stackArity, bool) {
	switch op {
	case symtab.OpI32Eqz, symtab.OpI64Eqz,
		symtab.OpI32Clz, symtab.OpI32Ctz, symtab.OpI32Popcnt,
		symtab.OpI64Clz, symtab.OpI64Ctz, symtab.OpI64Popcnt,
		symtab.OpF32Abs, symtab.OpF32Neg, symtab.OpF32Ceil, symtab.OpF32Floor, symtab.OpF32Trunc, symtab.OpF32Nearest, symtab.OpF32Sqrt,
		symtab.OpF64Abs, symtab.OpF64Neg, symtab.OpF64Ceil, symtab.OpF64Floor, symtab.OpF64Trunc, symtab.OpF64Nearest, symtab.OpF64Sqrt,
		symtab.OpI32WrapI64,
		symtab.OpI32TruncF32S, symtab.OpI32TruncF32U, symtab.OpI32TruncF64S, symtab.OpI32TruncF64U,
		symtab.OpI64ExtendI32S, symtab.OpI64ExtendI32U,
		symtab.OpI64TruncF32S, symtab.OpI64TruncF32U, symtab.OpI64TruncF64S, symtab.OpI64TruncF64U,
		symtab.OpF32ConvertI32S, symtab.OpF32ConvertI32U, symtab.OpF32ConvertI64S, symtab.OpF32ConvertI64U, symtab.OpF32DemoteF64,
		symtab.OpF64ConvertI32S, symtab.OpF64ConvertI32U, symtab.OpF64ConvertI64S, symtab.OpF64ConvertI64U, symtab.OpF64PromoteF32,
		symtab.OpI32ReinterpretF32, symtab.OpI64ReinterpretF64, symtab.OpF32ReinterpretI32, symtab.OpF64ReinterpretI64:
		return stackArity{pop: 1, push: 1}, true

	case symtab.OpI32Eq, symtab.OpI32Ne, symtab.OpI32LtS, symtab.OpI32LtU, symtab.OpI32GtS, symtab.OpI32GtU,
		symtab.OpI32LeS, symtab.OpI32LeU, symtab.OpI32GeS, symtab.OpI32GeU,
		symtab.OpI64Eq, symtab.OpI64Ne, symtab.OpI64LtS, symtab.OpI64LtU, symtab.OpI64GtS, symtab.OpI64GtU,
		symtab.OpI64LeS, symtab.OpI64LeU, symtab.OpI64GeS, symtab.OpI64GeU,
		symtab.OpF32Eq, symtab.OpF32Ne, symtab.OpF32Lt, symtab.OpF32Gt, symtab.OpF32Le, symtab.OpF32Ge,
		symtab.OpF64Eq, symtab.OpF64Ne, symtab.OpF64Lt, symtab.OpF64Gt, symtab.OpF64Le, symtab.OpF64Ge,
		symtab.OpI32Add, symtab.OpI32Sub, symtab.OpI32Mul, symtab.OpI32DivS, symtab.OpI32DivU,
		symtab.OpI32RemS, symtab.OpI32RemU, symtab.OpI32And, symtab.OpI32Or, symtab.OpI32Xor,
		symtab.OpI32Shl, symtab.OpI32ShrS, symtab.OpI32ShrU, symtab.OpI32Rotl, symtab.OpI32Rotr,
		symtab.OpI64Add, symtab.OpI64Sub, symtab.OpI64Mul, symtab.OpI64DivS, symtab.OpI64DivU,
		symtab.OpI64RemS, symtab.OpI64RemU, symtab.OpI64And, symtab.OpI64Or, symtab.OpI64Xor,
		symtab.OpI64Shl, symtab.OpI64ShrS, symtab.OpI64ShrU, symtab.OpI64Rotl, symtab.OpI64Rotr,
		symtab.OpF32Add, symtab.OpF32Sub, symtab.OpF32Mul, symtab.OpF32Div, symtab.OpF32Min, symtab.OpF32Max, symtab.OpF32Copysign,
		symtab.OpF64Add, symtab.OpF64Sub, symtab.OpF64Mul, symtab.OpF64Div, symtab.OpF64Min, symtab.OpF64Max, symtab.OpF64Copysign:
		return stackArity{pop: 2, push: 1}, true
	}
	return stackArity{}, false
}
