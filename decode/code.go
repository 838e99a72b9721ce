package decode

import (
	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/symtab"
	"github.com/wasmsym/decoder/wasmerr"
)

// readCodeSection decodes the vector of function bodies in two sweeps.
// Sweep 1 allocates a CodeEntry for every declared function and installs
// it on the function record before any body is decoded, so a CALL whose
// target is declared later in the vector can still be resolved by index
// (the function's own node is filled in afterward, but the record — and
// the index space — already exists). Sweep 2 decodes each body in turn.
func readCodeSection(ctx *Context, r *reader.ByteReader) error {
	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}

	firstDeclared := ctx.SymbolTable.NumImportedFunctions
	if ctx.nextFunctionIndex != uint32(len(ctx.SymbolTable.Functions)) {
		return wasmerr.Malformedf(r.Offset(), "function index counter %d disagrees with %d declared functions", ctx.nextFunctionIndex, len(ctx.SymbolTable.Functions))
	}
	declaredCount := int(ctx.nextFunctionIndex) - firstDeclared
	if int(count) != declaredCount {
		return wasmerr.Malformedf(r.Offset(), "code section declares %d entries but function section declared %d", count, declaredCount)
	}

	for i := uint32(0); i < count; i++ {
		ctx.SymbolTable.Functions[firstDeclared+int(i)].Code = symtab.NewCodeEntry()
	}

	for i := uint32(0); i < count; i++ {
		fn := ctx.SymbolTable.Functions[firstDeclared+int(i)]
		if err := readCodeEntry(ctx, r, fn); err != nil {
			return err
		}
	}
	return nil
}

func readCodeEntry(ctx *Context, r *reader.ByteReader, fn *symtab.FunctionRecord) error {
	bodySize, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	start := r.Offset()

	localTypes, err := readLocalTypeGroups(r, ctx.SymbolTable.FunctionTypes[fn.TypeIndex].Params)
	if err != nil {
		return err
	}

	state := NewExecutionState(localTypes)
	returnArity := ctx.SymbolTable.FunctionTypeReturnTypeLength(fn.TypeIndex)

	node, err := decodeFunctionBody(ctx, r, state, returnArity)
	if err != nil {
		return err
	}

	if r.Offset()-start != int(bodySize) {
		return wasmerr.Malformedf(start, "code entry declared %d bytes but consumed %d", bodySize, r.Offset()-start)
	}

	fn.Code.LocalTypes = localTypes
	fn.Code.ByteConstants = state.ByteConstants
	fn.Code.IntConstants = state.IntConstants
	fn.Code.LongConstants = state.LongConstants
	fn.Code.BranchTables = state.BranchTables
	fn.Code.MaxStackSize = state.MaxStackSize
	fn.Code.Body = node
	fn.Code.TouchedLocals = state.TouchedLocals()
	return nil
}

// readLocalTypeGroups decodes the (count, type) run-length vector that
// precedes a function body and expands it into a flat per-slot vector,
// prefixed by the function's own parameter types, since the local-index
// space is contiguous starting from parameter 0 (§4.9).
func readLocalTypeGroups(r *reader.ByteReader, params []symtab.ValueType) ([]symtab.ValueType, error) {
	groupCount, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return nil, err
	}

	locals := make([]symtab.ValueType, len(params))
	copy(locals, params)

	for i := uint32(0); i < groupCount; i++ {
		n, _, err := r.ReadUnsignedInt32()
		if err != nil {
			return nil, err
		}
		b, err := r.Read1()
		if err != nil {
			return nil, err
		}
		if !symtab.IsValueType(b) {
			return nil, wasmerr.Malformedf(r.Offset()-1, "invalid local type %#02X", b)
		}
		t := symtab.ValueType(b)
		for j := uint32(0); j < n; j++ {
			locals = append(locals, t)
		}
	}
	return locals, nil
}
