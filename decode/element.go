package decode

import (
	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/wasmerr"
)

// readElementSection decodes a vector of element segments (§4.8). Each
// segment's offset expression is either i32.const n (checked immediately
// against the table's bounds by InitializeTableWithFunctions, which does
// not store the function indices) or global.get g (deferred to the linker
// until g resolves).
func readElementSection(ctx *Context, r *reader.ByteReader) error {
	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if err := readElementSegment(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func readElementSegment(ctx *Context, r *reader.ByteReader) error {
	tableIndex, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	if tableIndex != 0 {
		return wasmerr.Malformedf(r.Offset(), "element segment table index must be 0, got %d", tableIndex)
	}

	offset, err := readOffsetExpr(r)
	if err != nil {
		return err
	}

	n, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	funcIndices := make([]uint32, n)
	for i := range funcIndices {
		idx, _, err := r.ReadUnsignedInt32()
		if err != nil {
			return err
		}
		if int(idx) >= len(ctx.SymbolTable.Functions) {
			return wasmerr.Malformedf(r.Offset(), "element segment references unknown function %d", idx)
		}
		funcIndices[i] = idx
	}

	if offset.Kind == ConstExprNumeric {
		return ctx.SymbolTable.InitializeTableWithFunctions(uint32(offset.Value), funcIndices)
	}

	if ctx.Linker == nil {
		return wasmerr.Linkerf("element segment offset depends on global %d but no linker is attached", offset.GlobalIndex)
	}
	return ctx.Linker.TryInitializeElements(ctx.ModuleName, offset.GlobalIndex, funcIndices)
}
