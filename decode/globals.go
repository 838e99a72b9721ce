package decode

import (
	"go.uber.org/zap"

	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/symtab"
	"github.com/wasmsym/decoder/wasmerr"
)

// readGlobalSection decodes the two-phase global initialization protocol
// (§4.7). A numeric initializer is immediately known (resolution
// DECLARED). A global.get of an already-resolved import is resolved
// inline. A global.get of a not-yet-resolved import is recorded as
// UNRESOLVED_GET with a back-reference for the linker to complete later.
func readGlobalSection(ctx *Context, r *reader.ByteReader) error {
	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if err := readGlobal(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func readGlobal(ctx *Context, r *reader.ByteReader) error {
	gt, err := readGlobalType(r)
	if err != nil {
		return err
	}
	expr, err := readConstExpr(r)
	if err != nil {
		return err
	}

	index := ctx.SymbolTable.MaxGlobalIndex()
	address := ctx.nextGlobalAddress()

	if expr.Kind == ConstExprNumeric {
		ctx.SymbolTable.DeclareGlobal(address, gt.ValType, gt.Mutable, symtab.Declared, "", "")
		if ctx.Globals != nil {
			ctx.Globals.StoreLong(address, expr.Value)
		}
		return nil
	}

	// ConstExprGlobalGet.
	j := expr.GlobalIndex
	if j >= ctx.SymbolTable.MaxGlobalIndex() {
		return wasmerr.Malformedf(r.Offset(), "global.get references unknown global %d", j)
	}

	if ctx.SymbolTable.IsGlobalResolved(j) {
		srcType := ctx.SymbolTable.Globals[j].ValueType
		if srcType != gt.ValType {
			return wasmerr.Linkerf("global %d declared as %s but initializer global %d is %s", index, gt.ValType, j, srcType)
		}
		ctx.SymbolTable.DeclareGlobal(address, gt.ValType, gt.Mutable, symtab.Declared, "", "")
		if ctx.Globals != nil {
			srcAddr := ctx.SymbolTable.GlobalAddress(j)
			ctx.Globals.StoreLong(address, ctx.Globals.LoadAsLong(srcAddr))
		}
		return nil
	}

	ctx.SymbolTable.DeclareGlobal(address, gt.ValType, gt.Mutable, symtab.UnresolvedGet, "", "")
	ctx.SymbolTable.UnresolvedGlobalBackrefs[index] = j
	Logger().Debug("global awaits linker resolution", zap.Uint32("global", index), zap.Uint32("awaits", j))
	return nil
}
