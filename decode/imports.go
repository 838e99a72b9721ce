package decode

import (
	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/symtab"
	"github.com/wasmsym/decoder/wasmerr"
)

const (
	importKindFunction byte = 0x00
	importKindTable    byte = 0x01
	importKindMemory   byte = 0x02
	importKindGlobal   byte = 0x03
)

// readImportSection decodes a vector of (module_name, member_name, kind,
// kind_specific_payload) tuples (§4.4). Function imports bump the running
// function-index counter; table/memory imports go through the same
// cardinality check as their declared-section counterparts; global
// imports are hand to the linker via ImportGlobal.
func readImportSection(ctx *Context, r *reader.ByteReader) error {
	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if err := readImport(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func readImport(ctx *Context, r *reader.ByteReader) error {
	moduleName, err := r.ReadName()
	if err != nil {
		return err
	}
	memberName, err := r.ReadName()
	if err != nil {
		return err
	}
	kind, err := r.Read1()
	if err != nil {
		return err
	}

	switch kind {
	case importKindFunction:
		typeIndex, _, err := r.ReadUnsignedInt32()
		if err != nil {
			return err
		}
		if int(typeIndex) >= len(ctx.SymbolTable.FunctionTypes) {
			return wasmerr.Malformedf(r.Offset(), "import %s.%s references unknown type %d", moduleName, memberName, typeIndex)
		}
		ctx.SymbolTable.ImportFunction(moduleName, memberName, typeIndex)
		ctx.nextFunctionIndex++

	case importKindTable:
		if ctx.SymbolTable.TableCount() > 0 {
			return wasmerr.Malformedf(r.Offset(), "at most one table per module")
		}
		tt, err := readTableType(r)
		if err != nil {
			return err
		}
		ctx.SymbolTable.ImportTable(tt.ElemType, tt.Limits)

	case importKindMemory:
		if ctx.SymbolTable.MemoryCount() > 0 {
			return wasmerr.Malformedf(r.Offset(), "at most one memory per module")
		}
		mt, err := readMemoryType(r)
		if err != nil {
			return err
		}
		ctx.SymbolTable.ImportMemory(mt)

	case importKindGlobal:
		gt, err := readGlobalType(r)
		if err != nil {
			return err
		}
		index := ctx.SymbolTable.MaxGlobalIndex()
		ctx.SymbolTable.DeclareGlobal(ctx.nextGlobalAddress(), gt.ValType, gt.Mutable, symtab.ImportedUnresolved, moduleName, memberName)
		if ctx.Linker != nil {
			if err := ctx.Linker.ImportGlobal(ctx.ModuleName, index, moduleName, memberName, gt.ValType, gt.Mutable); err != nil {
				return err
			}
		}

	default:
		return wasmerr.Malformedf(r.Offset()-1, "invalid import kind %#02X", kind)
	}
	return nil
}

// nextGlobalAddress allocates the next slot in the process-wide globals
// array. In this decode-only module the address space is simply the
// global's own index; an embedder wiring a real globals array may choose
// a different allocation strategy, but this keeps DeclareGlobal callers
// uniform.
func (ctx *Context) nextGlobalAddress() uint32 {
	return ctx.SymbolTable.MaxGlobalIndex()
}
