package decode

import (
	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/wasmerr"
)

const (
	exportKindFunc   byte = 0x00
	exportKindTable  byte = 0x01
	exportKindMemory byte = 0x02
	exportKindGlobal byte = 0x03
)

// readExportSection decodes a vector of (name, kind, index) tuples
// (§4.8). Memory exports are accepted but dropped: the symbol table does
// not store them (§9 open question 4).
func readExportSection(ctx *Context, r *reader.ByteReader) error {
	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if err := readExport(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func readExport(ctx *Context, r *reader.ByteReader) error {
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	kind, err := r.Read1()
	if err != nil {
		return err
	}
	index, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}

	switch kind {
	case exportKindFunc:
		if int(index) >= len(ctx.SymbolTable.Functions) {
			return wasmerr.Malformedf(r.Offset(), "export %q references unknown function %d", name, index)
		}
		ctx.SymbolTable.ExportFunction(name, index)

	case exportKindTable:
		if !ctx.SymbolTable.TableExists() {
			return wasmerr.Malformedf(r.Offset(), "export %q references a table but module declares none", name)
		}
		if index != 0 {
			return wasmerr.Malformedf(r.Offset(), "table export index must be 0, got %d", index)
		}
		ctx.SymbolTable.ExportTable(name)

	case exportKindMemory:
		if ctx.SymbolTable.MemoryCount() == 0 {
			return wasmerr.Malformedf(r.Offset(), "export %q references a memory but module declares none", name)
		}
		// Dropped by design (§9 open question 4): parsed for byte-count
		// correctness, never recorded in the symbol table.

	case exportKindGlobal:
		if index >= ctx.SymbolTable.MaxGlobalIndex() {
			return wasmerr.Malformedf(r.Offset(), "export %q references unknown global %d", name, index)
		}
		ctx.SymbolTable.ExportGlobal(name, index)

	default:
		return wasmerr.Malformedf(r.Offset()-1, "invalid export kind %#02X", kind)
	}
	return nil
}

// readStartSection decodes the optional start function index.
func readStartSection(ctx *Context, r *reader.ByteReader) error {
	index, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	if int(index) >= len(ctx.SymbolTable.Functions) {
		return wasmerr.Malformedf(r.Offset(), "start function references unknown function %d", index)
	}
	ctx.SymbolTable.SetStartFunction(index)
	return nil
}
