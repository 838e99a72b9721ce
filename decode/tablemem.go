package decode

import (
	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/wasmerr"
)

// readTableSection enforces the at-most-one-table invariant (existing
// import count plus what this section declares) before decoding limits
// (§4.6, §8 scenario 7).
func readTableSection(ctx *Context, r *reader.ByteReader) error {
	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if ctx.SymbolTable.TableCount() > 0 {
			return wasmerr.Malformedf(r.Offset(), "at most one table per module")
		}
		tt, err := readTableType(r)
		if err != nil {
			return err
		}
		ctx.SymbolTable.AllocateTable(tt.ElemType, tt.Limits)
	}
	return nil
}

// readMemorySection enforces the at-most-one-memory invariant, same shape
// as readTableSection.
func readMemorySection(ctx *Context, r *reader.ByteReader) error {
	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if ctx.SymbolTable.MemoryCount() > 0 {
			return wasmerr.Malformedf(r.Offset(), "at most one memory per module")
		}
		mt, err := readMemoryType(r)
		if err != nil {
			return err
		}
		ctx.SymbolTable.AllocateMemory(mt)
	}
	return nil
}
