package decode

import (
	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/wasmerr"
)

// tryJumpToSection walks section headers from the start of raw, skipping
// each payload by its declared size, and stops at the first occurrence of
// target. It never dispatches a section's contents — reset_global_state
// and reset_memory_state re-run only the one section they care about, and
// must not re-append to the symbol table's index spaces by replaying
// sections that already ran once during the original Decode (§4.10).
func tryJumpToSection(raw []byte, target SectionID) (*reader.ByteReader, bool, error) {
	r := reader.New(raw)
	if err := readPreamble(r); err != nil {
		return nil, false, err
	}

	for !r.IsEOF() {
		id, err := r.Read1()
		if err != nil {
			return nil, false, err
		}
		size, _, err := r.ReadUnsignedInt32()
		if err != nil {
			return nil, false, err
		}
		if SectionID(id) == target {
			return r, true, nil
		}
		if _, err := r.ReadBytes(int(size)); err != nil {
			return nil, false, err
		}
	}
	return nil, false, nil
}

// importedGlobalMutability re-walks the import section straight from raw
// and returns, in import order, the mutability of every global import.
// resetGlobalState uses this instead of the cached SymbolTable so that a
// global dependency's mutability is re-validated against the bytes being
// replayed, not against decoded state from the original Decode call.
func importedGlobalMutability(raw []byte) ([]bool, error) {
	r, found, err := tryJumpToSection(raw, SectionImport)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return nil, err
	}

	var mutability []bool
	for i := uint32(0); i < count; i++ {
		if _, err := r.ReadName(); err != nil {
			return nil, err
		}
		if _, err := r.ReadName(); err != nil {
			return nil, err
		}
		kind, err := r.Read1()
		if err != nil {
			return nil, err
		}
		switch kind {
		case importKindFunction:
			if _, _, err := r.ReadUnsignedInt32(); err != nil {
				return nil, err
			}
		case importKindTable:
			if _, err := readTableType(r); err != nil {
				return nil, err
			}
		case importKindMemory:
			if _, err := readMemoryType(r); err != nil {
				return nil, err
			}
		case importKindGlobal:
			gt, err := readGlobalType(r)
			if err != nil {
				return nil, err
			}
			mutability = append(mutability, gt.Mutable)
		default:
			return nil, wasmerr.Malformedf(r.Offset()-1, "invalid import kind %#02X", kind)
		}
	}
	return mutability, nil
}

// resetGlobalState re-evaluates every locally-declared global's
// initializer and rewrites its value in the process-wide globals array
// (§4.10). It re-validates the module preamble on every call, since it
// re-parses straight from the original buffer rather than replaying a
// parsed tree. A global whose initializer is global.get of a mutable
// global is rejected: re-deriving from a value that can change at
// runtime would make the reset non-deterministic, which defeats its
// purpose. Mutability of an imported global is re-validated by re-reading
// the import section, not by trusting the cached SymbolTable, since reset
// exists to replay the original byte buffer rather than decoded state.
func resetGlobalState(ctx *Context) error {
	importedMutable, err := importedGlobalMutability(ctx.raw)
	if err != nil {
		return err
	}

	r, found, err := tryJumpToSection(ctx.raw, SectionGlobal)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}

	numImported := len(importedMutable)
	if numImported+int(count) != int(ctx.SymbolTable.MaxGlobalIndex()) {
		return wasmerr.Malformedf(r.Offset(), "global section shape changed since the original decode")
	}

	declaredMutable := make([]bool, count)

	for i := uint32(0); i < count; i++ {
		globalIndex := uint32(numImported) + i

		gt, err := readGlobalType(r)
		if err != nil {
			return err
		}
		declaredMutable[i] = gt.Mutable

		expr, err := readConstExpr(r)
		if err != nil {
			return err
		}

		address := ctx.SymbolTable.GlobalAddress(globalIndex)

		if expr.Kind == ConstExprNumeric {
			if ctx.Globals != nil {
				ctx.Globals.StoreLong(address, expr.Value)
			}
			continue
		}

		j := expr.GlobalIndex
		if j >= uint32(numImported)+i {
			return wasmerr.Linkerf("reset_global_state: global %d references unknown global %d", globalIndex, j)
		}

		var mutable bool
		if int(j) < numImported {
			mutable = importedMutable[j]
		} else {
			mutable = declaredMutable[j-uint32(numImported)]
		}
		if mutable {
			return wasmerr.Linkerf("reset_global_state: global %d depends on mutable global %d, cannot reset deterministically", globalIndex, j)
		}
		if !ctx.SymbolTable.IsGlobalResolved(j) {
			return wasmerr.Linkerf("reset_global_state: global %d depends on unresolved global %d", globalIndex, j)
		}
		if ctx.Globals != nil {
			srcAddr := ctx.SymbolTable.GlobalAddress(j)
			ctx.Globals.StoreLong(address, ctx.Globals.LoadAsLong(srcAddr))
		}
	}
	return nil
}

// resetMemoryState optionally zeroes the module's memory, then re-runs
// the data section against the original buffer (§4.10). Replaying data
// decode is safe without the bookkeeping tryJumpToSection otherwise
// guards against: readDataSegment only writes into ctx.Memory, it never
// touches the symbol table.
func resetMemoryState(ctx *Context, zeroFirst bool) error {
	if ctx.Memory == nil {
		return nil
	}
	if zeroFirst {
		ctx.Memory.Clear()
	}

	r, found, err := tryJumpToSection(ctx.raw, SectionData)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return readDataSection(ctx, r)
}
