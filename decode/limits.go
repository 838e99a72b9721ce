package decode

import (
	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/symtab"
	"github.com/wasmsym/decoder/wasmerr"
)

const (
	limitsNoMax   = 0x00
	limitsWithMax = 0x01
)

// readLimitsType decodes the min/optional-max pair shared by table and
// memory types. The prefix byte must be 0x00 (min only) or 0x01 (min+max);
// anything else is malformed (§8 scenario 6).
func readLimitsType(r *reader.ByteReader) (symtab.LimitsType, error) {
	prefix, err := r.Read1()
	if err != nil {
		return symtab.LimitsType{}, err
	}

	var l symtab.LimitsType
	switch prefix {
	case limitsNoMax:
		l.Min, _, err = r.ReadUnsignedInt32()
		if err != nil {
			return symtab.LimitsType{}, err
		}
	case limitsWithMax:
		l.Min, _, err = r.ReadUnsignedInt32()
		if err != nil {
			return symtab.LimitsType{}, err
		}
		max, _, err := r.ReadUnsignedInt32()
		if err != nil {
			return symtab.LimitsType{}, err
		}
		l.Max = &max
	default:
		return symtab.LimitsType{}, wasmerr.Malformedf(r.Offset()-1, "invalid limits prefix %#02X", prefix)
	}
	return l, nil
}

func readTableType(r *reader.ByteReader) (symtab.TableType, error) {
	elem, err := r.Read1()
	if err != nil {
		return symtab.TableType{}, err
	}
	if elem != symtab.FuncRefType {
		return symtab.TableType{}, wasmerr.Malformedf(r.Offset()-1, "invalid table element type %#02X", elem)
	}
	limits, err := readLimitsType(r)
	if err != nil {
		return symtab.TableType{}, err
	}
	return symtab.TableType{ElemType: elem, Limits: limits}, nil
}

func readMemoryType(r *reader.ByteReader) (symtab.MemoryType, error) {
	limits, err := readLimitsType(r)
	if err != nil {
		return symtab.MemoryType{}, err
	}
	if limits.Min > symtab.MaxMemoryPages {
		return symtab.MemoryType{}, wasmerr.Malformedf(r.Offset(), "memory min %d exceeds %d pages", limits.Min, symtab.MaxMemoryPages)
	}
	if limits.Max != nil {
		if *limits.Max < limits.Min {
			return symtab.MemoryType{}, wasmerr.Malformedf(r.Offset(), "memory max %d is less than min %d", *limits.Max, limits.Min)
		}
		if *limits.Max > symtab.MaxMemoryPages {
			return symtab.MemoryType{}, wasmerr.Malformedf(r.Offset(), "memory max %d exceeds %d pages", *limits.Max, symtab.MaxMemoryPages)
		}
	}
	return limits, nil
}

func readGlobalType(r *reader.ByteReader) (symtab.GlobalType, error) {
	vt, err := r.Read1()
	if err != nil {
		return symtab.GlobalType{}, err
	}
	if !symtab.IsValueType(vt) {
		return symtab.GlobalType{}, wasmerr.Malformedf(r.Offset()-1, "invalid global value type %#02X", vt)
	}
	mut, err := r.Read1()
	if err != nil {
		return symtab.GlobalType{}, err
	}
	var mutable bool
	switch mut {
	case 0x00:
	case 0x01:
		mutable = true
	default:
		return symtab.GlobalType{}, wasmerr.Malformedf(r.Offset()-1, "invalid mutability byte %#02X", mut)
	}
	return symtab.GlobalType{ValType: symtab.ValueType(vt), Mutable: mutable}, nil
}
