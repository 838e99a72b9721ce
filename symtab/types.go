package symtab

import "fmt"

// ValueType is the single-byte tag encoding one of the four numeric types.
type ValueType byte

const (
	ValueTypeI32 ValueType = 0x7F
	ValueTypeI64 ValueType = 0x7E
	ValueTypeF32 ValueType = 0x7D
	ValueTypeF64 ValueType = 0x7C
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	default:
		return fmt.Sprintf("unknown(%#x)", byte(t))
	}
}

// IsValueType reports whether b is one of the four legal value-type tags.
func IsValueType(b byte) bool {
	switch ValueType(b) {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return true
	}
	return false
}

// FuncRefType is the sole legal table element type in this module version.
const FuncRefType byte = 0x70

// VoidBlockType is the block-type tag meaning "no result".
const VoidBlockType byte = 0x40

// FunctionType is a function signature: a parameter-type vector and a
// result-type vector. This module version allows at most one result.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

func (t *FunctionType) String() string {
	s := "("
	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	s += ") -> ("
	for i, r := range t.Results {
		if i > 0 {
			s += ", "
		}
		s += r.String()
	}
	return s + ")"
}

// ResultLength returns 0 or 1, the only arities this module version allows.
func (t *FunctionType) ResultLength() int { return len(t.Results) }

// LimitsType is the min/optional-max pair shared by table and memory types.
type LimitsType struct {
	Min uint32
	Max *uint32
}

// TableType describes a table's element type and size limits. ElemType is
// always FuncRefType in this module version.
type TableType struct {
	ElemType byte
	Limits   LimitsType
}

// MemoryType is a LimitsType counted in 64KiB pages.
type MemoryType = LimitsType

// MaxMemoryPages is the hard ceiling on memory size: 65536 pages (4GiB).
const MaxMemoryPages = 65536

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}
