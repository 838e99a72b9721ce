package decode

import (
	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/symtab"
	"github.com/wasmsym/decoder/wasmerr"
)

// ConstExprKind distinguishes the two legal shapes of a constant
// expression: an immediately-known numeric literal, or a global.get of an
// imported global whose value may not be known yet.
type ConstExprKind int

const (
	ConstExprNumeric ConstExprKind = iota
	ConstExprGlobalGet
)

// ConstExpr is the result of reading a constant expression: a single
// const instruction or global.get, followed by END (§3, "Initializer
// expressions ... restricted to a single constant instruction followed by
// END").
type ConstExpr struct {
	Kind        ConstExprKind
	ValueType   symtab.ValueType
	Value       int64 // the raw 64-bit payload, for ConstExprNumeric
	GlobalIndex uint32
}

// readConstExpr reads one constant expression. Legal producers are
// i32.const, i64.const, f32.const, f64.const, and global.get of an
// imported constant global.
func readConstExpr(r *reader.ByteReader) (*ConstExpr, error) {
	op, err := r.Read1()
	if err != nil {
		return nil, err
	}

	var expr ConstExpr
	switch symtab.Opcode(op) {
	case symtab.OpI32Const:
		v, _, err := r.ReadSignedInt32()
		if err != nil {
			return nil, err
		}
		expr = ConstExpr{Kind: ConstExprNumeric, ValueType: symtab.ValueTypeI32, Value: int64(v)}

	case symtab.OpI64Const:
		v, _, err := r.ReadSignedInt64()
		if err != nil {
			return nil, err
		}
		expr = ConstExpr{Kind: ConstExprNumeric, ValueType: symtab.ValueTypeI64, Value: v}

	case symtab.OpF32Const:
		bits, err := r.ReadFloat32AsInt32()
		if err != nil {
			return nil, err
		}
		expr = ConstExpr{Kind: ConstExprNumeric, ValueType: symtab.ValueTypeF32, Value: int64(uint32(bits))}

	case symtab.OpF64Const:
		bits, err := r.ReadFloat64AsInt64()
		if err != nil {
			return nil, err
		}
		expr = ConstExpr{Kind: ConstExprNumeric, ValueType: symtab.ValueTypeF64, Value: bits}

	case symtab.OpGlobalGet:
		idx, _, err := r.ReadUnsignedInt32()
		if err != nil {
			return nil, err
		}
		expr = ConstExpr{Kind: ConstExprGlobalGet, GlobalIndex: idx}

	default:
		return nil, wasmerr.Malformedf(r.Offset()-1, "invalid constant-expression opcode %#02X", op)
	}

	end, err := r.Read1()
	if err != nil {
		return nil, err
	}
	if symtab.Opcode(end) != symtab.OpEnd {
		return nil, wasmerr.Malformedf(r.Offset()-1, "constant expression not terminated by END, got %#02X", end)
	}
	return &expr, nil
}

// readOffsetExpr reads the restricted offset-expression
// form used by element and data segments: i32.const n, or global.get g.
func readOffsetExpr(r *reader.ByteReader) (*ConstExpr, error) {
	expr, err := readConstExpr(r)
	if err != nil {
		return nil, err
	}
	if expr.Kind == ConstExprNumeric && expr.ValueType != symtab.ValueTypeI32 {
		return nil, wasmerr.Malformedf(r.Offset(), "offset expression must be i32, got %s", expr.ValueType)
	}
	return expr, nil
}
