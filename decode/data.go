package decode

import (
	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/wasmerr"
)

// readDataSection decodes a vector of data segments (§4.8). global.get
// offsets are unimplemented by design (§9 open question 2: "behavior is
// 'fail at decode'"); only i32.const offsets are supported.
func readDataSection(ctx *Context, r *reader.ByteReader) error {
	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if err := readDataSegment(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func readDataSegment(ctx *Context, r *reader.ByteReader) error {
	memIndex, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	if memIndex != 0 {
		return wasmerr.Malformedf(r.Offset(), "data segment memory index must be 0, got %d", memIndex)
	}

	offset, err := readOffsetExpr(r)
	if err != nil {
		return err
	}
	if offset.Kind != ConstExprNumeric {
		return wasmerr.Linkerf("global.get in data segment offsets is not supported")
	}

	length, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	bytes, err := r.ReadBytes(int(length))
	if err != nil {
		return err
	}

	base := uint32(offset.Value)
	if ctx.Memory != nil {
		if err := ctx.Memory.ValidateAddress(base, length); err != nil {
			return err
		}
		for i, b := range bytes {
			ctx.Memory.StoreI32_8(base+uint32(i), b)
		}
	}
	return nil
}
