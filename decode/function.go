package decode

import "github.com/wasmsym/decoder/reader"

// readFunctionSection decodes a vector of type indices (§4.5). Each
// produces a declared function record; code entries are associated later,
// by position, when the code section is decoded.
func readFunctionSection(ctx *Context, r *reader.ByteReader) error {
	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		typeIndex, _, err := r.ReadUnsignedInt32()
		if err != nil {
			return err
		}
		ctx.SymbolTable.DeclareFunction(typeIndex)
		ctx.nextFunctionIndex++
	}
	return nil
}
