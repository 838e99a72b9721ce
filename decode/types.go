package decode

import (
	"github.com/wasmsym/decoder/reader"
	"github.com/wasmsym/decoder/symtab"
	"github.com/wasmsym/decoder/wasmerr"
)

const functionTypeTag = 0x60

// readTypeSection decodes a vector of function types (§4.3). Each type
// begins with the 0x60 tag, a parameter-type vector, and a result-type
// vector. Three result-vector shapes are accepted: 0x40 (void), 0x00
// (empty vector), and 0x01 followed by one value-type byte; anything
// longer is rejected since this module version has at most one result.
func readTypeSection(ctx *Context, r *reader.ByteReader) error {
	count, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if err := readFunctionType(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func readFunctionType(ctx *Context, r *reader.ByteReader) error {
	tag, err := r.Read1()
	if err != nil {
		return err
	}
	if tag != functionTypeTag {
		return wasmerr.Malformedf(r.Offset()-1, "invalid function type tag %#02X", tag)
	}

	params, err := readValueTypeVector(r)
	if err != nil {
		return err
	}

	results, err := readResultTypeVector(r)
	if err != nil {
		return err
	}

	typeIndex := ctx.SymbolTable.AllocateFunctionType(len(params), len(results))
	for i, p := range params {
		ctx.SymbolTable.RegisterFunctionTypeParameterType(typeIndex, i, p)
	}
	for i, res := range results {
		ctx.SymbolTable.RegisterFunctionTypeReturnType(typeIndex, i, res)
	}
	return nil
}

func readValueTypeVector(r *reader.ByteReader) ([]symtab.ValueType, error) {
	n, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return nil, err
	}
	types := make([]symtab.ValueType, n)
	for i := range types {
		b, err := r.Read1()
		if err != nil {
			return nil, err
		}
		if !symtab.IsValueType(b) {
			return nil, wasmerr.Malformedf(r.Offset()-1, "invalid value type %#02X", b)
		}
		types[i] = symtab.ValueType(b)
	}
	return types, nil
}

// readResultTypeVector accepts the three result-vector encodings producers
// emit in practice: 0x40 meaning void, 0x00 meaning an explicit empty
// vector, and 0x01 <type> meaning a single result. A leading length > 1 is
// rejected, since multi-value results do not exist in this module version.
func readResultTypeVector(r *reader.ByteReader) ([]symtab.ValueType, error) {
	tag, err := r.Peek1(0)
	if err != nil {
		return nil, err
	}
	if tag == symtab.VoidBlockType {
		if _, err := r.Read1(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	n, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return nil, err
	}
	if n > 1 {
		return nil, wasmerr.Malformedf(r.Offset(), "multi-value results not supported: got %d results", n)
	}
	results := make([]symtab.ValueType, n)
	for i := range results {
		b, err := r.Read1()
		if err != nil {
			return nil, err
		}
		if !symtab.IsValueType(b) {
			return nil, wasmerr.Malformedf(r.Offset()-1, "invalid value type %#02X", b)
		}
		results[i] = symtab.ValueType(b)
	}
	return results, nil
}
