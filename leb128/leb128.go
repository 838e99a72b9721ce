// Package leb128 decodes the LEB128 and SLEB128 variable-length integer
// encodings used throughout the WebAssembly binary format. Unlike a
// streaming io.Reader-based decoder, every function here reads from a byte
// slice at a given offset and returns how many bytes it consumed, because
// that byte-length is itself data the function-body decoder threads into
// its byte constant pool (see decode.ExecutionState) so execution can skip
// immediates without redecoding them.
package leb128

import "github.com/wasmsym/decoder/wasmerr"

// maxBytes32/maxBytes64 are the widest encodings this decoder accepts: a
// 32-bit value never needs more than 5 LEB128 groups (7 bits each, plus a
// slop bit in the 5th byte), a 64-bit value never needs more than 10. One
// byte longer than these is always malformed, never merely redundant
// padding, matching §8: "LEB128 at exactly 5 bytes (32-bit) / 10 bytes
// (64-bit) is accepted; one byte longer is rejected."
const (
	maxBytes32 = 5
	maxBytes64 = 10
)

// DecodeUint32 decodes an unsigned LEB128 value starting at data[offset].
// It returns the value, the number of bytes consumed, and an error if the
// buffer is truncated or the encoding overflows its 5-byte budget.
func DecodeUint32(data []byte, offset int) (value uint32, n int, err error) {
	var shift uint
	for i := 0; i < maxBytes32; i++ {
		if offset+i >= len(data) {
			return 0, 0, wasmerr.Malformedf(offset+i, "unexpected EOF reading LEB128 uint32")
		}
		b := data[offset+i]
		value |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, wasmerr.Malformedf(offset, "LEB128 uint32 exceeds %d bytes", maxBytes32)
}

// DecodeUint64 is DecodeUint32's 64-bit counterpart, budgeted at 10 bytes.
func DecodeUint64(data []byte, offset int) (value uint64, n int, err error) {
	var shift uint
	for i := 0; i < maxBytes64; i++ {
		if offset+i >= len(data) {
			return 0, 0, wasmerr.Malformedf(offset+i, "unexpected EOF reading LEB128 uint64")
		}
		b := data[offset+i]
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, wasmerr.Malformedf(offset, "LEB128 uint64 exceeds %d bytes", maxBytes64)
}

// DecodeInt32 decodes a signed LEB128 (SLEB128) value, sign-extending the
// final group.
func DecodeInt32(data []byte, offset int) (value int32, n int, err error) {
	var shift uint
	for i := 0; i < maxBytes32; i++ {
		if offset+i >= len(data) {
			return 0, 0, wasmerr.Malformedf(offset+i, "unexpected EOF reading SLEB128 int32")
		}
		b := data[offset+i]
		value |= int32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 32 && b&0x40 != 0 {
				value |= ^int32(0) << shift
			}
			return value, i + 1, nil
		}
	}
	return 0, 0, wasmerr.Malformedf(offset, "SLEB128 int32 exceeds %d bytes", maxBytes32)
}

// DecodeInt64 is DecodeInt32's 64-bit counterpart, budgeted at 10 bytes.
func DecodeInt64(data []byte, offset int) (value int64, n int, err error) {
	var shift uint
	for i := 0; i < maxBytes64; i++ {
		if offset+i >= len(data) {
			return 0, 0, wasmerr.Malformedf(offset+i, "unexpected EOF reading SLEB128 int64")
		}
		b := data[offset+i]
		value |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				value |= ^int64(0) << shift
			}
			return value, i + 1, nil
		}
	}
	return 0, 0, wasmerr.Malformedf(offset, "SLEB128 int64 exceeds %d bytes", maxBytes64)
}
