// Package reader implements the byte-stream reader described in spec §4.1:
// a single mutable cursor over an in-memory module buffer, used by every
// section decoder and by the function-body decoder. No buffering or
// streaming layer sits on top of it, by design (§9, "Recursive-descent over
// a self-delimited stream"): the whole module is already in memory, so the
// reader is just a slice plus an offset.
package reader

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/wasmsym/decoder/leb128"
	"github.com/wasmsym/decoder/wasmerr"
)

// ByteReader owns the input byte slice and a cursor into it.
type ByteReader struct {
	data   []byte
	offset int
}

// New wraps data for reading from offset 0.
func New(data []byte) *ByteReader {
	return &ByteReader{data: data}
}

// Offset returns the current cursor position.
func (r *ByteReader) Offset() int { return r.offset }

// Len returns the total length of the underlying buffer.
func (r *ByteReader) Len() int { return len(r.data) }

// Seek moves the cursor to an absolute offset, for section-skip and
// tryJumpToSection bookkeeping (§4.10).
func (r *ByteReader) Seek(offset int) { r.offset = offset }

// IsEOF reports whether the cursor has reached the end of the buffer.
func (r *ByteReader) IsEOF() bool { return r.offset >= len(r.data) }

// Read1 reads a single byte and advances the cursor by 1.
func (r *ByteReader) Read1() (byte, error) {
	if r.offset >= len(r.data) {
		return 0, wasmerr.Malformedf(r.offset, "unexpected EOF reading a byte")
	}
	b := r.data[r.offset]
	r.offset++
	return b, nil
}

// Read4 reads a little-endian 32-bit word, used only for the magic number
// and version fields of the module preamble.
func (r *ByteReader) Read4() (uint32, error) {
	if r.offset+4 > len(r.data) {
		return 0, wasmerr.Malformedf(r.offset, "unexpected EOF reading 4 bytes")
	}
	v := binary.LittleEndian.Uint32(r.data[r.offset : r.offset+4])
	r.offset += 4
	return v, nil
}

// ReadUnsignedInt32 decodes an unsigned LEB128 value and returns the number
// of bytes it consumed, since that byte-length itself becomes a byte-pool
// entry for later opcodes (§4.1).
func (r *ByteReader) ReadUnsignedInt32() (uint32, int, error) {
	v, n, err := leb128.DecodeUint32(r.data, r.offset)
	if err != nil {
		return 0, 0, err
	}
	r.offset += n
	return v, n, nil
}

// ReadSignedInt32 decodes a signed SLEB128 32-bit value.
func (r *ByteReader) ReadSignedInt32() (int32, int, error) {
	v, n, err := leb128.DecodeInt32(r.data, r.offset)
	if err != nil {
		return 0, 0, err
	}
	r.offset += n
	return v, n, nil
}

// ReadSignedInt64 decodes a signed SLEB128 64-bit value.
func (r *ByteReader) ReadSignedInt64() (int64, int, error) {
	v, n, err := leb128.DecodeInt64(r.data, r.offset)
	if err != nil {
		return 0, 0, err
	}
	r.offset += n
	return v, n, nil
}

// ReadFloat32AsInt32 reads a fixed-width little-endian IEEE-754 single and
// returns its raw bit pattern, so callers can store it uninterpreted in a
// constant pool.
func (r *ByteReader) ReadFloat32AsInt32() (int32, error) {
	if r.offset+4 > len(r.data) {
		return 0, wasmerr.Malformedf(r.offset, "unexpected EOF reading f32")
	}
	bits := binary.LittleEndian.Uint32(r.data[r.offset : r.offset+4])
	r.offset += 4
	return int32(bits), nil
}

// ReadFloat64AsInt64 is ReadFloat32AsInt32's 64-bit counterpart.
func (r *ByteReader) ReadFloat64AsInt64() (int64, error) {
	if r.offset+8 > len(r.data) {
		return 0, wasmerr.Malformedf(r.offset, "unexpected EOF reading f64")
	}
	bits := binary.LittleEndian.Uint64(r.data[r.offset : r.offset+8])
	r.offset += 8
	return int64(bits), nil
}

// Float32FromBits and Float64FromBits convert the raw bit patterns produced
// above back into Go floats, for embedders that want the numeric value
// rather than the encoded payload (e.g. tests asserting on decoded
// constants).
func Float32FromBits(bits int32) float32 { return math.Float32frombits(uint32(bits)) }
func Float64FromBits(bits int64) float64 { return math.Float64frombits(uint64(bits)) }

// Peek1 returns the byte at offset+relativeOffset without advancing the
// cursor.
func (r *ByteReader) Peek1(relativeOffset int) (byte, error) {
	at := r.offset + relativeOffset
	if at < 0 || at >= len(r.data) {
		return 0, wasmerr.Malformedf(at, "peek out of range")
	}
	return r.data[at], nil
}

// PeekUnsignedInt32 decodes an unsigned LEB128 value starting skip bytes
// ahead of the cursor, without advancing it.
func (r *ByteReader) PeekUnsignedInt32(skip int) (uint32, error) {
	v, _, err := leb128.DecodeUint32(r.data, r.offset+skip)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// ReadName reads a length-prefixed name. The WebAssembly 1.0 spec requires
// valid UTF-8 (not merely ASCII, despite some distillations saying
// "US-ASCII"); reject invalid encodings the way the teacher's decoder does.
func (r *ByteReader) ReadName() (string, error) {
	length, _, err := r.ReadUnsignedInt32()
	if err != nil {
		return "", err
	}
	if r.offset+int(length) > len(r.data) {
		return "", wasmerr.Malformedf(r.offset, "unexpected EOF reading name of length %d", length)
	}
	b := r.data[r.offset : r.offset+int(length)]
	r.offset += int(length)
	if !utf8.Valid(b) {
		return "", wasmerr.Malformedf(r.offset, "name is not valid utf8")
	}
	return string(b), nil
}

// ReadBytes reads n raw bytes and advances the cursor, used for data
// segment contents.
func (r *ByteReader) ReadBytes(n int) ([]byte, error) {
	if r.offset+n > len(r.data) {
		return nil, wasmerr.Malformedf(r.offset, "unexpected EOF reading %d bytes", n)
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}
