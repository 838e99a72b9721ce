package leb128

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUint32(t *testing.T) {
	for _, c := range []struct {
		bytes []byte
		exp   uint32
	}{
		{bytes: []byte{0x04}, exp: 4},
		{bytes: []byte{0x80, 0x7f}, exp: 16256},
		{bytes: []byte{0xe5, 0x8e, 0x26}, exp: 624485},
		{bytes: []byte{0x80, 0x80, 0x80, 0x4f}, exp: 165675008},
		{bytes: []byte{0x89, 0x80, 0x80, 0x80, 0x01}, exp: 268435465},
	} {
		actual, n, err := DecodeUint32(c.bytes, 0)
		require.NoError(t, err)
		assert.Equal(t, c.exp, actual)
		assert.Equal(t, len(c.bytes), n)
	}
}

func TestDecodeUint32_Overflow(t *testing.T) {
	// six continuation bytes: one past the 5-byte budget for a 32-bit value.
	_, _, err := DecodeUint32([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, 0)
	require.Error(t, err)
}

func TestDecodeUint32_TruncatedInput(t *testing.T) {
	_, _, err := DecodeUint32([]byte{0x80}, 0)
	require.Error(t, err)
}

func TestDecodeUint64(t *testing.T) {
	for _, c := range []struct {
		bytes []byte
		exp   uint64
	}{
		{bytes: []byte{0x04}, exp: 4},
		{bytes: []byte{0x80, 0x7f}, exp: 16256},
		{bytes: []byte{0xe5, 0x8e, 0x26}, exp: 624485},
		{bytes: []byte{0x89, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, exp: 9223372036854775817},
	} {
		actual, n, err := DecodeUint64(c.bytes, 0)
		require.NoError(t, err)
		assert.Equal(t, c.exp, actual)
		assert.Equal(t, len(c.bytes), n)
	}
}

func TestDecodeInt32(t *testing.T) {
	for _, c := range []struct {
		bytes []byte
		exp   int32
	}{
		{bytes: []byte{0x00}, exp: 0},
		{bytes: []byte{0x04}, exp: 4},
		{bytes: []byte{0xFF, 0x00}, exp: 127},
		{bytes: []byte{0x81, 0x01}, exp: 129},
		{bytes: []byte{0x7f}, exp: -1},
		{bytes: []byte{0x81, 0x7f}, exp: -127},
		{bytes: []byte{0xFF, 0x7e}, exp: -129},
	} {
		actual, n, err := DecodeInt32(c.bytes, 0)
		require.NoError(t, err)
		assert.Equal(t, c.exp, actual)
		assert.Equal(t, len(c.bytes), n)
	}
}

func TestDecodeInt64(t *testing.T) {
	for _, c := range []struct {
		bytes []byte
		exp   int64
	}{
		{bytes: []byte{0x00}, exp: 0},
		{bytes: []byte{0x7f}, exp: -1},
		{bytes: []byte{0x81, 0x7f}, exp: -127},
	} {
		actual, n, err := DecodeInt64(c.bytes, 0)
		require.NoError(t, err)
		assert.Equal(t, c.exp, actual)
		assert.Equal(t, len(c.bytes), n)
	}
}

func TestDecodeAtNonZeroOffset(t *testing.T) {
	data := []byte{0xFF, 0xFF, 0x04, 0xFF}
	v, n, err := DecodeUint32(data, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), v)
	assert.Equal(t, 1, n)
}
