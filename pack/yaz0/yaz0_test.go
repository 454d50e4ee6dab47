package yaz0

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stream(size int, body ...byte) []byte {
	b := make([]byte, HeaderSize)
	copy(b, Magic)
	binary.BigEndian.PutUint32(b[4:], uint32(size))
	return append(b, body...)
}

func TestDecompressLiterals(t *testing.T) {
	out, err := Decompress(stream(3, 0xE0, 'a', 'b', 'c'))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
}

func TestDecompressShortBackref(t *testing.T) {
	// "ab" then copy 4 bytes from distance 2
	out, err := Decompress(stream(6, 0xC0, 'a', 'b', 0x20, 0x01))
	require.NoError(t, err)
	assert.Equal(t, "ababab", string(out))
}

func TestDecompressLongBackref(t *testing.T) {
	// "a" then copy 0x12+2 bytes from distance 1
	out, err := Decompress(stream(0x15, 0x80, 'a', 0x00, 0x00, 0x02))
	require.NoError(t, err)
	assert.Len(t, out, 0x15)
	for _, c := range out {
		assert.Equal(t, byte('a'), c)
	}
}

func TestDecompressErrors(t *testing.T) {
	_, err := Decompress([]byte("Yaz1"))
	assert.Error(t, err)

	_, err = Decompress(stream(4, 0xF0, 'a'))
	assert.Error(t, err, "truncated")

	_, err = Decompress(stream(4, 0x00, 0x00, 0x05))
	assert.Error(t, err, "backref before start")
}
