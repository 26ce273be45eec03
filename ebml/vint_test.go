package ebml

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func sourceOf(data []byte) *Source {
	return NewSource(bytes.NewReader(data), int64(len(data)))
}

func TestReadID_Widths(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		id    uint32
		width int
	}{
		{"one byte", []byte{0xA1}, 0xA1, 1},
		{"two bytes", []byte{0x52, 0x50}, 0x5250, 2},
		{"three bytes", []byte{0x2A, 0x01, 0x02}, 0x2A0102, 3},
		{"four bytes", []byte{0x1A, 0x45, 0xDF, 0xA3}, 0x1A45DFA3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, width, err := ReadID(sourceOf(tt.data), 0)
			require.NoError(t, err)
			require.Equal(t, tt.id, id)
			require.Equal(t, tt.width, width)
		})
	}
}

func TestReadID_MalformedPrefix(t *testing.T) {
	// A leading byte of 0x00 declares a width beyond 8 bytes; anything
	// below 0x10 declares more than the 4 bytes an id may occupy.
	for _, lead := range []byte{0x00, 0x08, 0x0F} {
		_, _, err := ReadID(sourceOf([]byte{lead, 0xFF, 0xFF, 0xFF, 0xFF}), 0)
		require.ErrorIs(t, err, ErrInvalidVarInt, "lead byte 0x%02X", lead)

		var serr *StructuralError
		require.ErrorAs(t, err, &serr)
		require.Equal(t, int64(0), serr.Offset)
	}
}

func TestReadID_CleanEndOfWindow(t *testing.T) {
	_, _, err := ReadID(sourceOf(nil), 0)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadID_TruncatedID(t *testing.T) {
	// First byte declares two bytes but only one is present.
	_, _, err := ReadID(sourceOf([]byte{0x52}), 0)
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}

func TestReadSize_MarkerStripped(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		size  int64
		width int
	}{
		{"one byte", []byte{0x85}, 5, 1},
		{"one byte zero", []byte{0x80}, 0, 1},
		{"two bytes", []byte{0x41, 0x23}, 0x123, 2},
		{"eight bytes", []byte{0x01, 0, 0, 0, 0, 0, 0, 0x2A}, 0x2A, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, width, unknown, err := ReadSize(sourceOf(tt.data), 0)
			require.NoError(t, err)
			require.False(t, unknown)
			require.Equal(t, tt.size, size)
			require.Equal(t, tt.width, width)
		})
	}
}

func TestReadSize_UnknownPattern(t *testing.T) {
	for _, data := range [][]byte{
		{0xFF},
		{0x7F, 0xFF},
		{0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	} {
		_, width, unknown, err := ReadSize(sourceOf(data), 0)
		require.NoError(t, err)
		require.True(t, unknown, "data % X", data)
		require.Equal(t, len(data), width)
	}
}

func TestReadSize_MalformedPrefix(t *testing.T) {
	_, _, _, err := ReadSize(sourceOf([]byte{0x00, 0xFF}), 0)
	require.ErrorIs(t, err, ErrInvalidVarInt)
}

func TestReadSize_AtEndOfWindow(t *testing.T) {
	// A size field is never optional: running out of bytes where a size
	// belongs is a truncation, not a clean end.
	_, _, _, err := ReadSize(sourceOf(nil), 0)
	require.Error(t, err)
	require.False(t, errors.Is(err, io.EOF))
}

func TestAppendID_RoundTrip(t *testing.T) {
	for _, id := range []uint32{0xA1, 0xB3, 0x5250, 0x2A0102, 0x1A45DFA3} {
		encoded := AppendID(nil, id)
		require.Len(t, encoded, IDWidth(id))

		decoded, width, err := ReadID(sourceOf(encoded), 0)
		require.NoError(t, err)
		require.Equal(t, id, decoded)
		require.Equal(t, len(encoded), width)
	}
}

func TestAppendSize_RoundTrip(t *testing.T) {
	sizes := []int64{0, 1, 126, 127, 300, 16382, 16383, 1 << 30}
	for _, size := range sizes {
		width := SizeWidth(size)
		encoded := AppendSize(nil, size, width)
		require.Len(t, encoded, width)

		decoded, w, unknown, err := ReadSize(sourceOf(encoded), 0)
		require.NoError(t, err)
		require.False(t, unknown, "size %d", size)
		require.Equal(t, size, decoded)
		require.Equal(t, width, w)
	}
}

func TestSizeWidth_ReservedAllOnes(t *testing.T) {
	// 127 encodes as all-ones in one byte, which is the unknown-size
	// pattern, so it must take two bytes.
	require.Equal(t, 1, SizeWidth(126))
	require.Equal(t, 2, SizeWidth(127))
}

func TestAppendSize_NonMinimalWidth(t *testing.T) {
	encoded := AppendSize(nil, 5, 3)
	require.Equal(t, []byte{0x20, 0x00, 0x05}, encoded)

	size, width, unknown, err := ReadSize(sourceOf(encoded), 0)
	require.NoError(t, err)
	require.False(t, unknown)
	require.Equal(t, int64(5), size)
	require.Equal(t, 3, width)
}

func TestAppendUnknownSize(t *testing.T) {
	for width := 1; width <= 8; width++ {
		encoded := AppendUnknownSize(nil, width)
		require.Len(t, encoded, width)

		_, w, unknown, err := ReadSize(sourceOf(encoded), 0)
		require.NoError(t, err)
		require.True(t, unknown)
		require.Equal(t, width, w)
	}
}
