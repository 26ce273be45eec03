package ebml

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeUint(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    uint64
	}{
		{"empty", nil, 0},
		{"one byte", []byte{0x2A}, 42},
		{"high bit set", []byte{0xFF}, 255},
		{"three bytes", []byte{0x01, 0x00, 0x00}, 65536},
		{"eight bytes", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, math.MaxUint64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeUint(tt.payload)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := DecodeUint(make([]byte, 9))
	require.ErrorIs(t, err, ErrValueSize)
}

func TestDecodeInt_SignExtension(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    int64
	}{
		{"empty", nil, 0},
		{"positive", []byte{0x2A}, 42},
		{"minus one", []byte{0xFF}, -1},
		{"minus one wide", []byte{0xFF, 0xFF}, -1},
		{"int16 min", []byte{0x80, 0x00}, -32768},
		{"positive wide", []byte{0x00, 0x80}, 128},
		{"int64 min", []byte{0x80, 0, 0, 0, 0, 0, 0, 0}, math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInt(tt.payload)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeFloat_ByLength(t *testing.T) {
	var buf [8]byte

	single := math.Float32bits(3.25)
	buf[0] = byte(single >> 24)
	buf[1] = byte(single >> 16)
	buf[2] = byte(single >> 8)
	buf[3] = byte(single)
	got, err := DecodeFloat(buf[:4])
	require.NoError(t, err)
	require.Equal(t, 3.25, got)

	double := math.Float64bits(-9.875)
	for i := 0; i < 8; i++ {
		buf[i] = byte(double >> (56 - 8*i))
	}
	got, err = DecodeFloat(buf[:8])
	require.NoError(t, err)
	require.Equal(t, -9.875, got)

	got, err = DecodeFloat(nil)
	require.NoError(t, err)
	require.Zero(t, got)

	_, err = DecodeFloat(buf[:3])
	require.ErrorIs(t, err, ErrValueSize)
}

func TestDecodeString_TrimsTrailingNULs(t *testing.T) {
	require.Equal(t, "Vib", DecodeString([]byte{'V', 'i', 'b', 0, 0}))
	require.Equal(t, "", DecodeString([]byte{0, 0, 0}))
	require.Equal(t, "a\x00b", DecodeString([]byte{'a', 0, 'b'}))
	require.Equal(t, "", DecodeString(nil))
}

func TestDecodeDate_Nanoseconds(t *testing.T) {
	offset := int64(time.Hour)
	var payload [8]byte
	for i := 0; i < 8; i++ {
		payload[i] = byte(uint64(offset) >> (56 - 8*i))
	}

	got, err := DecodeDate(payload[:], DateNanoseconds)
	require.NoError(t, err)
	require.Equal(t, Epoch.Add(time.Hour), got)
}

func TestDecodeDate_Milliseconds(t *testing.T) {
	offset := int64(1500)
	var payload [8]byte
	for i := 0; i < 8; i++ {
		payload[i] = byte(uint64(offset) >> (56 - 8*i))
	}

	got, err := DecodeDate(payload[:], DateMilliseconds)
	require.NoError(t, err)
	require.Equal(t, Epoch.Add(1500*time.Millisecond), got)
}

func TestDecodeDate_EmptyIsEpoch(t *testing.T) {
	got, err := DecodeDate(nil, DateNanoseconds)
	require.NoError(t, err)
	require.Equal(t, Epoch, got)
}

func TestDecodeDate_BadLength(t *testing.T) {
	_, err := DecodeDate([]byte{1, 2, 3, 4}, DateNanoseconds)
	require.ErrorIs(t, err, ErrValueSize)
}
