package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/varanine/daqfile/format"
)

// samplePayload builds a payload resembling a real data block: interleaved
// little-endian int16 triples with slowly drifting values, which compresses
// well under every codec.
func samplePayload(samples int) []byte {
	rng := rand.New(rand.NewSource(42))
	payload := make([]byte, 0, samples*6)
	x, y, z := int16(0), int16(100), int16(-200)
	for i := 0; i < samples; i++ {
		x += int16(rng.Intn(7) - 3)
		y += int16(rng.Intn(5) - 2)
		z += int16(rng.Intn(3) - 1)
		for _, v := range []int16{x, y, z} {
			payload = append(payload, byte(v), byte(uint16(v)>>8))
		}
	}

	return payload
}

func TestGetCodec_AllTypes(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		codec, err := GetCodec(ct)
		require.NoError(t, err, "codec %s", ct)
		require.NotNil(t, codec)
	}
}

func TestGetCodec_Unsupported(t *testing.T) {
	_, err := GetCodec(format.CompressionType(0x7F))
	require.Error(t, err)
}

func TestCodecs_RoundTrip(t *testing.T) {
	payload := samplePayload(2048)

	tests := []struct {
		name  string
		codec Codec
	}{
		{"noop", NewNoOpCodec()},
		{"zstd", NewZstdCodec()},
		{"s2", NewS2Codec()},
		{"lz4", NewLZ4Codec()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := tt.codec.Compress(payload)
			require.NoError(t, err)

			restored, err := tt.codec.Decompress(compressed)
			require.NoError(t, err)
			require.True(t, bytes.Equal(payload, restored))
		})
	}
}

func TestCodecs_EmptyPayload(t *testing.T) {
	for _, codec := range []Codec{NewZstdCodec(), NewS2Codec(), NewLZ4Codec()} {
		restored, err := codec.Decompress(nil)
		require.NoError(t, err)
		require.Empty(t, restored)
	}
}

func TestZstdCodec_RejectsCorruptFrame(t *testing.T) {
	codec := NewZstdCodec()

	_, err := codec.Decompress([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.Error(t, err)
}

func TestNoOpCodec_SharesMemory(t *testing.T) {
	codec := NewNoOpCodec()
	payload := []byte{1, 2, 3}

	out, err := codec.Compress(payload)
	require.NoError(t, err)
	require.Equal(t, &payload[0], &out[0])
}
