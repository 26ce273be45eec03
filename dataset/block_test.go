package dataset

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/varanine/daqfile/compress"
	"github.com/varanine/daqfile/format"
)

func mustParser(t *testing.T, layout string) *SampleParser {
	t.Helper()
	p, err := NewSampleParser(layout)
	require.NoError(t, err)
	return p
}

// int16Payload encodes values as little-endian int16 sample scalars.
func int16Payload(values ...int16) []byte {
	out := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func TestBlock_NumSamples(t *testing.T) {
	p := mustParser(t, "<3h")
	b := newBlock(1, 0, 90, int16Payload(1, 2, 3, 4, 5, 6, 7, 8, 9), p, format.CompressionNone)

	require.Equal(t, 3, b.NumSamples())
	require.False(t, b.Invalid())
}

func TestBlock_PartialTrailingSample(t *testing.T) {
	p := mustParser(t, "<3h")
	payload := append(int16Payload(1, 2, 3, 4, 5, 6), 0xAB) // 6.5 scalars

	b := newBlock(1, 0, 10, payload, p, format.CompressionNone)

	require.Equal(t, 2, b.NumSamples(), "complete leading samples survive")
	require.True(t, b.Invalid())

	values, err := b.Decode(nil)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6}, values)
}

func TestBlock_SampleTimeInterpolation(t *testing.T) {
	p := mustParser(t, "<h")
	b := newBlock(1, 100, 130, int16Payload(0, 1, 2, 3), p, format.CompressionNone)

	require.Equal(t, int64(100), b.SampleTime(0))
	require.Equal(t, int64(110), b.SampleTime(1))
	require.Equal(t, int64(120), b.SampleTime(2))
	require.Equal(t, int64(130), b.SampleTime(3))
	require.Equal(t, int64(130), b.SampleTime(99), "clamped to last sample")
}

func TestBlock_SampleIndexAt(t *testing.T) {
	p := mustParser(t, "<h")
	b := newBlock(1, 100, 130, int16Payload(0, 1, 2, 3), p, format.CompressionNone)

	require.Equal(t, 0, b.sampleIndexAt(50))
	require.Equal(t, 0, b.sampleIndexAt(100))
	require.Equal(t, 0, b.sampleIndexAt(109))
	require.Equal(t, 1, b.sampleIndexAt(110))
	require.Equal(t, 2, b.sampleIndexAt(129))
	require.Equal(t, 3, b.sampleIndexAt(500))
}

func TestBlock_Summaries(t *testing.T) {
	p := mustParser(t, "<2h")
	b := newBlock(1, 0, 20, int16Payload(
		10, -5,
		20, -10,
		30, -15,
	), p, format.CompressionNone)

	summaries, err := b.Summaries()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	require.Equal(t, Summary{Min: 10, Mean: 20, Max: 30}, summaries[0])
	require.Equal(t, Summary{Min: -15, Mean: -10, Max: -5}, summaries[1])

	// Cached: same backing array on second call.
	again, err := b.Summaries()
	require.NoError(t, err)
	require.Same(t, &summaries[0], &again[0])

	_, err = b.Summary(5)
	require.ErrorIs(t, err, ErrAxisRange)
}

func TestBlock_EmptyPayloadSummary(t *testing.T) {
	p := mustParser(t, "<h")
	b := newBlock(1, 0, 0, nil, p, format.CompressionNone)

	require.Equal(t, 0, b.NumSamples())
	_, err := b.Summaries()
	require.ErrorIs(t, err, ErrNoSamples)
}

func TestBlock_CompressedPayload(t *testing.T) {
	raw := int16Payload(100, 200, 300, 400)

	for _, ct := range []format.CompressionType{
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := compress.GetCodec(ct)
			require.NoError(t, err)
			packed, err := codec.Compress(raw)
			require.NoError(t, err)

			p := mustParser(t, "<h")
			b := newBlock(1, 0, 30, packed, p, ct)

			require.Equal(t, 4, b.NumSamples())
			require.False(t, b.Invalid())

			values, err := b.Decode(nil)
			require.NoError(t, err)
			require.Equal(t, []float64{100, 200, 300, 400}, values)
		})
	}
}

func TestBlock_CorruptCompressedPayload(t *testing.T) {
	p := mustParser(t, "<h")
	b := newBlock(1, 0, 0, []byte{0xDE, 0xAD, 0xBE, 0xEF}, p, format.CompressionZstd)

	require.Equal(t, 0, b.NumSamples())
	require.True(t, b.Invalid())

	_, err := b.Decode(nil)
	require.Error(t, err)
}
