package dataset

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSampleParser_Layouts(t *testing.T) {
	tests := []struct {
		layout     string
		arity      int
		sampleSize int
	}{
		{"<3h", 3, 6},
		{">hhh", 3, 6},
		{"B", 1, 1},
		{"<hHf", 3, 8},
		{"d", 1, 8},
		{"<2i2f", 4, 16},
		{"!q", 1, 8},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			p, err := NewSampleParser(tt.layout)
			require.NoError(t, err)
			require.Equal(t, tt.arity, p.Arity())
			require.Equal(t, tt.sampleSize, p.SampleSize())
			require.Equal(t, tt.layout, p.Layout())
		})
	}
}

func TestNewSampleParser_Invalid(t *testing.T) {
	for _, layout := range []string{"", "<", "3", "<3", "x", "<3hx"} {
		t.Run(layout, func(t *testing.T) {
			_, err := NewSampleParser(layout)
			require.ErrorIs(t, err, ErrBadLayout)
		})
	}
}

func TestSampleParser_ParseSampleLittleEndian(t *testing.T) {
	p, err := NewSampleParser("<3h")
	require.NoError(t, err)

	data := make([]byte, 6)
	binary.LittleEndian.PutUint16(data[0:], uint16(0x0102))
	binary.LittleEndian.PutUint16(data[2:], uint16(65535)) // -1 as int16
	binary.LittleEndian.PutUint16(data[4:], uint16(32767))

	out := make([]float64, 3)
	require.NoError(t, p.ParseSample(data, out))
	require.Equal(t, []float64{258, -1, 32767}, out)
}

func TestSampleParser_ParseSampleBigEndianDefault(t *testing.T) {
	p, err := NewSampleParser("hH")
	require.NoError(t, err)

	data := []byte{0xFF, 0xFE, 0x01, 0x00}
	out := make([]float64, 2)
	require.NoError(t, p.ParseSample(data, out))
	require.Equal(t, []float64{-2, 256}, out)
}

func TestSampleParser_Floats(t *testing.T) {
	p, err := NewSampleParser("<fd")
	require.NoError(t, err)

	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:], math.Float32bits(1.5))
	binary.LittleEndian.PutUint64(data[4:], math.Float64bits(-2.25))

	out := make([]float64, 2)
	require.NoError(t, p.ParseSample(data, out))
	require.Equal(t, []float64{1.5, -2.25}, out)
}

func TestSampleParser_ShortBuffer(t *testing.T) {
	p, err := NewSampleParser("<3h")
	require.NoError(t, err)

	err = p.ParseSample([]byte{1, 2, 3}, make([]float64, 3))
	require.ErrorIs(t, err, ErrShortSample)
}

func TestSampleParser_Count(t *testing.T) {
	p, err := NewSampleParser("<3h")
	require.NoError(t, err)

	n, exact := p.Count(18)
	require.Equal(t, 3, n)
	require.True(t, exact)

	n, exact = p.Count(20)
	require.Equal(t, 3, n, "partial trailing sample excluded")
	require.False(t, exact)
}

func TestSampleParser_ParseAll(t *testing.T) {
	p, err := NewSampleParser("<h")
	require.NoError(t, err)

	data := make([]byte, 6)
	for i, v := range []int16{10, -20, 30} {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}

	values, n := p.ParseAll(nil, data)
	require.Equal(t, 3, n)
	require.Equal(t, []float64{10, -20, 30}, values)

	// A trailing partial sample is ignored.
	values, n = p.ParseAll(nil, append(data, 0x7F))
	require.Equal(t, 3, n)
	require.Len(t, values, 3)
}
