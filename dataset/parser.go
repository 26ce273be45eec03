package dataset

import (
	"fmt"
	"math"

	"github.com/varanine/daqfile/endian"
)

// fieldSpec describes one scalar value inside a sample.
type fieldSpec struct {
	code byte
	size int
}

// SampleParser decodes a channel's raw payload bytes into numeric
// sample tuples according to a declarative layout string.
//
// The layout is an optional byte-order prefix followed by one or more
// fields, each an optional repeat count and a type code:
//
//	<     little-endian (default is big-endian, '>' accepted)
//	b, B  signed / unsigned 8-bit integer
//	h, H  signed / unsigned 16-bit integer
//	i, I  signed / unsigned 32-bit integer (l/L accepted)
//	q, Q  signed / unsigned 64-bit integer
//	f, d  IEEE 754 single / double
//
// "<3h" describes a little-endian sample of three signed 16-bit
// values, six bytes per sample, arity three. All decoded values are
// widened to float64; 64-bit integers beyond 2^53 lose precision,
// which is acceptable for sensor codes.
type SampleParser struct {
	layout     string
	fields     []fieldSpec
	sampleSize int
	engine     endian.EndianEngine
}

// NewSampleParser compiles a layout string. The layout must describe
// at least one field.
func NewSampleParser(layout string) (*SampleParser, error) {
	p := &SampleParser{
		layout: layout,
		engine: endian.GetBigEndianEngine(),
	}

	i := 0
	if i < len(layout) {
		switch layout[i] {
		case '<':
			p.engine = endian.GetLittleEndianEngine()
			i++
		case '>', '!':
			i++
		}
	}

	for i < len(layout) {
		count := 0
		for i < len(layout) && layout[i] >= '0' && layout[i] <= '9' {
			count = count*10 + int(layout[i]-'0')
			i++
		}
		if count == 0 {
			count = 1
		}
		if i >= len(layout) {
			return nil, fmt.Errorf("%w: %q ends with a bare repeat count", ErrBadLayout, layout)
		}

		code := layout[i]
		size, ok := fieldSize(code)
		if !ok {
			return nil, fmt.Errorf("%w: %q has unsupported type code %q", ErrBadLayout, layout, code)
		}
		i++

		for range count {
			p.fields = append(p.fields, fieldSpec{code: code, size: size})
			p.sampleSize += size
		}
	}

	if len(p.fields) == 0 {
		return nil, fmt.Errorf("%w: %q declares no fields", ErrBadLayout, layout)
	}

	return p, nil
}

func fieldSize(code byte) (int, bool) {
	switch code {
	case 'b', 'B':
		return 1, true
	case 'h', 'H':
		return 2, true
	case 'i', 'I', 'l', 'L', 'f':
		return 4, true
	case 'q', 'Q', 'd':
		return 8, true
	default:
		return 0, false
	}
}

// Layout returns the layout string the parser was compiled from.
func (p *SampleParser) Layout() string {
	return p.layout
}

// SampleSize returns the number of payload bytes one sample occupies.
func (p *SampleParser) SampleSize() int {
	return p.sampleSize
}

// Arity returns the number of scalar values per sample.
func (p *SampleParser) Arity() int {
	return len(p.fields)
}

// Count derives the sample count of a payload. exact is false when the
// payload length is not a whole multiple of the sample size; the
// trailing partial sample is excluded from the count.
func (p *SampleParser) Count(payloadLen int) (n int, exact bool) {
	return payloadLen / p.sampleSize, payloadLen%p.sampleSize == 0
}

// ParseSample decodes one sample starting at data[0] into out, which
// must have length of at least Arity.
func (p *SampleParser) ParseSample(data []byte, out []float64) error {
	if len(data) < p.sampleSize {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortSample, p.sampleSize, len(data))
	}

	off := 0
	for i, f := range p.fields {
		out[i] = p.decodeField(f, data[off:])
		off += f.size
	}

	return nil
}

func (p *SampleParser) decodeField(f fieldSpec, data []byte) float64 {
	switch f.code {
	case 'b':
		return float64(int8(data[0]))
	case 'B':
		return float64(data[0])
	case 'h':
		return float64(int16(p.engine.Uint16(data)))
	case 'H':
		return float64(p.engine.Uint16(data))
	case 'i', 'l':
		return float64(int32(p.engine.Uint32(data)))
	case 'I', 'L':
		return float64(p.engine.Uint32(data))
	case 'q':
		return float64(int64(p.engine.Uint64(data)))
	case 'Q':
		return float64(p.engine.Uint64(data))
	case 'f':
		return float64(math.Float32frombits(p.engine.Uint32(data)))
	default: // 'd'
		return math.Float64frombits(p.engine.Uint64(data))
	}
}

// ParseAll decodes every complete sample in payload, appending
// Arity values per sample to dst. It returns the extended slice and
// the number of complete samples decoded.
func (p *SampleParser) ParseAll(dst []float64, payload []byte) ([]float64, int) {
	n, _ := p.Count(len(payload))
	arity := p.Arity()

	off := 0
	scratch := make([]float64, arity)
	for range n {
		// Error impossible: off+sampleSize <= len(payload) by construction.
		_ = p.ParseSample(payload[off:], scratch)
		dst = append(dst, scratch...)
		off += p.sampleSize
	}

	return dst, n
}
