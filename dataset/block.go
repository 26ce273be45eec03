package dataset

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/varanine/daqfile/compress"
	"github.com/varanine/daqfile/format"
	"github.com/varanine/daqfile/internal/pool"
)

// Summary is a per-axis min/mean/max triple over one block's raw
// sample codes. Summaries describe raw values; calibration applies
// only on read.
type Summary struct {
	Min  float64
	Mean float64
	Max  float64
}

// Block holds one data-block element's worth of consecutive samples
// for one channel within one session. The payload bytes are retained
// as stored in the file (possibly compressed); samples are decoded on
// demand and never cached, while the derived sample count and the
// per-axis summaries are computed once.
//
// A published Block is immutable and safe for concurrent readers.
type Block struct {
	channelID   int
	index       int
	startTime   int64
	endTime     int64
	payload     []byte
	parser      *SampleParser
	compression format.CompressionType

	countOnce  sync.Once
	numSamples int
	invalid    bool
	countErr   error

	summaryOnce sync.Once
	summaries   []Summary
	summaryErr  error
}

func newBlock(channelID int, start, end int64, payload []byte, parser *SampleParser, compression format.CompressionType) *Block {
	if end < start {
		end = start
	}
	return &Block{
		channelID:   channelID,
		startTime:   start,
		endTime:     end,
		payload:     payload,
		parser:      parser,
		compression: compression,
	}
}

// ChannelID returns the id of the channel the block belongs to.
func (b *Block) ChannelID() int {
	return b.channelID
}

// Index returns the block's ordinal position within its EventList.
func (b *Block) Index() int {
	return b.index
}

// StartTime returns the corrected absolute tick of the first sample.
func (b *Block) StartTime() int64 {
	return b.startTime
}

// EndTime returns the corrected absolute tick of the last sample. For
// blocks recorded without an end time code it equals StartTime.
func (b *Block) EndTime() int64 {
	return b.endTime
}

// PayloadSize returns the stored payload length in bytes, before any
// decompression.
func (b *Block) PayloadSize() int {
	return len(b.payload)
}

// rawPayload returns the sample bytes, decompressing when the channel
// declares a compressed payload encoding.
func (b *Block) rawPayload() ([]byte, error) {
	if b.compression == format.CompressionNone || b.compression == 0 {
		return b.payload, nil
	}

	codec, err := compress.GetCodec(b.compression)
	if err != nil {
		return nil, err
	}

	data, err := codec.Decompress(b.payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress block payload for channel %d: %w", b.channelID, err)
	}

	return data, nil
}

func (b *Block) count() {
	b.countOnce.Do(func() {
		data, err := b.rawPayload()
		if err != nil {
			b.countErr = err
			b.invalid = true
			return
		}

		n, exact := b.parser.Count(len(data))
		b.numSamples = n
		b.invalid = !exact
	})
}

// NumSamples returns the number of complete samples in the payload.
// A trailing partial sample is excluded, not an error.
func (b *Block) NumSamples() int {
	b.count()
	return b.numSamples
}

// Invalid reports whether the payload carries a partial trailing
// sample or could not be decompressed. The complete leading samples
// remain usable either way.
func (b *Block) Invalid() bool {
	b.count()
	return b.invalid
}

// SampleTime returns the absolute tick of sample i, interpolated
// linearly between the block's start and end time codes.
func (b *Block) SampleTime(i int) int64 {
	n := b.NumSamples()
	if n <= 1 || i <= 0 {
		return b.startTime
	}
	if i >= n {
		i = n - 1
	}
	return b.startTime + int64(i)*(b.endTime-b.startTime)/int64(n-1)
}

// sampleIndexAt returns the greatest sample index whose time does not
// exceed t, or 0 when t precedes the block.
func (b *Block) sampleIndexAt(t int64) int {
	n := b.NumSamples()
	if n <= 1 || t <= b.startTime || b.endTime == b.startTime {
		return 0
	}
	if t >= b.endTime {
		return n - 1
	}
	i := int((t - b.startTime) * int64(n-1) / (b.endTime - b.startTime))
	// Integer rounding can land one sample high.
	for i > 0 && b.SampleTime(i) > t {
		i--
	}
	return i
}

// Decode parses every complete sample, appending Arity raw values per
// sample to dst.
func (b *Block) Decode(dst []float64) ([]float64, error) {
	data, err := b.rawPayload()
	if err != nil {
		return dst, err
	}

	dst, _ = b.parser.ParseAll(dst, data)
	return dst, nil
}

// Summaries returns one raw-value Summary per axis, computed over the
// decoded sample array on first call and cached.
func (b *Block) Summaries() ([]Summary, error) {
	b.summaryOnce.Do(func() {
		n := b.NumSamples()
		if b.countErr != nil {
			b.summaryErr = b.countErr
			return
		}
		if n == 0 {
			b.summaryErr = ErrNoSamples
			return
		}

		arity := b.parser.Arity()
		values, release := pool.GetFloat64Slice(0)
		defer release()

		values, err := b.Decode(values)
		if err != nil {
			b.summaryErr = err
			return
		}

		column, releaseCol := pool.GetFloat64Slice(n)
		defer releaseCol()

		b.summaries = make([]Summary, arity)
		for axis := range arity {
			for i := range n {
				column[i] = values[i*arity+axis]
			}
			b.summaries[axis] = Summary{
				Min:  floats.Min(column[:n]),
				Mean: stat.Mean(column[:n], nil),
				Max:  floats.Max(column[:n]),
			}
		}
	})

	return b.summaries, b.summaryErr
}

// Summary returns the cached raw-value summary for one axis.
func (b *Block) Summary(axis int) (Summary, error) {
	summaries, err := b.Summaries()
	if err != nil {
		return Summary{}, err
	}
	if axis < 0 || axis >= len(summaries) {
		return Summary{}, fmt.Errorf("%w: axis %d of %d", ErrAxisRange, axis, len(summaries))
	}
	return summaries[axis], nil
}
