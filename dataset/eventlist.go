package dataset

import (
	"iter"
	"slices"
	"sync"

	"github.com/varanine/daqfile/internal/options"
)

// Sample is one calibrated sample tuple: an absolute tick and one
// physical-unit value per axis.
type Sample struct {
	Time   int64
	Values []float64
}

// querySettings collects view-time adjustments applied to query
// results. Adjustments never touch cached raw data.
type querySettings struct {
	removeSessionMean bool
	rollingSpan       int
}

// QueryOption adjusts how Slice and Resample present their results.
type QueryOption = options.Option[*querySettings]

// WithMeanRemoval subtracts the whole-session per-axis mean from every
// returned value. The session mean is derived from cached block
// summaries, calibrated at each block's start time.
func WithMeanRemoval() QueryOption {
	return options.NoError(func(s *querySettings) {
		s.removeSessionMean = true
	})
}

// WithRollingMeanRemoval subtracts a trailing moving average with the
// given span in samples from every returned value. A span below two
// disables rolling removal.
func WithRollingMeanRemoval(span int) QueryOption {
	return options.NoError(func(s *querySettings) {
		s.rollingSpan = span
	})
}

// EventList holds the time-ordered block sequence of one channel
// within one session and answers range and resampling queries over it.
//
// Append is single-producer; the published block slice is guarded so
// concurrent readers always observe a fully appended prefix. Query
// results are snapshots: a query racing an import sees the blocks
// appended so far, never a partially written one.
type EventList struct {
	channel   *Channel
	sessionID int
	corrector *TickCorrector

	mu     sync.RWMutex
	blocks []*Block
}

func newEventList(c *Channel, sessionID int) *EventList {
	return &EventList{
		channel:   c,
		sessionID: sessionID,
		corrector: NewTickCorrector(c.tickModulus),
	}
}

// Channel returns the owning channel.
func (el *EventList) Channel() *Channel {
	return el.channel
}

// SessionID returns the id of the session the list belongs to.
func (el *EventList) SessionID() int {
	return el.sessionID
}

// append publishes one block at the end of the list. Blocks arrive in
// non-decreasing start-time order, the invariant the search below
// relies on.
func (el *EventList) append(b *Block) {
	el.mu.Lock()
	b.index = len(el.blocks)
	el.blocks = append(el.blocks, b)
	el.mu.Unlock()
}

// Blocks returns a snapshot of the published block sequence.
func (el *EventList) Blocks() []*Block {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.blocks[:len(el.blocks):len(el.blocks)]
}

// Len returns the published block count.
func (el *EventList) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.blocks)
}

// SampleCount returns the total complete samples across published
// blocks.
func (el *EventList) SampleCount() int {
	total := 0
	for _, b := range el.Blocks() {
		total += b.NumSamples()
	}
	return total
}

// Span returns the absolute tick range covered by published blocks.
// ok is false for an empty list.
func (el *EventList) Span() (start, end int64, ok bool) {
	blocks := el.Blocks()
	if len(blocks) == 0 {
		return 0, 0, false
	}
	return blocks[0].StartTime(), blocks[len(blocks)-1].EndTime(), true
}

// SampleRateEstimate returns the mean sample rate in samples per tick,
// derived from reconstructed block timestamps. Zero when the list is
// empty or spans no time.
func (el *EventList) SampleRateEstimate() float64 {
	blocks := el.Blocks()
	if len(blocks) == 0 {
		return 0
	}

	samples := 0
	for _, b := range blocks {
		samples += b.NumSamples()
	}
	span := blocks[len(blocks)-1].EndTime() - blocks[0].StartTime()
	if span <= 0 || samples == 0 {
		return 0
	}
	return float64(samples) / float64(span)
}

// searchBlock returns the index of the first block whose time range
// contains or follows t within the snapshot. ok is false when every
// block ends before t.
func searchBlock(blocks []*Block, t int64) (int, bool) {
	idx, _ := slices.BinarySearchFunc(blocks, t, func(b *Block, t int64) int {
		switch {
		case b.StartTime() < t:
			return -1
		case b.StartTime() > t:
			return 1
		default:
			return 0
		}
	})
	if idx > 0 && blocks[idx-1].EndTime() >= t {
		idx--
	}
	return idx, idx < len(blocks)
}

// BlockAt returns the first published block whose range contains or
// follows t. ok is false when t lies past the end of the data.
func (el *EventList) BlockAt(t int64) (*Block, bool) {
	blocks := el.Blocks()
	idx, ok := searchBlock(blocks, t)
	if !ok {
		return nil, false
	}
	return blocks[idx], true
}

// calibrate maps one raw tuple to physical units in place.
func (el *EventList) calibrate(values []float64, t int64) error {
	ds := el.channel.dataset
	res := ds.resolver(el.sessionID)
	for axis := range values {
		y, err := ds.transforms.Eval(el.channel.axisTransform(axis), values[axis], t, res)
		if err != nil {
			return err
		}
		values[axis] = y
	}
	return nil
}

// Slice returns the calibrated samples whose reconstructed timestamp
// lies in [t0, t1), in time order. Only blocks intersecting the range
// are decoded. A range outside all blocks yields an empty, non-error
// result.
func (el *EventList) Slice(t0, t1 int64, opts ...QueryOption) ([]Sample, error) {
	settings := &querySettings{}
	if err := options.Apply(settings, opts...); err != nil {
		return nil, err
	}

	blocks := el.Blocks()
	if len(blocks) == 0 || t1 <= t0 {
		return nil, nil
	}

	idx, ok := searchBlock(blocks, t0)
	if !ok {
		return nil, nil
	}

	arity := el.channel.parser.Arity()
	var out []Sample
	for _, b := range blocks[idx:] {
		if b.StartTime() >= t1 {
			break
		}
		if b.EndTime() < t0 {
			continue
		}

		raw, err := b.Decode(nil)
		if err != nil {
			return nil, err
		}

		n := b.NumSamples()
		for i := range n {
			t := b.SampleTime(i)
			if t < t0 || t >= t1 {
				continue
			}

			values := make([]float64, arity)
			copy(values, raw[i*arity:(i+1)*arity])
			if err := el.calibrate(values, t); err != nil {
				return nil, err
			}
			out = append(out, Sample{Time: t, Values: values})
		}
	}

	if err := el.applyMeanRemoval(out, settings); err != nil {
		return nil, err
	}
	return out, nil
}

// sessionMeans returns the per-axis calibrated session mean, weighted
// by block sample counts, from cached block summaries.
func (el *EventList) sessionMeans() ([]float64, error) {
	blocks := el.Blocks()
	arity := el.channel.parser.Arity()
	means := make([]float64, arity)
	weights := make([]float64, arity)

	ds := el.channel.dataset
	res := ds.resolver(el.sessionID)

	for _, b := range blocks {
		n := b.NumSamples()
		if n == 0 {
			continue
		}
		summaries, err := b.Summaries()
		if err != nil {
			return nil, err
		}
		for axis := range arity {
			y, err := ds.transforms.Eval(el.channel.axisTransform(axis), summaries[axis].Mean, b.StartTime(), res)
			if err != nil {
				return nil, err
			}
			means[axis] += y * float64(n)
			weights[axis] += float64(n)
		}
	}

	for axis := range means {
		if weights[axis] > 0 {
			means[axis] /= weights[axis]
		}
	}
	return means, nil
}

// applyMeanRemoval adjusts calibrated samples per the query settings.
// Session removal subtracts a constant per axis; rolling removal
// subtracts a trailing moving average per axis.
func (el *EventList) applyMeanRemoval(samples []Sample, settings *querySettings) error {
	if len(samples) == 0 {
		return nil
	}

	if settings.removeSessionMean {
		means, err := el.sessionMeans()
		if err != nil {
			return err
		}
		for _, s := range samples {
			for axis := range s.Values {
				s.Values[axis] -= means[axis]
			}
		}
	}

	if span := settings.rollingSpan; span >= 2 {
		arity := len(samples[0].Values)
		sums := make([]float64, arity)
		for i := range samples {
			for axis := range arity {
				sums[axis] += samples[i].Values[axis]
				if i >= span {
					sums[axis] -= samples[i-span].Values[axis]
				}
			}
			window := float64(min(i+1, span))
			for axis := range arity {
				samples[i].Values[axis] -= sums[axis] / window
			}
		}
	}

	return nil
}

// Resample yields at most target calibrated samples covering [t0, t1)
// as a lazy, restartable sequence. Blocks falling entirely inside one
// output bucket contribute their cached summary mean without being
// decoded again; partially covered blocks are decoded. When target
// meets or exceeds the raw sample count in range the raw samples are
// yielded instead.
//
// Decode errors end the sequence early; callers needing exact data use
// Slice.
func (el *EventList) Resample(t0, t1 int64, target int, opts ...QueryOption) iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		settings := &querySettings{}
		if options.Apply(settings, opts...) != nil {
			return
		}

		blocks := el.Blocks()
		if len(blocks) == 0 || t1 <= t0 || target <= 0 {
			return
		}

		start, end, _ := el.Span()
		t0 = max(t0, start)
		t1 = min(t1, end+1)
		if t1 <= t0 {
			return
		}

		idx, ok := searchBlock(blocks, t0)
		if !ok {
			return
		}

		inRange := 0
		for _, b := range blocks[idx:] {
			if b.StartTime() >= t1 {
				break
			}
			inRange += b.NumSamples()
		}

		if target >= inRange {
			samples, err := el.Slice(t0, t1, opts...)
			if err != nil {
				return
			}
			for _, s := range samples {
				if !yield(s) {
					return
				}
			}
			return
		}

		var adjust []float64
		if settings.removeSessionMean {
			means, err := el.sessionMeans()
			if err != nil {
				return
			}
			adjust = means
		}

		arity := el.channel.parser.Arity()
		width := float64(t1-t0) / float64(target)

		// Decoded samples of the block currently straddling a bucket
		// boundary, kept across buckets to decode each block once.
		var decoded []float64
		var decodedBlock *Block

		for bucket := range target {
			bt0 := t0 + int64(float64(bucket)*width)
			bt1 := t0 + int64(float64(bucket+1)*width)
			if bucket == target-1 {
				bt1 = t1
			}
			if bt1 <= bt0 {
				continue
			}

			sums := make([]float64, arity)
			count := 0

			bidx, ok := searchBlock(blocks, bt0)
			if !ok {
				break
			}
			for _, b := range blocks[bidx:] {
				if b.StartTime() >= bt1 {
					break
				}
				if b.EndTime() < bt0 || b.NumSamples() == 0 {
					continue
				}

				if b.StartTime() >= bt0 && b.EndTime() < bt1 {
					summaries, err := b.Summaries()
					if err != nil {
						return
					}
					n := b.NumSamples()
					for axis := range arity {
						sums[axis] += summaries[axis].Mean * float64(n)
					}
					count += n
					continue
				}

				if decodedBlock != b {
					var err error
					decoded, err = b.Decode(decoded[:0])
					if err != nil {
						return
					}
					decodedBlock = b
				}
				n := b.NumSamples()
				for i := range n {
					t := b.SampleTime(i)
					if t < bt0 || t >= bt1 {
						continue
					}
					for axis := range arity {
						sums[axis] += decoded[i*arity+axis]
					}
					count++
				}
			}

			if count == 0 {
				continue
			}

			mid := bt0 + (bt1-bt0)/2
			values := make([]float64, arity)
			for axis := range arity {
				values[axis] = sums[axis] / float64(count)
			}
			if el.calibrate(values, mid) != nil {
				return
			}
			for axis := range values {
				if adjust != nil {
					values[axis] -= adjust[axis]
				}
			}

			if !yield(Sample{Time: mid, Values: values}) {
				return
			}
		}
	}
}
