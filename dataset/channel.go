package dataset

import (
	"fmt"
	"slices"
	"sync"

	"github.com/varanine/daqfile/format"
)

// Channel is one logical measurement stream: a payload parser, a
// calibration transform handle, zero or more scalar sub-channels, and
// one EventList per session holding the channel's blocks.
//
// Structure is frozen after header parsing; only block append mutates
// a channel afterwards.
type Channel struct {
	id          int
	name        string
	sensor      *Sensor
	parser      *SampleParser
	compression format.CompressionType
	tickModulus int64
	subChannels []*SubChannel
	dataset     *Dataset

	mu        sync.RWMutex
	transform int
	sessions  map[int]*EventList
}

// SubChannel exposes one scalar component (axis) of its parent
// channel: its own calibration transform, display range, units, and
// optional warning thresholds. It shares the parent's parser, blocks,
// and sessions.
type SubChannel struct {
	id      int
	name    string
	units   string
	channel *Channel

	rangeLow, rangeHigh     float64
	warningLow, warningHigh float64
	hasWarning              bool

	mu        sync.RWMutex
	transform int
}

// ID returns the channel id, unique within the dataset.
func (c *Channel) ID() int {
	return c.id
}

// Name returns the channel's display name.
func (c *Channel) Name() string {
	return c.name
}

// Sensor returns the sensor this channel measures through, or nil.
func (c *Channel) Sensor() *Sensor {
	return c.sensor
}

// Parser returns the channel's payload parser.
func (c *Channel) Parser() *SampleParser {
	return c.parser
}

// Compression returns the payload encoding of the channel's blocks.
func (c *Channel) Compression() format.CompressionType {
	return c.compression
}

// TickModulus returns the wrap period of the channel's time codes, or
// zero for a counter wide enough never to wrap.
func (c *Channel) TickModulus() int64 {
	return c.tickModulus
}

// SubChannels returns the channel's scalar components in axis order.
// An empty result means the channel is queried as a whole tuple.
func (c *Channel) SubChannels() []*SubChannel {
	return c.subChannels
}

// SubChannel returns the component at the given axis index.
func (c *Channel) SubChannel(axis int) (*SubChannel, error) {
	if axis < 0 || axis >= len(c.subChannels) {
		return nil, fmt.Errorf("%w: axis %d of %d", ErrAxisRange, axis, len(c.subChannels))
	}
	return c.subChannels[axis], nil
}

// Transform returns the channel-level calibration handle. Axes with
// their own transform override it.
func (c *Channel) Transform() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transform
}

// SetTransform re-points the channel at a different registered
// transform and invalidates every transform that calibrates against
// this channel, so downstream consumers keyed on registry generations
// recompute.
func (c *Channel) SetTransform(handle int) {
	c.mu.Lock()
	c.transform = handle
	c.mu.Unlock()

	c.dataset.invalidateDependentsOf(c.id)
}

// axisTransform returns the effective calibration handle for one axis.
func (c *Channel) axisTransform(axis int) int {
	if axis >= 0 && axis < len(c.subChannels) {
		return c.subChannels[axis].Transform()
	}
	return c.Transform()
}

// Session returns the channel's EventList for one session id. ok is
// false when the channel recorded nothing in that session.
func (c *Channel) Session(sessionID int) (*EventList, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	el, ok := c.sessions[sessionID]
	return el, ok
}

// SessionIDs returns the ids of the sessions this channel has blocks
// in, ascending.
func (c *Channel) SessionIDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]int, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// eventList returns the EventList for a session, creating it on first
// use. Creation happens on the import path only.
func (c *Channel) eventList(sessionID int) *EventList {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.sessions[sessionID]
	if !ok {
		el = newEventList(c, sessionID)
		c.sessions[sessionID] = el
	}
	return el
}

// AppendBlock decodes one data-block element's fields into a Block and
// appends it to the channel's EventList for the session. Raw time
// codes are folded through the per-session tick corrector; hasEnd is
// false when the block carried no end time code.
//
// AppendBlock is the import producer's entry point; it must be called
// from a single goroutine per channel.
func (c *Channel) AppendBlock(sessionID int, rawStart, rawEnd int64, hasEnd bool, payload []byte) *Block {
	el := c.eventList(sessionID)

	start := el.corrector.Correct(rawStart)
	end := start
	if hasEnd {
		end = el.corrector.Correct(rawEnd)
	}

	b := newBlock(c.id, start, end, payload, c.parser, c.compression)
	el.append(b)
	return b
}

// ID returns the axis index within the parent channel.
func (sc *SubChannel) ID() int {
	return sc.id
}

// Name returns the sub-channel's display name.
func (sc *SubChannel) Name() string {
	return sc.name
}

// Units returns the engineering units of calibrated values.
func (sc *SubChannel) Units() string {
	return sc.units
}

// Channel returns the parent channel.
func (sc *SubChannel) Channel() *Channel {
	return sc.channel
}

// Range returns the display range of calibrated values.
func (sc *SubChannel) Range() (low, high float64) {
	return sc.rangeLow, sc.rangeHigh
}

// WarningRange returns the validity-annotation thresholds. ok is false
// when the recording defines none; thresholds are never enforced here.
func (sc *SubChannel) WarningRange() (low, high float64, ok bool) {
	return sc.warningLow, sc.warningHigh, sc.hasWarning
}

// Transform returns the axis calibration handle.
func (sc *SubChannel) Transform() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.transform
}

// SetTransform re-points the axis at a different registered transform,
// invalidating transforms that reference the parent channel.
func (sc *SubChannel) SetTransform(handle int) {
	sc.mu.Lock()
	sc.transform = handle
	sc.mu.Unlock()

	sc.channel.dataset.invalidateDependentsOf(sc.channel.id)
}

// Session returns the parent channel's EventList for one session.
func (sc *SubChannel) Session(sessionID int) (*EventList, bool) {
	return sc.channel.Session(sessionID)
}
