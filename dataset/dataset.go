package dataset

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/varanine/daqfile/ebml"
	"github.com/varanine/daqfile/format"
	"github.com/varanine/daqfile/internal/hash"
	"github.com/varanine/daqfile/transform"
)

// RecorderProperties carries the recording device's identity block.
type RecorderProperties struct {
	TypeUID     uint64
	Serial      uint64
	Name        string
	ProductName string
	HwRev       uint64
	FwRev       uint64
	DateCreated time.Time
}

// Dataset is the top-level view over one opened recording: sensors,
// channels, sessions, the calibration transform registry, and the
// document the blocks are read from. It owns the byte source's
// lifetime.
type Dataset struct {
	doc    *ebml.Document
	closer io.Closer

	transforms *transform.Registry

	mu             sync.RWMutex
	props          RecorderProperties
	timeBase       time.Time
	sensors        map[int]*Sensor
	channels       map[int]*Channel
	channelsByName map[uint64]*Channel
	sessions       []*Session

	fileDamaged   atomic.Bool
	loadCancelled atomic.Bool
	loading       atomic.Bool
	closed        atomic.Bool
}

// New creates an empty dataset over a parsed document. closer, when
// non-nil, is invoked by Close to release the underlying byte source.
func New(doc *ebml.Document, closer io.Closer) *Dataset {
	return &Dataset{
		doc:            doc,
		closer:         closer,
		transforms:     transform.NewRegistry(),
		sensors:        make(map[int]*Sensor),
		channels:       make(map[int]*Channel),
		channelsByName: make(map[uint64]*Channel),
	}
}

// Document returns the underlying element tree.
func (d *Dataset) Document() *ebml.Document {
	return d.doc
}

// Transforms returns the dataset's calibration registry.
func (d *Dataset) Transforms() *transform.Registry {
	return d.transforms
}

// Properties returns the recorder identity block.
func (d *Dataset) Properties() RecorderProperties {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.props
}

// SetProperties stores the recorder identity block. Import path only.
func (d *Dataset) SetProperties(p RecorderProperties) {
	d.mu.Lock()
	d.props = p
	d.mu.Unlock()
}

// TimeBaseUTC returns the wall-clock anchor of device tick zero, or
// the zero time when the recording carries none.
func (d *Dataset) TimeBaseUTC() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.timeBase
}

// SetTimeBaseUTC stores the tick-zero anchor. Import path only.
func (d *Dataset) SetTimeBaseUTC(t time.Time) {
	d.mu.Lock()
	d.timeBase = t
	d.mu.Unlock()
}

// AddSensor registers a sensor. Import path only.
func (d *Dataset) AddSensor(id int, name, traceability string) (*Sensor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.sensors[id]; ok {
		return nil, fmt.Errorf("%w: sensor %d", ErrDuplicateID, id)
	}

	s := &Sensor{id: id, name: name, traceability: traceability}
	d.sensors[id] = s
	return s, nil
}

// Sensor returns the sensor with the given id.
func (d *Dataset) Sensor(id int) (*Sensor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sensors[id]
	return s, ok
}

// Sensors returns all sensors ordered by id.
func (d *Dataset) Sensors() []*Sensor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Sensor, 0, len(d.sensors))
	for _, s := range d.sensors {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Sensor) int { return a.id - b.id })
	return out
}

// SubChannelConfig declares one scalar component of a channel.
// TransformHandle is the axis's effective calibration handle; callers
// resolving the recording's element stream fill in the channel-level
// handle when an axis declares none of its own.
type SubChannelConfig struct {
	Name            string
	Units           string
	TransformHandle int
	RangeLow        float64
	RangeHigh       float64
	WarningLow      float64
	WarningHigh     float64
	HasWarningRange bool
}

// ChannelConfig declares one channel. Layout is the payload layout
// string compiled by NewSampleParser. A SensorID below zero means the
// channel is not attached to a sensor.
type ChannelConfig struct {
	ID              int
	Name            string
	SensorID        int
	Layout          string
	TransformHandle int
	Compression     format.CompressionType
	TickModulus     int64
	SubChannels     []SubChannelConfig
}

// AddChannel registers a channel and its sub-channels. When
// sub-channels are declared their count must equal the parser's
// values-per-sample arity. Import path only.
func (d *Dataset) AddChannel(cfg ChannelConfig) (*Channel, error) {
	parser, err := NewSampleParser(cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("channel %d: %w", cfg.ID, err)
	}
	if len(cfg.SubChannels) > 0 && len(cfg.SubChannels) != parser.Arity() {
		return nil, fmt.Errorf("channel %d: %w: %d sub-channels, arity %d",
			cfg.ID, ErrArityMismatch, len(cfg.SubChannels), parser.Arity())
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.channels[cfg.ID]; ok {
		return nil, fmt.Errorf("%w: channel %d", ErrDuplicateID, cfg.ID)
	}

	var sensor *Sensor
	if cfg.SensorID >= 0 {
		s, ok := d.sensors[cfg.SensorID]
		if !ok {
			return nil, fmt.Errorf("channel %d: %w: %d", cfg.ID, ErrUnknownSensor, cfg.SensorID)
		}
		sensor = s
	}

	c := &Channel{
		id:          cfg.ID,
		name:        cfg.Name,
		sensor:      sensor,
		parser:      parser,
		compression: cfg.Compression,
		tickModulus: cfg.TickModulus,
		dataset:     d,
		transform:   cfg.TransformHandle,
		sessions:    make(map[int]*EventList),
	}
	for i, sub := range cfg.SubChannels {
		c.subChannels = append(c.subChannels, &SubChannel{
			id:          i,
			name:        sub.Name,
			units:       sub.Units,
			channel:     c,
			transform:   sub.TransformHandle,
			rangeLow:    sub.RangeLow,
			rangeHigh:   sub.RangeHigh,
			warningLow:  sub.WarningLow,
			warningHigh: sub.WarningHigh,
			hasWarning:  sub.HasWarningRange,
		})
	}

	d.channels[cfg.ID] = c
	d.channelsByName[hash.ID(cfg.Name)] = c
	if sensor != nil {
		sensor.channels = append(sensor.channels, c)
	}
	return c, nil
}

// Channel returns the channel with the given id.
func (d *Dataset) Channel(id int) (*Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.channels[id]
	return c, ok
}

// ChannelByName returns the channel with the given display name.
func (d *Dataset) ChannelByName(name string) (*Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.channelsByName[hash.ID(name)]
	return c, ok
}

// Channels returns all channels ordered by id.
func (d *Dataset) Channels() []*Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Channel, 0, len(d.channels))
	for _, c := range d.channels {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Channel) int { return a.id - b.id })
	return out
}

// StartSession opens a new recording session; it becomes the current
// one. Import path only.
func (d *Dataset) StartSession(id int, startTime int64, utcStart time.Time) *Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := newSession(id, startTime, utcStart)
	d.sessions = append(d.sessions, s)
	return s
}

// EndSession freezes the end time of the session with the given id.
func (d *Dataset) EndSession(id int, endTime int64) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, s := range d.sessions {
		if s.id == id {
			s.end(endTime)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownSession, id)
}

// Session returns the session with the given id.
func (d *Dataset) Session(id int) (*Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, s := range d.sessions {
		if s.id == id {
			return s, true
		}
	}
	return nil, false
}

// Sessions returns the sessions in recording order.
func (d *Dataset) Sessions() []*Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.sessions)
}

// CurrentSession returns the most recently started session, or nil
// when the recording declares none.
func (d *Dataset) CurrentSession() *Session {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.sessions) == 0 {
		return nil
	}
	return d.sessions[len(d.sessions)-1]
}

// FileDamaged reports whether structural damage was found while
// reading; the data parsed before the damage remains queryable.
func (d *Dataset) FileDamaged() bool {
	return d.fileDamaged.Load()
}

// MarkFileDamaged records that the recording is structurally damaged.
func (d *Dataset) MarkFileDamaged() {
	d.fileDamaged.Store(true)
}

// LoadCancelled reports whether the data-reading phase was cancelled;
// blocks appended before the cancellation remain queryable.
func (d *Dataset) LoadCancelled() bool {
	return d.loadCancelled.Load()
}

// MarkLoadCancelled records a cancelled data-reading phase.
func (d *Dataset) MarkLoadCancelled() {
	d.loadCancelled.Store(true)
}

// Loading reports whether a data-reading phase is in progress.
func (d *Dataset) Loading() bool {
	return d.loading.Load()
}

// SetLoading flips the loading flag. Import path only.
func (d *Dataset) SetLoading(v bool) {
	d.loading.Store(v)
}

// Close releases the underlying byte source. Queries against decoded
// blocks keep working; further document reads fail.
func (d *Dataset) Close() error {
	if d.closed.Swap(true) {
		return ErrClosed
	}
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// invalidateDependentsOf bumps the generation of every registered
// transform that calibrates against the given channel, so caches keyed
// on transform generations recompute.
func (d *Dataset) invalidateDependentsOf(channelID int) {
	for _, h := range d.transforms.Handles() {
		tr, ok := d.transforms.Get(h)
		if !ok {
			continue
		}
		if bv, ok := tr.(transform.Bivariate); ok && bv.Ref.Channel == channelID {
			d.transforms.Invalidate(h)
		}
	}
}

// maxReferenceDepth bounds how many reference hops a calibration may
// take. Registration rejects cycles among transforms, but re-pointing
// a channel at a transform that references the channel itself closes a
// loop through the channel binding that the registry never sees; the
// depth bound turns that loop into an error instead of unbounded
// recursion.
const maxReferenceDepth = 32

// sessionResolver serves bivariate reference lookups: the calibrated
// value of a reference sub-channel at the nearest preceding timestamp
// within one session.
type sessionResolver struct {
	ds        *Dataset
	sessionID int
	depth     int
}

func (d *Dataset) resolver(sessionID int) transform.Resolver {
	return sessionResolver{ds: d, sessionID: sessionID}
}

// ReferenceValue returns the calibrated value of the referenced axis
// at the greatest sample time not after t; before the first sample the
// first sample's value is used.
func (r sessionResolver) ReferenceValue(ref transform.SubChannelRef, t int64) (float64, error) {
	if r.depth >= maxReferenceDepth {
		return 0, fmt.Errorf("%w: reference chain through channel %d exceeds %d hops",
			transform.ErrCycle, ref.Channel, maxReferenceDepth)
	}

	ch, ok := r.ds.Channel(ref.Channel)
	if !ok {
		return 0, fmt.Errorf("reference channel %d not found", ref.Channel)
	}

	arity := ch.parser.Arity()
	if ref.Sub < 0 || ref.Sub >= arity {
		return 0, fmt.Errorf("%w: reference axis %d of %d on channel %d",
			ErrAxisRange, ref.Sub, arity, ref.Channel)
	}

	el, ok := ch.Session(r.sessionID)
	if !ok {
		return 0, fmt.Errorf("reference channel %d has no data in session %d", ref.Channel, r.sessionID)
	}

	blocks := el.Blocks()
	if len(blocks) == 0 {
		return 0, fmt.Errorf("reference channel %d has no blocks in session %d", ref.Channel, r.sessionID)
	}

	// Last block starting at or before t; before the first block the
	// first block's first sample applies.
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
	if idx >= len(blocks) || (idx > 0 && blocks[idx].StartTime() > t) {
		idx--
	}
	if idx < 0 {
		idx = 0
	}

	b := blocks[idx]
	if b.NumSamples() == 0 {
		return 0, fmt.Errorf("reference block %d of channel %d holds no samples", idx, ref.Channel)
	}

	raw, err := b.Decode(nil)
	if err != nil {
		return 0, err
	}

	i := b.sampleIndexAt(t)
	x := raw[i*arity+ref.Sub]

	// Calibrate through the reference axis's own transform; the depth
	// bound above stops chains that loop back through a re-pointed
	// channel binding.
	next := sessionResolver{ds: r.ds, sessionID: r.sessionID, depth: r.depth + 1}
	return r.ds.transforms.Eval(ch.axisTransform(ref.Sub), x, b.SampleTime(i), next)
}
