package dataset

// Sensor is a descriptive grouping of channels sharing one physical
// transducer, carrying its name and traceability metadata.
type Sensor struct {
	id           int
	name         string
	traceability string
	channels     []*Channel
}

// ID returns the sensor id, unique within its dataset.
func (s *Sensor) ID() int {
	return s.id
}

// Name returns the sensor's display name.
func (s *Sensor) Name() string {
	return s.name
}

// Traceability returns the sensor's calibration traceability record,
// or an empty string when the recording carries none.
func (s *Sensor) Traceability() string {
	return s.traceability
}

// Channels returns the channels attached to this sensor, in
// registration order.
func (s *Sensor) Channels() []*Channel {
	return s.channels
}
