package dataset

import (
	"sync"
	"time"
)

// Session is one contiguous recording interval. Its start time is in
// device clock units; the UTC start, when the recorder had a valid
// clock, anchors device ticks to wall time. The end time stays unset
// until the session footer is seen.
type Session struct {
	id        int
	startTime int64
	utcStart  time.Time

	mu      sync.Mutex
	endTime int64
	ended   bool
}

func newSession(id int, startTime int64, utcStart time.Time) *Session {
	return &Session{id: id, startTime: startTime, utcStart: utcStart}
}

// ID returns the session id.
func (s *Session) ID() int {
	return s.id
}

// StartTime returns the session start in device clock units.
func (s *Session) StartTime() int64 {
	return s.startTime
}

// UTCStart returns the wall-clock start, or the zero time when the
// recorder had no valid clock.
func (s *Session) UTCStart() time.Time {
	return s.utcStart
}

// EndTime returns the session end in device clock units. ok is false
// while the session is still open.
func (s *Session) EndTime() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endTime, s.ended
}

// end freezes the session's end time. Later calls are ignored.
func (s *Session) end(t int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		s.endTime = t
		s.ended = true
	}
}
