package dataset

// TickCorrector reconstructs a monotonically non-decreasing absolute
// tick stream from a narrow, wrapping hardware counter. One corrector
// serves one channel within one session; feeding it the same raw
// stream from the start always yields the same output.
//
// The correction keeps a running offset of whole moduli. Each raw tick
// has the offset added; while the result still lies before the last
// emitted tick, another full modulus is folded in and remembered, so a
// counter that wrapped several times between observations is always
// folded forward, never backward.
type TickCorrector struct {
	modulus int64
	offset  int64
	last    int64
	primed  bool
}

// NewTickCorrector creates a corrector for a counter that wraps at
// modulus ticks. A modulus of zero or less disables correction and
// passes raw ticks through unchanged.
func NewTickCorrector(modulus int64) *TickCorrector {
	return &TickCorrector{modulus: modulus}
}

// Modulus returns the counter's wrap period in ticks.
func (c *TickCorrector) Modulus() int64 {
	return c.modulus
}

// Correct maps one raw counter value to its absolute tick. Calls must
// be made in stream order; the result sequence is non-decreasing.
func (c *TickCorrector) Correct(raw int64) int64 {
	if c.modulus <= 0 {
		return raw
	}

	v := raw + c.offset
	if c.primed {
		for v < c.last {
			v += c.modulus
			c.offset += c.modulus
		}
	}

	c.primed = true
	c.last = v

	return v
}

// Reset discards accumulated state so the corrector can replay a
// stream from its beginning.
func (c *TickCorrector) Reset() {
	c.offset = 0
	c.last = 0
	c.primed = false
}
