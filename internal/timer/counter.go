package timer

// Counter is the TCNTn register.
type Counter struct {
	value uint16
	last  uint16 // value before the most recent count
	down  bool   // counting direction for the dual slope modes
	max   uint16 // MAX, also the width mask
}

func newCounter(bits int) Counter {
	mask := uint32(1)<<bits - 1
	return Counter{max: uint16(mask)}
}

// Value returns the current count.
func (c *Counter) Value() uint16 {
	return c.value
}

// Last returns the count before the most recent timer clock.
func (c *Counter) Last() uint16 {
	return c.last
}

// Down reports whether the counter is counting down.
func (c *Counter) Down() bool {
	return c.down
}

// Max returns MAX for the counter width.
func (c *Counter) Max() uint16 {
	return c.max
}

func (c *Counter) set(v uint16) {
	c.value = v & c.max
}

func (c *Counter) advance(r stepResult) {
	c.last = c.value
	c.value = r.next & c.max
	c.down = r.down
}
