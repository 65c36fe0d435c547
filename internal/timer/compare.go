package timer

import "fmt"

// Policy is the compare output mode (COMnx1:0).
type Policy uint8

// Compare output modes. The meaning of Clear and Set in the PWM modes is
// "clear on up-count match" and "set on up-count match".
const (
	NoOp Policy = iota
	Toggle
	Clear
	Set
)

func (p Policy) String() string {
	switch p {
	case NoOp:
		return "NoOp"
	case Toggle:
		return "Toggle"
	case Clear:
		return "Clear"
	case Set:
		return "Set"
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// CompareUnit is one output compare channel: OCRnx and the OCnx waveform
// generator.
type CompareUnit struct {
	name string

	pending uint16 // OCRnx as written by the bus
	active  uint16 // value used for comparison
	mask    uint16

	// buffered is set in the PWM modes; pending is copied to active only at
	// the mode's synchronization point
	buffered bool

	policy    Policy
	connected bool
	output    bool // OCnx, kept even while the pin is disconnected
	pin       OutputPin
	line      int

	// a match action held back by one timer clock
	deferred bool
}

func newCompareUnit(name string, bits int, pin OutputPin, line int) *CompareUnit {
	return &CompareUnit{
		name: name,
		mask: newCounter(bits).max,
		pin:  pin,
		line: line,
	}
}

// Name returns the channel letter.
func (c *CompareUnit) Name() string {
	return c.name
}

// SetThreshold writes OCRnx. In the PWM modes the value becomes visible to
// the comparator only at the next synchronization point.
func (c *CompareUnit) SetThreshold(v uint16) {
	c.pending = v & c.mask
	if !c.buffered {
		c.active = c.pending
	}
}

// Threshold returns OCRnx as seen by the bus.
func (c *CompareUnit) Threshold() uint16 {
	return c.pending
}

// Active returns the value the comparator currently uses.
func (c *CompareUnit) Active() uint16 {
	return c.active
}

// Evaluate reports whether the counter value matches the active threshold.
func (c *CompareUnit) Evaluate(v uint16) bool {
	return v == c.active
}

// Policy returns the compare output mode.
func (c *CompareUnit) Policy() Policy {
	return c.policy
}

// Output returns the OCnx state.
func (c *CompareUnit) Output() bool {
	return c.output
}

// Connected reports whether the waveform generator drives the pin.
func (c *CompareUnit) Connected() bool {
	return c.connected
}

func (c *CompareUnit) sync() {
	c.active = c.pending
}

func (c *CompareUnit) connect(connected bool) {
	was := c.connected
	c.connected = connected && c.pin != nil
	if c.connected && !was {
		c.pin.SetLevel(c.output)
	}
}

func (c *CompareUnit) setOutput(level bool) {
	c.output = level
	if c.connected {
		c.pin.SetLevel(level)
	}
}

// applyMatch is the non-PWM compare match action. It is also the action of
// a forced compare.
func (c *CompareUnit) applyMatch() {
	switch c.policy {
	case Toggle:
		c.setOutput(!c.output)
	case Clear:
		c.setOutput(false)
	case Set:
		c.setOutput(true)
	}
}

// matchPWM is the PWM compare match action. down is the counting direction
// after the match; fast PWM always counts up.
func (c *CompareUnit) matchPWM(down, toggle bool) {
	switch c.policy {
	case Toggle:
		if toggle {
			c.setOutput(!c.output)
		}
	case Clear:
		c.setOutput(down)
	case Set:
		c.setOutput(!down)
	}
}

// bottomPWM is the fast PWM action at BOTTOM.
func (c *CompareUnit) bottomPWM() {
	switch c.policy {
	case Clear:
		c.setOutput(true)
	case Set:
		c.setOutput(false)
	}
}

func (c *CompareUnit) applyDeferred() {
	if c.deferred {
		c.deferred = false
		c.matchPWM(false, false)
	}
}

func (c *CompareUnit) reset() {
	c.pending = 0
	c.active = 0
	c.buffered = false
	c.policy = NoOp
	c.connected = false
	c.output = false
	c.deferred = false
}

// CompareState is the saved state of a compare unit.
type CompareState struct {
	Pending   uint16
	Active    uint16
	Buffered  bool
	Policy    Policy
	Connected bool
	Output    bool
	Deferred  bool
}

func (c *CompareUnit) snapshot() CompareState {
	return CompareState{
		Pending:   c.pending,
		Active:    c.active,
		Buffered:  c.buffered,
		Policy:    c.policy,
		Connected: c.connected,
		Output:    c.output,
		Deferred:  c.deferred,
	}
}

func (c *CompareUnit) restore(s CompareState) {
	c.pending = s.Pending & c.mask
	c.active = s.Active & c.mask
	c.buffered = s.Buffered
	c.policy = s.Policy
	c.connected = s.Connected && c.pin != nil
	c.output = s.Output
	c.deferred = s.Deferred
	if c.connected {
		c.pin.SetLevel(c.output)
	}
}
