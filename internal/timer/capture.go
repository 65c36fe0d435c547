package timer

// Polarity is the level presented by the capture pin, and so the edge that
// level completes.
type Polarity bool

// Capture edges (ICESn).
const (
	Falling Polarity = false
	Rising  Polarity = true
)

func (p Polarity) String() string {
	if p {
		return "Rising"
	}
	return "Falling"
}

// samples needed by the noise canceller before a level change is accepted
const noiseCancelSamples = 4

// InputCapture is the ICRn register and its edge detector.
type InputCapture struct {
	counter *Counter
	irq     InterruptLine
	line    int

	register uint16
	latched  Polarity // edge that produced the value in register

	edge        Polarity // ICESn
	noiseCancel bool     // ICNCn

	level Polarity // filtered pin level
	count uint8    // consecutive samples that disagree with level
}

func newInputCapture(counter *Counter, irq InterruptLine, line int) *InputCapture {
	return &InputCapture{
		counter: counter,
		irq:     irq,
		line:    line,
	}
}

// OnEdge is fed the polarity of the capture pin on every CPU cycle. It
// returns true when a capture commits: the counter is latched into ICRn and
// the capture flag raised.
//
// With the noise canceller enabled a new polarity must be seen on four
// consecutive samples; any sample that agrees with the current level starts
// the count again from zero.
func (c *InputCapture) OnEdge(p Polarity) bool {
	if p == c.level {
		c.count = 0
		return false
	}

	if c.noiseCancel {
		c.count++
		if c.count < noiseCancelSamples {
			return false
		}
		c.count = 0
	}

	c.level = p
	if p != c.edge {
		return false
	}

	c.register = c.counter.value
	c.latched = p
	if c.line != NoLine {
		c.irq.RaiseFlag(c.line)
	}
	return true
}

// Register returns ICRn.
func (c *InputCapture) Register() uint16 {
	return c.register
}

// Latched returns the edge that produced the current ICRn value.
func (c *InputCapture) Latched() Polarity {
	return c.latched
}

// Edge returns the selected capture edge.
func (c *InputCapture) Edge() Polarity {
	return c.edge
}

// SetEdge selects the capture edge.
func (c *InputCapture) SetEdge(p Polarity) {
	c.edge = p
}

// NoiseCancel reports whether the noise canceller is enabled.
func (c *InputCapture) NoiseCancel() bool {
	return c.noiseCancel
}

// SetNoiseCancel enables or disables the noise canceller. Disabling it
// drops any partial count.
func (c *InputCapture) SetNoiseCancel(enabled bool) {
	c.noiseCancel = enabled
	if !enabled {
		c.count = 0
	}
}

func (c *InputCapture) reset() {
	c.register = 0
	c.latched = Falling
	c.edge = Falling
	c.noiseCancel = false
	c.level = Falling
	c.count = 0
}

// CaptureState is the saved state of an input capture unit.
type CaptureState struct {
	Register    uint16
	Latched     Polarity
	Edge        Polarity
	NoiseCancel bool
	Level       Polarity
	Count       uint8
}

func (c *InputCapture) snapshot() CaptureState {
	return CaptureState{
		Register:    c.register,
		Latched:     c.latched,
		Edge:        c.edge,
		NoiseCancel: c.noiseCancel,
		Level:       c.level,
		Count:       c.count,
	}
}

func (c *InputCapture) restore(s CaptureState) {
	c.register = s.Register
	c.latched = s.Latched
	c.edge = s.Edge
	c.noiseCancel = s.NoiseCancel
	c.level = s.Level
	c.count = s.Count
}
