package timer

import (
	"fmt"

	"github.com/richardwooding/avrsim/internal/logger"
)

// Unit is one timer/counter: the counter, its compare units, the optional
// input capture unit and the waveform generation mode.
type Unit struct {
	name        string
	layout      Layout
	classic     bool
	fastSyncTop bool

	prescaler Prescaler
	irq       InterruptLine
	lines     Lines

	counter    Counter
	compare    []*CompareUnit
	capture    *InputCapture
	capturePin InputPin

	wgm        WGM
	pendingWGM WGM
	hasPending bool
	wgmBits    uint8 // raw WGM bits as last written through the control registers

	cs uint8

	// set by a counter write; the next timer clock does not compare
	blockCompare bool
}

// New builds a timer unit. It panics on configuration errors, which are
// programming errors in the device profile.
func New(cfg Config) *Unit {
	if cfg.Prescaler == nil {
		panic(fmt.Sprintf("timer: %s: nil prescaler", cfg.Name))
	}
	if !cfg.Layout.valid() {
		panic(fmt.Sprintf("timer: %s: unknown layout %d", cfg.Name, cfg.Layout))
	}

	u := &Unit{
		name:        cfg.Name,
		layout:      cfg.Layout,
		classic:     cfg.Classic,
		fastSyncTop: cfg.FastPWMSyncAtTop,
		prescaler:   cfg.Prescaler,
		irq:         cfg.IRQ,
		lines:       cfg.Lines,
		counter:     newCounter(cfg.Layout.Bits()),
	}
	if u.irq == nil {
		u.irq = noIRQ{}
	}

	for i := 0; i < MaxChannels; i++ {
		out := cfg.Outputs[i]
		if i >= cfg.Layout.Channels() {
			if out != nil {
				panic(fmt.Sprintf("timer: %s: output for channel %d, layout %s has %d channels",
					cfg.Name, i, cfg.Layout, cfg.Layout.Channels()))
			}
			continue
		}
		letter := string(rune('A' + i))
		if c, ok := out.(claimer); ok {
			if err := c.Claim(cfg.Name + " OC" + letter); err != nil {
				panic(fmt.Sprintf("timer: %s: %v", cfg.Name, err))
			}
		}
		u.compare = append(u.compare, newCompareUnit(letter, cfg.Layout.Bits(), out, cfg.Lines.Compare[i]))
	}

	if cfg.Layout.HasCapture() {
		u.capture = newInputCapture(&u.counter, u.irq, cfg.Lines.Capture)
		u.capturePin = cfg.CapturePin
	}

	u.Reset()
	return u
}

// Name returns the unit name.
func (u *Unit) Name() string {
	return u.name
}

// Layout returns the control register layout.
func (u *Unit) Layout() Layout {
	return u.layout
}

// Bits returns the counter width.
func (u *Unit) Bits() int {
	return u.layout.Bits()
}

// Channels returns the number of output compare units.
func (u *Unit) Channels() int {
	return len(u.compare)
}

// Counter returns TCNTn.
func (u *Unit) Counter() uint16 {
	return u.counter.value
}

// Previous returns the counter value before the most recent timer clock.
func (u *Unit) Previous() uint16 {
	return u.counter.last
}

// CountingDown reports the counting direction.
func (u *Unit) CountingDown() bool {
	return u.counter.down
}

// Max returns MAX for the counter width.
func (u *Unit) Max() uint16 {
	return u.counter.max
}

// Top returns the current TOP.
func (u *Unit) Top() uint16 {
	switch u.wgm.Top {
	case TopCompareA:
		return u.compare[0].active
	case TopCapture:
		return u.capture.register
	}
	if u.wgm.Mode != Normal && u.wgm.Fixed != 0 {
		return u.wgm.Fixed
	}
	return u.counter.max
}

// WGM returns the active waveform generation mode.
func (u *Unit) WGM() WGM {
	return u.wgm
}

// PendingWGM returns a mode change waiting for the next synchronization
// point.
func (u *Unit) PendingWGM() (WGM, bool) {
	return u.pendingWGM, u.hasPending
}

// SetWGM selects a waveform generation mode. With the clock running the
// change waits for the current mode's synchronization point.
func (u *Unit) SetWGM(w WGM) {
	if u.cs == 0 {
		u.applyWGM(w)
		return
	}
	if w == u.wgm {
		u.hasPending = false
		return
	}
	u.pendingWGM = w
	u.hasPending = true
}

func (u *Unit) applyWGM(w WGM) {
	u.wgm = w
	u.hasPending = false
	if !w.Mode.dualSlope() {
		u.counter.down = false
	}
	for i, c := range u.compare {
		c.buffered = w.Mode.IsPWM()
		if !c.buffered {
			c.sync()
		}
		c.connect(u.connected(i))
	}
}

func (u *Unit) applyPending() {
	if u.hasPending {
		u.applyWGM(u.pendingWGM)
	}
}

// ClockSelect returns CSn2:0.
func (u *Unit) ClockSelect() uint8 {
	return u.cs
}

// SetClockSelect writes CSn2:0. Stopping the clock applies a pending mode
// change.
func (u *Unit) SetClockSelect(cs uint8) {
	u.cs = cs & 0x07
	if u.cs == 0 {
		u.applyPending()
	}
}

// SetCounter writes TCNTn. The write blocks compare matches on the next
// timer clock and applies a pending mode change.
func (u *Unit) SetCounter(v uint16) {
	u.counter.set(v)
	u.blockCompare = true
	u.applyPending()
}

// Compare returns compare unit ch.
func (u *Unit) Compare(ch int) *CompareUnit {
	return u.compare[ch]
}

// SetThreshold writes OCRnx.
func (u *Unit) SetThreshold(ch int, v uint16) {
	u.compare[ch].SetThreshold(v)
}

// SetPolicy writes COMnx1:0.
func (u *Unit) SetPolicy(ch int, p Policy) {
	c := u.compare[ch]
	c.policy = p & 0x03
	c.connect(u.connected(ch))
}

// ForceCompare strobes FOCnx. The policy is applied as on a compare match
// but no flag is raised. Ignored in the PWM modes.
func (u *Unit) ForceCompare(ch int) {
	if u.wgm.Mode.IsPWM() {
		return
	}
	u.compare[ch].applyMatch()
}

// Capture returns the input capture unit, or nil.
func (u *Unit) Capture() *InputCapture {
	return u.capture
}

// SetCaptureRegister writes ICRn. The register is writable only in modes
// that use it as TOP.
func (u *Unit) SetCaptureRegister(v uint16) {
	if u.capture == nil {
		return
	}
	if u.wgm.Top != TopCapture && !(u.hasPending && u.pendingWGM.Top == TopCapture) {
		return
	}
	u.capture.register = v & u.counter.max
}

func (u *Unit) toggleAllowed(ch int) bool {
	return ch == 0 && u.wgm.Top == TopCompareA
}

func (u *Unit) connected(ch int) bool {
	p := u.compare[ch].policy
	if p == NoOp {
		return false
	}
	return !(u.wgm.Mode.IsPWM() && p == Toggle && !u.toggleAllowed(ch))
}

func (u *Unit) raise(line int) {
	if line != NoLine {
		u.irq.RaiseFlag(line)
	}
}

// Advance runs one CPU cycle: the capture pin is sampled and, if the
// prescaler delivers a tick, the counter counts.
func (u *Unit) Advance() {
	if u.capture != nil && u.capturePin != nil {
		u.capture.OnEdge(Polarity(u.capturePin.Level()))
	}
	if u.prescaler.TickDue(u.cs) {
		u.count()
	}
}

// Tick counts one timer clock without consulting the prescaler.
func (u *Unit) Tick() {
	u.count()
}

func (u *Unit) count() {
	for _, c := range u.compare {
		c.applyDeferred()
	}

	prev := u.counter.value
	r := u.wgm.Mode.step(prev, u.counter.down, u.Top(), u.counter.max)

	// the double buffers load on the clock that leaves the sync point, so
	// the sync point itself is compared against the new thresholds
	synced := r.events&u.syncEvents() != 0
	if synced {
		for _, c := range u.compare {
			c.sync()
		}
	}

	if !u.blockCompare {
		for i, c := range u.compare {
			// the channel that defines TOP matched the TOP this clock ends,
			// whatever was just loaded into it
			if c.Evaluate(prev) || (i == 0 && u.wgm.Top == TopCompareA && r.events&EventTop != 0) {
				r.events |= compareEvent(i)
			}
		}
	}
	u.blockCompare = false

	u.counter.advance(r)
	u.dispatch(r)

	// events were decoded in the old mode, so a pending mode waits until
	// they are dispatched
	if synced {
		u.applyPending()
	}
}

func (u *Unit) dispatch(r stepResult) {
	ev := r.events
	switch u.wgm.Mode {
	case Normal, CTC:
		if ev&EventMax != 0 {
			u.raise(u.lines.Overflow)
		}
		if ev&EventTop != 0 && u.wgm.Mode == CTC && u.wgm.Top == TopCapture {
			u.raise(u.lines.Capture)
		}
		for i, c := range u.compare {
			if ev&compareEvent(i) != 0 {
				u.raise(c.line)
				c.applyMatch()
			}
		}

	case FastPWM:
		if ev&EventTop != 0 {
			u.raise(u.lines.Overflow)
			if u.wgm.Top == TopCapture {
				u.raise(u.lines.Capture)
			}
		}
		for i, c := range u.compare {
			matched := ev&compareEvent(i) != 0
			if matched {
				u.raise(c.line)
			}
			switch {
			case matched && ev&EventBottom != 0:
				if c.policy == Toggle {
					c.matchPWM(false, u.toggleAllowed(i))
				} else {
					// match at BOTTOM shows as a one clock pulse
					c.bottomPWM()
					c.deferred = true
				}
			case ev&EventBottom != 0:
				c.bottomPWM()
			case matched && ev&EventTop != 0 && c.policy != Toggle:
				// the BOTTOM action on the next clock overrides
			case matched:
				c.matchPWM(false, u.toggleAllowed(i))
			}
		}

	case PhaseCorrectPWM, PhaseFrequencyCorrectPWM:
		if ev&EventBottom != 0 {
			u.raise(u.lines.Overflow)
		}
		if ev&EventTop != 0 && u.wgm.Top == TopCapture {
			u.raise(u.lines.Capture)
		}
		for i, c := range u.compare {
			if ev&compareEvent(i) != 0 {
				u.raise(c.line)
				c.matchPWM(r.down, u.toggleAllowed(i))
			}
		}
	}
}

// syncEvents returns the events at which the double buffers update and a
// pending mode change applies.
func (u *Unit) syncEvents() Event {
	switch u.wgm.Mode {
	case Normal:
		return EventMax
	case CTC:
		return EventTop | EventMax
	case FastPWM:
		if u.fastSyncTop {
			return EventTop
		}
		return EventBottom
	case PhaseCorrectPWM:
		return EventTop
	case PhaseFrequencyCorrectPWM:
		return EventBottom
	}
	return 0
}

// Reset returns the unit to its power-on state. Flags owned by the unit are
// acknowledged.
func (u *Unit) Reset() {
	u.counter.value = 0
	u.counter.last = 0
	u.counter.down = false
	for _, c := range u.compare {
		c.reset()
	}
	if u.capture != nil {
		u.capture.reset()
	}
	u.wgm = WGM{Mode: Normal}
	u.pendingWGM = WGM{}
	u.hasPending = false
	u.wgmBits = 0
	u.cs = 0
	u.blockCompare = false

	for _, line := range u.ownLines() {
		u.irq.AckFlag(line)
	}
}

func (u *Unit) ownLines() []int {
	var lines []int
	add := func(l int) {
		if l != NoLine {
			lines = append(lines, l)
		}
	}
	add(u.lines.Overflow)
	for _, c := range u.compare {
		add(c.line)
	}
	if u.capture != nil {
		add(u.lines.Capture)
	}
	return lines
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s: TCNT=%d TOP=%d %s CS=%d", u.name, u.counter.value, u.Top(), u.wgm, u.cs)
}

// State is the saved state of a timer unit.
type State struct {
	Counter      uint16
	Last         uint16
	Down         bool
	WGM          WGM
	PendingWGM   WGM
	HasPending   bool
	WGMBits      uint8
	ClockSelect  uint8
	BlockCompare bool
	Compare      [MaxChannels]CompareState
	Capture      CaptureState
}

// Snapshot returns the unit state.
func (u *Unit) Snapshot() State {
	s := State{
		Counter:      u.counter.value,
		Last:         u.counter.last,
		Down:         u.counter.down,
		WGM:          u.wgm,
		PendingWGM:   u.pendingWGM,
		HasPending:   u.hasPending,
		WGMBits:      u.wgmBits,
		ClockSelect:  u.cs,
		BlockCompare: u.blockCompare,
	}
	for i, c := range u.compare {
		s.Compare[i] = c.snapshot()
	}
	if u.capture != nil {
		s.Capture = u.capture.snapshot()
	}
	return s
}

// runnable reports whether the unit can count in w.
func (u *Unit) runnable(w WGM) bool {
	switch {
	case w.Mode > PhaseFrequencyCorrectPWM, w.Top > TopCapture:
		return false
	case w.Mode == Normal && w.Top != TopFixed:
		return false
	case w.Top == TopCompareA && len(u.compare) == 0:
		return false
	case w.Top == TopCapture && u.capture == nil:
		return false
	}
	return w.Fixed <= u.counter.max
}

// Restore loads a state returned by Snapshot. Connected output pins are
// driven to the restored levels. A mode the unit cannot run is replaced by
// the mode decoded from the saved WGM bits, and such a pending mode is
// dropped.
func (u *Unit) Restore(s State) {
	u.counter.set(s.Counter)
	u.counter.last = s.Last & u.counter.max
	u.counter.down = s.Down
	u.wgm = s.WGM
	if !u.runnable(s.WGM) {
		u.wgm, _ = DecodeWGM(u.layout, u.classic, s.WGMBits)
		logger.Logf(u.name, "restored mode %s invalid, using %s", s.WGM, u.wgm)
	}
	if !u.wgm.Mode.dualSlope() {
		u.counter.down = false
	}
	u.pendingWGM = s.PendingWGM
	u.hasPending = s.HasPending
	if u.hasPending && !u.runnable(s.PendingWGM) {
		logger.Logf(u.name, "restored pending mode %s invalid, dropped", s.PendingWGM)
		u.pendingWGM = WGM{}
		u.hasPending = false
	}
	u.wgmBits = s.WGMBits
	u.cs = s.ClockSelect & 0x07
	u.blockCompare = s.BlockCompare
	for i, c := range u.compare {
		c.restore(s.Compare[i])
	}
	if u.capture != nil {
		u.capture.restore(s.Capture)
	}
}
