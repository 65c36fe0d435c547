// Package prescaler implements the AVR timer clock prescaler and the per-timer
// clock-select multiplexer.
//
// The prescaler is a free running 10-bit counter stepped once per CPU cycle.
// Each timer owns a Multiplexer that turns the timer's CSn2:0 bits into a tap
// on the shared prescaler (or an edge on the external Tn pin) and reports
// whether a count pulse is due on the current cycle.
package prescaler

// Divider values are taps on the 10-bit prescaler counter.
const counterMask = 0x3FF

// Special tap values.
const (
	Stopped         uint16 = 0
	ExternalFalling uint16 = 0xFFFE
	ExternalRising  uint16 = 0xFFFF
)

// Taps maps a clock-select value (index 0-7) to a divider.
type Taps [8]uint16

// SyncTaps are the taps of timer 0 and timer 1 on every supported device.
var SyncTaps = Taps{Stopped, 1, 8, 64, 256, 1024, ExternalFalling, ExternalRising}

// AsyncTaps are the taps of the asynchronous timer 2 prescaler.
var AsyncTaps = Taps{Stopped, 1, 8, 32, 64, 128, 256, 1024}

// Prescaler is the shared clock divider.
type Prescaler struct {
	count uint16
}

// New creates a prescaler at count zero.
func New() *Prescaler {
	return &Prescaler{}
}

// Step advances the prescaler by one CPU cycle.
func (p *Prescaler) Step() {
	p.count = (p.count + 1) & counterMask
}

// Reset clears the prescaler (PSR10/PSRSYNC/PSRASY).
func (p *Prescaler) Reset() {
	p.count = 0
}

// Count returns the current prescaler value.
func (p *Prescaler) Count() uint16 {
	return p.count
}

// SetCount is used when restoring a snapshot.
func (p *Prescaler) SetCount(count uint16) {
	p.count = count & counterMask
}

// Source is the external clock pin (Tn).
type Source interface {
	Level() bool
}

// Multiplexer selects the tick source for one timer.
type Multiplexer struct {
	prescaler *Prescaler
	taps      Taps
	external  Source

	// level of the Tn pin on the previous query
	externalLast bool
}

// NewMultiplexer creates a multiplexer on p. The external source may be nil
// if the timer has no Tn pin, in which case the external clock selections
// never tick.
func NewMultiplexer(p *Prescaler, taps Taps, external Source) *Multiplexer {
	if p == nil {
		panic("prescaler: multiplexer needs a prescaler")
	}
	return &Multiplexer{
		prescaler: p,
		taps:      taps,
		external:  external,
	}
}

// TickDue reports whether the timer clocked by cs counts on this cycle. It
// must be queried exactly once per cycle, after the prescaler has been
// stepped, so that the external pin edge detector sees every sample.
func (m *Multiplexer) TickDue(cs uint8) bool {
	level := m.external != nil && m.external.Level()
	last := m.externalLast
	m.externalLast = level

	switch tap := m.taps[cs&0x07]; tap {
	case Stopped:
		return false
	case ExternalFalling:
		return last && !level
	case ExternalRising:
		return !last && level
	default:
		return m.prescaler.count%tap == 0
	}
}

// Divider returns the divider for cs, or zero for stopped and external
// clock selections.
func (m *Multiplexer) Divider(cs uint8) uint16 {
	switch tap := m.taps[cs&0x07]; tap {
	case ExternalFalling, ExternalRising:
		return 0
	default:
		return tap
	}
}

// Sampled returns the external pin level seen on the previous query.
func (m *Multiplexer) Sampled() bool {
	return m.externalLast
}

// SetSampled is used when restoring a snapshot.
func (m *Multiplexer) SetSampled(level bool) {
	m.externalLast = level
}
