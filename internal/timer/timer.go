// Package timer implements the AVR timer/counter units.
//
// A timer unit consists of:
//   - TCNTn: the counter, 8 or 16 bits wide
//   - OCRnA/B/C: zero to three output compare units, each double buffered
//     and driving an OCnx output pin
//   - ICRn: an optional input capture unit with a four sample noise canceller
//   - TCCRnA/B/C: control registers, laid out differently per device family
//
// The counter is clocked by a prescaler multiplexer and counts in one of five
// waveform generation modes: Normal, CTC, fast PWM, phase correct PWM and
// phase and frequency correct PWM. Events are detected on the value the
// counter held for the whole of the previous timer clock, so an event for
// value N fires on the tick that moves the counter off N.
//
// The owning device calls Advance once per CPU cycle. Register access goes
// through a Facade, which reproduces the byte-wide bus view including the
// high byte temporary register of the 16-bit units.
package timer

// NoLine marks an event that has no interrupt line.
const NoLine = -1

// MaxChannels is the largest number of output compare units in a timer.
const MaxChannels = 3

// Prescaler supplies count pulses for a clock-select value.
type Prescaler interface {
	// TickDue is queried once per CPU cycle and reports whether the
	// counter should count on this cycle.
	TickDue(cs uint8) bool
}

// InterruptLine receives the flags raised by a timer.
type InterruptLine interface {
	RaiseFlag(line int)
	AckFlag(line int)
}

// OutputPin is driven by an output compare unit.
type OutputPin interface {
	SetLevel(level bool)
}

// InputPin is sampled by the input capture unit.
type InputPin interface {
	Level() bool
}

// claimer is implemented by pins that enforce exclusive ownership.
type claimer interface {
	Claim(owner string) error
}

// Lines are the interrupt lines of one timer unit.
type Lines struct {
	Overflow int
	Compare  [MaxChannels]int
	Capture  int
}

// NoLines returns a Lines value with every event unconnected.
func NoLines() Lines {
	return Lines{
		Overflow: NoLine,
		Compare:  [MaxChannels]int{NoLine, NoLine, NoLine},
		Capture:  NoLine,
	}
}

// Config describes a timer unit at device build time.
type Config struct {
	Name   string
	Layout Layout

	// Classic selects the AT90S8515 variant of Layout16Dual, which has no
	// WGMn3 bit and names WGMn2 CTCn.
	Classic bool

	// FastPWMSyncAtTop moves the fast PWM double buffer update from BOTTOM
	// to TOP. Older datasheets (ATmega8, ATmega16, ATmega128) document the
	// update at TOP.
	FastPWMSyncAtTop bool

	Prescaler Prescaler
	IRQ       InterruptLine
	Lines     Lines

	// Outputs are the OCnx pins, indexed by channel. Entries beyond the
	// layout's channel count must be nil.
	Outputs [MaxChannels]OutputPin

	// CapturePin is the ICPn pin. Ignored for layouts without capture.
	CapturePin InputPin
}

type noIRQ struct{}

func (noIRQ) RaiseFlag(int) {}
func (noIRQ) AckFlag(int)   {}
