package timer

import "fmt"

// Mode is the counting discipline selected by the WGM bits.
type Mode uint8

// Waveform generation modes.
const (
	Normal Mode = iota
	CTC
	FastPWM
	PhaseCorrectPWM
	PhaseFrequencyCorrectPWM
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "Normal"
	case CTC:
		return "CTC"
	case FastPWM:
		return "FastPWM"
	case PhaseCorrectPWM:
		return "PhaseCorrectPWM"
	case PhaseFrequencyCorrectPWM:
		return "PhaseFrequencyCorrectPWM"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// IsPWM reports whether compare registers are double buffered in this mode.
func (m Mode) IsPWM() bool {
	return m == FastPWM || m == PhaseCorrectPWM || m == PhaseFrequencyCorrectPWM
}

func (m Mode) dualSlope() bool {
	return m == PhaseCorrectPWM || m == PhaseFrequencyCorrectPWM
}

// TopSource selects where TOP comes from.
type TopSource uint8

// TOP sources.
const (
	TopFixed TopSource = iota
	TopCompareA
	TopCapture
)

func (s TopSource) String() string {
	switch s {
	case TopFixed:
		return "fixed"
	case TopCompareA:
		return "OCRA"
	case TopCapture:
		return "ICR"
	}
	return fmt.Sprintf("TopSource(%d)", uint8(s))
}

// WGM is a decoded waveform generation mode.
type WGM struct {
	Mode Mode
	Top  TopSource

	// Fixed is TOP for TopFixed. Zero means MAX.
	Fixed uint16
}

func (w WGM) String() string {
	switch {
	case w.Mode == Normal:
		return "Normal"
	case w.Top == TopFixed && w.Fixed != 0:
		return fmt.Sprintf("%s(TOP=0x%X)", w.Mode, w.Fixed)
	case w.Top == TopFixed:
		return fmt.Sprintf("%s(TOP=MAX)", w.Mode)
	}
	return fmt.Sprintf("%s(TOP=%s)", w.Mode, w.Top)
}

// Event is a set of timer events detected on one timer clock.
type Event uint8

// Timer events.
const (
	EventTop Event = 1 << iota
	EventMax
	EventBottom
	EventCompareA
	EventCompareB
	EventCompareC
)

func compareEvent(ch int) Event {
	return EventCompareA << ch
}

type stepResult struct {
	next   uint16
	down   bool
	events Event
}

// step computes the count that follows prev and the boundary events for prev.
// Compare events are added by the caller.
func (m Mode) step(prev uint16, down bool, top, maxValue uint16) stepResult {
	switch m {
	case Normal:
		r := stepResult{next: prev + 1}
		if prev == maxValue {
			r.next = 0
			r.events |= EventMax
		}
		if prev == 0 {
			r.events |= EventBottom
		}
		return r

	case CTC, FastPWM:
		// a counter above TOP misses it and runs on to MAX
		r := stepResult{next: prev + 1}
		if prev == top {
			r.next = 0
			r.events |= EventTop
		}
		if prev == maxValue {
			r.next = 0
			r.events |= EventMax
		}
		if prev == 0 {
			r.events |= EventBottom
		}
		return r

	case PhaseCorrectPWM, PhaseFrequencyCorrectPWM:
		if top == 0 {
			return stepResult{events: EventTop | EventBottom}
		}
		if down {
			if prev == 0 {
				return stepResult{next: 1, events: EventBottom}
			}
			return stepResult{next: prev - 1, down: true}
		}
		switch prev {
		case top:
			return stepResult{next: prev - 1, down: true, events: EventTop}
		case maxValue:
			return stepResult{events: EventMax}
		}
		return stepResult{next: prev + 1}
	}

	panic(fmt.Sprintf("timer: unknown mode %d", m))
}
