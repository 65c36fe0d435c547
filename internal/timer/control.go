package timer

import (
	"fmt"

	"github.com/richardwooding/avrsim/internal/logger"
)

// Layout identifies how a timer's control registers are laid out. The
// layouts follow the device families rather than individual parts.
type Layout uint8

// Control register layouts.
const (
	// Layout8Basic has a single TCCR holding only CSn2:0 (ATmega8 timer 0).
	Layout8Basic Layout = iota
	// Layout8Single has one TCCR with FOC, WGM, COM and CS (ATmega8 timer 2).
	Layout8Single
	// Layout8Dual has TCCRA/TCCRB and two compare units (ATmega328P timer 0).
	Layout8Dual
	// Layout16Single has one compare unit and PWM1:0 plus a CTC bit
	// (AT90S4433 timer 1).
	Layout16Single
	// Layout16Dual keeps FOC in TCCRA (ATmega8 timer 1, AT90S8515 timer 1).
	Layout16Dual
	// Layout16DualC moves FOC to TCCRC (ATmega328P timer 1).
	Layout16DualC
	// Layout16Triple adds compare unit C (ATmega128 timers 1 and 3).
	Layout16Triple
)

func (l Layout) valid() bool {
	return l <= Layout16Triple
}

// Bits returns the counter width.
func (l Layout) Bits() int {
	if l <= Layout8Dual {
		return 8
	}
	return 16
}

// Channels returns the number of output compare units.
func (l Layout) Channels() int {
	switch l {
	case Layout8Basic:
		return 0
	case Layout8Single, Layout16Single:
		return 1
	case Layout16Triple:
		return 3
	}
	return 2
}

// HasCapture reports whether the layout has an input capture unit.
func (l Layout) HasCapture() bool {
	return l.Bits() == 16
}

func (l Layout) String() string {
	switch l {
	case Layout8Basic:
		return "8-bit basic"
	case Layout8Single:
		return "8-bit single"
	case Layout8Dual:
		return "8-bit dual"
	case Layout16Single:
		return "16-bit single"
	case Layout16Dual:
		return "16-bit dual"
	case Layout16DualC:
		return "16-bit dual (TCCRC)"
	case Layout16Triple:
		return "16-bit triple"
	}
	return fmt.Sprintf("Layout(%d)", uint8(l))
}

type wgmEntry struct {
	wgm   WGM
	valid bool
}

var wgm16 = [16]wgmEntry{
	{WGM{Mode: Normal}, true},
	{WGM{Mode: PhaseCorrectPWM, Fixed: 0x00FF}, true},
	{WGM{Mode: PhaseCorrectPWM, Fixed: 0x01FF}, true},
	{WGM{Mode: PhaseCorrectPWM, Fixed: 0x03FF}, true},
	{WGM{Mode: CTC, Top: TopCompareA}, true},
	{WGM{Mode: FastPWM, Fixed: 0x00FF}, true},
	{WGM{Mode: FastPWM, Fixed: 0x01FF}, true},
	{WGM{Mode: FastPWM, Fixed: 0x03FF}, true},
	{WGM{Mode: PhaseFrequencyCorrectPWM, Top: TopCapture}, true},
	{WGM{Mode: PhaseFrequencyCorrectPWM, Top: TopCompareA}, true},
	{WGM{Mode: PhaseCorrectPWM, Top: TopCapture}, true},
	{WGM{Mode: PhaseCorrectPWM, Top: TopCompareA}, true},
	{WGM{Mode: CTC, Top: TopCapture}, true},
	{},
	{WGM{Mode: FastPWM, Top: TopCapture}, true},
	{WGM{Mode: FastPWM, Top: TopCompareA}, true},
}

var wgm8 = [8]wgmEntry{
	{WGM{Mode: Normal}, true},
	{WGM{Mode: PhaseCorrectPWM}, true},
	{WGM{Mode: CTC, Top: TopCompareA}, true},
	{WGM{Mode: FastPWM}, true},
	{},
	{WGM{Mode: PhaseCorrectPWM, Top: TopCompareA}, true},
	{},
	{WGM{Mode: FastPWM, Top: TopCompareA}, true},
}

// DecodeWGM translates raw WGM bits for a layout. Reserved values clamp to
// the next lower valid mode; clamped reports whether that happened.
func DecodeWGM(l Layout, classic bool, raw uint8) (w WGM, clamped bool) {
	switch l {
	case Layout8Basic:
		return WGM{Mode: Normal}, false
	case Layout8Single:
		return wgm8[raw&0x03].wgm, false
	case Layout8Dual:
		return lookupWGM(wgm8[:], int(raw&0x07))
	case Layout16Single:
		return classicWGM(raw), false
	case Layout16Dual:
		if classic {
			return classicWGM(raw), false
		}
	}
	return lookupWGM(wgm16[:], int(raw&0x0F))
}

func lookupWGM(table []wgmEntry, raw int) (WGM, bool) {
	for i := raw; i >= 0; i-- {
		if table[i].valid {
			return table[i].wgm, i != raw
		}
	}
	return WGM{Mode: Normal}, true
}

// classicWGM decodes PWMn1:0 with CTCn in bit 2. CTCn has no effect in the
// PWM modes.
func classicWGM(raw uint8) WGM {
	pwm := raw & 0x03
	if pwm == 0 && raw&0x04 != 0 {
		return wgm16[4].wgm
	}
	return wgm16[pwm].wgm
}

func (u *Unit) setWGMBits(raw uint8) {
	u.wgmBits = raw
	w, clamped := DecodeWGM(u.layout, u.classic, raw)
	if clamped {
		logger.Logf(u.name, "reserved WGM %d clamped to %s", raw, w)
	}
	u.SetWGM(w)
}

// WGMBits returns the WGM bits as last written.
func (u *Unit) WGMBits() uint8 {
	return u.wgmBits
}

func (u *Unit) setCaptureControl(v uint8) {
	if u.capture == nil {
		return
	}
	u.capture.SetNoiseCancel(v&0x80 != 0)
	u.capture.SetEdge(Polarity(v&0x40 != 0))
}

func (u *Unit) captureControl() uint8 {
	if u.capture == nil {
		return 0
	}
	var v uint8
	if u.capture.noiseCancel {
		v |= 0x80
	}
	if u.capture.edge == Rising {
		v |= 0x40
	}
	return v
}

func (u *Unit) policyBits(ch int, shift uint) uint8 {
	if ch >= len(u.compare) {
		return 0
	}
	return uint8(u.compare[ch].policy) << shift
}

func (u *Unit) force(v uint8, bits ...uint8) {
	for ch, bit := range bits {
		if v&bit != 0 && ch < len(u.compare) {
			u.ForceCompare(ch)
		}
	}
}

// writeControl writes a control register. Within one write the mode is
// updated first, then the output policies, capture setup, the clock select
// and last the force strobes.
func (u *Unit) writeControl(r Register, v uint8) {
	switch u.layout {
	case Layout8Basic:
		if r == TCCRA {
			u.SetClockSelect(v)
		}

	case Layout8Single:
		if r != TCCRA {
			return
		}
		u.setWGMBits(v>>6&0x01 | v>>3&0x01<<1)
		u.SetPolicy(0, Policy(v>>4&0x03))
		u.SetClockSelect(v)
		u.force(v, 0x80)

	case Layout8Dual:
		switch r {
		case TCCRA:
			u.setWGMBits(u.wgmBits&0x04 | v&0x03)
			u.SetPolicy(0, Policy(v>>6))
			u.SetPolicy(1, Policy(v>>4&0x03))
		case TCCRB:
			u.setWGMBits(u.wgmBits&0x03 | v>>1&0x04)
			u.SetClockSelect(v)
			u.force(v, 0x80, 0x40)
		}

	case Layout16Single:
		switch r {
		case TCCRA:
			u.setWGMBits(u.wgmBits&0x04 | v&0x03)
			u.SetPolicy(0, Policy(v>>6))
		case TCCRB:
			u.setWGMBits(u.wgmBits&0x03 | v>>1&0x04)
			u.setCaptureControl(v)
			u.SetClockSelect(v)
		}

	case Layout16Dual, Layout16DualC, Layout16Triple:
		switch r {
		case TCCRA:
			u.setWGMBits(u.wgmBits&0x0C | v&0x03)
			u.SetPolicy(0, Policy(v>>6))
			u.SetPolicy(1, Policy(v>>4&0x03))
			switch {
			case u.layout == Layout16Triple:
				u.SetPolicy(2, Policy(v>>2&0x03))
			case u.layout == Layout16Dual && !u.classic:
				u.force(v, 0x08, 0x04)
			}
		case TCCRB:
			wgmHigh := v >> 1 & 0x0C
			if u.classic {
				wgmHigh &= 0x04
			}
			u.setWGMBits(u.wgmBits&0x03 | wgmHigh)
			u.setCaptureControl(v)
			u.SetClockSelect(v)
		case TCCRC:
			if u.layout != Layout16Dual {
				u.force(v, 0x80, 0x40, 0x20)
			}
		}
	}
}

// readControl reads a control register. Force strobes read as zero.
func (u *Unit) readControl(r Register) uint8 {
	w := u.wgmBits
	switch u.layout {
	case Layout8Basic:
		if r == TCCRA {
			return u.cs
		}

	case Layout8Single:
		if r == TCCRA {
			return (w&0x01)<<6 | u.policyBits(0, 4) | (w&0x02)<<2 | u.cs
		}

	case Layout8Dual:
		switch r {
		case TCCRA:
			return u.policyBits(0, 6) | u.policyBits(1, 4) | w&0x03
		case TCCRB:
			return (w&0x04)<<1 | u.cs
		}

	case Layout16Single:
		switch r {
		case TCCRA:
			return u.policyBits(0, 6) | w&0x03
		case TCCRB:
			return u.captureControl() | (w&0x04)<<1 | u.cs
		}

	case Layout16Dual, Layout16DualC, Layout16Triple:
		switch r {
		case TCCRA:
			v := u.policyBits(0, 6) | u.policyBits(1, 4) | w&0x03
			if u.layout == Layout16Triple {
				v |= u.policyBits(2, 2)
			}
			return v
		case TCCRB:
			return u.captureControl() | (w&0x0C)<<1 | u.cs
		}
	}
	return 0
}
