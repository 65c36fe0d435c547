package timer

import (
	"fmt"
	"strings"
)

// Register names a byte-wide timer register as seen from the data bus.
type Register uint8

// Timer registers. Devices with a single control register use TCCR, which
// is TCCRA.
const (
	TCCRA Register = iota
	TCCRB
	TCCRC
	TCNTL
	TCNTH
	OCRAL
	OCRAH
	OCRBL
	OCRBH
	OCRCL
	OCRCH
	ICRL
	ICRH
)

// Aliases for the 8-bit register names.
const (
	TCCR = TCCRA
	TCNT = TCNTL
	OCRA = OCRAL
	OCRB = OCRBL
)

var registerNames = [...]string{
	TCCRA: "TCCRA",
	TCCRB: "TCCRB",
	TCCRC: "TCCRC",
	TCNTL: "TCNTL",
	TCNTH: "TCNTH",
	OCRAL: "OCRAL",
	OCRAH: "OCRAH",
	OCRBL: "OCRBL",
	OCRBH: "OCRBH",
	OCRCL: "OCRCL",
	OCRCH: "OCRCH",
	ICRL:  "ICRL",
	ICRH:  "ICRH",
}

func (r Register) String() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// ParseRegister returns the register with the given name. The 8-bit aliases
// (TCCR, TCNT, OCRA, OCRB, OCRC, ICR) name the low byte.
func ParseRegister(name string) (Register, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	switch name {
	case "TCCR":
		return TCCRA, true
	case "TCNT":
		return TCNTL, true
	case "OCRA":
		return OCRAL, true
	case "OCRB":
		return OCRBL, true
	case "OCRC":
		return OCRCL, true
	case "ICR":
		return ICRL, true
	}
	for r, n := range registerNames {
		if n == name {
			return Register(r), true
		}
	}
	return 0, false
}

// Facade is the byte-wide register view of a timer unit.
type Facade interface {
	Read(r Register) uint8
	Write(r Register, value uint8)
	Unit() *Unit

	Snapshot() FacadeState
	Restore(s FacadeState)
	Reset()
}

// NewFacade returns the register facade for the unit's counter width.
func NewFacade(u *Unit) Facade {
	if u.Bits() == 8 {
		return &Facade8{unit: u}
	}
	return &Facade16{unit: u}
}

// Facade8 maps the registers of an 8-bit unit directly.
type Facade8 struct {
	unit *Unit
}

// Unit returns the timer behind the facade.
func (f *Facade8) Unit() *Unit {
	return f.unit
}

// Read reads a register. High bytes and missing registers read zero.
func (f *Facade8) Read(r Register) uint8 {
	u := f.unit
	switch r {
	case TCCRA, TCCRB, TCCRC:
		return u.readControl(r)
	case TCNTL:
		return uint8(u.counter.value)
	case OCRAL, OCRBL:
		ch := int(r-OCRAL) / 2
		if ch < len(u.compare) {
			return uint8(u.compare[ch].Threshold())
		}
	}
	return 0
}

// Write writes a register. Writes to missing registers are ignored.
func (f *Facade8) Write(r Register, value uint8) {
	u := f.unit
	switch r {
	case TCCRA, TCCRB, TCCRC:
		u.writeControl(r, value)
	case TCNTL:
		u.SetCounter(uint16(value))
	case OCRAL, OCRBL:
		ch := int(r-OCRAL) / 2
		if ch < len(u.compare) {
			u.SetThreshold(ch, uint16(value))
		}
	}
}

// Snapshot returns an empty state; an 8-bit facade holds none.
func (f *Facade8) Snapshot() FacadeState {
	return FacadeState{}
}

// Restore is a no-op for an 8-bit facade.
func (f *Facade8) Restore(FacadeState) {}

// Reset is a no-op for an 8-bit facade.
func (f *Facade8) Reset() {}

// 16-bit register slots. Each has its own temporary register.
const (
	slotCounter = iota
	slotOCRA
	slotOCRB
	slotOCRC
	slotICR
	numSlots
)

// slotState tracks where a slot is in a two byte access.
type slotState uint8

const (
	slotIdle slotState = iota
	slotHighStaged
	slotHighSnapshot
	slotLowLatched
)

type slot struct {
	temp     uint8
	snapshot uint16
	state    slotState
}

// FacadeState is the saved staging state of a 16-bit facade.
type FacadeState struct {
	Temp     [numSlots]uint8
	Snapshot [numSlots]uint16
	State    [numSlots]uint8
}

// Facade16 maps the registers of a 16-bit unit through per-register
// temporary high bytes.
//
// Writes: the high byte is staged and the low byte write commits
// (staged<<8)|low. A low byte write on its own commits with whatever high
// byte is staged. A high byte write on its own changes nothing visible.
//
// Reads of TCNT and ICR: reading the low byte latches the high byte for
// the next high byte read. Reading the high byte first snapshots the whole
// value and the next low byte read returns the snapshot, so either order
// yields a coherent value. OCR reads return the register directly.
type Facade16 struct {
	unit  *Unit
	slots [numSlots]slot
}

// Unit returns the timer behind the facade.
func (f *Facade16) Unit() *Unit {
	return f.unit
}

func (f *Facade16) decode(r Register) (s int, high, ok bool) {
	switch r {
	case TCNTL, TCNTH:
		return slotCounter, r == TCNTH, true
	case OCRAL, OCRAH, OCRBL, OCRBH, OCRCL, OCRCH:
		ch := int(r-OCRAL) / 2
		if ch >= len(f.unit.compare) {
			return 0, false, false
		}
		return slotOCRA + ch, (r-OCRAL)%2 == 1, true
	case ICRL, ICRH:
		if f.unit.capture == nil {
			return 0, false, false
		}
		return slotICR, r == ICRH, true
	}
	return 0, false, false
}

func (f *Facade16) get(s int) uint16 {
	u := f.unit
	switch s {
	case slotCounter:
		return u.counter.value
	case slotICR:
		return u.capture.register
	}
	return u.compare[s-slotOCRA].Threshold()
}

func (f *Facade16) set(s int, v uint16) {
	u := f.unit
	switch s {
	case slotCounter:
		u.SetCounter(v)
	case slotICR:
		u.SetCaptureRegister(v)
	default:
		u.SetThreshold(s-slotOCRA, v)
	}
}

// Read reads a register.
func (f *Facade16) Read(r Register) uint8 {
	switch r {
	case TCCRA, TCCRB, TCCRC:
		return f.unit.readControl(r)
	}
	s, high, ok := f.decode(r)
	if !ok {
		return 0
	}
	if s >= slotOCRA && s <= slotOCRC {
		v := f.get(s)
		if high {
			return uint8(v >> 8)
		}
		return uint8(v)
	}

	sl := &f.slots[s]
	if high {
		if sl.state == slotLowLatched {
			sl.state = slotIdle
			return sl.temp
		}
		v := f.get(s)
		sl.snapshot = v
		sl.temp = uint8(v >> 8)
		sl.state = slotHighSnapshot
		return sl.temp
	}
	if sl.state == slotHighSnapshot {
		sl.state = slotIdle
		return uint8(sl.snapshot)
	}
	v := f.get(s)
	sl.temp = uint8(v >> 8)
	sl.state = slotLowLatched
	return uint8(v)
}

// Write writes a register.
func (f *Facade16) Write(r Register, value uint8) {
	switch r {
	case TCCRA, TCCRB, TCCRC:
		f.unit.writeControl(r, value)
		return
	}
	s, high, ok := f.decode(r)
	if !ok {
		return
	}
	sl := &f.slots[s]
	if high {
		sl.temp = value
		sl.state = slotHighStaged
		return
	}
	f.set(s, uint16(sl.temp)<<8|uint16(value))
	sl.state = slotIdle
}

// Snapshot returns the staging state.
func (f *Facade16) Snapshot() FacadeState {
	var s FacadeState
	for i, sl := range f.slots {
		s.Temp[i] = sl.temp
		s.Snapshot[i] = sl.snapshot
		s.State[i] = uint8(sl.state)
	}
	return s
}

// Restore loads a state returned by Snapshot.
func (f *Facade16) Restore(s FacadeState) {
	for i := range f.slots {
		f.slots[i] = slot{
			temp:     s.Temp[i],
			snapshot: s.Snapshot[i],
			state:    slotState(s.State[i]),
		}
	}
}

// Reset clears the staging state.
func (f *Facade16) Reset() {
	f.slots = [numSlots]slot{}
}
