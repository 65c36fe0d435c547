// Package irq implements the interrupt flag side of the AVR interrupt system
// for the timer units.
//
// Each interrupt source is a Line. A timer raises the line's flag; the flag
// stays set until it is acknowledged, either by the CPU taking the vector or
// by firmware writing a one to the flag bit in TIFRn. Flags and enable bits
// are mapped onto the device's TIFR/TIMSK registers so they can be accessed
// through the I/O bus.
package irq

import (
	"errors"
	"fmt"
)

// NoLine is the line ID for events that have no interrupt source.
const NoLine = -1

// ErrUnknownLine indicates a lookup for a line that was never added.
var ErrUnknownLine = errors.New("unknown interrupt line")

type line struct {
	name    string
	vector  int
	flag    bool
	enabled bool

	// number of times the flag has been raised since reset
	raised uint64
}

type bit struct {
	line int
	mask uint8
}

// Controller holds every interrupt line of a device.
type Controller struct {
	lines []line

	flagRegs map[uint16][]bit
	maskRegs map[uint16][]bit
}

// New creates an empty controller.
func New() *Controller {
	return &Controller{
		flagRegs: make(map[uint16][]bit),
		maskRegs: make(map[uint16][]bit),
	}
}

// AddLine adds an interrupt source and returns its line ID. Lower vector
// numbers have higher priority.
func (c *Controller) AddLine(name string, vector int) int {
	c.lines = append(c.lines, line{name: name, vector: vector})
	return len(c.lines) - 1
}

// Lookup returns the line ID for name.
func (c *Controller) Lookup(name string) (int, error) {
	for i := range c.lines {
		if c.lines[i].name == name {
			return i, nil
		}
	}
	return NoLine, fmt.Errorf("%w: %s", ErrUnknownLine, name)
}

// Name returns the name of line id.
func (c *Controller) Name(id int) string {
	if id < 0 || id >= len(c.lines) {
		return ""
	}
	return c.lines[id].name
}

// Lines returns the number of lines.
func (c *Controller) Lines() int {
	return len(c.lines)
}

// MapFlag places the flag of line id at bit b of the flag register at addr.
func (c *Controller) MapFlag(id int, addr uint16, b uint8) {
	c.flagRegs[addr] = append(c.flagRegs[addr], bit{line: id, mask: 1 << b})
}

// MapMask places the enable bit of line id at bit b of the mask register at
// addr.
func (c *Controller) MapMask(id int, addr uint16, b uint8) {
	c.maskRegs[addr] = append(c.maskRegs[addr], bit{line: id, mask: 1 << b})
}

// RaiseFlag sets the flag of line id. Raising NoLine does nothing.
func (c *Controller) RaiseFlag(id int) {
	if id < 0 || id >= len(c.lines) {
		return
	}
	c.lines[id].flag = true
	c.lines[id].raised++
}

// AckFlag clears the flag of line id.
func (c *Controller) AckFlag(id int) {
	if id < 0 || id >= len(c.lines) {
		return
	}
	c.lines[id].flag = false
}

// Pending reports whether the flag of line id is set.
func (c *Controller) Pending(id int) bool {
	if id < 0 || id >= len(c.lines) {
		return false
	}
	return c.lines[id].flag
}

// Raised returns the number of times line id was raised since reset.
func (c *Controller) Raised(id int) uint64 {
	if id < 0 || id >= len(c.lines) {
		return 0
	}
	return c.lines[id].raised
}

// SetEnabled sets the interrupt enable bit of line id.
func (c *Controller) SetEnabled(id int, enabled bool) {
	if id < 0 || id >= len(c.lines) {
		return
	}
	c.lines[id].enabled = enabled
}

// Enabled reports whether line id is enabled.
func (c *Controller) Enabled(id int) bool {
	if id < 0 || id >= len(c.lines) {
		return false
	}
	return c.lines[id].enabled
}

// Next returns the highest priority line that is both pending and enabled.
func (c *Controller) Next() (int, bool) {
	best := NoLine
	for i := range c.lines {
		if !c.lines[i].flag || !c.lines[i].enabled {
			continue
		}
		if best == NoLine || c.lines[i].vector < c.lines[best].vector {
			best = i
		}
	}
	return best, best != NoLine
}

// Service takes the next interrupt: the flag is cleared by hardware when the
// vector is executed.
func (c *Controller) Service() (int, bool) {
	id, ok := c.Next()
	if ok {
		c.AckFlag(id)
	}
	return id, ok
}

// Owns reports whether addr is a flag or mask register.
func (c *Controller) Owns(addr uint16) bool {
	_, f := c.flagRegs[addr]
	_, m := c.maskRegs[addr]
	return f || m
}

// Read returns the flag or mask register at addr. Unmapped bits read as zero.
func (c *Controller) Read(addr uint16) uint8 {
	var v uint8
	for _, b := range c.flagRegs[addr] {
		if c.lines[b.line].flag {
			v |= b.mask
		}
	}
	for _, b := range c.maskRegs[addr] {
		if c.lines[b.line].enabled {
			v |= b.mask
		}
	}
	return v
}

// Write updates the register at addr. Flag registers are cleared by writing
// a one to the flag bit, writing zero leaves the flag unchanged. Mask
// registers are plain storage.
func (c *Controller) Write(addr uint16, value uint8) {
	for _, b := range c.flagRegs[addr] {
		if value&b.mask != 0 {
			c.lines[b.line].flag = false
		}
	}
	for _, b := range c.maskRegs[addr] {
		c.lines[b.line].enabled = value&b.mask != 0
	}
}

// Reset clears every flag, enable bit and raise count.
func (c *Controller) Reset() {
	for i := range c.lines {
		c.lines[i].flag = false
		c.lines[i].enabled = false
		c.lines[i].raised = 0
	}
}

// State is the saved state of every line.
type State struct {
	Flags   []bool
	Enabled []bool
	Raised  []uint64
}

// Snapshot returns the current state of every line.
func (c *Controller) Snapshot() State {
	s := State{
		Flags:   make([]bool, len(c.lines)),
		Enabled: make([]bool, len(c.lines)),
		Raised:  make([]uint64, len(c.lines)),
	}
	for i, l := range c.lines {
		s.Flags[i] = l.flag
		s.Enabled[i] = l.enabled
		s.Raised[i] = l.raised
	}
	return s
}

// Restore sets every line from s. Lines missing from s are left unchanged.
func (c *Controller) Restore(s State) {
	for i := range c.lines {
		if i < len(s.Flags) {
			c.lines[i].flag = s.Flags[i]
		}
		if i < len(s.Enabled) {
			c.lines[i].enabled = s.Enabled[i]
		}
		if i < len(s.Raised) {
			c.lines[i].raised = s.Raised[i]
		}
	}
}
