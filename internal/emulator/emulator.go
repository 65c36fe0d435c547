// Package emulator provides the device runner that ties together the
// prescalers, timer units, interrupt flags, pins and the I/O bus of one AVR
// part.
//
// Every cycle is stepped in a fixed order: the prescalers advance, then each
// timer unit advances in profile order. Register access through Read and
// Write happens between cycles.
package emulator

import (
	"errors"
	"fmt"

	"github.com/richardwooding/avrsim/internal/device"
	"github.com/richardwooding/avrsim/internal/irq"
	"github.com/richardwooding/avrsim/internal/logger"
	"github.com/richardwooding/avrsim/internal/memory"
	"github.com/richardwooding/avrsim/internal/pin"
	"github.com/richardwooding/avrsim/internal/prescaler"
	"github.com/richardwooding/avrsim/internal/timer"
)

var (
	// ErrTimeout indicates a run condition was not met within the cycle limit.
	ErrTimeout = errors.New("cycle limit reached")

	// ErrUnknownTimer indicates a timer name the device does not have.
	ErrUnknownTimer = errors.New("unknown timer")

	// ErrUnknownPin indicates a pin name the device does not have.
	ErrUnknownPin = errors.New("unknown pin")
)

type timerSlot struct {
	profile device.Timer
	unit    *timer.Unit
	regs    timer.Facade
	clock   *prescaler.Multiplexer
}

// Emulator represents one simulated AVR device.
type Emulator struct {
	Profile *device.Profile
	Memory  *memory.Bus
	IRQ     *irq.Controller

	sync  *prescaler.Prescaler
	async *prescaler.Prescaler

	timers []timerSlot
	pins   map[string]*pin.Pin
	order  []string

	cycles uint64
}

// New creates an emulator for the named device.
func New(deviceName string) (*Emulator, error) {
	p, err := device.Lookup(deviceName)
	if err != nil {
		return nil, err
	}
	return NewFromProfile(p)
}

// NewFromProfile creates an emulator from a device profile.
func NewFromProfile(p *device.Profile) (*Emulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	e := &Emulator{
		Profile: p,
		Memory:  memory.NewBus(),
		IRQ:     irq.New(),
		sync:    prescaler.New(),
		async:   prescaler.New(),
		pins:    map[string]*pin.Pin{},
	}

	lines := map[string]int{}
	for _, v := range p.Vectors {
		id := e.IRQ.AddLine(v.Name, v.Number)
		e.IRQ.MapFlag(id, v.Flag.Addr, v.Flag.Bit)
		e.IRQ.MapMask(id, v.Mask.Addr, v.Mask.Bit)
		lines[v.Name] = id
	}
	lineFor := func(name string) int {
		if id, ok := lines[name]; ok {
			return id
		}
		return timer.NoLine
	}

	for _, name := range p.Pins() {
		pn := pin.New(name)
		pn.SetClock(e.Cycles)
		e.pins[name] = pn
		e.order = append(e.order, name)
	}

	for _, t := range p.Timers {
		pre, taps := e.sync, prescaler.SyncTaps
		if t.Async {
			pre, taps = e.async, prescaler.AsyncTaps
		}
		var external prescaler.Source
		if t.ClockPin != "" {
			external = e.pins[t.ClockPin]
		}
		clock := prescaler.NewMultiplexer(pre, taps, external)

		cfg := timer.Config{
			Name:             t.Name,
			Layout:           t.Layout,
			Classic:          t.Classic,
			FastPWMSyncAtTop: p.FastPWMSyncAtTop,
			Prescaler:        clock,
			IRQ:              e.IRQ,
			Lines: timer.Lines{
				Overflow: lineFor(t.Overflow),
				Capture:  lineFor(t.Capture),
			},
		}
		for ch := 0; ch < timer.MaxChannels; ch++ {
			cfg.Lines.Compare[ch] = lineFor(t.Compare[ch])
			if t.Outputs[ch] != "" {
				cfg.Outputs[ch] = e.pins[t.Outputs[ch]]
			}
		}
		if t.CapturePin != "" {
			cfg.CapturePin = e.pins[t.CapturePin]
		}

		u := timer.New(cfg)
		regs := timer.NewFacade(u)
		if err := e.Memory.MapTimer(t.Name, t.Registers, regs); err != nil {
			return nil, fmt.Errorf("failed to map %s: %w", t.Name, err)
		}
		e.timers = append(e.timers, timerSlot{profile: t, unit: u, regs: regs, clock: clock})
	}

	e.Memory.SetFlags(e.IRQ)
	if p.PrescalerReset.Addr != 0 {
		psr := &prescalerReset{cfg: p.PrescalerReset, sync: e.sync, async: e.async}
		if err := e.Memory.MapRegister("PSR", p.PrescalerReset.Addr, psr); err != nil {
			return nil, fmt.Errorf("failed to map prescaler reset: %w", err)
		}
	}

	logger.Logf("emulator", "%s: %d timers, %d interrupt lines, %d pins",
		p.Name, len(e.timers), e.IRQ.Lines(), len(e.order))
	return e, nil
}

// prescalerReset is GTCCR (or SFIOR on older parts). The reset bits are
// strobes that read back as zero.
type prescalerReset struct {
	cfg   device.PrescalerReset
	sync  *prescaler.Prescaler
	async *prescaler.Prescaler
	value uint8
}

func (r *prescalerReset) Read() uint8 {
	return r.value
}

func (r *prescalerReset) Write(value uint8) {
	if value&r.cfg.Sync != 0 {
		r.sync.Reset()
	}
	if value&r.cfg.Async != 0 {
		r.async.Reset()
	}
	r.value = value &^ (r.cfg.Sync | r.cfg.Async)
}

// Step executes one CPU cycle.
func (e *Emulator) Step() {
	e.cycles++
	e.sync.Step()
	e.async.Step()
	for _, t := range e.timers {
		t.unit.Advance()
	}
}

// RunCycles runs the emulator for the specified number of cycles.
func (e *Emulator) RunCycles(cycles uint64) {
	for i := uint64(0); i < cycles; i++ {
		e.Step()
	}
}

// RunUntil runs until cond returns true or limit cycles have passed. The
// condition is checked before every cycle.
func (e *Emulator) RunUntil(cond func(*Emulator) bool, limit uint64) error {
	for i := uint64(0); i < limit; i++ {
		if cond(e) {
			return nil
		}
		e.Step()
	}
	if cond(e) {
		return nil
	}
	return fmt.Errorf("%w: %d cycles", ErrTimeout, limit)
}

// Cycles returns the number of cycles executed since reset.
func (e *Emulator) Cycles() uint64 {
	return e.cycles
}

// Read reads a byte from the I/O space.
func (e *Emulator) Read(addr uint16) uint8 {
	return e.Memory.Read(addr)
}

// Write writes a byte to the I/O space.
func (e *Emulator) Write(addr uint16, value uint8) {
	e.Memory.Write(addr, value)
}

// Timers returns the timer units in profile order.
func (e *Emulator) Timers() []*timer.Unit {
	units := make([]*timer.Unit, len(e.timers))
	for i, t := range e.timers {
		units[i] = t.unit
	}
	return units
}

// Timer returns the named timer unit.
func (e *Emulator) Timer(name string) (*timer.Unit, error) {
	for _, t := range e.timers {
		if t.profile.Name == name {
			return t.unit, nil
		}
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrUnknownTimer, name, e.Profile.Name)
}

// Registers returns the register facade of the named timer.
func (e *Emulator) Registers(name string) (timer.Facade, error) {
	for _, t := range e.timers {
		if t.profile.Name == name {
			return t.regs, nil
		}
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrUnknownTimer, name, e.Profile.Name)
}

// Pin returns the named pin.
func (e *Emulator) Pin(name string) (*pin.Pin, error) {
	if p, ok := e.pins[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrUnknownPin, name, e.Profile.Name)
}

// Pins returns every pin in profile order.
func (e *Emulator) Pins() []*pin.Pin {
	pins := make([]*pin.Pin, len(e.order))
	for i, name := range e.order {
		pins[i] = e.pins[name]
	}
	return pins
}

// Reset resets the emulator to its power-on state.
func (e *Emulator) Reset() {
	e.cycles = 0
	e.sync.Reset()
	e.async.Reset()
	for _, t := range e.timers {
		t.unit.Reset()
		t.regs.Reset()
		t.clock.SetSampled(false)
	}
	e.IRQ.Reset()
	e.Memory.Reset()
	for _, p := range e.pins {
		p.Reset()
	}
}

// Snapshot is the saved state of a device.
type Snapshot struct {
	Cycles    uint64
	Sync      uint16
	Async     uint16
	Timers    []timer.State
	Registers []timer.FacadeState
	Sampled   []bool
	IRQ       irq.State
	Pins      map[string]bool
}

// Snapshot returns the device state. Pin traces are not included.
func (e *Emulator) Snapshot() Snapshot {
	s := Snapshot{
		Cycles: e.cycles,
		Sync:   e.sync.Count(),
		Async:  e.async.Count(),
		IRQ:    e.IRQ.Snapshot(),
		Pins:   make(map[string]bool, len(e.pins)),
	}
	for _, t := range e.timers {
		s.Timers = append(s.Timers, t.unit.Snapshot())
		s.Registers = append(s.Registers, t.regs.Snapshot())
		s.Sampled = append(s.Sampled, t.clock.Sampled())
	}
	for name, p := range e.pins {
		s.Pins[name] = p.Level()
	}
	return s
}

// Restore loads a state returned by Snapshot.
func (e *Emulator) Restore(s Snapshot) {
	e.cycles = s.Cycles
	e.sync.SetCount(s.Sync)
	e.async.SetCount(s.Async)
	for name, level := range s.Pins {
		if p, ok := e.pins[name]; ok {
			p.SetLevel(level)
		}
	}
	for i, t := range e.timers {
		if i < len(s.Timers) {
			t.unit.Restore(s.Timers[i])
			t.regs.Restore(s.Registers[i])
			t.clock.SetSampled(s.Sampled[i])
		}
	}
	e.IRQ.Restore(s.IRQ)
}
