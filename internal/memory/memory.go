// Package memory implements the AVR data space I/O map as seen by the timer
// registers.
package memory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/richardwooding/avrsim/internal/timer"
)

// I/O registers occupy data space 0x20-0xFF. Below that are the CPU
// registers, which are not simulated.
const (
	IOStart = 0x20
	IOEnd   = 0x100
)

// ErrAddressInUse indicates two registers mapped to the same address.
var ErrAddressInUse = errors.New("address already mapped")

// ErrAddressOutOfRange indicates an address outside the I/O space.
var ErrAddressOutOfRange = errors.New("address outside I/O space")

// TimerRegisters is the byte view of a timer unit.
type TimerRegisters interface {
	Read(r timer.Register) uint8
	Write(r timer.Register, value uint8)
}

// FlagRegisters is the interrupt flag and mask register file.
type FlagRegisters interface {
	Owns(addr uint16) bool
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// Register is a single memory mapped register with side effects, such as
// the prescaler reset register.
type Register interface {
	Read() uint8
	Write(value uint8)
}

type mapping struct {
	name  string
	regs  TimerRegisters
	reg   timer.Register
	plain Register
}

// Mapping describes one mapped address.
type Mapping struct {
	Addr uint16
	Name string
}

// Bus represents the I/O part of the data space.
type Bus struct {
	mapped map[uint16]mapping

	// interrupt flag registers (TIFR/TIMSK)
	flags FlagRegisters

	// plain storage for unmapped I/O addresses
	io [IOEnd - IOStart]uint8
}

// NewBus creates an empty I/O map.
func NewBus() *Bus {
	return &Bus{mapped: map[uint16]mapping{}}
}

func checkAddr(addr uint16) error {
	if addr < IOStart || addr >= IOEnd {
		return fmt.Errorf("%w: 0x%04X", ErrAddressOutOfRange, addr)
	}
	return nil
}

func (b *Bus) claim(addr uint16, m mapping) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	if other, ok := b.mapped[addr]; ok {
		return fmt.Errorf("%w: 0x%02X is %s, cannot map %s", ErrAddressInUse, addr, other.name, m.name)
	}
	b.mapped[addr] = m
	return nil
}

// MapTimer maps the registers of one timer unit.
func (b *Bus) MapTimer(name string, addrs map[timer.Register]uint16, regs TimerRegisters) error {
	// map in register order so errors are deterministic
	keys := make([]timer.Register, 0, len(addrs))
	for r := range addrs {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, r := range keys {
		m := mapping{name: name + " " + r.String(), regs: regs, reg: r}
		if err := b.claim(addrs[r], m); err != nil {
			return err
		}
	}
	return nil
}

// MapRegister maps a single register.
func (b *Bus) MapRegister(name string, addr uint16, reg Register) error {
	return b.claim(addr, mapping{name: name, plain: reg})
}

// SetFlags attaches the interrupt flag registers.
func (b *Bus) SetFlags(flags FlagRegisters) {
	b.flags = flags
}

// Read reads a byte from the I/O space. Addresses outside it read 0xFF.
func (b *Bus) Read(addr uint16) uint8 {
	if checkAddr(addr) != nil {
		return 0xFF
	}
	if m, ok := b.mapped[addr]; ok {
		if m.plain != nil {
			return m.plain.Read()
		}
		return m.regs.Read(m.reg)
	}
	if b.flags != nil && b.flags.Owns(addr) {
		return b.flags.Read(addr)
	}
	return b.io[addr-IOStart]
}

// Write writes a byte to the I/O space. Writes outside it are ignored.
func (b *Bus) Write(addr uint16, value uint8) {
	if checkAddr(addr) != nil {
		return
	}
	if m, ok := b.mapped[addr]; ok {
		if m.plain != nil {
			m.plain.Write(value)
			return
		}
		m.regs.Write(m.reg, value)
		return
	}
	if b.flags != nil && b.flags.Owns(addr) {
		b.flags.Write(addr, value)
		return
	}
	b.io[addr-IOStart] = value
}

// Read16 reads a 16-bit register low byte first, as the datasheets
// recommend.
func (b *Bus) Read16(low uint16) uint16 {
	lo := b.Read(low)
	hi := b.Read(low + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// Write16 writes a 16-bit register high byte first.
func (b *Bus) Write16(low uint16, value uint16) {
	b.Write(low+1, uint8(value>>8))
	b.Write(low, uint8(value))
}

// Lookup returns the name mapped at addr.
func (b *Bus) Lookup(addr uint16) (string, bool) {
	m, ok := b.mapped[addr]
	return m.name, ok
}

// Mappings returns every mapped address, sorted.
func (b *Bus) Mappings() []Mapping {
	out := make([]Mapping, 0, len(b.mapped))
	for addr, m := range b.mapped {
		out = append(out, Mapping{Addr: addr, Name: m.name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Reset clears the unmapped storage. Mapped registers are reset by their
// owners.
func (b *Bus) Reset() {
	clear(b.io[:])
}
