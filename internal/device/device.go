// Package device describes the timer/counter resources of the supported AVR
// parts: register addresses, control register layouts, interrupt flag
// placement and pin names.
package device

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/richardwooding/avrsim/internal/timer"
)

// ErrUnknownDevice indicates a device name with no profile.
var ErrUnknownDevice = errors.New("unknown device")

// ErrInvalidProfile indicates an inconsistent device profile.
var ErrInvalidProfile = errors.New("invalid device profile")

// Bit is a single bit in the data space.
type Bit struct {
	Addr uint16
	Bit  uint8
}

func (b Bit) String() string {
	return fmt.Sprintf("0x%02X.%d", b.Addr, b.Bit)
}

// Vector is one interrupt source: its vector number and where its flag and
// enable bits live.
type Vector struct {
	Name   string
	Number int
	Flag   Bit
	Mask   Bit
}

// Registers maps the registers of one timer to data space addresses.
// Registers the timer does not have are absent.
type Registers map[timer.Register]uint16

// Timer describes one timer/counter unit.
type Timer struct {
	Name    string
	Layout  timer.Layout
	Classic bool

	// Async timers use the asynchronous prescaler taps and are reset by the
	// asynchronous prescaler reset bit.
	Async bool

	Registers Registers

	// Vector names. Empty means the event has no interrupt.
	Overflow string
	Compare  [timer.MaxChannels]string
	Capture  string

	// Pin names. Empty means no pin.
	Outputs    [timer.MaxChannels]string
	CapturePin string
	ClockPin   string
}

// PrescalerReset locates the prescaler reset bits (GTCCR or SFIOR).
type PrescalerReset struct {
	Addr  uint16
	Sync  uint8
	Async uint8
}

// Profile is a supported device.
type Profile struct {
	Name    string
	ClockHz uint32

	// FastPWMSyncAtTop is set for parts whose datasheet updates the fast
	// PWM compare buffers at TOP instead of BOTTOM.
	FastPWMSyncAtTop bool

	Timers         []Timer
	Vectors        []Vector
	PrescalerReset PrescalerReset
}

var profiles = map[string]*Profile{}

func register(p *Profile) {
	profiles[strings.ToLower(p.Name)] = p
}

// Lookup returns the profile for a device name. Names are case insensitive.
func Lookup(name string) (*Profile, error) {
	p, ok := profiles[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownDevice, name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names returns the supported device names, sorted.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// Vector returns the named vector.
func (p *Profile) Vector(name string) (Vector, bool) {
	for _, v := range p.Vectors {
		if v.Name == name {
			return v, true
		}
	}
	return Vector{}, false
}

// Timer returns the named timer.
func (p *Profile) Timer(name string) (Timer, bool) {
	for _, t := range p.Timers {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Timer{}, false
}

// Pins returns every pin name used by the timers, in profile order.
func (p *Profile) Pins() []string {
	var pins []string
	seen := map[string]bool{}
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			pins = append(pins, name)
		}
	}
	for _, t := range p.Timers {
		for _, o := range t.Outputs {
			add(o)
		}
		add(t.CapturePin)
		add(t.ClockPin)
	}
	return pins
}

// Validate checks the profile for internal consistency.
func (p *Profile) Validate() error {
	addrs := map[uint16]string{}
	claim := func(addr uint16, what string) error {
		if other, ok := addrs[addr]; ok {
			return fmt.Errorf("%w: %s: address 0x%02X used by %s and %s", ErrInvalidProfile, p.Name, addr, other, what)
		}
		addrs[addr] = what
		return nil
	}

	for _, t := range p.Timers {
		for reg, addr := range t.Registers {
			if err := claim(addr, t.Name+" "+reg.String()); err != nil {
				return err
			}
		}
		if _, ok := t.Registers[timer.TCNTL]; !ok {
			return fmt.Errorf("%w: %s: %s has no counter register", ErrInvalidProfile, p.Name, t.Name)
		}
		for ch := 0; ch < timer.MaxChannels; ch++ {
			inLayout := ch < t.Layout.Channels()
			if !inLayout && (t.Compare[ch] != "" || t.Outputs[ch] != "") {
				return fmt.Errorf("%w: %s: %s channel %d beyond layout %s", ErrInvalidProfile, p.Name, t.Name, ch, t.Layout)
			}
		}
		names := append([]string{t.Overflow, t.Capture}, t.Compare[:]...)
		for _, name := range names {
			if name == "" {
				continue
			}
			if _, ok := p.Vector(name); !ok {
				return fmt.Errorf("%w: %s: %s uses undefined vector %s", ErrInvalidProfile, p.Name, t.Name, name)
			}
		}
	}

	flags := map[Bit]string{}
	for _, v := range p.Vectors {
		if other, ok := flags[v.Flag]; ok {
			return fmt.Errorf("%w: %s: flag %s shared by %s and %s", ErrInvalidProfile, p.Name, v.Flag, other, v.Name)
		}
		flags[v.Flag] = v.Name
	}
	return nil
}
