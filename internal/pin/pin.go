// Package pin implements the device pins the timer units drive and sample.
//
// A Pin holds a single logic level. Output pins are exclusively owned: a
// timer unit claims the compare-output pins it drives when it is built and no
// other unit may claim them afterwards. Every level change is recorded
// against the cycle counter supplied by the owning device so that waveforms
// can be inspected after a run.
package pin

import (
	"errors"
	"fmt"
)

// ErrClaimed indicates the pin is already driven by another unit.
var ErrClaimed = errors.New("pin already claimed")

// Clock returns the current simulated cycle.
type Clock func() uint64

// Transition is a single level change.
type Transition struct {
	Cycle uint64
	Level bool
}

// Pin is a single device pin.
type Pin struct {
	name  string
	level bool
	owner string
	clock Clock

	transitions []Transition
}

// New creates a pin that starts low.
func New(name string) *Pin {
	return &Pin{name: name}
}

// Name returns the pin name, e.g. "OC1A".
func (p *Pin) Name() string {
	return p.name
}

// SetClock sets the cycle source used to timestamp transitions.
func (p *Pin) SetClock(clock Clock) {
	p.clock = clock
}

// Claim marks the pin as driven by owner.
func (p *Pin) Claim(owner string) error {
	if p.owner != "" && p.owner != owner {
		return fmt.Errorf("%w: %s is driven by %s", ErrClaimed, p.name, p.owner)
	}
	p.owner = owner
	return nil
}

// Owner returns the unit that claimed the pin, or the empty string.
func (p *Pin) Owner() string {
	return p.owner
}

// SetLevel drives the pin. Writing the current level is not a transition.
func (p *Pin) SetLevel(level bool) {
	if level == p.level {
		return
	}
	p.level = level

	var cycle uint64
	if p.clock != nil {
		cycle = p.clock()
	}
	p.transitions = append(p.transitions, Transition{Cycle: cycle, Level: level})
}

// Level returns the current level.
func (p *Pin) Level() bool {
	return p.level
}

// Transitions returns every recorded level change, oldest first.
func (p *Pin) Transitions() []Transition {
	return p.transitions
}

// Rising returns the number of low-to-high transitions.
func (p *Pin) Rising() int {
	n := 0
	for _, t := range p.transitions {
		if t.Level {
			n++
		}
	}
	return n
}

// Falling returns the number of high-to-low transitions.
func (p *Pin) Falling() int {
	return len(p.transitions) - p.Rising()
}

// LevelAt returns the level the pin had at the end of the given cycle.
func (p *Pin) LevelAt(cycle uint64) bool {
	level := p.initialLevel()
	for _, t := range p.transitions {
		if t.Cycle > cycle {
			break
		}
		level = t.Level
	}
	return level
}

func (p *Pin) initialLevel() bool {
	if len(p.transitions) == 0 {
		return p.level
	}
	return !p.transitions[0].Level
}

// ClearTrace drops the recorded transitions but keeps the level.
func (p *Pin) ClearTrace() {
	p.transitions = nil
}

// Reset drives the pin low and drops the trace. Ownership is kept.
func (p *Pin) Reset() {
	p.level = false
	p.transitions = nil
}

func (p *Pin) String() string {
	if p.level {
		return p.name + "=1"
	}
	return p.name + "=0"
}
