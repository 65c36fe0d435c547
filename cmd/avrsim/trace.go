package main

import (
	"fmt"
	"io"

	"github.com/richardwooding/avrsim/internal/emulator"
	"github.com/richardwooding/avrsim/internal/pin"
)

// selectPins returns the named pins, or every pin of the device if names is
// empty.
func selectPins(emu *emulator.Emulator, names []string) ([]*pin.Pin, error) {
	if len(names) == 0 {
		return emu.Pins(), nil
	}
	pins := make([]*pin.Pin, 0, len(names))
	for _, name := range names {
		p, err := emu.Pin(name)
		if err != nil {
			return nil, err
		}
		pins = append(pins, p)
	}
	return pins, nil
}

// printTrace writes the timer states, flag counts and pin transitions of a
// device.
func printTrace(w io.Writer, emu *emulator.Emulator, names []string) error {
	pins, err := selectPins(emu, names)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s after %d cycles\n", emu.Profile.Name, emu.Cycles())
	for _, u := range emu.Timers() {
		fmt.Fprintf(w, "  %s\n", u)
	}

	fmt.Fprintf(w, "\nInterrupt flags:\n")
	for id := 0; id < emu.IRQ.Lines(); id++ {
		n := emu.IRQ.Raised(id)
		if n == 0 {
			continue
		}
		pending := ""
		if emu.IRQ.Pending(id) {
			pending = " (pending)"
		}
		fmt.Fprintf(w, "  %-14s raised %d times%s\n", emu.IRQ.Name(id), n, pending)
	}

	for _, p := range pins {
		ts := p.Transitions()
		fmt.Fprintf(w, "\n%s: %d rising, %d falling, now %v\n", p.Name(), p.Rising(), p.Falling(), level(p.Level()))
		if owner := p.Owner(); owner != "" {
			fmt.Fprintf(w, "  driven by %s\n", owner)
		}
		for _, t := range ts {
			fmt.Fprintf(w, "  %10d  %s\n", t.Cycle, level(t.Level))
		}
	}
	return nil
}

func level(high bool) string {
	if high {
		return "high"
	}
	return "low"
}
