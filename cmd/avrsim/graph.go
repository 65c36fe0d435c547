package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bradleyjkemp/memviz"

	"github.com/richardwooding/avrsim/internal/emulator"
)

// GraphCmd writes the object graph of a device after a scenario, for
// rendering with Graphviz (dot -Tsvg).
type GraphCmd struct {
	Scenario string `arg:"" type:"existingfile" help:"Path to scenario file."`
	Out      string `short:"o" default:"-" help:"Output file (- for stdout)."`
	Timer    string `help:"Graph only this timer unit."`
}

// Run executes the graph command.
func (c *GraphCmd) Run() error {
	emu, err := runScenario(c.Scenario)
	if err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	if c.Out != "-" {
		f, err := os.Create(c.Out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", c.Out, err)
		}
		defer f.Close()
		w = f
	}

	return writeGraph(w, emu, c.Timer)
}

func writeGraph(w io.Writer, emu *emulator.Emulator, timerName string) error {
	if timerName == "" {
		memviz.Map(w, emu)
		return nil
	}
	u, err := emu.Timer(timerName)
	if err != nil {
		return err
	}
	memviz.Map(w, u)
	return nil
}
