// Package main provides the avrsim CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/richardwooding/avrsim/internal/device"
	"github.com/richardwooding/avrsim/internal/emulator"
	"github.com/richardwooding/avrsim/internal/logger"
	"github.com/richardwooding/avrsim/internal/scenario"
	"github.com/richardwooding/avrsim/internal/statsview"
)

var (
	// ErrTestFailed indicates a scenario failed.
	ErrTestFailed = errors.New("test failed")

	// ErrInvalidScale indicates the scale factor is out of valid range.
	ErrInvalidScale = errors.New("scale must be between 1 and 10")

	// ErrStatsviewUnavailable indicates the binary was built without the
	// statsview tag.
	ErrStatsviewUnavailable = errors.New("statsview not available in this build")
)

// Globals are flags shared by every command.
type Globals struct {
	Config    kong.ConfigFlag `help:"Load flag defaults from a JSON file."`
	Log       bool            `help:"Echo the simulator log to stderr."`
	Statsview bool            `help:"Launch the runtime stats server."`
}

// apply applies the global flags before the command runs.
func (g *Globals) apply() error {
	if g.Log {
		logger.SetEcho(os.Stderr)
	}
	if g.Statsview {
		if !statsview.Available() {
			return ErrStatsviewUnavailable
		}
		statsview.Launch(os.Stdout)
	}
	return nil
}

// CLI represents the command-line interface structure.
type CLI struct {
	Globals

	Info  InfoCmd  `cmd:"" help:"Display device timer information."`
	Test  TestCmd  `cmd:"" help:"Run scenario files and report results."`
	Trace TraceCmd `cmd:"" help:"Run a scenario and print pin transitions."`
	Wav   WavCmd   `cmd:"" help:"Export a pin waveform as a WAV file."`
	Scope ScopeCmd `cmd:"" help:"Show pin waveforms in a window."`
	Graph GraphCmd `cmd:"" help:"Write the device object graph in Graphviz format."`
}

// InfoCmd displays the timers, registers and pins of a device.
type InfoCmd struct {
	Device string `arg:"" optional:"" help:"Device name. Lists devices if omitted."`
}

// Run executes the info command.
func (c *InfoCmd) Run() error {
	if c.Device == "" {
		fmt.Println("Supported devices:")
		for _, name := range device.Names() {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}

	emu, err := emulator.New(c.Device)
	if err != nil {
		return err
	}

	p := emu.Profile
	fmt.Printf("Device Information:\n")
	fmt.Printf("  Name:       %s\n", p.Name)
	fmt.Printf("  Clock:      %.3f MHz\n", float64(p.ClockHz)/1e6)
	fmt.Printf("  Timers:     %d\n", len(p.Timers))
	fmt.Printf("  Pins:       %s\n", strings.Join(p.Pins(), " "))

	for _, u := range emu.Timers() {
		fmt.Printf("\n%s (%s, %d-bit, %d compare channels)\n", u.Name(), u.Layout(), u.Bits(), u.Channels())
	}

	fmt.Printf("\nRegisters:\n")
	for _, m := range emu.Memory.Mappings() {
		fmt.Printf("  0x%02X  %s\n", m.Addr, m.Name)
	}

	vectors := append([]device.Vector(nil), p.Vectors...)
	sort.Slice(vectors, func(i, j int) bool { return vectors[i].Number < vectors[j].Number })
	fmt.Printf("\nInterrupt vectors:\n")
	for _, v := range vectors {
		fmt.Printf("  %2d  %-14s flag 0x%02X:%d  mask 0x%02X:%d\n",
			v.Number, v.Name, v.Flag.Addr, v.Flag.Bit, v.Mask.Addr, v.Mask.Bit)
	}

	return nil
}

// TestCmd runs scenario files and reports results.
type TestCmd struct {
	Scenarios []string `arg:"" type:"existingfile" help:"Paths to scenario files."`
	Timeout   int      `default:"30" help:"Timeout in seconds per scenario."`
	Verbose   bool     `short:"v" help:"Show the simulator log."`
}

// Run executes the test command.
func (c *TestCmd) Run() error {
	failed := 0
	for _, path := range c.Scenarios {
		fmt.Printf("Running scenario: %s\n", path)

		timeout := time.Duration(c.Timeout) * time.Second
		result := scenario.Run(path, timeout)

		fmt.Printf("Result: %s\n", result.String())

		if c.Verbose || !result.IsSuccess() {
			fmt.Printf("\nLog:\n")
			logger.Tail(os.Stdout, 20)
		}
		logger.Clear()

		if !result.IsSuccess() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrTestFailed, failed, len(c.Scenarios))
	}
	return nil
}

// runScenario runs a scenario for the commands that inspect the device
// afterwards. Expectation failures are reported but not fatal.
func runScenario(path string) (*emulator.Emulator, error) {
	result := scenario.Run(path, 0)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.Failed {
		fmt.Fprintf(os.Stderr, "%s\n", result.String())
	}
	return result.Emulator, nil
}

// TraceCmd prints the pin transitions recorded while running a scenario.
type TraceCmd struct {
	Scenario string   `arg:"" type:"existingfile" help:"Path to scenario file."`
	Pin      []string `help:"Pins to trace. Traces every pin if omitted."`
}

// Run executes the trace command.
func (c *TraceCmd) Run() error {
	emu, err := runScenario(c.Scenario)
	if err != nil {
		return err
	}
	return printTrace(os.Stdout, emu, c.Pin)
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("avrsim"),
		kong.Description("A cycle-accurate simulator of AVR timer/counter peripherals."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, "~/.config/avrsim.json"),
	)

	err := cli.Globals.apply()
	if err == nil {
		err = ctx.Run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
