package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/richardwooding/avrsim/internal/emulator"
	"github.com/richardwooding/avrsim/internal/logger"
)

// ErrNothingToRender indicates the scenario is too short for one sample.
var ErrNothingToRender = errors.New("scenario too short to render")

// WavCmd exports the waveform of a pin as a WAV file.
type WavCmd struct {
	Scenario string `arg:"" type:"existingfile" help:"Path to scenario file."`
	Pin      string `required:"" help:"Pin to export."`
	Out      string `short:"o" default:"out.wav" help:"Output file."`
	Rate     int    `default:"44100" help:"Sample rate (Hz)."`

	// Cycles per sample. Zero plays the device in real time.
	CyclesPerSample float64 `help:"Device cycles per sample (0 = real time)."`

	NoLowPass  bool `help:"Disable low-pass filter."`
	NoHighPass bool `help:"Disable high-pass filter."`
}

// Run executes the wav command.
func (c *WavCmd) Run() error {
	emu, err := runScenario(c.Scenario)
	if err != nil {
		return err
	}

	f, err := os.Create(c.Out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", c.Out, err)
	}
	defer f.Close()

	n, err := writeWav(f, emu, c.Pin, c.Rate, c.CyclesPerSample, AudioOptions{
		EnableLowPass:  !c.NoLowPass,
		EnableHighPass: !c.NoHighPass,
		EnableSoftClip: true,
	})
	if err != nil {
		return err
	}

	fmt.Printf("wrote %d samples of %s to %s\n", n, c.Pin, c.Out)
	return nil
}

// writeWav renders the whole trace of a pin as 16-bit mono PCM and returns
// the number of samples written.
func writeWav(w io.WriteSeeker, emu *emulator.Emulator, name string, rate int, cyclesPerSample float64, opts AudioOptions) (int, error) {
	p, err := emu.Pin(name)
	if err != nil {
		return 0, err
	}
	if cyclesPerSample <= 0 {
		cyclesPerSample = float64(emu.Profile.ClockHz) / float64(rate)
	}

	samples := render(p, 0, emu.Cycles(), cyclesPerSample)
	if len(samples) == 0 {
		return 0, fmt.Errorf("%w: %d cycles at %.1f cycles per sample", ErrNothingToRender, emu.Cycles(), cyclesPerSample)
	}

	flt := filter{options: opts}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(flt.apply(s) * 32767.0)
	}

	enc := wav.NewEncoder(w, rate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		return 0, fmt.Errorf("failed to encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish wav: %w", err)
	}

	logger.Logf("wav", "%s: %d samples at %d Hz, %.1f cycles per sample", name, len(samples), rate, cyclesPerSample)
	return len(samples), nil
}
