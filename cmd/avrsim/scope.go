package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/richardwooding/avrsim/internal/emulator"
	"github.com/richardwooding/avrsim/internal/pin"
)

const (
	scopeWidth  = 512
	rowHeight   = 32
	labelHeight = 16
)

var (
	backgroundColor = color.RGBA{0x10, 0x14, 0x18, 0xFF}
	gridColor       = color.RGBA{0x28, 0x30, 0x38, 0xFF}
	traceColor      = color.RGBA{0x40, 0xE0, 0x60, 0xFF}
	edgeColor       = color.RGBA{0x20, 0x80, 0x30, 0xFF}
)

// ScopeCmd shows the device pins as a scrolling logic analyzer.
type ScopeCmd struct {
	Scenario string   `arg:"" type:"existingfile" help:"Path to scenario file run before the scope opens."`
	Pin      []string `help:"Pins to show. Shows every pin if omitted."`
	Scale    int      `help:"Window scale factor (1-10)." default:"2"`

	CyclesPerColumn uint64 `default:"16" help:"Device cycles per screen column."`
	ColumnsPerFrame int    `default:"4" help:"Screen columns added per frame."`

	Listen     string `help:"Play this pin through the audio output."`
	NoLowPass  bool   `help:"Disable low-pass filter."`
	NoHighPass bool   `help:"Disable high-pass filter."`
	NoSoftClip bool   `help:"Disable soft clipping (use hard clipping instead)."`
	NoDither   bool   `help:"Disable triangular dithering."`
}

// Run executes the scope command.
func (c *ScopeCmd) Run() error {
	if c.Scale < 1 || c.Scale > 10 {
		return fmt.Errorf("%w: got %d", ErrInvalidScale, c.Scale)
	}

	emu, err := runScenario(c.Scenario)
	if err != nil {
		return err
	}
	pins, err := selectPins(emu, c.Pin)
	if err != nil {
		return err
	}
	model := newScopeModel(emu, pins, max(c.CyclesPerColumn, 1), max(c.ColumnsPerFrame, 1))

	var player *AudioPlayer
	if c.Listen != "" {
		listen, err := emu.Pin(c.Listen)
		if err != nil {
			return err
		}
		model.listen = listen

		player, err = NewAudioPlayer(AudioOptions{
			EnableLowPass:  !c.NoLowPass,
			EnableHighPass: !c.NoHighPass,
			EnableSoftClip: !c.NoSoftClip,
			EnableDither:   !c.NoDither,
		})
		if err != nil {
			// audio is optional
			fmt.Printf("audio unavailable: %v\n", err)
			player = nil
		} else {
			player.Start()
		}
	}

	display := NewScope(model, player)

	ebiten.SetWindowTitle("avrsim - " + emu.Profile.Name)
	w, h := display.Layout(0, 0)
	ebiten.SetWindowSize(w*c.Scale, h*c.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(display); err != nil {
		return fmt.Errorf("scope error: %w", err)
	}
	return nil
}

// scopeModel runs the device and keeps the most recent columns of every
// pin. Each column holds the duty cycle of the pin over the cycles it
// covers.
type scopeModel struct {
	emu  *emulator.Emulator
	pins []*pin.Pin

	cyclesPerColumn uint64
	columnsPerFrame int

	columns [][]float32
	head    int

	listen *pin.Pin
	paused bool
}

func newScopeModel(emu *emulator.Emulator, pins []*pin.Pin, cyclesPerColumn uint64, columnsPerFrame int) *scopeModel {
	m := &scopeModel{
		emu:             emu,
		pins:            pins,
		cyclesPerColumn: cyclesPerColumn,
		columnsPerFrame: columnsPerFrame,
		columns:         make([][]float32, len(pins)),
	}
	for i := range m.columns {
		m.columns[i] = make([]float32, scopeWidth)
	}
	return m
}

// frame advances the device by one frame of columns and returns the audio
// samples for the listened pin, if any.
func (m *scopeModel) frame(samples int) []float32 {
	if m.paused {
		return nil
	}

	// traces before this frame are no longer needed
	for _, p := range m.emu.Pins() {
		p.ClearTrace()
	}
	start := m.emu.Cycles()

	for c := 0; c < m.columnsPerFrame; c++ {
		from := m.emu.Cycles()
		m.emu.RunCycles(m.cyclesPerColumn)
		to := m.emu.Cycles()
		for i, p := range m.pins {
			m.columns[i][m.head] = float32(duty(p, from, to))
		}
		m.head = (m.head + 1) % scopeWidth
	}

	if m.listen == nil || samples <= 0 {
		return nil
	}
	end := m.emu.Cycles()
	return render(m.listen, start, end, float64(end-start)/float64(samples))
}

// column returns the value of pin i at screen column x, oldest on the left.
func (m *scopeModel) column(i, x int) float32 {
	return m.columns[i][(m.head+x)%scopeWidth]
}

// Scope implements the Ebiten game interface for the pin viewer.
type Scope struct {
	model       *scopeModel
	screen      *ebiten.Image
	pixels      []byte
	audioPlayer *AudioPlayer
}

// NewScope creates a viewer for the model.
func NewScope(model *scopeModel, player *AudioPlayer) *Scope {
	h := scopeHeight(len(model.pins))
	return &Scope{
		model:       model,
		screen:      ebiten.NewImage(scopeWidth, h),
		pixels:      make([]byte, scopeWidth*h*4),
		audioPlayer: player,
	}
}

func scopeHeight(pins int) int {
	return labelHeight + rowHeight*max(pins, 1)
}

// Update runs one frame worth of cycles. Space pauses, the arrow keys
// change the number of cycles per column.
func (s *Scope) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		s.model.paused = !s.model.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		s.model.cyclesPerColumn *= 2
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && s.model.cyclesPerColumn > 1 {
		s.model.cyclesPerColumn /= 2
	}

	samples := s.model.frame(sampleRate / 60)
	if s.audioPlayer != nil && len(samples) > 0 {
		s.audioPlayer.Push(samples)
	}
	return nil
}

func (s *Scope) set(x, y int, c color.RGBA) {
	offset := (y*scopeWidth + x) * 4
	s.pixels[offset] = c.R
	s.pixels[offset+1] = c.G
	s.pixels[offset+2] = c.B
	s.pixels[offset+3] = c.A
}

// Draw draws the pin traces.
func (s *Scope) Draw(screen *ebiten.Image) {
	h := scopeHeight(len(s.model.pins))
	for y := 0; y < h; y++ {
		for x := 0; x < scopeWidth; x++ {
			s.set(x, y, backgroundColor)
		}
	}

	const span = rowHeight - 12
	for i := range s.model.pins {
		top := labelHeight + i*rowHeight
		for x := 0; x < scopeWidth; x++ {
			s.set(x, top+rowHeight-1, gridColor)

			v := s.model.column(i, x)
			hi := top + 4
			lo := hi + span
			switch {
			case v >= 1:
				s.set(x, hi, traceColor)
			case v <= 0:
				s.set(x, lo, traceColor)
			default:
				// the pin changed within this column
				for y := hi; y <= lo; y++ {
					s.set(x, y, edgeColor)
				}
				s.set(x, lo-int(v*span), traceColor)
			}
		}
	}

	s.screen.WritePixels(s.pixels)
	screen.DrawImage(s.screen, nil)

	status := fmt.Sprintf("cycle %d  %d cycles/col", s.model.emu.Cycles(), s.model.cyclesPerColumn)
	if s.model.paused {
		status += "  PAUSED"
	}
	ebitenutil.DebugPrintAt(screen, status, 2, 0)
	for i, p := range s.model.pins {
		ebitenutil.DebugPrintAt(screen, p.Name(), 2, labelHeight+i*rowHeight+rowHeight-16)
	}
}

// Layout returns the scope screen size.
func (s *Scope) Layout(_, _ int) (int, int) {
	return scopeWidth, scopeHeight(len(s.model.pins))
}
