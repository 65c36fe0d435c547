package main

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

const (
	// Audio output sample rate (Hz).
	sampleRate = 48000

	// Audio buffer size in samples.
	// ~0.1 seconds of audio buffering (48000 samples/sec * 0.1 sec * 2 channels).
	audioBufferSize = 9600
)

// AudioOptions configures which audio filters are enabled.
type AudioOptions struct {
	EnableLowPass  bool // Low-pass filter, the RC stage of a PWM DAC
	EnableHighPass bool // High-pass filter for DC offset removal
	EnableSoftClip bool // Soft clipping (vs hard clipping)
	EnableDither   bool // Triangular dithering
}

// filter is the output stage applied to pin samples. A PWM pin is a
// one-bit DAC; the low-pass stage recovers the duty cycle.
type filter struct {
	options AudioOptions
	lp      float32
	hp      float32
}

const (
	hpFilterFactor = 0.9999 // High-pass filter coefficient (removes DC offset)
	lpFilterFactor = 0.90   // Low-pass filter coefficient
)

func (f *filter) apply(x float32) float32 {
	if f.options.EnableLowPass {
		f.lp = f.lp*lpFilterFactor + x*(1.0-lpFilterFactor)
		x = f.lp
	}

	if f.options.EnableHighPass {
		out := x - f.hp
		f.hp = f.hp*hpFilterFactor + x*(1.0-hpFilterFactor)
		x = out
	}

	if f.options.EnableSoftClip {
		if x > 0.9 {
			x = 0.9 + (x-0.9)*0.1
		} else if x < -0.9 {
			x = -0.9 + (x+0.9)*0.1
		}
	} else {
		x = min(max(x, -1.0), 1.0)
	}

	if f.options.EnableDither {
		x += (rand.Float32() + rand.Float32() - 1.0) / 32768.0 //nolint:gosec // Weak random is fine for audio dithering
	}
	return x
}

// AudioPlayer plays one pin of the device.
type AudioPlayer struct {
	audioContext *audio.Context
	audioPlayer  *audio.Player

	// the audio stream reads from its own goroutine
	crit         sync.Mutex
	sampleBuffer []float32
	filter       filter
}

// NewAudioPlayer creates a new audio player.
func NewAudioPlayer(opts AudioOptions) (*AudioPlayer, error) {
	audioContext := audio.NewContext(sampleRate)

	ap := &AudioPlayer{
		audioContext: audioContext,
		sampleBuffer: make([]float32, 0, audioBufferSize),
		filter:       filter{options: opts},
	}

	player, err := audioContext.NewPlayer(&infiniteStream{
		player: ap,
	})
	if err != nil {
		return nil, err
	}
	ap.audioPlayer = player

	// Set a smaller buffer size for more responsive streaming
	player.SetBufferSize(time.Millisecond * 20)
	player.SetVolume(0.5)

	return ap, nil
}

// Start starts audio playback.
func (ap *AudioPlayer) Start() {
	if ap.audioPlayer != nil {
		ap.audioPlayer.Play()
	}
}

// Stop stops audio playback.
func (ap *AudioPlayer) Stop() {
	if ap.audioPlayer != nil {
		ap.audioPlayer.Pause()
	}
}

// Push queues mono samples in the range -1 to 1.
func (ap *AudioPlayer) Push(samples []float32) {
	ap.crit.Lock()
	defer ap.crit.Unlock()

	ap.sampleBuffer = append(ap.sampleBuffer, samples...)

	// Allow buffer to grow to 2x target size before trimming
	if len(ap.sampleBuffer) > audioBufferSize*2 {
		excess := len(ap.sampleBuffer) - audioBufferSize
		ap.sampleBuffer = ap.sampleBuffer[excess:]
	}
}

// Read reads audio samples for playback (implements io.Reader). Output is
// 16-bit stereo with the pin on both channels.
func (ap *AudioPlayer) Read(buf []byte) (int, error) {
	ap.crit.Lock()
	defer ap.crit.Unlock()

	numSamples := len(buf) / 4
	samplesToWrite := min(numSamples, len(ap.sampleBuffer))

	for i := 0; i < samplesToWrite; i++ {
		v := int16(ap.filter.apply(ap.sampleBuffer[i]) * 32767.0)
		buf[i*4] = byte(v)
		buf[i*4+1] = byte(v >> 8)
		buf[i*4+2] = byte(v)
		buf[i*4+3] = byte(v >> 8)
	}

	// Pad remaining samples with silence
	clear(buf[samplesToWrite*4 : numSamples*4])

	ap.sampleBuffer = ap.sampleBuffer[samplesToWrite:]
	return len(buf), nil
}

// infiniteStream wraps AudioPlayer to implement an infinite audio stream.
type infiniteStream struct {
	player *AudioPlayer
}

// Read implements io.Reader for infinite audio streaming.
func (s *infiniteStream) Read(buf []byte) (int, error) {
	return s.player.Read(buf)
}
