package timer

import (
	"testing"
)

func TestCaptureOnSelectedEdge(t *testing.T) {
	r := newRig(Layout16DualC)
	c := r.unit.Capture()
	c.SetEdge(Rising)
	r.unit.SetCounter(0x0123)

	if c.OnEdge(Falling) {
		t.Error("steady low level captured")
	}
	if !c.OnEdge(Rising) {
		t.Fatal("rising edge not captured")
	}
	if c.Register() != 0x0123 || c.Latched() != Rising {
		t.Errorf("ICR1 = 0x%04X latched %s, want 0x0123 Rising", c.Register(), c.Latched())
	}
	if got := r.flags.raised[lineCAPT]; got != 1 {
		t.Errorf("capture flags = %d, want 1", got)
	}

	// the falling edge completes but is not the selected one
	r.unit.SetCounter(0x0456)
	if c.OnEdge(Falling) {
		t.Error("falling edge captured with ICES rising")
	}
	if c.Register() != 0x0123 {
		t.Errorf("ICR1 = 0x%04X, want 0x0123", c.Register())
	}
}

func TestNoiseCanceller(t *testing.T) {
	r := newRig(Layout16DualC)
	c := r.unit.Capture()
	c.SetEdge(Rising)
	c.SetNoiseCancel(true)

	// three matching samples then one disagreeing: no capture
	for i := 0; i < 3; i++ {
		if c.OnEdge(Rising) {
			t.Fatalf("captured after %d samples", i+1)
		}
	}
	if c.OnEdge(Falling) {
		t.Fatal("captured on a disagreeing sample")
	}
	if got := r.flags.raised[lineCAPT]; got != 0 {
		t.Fatalf("capture flags = %d, want 0", got)
	}

	// four matching samples: exactly one capture
	captures := 0
	for i := 0; i < 4; i++ {
		if c.OnEdge(Rising) {
			captures++
			if i != 3 {
				t.Errorf("captured on sample %d, want 4th", i+1)
			}
		}
	}
	for i := 0; i < 10; i++ {
		if c.OnEdge(Rising) {
			captures++
		}
	}
	if captures != 1 {
		t.Errorf("captures = %d, want 1", captures)
	}
}

func TestCaptureThroughControlRegister(t *testing.T) {
	tests := []struct {
		name  string
		tccrb uint8
		cycle uint64
		icr   uint16
	}{
		{"no noise canceller", 0x41, 1, 0},
		{"noise canceller", 0xC1, 4, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(Layout16DualC)
			r.regs.Write(TCCRB, tt.tccrb)
			r.icp.SetLevel(true)

			for r.flags.raised[lineCAPT] == 0 && r.cycle < 10 {
				r.run(1)
			}

			if r.cycle != tt.cycle {
				t.Errorf("capture at cycle %d, want %d", r.cycle, tt.cycle)
			}
			if got := r.read16(ICRL, ICRH); got != tt.icr {
				t.Errorf("ICR1 = %d, want %d", got, tt.icr)
			}
		})
	}
}

func TestCaptureGlitchRejected(t *testing.T) {
	r := newRig(Layout16DualC)
	r.regs.Write(TCCRB, 0xC1)

	// a two cycle pulse never reaches the four sample threshold
	r.icp.SetLevel(true)
	r.run(2)
	r.icp.SetLevel(false)
	r.run(10)

	if got := r.flags.raised[lineCAPT]; got != 0 {
		t.Errorf("capture flags after glitch = %d, want 0", got)
	}
}

func TestCaptureDefinesTop(t *testing.T) {
	r := newRig(Layout16DualC)
	r.regs.Write(TCCRB, 0x18) // CTC, TOP=ICR1
	r.write16(ICRH, ICRL, 1000)
	r.regs.Write(TCCRB, 0x59) // rising edge, clock on

	r.run(50)
	r.icp.SetLevel(true)
	r.run(1)

	// the edge is sampled before the count, so the new TOP applies on the
	// same clock
	if got := r.unit.Top(); got != 50 {
		t.Errorf("TOP after capture = %d, want 50", got)
	}
	if got := r.unit.Counter(); got != 0 {
		t.Errorf("TCNT = %d, want 0", got)
	}
	// one flag from the edge, one from reaching TOP
	if got := r.flags.raised[lineCAPT]; got != 2 {
		t.Errorf("capture flags = %d, want 2", got)
	}
}

func TestSetNoiseCancelDropsCount(t *testing.T) {
	r := newRig(Layout16DualC)
	c := r.unit.Capture()
	c.SetEdge(Rising)
	c.SetNoiseCancel(true)

	c.OnEdge(Rising)
	c.OnEdge(Rising)
	c.SetNoiseCancel(false)
	c.SetNoiseCancel(true)

	for i := 0; i < 3; i++ {
		if c.OnEdge(Rising) {
			t.Fatalf("captured on sample %d after the count was dropped", i+1)
		}
	}
	if !c.OnEdge(Rising) {
		t.Error("no capture after four fresh samples")
	}
}
