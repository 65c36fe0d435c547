package pin

import (
	"errors"
	"testing"
)

func TestSetLevelRecordsTransitions(t *testing.T) {
	var cycle uint64
	p := New("OC0A")
	p.SetClock(func() uint64 { return cycle })

	cycle = 3
	p.SetLevel(true)
	cycle = 4
	p.SetLevel(true) // no change
	cycle = 9
	p.SetLevel(false)

	got := p.Transitions()
	if len(got) != 2 {
		t.Fatalf("len(Transitions()) = %d, want 2", len(got))
	}
	if got[0] != (Transition{Cycle: 3, Level: true}) {
		t.Errorf("Transitions()[0] = %+v", got[0])
	}
	if got[1] != (Transition{Cycle: 9, Level: false}) {
		t.Errorf("Transitions()[1] = %+v", got[1])
	}
	if p.Rising() != 1 || p.Falling() != 1 {
		t.Errorf("Rising/Falling = %d/%d, want 1/1", p.Rising(), p.Falling())
	}
}

func TestLevelAt(t *testing.T) {
	var cycle uint64
	p := New("OC1A")
	p.SetClock(func() uint64 { return cycle })

	cycle = 10
	p.SetLevel(true)
	cycle = 20
	p.SetLevel(false)

	tests := []struct {
		cycle uint64
		want  bool
	}{
		{0, false},
		{9, false},
		{10, true},
		{19, true},
		{20, false},
		{100, false},
	}
	for _, tt := range tests {
		if got := p.LevelAt(tt.cycle); got != tt.want {
			t.Errorf("LevelAt(%d) = %v, want %v", tt.cycle, got, tt.want)
		}
	}
}

func TestClaim(t *testing.T) {
	p := New("OC2A")
	if err := p.Claim("timer2"); err != nil {
		t.Fatalf("Claim() = %v", err)
	}
	if err := p.Claim("timer2"); err != nil {
		t.Errorf("re-Claim by owner = %v, want nil", err)
	}
	if err := p.Claim("timer0"); !errors.Is(err, ErrClaimed) {
		t.Errorf("Claim by other = %v, want ErrClaimed", err)
	}
	if p.Owner() != "timer2" {
		t.Errorf("Owner() = %q, want timer2", p.Owner())
	}
}

func TestReset(t *testing.T) {
	p := New("ICP1")
	p.SetLevel(true)
	p.Reset()
	if p.Level() {
		t.Error("Level() after Reset = true, want false")
	}
	if len(p.Transitions()) != 0 {
		t.Errorf("len(Transitions()) after Reset = %d, want 0", len(p.Transitions()))
	}
}

func TestClearTraceKeepsEarlierSlices(t *testing.T) {
	var cycle uint64
	p := New("OC0B")
	p.SetClock(func() uint64 { return cycle })

	cycle = 5
	p.SetLevel(true)
	held := p.Transitions()

	for _, drop := range []func(){p.ClearTrace, p.Reset} {
		drop()
		cycle++
		p.SetLevel(true)
		cycle++
		p.SetLevel(false)

		if len(held) != 1 || held[0] != (Transition{Cycle: 5, Level: true}) {
			t.Fatalf("held trace = %+v, want the rise at cycle 5", held)
		}
	}
}
