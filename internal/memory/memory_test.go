package memory

import (
	"errors"
	"testing"

	"github.com/richardwooding/avrsim/internal/timer"
)

type fakeTimer struct {
	regs map[timer.Register]uint8
}

func (f *fakeTimer) Read(r timer.Register) uint8         { return f.regs[r] }
func (f *fakeTimer) Write(r timer.Register, value uint8) { f.regs[r] = value }

type fakeFlags struct {
	addr  uint16
	value uint8
}

func (f *fakeFlags) Owns(addr uint16) bool { return addr == f.addr }
func (f *fakeFlags) Read(uint16) uint8     { return f.value }
func (f *fakeFlags) Write(_ uint16, v uint8) {
	f.value &^= v
}

type strobe struct {
	writes []uint8
}

func (s *strobe) Read() uint8        { return 0 }
func (s *strobe) Write(value uint8) { s.writes = append(s.writes, value) }

func TestNewBus(t *testing.T) {
	bus := NewBus()

	if bus == nil {
		t.Fatal("NewBus() returned nil")
	}
	if len(bus.Mappings()) != 0 {
		t.Errorf("Mappings() = %v, want none", bus.Mappings())
	}
}

func TestTimerMapping(t *testing.T) {
	bus := NewBus()
	ft := &fakeTimer{regs: map[timer.Register]uint8{}}
	err := bus.MapTimer("TIMER0", map[timer.Register]uint16{
		timer.TCCRA: 0x44,
		timer.TCNTL: 0x46,
	}, ft)
	if err != nil {
		t.Fatalf("MapTimer() error = %v", err)
	}

	bus.Write(0x46, 0x99)
	if ft.regs[timer.TCNTL] != 0x99 {
		t.Errorf("TCNT = %02X, want 0x99", ft.regs[timer.TCNTL])
	}
	if got := bus.Read(0x46); got != 0x99 {
		t.Errorf("Read(0x46) = %02X, want 0x99", got)
	}

	name, ok := bus.Lookup(0x44)
	if !ok || name != "TIMER0 TCCRA" {
		t.Errorf("Lookup(0x44) = %q %v, want %q", name, ok, "TIMER0 TCCRA")
	}
}

func TestMappingConflicts(t *testing.T) {
	bus := NewBus()
	ft := &fakeTimer{regs: map[timer.Register]uint8{}}

	if err := bus.MapTimer("TIMER0", map[timer.Register]uint16{timer.TCNTL: 0x46}, ft); err != nil {
		t.Fatal(err)
	}
	err := bus.MapRegister("GTCCR", 0x46, &strobe{})
	if !errors.Is(err, ErrAddressInUse) {
		t.Errorf("MapRegister() error = %v, want ErrAddressInUse", err)
	}

	err = bus.MapRegister("LOW", 0x10, &strobe{})
	if !errors.Is(err, ErrAddressOutOfRange) {
		t.Errorf("MapRegister(0x10) error = %v, want ErrAddressOutOfRange", err)
	}
}

func TestFlagRegisters(t *testing.T) {
	bus := NewBus()
	flags := &fakeFlags{addr: 0x36, value: 0x27}
	bus.SetFlags(flags)

	if got := bus.Read(0x36); got != 0x27 {
		t.Errorf("Read(TIFR1) = %02X, want 0x27", got)
	}
	bus.Write(0x36, 0x01)
	if got := bus.Read(0x36); got != 0x26 {
		t.Errorf("Read(TIFR1) after clearing bit 0 = %02X, want 0x26", got)
	}
}

func TestPlainRegister(t *testing.T) {
	bus := NewBus()
	s := &strobe{}
	if err := bus.MapRegister("GTCCR", 0x43, s); err != nil {
		t.Fatal(err)
	}

	bus.Write(0x43, 0x01)
	if len(s.writes) != 1 || s.writes[0] != 0x01 {
		t.Errorf("GTCCR writes = %v, want [1]", s.writes)
	}
}

func TestUnmappedStorage(t *testing.T) {
	bus := NewBus()

	bus.Write(0x25, 0xAB)
	if got := bus.Read(0x25); got != 0xAB {
		t.Errorf("Read(0x25) = %02X, want 0xAB", got)
	}

	bus.Reset()
	if got := bus.Read(0x25); got != 0 {
		t.Errorf("Read(0x25) after Reset = %02X, want 0", got)
	}
}

func TestOutOfRange(t *testing.T) {
	bus := NewBus()

	bus.Write(0x0010, 0x55)
	if got := bus.Read(0x0010); got != 0xFF {
		t.Errorf("Read(0x10) = %02X, want 0xFF", got)
	}
	if got := bus.Read(0x0100); got != 0xFF {
		t.Errorf("Read(0x100) = %02X, want 0xFF", got)
	}
}

func TestSixteenBitAccess(t *testing.T) {
	bus := NewBus()
	ft := &fakeTimer{regs: map[timer.Register]uint8{}}
	err := bus.MapTimer("TIMER1", map[timer.Register]uint16{
		timer.OCRAL: 0x88,
		timer.OCRAH: 0x89,
	}, ft)
	if err != nil {
		t.Fatal(err)
	}

	bus.Write16(0x88, 0x1234)
	if ft.regs[timer.OCRAH] != 0x12 || ft.regs[timer.OCRAL] != 0x34 {
		t.Errorf("OCR1A = %02X%02X, want 1234", ft.regs[timer.OCRAH], ft.regs[timer.OCRAL])
	}
	if got := bus.Read16(0x88); got != 0x1234 {
		t.Errorf("Read16(0x88) = %04X, want 1234", got)
	}
}
