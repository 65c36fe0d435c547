package timer

import (
	"testing"
)

func TestFacade16WriteCommitsOnLow(t *testing.T) {
	r := newRig(Layout16DualC)

	r.regs.Write(TCNTH, 0x12)
	if got := r.unit.Counter(); got != 0 {
		t.Errorf("TCNT1 after high byte only = 0x%04X, want 0", got)
	}
	r.regs.Write(TCNTL, 0x34)
	if got := r.unit.Counter(); got != 0x1234 {
		t.Errorf("TCNT1 = 0x%04X, want 0x1234", got)
	}
}

func TestFacade16StaleHigh(t *testing.T) {
	r := newRig(Layout16DualC)
	r.write16(TCNTH, TCNTL, 0x1234)

	// a high byte write on its own has no visible effect
	r.regs.Write(TCNTH, 0x56)
	if got := r.unit.Counter(); got != 0x1234 {
		t.Errorf("TCNT1 after high byte only = 0x%04X, want 0x1234", got)
	}

	// low byte writes reuse the staged high byte
	r.regs.Write(TCNTL, 0x78)
	if got := r.unit.Counter(); got != 0x5678 {
		t.Errorf("TCNT1 = 0x%04X, want 0x5678", got)
	}
	r.regs.Write(TCNTL, 0x9A)
	if got := r.unit.Counter(); got != 0x569A {
		t.Errorf("TCNT1 after second low write = 0x%04X, want 0x569A", got)
	}
}

func TestFacade16ReadLowFirst(t *testing.T) {
	r := newRig(Layout16DualC)
	r.unit.SetCounter(0x1234)

	lo := r.regs.Read(TCNTL)
	r.unit.SetCounter(0x20FF)
	hi := r.regs.Read(TCNTH)

	if got := uint16(hi)<<8 | uint16(lo); got != 0x1234 {
		t.Errorf("TCNT1 read low then high = 0x%04X, want 0x1234", got)
	}
}

func TestFacade16ReadHighFirst(t *testing.T) {
	r := newRig(Layout16DualC)
	r.unit.SetCounter(0x1234)

	hi := r.regs.Read(TCNTH)
	r.unit.SetCounter(0x56FF)
	lo := r.regs.Read(TCNTL)

	if got := uint16(hi)<<8 | uint16(lo); got != 0x1234 {
		t.Errorf("TCNT1 read high then low = 0x%04X, want 0x1234", got)
	}
}

func TestFacade16ReadWhileCounting(t *testing.T) {
	r := newRig(Layout16DualC)
	r.regs.Write(TCCRB, 0x01)
	r.run(0x1FF)

	// the counter crosses a byte boundary between the two reads
	r.unit.SetCounter(0x01FF)
	lo := r.regs.Read(TCNTL)
	r.run(1)
	hi := r.regs.Read(TCNTH)

	if got := uint16(hi)<<8 | uint16(lo); got != 0x01FF {
		t.Errorf("TCNT1 = 0x%04X, want 0x01FF", got)
	}
	if got := r.read16(TCNTL, TCNTH); got != 0x0200 {
		t.Errorf("TCNT1 = 0x%04X, want 0x0200", got)
	}
}

func TestFacade16SlotsAreIndependent(t *testing.T) {
	r := newRig(Layout16DualC)

	r.regs.Write(OCRAH, 0x01)
	r.regs.Write(TCNTL, 0x05)
	if got := r.unit.Counter(); got != 0x0005 {
		t.Errorf("TCNT1 = 0x%04X, want 0x0005 (OCR1A high byte must not leak)", got)
	}
	if got := r.unit.Compare(0).Threshold(); got != 0 {
		t.Errorf("OCR1A = 0x%04X, want 0", got)
	}

	r.regs.Write(OCRAL, 0x02)
	if got := r.unit.Compare(0).Threshold(); got != 0x0102 {
		t.Errorf("OCR1A = 0x%04X, want 0x0102", got)
	}

	other := newRig(Layout16DualC)
	r.regs.Write(TCNTH, 0x7F)
	other.regs.Write(TCNTL, 0x01)
	if got := other.unit.Counter(); got != 0x0001 {
		t.Errorf("second unit TCNT = 0x%04X, want 0x0001", got)
	}
}

func TestFacade16OCRReadsDirect(t *testing.T) {
	r := newRig(Layout16Triple)
	r.write16(OCRCH, OCRCL, 0xABCD)

	if got := r.regs.Read(OCRCH); got != 0xAB {
		t.Errorf("OCRCH = 0x%02X, want 0xAB", got)
	}
	if got := r.regs.Read(OCRCL); got != 0xCD {
		t.Errorf("OCRCL = 0x%02X, want 0xCD", got)
	}
}

func TestFacade16MissingRegisters(t *testing.T) {
	r := newRig(Layout16Single)

	r.write16(OCRBH, OCRBL, 0x1234)
	if got := r.regs.Read(OCRBL); got != 0 {
		t.Errorf("OCRBL on a single channel unit = 0x%02X, want 0", got)
	}
	r.write16(OCRCH, OCRCL, 0x1234)
	if got := r.regs.Read(OCRCH); got != 0 {
		t.Errorf("OCRCH = 0x%02X, want 0", got)
	}
}

func TestFacade16SnapshotRestore(t *testing.T) {
	r := newRig(Layout16DualC)
	r.regs.Write(TCNTH, 0x42)

	s := r.regs.Snapshot()
	r.regs.Reset()
	r.regs.Write(TCNTL, 0x01)
	if got := r.unit.Counter(); got != 0x0001 {
		t.Errorf("TCNT1 after Reset = 0x%04X, want 0x0001", got)
	}

	r.regs.Restore(s)
	r.regs.Write(TCNTL, 0x01)
	if got := r.unit.Counter(); got != 0x4201 {
		t.Errorf("TCNT1 after Restore = 0x%04X, want 0x4201", got)
	}
}

func TestFacade8(t *testing.T) {
	r := newRig(Layout8Dual)

	r.regs.Write(TCNT, 0xAB)
	r.regs.Write(OCRA, 0x11)
	r.regs.Write(OCRB, 0x22)

	tests := []struct {
		reg  Register
		want uint8
	}{
		{TCNT, 0xAB},
		{OCRA, 0x11},
		{OCRB, 0x22},
		{TCNTH, 0},
		{OCRCL, 0},
		{ICRL, 0},
	}
	for _, tt := range tests {
		if got := r.regs.Read(tt.reg); got != tt.want {
			t.Errorf("Read(%s) = 0x%02X, want 0x%02X", tt.reg, got, tt.want)
		}
	}

	if r.regs.Unit() != r.unit {
		t.Error("Unit() does not return the wrapped unit")
	}
}

func TestRegisterString(t *testing.T) {
	if got := OCRBH.String(); got != "OCRBH" {
		t.Errorf("OCRBH.String() = %q", got)
	}
	if got := TCCR.String(); got != "TCCRA" {
		t.Errorf("TCCR.String() = %q", got)
	}
	if got := Register(99).String(); got != "Register(99)" {
		t.Errorf("Register(99).String() = %q", got)
	}
}

func TestParseRegister(t *testing.T) {
	tests := []struct {
		name string
		want Register
		ok   bool
	}{
		{"TCCRB", TCCRB, true},
		{"tcnt", TCNTL, true},
		{"TCNTH", TCNTH, true},
		{" ocra ", OCRAL, true},
		{"ICR", ICRL, true},
		{"OCRCH", OCRCH, true},
		{"TIFR", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseRegister(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRegister(%q) = %v %v, want %v %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
