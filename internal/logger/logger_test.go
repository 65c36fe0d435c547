package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogAndTail(t *testing.T) {
	Clear()
	Log("timer0", "wgm 4 clamped to 3")
	Logf("device", "built %s", "atmega328p")

	var buf bytes.Buffer
	Tail(&buf, 1)
	if got, want := buf.String(), "device: built atmega328p\n"; got != want {
		t.Errorf("Tail = %q, want %q", got, want)
	}

	buf.Reset()
	Tail(&buf, 10)
	if strings.Count(buf.String(), "\n") != 2 {
		t.Errorf("Tail(10) wrote %q, want 2 lines", buf.String())
	}
}

func TestRepeatCollapse(t *testing.T) {
	Clear()
	Log("timer1", "reserved wgm")
	Log("timer1", "reserved wgm")
	Log("timer1", "reserved wgm")

	entries := Entries()
	if len(entries) != 1 {
		t.Fatalf("len(Entries()) = %d, want 1", len(entries))
	}
	if entries[0].Repeated != 2 {
		t.Errorf("Repeated = %d, want 2", entries[0].Repeated)
	}
	if !strings.Contains(entries[0].String(), "(repeat x3)") {
		t.Errorf("String() = %q, want repeat count", entries[0].String())
	}
}

func TestBounded(t *testing.T) {
	Clear()
	for i := 0; i < maxEntries+10; i++ {
		Logf("test", "entry %d", i)
	}
	entries := Entries()
	if len(entries) != maxEntries {
		t.Fatalf("len(Entries()) = %d, want %d", len(entries), maxEntries)
	}
	if entries[0].Detail != "entry 10" {
		t.Errorf("oldest entry = %q, want %q", entries[0].Detail, "entry 10")
	}
}

func TestEcho(t *testing.T) {
	Clear()
	var buf bytes.Buffer
	SetEcho(&buf)
	defer SetEcho(nil)

	Log("scenario", "step 1")
	if buf.String() != "scenario: step 1\n" {
		t.Errorf("echo = %q", buf.String())
	}
}
