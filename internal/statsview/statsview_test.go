//go:build !statsview

package statsview

import (
	"bytes"
	"testing"
)

func TestStubLaunch(t *testing.T) {
	if Available() {
		t.Fatal("Available() = true without the statsview tag")
	}

	var buf bytes.Buffer
	Launch(&buf)
	if buf.Len() != 0 {
		t.Errorf("Launch() wrote %q, want nothing", buf.String())
	}
}
