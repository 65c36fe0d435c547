package irq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// ATmega328P timer 1 flag layout.
const (
	tifr1  = 0x36
	timsk1 = 0x6F
)

func newTimer1Controller() (*Controller, int, int, int) {
	c := New()
	capt := c.AddLine("TIMER1_CAPT", 10)
	compa := c.AddLine("TIMER1_COMPA", 11)
	ovf := c.AddLine("TIMER1_OVF", 13)

	c.MapFlag(ovf, tifr1, 0)
	c.MapFlag(compa, tifr1, 1)
	c.MapFlag(capt, tifr1, 5)
	c.MapMask(ovf, timsk1, 0)
	c.MapMask(compa, timsk1, 1)
	c.MapMask(capt, timsk1, 5)
	return c, capt, compa, ovf
}

func TestRaiseAndAck(t *testing.T) {
	c, _, _, ovf := newTimer1Controller()

	require.False(t, c.Pending(ovf))
	c.RaiseFlag(ovf)
	require.True(t, c.Pending(ovf))
	require.Equal(t, uint8(0x01), c.Read(tifr1))

	c.AckFlag(ovf)
	require.False(t, c.Pending(ovf))
	require.Equal(t, uint64(1), c.Raised(ovf))
}

func TestFlagStaysSetUntilAcknowledged(t *testing.T) {
	c, _, compa, _ := newTimer1Controller()

	c.RaiseFlag(compa)
	c.RaiseFlag(compa)
	require.True(t, c.Pending(compa))
	require.Equal(t, uint64(2), c.Raised(compa))
}

func TestWriteOneToClear(t *testing.T) {
	c, capt, compa, ovf := newTimer1Controller()
	c.RaiseFlag(capt)
	c.RaiseFlag(compa)
	c.RaiseFlag(ovf)
	require.Equal(t, uint8(0x23), c.Read(tifr1))

	// writing zero bits leaves flags alone
	c.Write(tifr1, 0x00)
	require.Equal(t, uint8(0x23), c.Read(tifr1))

	c.Write(tifr1, 0x02)
	require.Equal(t, uint8(0x21), c.Read(tifr1))
	require.False(t, c.Pending(compa))
}

func TestMaskRegister(t *testing.T) {
	c, capt, _, ovf := newTimer1Controller()

	c.Write(timsk1, 0x21)
	require.True(t, c.Enabled(capt))
	require.True(t, c.Enabled(ovf))
	require.Equal(t, uint8(0x21), c.Read(timsk1))

	require.True(t, c.Owns(timsk1))
	require.True(t, c.Owns(tifr1))
	require.False(t, c.Owns(0x37))
}

func TestServicePriority(t *testing.T) {
	c, capt, compa, ovf := newTimer1Controller()
	c.Write(timsk1, 0x23)

	c.RaiseFlag(ovf)
	c.RaiseFlag(compa)

	id, ok := c.Service()
	require.True(t, ok)
	require.Equal(t, compa, id)
	require.False(t, c.Pending(compa))

	id, ok = c.Service()
	require.True(t, ok)
	require.Equal(t, ovf, id)

	_, ok = c.Service()
	require.False(t, ok)

	// a pending but masked line is not serviced
	c.SetEnabled(capt, false)
	c.RaiseFlag(capt)
	_, ok = c.Next()
	require.False(t, ok)
}

func TestNoLineIsIgnored(t *testing.T) {
	c := New()
	c.RaiseFlag(NoLine)
	c.AckFlag(NoLine)
	require.False(t, c.Pending(NoLine))
	require.Equal(t, "", c.Name(NoLine))
}

func TestLookup(t *testing.T) {
	c, _, compa, _ := newTimer1Controller()

	id, err := c.Lookup("TIMER1_COMPA")
	require.NoError(t, err)
	require.Equal(t, compa, id)

	_, err = c.Lookup("TIMER9_OVF")
	require.ErrorIs(t, err, ErrUnknownLine)
}

func TestSnapshotRestore(t *testing.T) {
	c, _, compa, ovf := newTimer1Controller()
	c.RaiseFlag(compa)
	c.SetEnabled(ovf, true)

	s := c.Snapshot()
	c.Reset()
	require.False(t, c.Pending(compa))

	c.Restore(s)
	require.True(t, c.Pending(compa))
	require.True(t, c.Enabled(ovf))
	require.Equal(t, uint64(1), c.Raised(compa))
}
