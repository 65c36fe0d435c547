package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/richardwooding/avrsim/internal/timer"
)

func TestProfilesValidate(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			p, err := Lookup(name)
			require.NoError(t, err)
			require.NoError(t, p.Validate())
			require.NotZero(t, p.ClockHz)
		})
	}
}

func TestLookup(t *testing.T) {
	p, err := Lookup("atmega328p")
	require.NoError(t, err)
	require.Equal(t, "ATmega328P", p.Name)

	_, err = Lookup("attiny85")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownDevice))
}

func TestNames(t *testing.T) {
	require.Equal(t, []string{"AT90S4433", "AT90S8515", "ATmega128", "ATmega328P", "ATmega8"}, Names())
}

func TestATmega328PTimer1(t *testing.T) {
	p, err := Lookup("ATmega328P")
	require.NoError(t, err)

	t1, ok := p.Timer("timer1")
	require.True(t, ok)
	require.Equal(t, timer.Layout16DualC, t1.Layout)
	require.Equal(t, uint16(0x84), t1.Registers[timer.TCNTL])
	require.Equal(t, uint16(0x87), t1.Registers[timer.ICRH])

	v, ok := p.Vector("TIMER1_CAPT")
	require.True(t, ok)
	require.Equal(t, 10, v.Number)
	require.Equal(t, Bit{0x36, 5}, v.Flag)
	require.False(t, p.FastPWMSyncAtTop)
}

func TestPins(t *testing.T) {
	p, err := Lookup("ATmega8")
	require.NoError(t, err)
	require.Equal(t, []string{"T0", "OC1A", "OC1B", "ICP1", "T1", "OC2"}, p.Pins())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
	}{
		{
			name: "shared address",
			profile: Profile{Name: "X", Timers: []Timer{
				{Name: "T0", Layout: timer.Layout8Basic, Registers: Registers{timer.TCCR: 0x53, timer.TCNTL: 0x53}},
			}},
		},
		{
			name: "no counter",
			profile: Profile{Name: "X", Timers: []Timer{
				{Name: "T0", Layout: timer.Layout8Basic, Registers: Registers{timer.TCCR: 0x53}},
			}},
		},
		{
			name: "channel beyond layout",
			profile: Profile{Name: "X", Timers: []Timer{
				{Name: "T0", Layout: timer.Layout8Basic, Registers: Registers{timer.TCNTL: 0x52},
					Outputs: [3]string{"OC0"}},
			}},
		},
		{
			name: "undefined vector",
			profile: Profile{Name: "X", Timers: []Timer{
				{Name: "T0", Layout: timer.Layout8Basic, Registers: Registers{timer.TCNTL: 0x52}, Overflow: "NOPE"},
			}},
		},
		{
			name: "shared flag",
			profile: Profile{Name: "X", Vectors: []Vector{
				{"A", 1, Bit{0x58, 0}, Bit{0x59, 0}},
				{"B", 2, Bit{0x58, 0}, Bit{0x59, 1}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			require.Error(t, err)
			require.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}
