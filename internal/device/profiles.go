package device

import (
	"github.com/richardwooding/avrsim/internal/timer"
)

// Addresses are data space addresses (I/O address + 0x20 for the low I/O
// range).

func init() {
	register(atmega328p)
	register(atmega8)
	register(atmega128)
	register(at90s8515)
	register(at90s4433)
}

var atmega328p = &Profile{
	Name:    "ATmega328P",
	ClockHz: 16_000_000,
	Timers: []Timer{
		{
			Name:   "TIMER0",
			Layout: timer.Layout8Dual,
			Registers: Registers{
				timer.TCCRA: 0x44,
				timer.TCCRB: 0x45,
				timer.TCNTL: 0x46,
				timer.OCRAL: 0x47,
				timer.OCRBL: 0x48,
			},
			Overflow: "TIMER0_OVF",
			Compare:  [3]string{"TIMER0_COMPA", "TIMER0_COMPB"},
			Outputs:  [3]string{"OC0A", "OC0B"},
			ClockPin: "T0",
		},
		{
			Name:   "TIMER1",
			Layout: timer.Layout16DualC,
			Registers: Registers{
				timer.TCCRA: 0x80,
				timer.TCCRB: 0x81,
				timer.TCCRC: 0x82,
				timer.TCNTL: 0x84,
				timer.TCNTH: 0x85,
				timer.ICRL:  0x86,
				timer.ICRH:  0x87,
				timer.OCRAL: 0x88,
				timer.OCRAH: 0x89,
				timer.OCRBL: 0x8A,
				timer.OCRBH: 0x8B,
			},
			Overflow:   "TIMER1_OVF",
			Compare:    [3]string{"TIMER1_COMPA", "TIMER1_COMPB"},
			Capture:    "TIMER1_CAPT",
			Outputs:    [3]string{"OC1A", "OC1B"},
			CapturePin: "ICP1",
			ClockPin:   "T1",
		},
		{
			Name:   "TIMER2",
			Layout: timer.Layout8Dual,
			Async:  true,
			Registers: Registers{
				timer.TCCRA: 0xB0,
				timer.TCCRB: 0xB1,
				timer.TCNTL: 0xB2,
				timer.OCRAL: 0xB3,
				timer.OCRBL: 0xB4,
			},
			Overflow: "TIMER2_OVF",
			Compare:  [3]string{"TIMER2_COMPA", "TIMER2_COMPB"},
			Outputs:  [3]string{"OC2A", "OC2B"},
		},
	},
	Vectors: []Vector{
		{"TIMER2_COMPA", 7, Bit{0x37, 1}, Bit{0x70, 1}},
		{"TIMER2_COMPB", 8, Bit{0x37, 2}, Bit{0x70, 2}},
		{"TIMER2_OVF", 9, Bit{0x37, 0}, Bit{0x70, 0}},
		{"TIMER1_CAPT", 10, Bit{0x36, 5}, Bit{0x6F, 5}},
		{"TIMER1_COMPA", 11, Bit{0x36, 1}, Bit{0x6F, 1}},
		{"TIMER1_COMPB", 12, Bit{0x36, 2}, Bit{0x6F, 2}},
		{"TIMER1_OVF", 13, Bit{0x36, 0}, Bit{0x6F, 0}},
		{"TIMER0_COMPA", 14, Bit{0x35, 1}, Bit{0x6E, 1}},
		{"TIMER0_COMPB", 15, Bit{0x35, 2}, Bit{0x6E, 2}},
		{"TIMER0_OVF", 16, Bit{0x35, 0}, Bit{0x6E, 0}},
	},
	// GTCCR: PSRSYNC, PSRASY
	PrescalerReset: PrescalerReset{Addr: 0x43, Sync: 0x01, Async: 0x02},
}

var atmega8 = &Profile{
	Name:             "ATmega8",
	ClockHz:          8_000_000,
	FastPWMSyncAtTop: true,
	Timers: []Timer{
		{
			Name:      "TIMER0",
			Layout:    timer.Layout8Basic,
			Registers: Registers{timer.TCCR: 0x53, timer.TCNTL: 0x52},
			Overflow:  "TIMER0_OVF",
			ClockPin:  "T0",
		},
		{
			Name:   "TIMER1",
			Layout: timer.Layout16Dual,
			Registers: Registers{
				timer.TCCRA: 0x4F,
				timer.TCCRB: 0x4E,
				timer.TCNTL: 0x4C,
				timer.TCNTH: 0x4D,
				timer.OCRAL: 0x4A,
				timer.OCRAH: 0x4B,
				timer.OCRBL: 0x48,
				timer.OCRBH: 0x49,
				timer.ICRL:  0x46,
				timer.ICRH:  0x47,
			},
			Overflow:   "TIMER1_OVF",
			Compare:    [3]string{"TIMER1_COMPA", "TIMER1_COMPB"},
			Capture:    "TIMER1_CAPT",
			Outputs:    [3]string{"OC1A", "OC1B"},
			CapturePin: "ICP1",
			ClockPin:   "T1",
		},
		{
			Name:      "TIMER2",
			Layout:    timer.Layout8Single,
			Async:     true,
			Registers: Registers{timer.TCCR: 0x45, timer.TCNTL: 0x44, timer.OCRAL: 0x43},
			Overflow:  "TIMER2_OVF",
			Compare:   [3]string{"TIMER2_COMP"},
			Outputs:   [3]string{"OC2"},
		},
	},
	Vectors: []Vector{
		{"TIMER2_COMP", 3, Bit{0x58, 7}, Bit{0x59, 7}},
		{"TIMER2_OVF", 4, Bit{0x58, 6}, Bit{0x59, 6}},
		{"TIMER1_CAPT", 5, Bit{0x58, 5}, Bit{0x59, 5}},
		{"TIMER1_COMPA", 6, Bit{0x58, 4}, Bit{0x59, 4}},
		{"TIMER1_COMPB", 7, Bit{0x58, 3}, Bit{0x59, 3}},
		{"TIMER1_OVF", 8, Bit{0x58, 2}, Bit{0x59, 2}},
		{"TIMER0_OVF", 9, Bit{0x58, 0}, Bit{0x59, 0}},
	},
	// SFIOR: PSR10, PSR2
	PrescalerReset: PrescalerReset{Addr: 0x50, Sync: 0x01, Async: 0x02},
}

var atmega128 = &Profile{
	Name:             "ATmega128",
	ClockHz:          16_000_000,
	FastPWMSyncAtTop: true,
	Timers: []Timer{
		{
			Name:      "TIMER0",
			Layout:    timer.Layout8Single,
			Async:     true,
			Registers: Registers{timer.TCCR: 0x53, timer.TCNTL: 0x52, timer.OCRAL: 0x51},
			Overflow:  "TIMER0_OVF",
			Compare:   [3]string{"TIMER0_COMP"},
			Outputs:   [3]string{"OC0"},
		},
		{
			Name:   "TIMER1",
			Layout: timer.Layout16Triple,
			Registers: Registers{
				timer.TCCRA: 0x4F,
				timer.TCCRB: 0x4E,
				timer.TCCRC: 0x7A,
				timer.TCNTL: 0x4C,
				timer.TCNTH: 0x4D,
				timer.OCRAL: 0x4A,
				timer.OCRAH: 0x4B,
				timer.OCRBL: 0x48,
				timer.OCRBH: 0x49,
				timer.OCRCL: 0x78,
				timer.OCRCH: 0x79,
				timer.ICRL:  0x46,
				timer.ICRH:  0x47,
			},
			Overflow:   "TIMER1_OVF",
			Compare:    [3]string{"TIMER1_COMPA", "TIMER1_COMPB", "TIMER1_COMPC"},
			Capture:    "TIMER1_CAPT",
			Outputs:    [3]string{"OC1A", "OC1B", "OC1C"},
			CapturePin: "ICP1",
			ClockPin:   "T1",
		},
		{
			Name:      "TIMER2",
			Layout:    timer.Layout8Single,
			Registers: Registers{timer.TCCR: 0x45, timer.TCNTL: 0x44, timer.OCRAL: 0x43},
			Overflow:  "TIMER2_OVF",
			Compare:   [3]string{"TIMER2_COMP"},
			Outputs:   [3]string{"OC2"},
			ClockPin:  "T2",
		},
		{
			Name:   "TIMER3",
			Layout: timer.Layout16Triple,
			Registers: Registers{
				timer.TCCRA: 0x8B,
				timer.TCCRB: 0x8A,
				timer.TCCRC: 0x8C,
				timer.TCNTL: 0x88,
				timer.TCNTH: 0x89,
				timer.OCRAL: 0x86,
				timer.OCRAH: 0x87,
				timer.OCRBL: 0x84,
				timer.OCRBH: 0x85,
				timer.OCRCL: 0x82,
				timer.OCRCH: 0x83,
				timer.ICRL:  0x80,
				timer.ICRH:  0x81,
			},
			Overflow:   "TIMER3_OVF",
			Compare:    [3]string{"TIMER3_COMPA", "TIMER3_COMPB", "TIMER3_COMPC"},
			Capture:    "TIMER3_CAPT",
			Outputs:    [3]string{"OC3A", "OC3B", "OC3C"},
			CapturePin: "ICP3",
			ClockPin:   "T3",
		},
	},
	Vectors: []Vector{
		{"TIMER2_COMP", 9, Bit{0x56, 7}, Bit{0x57, 7}},
		{"TIMER2_OVF", 10, Bit{0x56, 6}, Bit{0x57, 6}},
		{"TIMER1_CAPT", 11, Bit{0x56, 5}, Bit{0x57, 5}},
		{"TIMER1_COMPA", 12, Bit{0x56, 4}, Bit{0x57, 4}},
		{"TIMER1_COMPB", 13, Bit{0x56, 3}, Bit{0x57, 3}},
		{"TIMER1_OVF", 14, Bit{0x56, 2}, Bit{0x57, 2}},
		{"TIMER0_COMP", 15, Bit{0x56, 1}, Bit{0x57, 1}},
		{"TIMER0_OVF", 16, Bit{0x56, 0}, Bit{0x57, 0}},
		{"TIMER1_COMPC", 24, Bit{0x7C, 0}, Bit{0x7D, 0}},
		{"TIMER3_CAPT", 25, Bit{0x7C, 5}, Bit{0x7D, 5}},
		{"TIMER3_COMPA", 26, Bit{0x7C, 4}, Bit{0x7D, 4}},
		{"TIMER3_COMPB", 27, Bit{0x7C, 3}, Bit{0x7D, 3}},
		{"TIMER3_COMPC", 28, Bit{0x7C, 1}, Bit{0x7D, 1}},
		{"TIMER3_OVF", 29, Bit{0x7C, 2}, Bit{0x7D, 2}},
	},
	// SFIOR: PSR321, PSR0
	PrescalerReset: PrescalerReset{Addr: 0x40, Sync: 0x01, Async: 0x02},
}

var at90s8515 = &Profile{
	Name:             "AT90S8515",
	ClockHz:          8_000_000,
	FastPWMSyncAtTop: true,
	Timers: []Timer{
		{
			Name:      "TIMER0",
			Layout:    timer.Layout8Basic,
			Registers: Registers{timer.TCCR: 0x53, timer.TCNTL: 0x52},
			Overflow:  "TIMER0_OVF",
			ClockPin:  "T0",
		},
		{
			Name:    "TIMER1",
			Layout:  timer.Layout16Dual,
			Classic: true,
			Registers: Registers{
				timer.TCCRA: 0x4F,
				timer.TCCRB: 0x4E,
				timer.TCNTL: 0x4C,
				timer.TCNTH: 0x4D,
				timer.OCRAL: 0x4A,
				timer.OCRAH: 0x4B,
				timer.OCRBL: 0x48,
				timer.OCRBH: 0x49,
				timer.ICRL:  0x44,
				timer.ICRH:  0x45,
			},
			Overflow:   "TIMER1_OVF",
			Compare:    [3]string{"TIMER1_COMPA", "TIMER1_COMPB"},
			Capture:    "TIMER1_CAPT",
			Outputs:    [3]string{"OC1A", "OC1B"},
			CapturePin: "ICP",
			ClockPin:   "T1",
		},
	},
	Vectors: []Vector{
		{"TIMER1_CAPT", 3, Bit{0x58, 3}, Bit{0x59, 3}},
		{"TIMER1_COMPA", 4, Bit{0x58, 6}, Bit{0x59, 6}},
		{"TIMER1_COMPB", 5, Bit{0x58, 5}, Bit{0x59, 5}},
		{"TIMER1_OVF", 6, Bit{0x58, 7}, Bit{0x59, 7}},
		{"TIMER0_OVF", 7, Bit{0x58, 1}, Bit{0x59, 1}},
	},
}

var at90s4433 = &Profile{
	Name:             "AT90S4433",
	ClockHz:          8_000_000,
	FastPWMSyncAtTop: true,
	Timers: []Timer{
		{
			Name:      "TIMER0",
			Layout:    timer.Layout8Basic,
			Registers: Registers{timer.TCCR: 0x53, timer.TCNTL: 0x52},
			Overflow:  "TIMER0_OVF",
			ClockPin:  "T0",
		},
		{
			Name:   "TIMER1",
			Layout: timer.Layout16Single,
			Registers: Registers{
				timer.TCCRA: 0x4F,
				timer.TCCRB: 0x4E,
				timer.TCNTL: 0x4C,
				timer.TCNTH: 0x4D,
				timer.OCRAL: 0x4A,
				timer.OCRAH: 0x4B,
				timer.ICRL:  0x46,
				timer.ICRH:  0x47,
			},
			Overflow:   "TIMER1_OVF",
			Compare:    [3]string{"TIMER1_COMP"},
			Capture:    "TIMER1_CAPT",
			Outputs:    [3]string{"OC1"},
			CapturePin: "ICP",
			ClockPin:   "T1",
		},
	},
	Vectors: []Vector{
		{"TIMER1_CAPT", 3, Bit{0x58, 3}, Bit{0x59, 3}},
		{"TIMER1_COMP", 4, Bit{0x58, 6}, Bit{0x59, 6}},
		{"TIMER1_OVF", 5, Bit{0x58, 7}, Bit{0x59, 7}},
		{"TIMER0_OVF", 6, Bit{0x58, 1}, Bit{0x59, 1}},
	},
}
