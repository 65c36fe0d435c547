package scenario

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/richardwooding/avrsim/internal/emulator"
	"github.com/richardwooding/avrsim/internal/logger"
	"github.com/richardwooding/avrsim/internal/timer"
)

// ErrWallClock indicates the scenario ran past its time allowance.
var ErrWallClock = errors.New("scenario timed out")

// cycles run between wall clock checks
const runChunk = 1 << 16

// Result represents the result of running a scenario.
type Result struct {
	Name     string
	Failures []string
	Passed   bool
	Failed   bool
	Timeout  bool
	Error    error

	// Emulator is the device after the last step. It is nil if the device
	// could not be created.
	Emulator *emulator.Emulator
}

// Run loads and executes a scenario file. A zero timeout means no limit.
func Run(path string, timeout time.Duration) *Result {
	s, err := LoadFile(path)
	if err != nil {
		return &Result{Name: path, Error: err}
	}
	return Execute(s, timeout)
}

// Execute runs a loaded scenario. Expectation mismatches are collected and
// do not stop the run; anything else does.
func Execute(s *Scenario, timeout time.Duration) *Result {
	result := &Result{Name: s.Name}

	emu, err := emulator.New(s.Device)
	if err != nil {
		result.Error = fmt.Errorf("failed to create emulator: %w", err)
		return result
	}
	result.Emulator = emu

	r := &runner{emu: emu, scenario: s}
	if timeout > 0 {
		r.deadline = time.Now().Add(timeout)
	}

	logger.Logf("scenario", "%s: %d steps on %s", s.Name, len(s.Steps), emu.Profile.Name)
	for i, st := range s.Steps {
		failure, err := r.step(st)
		if err != nil {
			if errors.Is(err, ErrWallClock) {
				result.Timeout = true
			}
			result.Error = fmt.Errorf("step %d (%s): %w", i+1, st, err)
			return result
		}
		if failure != "" {
			msg := fmt.Sprintf("step %d (%s) at cycle %d: %s", i+1, st, emu.Cycles(), failure)
			logger.Log("scenario", msg)
			result.Failures = append(result.Failures, msg)
		}
	}

	result.Failed = len(result.Failures) > 0
	result.Passed = !result.Failed
	return result
}

// String returns a human-readable representation of the result.
func (r *Result) String() string {
	if r.Error != nil && !r.Timeout {
		return fmt.Sprintf("ERROR: %v", r.Error)
	}

	if r.Timeout {
		return "TIMEOUT"
	}

	if r.Failed {
		return "FAILED\n  " + strings.Join(r.Failures, "\n  ")
	}

	if r.Passed {
		return "PASSED"
	}

	return "UNKNOWN"
}

// IsSuccess returns true if the scenario passed.
func (r *Result) IsSuccess() bool {
	return r.Passed && !r.Failed && r.Error == nil
}

type runner struct {
	emu      *emulator.Emulator
	scenario *Scenario
	deadline time.Time
}

func (r *runner) checkDeadline() error {
	if !r.deadline.IsZero() && time.Now().After(r.deadline) {
		return ErrWallClock
	}
	return nil
}

func (r *runner) run(cycles uint64) error {
	for cycles > 0 {
		n := min(cycles, runChunk)
		r.emu.RunCycles(n)
		cycles -= n
		if err := r.checkDeadline(); err != nil {
			return err
		}
	}
	return nil
}

// address resolves the register operand of a step to a data address.
func (r *runner) address(st Step, reg timer.Register) (uint16, error) {
	t, ok := r.emu.Profile.Timer(st.Timer)
	if !ok {
		return 0, fmt.Errorf("%w: %q", emulator.ErrUnknownTimer, st.Timer)
	}
	addr, ok := t.Registers[reg]
	if !ok {
		return 0, fmt.Errorf("%s has no %s", t.Name, reg)
	}
	return addr, nil
}

func (r *runner) operand(st Step) (uint16, error) {
	if st.Reg == "" {
		return st.Addr, nil
	}
	reg, ok := timer.ParseRegister(st.Reg)
	if !ok {
		return 0, fmt.Errorf("unknown register %q", st.Reg)
	}
	return r.address(st, reg)
}

// operand16 resolves a 16-bit register to its low and high addresses.
func (r *runner) operand16(st Step) (low, high uint16, err error) {
	reg, ok := timer.ParseRegister(st.Reg)
	if !ok || reg < timer.TCNTL || reg >= timer.ICRH || (reg-timer.TCNTL)%2 != 0 {
		return 0, 0, fmt.Errorf("%q is not a 16-bit register", st.Reg)
	}
	if low, err = r.address(st, reg); err != nil {
		return 0, 0, err
	}
	if high, err = r.address(st, reg+1); err != nil {
		return 0, 0, err
	}
	return low, high, nil
}

// step executes one step. It returns a failure message for an unmet
// expectation, or an error if the step could not be executed.
func (r *runner) step(st Step) (string, error) {
	emu := r.emu

	switch st.Op {
	case OpWrite:
		addr, err := r.operand(st)
		if err != nil {
			return "", err
		}
		emu.Write(addr, uint8(st.Value))

	case OpWrite16:
		low, high, err := r.operand16(st)
		if err != nil {
			return "", err
		}
		emu.Write(high, uint8(st.Value>>8))
		emu.Write(low, uint8(st.Value))

	case OpRun:
		return "", r.run(st.Cycles)

	case OpPin:
		p, err := emu.Pin(st.Pin)
		if err != nil {
			return "", err
		}
		p.SetLevel(st.Level)

	case OpPulse:
		// one pulse is a high cycle followed by a low cycle
		p, err := emu.Pin(st.Pin)
		if err != nil {
			return "", err
		}
		pulses := max(st.Value, 1)
		for i := uint16(0); i < pulses; i++ {
			p.SetLevel(true)
			emu.Step()
			p.SetLevel(false)
			emu.Step()
		}

	case OpWaitFlag:
		id, err := emu.IRQ.Lookup(st.Flag)
		if err != nil {
			return "", err
		}
		limit := st.Cycles
		if limit == 0 {
			limit = r.scenario.CycleLimit
		}
		raised := func(*emulator.Emulator) bool { return emu.IRQ.Pending(id) }
		for left := limit; ; {
			n := min(left, runChunk)
			err = emu.RunUntil(raised, n)
			if !errors.Is(err, emulator.ErrTimeout) {
				return "", err
			}
			left -= n
			if left == 0 {
				return fmt.Sprintf("%s not raised within %d cycles", st.Flag, limit), nil
			}
			if err := r.checkDeadline(); err != nil {
				return "", err
			}
		}

	case OpClearFlag:
		v, ok := emu.Profile.Vector(st.Flag)
		if !ok {
			return "", fmt.Errorf("unknown flag %q", st.Flag)
		}
		emu.Write(v.Flag.Addr, 1<<v.Flag.Bit)

	case OpExpect:
		addr, err := r.operand(st)
		if err != nil {
			return "", err
		}
		if got := emu.Read(addr); got != uint8(st.Value) {
			return fmt.Sprintf("read 0x%02X, want 0x%02X", got, uint8(st.Value)), nil
		}

	case OpExpect16:
		low, high, err := r.operand16(st)
		if err != nil {
			return "", err
		}
		lo := emu.Read(low)
		hi := emu.Read(high)
		if got := uint16(hi)<<8 | uint16(lo); got != st.Value {
			return fmt.Sprintf("read 0x%04X, want 0x%04X", got, st.Value), nil
		}

	case OpExpectPin:
		p, err := emu.Pin(st.Pin)
		if err != nil {
			return "", err
		}
		var msgs []string
		if p.Level() != st.Level {
			msgs = append(msgs, fmt.Sprintf("level %v, want %v", p.Level(), st.Level))
		}
		if st.Rising != nil && p.Rising() != *st.Rising {
			msgs = append(msgs, fmt.Sprintf("%d rising edges, want %d", p.Rising(), *st.Rising))
		}
		if st.Falling != nil && p.Falling() != *st.Falling {
			msgs = append(msgs, fmt.Sprintf("%d falling edges, want %d", p.Falling(), *st.Falling))
		}
		return strings.Join(msgs, ", "), nil

	case OpExpectFlag:
		id, err := emu.IRQ.Lookup(st.Flag)
		if err != nil {
			return "", err
		}
		if got := emu.IRQ.Pending(id); got != st.Level {
			return fmt.Sprintf("%s is %v, want %v", st.Flag, got, st.Level), nil
		}

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOp, st.Op)
	}

	return "", r.checkDeadline()
}
