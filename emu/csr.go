package emu

import (
	"time"

	"github.com/sarchlab/rv64sim/insts"
)

// Supported CSR addresses. All three are read-only counters derived from
// machine state; nothing is stored for them.
const (
	CSRCycle   uint16 = 0xC00
	CSRTime    uint16 = 0xC01
	CSRInstret uint16 = 0xC02
)

// Clock supplies wall-clock time to a Machine.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Machine is the per-machine context shared by reference with the
// executor: the wall-clock origin of the time CSR and the hart identity.
// It is read-only once created.
type Machine struct {
	clock  Clock
	start  time.Time
	hartID uint64
}

// MachineOption is a functional option for configuring a Machine.
type MachineOption func(*Machine)

// WithClock sets the clock used for the time CSR.
func WithClock(c Clock) MachineOption {
	return func(m *Machine) {
		m.clock = c
	}
}

// WithHartID sets the hart identity reported in logs.
func WithHartID(id uint64) MachineOption {
	return func(m *Machine) {
		m.hartID = id
	}
}

// NewMachine creates a machine context whose start time is the clock's
// current time.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{clock: SystemClock{}}
	for _, opt := range opts {
		opt(m)
	}
	m.start = m.clock.Now()
	return m
}

// StartTime returns the time the machine was created.
func (m *Machine) StartTime() time.Time {
	return m.start
}

// Elapsed returns the wall-clock time since the machine was created.
func (m *Machine) Elapsed() time.Duration {
	return m.clock.Now().Sub(m.start)
}

// HartID returns the hart identity.
func (m *Machine) HartID() uint64 {
	return m.hartID
}

// Counters is the read side of the executor's cycle and retired-instruction
// counters.
type Counters interface {
	Cycles() uint64
	InstructionsRetired() uint64
}

// CSRFile resolves CSR reads against the executor's counters and the
// machine context.
type CSRFile struct {
	machine  *Machine
	counters Counters
}

// NewCSRFile creates a CSRFile.
func NewCSRFile(machine *Machine, counters Counters) *CSRFile {
	return &CSRFile{machine: machine, counters: counters}
}

// Read returns the current value of a CSR. ok is false for unsupported
// addresses. time is reported in milliseconds since machine start.
func (c *CSRFile) Read(csr uint16) (value uint64, ok bool) {
	switch csr {
	case CSRCycle:
		return c.counters.Cycles(), true
	case CSRTime:
		return uint64(c.machine.Elapsed().Milliseconds()), true
	case CSRInstret:
		return c.counters.InstructionsRetired(), true
	}
	return 0, false
}

// Write accepts a new value for a CSR. The supported CSRs are derived
// counters, so the write has no effect.
func (c *CSRFile) Write(uint16, uint64) {}

// Access performs the read-modify-write of a CSR instruction and returns
// the old value. operand is the rs1 value, or the 5-bit literal for the
// immediate forms. ok is false for unsupported CSRs or funct3 values.
func (c *CSRFile) Access(funct3 uint8, csr uint16, operand uint64) (old uint64, ok bool) {
	old, ok = c.Read(csr)
	if !ok {
		return 0, false
	}

	var next uint64
	switch funct3 {
	case insts.Funct3CSRRW, insts.Funct3CSRRWI:
		next = operand
	case insts.Funct3CSRRS, insts.Funct3CSRRSI:
		next = old | operand
	case insts.Funct3CSRRC, insts.Funct3CSRRCI:
		next = old &^ operand
	default:
		return 0, false
	}

	c.Write(csr, next)
	return old, true
}
