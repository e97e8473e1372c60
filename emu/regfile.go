// Package emu provides functional RV64IM emulation.
package emu

// NumRegisters is the number of integer registers.
const NumRegisters = 32

// RegFile represents the RV64 integer register file and program counter.
type RegFile struct {
	// X holds the integer registers x0-x31. X[0] is never written and so
	// always reads as 0.
	X [NumRegisters]uint64

	// PC is the program counter.
	PC uint64
}

// ReadReg reads a register value. Register 0 returns 0.
func (r *RegFile) ReadReg(reg uint8) uint64 {
	if reg == 0 || reg >= NumRegisters {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to register 0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint64) {
	if reg == 0 || reg >= NumRegisters {
		return
	}
	r.X[reg] = value
}

// ReadReg32 reads the lower 32 bits of a register.
func (r *RegFile) ReadReg32(reg uint8) uint32 {
	return uint32(r.ReadReg(reg))
}

// WriteReg32 writes a 32-bit result, sign-extended to 64 bits as every
// RV64 word operation requires.
func (r *RegFile) WriteReg32(reg uint8, value uint32) {
	r.WriteReg(reg, uint64(int64(int32(value))))
}
