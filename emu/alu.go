package emu

import (
	"math"
	"math/bits"
)

// ALU implements RV64IM integer arithmetic, logic, shift, multiply and
// divide operations. Every method writes exactly one register.
//
// The second operand is passed by value so the same method serves the
// register-register and register-immediate forms.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// ADD performs rd = rs1 + op2, wrapping modulo 2^64.
func (a *ALU) ADD(rd, rs1 uint8, op2 uint64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)+op2)
}

// SUB performs rd = rs1 - op2, wrapping modulo 2^64.
func (a *ALU) SUB(rd, rs1 uint8, op2 uint64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)-op2)
}

// SLT sets rd to 1 if rs1 < op2 as signed values, else 0.
func (a *ALU) SLT(rd, rs1 uint8, op2 uint64) {
	a.regFile.WriteReg(rd, boolToUint64(int64(a.regFile.ReadReg(rs1)) < int64(op2)))
}

// SLTU sets rd to 1 if rs1 < op2 as unsigned values, else 0.
func (a *ALU) SLTU(rd, rs1 uint8, op2 uint64) {
	a.regFile.WriteReg(rd, boolToUint64(a.regFile.ReadReg(rs1) < op2))
}

// AND performs rd = rs1 & op2.
func (a *ALU) AND(rd, rs1 uint8, op2 uint64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)&op2)
}

// OR performs rd = rs1 | op2.
func (a *ALU) OR(rd, rs1 uint8, op2 uint64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)|op2)
}

// XOR performs rd = rs1 ^ op2.
func (a *ALU) XOR(rd, rs1 uint8, op2 uint64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)^op2)
}

// SLL performs rd = rs1 << (shamt & 63).
func (a *ALU) SLL(rd, rs1 uint8, shamt uint64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)<<(shamt&0x3F))
}

// SRL performs a logical right shift by shamt & 63.
func (a *ALU) SRL(rd, rs1 uint8, shamt uint64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)>>(shamt&0x3F))
}

// SRA performs an arithmetic right shift by shamt & 63.
func (a *ALU) SRA(rd, rs1 uint8, shamt uint64) {
	a.regFile.WriteReg(rd, uint64(int64(a.regFile.ReadReg(rs1))>>(shamt&0x3F)))
}

// ADDW adds the low 32 bits and sign-extends the result.
func (a *ALU) ADDW(rd, rs1 uint8, op2 uint64) {
	a.regFile.WriteReg32(rd, a.regFile.ReadReg32(rs1)+uint32(op2))
}

// SUBW subtracts the low 32 bits and sign-extends the result.
func (a *ALU) SUBW(rd, rs1 uint8, op2 uint64) {
	a.regFile.WriteReg32(rd, a.regFile.ReadReg32(rs1)-uint32(op2))
}

// SLLW shifts the low 32 bits left by shamt & 31 and sign-extends.
func (a *ALU) SLLW(rd, rs1 uint8, shamt uint64) {
	a.regFile.WriteReg32(rd, a.regFile.ReadReg32(rs1)<<(shamt&0x1F))
}

// SRLW shifts the low 32 bits right logically by shamt & 31 and
// sign-extends.
func (a *ALU) SRLW(rd, rs1 uint8, shamt uint64) {
	a.regFile.WriteReg32(rd, a.regFile.ReadReg32(rs1)>>(shamt&0x1F))
}

// SRAW shifts the low 32 bits right arithmetically by shamt & 31 and
// sign-extends.
func (a *ALU) SRAW(rd, rs1 uint8, shamt uint64) {
	a.regFile.WriteReg32(rd, uint32(int32(a.regFile.ReadReg32(rs1))>>(shamt&0x1F)))
}

// MUL stores the low 64 bits of rs1 * rs2.
func (a *ALU) MUL(rd, rs1, rs2 uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)*a.regFile.ReadReg(rs2))
}

// MULH stores the high 64 bits of the signed x signed product.
func (a *ALU) MULH(rd, rs1, rs2 uint8) {
	a.regFile.WriteReg(rd, MulHigh(int64(a.regFile.ReadReg(rs1)), int64(a.regFile.ReadReg(rs2))))
}

// MULHSU stores the high 64 bits of the signed x unsigned product.
func (a *ALU) MULHSU(rd, rs1, rs2 uint8) {
	a.regFile.WriteReg(rd, MulHighSignedUnsigned(int64(a.regFile.ReadReg(rs1)), a.regFile.ReadReg(rs2)))
}

// MULHU stores the high 64 bits of the unsigned x unsigned product.
func (a *ALU) MULHU(rd, rs1, rs2 uint8) {
	hi, _ := bits.Mul64(a.regFile.ReadReg(rs1), a.regFile.ReadReg(rs2))
	a.regFile.WriteReg(rd, hi)
}

// DIV stores the signed quotient.
func (a *ALU) DIV(rd, rs1, rs2 uint8) {
	q, _ := DivSigned(int64(a.regFile.ReadReg(rs1)), int64(a.regFile.ReadReg(rs2)))
	a.regFile.WriteReg(rd, uint64(q))
}

// DIVU stores the unsigned quotient.
func (a *ALU) DIVU(rd, rs1, rs2 uint8) {
	q, _ := DivUnsigned(a.regFile.ReadReg(rs1), a.regFile.ReadReg(rs2))
	a.regFile.WriteReg(rd, q)
}

// REM stores the signed remainder.
func (a *ALU) REM(rd, rs1, rs2 uint8) {
	_, r := DivSigned(int64(a.regFile.ReadReg(rs1)), int64(a.regFile.ReadReg(rs2)))
	a.regFile.WriteReg(rd, uint64(r))
}

// REMU stores the unsigned remainder.
func (a *ALU) REMU(rd, rs1, rs2 uint8) {
	_, r := DivUnsigned(a.regFile.ReadReg(rs1), a.regFile.ReadReg(rs2))
	a.regFile.WriteReg(rd, r)
}

// MULW multiplies the low 32 bits and sign-extends the low 32 bits of the
// product.
func (a *ALU) MULW(rd, rs1, rs2 uint8) {
	a.regFile.WriteReg32(rd, a.regFile.ReadReg32(rs1)*a.regFile.ReadReg32(rs2))
}

// DIVW divides the low 32 bits as signed values and sign-extends.
func (a *ALU) DIVW(rd, rs1, rs2 uint8) {
	q, _ := divSigned32(int32(a.regFile.ReadReg32(rs1)), int32(a.regFile.ReadReg32(rs2)))
	a.regFile.WriteReg32(rd, uint32(q))
}

// DIVUW divides the low 32 bits as unsigned values and sign-extends.
func (a *ALU) DIVUW(rd, rs1, rs2 uint8) {
	q, _ := divUnsigned32(a.regFile.ReadReg32(rs1), a.regFile.ReadReg32(rs2))
	a.regFile.WriteReg32(rd, q)
}

// REMW stores the signed 32-bit remainder, sign-extended.
func (a *ALU) REMW(rd, rs1, rs2 uint8) {
	_, r := divSigned32(int32(a.regFile.ReadReg32(rs1)), int32(a.regFile.ReadReg32(rs2)))
	a.regFile.WriteReg32(rd, uint32(r))
}

// REMUW stores the unsigned 32-bit remainder, sign-extended.
func (a *ALU) REMUW(rd, rs1, rs2 uint8) {
	_, r := divUnsigned32(a.regFile.ReadReg32(rs1), a.regFile.ReadReg32(rs2))
	a.regFile.WriteReg32(rd, r)
}

// MulHigh returns the high 64 bits of the 128-bit signed product a*b.
func MulHigh(a, b int64) uint64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return hi
}

// MulHighSignedUnsigned returns the high 64 bits of the 128-bit product of
// signed a and unsigned b.
func MulHighSignedUnsigned(a int64, b uint64) uint64 {
	hi, _ := bits.Mul64(uint64(a), b)
	if a < 0 {
		hi -= b
	}
	return hi
}

// DivSigned returns the RISC-V signed quotient and remainder. Division by
// zero yields (-1, a); MinInt64 / -1 yields (MinInt64, 0). Neither traps.
func DivSigned(a, b int64) (q, r int64) {
	switch {
	case b == 0:
		return -1, a
	case a == math.MinInt64 && b == -1:
		return math.MinInt64, 0
	}
	return a / b, a % b
}

// DivUnsigned returns the RISC-V unsigned quotient and remainder. Division
// by zero yields (MaxUint64, a).
func DivUnsigned(a, b uint64) (q, r uint64) {
	if b == 0 {
		return math.MaxUint64, a
	}
	return a / b, a % b
}

func divSigned32(a, b int32) (q, r int32) {
	switch {
	case b == 0:
		return -1, a
	case a == math.MinInt32 && b == -1:
		return math.MinInt32, 0
	}
	return a / b, a % b
}

func divUnsigned32(a, b uint32) (q, r uint32) {
	if b == 0 {
		return math.MaxUint32, a
	}
	return a / b, a % b
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
