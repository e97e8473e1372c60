package emu

import "github.com/sarchlab/rv64sim/insts"

// BranchUnit implements RV64 jumps and conditional branches. It is the only
// unit that writes PC other than by sequential advance.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// CheckCondition evaluates the branch predicate selected by funct3. The
// second result is false for funct3 values that name no branch.
func CheckCondition(funct3 uint8, a, b uint64) (taken, ok bool) {
	switch funct3 {
	case insts.Funct3BEQ:
		return a == b, true
	case insts.Funct3BNE:
		return a != b, true
	case insts.Funct3BLT:
		return int64(a) < int64(b), true
	case insts.Funct3BGE:
		return int64(a) >= int64(b), true
	case insts.Funct3BLTU:
		return a < b, true
	case insts.Funct3BGEU:
		return a >= b, true
	}
	return false, false
}

// JAL writes the return address to rd and jumps to PC + offset.
func (b *BranchUnit) JAL(rd uint8, offset int64, size uint64) {
	pc := b.regFile.PC
	b.regFile.WriteReg(rd, pc+size)
	b.regFile.PC = pc + uint64(offset)
}

// JALR writes the return address to rd and jumps to (rs1 + offset) with
// the low bit cleared. rs1 is read before rd is written, so rd == rs1 is
// safe.
func (b *BranchUnit) JALR(rd, rs1 uint8, offset int64, size uint64) {
	target := (b.regFile.ReadReg(rs1) + uint64(offset)) &^ 1
	b.regFile.WriteReg(rd, b.regFile.PC+size)
	b.regFile.PC = target
}

// Branch compares rs1 and rs2 under funct3 and either jumps to
// PC + offset or falls through to PC + size. It reports false, leaving all
// state untouched, when funct3 names no branch.
func (b *BranchUnit) Branch(funct3, rs1, rs2 uint8, offset int64, size uint64) bool {
	taken, ok := CheckCondition(funct3, b.regFile.ReadReg(rs1), b.regFile.ReadReg(rs2))
	if !ok {
		return false
	}
	if taken {
		b.regFile.PC += uint64(offset)
	} else {
		b.regFile.PC += size
	}
	return true
}
