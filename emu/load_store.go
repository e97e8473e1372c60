package emu

import "github.com/sarchlab/rv64sim/insts"

// LoadStoreUnit implements RV64 loads and stores against the bus.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// EffectiveAddress computes rs1 + offset with wrapping unsigned arithmetic.
func (lsu *LoadStoreUnit) EffectiveAddress(rs1 uint8, offset int64) uint64 {
	return lsu.regFile.ReadReg(rs1) + uint64(offset)
}

// LoadWidth returns the access width for a load funct3 and whether the
// value is sign-extended. ok is false for funct3 values that name no load.
func LoadWidth(funct3 uint8) (width uint64, signed, ok bool) {
	switch funct3 {
	case insts.Funct3LB:
		return 1, true, true
	case insts.Funct3LH:
		return 2, true, true
	case insts.Funct3LW:
		return 4, true, true
	case insts.Funct3LD:
		return 8, false, true
	case insts.Funct3LBU:
		return 1, false, true
	case insts.Funct3LHU:
		return 2, false, true
	case insts.Funct3LWU:
		return 4, false, true
	}
	return 0, false, false
}

// StoreWidth returns the access width for a store funct3.
func StoreWidth(funct3 uint8) (width uint64, ok bool) {
	switch funct3 {
	case insts.Funct3SB:
		return 1, true
	case insts.Funct3SH:
		return 2, true
	case insts.Funct3SW:
		return 4, true
	case insts.Funct3SD:
		return 8, true
	}
	return 0, false
}

// LB loads a byte with sign extension: rd = sext(mem[addr])
func (lsu *LoadStoreUnit) LB(rd uint8, addr uint64) {
	lsu.regFile.WriteReg(rd, uint64(int64(int8(lsu.memory.Load8(addr)))))
}

// LH loads a halfword with sign extension.
func (lsu *LoadStoreUnit) LH(rd uint8, addr uint64) {
	lsu.regFile.WriteReg(rd, uint64(int64(int16(lsu.memory.Load16(addr)))))
}

// LW loads a word with sign extension.
func (lsu *LoadStoreUnit) LW(rd uint8, addr uint64) {
	lsu.regFile.WriteReg(rd, uint64(int64(int32(lsu.memory.Load32(addr)))))
}

// LD loads a doubleword.
func (lsu *LoadStoreUnit) LD(rd uint8, addr uint64) {
	lsu.regFile.WriteReg(rd, lsu.memory.Load64(addr))
}

// LBU loads a byte with zero extension.
func (lsu *LoadStoreUnit) LBU(rd uint8, addr uint64) {
	lsu.regFile.WriteReg(rd, lsu.memory.Load8(addr))
}

// LHU loads a halfword with zero extension.
func (lsu *LoadStoreUnit) LHU(rd uint8, addr uint64) {
	lsu.regFile.WriteReg(rd, lsu.memory.Load16(addr))
}

// LWU loads a word with zero extension.
func (lsu *LoadStoreUnit) LWU(rd uint8, addr uint64) {
	lsu.regFile.WriteReg(rd, lsu.memory.Load32(addr))
}

// Load dispatches to the load selected by funct3. The caller has already
// validated funct3 with LoadWidth and the range with Memory.InBounds.
func (lsu *LoadStoreUnit) Load(funct3, rd uint8, addr uint64) {
	switch funct3 {
	case insts.Funct3LB:
		lsu.LB(rd, addr)
	case insts.Funct3LH:
		lsu.LH(rd, addr)
	case insts.Funct3LW:
		lsu.LW(rd, addr)
	case insts.Funct3LD:
		lsu.LD(rd, addr)
	case insts.Funct3LBU:
		lsu.LBU(rd, addr)
	case insts.Funct3LHU:
		lsu.LHU(rd, addr)
	case insts.Funct3LWU:
		lsu.LWU(rd, addr)
	}
}

// Store writes the low width bytes of rs2 to addr.
func (lsu *LoadStoreUnit) Store(rs2 uint8, addr, width uint64) {
	lsu.memory.Store(addr, width, lsu.regFile.ReadReg(rs2))
}
