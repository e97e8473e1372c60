// Package insts provides RV64IM instruction definitions and decoding.
package insts

// InstructionSize is the length in bytes of every instruction this
// simulator executes. Compressed encodings are not supported.
const InstructionSize = 4

// Major opcodes (bits [6:0]).
const (
	OpcodeLoad    uint8 = 0b0000011
	OpcodeMiscMem uint8 = 0b0001111
	OpcodeOpImm   uint8 = 0b0010011
	OpcodeAUIPC   uint8 = 0b0010111
	OpcodeOpImm32 uint8 = 0b0011011
	OpcodeStore   uint8 = 0b0100011
	OpcodeOp      uint8 = 0b0110011
	OpcodeLUI     uint8 = 0b0110111
	OpcodeOp32    uint8 = 0b0111011
	OpcodeBranch  uint8 = 0b1100011
	OpcodeJALR    uint8 = 0b1100111
	OpcodeJAL     uint8 = 0b1101111
	OpcodeSystem  uint8 = 0b1110011
)

// funct3 values for OP, OP-IMM and their 32-bit forms.
const (
	Funct3ADD  uint8 = 0b000 // also SUB, selected by funct7
	Funct3SLL  uint8 = 0b001
	Funct3SLT  uint8 = 0b010
	Funct3SLTU uint8 = 0b011
	Funct3XOR  uint8 = 0b100
	Funct3SRL  uint8 = 0b101 // also SRA, selected by funct7
	Funct3OR   uint8 = 0b110
	Funct3AND  uint8 = 0b111
)

// funct3 values for the M extension (funct7 = Funct7MulDiv).
const (
	Funct3MUL    uint8 = 0b000
	Funct3MULH   uint8 = 0b001
	Funct3MULHSU uint8 = 0b010
	Funct3MULHU  uint8 = 0b011
	Funct3DIV    uint8 = 0b100
	Funct3DIVU   uint8 = 0b101
	Funct3REM    uint8 = 0b110
	Funct3REMU   uint8 = 0b111
)

// funct3 values for branches.
const (
	Funct3BEQ  uint8 = 0b000
	Funct3BNE  uint8 = 0b001
	Funct3BLT  uint8 = 0b100
	Funct3BGE  uint8 = 0b101
	Funct3BLTU uint8 = 0b110
	Funct3BGEU uint8 = 0b111
)

// funct3 values for loads and stores. Stores share the width encoding.
const (
	Funct3LB  uint8 = 0b000
	Funct3LH  uint8 = 0b001
	Funct3LW  uint8 = 0b010
	Funct3LD  uint8 = 0b011
	Funct3LBU uint8 = 0b100
	Funct3LHU uint8 = 0b101
	Funct3LWU uint8 = 0b110

	Funct3SB uint8 = 0b000
	Funct3SH uint8 = 0b001
	Funct3SW uint8 = 0b010
	Funct3SD uint8 = 0b011
)

// funct3 values for MISC-MEM.
const (
	Funct3FENCE  uint8 = 0b000
	Funct3FENCEI uint8 = 0b001
)

// funct3 values for SYSTEM.
const (
	Funct3PRIV   uint8 = 0b000 // ECALL, EBREAK
	Funct3CSRRW  uint8 = 0b001
	Funct3CSRRS  uint8 = 0b010
	Funct3CSRRC  uint8 = 0b011
	Funct3CSRRWI uint8 = 0b101
	Funct3CSRRSI uint8 = 0b110
	Funct3CSRRCI uint8 = 0b111
)

// funct7 values.
const (
	Funct7Base   uint8 = 0b0000000
	Funct7Alt    uint8 = 0b0100000 // SUB, SRA
	Funct7MulDiv uint8 = 0b0000001
)

// Funct6 values for the RV64 immediate shifts, whose shamt spills into
// bit 25 and leaves only six bits of funct7 meaningful.
const (
	Funct6Base uint8 = 0b000000
	Funct6Alt  uint8 = 0b010000
)

// rs2 field values that distinguish the two no-operand SYSTEM calls.
const (
	ImmECALL  uint8 = 0
	ImmEBREAK uint8 = 1
)

// Instruction is a decoded RV64 instruction word.
//
// Register and funct fields are stored; immediates are derived from Raw on
// demand by the Imm* accessors.
type Instruction struct {
	Raw  int32 // Encoded instruction word
	Size uint8 // Length in bytes, always InstructionSize

	Opcode uint8
	Rd     uint8
	Rs1    uint8
	Rs2    uint8
	Funct3 uint8
	Funct7 uint8

	Shamt  uint8 // 6-bit shift amount for 64-bit shifts
	Shamtw uint8 // 5-bit shift amount for 32-bit shifts
}

// Funct6 returns the upper six bits of funct7, the part of the field left
// over by RV64 immediate shifts.
func (i Instruction) Funct6() uint8 {
	return i.Funct7 >> 1
}

// CSR returns the 12-bit CSR address held in bits [31:20].
func (i Instruction) CSR() uint16 {
	return uint16(uint32(i.Raw) >> 20)
}

// ImmI returns the sign-extended I-type immediate.
func (i Instruction) ImmI() int64 {
	return int64(i.Raw >> 20)
}

// ImmIUnsigned returns the I-type immediate reinterpreted as uint64.
func (i Instruction) ImmIUnsigned() uint64 {
	return uint64(i.ImmI())
}

// ImmS returns the sign-extended S-type immediate.
func (i Instruction) ImmS() int64 {
	return int64((i.Raw>>7)&0x1F | (i.Raw>>20)&^0x1F)
}

// ImmSUnsigned returns the S-type immediate reinterpreted as uint64.
func (i Instruction) ImmSUnsigned() uint64 {
	return uint64(i.ImmS())
}

// ImmB returns the sign-extended B-type immediate. The result is always
// even.
//
//	imm[12]   = word[31]
//	imm[11]   = word[7]
//	imm[10:5] = word[30:25]
//	imm[4:1]  = word[11:8]
func (i Instruction) ImmB() int64 {
	w := i.Raw
	imm := (w>>19)&^0xFFF | // bit 31 -> 12, with sign
		(w<<4)&0x800 |
		(w>>20)&0x7E0 |
		(w>>7)&0x1E
	return int64(imm)
}

// ImmBUnsigned returns the B-type immediate reinterpreted as uint64.
func (i Instruction) ImmBUnsigned() uint64 {
	return uint64(i.ImmB())
}

// ImmU returns the U-type immediate: bits [31:12] with the low 12 bits
// cleared, sign-extended from bit 31.
func (i Instruction) ImmU() int64 {
	return int64(i.Raw &^ 0xFFF)
}

// ImmUUnsigned returns the U-type immediate reinterpreted as uint64.
func (i Instruction) ImmUUnsigned() uint64 {
	return uint64(i.ImmU())
}

// ImmJ returns the sign-extended J-type immediate. The result is always
// even.
//
//	imm[20]    = word[31]
//	imm[19:12] = word[19:12]
//	imm[11]    = word[20]
//	imm[10:1]  = word[30:21]
func (i Instruction) ImmJ() int64 {
	w := i.Raw
	imm := (w>>11)&^0xFFFFF | // bit 31 -> 20, with sign
		w&0xFF000 |
		(w>>9)&0x800 |
		(w>>20)&0x7FE
	return int64(imm)
}

// ImmJUnsigned returns the J-type immediate reinterpreted as uint64.
func (i Instruction) ImmJUnsigned() uint64 {
	return uint64(i.ImmJ())
}
