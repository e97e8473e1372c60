package insts

import "encoding/binary"

// Encoders build instruction words from fields. They are the inverse of
// Decode and are used to construct guest programs without an assembler.
// Immediates are truncated to the width of their format; callers are
// responsible for range.

// EncodeR builds an R-type word.
func EncodeR(opcode, rd, funct3, rs1, rs2, funct7 uint8) uint32 {
	return uint32(opcode)&0x7F |
		uint32(rd&0x1F)<<7 |
		uint32(funct3&0x7)<<12 |
		uint32(rs1&0x1F)<<15 |
		uint32(rs2&0x1F)<<20 |
		uint32(funct7&0x7F)<<25
}

// EncodeI builds an I-type word from a 12-bit signed immediate.
func EncodeI(opcode, rd, funct3, rs1 uint8, imm int32) uint32 {
	return uint32(opcode)&0x7F |
		uint32(rd&0x1F)<<7 |
		uint32(funct3&0x7)<<12 |
		uint32(rs1&0x1F)<<15 |
		(uint32(imm)&0xFFF)<<20
}

// EncodeS builds an S-type word from a 12-bit signed immediate.
func EncodeS(opcode, funct3, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return uint32(opcode)&0x7F |
		(u&0x1F)<<7 |
		uint32(funct3&0x7)<<12 |
		uint32(rs1&0x1F)<<15 |
		uint32(rs2&0x1F)<<20 |
		((u>>5)&0x7F)<<25
}

// EncodeB builds a B-type word from a 13-bit signed, even offset.
func EncodeB(opcode, funct3, rs1, rs2 uint8, offset int32) uint32 {
	u := uint32(offset)
	return uint32(opcode)&0x7F |
		((u>>11)&0x1)<<7 |
		((u>>1)&0xF)<<8 |
		uint32(funct3&0x7)<<12 |
		uint32(rs1&0x1F)<<15 |
		uint32(rs2&0x1F)<<20 |
		((u>>5)&0x3F)<<25 |
		((u>>12)&0x1)<<31
}

// EncodeU builds a U-type word. imm holds the upper 20 bits already in
// position, as ImmU returns them.
func EncodeU(opcode, rd uint8, imm int32) uint32 {
	return uint32(opcode)&0x7F |
		uint32(rd&0x1F)<<7 |
		uint32(imm)&0xFFFFF000
}

// EncodeJ builds a J-type word from a 21-bit signed, even offset.
func EncodeJ(opcode, rd uint8, offset int32) uint32 {
	u := uint32(offset)
	return uint32(opcode)&0x7F |
		uint32(rd&0x1F)<<7 |
		u&0xFF000 |
		((u>>11)&0x1)<<20 |
		((u>>1)&0x3FF)<<21 |
		((u>>20)&0x1)<<31
}

func encodeShiftImm(opcode, rd, funct3, rs1, shamt, funct6 uint8) uint32 {
	return EncodeI(opcode, rd, funct3, rs1, int32(shamt&0x3F)|int32(funct6)<<6)
}

// EncodeADDI encodes addi rd, rs1, imm.
func EncodeADDI(rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(OpcodeOpImm, rd, Funct3ADD, rs1, imm)
}

// EncodeSLTI encodes slti rd, rs1, imm.
func EncodeSLTI(rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(OpcodeOpImm, rd, Funct3SLT, rs1, imm)
}

// EncodeSLTIU encodes sltiu rd, rs1, imm.
func EncodeSLTIU(rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(OpcodeOpImm, rd, Funct3SLTU, rs1, imm)
}

// EncodeXORI encodes xori rd, rs1, imm.
func EncodeXORI(rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(OpcodeOpImm, rd, Funct3XOR, rs1, imm)
}

// EncodeORI encodes ori rd, rs1, imm.
func EncodeORI(rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(OpcodeOpImm, rd, Funct3OR, rs1, imm)
}

// EncodeANDI encodes andi rd, rs1, imm.
func EncodeANDI(rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(OpcodeOpImm, rd, Funct3AND, rs1, imm)
}

// EncodeSLLI encodes slli rd, rs1, shamt.
func EncodeSLLI(rd, rs1, shamt uint8) uint32 {
	return encodeShiftImm(OpcodeOpImm, rd, Funct3SLL, rs1, shamt, Funct6Base)
}

// EncodeSRLI encodes srli rd, rs1, shamt.
func EncodeSRLI(rd, rs1, shamt uint8) uint32 {
	return encodeShiftImm(OpcodeOpImm, rd, Funct3SRL, rs1, shamt, Funct6Base)
}

// EncodeSRAI encodes srai rd, rs1, shamt.
func EncodeSRAI(rd, rs1, shamt uint8) uint32 {
	return encodeShiftImm(OpcodeOpImm, rd, Funct3SRL, rs1, shamt, Funct6Alt)
}

// EncodeADDIW encodes addiw rd, rs1, imm.
func EncodeADDIW(rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(OpcodeOpImm32, rd, Funct3ADD, rs1, imm)
}

// EncodeSLLIW encodes slliw rd, rs1, shamt.
func EncodeSLLIW(rd, rs1, shamt uint8) uint32 {
	return encodeShiftImm(OpcodeOpImm32, rd, Funct3SLL, rs1, shamt&0x1F, Funct6Base)
}

// EncodeSRLIW encodes srliw rd, rs1, shamt.
func EncodeSRLIW(rd, rs1, shamt uint8) uint32 {
	return encodeShiftImm(OpcodeOpImm32, rd, Funct3SRL, rs1, shamt&0x1F, Funct6Base)
}

// EncodeSRAIW encodes sraiw rd, rs1, shamt.
func EncodeSRAIW(rd, rs1, shamt uint8) uint32 {
	return encodeShiftImm(OpcodeOpImm32, rd, Funct3SRL, rs1, shamt&0x1F, Funct6Alt)
}

// EncodeLUI encodes lui rd, imm where imm is the final register value.
func EncodeLUI(rd uint8, imm int32) uint32 {
	return EncodeU(OpcodeLUI, rd, imm)
}

// EncodeAUIPC encodes auipc rd, imm where imm is the offset added to pc.
func EncodeAUIPC(rd uint8, imm int32) uint32 {
	return EncodeU(OpcodeAUIPC, rd, imm)
}

// EncodeOp encodes a register-register OP instruction.
func EncodeOp(rd, funct3, rs1, rs2, funct7 uint8) uint32 {
	return EncodeR(OpcodeOp, rd, funct3, rs1, rs2, funct7)
}

// EncodeOp32 encodes a register-register OP-32 instruction.
func EncodeOp32(rd, funct3, rs1, rs2, funct7 uint8) uint32 {
	return EncodeR(OpcodeOp32, rd, funct3, rs1, rs2, funct7)
}

// EncodeADD encodes add rd, rs1, rs2.
func EncodeADD(rd, rs1, rs2 uint8) uint32 {
	return EncodeOp(rd, Funct3ADD, rs1, rs2, Funct7Base)
}

// EncodeSUB encodes sub rd, rs1, rs2.
func EncodeSUB(rd, rs1, rs2 uint8) uint32 {
	return EncodeOp(rd, Funct3ADD, rs1, rs2, Funct7Alt)
}

// EncodeMUL encodes mul rd, rs1, rs2.
func EncodeMUL(rd, rs1, rs2 uint8) uint32 {
	return EncodeOp(rd, Funct3MUL, rs1, rs2, Funct7MulDiv)
}

// EncodeDIV encodes div rd, rs1, rs2.
func EncodeDIV(rd, rs1, rs2 uint8) uint32 {
	return EncodeOp(rd, Funct3DIV, rs1, rs2, Funct7MulDiv)
}

// EncodeREM encodes rem rd, rs1, rs2.
func EncodeREM(rd, rs1, rs2 uint8) uint32 {
	return EncodeOp(rd, Funct3REM, rs1, rs2, Funct7MulDiv)
}

// EncodeLoad encodes a load of the width selected by funct3.
func EncodeLoad(funct3, rd, rs1 uint8, offset int32) uint32 {
	return EncodeI(OpcodeLoad, rd, funct3, rs1, offset)
}

// EncodeStore encodes a store of the width selected by funct3.
func EncodeStore(funct3, rs1, rs2 uint8, offset int32) uint32 {
	return EncodeS(OpcodeStore, funct3, rs1, rs2, offset)
}

// EncodeLD encodes ld rd, offset(rs1).
func EncodeLD(rd, rs1 uint8, offset int32) uint32 {
	return EncodeLoad(Funct3LD, rd, rs1, offset)
}

// EncodeLW encodes lw rd, offset(rs1).
func EncodeLW(rd, rs1 uint8, offset int32) uint32 {
	return EncodeLoad(Funct3LW, rd, rs1, offset)
}

// EncodeSD encodes sd rs2, offset(rs1).
func EncodeSD(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeStore(Funct3SD, rs1, rs2, offset)
}

// EncodeSW encodes sw rs2, offset(rs1).
func EncodeSW(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeStore(Funct3SW, rs1, rs2, offset)
}

// EncodeBranch encodes a conditional branch selected by funct3.
func EncodeBranch(funct3, rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, funct3, rs1, rs2, offset)
}

// EncodeBEQ encodes beq rs1, rs2, offset.
func EncodeBEQ(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeBranch(Funct3BEQ, rs1, rs2, offset)
}

// EncodeBNE encodes bne rs1, rs2, offset.
func EncodeBNE(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeBranch(Funct3BNE, rs1, rs2, offset)
}

// EncodeJAL encodes jal rd, offset.
func EncodeJAL(rd uint8, offset int32) uint32 {
	return EncodeJ(OpcodeJAL, rd, offset)
}

// EncodeJALR encodes jalr rd, offset(rs1).
func EncodeJALR(rd, rs1 uint8, offset int32) uint32 {
	return EncodeI(OpcodeJALR, rd, 0, rs1, offset)
}

// EncodeFENCE encodes a full fence.
func EncodeFENCE() uint32 {
	return EncodeI(OpcodeMiscMem, 0, Funct3FENCE, 0, 0x0FF)
}

// EncodeECALL encodes ecall.
func EncodeECALL() uint32 {
	return EncodeI(OpcodeSystem, 0, Funct3PRIV, 0, int32(ImmECALL))
}

// EncodeEBREAK encodes ebreak.
func EncodeEBREAK() uint32 {
	return EncodeI(OpcodeSystem, 0, Funct3PRIV, 0, int32(ImmEBREAK))
}

// EncodeCSR encodes a CSR instruction. For the immediate forms rs1 carries
// the 5-bit literal.
func EncodeCSR(funct3, rd, rs1 uint8, csr uint16) uint32 {
	return uint32(OpcodeSystem) |
		uint32(rd&0x1F)<<7 |
		uint32(funct3&0x7)<<12 |
		uint32(rs1&0x1F)<<15 |
		uint32(csr&0xFFF)<<20
}

// EncodeCSRRS encodes csrrs rd, csr, rs1. With rs1 = x0 this is csrr.
func EncodeCSRRS(rd uint8, csr uint16, rs1 uint8) uint32 {
	return EncodeCSR(Funct3CSRRS, rd, rs1, csr)
}

// Program lays out instruction words as little-endian bytes, ready to be
// copied into memory.
func Program(words ...uint32) []byte {
	out := make([]byte, 0, len(words)*InstructionSize)
	for _, w := range words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}
