// Package insts provides RV64IM instruction definitions and decoding.
//
// Decoding is total: every 32-bit word yields an Instruction. Whether the
// opcode/funct combination means anything is decided by the executor.
//
// Usage:
//
//	inst := insts.Decode(0x02A08093) // addi x1, x1, 42
//	fmt.Printf("%s rd=%d rs1=%d imm=%d\n",
//		insts.Mnemonic(inst), inst.Rd, inst.Rs1, inst.ImmI())
package insts

// Decoder decodes RV64 machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV64 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word.
func (d *Decoder) Decode(word int32) Instruction {
	return Decode(word)
}

// Decode extracts the fixed-position fields of an instruction word.
func Decode(word int32) Instruction {
	w := uint32(word)

	return Instruction{
		Raw:    word,
		Size:   InstructionSize,
		Opcode: uint8(w & 0x7F),
		Rd:     uint8((w >> 7) & 0x1F),
		Funct3: uint8((w >> 12) & 0x7),
		Rs1:    uint8((w >> 15) & 0x1F),
		Rs2:    uint8((w >> 20) & 0x1F),
		Funct7: uint8((w >> 25) & 0x7F),
		Shamt:  uint8((w >> 20) & 0x3F),
		Shamtw: uint8((w >> 20) & 0x1F),
	}
}
