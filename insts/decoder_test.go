package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Field extraction", func() {
		// addi x1, x0, 42 -> 0x02A00093
		It("should decode addi x1, x0, 42", func() {
			inst := decoder.Decode(0x02A00093)

			Expect(inst.Opcode).To(Equal(insts.OpcodeOpImm))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Funct3).To(Equal(insts.Funct3ADD))
			Expect(inst.ImmI()).To(Equal(int64(42)))
			Expect(inst.Size).To(Equal(uint8(4)))
			Expect(inst.Raw).To(Equal(int32(0x02A00093)))
		})

		// sub x3, x1, x2 -> 0x402081B3
		It("should decode sub x3, x1, x2", func() {
			inst := decoder.Decode(0x402081B3)

			Expect(inst.Opcode).To(Equal(insts.OpcodeOp))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.Funct3).To(Equal(insts.Funct3ADD))
			Expect(inst.Funct7).To(Equal(insts.Funct7Alt))
		})

		// srai x5, x6, 63 -> 0x43F35293
		It("should decode the 6-bit shift amount of srai", func() {
			inst := decoder.Decode(0x43F35293)

			Expect(inst.Opcode).To(Equal(insts.OpcodeOpImm))
			Expect(inst.Funct3).To(Equal(insts.Funct3SRL))
			Expect(inst.Shamt).To(Equal(uint8(63)))
			Expect(inst.Shamtw).To(Equal(uint8(31)))
			Expect(inst.Funct6()).To(Equal(insts.Funct6Alt))
		})

		// csrrs x10, cycle, x0 -> 0xC0002573
		It("should decode the CSR address", func() {
			inst := decoder.Decode(-0x3FFFDA8D) // 0xC0002573

			Expect(inst.Opcode).To(Equal(insts.OpcodeSystem))
			Expect(inst.Funct3).To(Equal(insts.Funct3CSRRS))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.CSR()).To(Equal(uint16(0xC00)))
		})

		It("should be total over arbitrary words", func() {
			for _, w := range []int32{0, -1, 0x7FFFFFFF, -0x80000000, 0x12345678} {
				inst := decoder.Decode(w)
				Expect(inst.Size).To(Equal(uint8(insts.InstructionSize)))
				Expect(inst.Opcode).To(BeNumerically("<", 128))
				Expect(inst.Rd).To(BeNumerically("<", 32))
				Expect(inst.Rs1).To(BeNumerically("<", 32))
				Expect(inst.Rs2).To(BeNumerically("<", 32))
				Expect(inst.Funct3).To(BeNumerically("<", 8))
				Expect(inst.Funct7).To(BeNumerically("<", 128))
				Expect(inst.Shamt).To(BeNumerically("<", 64))
			}
		})
	})

	Describe("Encoder round trip", func() {
		It("should recover I-type immediates across the whole range", func() {
			for imm := int32(-2048); imm < 2048; imm += 7 {
				inst := decoder.Decode(int32(insts.EncodeADDI(4, 5, imm)))
				Expect(inst.ImmI()).To(Equal(int64(imm)))
				Expect(inst.Rd).To(Equal(uint8(4)))
				Expect(inst.Rs1).To(Equal(uint8(5)))
			}
		})

		It("should recover S-type immediates across the whole range", func() {
			for imm := int32(-2048); imm < 2048; imm += 5 {
				inst := decoder.Decode(int32(insts.EncodeSD(7, 8, imm)))
				Expect(inst.ImmS()).To(Equal(int64(imm)))
				Expect(inst.Rs1).To(Equal(uint8(7)))
				Expect(inst.Rs2).To(Equal(uint8(8)))
			}
		})

		It("should recover B-type offsets across the whole range", func() {
			for off := int32(-4096); off < 4096; off += 2 {
				inst := decoder.Decode(int32(insts.EncodeBEQ(1, 2, off)))
				Expect(inst.ImmB()).To(Equal(int64(off)))
			}
		})

		It("should recover J-type offsets at the boundaries", func() {
			for _, off := range []int32{-1 << 20, -4096, -2, 0, 2, 2048, 4094, 1<<20 - 2} {
				inst := decoder.Decode(int32(insts.EncodeJAL(1, off)))
				Expect(inst.ImmJ()).To(Equal(int64(off)))
			}
		})

		It("should recover U-type immediates", func() {
			inst := decoder.Decode(int32(insts.EncodeAUIPC(3, 0x12345000)))
			Expect(inst.ImmU()).To(Equal(int64(0x12345000)))
			Expect(inst.Opcode).To(Equal(insts.OpcodeAUIPC))
		})
	})
})
