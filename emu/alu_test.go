package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/emu"
)

func sext(v int64) uint64 {
	return uint64(v)
}

var _ = Describe("ALU", func() {
	var (
		regFile *emu.RegFile
		alu     *emu.ALU
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		alu = emu.NewALU(regFile)
	})

	Describe("ADD and SUB", func() {
		It("should wrap modulo 2^64", func() {
			regFile.WriteReg(1, math.MaxUint64)
			alu.ADD(3, 1, 1)
			Expect(regFile.ReadReg(3)).To(BeZero())

			alu.SUB(4, 0, 1)
			Expect(regFile.ReadReg(4)).To(Equal(uint64(math.MaxUint64)))
		})

		It("should add a sign-extended immediate", func() {
			regFile.WriteReg(1, 10)
			alu.ADD(2, 1, sext(-3))
			Expect(regFile.ReadReg(2)).To(Equal(uint64(7)))
		})

		It("should discard writes to x0", func() {
			regFile.WriteReg(1, 5)
			alu.ADD(0, 1, 1)
			Expect(regFile.ReadReg(0)).To(BeZero())
		})
	})

	Describe("comparisons", func() {
		BeforeEach(func() {
			regFile.WriteReg(1, sext(-1))
		})

		It("should compare signed in SLT", func() {
			alu.SLT(3, 1, 0)
			Expect(regFile.ReadReg(3)).To(Equal(uint64(1)))
		})

		It("should compare unsigned in SLTU", func() {
			alu.SLTU(3, 1, 0)
			Expect(regFile.ReadReg(3)).To(BeZero())
		})
	})

	Describe("logic", func() {
		It("should compute AND, OR and XOR", func() {
			regFile.WriteReg(1, 0xF0F0)
			alu.AND(2, 1, 0xFF00)
			alu.OR(3, 1, 0x000F)
			alu.XOR(4, 1, 0xFFFF)

			Expect(regFile.ReadReg(2)).To(Equal(uint64(0xF000)))
			Expect(regFile.ReadReg(3)).To(Equal(uint64(0xF0FF)))
			Expect(regFile.ReadReg(4)).To(Equal(uint64(0x0F0F)))
		})
	})

	Describe("shifts", func() {
		It("should use the low 6 bits of the shift amount", func() {
			regFile.WriteReg(1, 1)
			alu.SLL(2, 1, 63)
			alu.SLL(3, 1, 64)

			Expect(regFile.ReadReg(2)).To(Equal(uint64(1) << 63))
			Expect(regFile.ReadReg(3)).To(Equal(uint64(1)))
		})

		It("should shift arithmetic and logical right", func() {
			regFile.WriteReg(1, 1<<63)
			alu.SRA(2, 1, 63)
			alu.SRL(3, 1, 63)

			Expect(regFile.ReadReg(2)).To(Equal(uint64(math.MaxUint64)))
			Expect(regFile.ReadReg(3)).To(Equal(uint64(1)))
		})
	})

	Describe("word operations", func() {
		It("should sign-extend ADDW overflow", func() {
			regFile.WriteReg(1, 0x7FFFFFFF)
			alu.ADDW(2, 1, 1)
			Expect(regFile.ReadReg(2)).To(Equal(uint64(0xFFFFFFFF80000000)))
		})

		It("should ignore the upper half of the source", func() {
			regFile.WriteReg(1, 0xFFFFFFFF00000005)
			alu.SUBW(2, 1, 6)
			Expect(regFile.ReadReg(2)).To(Equal(uint64(math.MaxUint64)))
		})

		It("should sign-extend SRLW by zero", func() {
			regFile.WriteReg(1, 0x80000000)
			alu.SRLW(2, 1, 0)
			alu.SRLW(3, 1, 1)

			Expect(regFile.ReadReg(2)).To(Equal(uint64(0xFFFFFFFF80000000)))
			Expect(regFile.ReadReg(3)).To(Equal(uint64(0x40000000)))
		})

		It("should use the low 5 bits of the shift amount", func() {
			regFile.WriteReg(1, 0x80000000)
			alu.SRAW(2, 1, 4)
			alu.SLLW(3, 1, 32)

			Expect(regFile.ReadReg(2)).To(Equal(uint64(0xFFFFFFFFF8000000)))
			Expect(regFile.ReadReg(3)).To(Equal(uint64(0xFFFFFFFF80000000)))
		})
	})

	Describe("multiply", func() {
		It("should keep the low 64 bits in MUL", func() {
			regFile.WriteReg(1, 1<<32)
			regFile.WriteReg(2, 1<<32+3)
			alu.MUL(3, 1, 2)
			Expect(regFile.ReadReg(3)).To(Equal(uint64(3) << 32))
		})

		It("should compute the high half for each signedness", func() {
			regFile.WriteReg(1, math.MaxUint64)
			regFile.WriteReg(2, math.MaxUint64)

			alu.MULH(3, 1, 2)
			alu.MULHU(4, 1, 2)
			alu.MULHSU(5, 1, 2)

			Expect(regFile.ReadReg(3)).To(BeZero())
			Expect(regFile.ReadReg(4)).To(Equal(uint64(0xFFFFFFFFFFFFFFFE)))
			Expect(regFile.ReadReg(5)).To(Equal(uint64(math.MaxUint64)))
		})

		It("should handle the most negative operands in MulHigh", func() {
			Expect(emu.MulHigh(math.MinInt64, math.MinInt64)).To(Equal(uint64(1) << 62))
			Expect(emu.MulHigh(-2, 3)).To(Equal(uint64(math.MaxUint64)))
		})

		It("should sign-extend MULW", func() {
			regFile.WriteReg(1, 0x10000)
			regFile.WriteReg(2, 0x8000)
			alu.MULW(3, 1, 2)
			Expect(regFile.ReadReg(3)).To(Equal(uint64(0xFFFFFFFF80000000)))
		})
	})

	Describe("divide", func() {
		It("should truncate toward zero", func() {
			regFile.WriteReg(1, sext(-7))
			regFile.WriteReg(2, 2)
			alu.DIV(3, 1, 2)
			alu.REM(4, 1, 2)

			Expect(regFile.ReadReg(3)).To(Equal(sext(-3)))
			Expect(regFile.ReadReg(4)).To(Equal(sext(-1)))
		})

		It("should define division by zero", func() {
			regFile.WriteReg(1, 7)
			alu.DIV(3, 1, 0)
			alu.REM(4, 1, 0)
			alu.DIVU(5, 1, 0)
			alu.REMU(6, 1, 0)

			Expect(regFile.ReadReg(3)).To(Equal(uint64(math.MaxUint64)))
			Expect(regFile.ReadReg(4)).To(Equal(uint64(7)))
			Expect(regFile.ReadReg(5)).To(Equal(uint64(math.MaxUint64)))
			Expect(regFile.ReadReg(6)).To(Equal(uint64(7)))
		})

		It("should define signed overflow", func() {
			regFile.WriteReg(1, 1<<63)
			regFile.WriteReg(2, sext(-1))
			alu.DIV(3, 1, 2)
			alu.REM(4, 1, 2)

			Expect(regFile.ReadReg(3)).To(Equal(uint64(1) << 63))
			Expect(regFile.ReadReg(4)).To(BeZero())
		})

		It("should define 32-bit division by zero", func() {
			regFile.WriteReg(1, 0x180000000)
			alu.DIVW(3, 1, 0)
			alu.REMW(4, 1, 0)
			alu.DIVUW(5, 1, 0)
			alu.REMUW(6, 1, 0)

			Expect(regFile.ReadReg(3)).To(Equal(uint64(math.MaxUint64)))
			Expect(regFile.ReadReg(4)).To(Equal(uint64(0xFFFFFFFF80000000)))
			Expect(regFile.ReadReg(5)).To(Equal(uint64(math.MaxUint64)))
			Expect(regFile.ReadReg(6)).To(Equal(uint64(0xFFFFFFFF80000000)))
		})

		It("should define 32-bit signed overflow", func() {
			regFile.WriteReg(1, 0x80000000)
			regFile.WriteReg(2, sext(-1))
			alu.DIVW(3, 1, 2)
			alu.REMW(4, 1, 2)

			Expect(regFile.ReadReg(3)).To(Equal(uint64(0xFFFFFFFF80000000)))
			Expect(regFile.ReadReg(4)).To(BeZero())
		})

		It("should sign-extend unsigned word results", func() {
			regFile.WriteReg(1, 0xFFFFFFFE)
			regFile.WriteReg(2, 1)
			alu.DIVUW(3, 1, 2)
			Expect(regFile.ReadReg(3)).To(Equal(uint64(0xFFFFFFFFFFFFFFFE)))
		})
	})

	Describe("DivSigned and DivUnsigned", func() {
		It("should match the register forms", func() {
			q, r := emu.DivSigned(math.MinInt64, -1)
			Expect(q).To(Equal(int64(math.MinInt64)))
			Expect(r).To(BeZero())

			uq, ur := emu.DivUnsigned(9, 0)
			Expect(uq).To(Equal(uint64(math.MaxUint64)))
			Expect(ur).To(Equal(uint64(9)))
		})
	})
})
