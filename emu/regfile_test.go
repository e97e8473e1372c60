package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/emu"
)

var _ = Describe("RegFile", func() {
	var regFile *emu.RegFile

	BeforeEach(func() {
		regFile = &emu.RegFile{}
	})

	It("should read back written registers", func() {
		for i := uint8(1); i < emu.NumRegisters; i++ {
			regFile.WriteReg(i, uint64(i)*0x100)
		}
		for i := uint8(1); i < emu.NumRegisters; i++ {
			Expect(regFile.ReadReg(i)).To(Equal(uint64(i) * 0x100))
		}
	})

	It("should keep x0 at zero", func() {
		regFile.WriteReg(0, 42)

		Expect(regFile.ReadReg(0)).To(BeZero())
		Expect(regFile.X[0]).To(BeZero())
	})

	It("should sign-extend 32-bit writes", func() {
		regFile.WriteReg32(5, 0x80000000)
		Expect(regFile.ReadReg(5)).To(Equal(uint64(0xFFFFFFFF80000000)))

		regFile.WriteReg32(5, 0x7FFFFFFF)
		Expect(regFile.ReadReg(5)).To(Equal(uint64(0x7FFFFFFF)))
	})

	It("should read the low 32 bits", func() {
		regFile.WriteReg(7, 0x1234567887654321)
		Expect(regFile.ReadReg32(7)).To(Equal(uint32(0x87654321)))
	})
})
