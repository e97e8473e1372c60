package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/emu"
)

var _ = Describe("Memory", func() {
	var memory *emu.Memory

	BeforeEach(func() {
		memory = emu.NewMemory(64)
	})

	It("should start zero-filled", func() {
		Expect(memory.Size()).To(Equal(uint64(64)))
		Expect(memory.Load64(0)).To(BeZero())
		Expect(memory.Load64(56)).To(BeZero())
	})

	It("should store little-endian", func() {
		memory.Store32(0, 0x04030201)

		Expect(memory.LoadBytes(0, 4)).To(Equal([]byte{1, 2, 3, 4}))
		Expect(memory.Load8(0)).To(Equal(uint64(0x01)))
		Expect(memory.Load16(2)).To(Equal(uint64(0x0403)))
	})

	It("should round-trip every width at unaligned addresses", func() {
		memory.Store64(3, 0x1122334455667788)
		Expect(memory.Load64(3)).To(Equal(uint64(0x1122334455667788)))

		memory.Store32(17, 0xDEADBEEF)
		Expect(memory.Load32(17)).To(Equal(uint64(0xDEADBEEF)))

		memory.Store16(31, 0xBEEF)
		Expect(memory.Load16(31)).To(Equal(uint64(0xBEEF)))
	})

	It("should write only the low bytes of the value", func() {
		memory.Store64(0, math.MaxUint64)
		memory.Store8(0, 0x1AB)
		memory.Store16(2, 0x12345)

		Expect(memory.Load32(0)).To(Equal(uint64(0x2345FFAB)))
		Expect(memory.Load32(4)).To(Equal(uint64(0xFFFFFFFF)))
	})

	It("should zero-extend loads", func() {
		memory.Store8(0, 0x80)
		Expect(memory.Load8(0)).To(Equal(uint64(0x80)))
	})

	It("should dispatch by width", func() {
		memory.Store(8, 2, 0xABCD)
		Expect(memory.Load(8, 2)).To(Equal(uint64(0xABCD)))
		Expect(memory.Load(8, 1)).To(Equal(uint64(0xCD)))
	})

	Describe("write hooks", func() {
		type write struct{ addr, width uint64 }
		var writes []write

		BeforeEach(func() {
			writes = nil
			memory.OnWrite(func(addr, width uint64) {
				writes = append(writes, write{addr, width})
			})
		})

		It("should report every store with its range", func() {
			memory.Store8(1, 0xFF)
			memory.Store16(2, 0xFFFF)
			memory.Store32(4, 0xFFFFFFFF)
			memory.Store64(8, 1)
			memory.Store(16, 4, 1)
			memory.StoreBytes(20, []byte{1, 2, 3})

			Expect(writes).To(Equal([]write{
				{1, 1}, {2, 2}, {4, 4}, {8, 8}, {16, 4}, {20, 3},
			}))
		})

		It("should not report loads or failed stores", func() {
			memory.Load64(0)
			memory.LoadBytes(0, 16)
			Expect(func() { memory.Store32(62, 0) }).To(Panic())

			Expect(writes).To(BeEmpty())
		})
	})

	Describe("bounds", func() {
		It("should accept accesses ending at the last byte", func() {
			Expect(memory.InBounds(60, 4)).To(BeTrue())
			Expect(memory.InBounds(63, 1)).To(BeTrue())
			Expect(memory.InBounds(0, 64)).To(BeTrue())
		})

		It("should reject accesses that run past the end", func() {
			Expect(memory.InBounds(61, 4)).To(BeFalse())
			Expect(memory.InBounds(64, 1)).To(BeFalse())
			Expect(memory.InBounds(0, 65)).To(BeFalse())
		})

		It("should reject addresses that would wrap", func() {
			Expect(memory.InBounds(math.MaxUint64, 1)).To(BeFalse())
			Expect(memory.InBounds(math.MaxUint64-2, 8)).To(BeFalse())
		})

		It("should panic with an AccessError on an out-of-bounds load", func() {
			Expect(func() { memory.Load32(61) }).To(
				PanicWith(BeAssignableToTypeOf(&emu.AccessError{})))
		})

		It("should panic on an out-of-bounds store without writing", func() {
			Expect(func() { memory.Store64(60, math.MaxUint64) }).To(Panic())
			Expect(memory.Load32(60)).To(BeZero())
		})
	})
})
