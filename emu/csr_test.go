package emu_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/emu"
	"github.com/sarchlab/rv64sim/insts"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fakeCounters struct {
	cycles  uint64
	instret uint64
}

func (c *fakeCounters) Cycles() uint64 {
	return c.cycles
}

func (c *fakeCounters) InstructionsRetired() uint64 {
	return c.instret
}

var _ = Describe("Machine", func() {
	It("should measure elapsed time from creation", func() {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		machine := emu.NewMachine(emu.WithClock(clock), emu.WithHartID(3))

		clock.Advance(250 * time.Millisecond)

		Expect(machine.StartTime()).To(Equal(time.Unix(1000, 0)))
		Expect(machine.Elapsed()).To(Equal(250 * time.Millisecond))
		Expect(machine.HartID()).To(Equal(uint64(3)))
	})

	It("should default to the system clock", func() {
		machine := emu.NewMachine()
		Expect(machine.Elapsed()).To(BeNumerically(">=", 0))
	})
})

var _ = Describe("CSRFile", func() {
	var (
		clock    *fakeClock
		counters *fakeCounters
		csrFile  *emu.CSRFile
	)

	BeforeEach(func() {
		clock = &fakeClock{now: time.Unix(0, 0)}
		counters = &fakeCounters{cycles: 11, instret: 7}
		csrFile = emu.NewCSRFile(emu.NewMachine(emu.WithClock(clock)), counters)
	})

	It("should read the counters", func() {
		cycle, ok := csrFile.Read(emu.CSRCycle)
		Expect(ok).To(BeTrue())
		Expect(cycle).To(Equal(uint64(11)))

		instret, ok := csrFile.Read(emu.CSRInstret)
		Expect(ok).To(BeTrue())
		Expect(instret).To(Equal(uint64(7)))
	})

	It("should report time in milliseconds", func() {
		clock.Advance(1500*time.Millisecond + 900*time.Microsecond)

		value, ok := csrFile.Read(emu.CSRTime)
		Expect(ok).To(BeTrue())
		Expect(value).To(Equal(uint64(1500)))
	})

	It("should reject unsupported CSRs", func() {
		_, ok := csrFile.Read(0x300)
		Expect(ok).To(BeFalse())

		_, ok = csrFile.Access(insts.Funct3CSRRS, 0x300, 0)
		Expect(ok).To(BeFalse())
	})

	It("should return the old value from every access form", func() {
		for _, funct3 := range []uint8{
			insts.Funct3CSRRW, insts.Funct3CSRRS, insts.Funct3CSRRC,
			insts.Funct3CSRRWI, insts.Funct3CSRRSI, insts.Funct3CSRRCI,
		} {
			old, ok := csrFile.Access(funct3, emu.CSRCycle, 0xFF)
			Expect(ok).To(BeTrue())
			Expect(old).To(Equal(uint64(11)))
		}
	})

	It("should leave the counters unchanged after a write", func() {
		csrFile.Access(insts.Funct3CSRRW, emu.CSRInstret, 0)

		value, _ := csrFile.Read(emu.CSRInstret)
		Expect(value).To(Equal(uint64(7)))
	})
})
