package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/emu"
	"github.com/sarchlab/rv64sim/insts"
	"github.com/sarchlab/rv64sim/loader"
)

const (
	machineRISCV   = 243
	machineX86_64  = 62
	ptLoad         = 1
	ptNote         = 4
	pfX            = 0x1
	pfW            = 0x2
	pfR            = 0x4
	elfHeaderSize  = 64
	progHeaderSize = 56
)

type testSegment struct {
	typ      uint32
	flags    uint32
	vaddr    uint64
	paddr    uint64
	data     []byte
	memSize  uint64
	truncate bool
}

// buildELF lays out a little-endian ELF64 executable: header, program
// headers, then each segment's file bytes in order.
func buildELF(machine uint16, entry uint64, segments ...testSegment) []byte {
	header := make([]byte, elfHeaderSize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 2 // 64-bit
	header[5] = 1 // little endian
	header[6] = 1 // version
	binary.LittleEndian.PutUint16(header[16:18], 2) // executable
	binary.LittleEndian.PutUint16(header[18:20], machine)
	binary.LittleEndian.PutUint32(header[20:24], 1)
	binary.LittleEndian.PutUint64(header[24:32], entry)
	binary.LittleEndian.PutUint64(header[32:40], elfHeaderSize) // phoff
	binary.LittleEndian.PutUint16(header[52:54], elfHeaderSize)
	binary.LittleEndian.PutUint16(header[54:56], progHeaderSize)
	binary.LittleEndian.PutUint16(header[56:58], uint16(len(segments)))
	binary.LittleEndian.PutUint16(header[58:60], 64) // shentsize

	out := header
	offset := uint64(elfHeaderSize + progHeaderSize*len(segments))
	var payload []byte

	for _, seg := range segments {
		ph := make([]byte, progHeaderSize)
		memSize := seg.memSize
		if memSize == 0 {
			memSize = uint64(len(seg.data))
		}
		fileSize := uint64(len(seg.data))
		if seg.truncate {
			fileSize += 0x1000
		}
		binary.LittleEndian.PutUint32(ph[0:4], seg.typ)
		binary.LittleEndian.PutUint32(ph[4:8], seg.flags)
		binary.LittleEndian.PutUint64(ph[8:16], offset)
		binary.LittleEndian.PutUint64(ph[16:24], seg.vaddr)
		binary.LittleEndian.PutUint64(ph[24:32], seg.paddr)
		binary.LittleEndian.PutUint64(ph[32:40], fileSize)
		binary.LittleEndian.PutUint64(ph[40:48], memSize)
		binary.LittleEndian.PutUint64(ph[48:56], 0x1000)

		out = append(out, ph...)
		payload = append(payload, seg.data...)
		offset += uint64(len(seg.data))
	}

	return append(out, payload...)
}

func codeSegment(addr uint64, code []byte) testSegment {
	return testSegment{typ: ptLoad, flags: pfR | pfX, vaddr: addr, paddr: addr, data: code}
}

var _ = Describe("ELF Loader", func() {
	code := insts.Program(
		insts.EncodeADDI(10, 0, 42),
		insts.EncodeECALL(),
	)

	Describe("Load", func() {
		var tempDir string

		BeforeEach(func() {
			tempDir = GinkgoT().TempDir()
		})

		It("should load an executable from disk", func() {
			path := filepath.Join(tempDir, "test.elf")
			Expect(os.WriteFile(path, buildELF(machineRISCV, 0x1000, codeSegment(0x1000, code)), 0644)).To(Succeed())

			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint64(0x1000)))
			Expect(prog.Segments).To(HaveLen(1))
			Expect(prog.Segments[0].Data).To(Equal(code))
		})

		It("should return error for non-existent file", func() {
			_, err := loader.Load(filepath.Join(tempDir, "missing.elf"))
			Expect(err).To(MatchError(ContainSubstring("failed to open")))
			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})

	Describe("LoadBytes", func() {
		It("should extract the entry point and segment", func() {
			prog, err := loader.LoadBytes(buildELF(machineRISCV, 0x1004, codeSegment(0x1000, code)))

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint64(0x1004)))
			Expect(prog.Segments[0].PhysAddr).To(Equal(uint64(0x1000)))
			Expect(prog.Segments[0].Flags & loader.SegmentFlagExecute).NotTo(BeZero())
			Expect(prog.Segments[0].Flags & loader.SegmentFlagRead).NotTo(BeZero())
			Expect(prog.Segments[0].Flags & loader.SegmentFlagWrite).To(BeZero())
		})

		It("should keep the physical and virtual addresses apart", func() {
			seg := codeSegment(0x80001000, code)
			seg.paddr = 0x2000

			prog, err := loader.LoadBytes(buildELF(machineRISCV, 0x80001000, seg))

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments[0].VirtAddr).To(Equal(uint64(0x80001000)))
			Expect(prog.Segments[0].PhysAddr).To(Equal(uint64(0x2000)))
		})

		It("should skip segments that are not PT_LOAD", func() {
			note := testSegment{typ: ptNote, flags: pfR, data: []byte{1, 2, 3, 4}}

			prog, err := loader.LoadBytes(buildELF(machineRISCV, 0x1000, note, codeSegment(0x1000, code)))

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(1))
			Expect(prog.Segments[0].Data).To(Equal(code))
		})

		It("should load multiple PT_LOAD segments", func() {
			data := testSegment{
				typ: ptLoad, flags: pfR | pfW, vaddr: 0x3000, paddr: 0x3000,
				data: []byte{1, 2, 3, 4}, memSize: 1024,
			}

			prog, err := loader.LoadBytes(buildELF(machineRISCV, 0x1000, codeSegment(0x1000, code), data))

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))
			Expect(prog.Segments[1].Data).To(Equal([]byte{1, 2, 3, 4}))
			Expect(prog.Segments[1].MemSize).To(Equal(uint64(1024)))
			Expect(prog.Segments[1].Flags & loader.SegmentFlagWrite).NotTo(BeZero())
			Expect(prog.Size()).To(Equal(uint64(len(code)) + 1024))
		})

		It("should reject an empty input", func() {
			_, err := loader.LoadBytes(nil)
			Expect(err).To(MatchError(loader.ErrMalformed))
		})

		It("should reject a file that is not ELF", func() {
			_, err := loader.LoadBytes([]byte("not an elf file at all, just text"))
			Expect(err).To(MatchError(loader.ErrMalformed))
		})

		It("should reject another machine type", func() {
			_, err := loader.LoadBytes(buildELF(machineX86_64, 0x1000, codeSegment(0x1000, code)))
			Expect(err).To(MatchError(loader.ErrMalformed))
			Expect(err).To(MatchError(ContainSubstring("not a RISC-V")))
		})

		It("should reject a 32-bit ELF", func() {
			header := make([]byte, 52)
			copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
			header[4] = 1 // 32-bit
			header[5] = 1
			header[6] = 1
			binary.LittleEndian.PutUint16(header[16:18], 2)
			binary.LittleEndian.PutUint16(header[18:20], machineRISCV)
			binary.LittleEndian.PutUint32(header[20:24], 1)

			_, err := loader.LoadBytes(header)
			Expect(err).To(MatchError(loader.ErrMalformed))
			Expect(err).To(MatchError(ContainSubstring("not a 64-bit")))
		})

		It("should reject an executable without PT_LOAD segments", func() {
			note := testSegment{typ: ptNote, flags: pfR, data: []byte{1, 2, 3, 4}}

			_, err := loader.LoadBytes(buildELF(machineRISCV, 0x1000, note))
			Expect(err).To(MatchError(loader.ErrNoLoadableSegments))
		})

		It("should reject a segment whose file bytes are missing", func() {
			seg := codeSegment(0x1000, code)
			seg.truncate = true

			_, err := loader.LoadBytes(buildELF(machineRISCV, 0x1000, seg))
			Expect(err).To(MatchError(loader.ErrMalformed))
		})

		It("should reject a segment size far beyond the file without panicking", func() {
			data := buildELF(machineRISCV, 0x1000, codeSegment(0x1000, code))
			// p_filesz of the first program header
			binary.LittleEndian.PutUint64(data[elfHeaderSize+32:elfHeaderSize+40], 1<<62)

			var err error
			Expect(func() { _, err = loader.LoadBytes(data) }).NotTo(Panic())
			Expect(err).To(MatchError(loader.ErrMalformed))
		})
	})

	Describe("LoadInto", func() {
		var memory *emu.Memory

		BeforeEach(func() {
			memory = emu.NewMemory(0x4000)
		})

		It("should copy segments to their physical addresses", func() {
			seg := codeSegment(0x80001000, code)
			seg.paddr = 0x1000
			prog, err := loader.LoadBytes(buildELF(machineRISCV, 0x1000, seg))
			Expect(err).NotTo(HaveOccurred())

			Expect(prog.LoadInto(memory)).To(Succeed())

			Expect(memory.LoadBytes(0x1000, uint64(len(code)))).To(Equal(code))
		})

		It("should zero-fill the BSS tail", func() {
			memory.Store64(0x3004, 0xFFFFFFFFFFFFFFFF)
			bss := testSegment{
				typ: ptLoad, flags: pfR | pfW, vaddr: 0x3000, paddr: 0x3000,
				data: []byte{1, 2, 3, 4}, memSize: 64,
			}
			prog, err := loader.LoadBytes(buildELF(machineRISCV, 0x1000, codeSegment(0x1000, code), bss))
			Expect(err).NotTo(HaveOccurred())

			Expect(prog.LoadInto(memory)).To(Succeed())

			Expect(memory.Load32(0x3000)).To(Equal(uint64(0x04030201)))
			Expect(memory.Load64(0x3004)).To(BeZero())
		})

		It("should leave memory untouched when a segment does not fit", func() {
			tooHigh := testSegment{
				typ: ptLoad, flags: pfR | pfW, vaddr: 0x3FF0, paddr: 0x3FF0,
				data: []byte{1}, memSize: 0x100,
			}
			prog, err := loader.LoadBytes(buildELF(machineRISCV, 0x1000, codeSegment(0x1000, code), tooHigh))
			Expect(err).NotTo(HaveOccurred())

			err = prog.LoadInto(memory)

			Expect(err).To(MatchError(loader.ErrSegmentOutOfRange))
			Expect(memory.LoadBytes(0x1000, uint64(len(code)))).To(Equal(make([]byte, len(code))))
		})

		It("should produce a program the emulator can run", func() {
			prog, err := loader.LoadBytes(buildELF(machineRISCV, 0x1000, codeSegment(0x1000, code)))
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.LoadInto(memory)).To(Succeed())

			e := emu.NewEmulator(emu.WithMemory(memory), emu.WithEntryPoint(prog.EntryPoint))
			Expect(e.Step().Err).NotTo(HaveOccurred())
			Expect(e.Step().Err).NotTo(HaveOccurred())

			Expect(e.RegFile().ReadReg(10)).To(Equal(uint64(42)))
			Expect(e.RegFile().PC).To(Equal(uint64(0x1008)))
		})
	})
})
