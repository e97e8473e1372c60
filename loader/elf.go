// Package loader provides ELF binary loading for RV64 executables.
package loader

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/rv64sim/emu"
)

var (
	// ErrMalformed is returned for files that are not little-endian 64-bit
	// RISC-V ELF executables.
	ErrMalformed = errors.New("malformed ELF")

	// ErrNoLoadableSegments is returned for executables without a PT_LOAD
	// segment.
	ErrNoLoadableSegments = errors.New("no loadable segments")

	// ErrSegmentOutOfRange is returned by LoadInto when a segment does not
	// fit in memory.
	ErrSegmentOutOfRange = errors.New("segment out of range")
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// PhysAddr is the address the segment is copied to. The bus is
	// physically addressed.
	PhysAddr uint64
	// VirtAddr is the link-time virtual address, kept for diagnostics.
	VirtAddr uint64
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint64
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a parsed ELF program ready to be placed in memory.
type Program struct {
	// EntryPoint is the address where execution should begin.
	EntryPoint uint64
	// Segments contains all loadable segments from the ELF file.
	Segments []Segment
}

// Load parses an RV64 ELF binary from a file.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadReader(f)
}

// LoadReader parses an RV64 ELF binary from r.
func LoadReader(r io.ReaderAt) (*Program, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF: %w: %w", ErrMalformed, err)
	}

	return parse(f)
}

// LoadBytes parses an RV64 ELF binary held in memory.
func LoadBytes(data []byte) (*Program, error) {
	return LoadReader(bytes.NewReader(data))
}

func parse(f *elf.File) (*Program, error) {
	if f.Class != elf.ELFCLASS64 {
		return nil, fmt.Errorf("%w: not a 64-bit ELF file", ErrMalformed)
	}
	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("%w: not a little-endian ELF file", ErrMalformed)
	}
	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("%w: not a RISC-V ELF file (machine type: %v)", ErrMalformed, f.Machine)
	}

	prog := &Program{EntryPoint: f.Entry}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		// Filesz is read from the file and may claim more than it holds.
		data, err := io.ReadAll(phdr.Open())
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read segment at 0x%x: %w", ErrMalformed, phdr.Paddr, err)
		}
		if uint64(len(data)) != phdr.Filesz {
			return nil, fmt.Errorf("%w: short read for segment at 0x%x: got %d bytes, expected %d",
				ErrMalformed, phdr.Paddr, len(data), phdr.Filesz)
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			PhysAddr: phdr.Paddr,
			VirtAddr: phdr.Vaddr,
			Data:     data,
			MemSize:  max(phdr.Memsz, phdr.Filesz),
			Flags:    flags,
		})
	}

	if len(prog.Segments) == 0 {
		return nil, ErrNoLoadableSegments
	}

	return prog, nil
}

// LoadInto copies every segment to its physical address and zero-fills
// the BSS tail. All segments are range-checked first, so on error memory
// is unchanged.
func (p *Program) LoadInto(memory *emu.Memory) error {
	for _, seg := range p.Segments {
		if !memory.InBounds(seg.PhysAddr, seg.MemSize) {
			return fmt.Errorf("%w: [0x%x, 0x%x) exceeds memory size 0x%x",
				ErrSegmentOutOfRange, seg.PhysAddr, seg.PhysAddr+seg.MemSize, memory.Size())
		}
	}

	for _, seg := range p.Segments {
		memory.StoreBytes(seg.PhysAddr, seg.Data)
		if bss := seg.MemSize - uint64(len(seg.Data)); bss > 0 {
			memory.StoreBytes(seg.PhysAddr+uint64(len(seg.Data)), make([]byte, bss))
		}
	}

	return nil
}

// Size returns the total number of bytes the program occupies in memory.
func (p *Program) Size() uint64 {
	var total uint64
	for _, seg := range p.Segments {
		total += seg.MemSize
	}
	return total
}
