package emu

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/rv64sim/insts"
)

// DecodeCacheConfig sizes a DecodeCache.
type DecodeCacheConfig struct {
	// Sets is the number of sets.
	Sets int
	// Ways is the associativity.
	Ways int
	// BlockSize is the number of bytes of code covered by one entry. It
	// must be a multiple of the instruction size.
	BlockSize int
}

// DefaultDecodeCacheConfig returns a 64-set, 4-way cache of 64-byte blocks
// (16KB of code).
func DefaultDecodeCacheConfig() DecodeCacheConfig {
	return DecodeCacheConfig{
		Sets:      64,
		Ways:      4,
		BlockSize: 64,
	}
}

// DecodeCacheStats holds decode cache statistics.
type DecodeCacheStats struct {
	Hits          uint64
	Misses        uint64
	Bypasses      uint64
	Invalidations uint64
}

// DecodeCache memoizes decoded instructions per block of code so the
// executor does not re-decode hot loops. Tag and replacement state live in
// an Akita directory with an LRU victim finder.
//
// It has no architectural effect: every write to the bus, from the guest
// or the host, invalidates the blocks it touches (see Memory.OnWrite),
// and fetches that are not instruction-aligned bypass the cache.
type DecodeCache struct {
	config    DecodeCacheConfig
	directory *akitacache.DirectoryImpl

	// Decoded slots, indexed by (setID * ways + wayID).
	slots [][]insts.Instruction
	// Per-slot validity; a block at the end of memory may be partial.
	filled [][]bool

	stats DecodeCacheStats
}

// NewDecodeCache creates a decode cache.
func NewDecodeCache(config DecodeCacheConfig) *DecodeCache {
	total := config.Sets * config.Ways
	perBlock := config.BlockSize / insts.InstructionSize

	slots := make([][]insts.Instruction, total)
	filled := make([][]bool, total)
	for i := range slots {
		slots[i] = make([]insts.Instruction, perBlock)
		filled[i] = make([]bool, perBlock)
	}

	return &DecodeCache{
		config: config,
		directory: akitacache.NewDirectory(
			config.Sets,
			config.Ways,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		slots:  slots,
		filled: filled,
	}
}

// Config returns the cache configuration.
func (c *DecodeCache) Config() DecodeCacheConfig {
	return c.config
}

// Stats returns cache statistics.
func (c *DecodeCache) Stats() DecodeCacheStats {
	return c.stats
}

func (c *DecodeCache) blockAddr(addr uint64) uint64 {
	bs := uint64(c.config.BlockSize)
	return addr / bs * bs
}

func (c *DecodeCache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Ways + block.WayID
}

// Fetch returns the decoded instruction at pc. The caller has checked that
// the instruction word lies inside memory.
func (c *DecodeCache) Fetch(memory *Memory, pc uint64) insts.Instruction {
	if pc%insts.InstructionSize != 0 {
		c.stats.Bypasses++
		return insts.Decode(int32(uint32(memory.Load32(pc))))
	}

	base := c.blockAddr(pc)
	slot := int(pc-base) / insts.InstructionSize

	block := c.directory.Lookup(0, base)
	if block != nil && block.IsValid {
		idx := c.blockIndex(block)
		if c.filled[idx][slot] {
			c.stats.Hits++
			c.directory.Visit(block)
			return c.slots[idx][slot]
		}
	}

	c.stats.Misses++
	if block == nil || !block.IsValid {
		block = c.directory.FindVictim(base)
		if block == nil {
			return insts.Decode(int32(uint32(memory.Load32(pc))))
		}
		block.Tag = base
		block.IsValid = true
		block.IsDirty = false
	}

	idx := c.blockIndex(block)
	c.fill(memory, base, idx)
	c.directory.Visit(block)

	return c.slots[idx][slot]
}

func (c *DecodeCache) fill(memory *Memory, base uint64, idx int) {
	for i := range c.slots[idx] {
		addr := base + uint64(i*insts.InstructionSize)
		if !memory.InBounds(addr, insts.InstructionSize) {
			c.filled[idx][i] = false
			continue
		}
		c.slots[idx][i] = insts.Decode(int32(uint32(memory.Load32(addr))))
		c.filled[idx][i] = true
	}
}

// Invalidate drops every cached block overlapping [addr, addr+width).
func (c *DecodeCache) Invalidate(addr, width uint64) {
	if width == 0 {
		return
	}
	first := c.blockAddr(addr)
	last := c.blockAddr(addr + width - 1)
	for base := first; ; base += uint64(c.config.BlockSize) {
		block := c.directory.Lookup(0, base)
		if block != nil && block.IsValid {
			block.IsValid = false
			c.stats.Invalidations++
		}
		if base >= last {
			break
		}
	}
}

// Flush invalidates every block and keeps statistics.
func (c *DecodeCache) Flush() {
	c.directory.Reset()
}

// Reset invalidates every block and clears statistics.
func (c *DecodeCache) Reset() {
	c.directory.Reset()
	c.stats = DecodeCacheStats{}
}
