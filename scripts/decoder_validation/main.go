// Validate decoder and decode cache hot paths - measures allocations and
// decode throughput with and without the cache.
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sarchlab/rv64sim/emu"
	"github.com/sarchlab/rv64sim/insts"
)

const iterations = 100000

func main() {
	// Create basic memory for decoder testing
	memory := emu.NewMemory(64 * 1024)

	words := []uint32{
		insts.EncodeADDI(1, 0, 42),
		insts.EncodeADD(3, 1, 2),
		insts.EncodeLoad(insts.Funct3LD, 5, 2, 8),
		insts.EncodeBranch(insts.Funct3BNE, 5, 0, -8),
	}
	memory.StoreBytes(0x1000, insts.Program(words...))

	decoder := insts.NewDecoder()
	report("Decoder", len(words), func() {
		for _, w := range words {
			decoder.Decode(int32(w))
		}
	})

	cache := emu.NewDecodeCache(emu.DefaultDecodeCacheConfig())
	report("Decode cache", len(words), func() {
		for pc := uint64(0x1000); pc < 0x1010; pc += insts.InstructionSize {
			cache.Fetch(memory, pc)
		}
	})

	stats := cache.Stats()
	fmt.Printf("Decode cache hits: %d, misses: %d\n", stats.Hits, stats.Misses)
}

// report runs body iterations times after a warm-up and prints the
// per-decode allocation rate.
func report(name string, perIteration int, body func()) {
	// Warm up
	for i := 0; i < 1000; i++ {
		body()
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		body()
	}
	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * perIteration
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("%s Validation Results:\n", name)
	fmt.Printf("========================================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)
	fmt.Printf("Allocated bytes: %d\n", allocatedBytes)
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))

	if allocations == 0 {
		fmt.Printf("✅ SUCCESS: Zero allocations detected\n\n")
	} else if float64(allocations)/float64(totalDecodes) < 0.1 {
		fmt.Printf("✅ GOOD: Low allocation rate (< 0.1 per decode)\n\n")
	} else {
		fmt.Printf("⚠️  WARNING: High allocation rate detected\n\n")
	}
}
