// Package benchmarks provides guest microprograms and a harness that runs
// them on the functional emulator and reports throughput.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv64sim/emu"
)

// ProgramAddr is where every benchmark program is loaded.
const ProgramAddr = 0x1000

const reportVersion = "0.1.0"

// BenchmarkResult holds the results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// Cycles is the emulator's cycle counter at the end of the run
	Cycles uint64 `json:"cycles"`

	// Result is the value of x10 (a0) when the program finished
	Result uint64 `json:"result"`

	// ExpectedResult is the benchmark's expected x10
	ExpectedResult uint64 `json:"expected_result"`

	// Error is set if the program stopped before reaching its end
	Error string `json:"error,omitempty"`

	// DecodeCacheHits/Misses (if the decode cache is enabled)
	DecodeCacheHits   uint64 `json:"decode_cache_hits,omitempty"`
	DecodeCacheMisses uint64 `json:"decode_cache_misses,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`

	// MIPS is millions of emulated instructions per wall-clock second
	MIPS float64 `json:"mips"`
}

// Passed reports whether the program reached its end with the expected
// result.
func (r BenchmarkResult) Passed() bool {
	return r.Error == "" && r.Result == r.ExpectedResult
}

// Benchmark defines a single benchmark program. The program runs from its
// first instruction until PC reaches the address just past its last one.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares the emulator state (e.g., initialize registers, memory)
	Setup func(regFile *emu.RegFile, memory *emu.Memory)

	// Program is the RV64 machine code to execute
	Program []byte

	// ExpectedResult is the expected final x10 (for validation)
	ExpectedResult uint64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableDecodeCache runs each benchmark with a decode cache
	EnableDecodeCache bool

	// MemorySize is the bus size given to each benchmark
	MemorySize uint64

	// MaxInstructions bounds each run so a broken program cannot hang
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives emulator errors (default: logrus.StandardLogger())
	Logger logrus.FieldLogger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableDecodeCache: true,
		MemorySize:        1 << 20,
		MaxInstructions:   10_000_000,
		Output:            os.Stdout,
		Verbose:           false,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	if config.MemorySize == 0 {
		config.MemorySize = DefaultConfig().MemorySize
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		if h.config.Verbose {
			h.config.Logger.WithFields(logrus.Fields{
				"benchmark":    result.Name,
				"instructions": result.InstructionsRetired,
				"wall_time":    result.WallTime,
			}).Info("benchmark finished")
		}
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark on a fresh emulator.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	opts := []emu.EmulatorOption{
		emu.WithMemorySize(h.config.MemorySize),
		emu.WithEntryPoint(ProgramAddr),
		emu.WithMaxInstructions(h.config.MaxInstructions),
		emu.WithLogger(h.config.Logger),
	}

	var cache *emu.DecodeCache
	if h.config.EnableDecodeCache {
		cache = emu.NewDecodeCache(emu.DefaultDecodeCacheConfig())
		opts = append(opts, emu.WithDecodeCache(cache))
	}

	e := emu.NewEmulator(opts...)
	result := BenchmarkResult{
		Name:           bench.Name,
		Description:    bench.Description,
		ExpectedResult: bench.ExpectedResult,
	}

	if bench.Setup != nil {
		bench.Setup(e.RegFile(), e.Memory())
	}

	if err := e.LoadProgram(ProgramAddr, bench.Program); err != nil {
		result.Error = err.Error()
		return result
	}
	end := uint64(ProgramAddr + len(bench.Program))

	// Run simulation and measure time
	start := time.Now()
	for e.RegFile().PC != end {
		if step := e.Step(); step.Err != nil {
			result.Error = step.Err.Error()
			break
		}
	}
	wallTime := time.Since(start)

	result.InstructionsRetired = e.InstructionsRetired()
	result.Cycles = e.Cycles()
	result.Result = e.RegFile().ReadReg(10)
	result.WallTime = wallTime
	if wallTime > 0 {
		result.MIPS = float64(result.InstructionsRetired) / wallTime.Seconds() / 1e6
	}

	if cache != nil {
		stats := cache.Stats()
		result.DecodeCacheHits = stats.Hits
		result.DecodeCacheMisses = stats.Misses
	}

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== RV64 Emulator Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Result (x10): %d\n", r.Result)
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  Cycles:               %d\n", r.Cycles)

		if r.DecodeCacheHits > 0 || r.DecodeCacheMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Decode Cache ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.DecodeCacheHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.DecodeCacheMisses)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v (%.2f MIPS)\n", r.WallTime, r.MIPS)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,instructions,cycles,result,decode_cache_hits,decode_cache_misses,wall_time_ns,mips")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%d,%.2f\n",
			r.Name,
			r.InstructionsRetired,
			r.Cycles,
			r.Result,
			r.DecodeCacheHits,
			r.DecodeCacheMisses,
			r.WallTime.Nanoseconds(),
			r.MIPS,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	DecodeCacheEnabled bool   `json:"decode_cache_enabled"`
	MaxInstructions    uint64 `json:"max_instructions"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Failed is the number of benchmarks that stopped with an error
	Failed int `json:"failed"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`

	// MIPS is the aggregate emulation rate
	MIPS float64 `json:"mips"`
}

// Report aggregates results into a BenchmarkReport.
func (h *Harness) Report(results []BenchmarkResult) BenchmarkReport {
	var totalInstructions uint64
	var totalWallTime time.Duration
	failed := 0
	for _, r := range results {
		totalInstructions += r.InstructionsRetired
		totalWallTime += r.WallTime
		if r.Error != "" {
			failed++
		}
	}

	mips := float64(0)
	if totalWallTime > 0 {
		mips = float64(totalInstructions) / totalWallTime.Seconds() / 1e6
	}

	return BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   reportVersion,
			Config: BenchmarkConfig{
				DecodeCacheEnabled: h.config.EnableDecodeCache,
				MaxInstructions:    h.config.MaxInstructions,
			},
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			Failed:            failed,
			TotalInstructions: totalInstructions,
			TotalWallTime:     totalWallTime,
			MIPS:              mips,
		},
	}
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(h.Report(results))
}
