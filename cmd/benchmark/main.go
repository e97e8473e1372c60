// Command benchmark runs the rv64sim benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv              Output results in CSV format (default: human-readable)
//	-json             Output a JSON report
//	-core             Run only the core benchmark subset
//	-no-decode-cache  Disable the decoded-instruction cache
//	-max-instr        Instruction budget per benchmark
//	-v                Log each benchmark as it finishes
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/rv64sim/benchmarks"
)

func main() {
	// Parse flags
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as a JSON report")
	coreOnly := flag.Bool("core", false, "Run only the core benchmarks")
	noDecodeCache := flag.Bool("no-decode-cache", false, "Disable the decoded-instruction cache")
	maxInstr := flag.Uint64("max-instr", benchmarks.DefaultConfig().MaxInstructions,
		"Instruction budget per benchmark (0 = unlimited)")
	verbose := flag.Bool("v", false, "Log each benchmark as it finishes")
	flag.Parse()

	// Configure harness
	config := benchmarks.DefaultConfig()
	config.EnableDecodeCache = !*noDecodeCache
	config.MaxInstructions = *maxInstr
	config.Verbose = *verbose
	config.Output = os.Stdout

	// Create harness and add benchmarks
	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	// Print configuration
	if !*csvOutput && !*jsonOutput {
		fmt.Println("rv64sim Benchmark Harness")
		fmt.Println("=========================")
		fmt.Printf("Decode cache: %v\n", config.EnableDecodeCache)
		fmt.Printf("Max instructions: %d\n", config.MaxInstructions)
		fmt.Println("")
	}

	// Run benchmarks
	results := harness.RunAll()

	// Output results
	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	// Fail if any benchmark stopped early or produced the wrong result
	failed := 0
	for _, r := range results {
		if !r.Passed() {
			fmt.Fprintf(os.Stderr, "FAIL %s: result %d, expected %d %s\n",
				r.Name, r.Result, r.ExpectedResult, r.Error)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
