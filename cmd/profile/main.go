// Package main provides a profiling wrapper for rv64sim to identify
// performance bottlenecks in the emulator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv64sim/emu"
	"github.com/sarchlab/rv64sim/loader"
)

var (
	mode        = flag.String("mode", "cpu", "profile mode: cpu or mem")
	profileDir  = flag.String("profile-dir", ".", "directory the profile is written to")
	duration    = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	instruction = flag.Uint64("max-instr", 1000000, "max instructions to execute (0 = unlimited)")
	decodeCache = flag.Bool("decode-cache", true, "enable the decoded-instruction cache")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var profileMode func(*profile.Profile)
	switch *mode {
	case "cpu":
		profileMode = profile.CPUProfile
	case "mem":
		profileMode = profile.MemProfile
	default:
		fmt.Fprintf(os.Stderr, "Unknown profile mode %q (want cpu or mem)\n", *mode)
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	// Load the ELF program
	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)

	emulator, err := newEmulator(prog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	p := profile.Start(profileMode, profile.ProfilePath(*profileDir), profile.NoShutdownHook)
	start := time.Now()
	runErr := emulator.RunContext(ctx)
	elapsed := time.Since(start)
	p.Stop()

	instrCount := emulator.InstructionsRetired()

	fmt.Printf("\nProfiling Results:\n")
	switch {
	case errors.Is(runErr, context.DeadlineExceeded):
		fmt.Printf("Stopped: timeout reached after %v\n", *duration)
	case errors.Is(runErr, emu.ErrMaxInstructions):
		fmt.Printf("Stopped: instruction limit reached\n")
	default:
		fmt.Printf("Stopped: %v\n", runErr)
	}
	fmt.Printf("Instructions executed: %d\n", instrCount)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
	if cache := emulator.DecodeCache(); cache != nil {
		stats := cache.Stats()
		fmt.Printf("Decode cache: %d hits, %d misses, %d invalidations\n",
			stats.Hits, stats.Misses, stats.Invalidations)
	}
}

// newEmulator places the program in memory and builds a quiet emulator
// around it.
func newEmulator(prog *loader.Program) (*emu.Emulator, error) {
	memory := emu.NewMemory(emu.DefaultMemorySize)
	if err := prog.LoadInto(memory); err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	opts := []emu.EmulatorOption{
		emu.WithMemory(memory),
		emu.WithEntryPoint(prog.EntryPoint),
		emu.WithMaxInstructions(*instruction),
		emu.WithLogger(logger),
	}
	if *decodeCache {
		opts = append(opts, emu.WithDecodeCache(emu.NewDecodeCache(emu.DefaultDecodeCacheConfig())))
	}

	return emu.NewEmulator(opts...), nil
}
