// Package main provides the rv64sim command, which loads an RV64 ELF
// executable and runs it on the functional emulator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv64sim/config"
	"github.com/sarchlab/rv64sim/emu"
	"github.com/sarchlab/rv64sim/loader"
)

// Exit codes.
const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath  string
	memSize     uint64
	maxInstr    uint64
	verbose     bool
	trace       bool
	decodeCache bool
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("rv64sim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to a JSON or YAML configuration file")
	fs.Uint64Var(&opts.memSize, "mem", 0, "Memory size in bytes (overrides config)")
	fs.Uint64Var(&opts.maxInstr, "max-instr", 0, "Max instructions to execute, 0 = unlimited (overrides config)")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output")
	fs.BoolVar(&opts.trace, "trace", false, "Log every executed instruction")
	fs.BoolVar(&opts.decodeCache, "decode-cache", false, "Enable the decoded-instruction cache")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: rv64sim [options] <program.elf>\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return opts, fs, nil
}

// buildConfig loads the config file (or defaults) and applies the flags
// that were set explicitly.
func buildConfig(opts *options, fs *flag.FlagSet) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mem":
			cfg.MemorySize = opts.memSize
		case "max-instr":
			cfg.MaxInstructions = opts.maxInstr
		case "decode-cache":
			cfg.DecodeCache.Enabled = opts.decodeCache
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, opts *options, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.Out = out
	logger.SetLevel(cfg.Level())
	if opts.verbose && !logger.IsLevelEnabled(logrus.DebugLevel) {
		logger.SetLevel(logrus.DebugLevel)
	}
	if opts.trace {
		logger.SetLevel(logrus.TraceLevel)
	}
	return logger
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return exitUsage
	}
	programPath := fs.Arg(0)

	cfg, err := buildConfig(opts, fs)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	logger := newLogger(cfg, opts, stderr)

	prog, err := loader.Load(programPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return exitError
	}

	logger.WithFields(logrus.Fields{
		"program":  programPath,
		"entry":    fmt.Sprintf("0x%X", prog.EntryPoint),
		"segments": len(prog.Segments),
		"size":     prog.Size(),
	}).Debug("program loaded")

	memory := emu.NewMemory(cfg.MemorySize)
	if err := prog.LoadInto(memory); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return exitError
	}

	emuOpts := append(cfg.EmulatorOptions(),
		emu.WithMemory(memory),
		emu.WithEntryPoint(prog.EntryPoint),
		emu.WithLogger(logger),
	)
	emulator := emu.NewEmulator(emuOpts...)

	runErr := emulator.RunContext(ctx)

	printState(stdout, emulator, opts.verbose)

	switch {
	case errors.Is(runErr, emu.ErrMaxInstructions):
		logger.WithField("limit", cfg.MaxInstructions).Info("instruction limit reached")
		return exitOK
	case errors.Is(runErr, context.Canceled):
		_, _ = fmt.Fprintln(stderr, "Interrupted")
		return exitInterrupted
	default:
		_, _ = fmt.Fprintf(stderr, "Execution stopped: %v\n", runErr)
		return exitError
	}
}

// printState prints the final PC, counters and, when verbose or nonzero,
// the general-purpose registers.
func printState(w io.Writer, e *emu.Emulator, verbose bool) {
	regFile := e.RegFile()
	_, _ = fmt.Fprintf(w, "PC: 0x%X\n", regFile.PC)
	_, _ = fmt.Fprintf(w, "Instructions retired: %d\n", e.InstructionsRetired())
	_, _ = fmt.Fprintf(w, "Cycles: %d\n", e.Cycles())

	for i := uint8(1); i < 32; i++ {
		v := regFile.ReadReg(i)
		if v == 0 && !verbose {
			continue
		}
		_, _ = fmt.Fprintf(w, "x%-2d = 0x%016X (%d)\n", i, v, int64(v))
	}

	if cache := e.DecodeCache(); cache != nil {
		stats := cache.Stats()
		_, _ = fmt.Fprintf(w, "Decode cache: %d hits, %d misses\n", stats.Hits, stats.Misses)
	}
}
