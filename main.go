// Package main provides the entry point for rv64sim.
// rv64sim is a functional RISC-V RV64IM instruction-set simulator.
//
// For the full CLI, use: go run ./cmd/rv64sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv64sim - RISC-V RV64IM Instruction-Set Simulator")
	fmt.Println("")
	fmt.Println("Usage: rv64sim [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config        Path to a JSON or YAML configuration file")
	fmt.Println("  -mem           Memory size in bytes")
	fmt.Println("  -max-instr     Max instructions to execute (0 = unlimited)")
	fmt.Println("  -decode-cache  Enable the decoded-instruction cache")
	fmt.Println("  -trace         Log every executed instruction")
	fmt.Println("  -v             Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rv64sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rv64sim' instead.")
	}
}
