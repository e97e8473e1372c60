package emu

import (
	"errors"
	"fmt"
)

var (
	// ErrUndefinedInstruction is wrapped by every UndefinedInstructionError.
	ErrUndefinedInstruction = errors.New("undefined instruction")

	// ErrOutOfBounds is wrapped by every AccessError.
	ErrOutOfBounds = errors.New("memory access out of bounds")

	// ErrMaxInstructions is returned once the configured instruction budget
	// has been spent.
	ErrMaxInstructions = errors.New("max instructions reached")
)

// UndefinedInstructionError reports an instruction whose
// (opcode, funct3, funct7) matched no rule, or a CSR instruction that named
// an unsupported CSR.
type UndefinedInstructionError struct {
	PC     uint64
	Word   uint32
	Opcode uint8
	Funct3 uint8
	Funct7 uint8

	// CSR is set when the instruction was well formed but addressed an
	// unsupported CSR.
	CSR    uint16
	HasCSR bool
}

func (e *UndefinedInstructionError) Error() string {
	if e.HasCSR {
		return fmt.Sprintf("undefined instruction 0x%08X at PC=0x%X: unsupported CSR 0x%03X",
			e.Word, e.PC, e.CSR)
	}
	return fmt.Sprintf("undefined instruction 0x%08X at PC=0x%X (opcode=0x%02X funct3=%d funct7=0x%02X)",
		e.Word, e.PC, e.Opcode, e.Funct3, e.Funct7)
}

// Unwrap lets errors.Is match ErrUndefinedInstruction.
func (e *UndefinedInstructionError) Unwrap() error {
	return ErrUndefinedInstruction
}

// AccessError describes a memory access that does not fit in the bus.
type AccessError struct {
	Addr  uint64
	Width uint64
	Size  uint64
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("memory access out of bounds: addr=0x%X width=%d memory size=0x%X",
		e.Addr, e.Width, e.Size)
}

// Unwrap lets errors.Is match ErrOutOfBounds.
func (e *AccessError) Unwrap() error {
	return ErrOutOfBounds
}
