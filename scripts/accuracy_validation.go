// Package main provides accuracy validation for performance optimizations.
// Ensures that the decode cache preserves simulation correctness.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv64sim/emu"
	"github.com/sarchlab/rv64sim/insts"
)

const basePC = 0x1000

// testInstructionDecoding validates that instructions fetched through the
// decode cache are identical to those produced by the decoder.
func testInstructionDecoding() bool {
	decoder := insts.NewDecoder()

	// Test various instruction encodings
	testCases := []uint32{
		insts.EncodeADDI(1, 2, -1),
		insts.EncodeSUB(3, 4, 5),
		insts.EncodeBranch(insts.Funct3BNE, 1, 0, 8),
		insts.EncodeLoad(insts.Funct3LD, 1, 2, 16),
		insts.EncodeSD(2, 1, -16),
		insts.EncodeJAL(1, 2048),
	}

	fmt.Println("Testing instruction decoder accuracy...")

	memory := emu.NewMemory(64 * 1024)
	memory.StoreBytes(basePC, insts.Program(testCases...))
	cache := emu.NewDecodeCache(emu.DefaultDecodeCacheConfig())

	for i, word := range testCases {
		pc := uint64(basePC + i*insts.InstructionSize)

		inst1 := decoder.Decode(int32(word))
		inst2 := cache.Fetch(memory, pc)

		if inst1 != inst2 {
			fmt.Printf("❌ Test case %d failed: Decode mismatch\n", i)
			fmt.Printf("  Decode(): %+v\n", inst1)
			fmt.Printf("  Fetch():  %+v\n", inst2)
			return false
		}

		fmt.Printf("✅ Test case %d: Instruction 0x%08X (%s) decoded correctly\n",
			i, word, insts.Disassemble(inst1))
	}

	return true
}

// runProgram executes words from basePC until PC leaves the program or an
// error occurs and returns the emulator.
func runProgram(words []uint32, initial uint64, decodeCache bool) (*emu.Emulator, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	opts := []emu.EmulatorOption{
		emu.WithMemorySize(64 * 1024),
		emu.WithEntryPoint(basePC),
		emu.WithMaxInstructions(10000),
		emu.WithLogger(logger),
	}
	if decodeCache {
		opts = append(opts, emu.WithDecodeCache(emu.NewDecodeCache(emu.DefaultDecodeCacheConfig())))
	}

	e := emu.NewEmulator(opts...)
	e.RegFile().WriteReg(10, initial)

	program := insts.Program(words...)
	if err := e.LoadProgram(basePC, program); err != nil {
		return nil, err
	}

	end := uint64(basePC + len(program))
	for e.RegFile().PC != end {
		if step := e.Step(); step.Err != nil {
			return e, step.Err
		}
	}
	return e, nil
}

// testExecution validates that runs with and without the decode cache end
// in identical architectural state.
func testExecution() bool {
	fmt.Println("\nTesting execution accuracy...")

	// Program: sum a0 down to zero into a1, then a2 = a1 * 3
	words := []uint32{
		insts.EncodeADDI(11, 0, 0),
		insts.EncodeBranch(insts.Funct3BEQ, 10, 0, 16),
		insts.EncodeADD(11, 11, 10),
		insts.EncodeADDI(10, 10, -1),
		insts.EncodeJAL(0, -12),
		insts.EncodeADDI(12, 0, 3),
		insts.EncodeMUL(12, 12, 11),
	}

	// Test with different initial values
	testValues := []uint64{0, 1, 42, 100}

	for i, initialValue := range testValues {
		plain, err1 := runProgram(words, initialValue, false)
		cached, err2 := runProgram(words, initialValue, true)
		if err1 != nil || err2 != nil {
			fmt.Printf("❌ Test case %d failed: %v / %v\n", i, err1, err2)
			return false
		}

		expectedSum := initialValue * (initialValue + 1) / 2
		if *plain.RegFile() != *cached.RegFile() ||
			plain.InstructionsRetired() != cached.InstructionsRetired() ||
			plain.RegFile().ReadReg(11) != expectedSum ||
			plain.RegFile().ReadReg(12) != expectedSum*3 {
			fmt.Printf("❌ Test case %d failed:\n", i)
			fmt.Printf("  Initial a0: %d\n", initialValue)
			fmt.Printf("  Expected a1: %d, Got: %d / %d\n", expectedSum,
				plain.RegFile().ReadReg(11), cached.RegFile().ReadReg(11))
			return false
		}

		fmt.Printf("✅ Test case %d: a0=%d → a1=%d, a2=%d (%d instructions)\n",
			i, initialValue, plain.RegFile().ReadReg(11), plain.RegFile().ReadReg(12),
			plain.InstructionsRetired())
	}

	return true
}

// testSelfModifyingCode validates that a store over cached code is seen
// by the next fetch.
func testSelfModifyingCode() bool {
	fmt.Println("\nTesting self-modifying code...")

	patched := insts.EncodeADDI(10, 0, 99)
	lo := int32(patched<<20) >> 20
	hi := int32((patched + 0x800) &^ 0xFFF)
	words := []uint32{
		insts.EncodeLUI(5, hi),
		insts.EncodeADDI(5, 5, lo),
		insts.EncodeAUIPC(6, 0),
		insts.EncodeSW(6, 5, 8), // overwrite the next instruction
		insts.EncodeADDI(10, 0, 1),
	}

	for _, decodeCache := range []bool{false, true} {
		e, err := runProgram(words, 0, decodeCache)
		if err != nil {
			fmt.Printf("❌ decode cache %v: %v\n", decodeCache, err)
			return false
		}
		if got := e.RegFile().ReadReg(10); got != 99 {
			fmt.Printf("❌ decode cache %v: expected a0=99, got %d\n", decodeCache, got)
			return false
		}
		fmt.Printf("✅ decode cache %v: patched instruction executed\n", decodeCache)
	}

	return true
}

func main() {
	fmt.Println("rv64sim Accuracy Validation - Performance Optimization")
	fmt.Println("=======================================================")

	allPassed := true

	// Test instruction decoding accuracy
	if !testInstructionDecoding() {
		allPassed = false
	}

	// Test execution accuracy
	if !testExecution() {
		allPassed = false
	}

	// Test decode cache invalidation
	if !testSelfModifyingCode() {
		allPassed = false
	}

	fmt.Println("\n=======================================================")
	if allPassed {
		fmt.Println("🎉 ALL ACCURACY TESTS PASSED")
		fmt.Println("✅ Performance optimizations preserve simulation correctness")
		os.Exit(0)
	} else {
		fmt.Println("❌ ACCURACY TESTS FAILED")
		fmt.Println("🚨 Performance optimizations may have introduced errors")
		os.Exit(1)
	}
}
