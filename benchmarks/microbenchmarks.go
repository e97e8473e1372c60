package benchmarks

import (
	"github.com/sarchlab/rv64sim/emu"
	"github.com/sarchlab/rv64sim/insts"
)

// Register names used by the microprograms.
const (
	ra = 1
	t0 = 5
	t1 = 6
	t2 = 7
	a0 = 10
	a1 = 11
	a2 = 12
	a3 = 13
	a4 = 14
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// leaves its result in a0 (x10).
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchTaken(),
		loopSum(),
		multiplyDivide(),
		matrixOperations(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: a loop, a load/compute/store kernel and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSum(),
		matrixOperations(),
		branchTaken(),
	}
}

// 1. Arithmetic Sequential - independent ADDIs across five registers
func arithmeticSequential() Benchmark {
	instrs := make([]uint32, 0, 20)
	for i := 0; i < 4; i++ {
		for _, r := range []uint8{a0, a1, a2, a3, a4} {
			instrs = append(instrs, insts.EncodeADDI(r, r, 1))
		}
	}

	return Benchmark{
		Name:           "arithmetic_sequential",
		Description:    "20 independent ADDI operations - measures ALU throughput",
		Program:        insts.Program(instrs...),
		ExpectedResult: 4,
	}
}

// 2. Dependency Chain - every instruction reads the previous result
func dependencyChain() Benchmark {
	return Benchmark{
		Name:           "dependency_chain",
		Description:    "20 dependent ADDIs (a0 = a0 + 1)",
		Program:        buildDependencyChain(20),
		ExpectedResult: 20,
	}
}

func buildDependencyChain(n int) []byte {
	instrs := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		instrs = append(instrs, insts.EncodeADDI(a0, a0, 1))
	}
	return insts.Program(instrs...)
}

// 3. Memory Sequential - store/load pairs to consecutive doublewords
func memorySequential() Benchmark {
	instrs := make([]uint32, 0, 20)
	for i := int32(0); i < 10; i++ {
		instrs = append(instrs,
			insts.EncodeSD(t0, a0, i*8),
			insts.EncodeLD(a0, t0, i*8),
		)
	}

	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 SD/LD pairs to sequential addresses",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(t0, 0x8000) // base address
			regFile.WriteReg(a0, 42)     // value to store/load
		},
		Program:        insts.Program(instrs...),
		ExpectedResult: 42,
	}
}

// 4. Function Calls - JAL/JALR pairs
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "5 calls to a leaf function (JAL + JALR pairs)",
		Program: insts.Program(
			// main: call add_one 5 times
			insts.EncodeJAL(ra, 24),
			insts.EncodeJAL(ra, 20),
			insts.EncodeJAL(ra, 16),
			insts.EncodeJAL(ra, 12),
			insts.EncodeJAL(ra, 8),
			insts.EncodeJAL(0, 12), // skip past add_one to the end

			// add_one (at offset 24)
			insts.EncodeADDI(a0, a0, 1),
			insts.EncodeJALR(0, ra, 0),
		),
		ExpectedResult: 5,
	}
}

// 5. Branch Taken - unconditional forward jumps
func branchTaken() Benchmark {
	instrs := make([]uint32, 0, 15)
	for i := 0; i < 5; i++ {
		instrs = append(instrs,
			insts.EncodeJAL(0, 8),        // skip next instruction
			insts.EncodeADDI(a1, a1, 99), // skipped
			insts.EncodeADDI(a0, a0, 1),
		)
	}

	return Benchmark{
		Name:           "branch_taken",
		Description:    "5 unconditional forward jumps",
		Program:        insts.Program(instrs...),
		ExpectedResult: 5,
	}
}

// 6. Loop Sum - for i := 0; i < 100; i++ { sum += i }
func loopSum() Benchmark {
	return Benchmark{
		Name:        "loop_sum",
		Description: "100-iteration counted loop with a backward BLT",
		Program: insts.Program(
			insts.EncodeADDI(t0, 0, 0),   // i = 0
			insts.EncodeADDI(t1, 0, 100), // n = 100
			insts.EncodeADDI(a0, 0, 0),   // sum = 0
			insts.EncodeADD(a0, a0, t0),  // loop: sum += i
			insts.EncodeADDI(t0, t0, 1),  // i++
			insts.EncodeBranch(insts.Funct3BLT, t0, t1, -8),
		),
		ExpectedResult: 4950,
	}
}

// 7. Multiply/Divide - M extension, including the divide-by-zero result
func multiplyDivide() Benchmark {
	return Benchmark{
		Name:        "multiply_divide",
		Description: "MUL, DIV, REM and a division by zero",
		Program: insts.Program(
			insts.EncodeADDI(a1, 0, 1234),
			insts.EncodeADDI(a2, 0, 567),
			insts.EncodeMUL(t0, a1, a2), // 699678
			insts.EncodeADDI(a3, 0, 100),
			insts.EncodeDIV(t1, t0, a3), // 6996
			insts.EncodeREM(t2, t0, a3), // 78
			insts.EncodeDIV(a4, t0, 0),  // -1
			insts.EncodeADD(a0, t1, t2),
			insts.EncodeADD(a0, a0, a4), // 6996 + 78 - 1
		),
		ExpectedResult: 7073,
	}
}

// 8. Matrix Operations - load/compute/store over three arrays
func matrixOperations() Benchmark {
	instrs := make([]uint32, 0, 24)

	// Load A into x20-x23 and B into x24-x27
	for i := uint8(0); i < 4; i++ {
		instrs = append(instrs, insts.EncodeLD(20+i, a1, int32(i)*8))
	}
	for i := uint8(0); i < 4; i++ {
		instrs = append(instrs, insts.EncodeLD(24+i, a2, int32(i)*8))
	}
	// C[i] = A[i] + B[i], stored and accumulated into a0
	for i := uint8(0); i < 4; i++ {
		instrs = append(instrs,
			insts.EncodeADD(28, 20+i, 24+i),
			insts.EncodeSD(a3, 28, int32(i)*8),
			insts.EncodeADD(a0, a0, 28),
		)
	}

	return Benchmark{
		Name:        "matrix_operations",
		Description: "C[i] = A[i] + B[i] over 4 elements - load/compute/store pattern",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			// A at 0x8000: [10, 20, 30, 40]
			regFile.WriteReg(a1, 0x8000)
			// B at 0x8100: [1, 2, 3, 4]
			regFile.WriteReg(a2, 0x8100)
			for i := uint64(0); i < 4; i++ {
				memory.Store64(0x8000+i*8, (i+1)*10)
				memory.Store64(0x8100+i*8, i+1)
			}
			// C at 0x8200
			regFile.WriteReg(a3, 0x8200)
		},
		Program:        insts.Program(instrs...),
		ExpectedResult: 110,
	}
}
