package emu

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv64sim/insts"
)

// contextCheckInterval is how many instructions RunContext executes
// between cancellation checks.
const contextCheckInterval = 1024

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// PC is the address the instruction was fetched from.
	PC uint64

	// Inst is the decoded instruction. It is the zero value when the fetch
	// itself failed.
	Inst insts.Instruction

	// Err is set if the instruction could not be executed. In that case no
	// register, PC, memory or counter state was changed.
	Err error
}

// Emulator executes RV64IM instructions functionally, one hart per
// instance. It owns the register file and counters; memory and the machine
// context are supplied or defaulted at construction.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	machine *Machine
	decoder *insts.Decoder

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit
	csrFile    *CSRFile

	decodeCache *DecodeCache
	logger      logrus.FieldLogger

	entryPoint uint64
	memorySize uint64

	// Execution state
	cycles          uint64
	instret         uint64
	maxInstructions uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMemory sets the bus the emulator fetches from and accesses.
func WithMemory(m *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = m
	}
}

// WithMemorySize sets the size of the bus allocated when no memory is
// supplied with WithMemory.
func WithMemorySize(size uint64) EmulatorOption {
	return func(e *Emulator) {
		e.memorySize = size
	}
}

// WithMachine sets the machine context read by the time CSR.
func WithMachine(m *Machine) EmulatorOption {
	return func(e *Emulator) {
		e.machine = m
	}
}

// WithEntryPoint sets the initial program counter.
func WithEntryPoint(pc uint64) EmulatorOption {
	return func(e *Emulator) {
		e.entryPoint = pc
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithLogger sets the logger used for instruction traces and execution
// errors.
func WithLogger(l logrus.FieldLogger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = l
	}
}

// WithDecodeCache enables decoded-instruction caching.
func WithDecodeCache(c *DecodeCache) EmulatorOption {
	return func(e *Emulator) {
		e.decodeCache = c
	}
}

// NewEmulator creates a new RV64 emulator. Registers and counters start at
// zero and PC at the entry point.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile:    &RegFile{},
		decoder:    insts.NewDecoder(),
		logger:     logrus.StandardLogger(),
		memorySize: DefaultMemorySize,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.memory == nil {
		e.memory = NewMemory(e.memorySize)
	}
	if e.machine == nil {
		e.machine = NewMachine()
	}

	e.regFile.PC = e.entryPoint

	if e.decodeCache != nil {
		e.memory.OnWrite(e.decodeCache.Invalidate)
	}

	// Create execution units
	e.alu = NewALU(e.regFile)
	e.lsu = NewLoadStoreUnit(e.regFile, e.memory)
	e.branchUnit = NewBranchUnit(e.regFile)
	e.csrFile = NewCSRFile(e.machine, e)

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// Machine returns the machine context.
func (e *Emulator) Machine() *Machine {
	return e.machine
}

// DecodeCache returns the decode cache, or nil if none is configured.
func (e *Emulator) DecodeCache() *DecodeCache {
	return e.decodeCache
}

// Cycles returns the cycle counter.
func (e *Emulator) Cycles() uint64 {
	return e.cycles
}

// InstructionsRetired returns the retired-instruction counter.
func (e *Emulator) InstructionsRetired() uint64 {
	return e.instret
}

// LoadProgram copies program into memory at entry and points PC at it.
func (e *Emulator) LoadProgram(entry uint64, program []byte) error {
	if !e.memory.InBounds(entry, uint64(len(program))) {
		return &AccessError{Addr: entry, Width: uint64(len(program)), Size: e.memory.Size()}
	}
	e.memory.StoreBytes(entry, program)
	e.regFile.PC = entry
	return nil
}

// SetPC sets the program counter.
func (e *Emulator) SetPC(pc uint64) {
	e.regFile.PC = pc
}

// Reset clears registers and counters and returns PC to the entry point.
// Memory contents are kept.
func (e *Emulator) Reset() {
	*e.regFile = RegFile{PC: e.entryPoint}
	e.cycles = 0
	e.instret = 0
	if e.decodeCache != nil {
		e.decodeCache.Reset()
	}
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	pc := e.regFile.PC

	// Check instruction limit before executing
	if e.maxInstructions > 0 && e.instret >= e.maxInstructions {
		return StepResult{PC: pc, Err: ErrMaxInstructions}
	}

	// 1. Fetch
	if !e.memory.InBounds(pc, insts.InstructionSize) {
		err := &AccessError{Addr: pc, Width: insts.InstructionSize, Size: e.memory.Size()}
		e.logAccessError("fetch", pc, err)
		return StepResult{PC: pc, Err: err}
	}

	// 2. Decode
	inst := e.fetch(pc)

	if levelEnabled(e.logger, logrus.TraceLevel) {
		e.logger.WithFields(logrus.Fields{
			"hart": e.machine.HartID(),
			"pc":   pc,
			"word": uint32(inst.Raw),
			"inst": insts.Disassemble(inst),
		}).Trace("step")
	}

	// 3. Execute
	if err := e.execute(pc, inst); err != nil {
		return StepResult{PC: pc, Inst: inst, Err: err}
	}

	e.cycles++
	e.instret++

	return StepResult{PC: pc, Inst: inst}
}

// Run executes instructions until an error occurs. With no instruction
// limit it only returns on an undefined instruction or a bad access.
func (e *Emulator) Run() error {
	for {
		if result := e.Step(); result.Err != nil {
			return result.Err
		}
	}
}

// RunContext is Run with cancellation. ctx is checked between
// instructions; an instruction is never interrupted.
func (e *Emulator) RunContext(ctx context.Context) error {
	for n := 0; ; n++ {
		if n%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if result := e.Step(); result.Err != nil {
			return result.Err
		}
	}
}

func (e *Emulator) fetch(pc uint64) insts.Instruction {
	if e.decodeCache != nil {
		return e.decodeCache.Fetch(e.memory, pc)
	}
	return e.decoder.Decode(int32(uint32(e.memory.Load32(pc))))
}

// execute dispatches on (opcode, funct3, funct7) and applies the
// instruction. On error nothing has been modified.
func (e *Emulator) execute(pc uint64, inst insts.Instruction) error {
	size := uint64(inst.Size)

	switch inst.Opcode {
	case insts.OpcodeOpImm:
		if !e.executeOpImm(inst) {
			return e.undefined(pc, inst)
		}
	case insts.OpcodeOpImm32:
		if !e.executeOpImm32(inst) {
			return e.undefined(pc, inst)
		}
	case insts.OpcodeLUI:
		e.regFile.WriteReg(inst.Rd, inst.ImmUUnsigned())
	case insts.OpcodeAUIPC:
		e.regFile.WriteReg(inst.Rd, pc+inst.ImmUUnsigned())
	case insts.OpcodeOp:
		if !e.executeOp(inst) {
			return e.undefined(pc, inst)
		}
	case insts.OpcodeOp32:
		if !e.executeOp32(inst) {
			return e.undefined(pc, inst)
		}
	case insts.OpcodeJAL:
		e.branchUnit.JAL(inst.Rd, inst.ImmJ(), size)
		return nil // PC already updated
	case insts.OpcodeJALR:
		if inst.Funct3 != 0 {
			return e.undefined(pc, inst)
		}
		e.branchUnit.JALR(inst.Rd, inst.Rs1, inst.ImmI(), size)
		return nil // PC already updated
	case insts.OpcodeBranch:
		if !e.branchUnit.Branch(inst.Funct3, inst.Rs1, inst.Rs2, inst.ImmB(), size) {
			return e.undefined(pc, inst)
		}
		return nil // PC already updated
	case insts.OpcodeLoad:
		if err := e.executeLoad(pc, inst); err != nil {
			return err
		}
	case insts.OpcodeStore:
		if err := e.executeStore(pc, inst); err != nil {
			return err
		}
	case insts.OpcodeMiscMem:
		switch inst.Funct3 {
		case insts.Funct3FENCE:
		case insts.Funct3FENCEI:
			if e.decodeCache != nil {
				e.decodeCache.Flush()
			}
		default:
			return e.undefined(pc, inst)
		}
	case insts.OpcodeSystem:
		if err := e.executeSystem(pc, inst); err != nil {
			return err
		}
	default:
		return e.undefined(pc, inst)
	}

	// Advance PC (for non-branch instructions)
	e.regFile.PC = pc + size

	return nil
}

// executeOpImm executes the OP-IMM group.
func (e *Emulator) executeOpImm(inst insts.Instruction) bool {
	imm := inst.ImmIUnsigned()

	switch inst.Funct3 {
	case insts.Funct3ADD:
		e.alu.ADD(inst.Rd, inst.Rs1, imm)
	case insts.Funct3SLT:
		e.alu.SLT(inst.Rd, inst.Rs1, imm)
	case insts.Funct3SLTU:
		e.alu.SLTU(inst.Rd, inst.Rs1, imm)
	case insts.Funct3XOR:
		e.alu.XOR(inst.Rd, inst.Rs1, imm)
	case insts.Funct3OR:
		e.alu.OR(inst.Rd, inst.Rs1, imm)
	case insts.Funct3AND:
		e.alu.AND(inst.Rd, inst.Rs1, imm)
	case insts.Funct3SLL:
		if inst.Funct6() != insts.Funct6Base {
			return false
		}
		e.alu.SLL(inst.Rd, inst.Rs1, uint64(inst.Shamt))
	case insts.Funct3SRL:
		switch inst.Funct6() {
		case insts.Funct6Base:
			e.alu.SRL(inst.Rd, inst.Rs1, uint64(inst.Shamt))
		case insts.Funct6Alt:
			e.alu.SRA(inst.Rd, inst.Rs1, uint64(inst.Shamt))
		default:
			return false
		}
	default:
		return false
	}
	return true
}

// executeOpImm32 executes the OP-IMM-32 group. Results are sign-extended
// from 32 bits.
func (e *Emulator) executeOpImm32(inst insts.Instruction) bool {
	switch {
	case inst.Funct3 == insts.Funct3ADD:
		e.alu.ADDW(inst.Rd, inst.Rs1, inst.ImmIUnsigned())
	case inst.Funct3 == insts.Funct3SLL && inst.Funct7 == insts.Funct7Base:
		e.alu.SLLW(inst.Rd, inst.Rs1, uint64(inst.Shamtw))
	case inst.Funct3 == insts.Funct3SRL && inst.Funct7 == insts.Funct7Base:
		e.alu.SRLW(inst.Rd, inst.Rs1, uint64(inst.Shamtw))
	case inst.Funct3 == insts.Funct3SRL && inst.Funct7 == insts.Funct7Alt:
		e.alu.SRAW(inst.Rd, inst.Rs1, uint64(inst.Shamtw))
	default:
		return false
	}
	return true
}

// executeOp executes the OP group, including the M extension. Shift
// amounts come from the low 6 bits of rs2's value.
func (e *Emulator) executeOp(inst insts.Instruction) bool {
	rd, rs1, rs2 := inst.Rd, inst.Rs1, inst.Rs2
	op2 := e.regFile.ReadReg(rs2)

	switch inst.Funct7 {
	case insts.Funct7Base:
		switch inst.Funct3 {
		case insts.Funct3ADD:
			e.alu.ADD(rd, rs1, op2)
		case insts.Funct3SLL:
			e.alu.SLL(rd, rs1, op2)
		case insts.Funct3SLT:
			e.alu.SLT(rd, rs1, op2)
		case insts.Funct3SLTU:
			e.alu.SLTU(rd, rs1, op2)
		case insts.Funct3XOR:
			e.alu.XOR(rd, rs1, op2)
		case insts.Funct3SRL:
			e.alu.SRL(rd, rs1, op2)
		case insts.Funct3OR:
			e.alu.OR(rd, rs1, op2)
		case insts.Funct3AND:
			e.alu.AND(rd, rs1, op2)
		}
	case insts.Funct7Alt:
		switch inst.Funct3 {
		case insts.Funct3ADD:
			e.alu.SUB(rd, rs1, op2)
		case insts.Funct3SRL:
			e.alu.SRA(rd, rs1, op2)
		default:
			return false
		}
	case insts.Funct7MulDiv:
		switch inst.Funct3 {
		case insts.Funct3MUL:
			e.alu.MUL(rd, rs1, rs2)
		case insts.Funct3MULH:
			e.alu.MULH(rd, rs1, rs2)
		case insts.Funct3MULHSU:
			e.alu.MULHSU(rd, rs1, rs2)
		case insts.Funct3MULHU:
			e.alu.MULHU(rd, rs1, rs2)
		case insts.Funct3DIV:
			e.alu.DIV(rd, rs1, rs2)
		case insts.Funct3DIVU:
			e.alu.DIVU(rd, rs1, rs2)
		case insts.Funct3REM:
			e.alu.REM(rd, rs1, rs2)
		case insts.Funct3REMU:
			e.alu.REMU(rd, rs1, rs2)
		}
	default:
		return false
	}
	return true
}

// executeOp32 executes the OP-32 group. Shift amounts come from the low 5
// bits of rs2's value and every result is sign-extended from 32 bits.
func (e *Emulator) executeOp32(inst insts.Instruction) bool {
	rd, rs1, rs2 := inst.Rd, inst.Rs1, inst.Rs2
	op2 := e.regFile.ReadReg(rs2)

	switch inst.Funct7 {
	case insts.Funct7Base:
		switch inst.Funct3 {
		case insts.Funct3ADD:
			e.alu.ADDW(rd, rs1, op2)
		case insts.Funct3SLL:
			e.alu.SLLW(rd, rs1, op2)
		case insts.Funct3SRL:
			e.alu.SRLW(rd, rs1, op2)
		default:
			return false
		}
	case insts.Funct7Alt:
		switch inst.Funct3 {
		case insts.Funct3ADD:
			e.alu.SUBW(rd, rs1, op2)
		case insts.Funct3SRL:
			e.alu.SRAW(rd, rs1, op2)
		default:
			return false
		}
	case insts.Funct7MulDiv:
		switch inst.Funct3 {
		case insts.Funct3MUL:
			e.alu.MULW(rd, rs1, rs2)
		case insts.Funct3DIV:
			e.alu.DIVW(rd, rs1, rs2)
		case insts.Funct3DIVU:
			e.alu.DIVUW(rd, rs1, rs2)
		case insts.Funct3REM:
			e.alu.REMW(rd, rs1, rs2)
		case insts.Funct3REMU:
			e.alu.REMUW(rd, rs1, rs2)
		default:
			return false
		}
	default:
		return false
	}
	return true
}

// executeLoad executes a load. The effective address is rs1 + I-immediate.
func (e *Emulator) executeLoad(pc uint64, inst insts.Instruction) error {
	width, _, ok := LoadWidth(inst.Funct3)
	if !ok {
		return e.undefined(pc, inst)
	}

	addr := e.lsu.EffectiveAddress(inst.Rs1, inst.ImmI())
	if !e.memory.InBounds(addr, width) {
		err := &AccessError{Addr: addr, Width: width, Size: e.memory.Size()}
		e.logAccessError("load", pc, err)
		return err
	}

	e.lsu.Load(inst.Funct3, inst.Rd, addr)
	return nil
}

// executeStore executes a store. The effective address is rs1 + S-immediate.
func (e *Emulator) executeStore(pc uint64, inst insts.Instruction) error {
	width, ok := StoreWidth(inst.Funct3)
	if !ok {
		return e.undefined(pc, inst)
	}

	addr := e.lsu.EffectiveAddress(inst.Rs1, inst.ImmS())
	if !e.memory.InBounds(addr, width) {
		err := &AccessError{Addr: addr, Width: width, Size: e.memory.Size()}
		e.logAccessError("store", pc, err)
		return err
	}

	e.lsu.Store(inst.Rs2, addr, width)
	return nil
}

// executeSystem executes ECALL, EBREAK and the CSR instructions. ECALL and
// EBREAK have no effect beyond advancing PC.
func (e *Emulator) executeSystem(pc uint64, inst insts.Instruction) error {
	if inst.Funct3 == insts.Funct3PRIV {
		if inst.Funct7 != 0 || inst.Rs1 != 0 || inst.Rd != 0 {
			return e.undefined(pc, inst)
		}
		switch inst.Rs2 {
		case insts.ImmECALL, insts.ImmEBREAK:
			return nil
		}
		return e.undefined(pc, inst)
	}

	operand := e.regFile.ReadReg(inst.Rs1)
	if inst.Funct3 >= insts.Funct3CSRRWI {
		operand = uint64(inst.Rs1)
	}

	old, ok := e.csrFile.Access(inst.Funct3, inst.CSR(), operand)
	if !ok {
		if insts.Mnemonic(inst) == insts.Unknown {
			return e.undefined(pc, inst)
		}
		err := &UndefinedInstructionError{
			PC:     pc,
			Word:   uint32(inst.Raw),
			Opcode: inst.Opcode,
			Funct3: inst.Funct3,
			Funct7: inst.Funct7,
			CSR:    inst.CSR(),
			HasCSR: true,
		}
		e.logUndefined(err)
		return err
	}

	e.regFile.WriteReg(inst.Rd, old)
	return nil
}

func (e *Emulator) undefined(pc uint64, inst insts.Instruction) error {
	err := &UndefinedInstructionError{
		PC:     pc,
		Word:   uint32(inst.Raw),
		Opcode: inst.Opcode,
		Funct3: inst.Funct3,
		Funct7: inst.Funct7,
	}
	e.logUndefined(err)
	return err
}

func (e *Emulator) logUndefined(err *UndefinedInstructionError) {
	fields := logrus.Fields{
		"hart":   e.machine.HartID(),
		"pc":     err.PC,
		"word":   err.Word,
		"opcode": err.Opcode,
		"funct3": err.Funct3,
		"funct7": err.Funct7,
	}
	if err.HasCSR {
		fields["csr"] = err.CSR
	}
	e.logger.WithFields(fields).Error("undefined instruction")
}

func (e *Emulator) logAccessError(kind string, pc uint64, err *AccessError) {
	e.logger.WithFields(logrus.Fields{
		"hart":  e.machine.HartID(),
		"pc":    pc,
		"kind":  kind,
		"addr":  err.Addr,
		"width": err.Width,
		"size":  err.Size,
	}).Error("memory access out of bounds")
}

type levelChecker interface {
	IsLevelEnabled(level logrus.Level) bool
}

// levelEnabled reports whether l would emit at level. Loggers that cannot
// say are treated as disabled so the hot loop skips building trace fields.
func levelEnabled(l logrus.FieldLogger, level logrus.Level) bool {
	switch v := l.(type) {
	case *logrus.Entry:
		return v.Logger.IsLevelEnabled(level)
	case levelChecker:
		return v.IsLevelEnabled(level)
	}
	return false
}
