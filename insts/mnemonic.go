package insts

import "fmt"

// Unknown is the mnemonic reported for encodings with no defined meaning.
const Unknown = "unknown"

var opImmNames = [8]string{"addi", "slli", "slti", "sltiu", "xori", "srli", "ori", "andi"}

var opNames = [8]string{"add", "sll", "slt", "sltu", "xor", "srl", "or", "and"}

var mulDivNames = [8]string{"mul", "mulh", "mulhsu", "mulhu", "div", "divu", "rem", "remu"}

var loadNames = [8]string{"lb", "lh", "lw", "ld", "lbu", "lhu", "lwu", ""}

var storeNames = [8]string{"sb", "sh", "sw", "sd", "", "", "", ""}

var branchNames = [8]string{"beq", "bne", "", "", "blt", "bge", "bltu", "bgeu"}

var csrNames = [8]string{"", "csrrw", "csrrs", "csrrc", "", "csrrwi", "csrrsi", "csrrci"}

// Mnemonic returns the assembler mnemonic of a decoded instruction, or
// Unknown when the opcode/funct combination is not one this simulator
// defines. It agrees with the executor on which encodings are legal.
func Mnemonic(inst Instruction) string {
	f3 := inst.Funct3

	switch inst.Opcode {
	case OpcodeLUI:
		return "lui"
	case OpcodeAUIPC:
		return "auipc"
	case OpcodeJAL:
		return "jal"
	case OpcodeJALR:
		if f3 == 0 {
			return "jalr"
		}
	case OpcodeOpImm:
		switch f3 {
		case Funct3SLL:
			if inst.Funct6() == Funct6Base {
				return "slli"
			}
		case Funct3SRL:
			switch inst.Funct6() {
			case Funct6Base:
				return "srli"
			case Funct6Alt:
				return "srai"
			}
		default:
			return opImmNames[f3]
		}
	case OpcodeOpImm32:
		switch {
		case f3 == Funct3ADD:
			return "addiw"
		case f3 == Funct3SLL && inst.Funct7 == Funct7Base:
			return "slliw"
		case f3 == Funct3SRL && inst.Funct7 == Funct7Base:
			return "srliw"
		case f3 == Funct3SRL && inst.Funct7 == Funct7Alt:
			return "sraiw"
		}
	case OpcodeOp:
		switch inst.Funct7 {
		case Funct7Base:
			return opNames[f3]
		case Funct7Alt:
			switch f3 {
			case Funct3ADD:
				return "sub"
			case Funct3SRL:
				return "sra"
			}
		case Funct7MulDiv:
			return mulDivNames[f3]
		}
	case OpcodeOp32:
		return op32Mnemonic(f3, inst.Funct7)
	case OpcodeLoad:
		return orUnknown(loadNames[f3])
	case OpcodeStore:
		return orUnknown(storeNames[f3])
	case OpcodeBranch:
		return orUnknown(branchNames[f3])
	case OpcodeMiscMem:
		switch f3 {
		case Funct3FENCE:
			return "fence"
		case Funct3FENCEI:
			return "fence.i"
		}
	case OpcodeSystem:
		if f3 != Funct3PRIV {
			return orUnknown(csrNames[f3])
		}
		if inst.Funct7 == 0 && inst.Rs1 == 0 && inst.Rd == 0 {
			switch inst.Rs2 {
			case ImmECALL:
				return "ecall"
			case ImmEBREAK:
				return "ebreak"
			}
		}
	}

	return Unknown
}

func op32Mnemonic(f3, f7 uint8) string {
	switch f7 {
	case Funct7Base:
		switch f3 {
		case Funct3ADD:
			return "addw"
		case Funct3SLL:
			return "sllw"
		case Funct3SRL:
			return "srlw"
		}
	case Funct7Alt:
		switch f3 {
		case Funct3ADD:
			return "subw"
		case Funct3SRL:
			return "sraw"
		}
	case Funct7MulDiv:
		switch f3 {
		case Funct3MUL:
			return "mulw"
		case Funct3DIV:
			return "divw"
		case Funct3DIVU:
			return "divuw"
		case Funct3REM:
			return "remw"
		case Funct3REMU:
			return "remuw"
		}
	}
	return Unknown
}

func orUnknown(name string) string {
	if name == "" {
		return Unknown
	}
	return name
}

// Disassemble renders an instruction in a compact assembler-like form for
// traces and diagnostics. Operands are printed as raw register numbers.
func Disassemble(inst Instruction) string {
	name := Mnemonic(inst)

	switch inst.Opcode {
	case OpcodeLUI, OpcodeAUIPC:
		return fmt.Sprintf("%s x%d, 0x%x", name, inst.Rd, uint32(inst.ImmU())>>12)
	case OpcodeJAL:
		return fmt.Sprintf("%s x%d, %d", name, inst.Rd, inst.ImmJ())
	case OpcodeJALR, OpcodeLoad:
		return fmt.Sprintf("%s x%d, %d(x%d)", name, inst.Rd, inst.ImmI(), inst.Rs1)
	case OpcodeOpImm, OpcodeOpImm32:
		switch inst.Funct3 {
		case Funct3SLL, Funct3SRL:
			return fmt.Sprintf("%s x%d, x%d, %d", name, inst.Rd, inst.Rs1, inst.Shamt)
		}
		return fmt.Sprintf("%s x%d, x%d, %d", name, inst.Rd, inst.Rs1, inst.ImmI())
	case OpcodeOp, OpcodeOp32:
		return fmt.Sprintf("%s x%d, x%d, x%d", name, inst.Rd, inst.Rs1, inst.Rs2)
	case OpcodeStore:
		return fmt.Sprintf("%s x%d, %d(x%d)", name, inst.Rs2, inst.ImmS(), inst.Rs1)
	case OpcodeBranch:
		return fmt.Sprintf("%s x%d, x%d, %d", name, inst.Rs1, inst.Rs2, inst.ImmB())
	case OpcodeSystem:
		if inst.Funct3 >= Funct3CSRRWI {
			return fmt.Sprintf("%s x%d, 0x%03x, %d", name, inst.Rd, inst.CSR(), inst.Rs1)
		}
		if inst.Funct3 != Funct3PRIV {
			return fmt.Sprintf("%s x%d, 0x%03x, x%d", name, inst.Rd, inst.CSR(), inst.Rs1)
		}
	}

	return name
}
