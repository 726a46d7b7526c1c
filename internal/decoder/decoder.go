// Package decoder turns 32-bit instruction words into structured records.
package decoder

// Opcode identifies the supported instruction classes (§6 of the design doc).
const (
	OpLUI    uint8 = 0x37
	OpFLW    uint8 = 0x07
	OpADDI   uint8 = 0x13
	OpFSW    uint8 = 0x27
	OpBNEZ   uint8 = 0x63
	OpJAL    uint8 = 0x6F
	OpFADD   uint8 = 0x53
	Funct7Fadd uint8 = 0x00
)

// Instruction is an immutable decoded instruction record.
type Instruction struct {
	Raw    uint32
	Opcode uint8
	Rd     uint8
	Rs1    uint8
	Rs2    uint8
	Funct3 uint8
	Funct7 uint8
	Imm    int32
}

// Decode extracts the common fields from word and computes the opcode-specific
// sign-extended immediate.
func Decode(word uint32) Instruction {
	inst := Instruction{
		Raw:    word,
		Opcode: uint8(word & 0x7F),
		Rd:     uint8((word >> 7) & 0x1F),
		Funct3: uint8((word >> 12) & 0x7),
		Rs1:    uint8((word >> 15) & 0x1F),
		Rs2:    uint8((word >> 20) & 0x1F),
		Funct7: uint8((word >> 25) & 0x7F),
	}

	switch inst.Opcode {
	case OpLUI:
		inst.Imm = int32(word & 0xFFFFF000)
	case OpFLW, OpADDI:
		inst.Imm = signExtend(word>>20, 12)
	case OpFSW:
		field := ((word >> 25) << 5) | ((word >> 7) & 0x1F)
		inst.Imm = signExtend(field, 12)
	case OpBNEZ:
		field := ((word >> 31) << 12) |
			(((word >> 7) & 0x1) << 11) |
			(((word >> 25) & 0x3F) << 5) |
			(((word >> 8) & 0xF) << 1)
		inst.Imm = signExtend(field, 13)
	default:
		// JAL and unrecognized opcodes: immediate unspecified for this subset.
	}

	return inst
}

// signExtend treats the low bits bits of value as a two's-complement field
// and sign-extends it to 32 bits.
func signExtend(value uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(value<<shift) >> shift
}
