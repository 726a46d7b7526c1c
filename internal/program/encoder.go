// Package program assembles 32-bit instruction words for the supported ISA
// subset (§6) and loads the reference vector-add test program.
package program

import "github.com/jasonKoogler/cpu-sim/internal/decoder"

// EncodeLUI builds a LUI instruction. imm20 is the 20-bit upper-immediate
// value as a RISC-V assembler would take it (pre-shift); the emitted word
// places it directly into bits 31..12, matching decoder.Decode's
// `word & 0xFFFFF000` extraction.
func EncodeLUI(rd uint8, imm20 uint32) uint32 {
	return uint32(decoder.OpLUI) | uint32(rd&0x1F)<<7 | (imm20<<12)&0xFFFFF000
}

// EncodeADDI builds an ADDI instruction (I-type).
func EncodeADDI(rd, rs1 uint8, imm12 int32) uint32 {
	field := uint32(imm12) & 0xFFF
	return uint32(decoder.OpADDI) | uint32(rd&0x1F)<<7 | uint32(rs1&0x1F)<<15 | field<<20
}

// EncodeFLW builds an FLW instruction (I-type, float destination).
func EncodeFLW(frd, rs1 uint8, imm12 int32) uint32 {
	field := uint32(imm12) & 0xFFF
	return uint32(decoder.OpFLW) | uint32(frd&0x1F)<<7 | uint32(rs1&0x1F)<<15 | field<<20
}

// EncodeFSW builds an FSW instruction (S-type, float source).
func EncodeFSW(rs1, frs2 uint8, imm12 int32) uint32 {
	field := uint32(imm12) & 0xFFF
	low5 := field & 0x1F
	high7 := (field >> 5) & 0x7F
	return uint32(decoder.OpFSW) | low5<<7 | uint32(rs1&0x1F)<<15 | uint32(frs2&0x1F)<<20 | high7<<25
}

// EncodeBNEZ builds a BNEZ instruction (B-type). imm is the signed branch
// offset; its low bit is conventionally zero (half-word aligned), matching
// the decoder's 13-bit field reconstruction.
func EncodeBNEZ(rs1 uint8, imm int32) uint32 {
	field := uint32(imm) & 0x1FFF
	b12 := (field >> 12) & 0x1
	b11 := (field >> 11) & 0x1
	b10_5 := (field >> 5) & 0x3F
	b4_1 := (field >> 1) & 0xF

	return uint32(decoder.OpBNEZ) |
		b11<<7 |
		b4_1<<8 |
		uint32(rs1&0x1F)<<15 |
		b10_5<<25 |
		b12<<31
}

// EncodeFADD builds an FADD.S instruction (R-type, funct7 == 0).
func EncodeFADD(frd, frs1, frs2 uint8) uint32 {
	return uint32(decoder.OpFADD) |
		uint32(frd&0x1F)<<7 |
		uint32(frs1&0x1F)<<15 |
		uint32(frs2&0x1F)<<20 |
		uint32(decoder.Funct7Fadd)<<25
}

// EncodeJ builds the unconditional terminator instruction used to mark the
// end of the supported program (§6); its immediate is not decoded.
func EncodeJ() uint32 {
	return uint32(decoder.OpJAL)
}
