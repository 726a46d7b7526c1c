package program

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// referenceScript describes the canonical vector-add test program (§8
// scenario S3) as data rather than as hard-coded Go instruction structs: a
// small embedded Lua script defines the instruction list. The memory layout
// is built in Go from LoadReferenceVectorAdd's arguments, and the driver
// seeds A[i] = i+1, B[i] = 2*i for i in [0, count); the loop body computes
// C[i] = A[i] + B[i] using FLW/FADD.S/FSW and BNEZ for loop control.
const referenceScript = `
program = {
  -- x1 = base address of A, x2 = base address of B, x3 = base address of C
  { op = "LUI",  rd = 1, imm = upperA },
  { op = "ADDI", rd = 1, rs1 = 1, imm = lowerA },
  { op = "LUI",  rd = 2, imm = upperB },
  { op = "ADDI", rd = 2, rs1 = 2, imm = lowerB },
  { op = "LUI",  rd = 3, imm = upperC },
  { op = "ADDI", rd = 3, rs1 = 3, imm = lowerC },
  -- x4 = loop counter, counts down from count to 0
  { op = "LUI",  rd = 4, imm = 0 },
  { op = "ADDI", rd = 4, rs1 = 4, imm = count },

  -- loop body: 8 instructions from the first FLW up to (not including) BNEZ
  { op = "FLW",  rd = 1, rs1 = 1, imm = 0 },   -- f1 = A[i]
  { op = "FLW",  rd = 2, rs1 = 2, imm = 0 },   -- f2 = B[i]
  { op = "FADD", rd = 3, rs1 = 1, rs2 = 2 },   -- f3 = f1 + f2
  { op = "FSW",  rs1 = 3, rs2 = 3, imm = 0 },  -- C[i] = f3
  { op = "ADDI", rd = 1, rs1 = 1, imm = 4 },   -- advance A pointer
  { op = "ADDI", rd = 2, rs1 = 2, imm = 4 },   -- advance B pointer
  { op = "ADDI", rd = 3, rs1 = 3, imm = 4 },   -- advance C pointer
  { op = "ADDI", rd = 4, rs1 = 4, imm = -1 },  -- decrement counter
  { op = "BNEZ", rs1 = 4, imm = -32 },         -- branch back to the loop body's first FLW

  { op = "J" },
}
`

// DataLayout describes the input/output arrays the driver must seed before
// ticking the reference program.
type DataLayout struct {
	Count int
	BaseA uint32
	BaseB uint32
	BaseC uint32
}

// Instruction is one entry of an assembled program: an encoded word plus the
// mnemonic it came from, useful for tracing.
type Instruction struct {
	Word uint32
	Op   string
}

// ReferenceProgram holds the assembled vector-add test program alongside its
// memory layout.
type ReferenceProgram struct {
	Words  []uint32
	Layout DataLayout
}

// LoadReferenceVectorAdd runs the embedded Lua description for the given
// element count and memory layout, and assembles each instruction into its
// 32-bit encoding via the package's encoders.
func LoadReferenceVectorAdd(count int, baseA, baseB, baseC uint32) (*ReferenceProgram, error) {
	L := lua.NewState()
	defer L.Close()

	upperA, lowerA := splitAddress(baseA)
	upperB, lowerB := splitAddress(baseB)
	upperC, lowerC := splitAddress(baseC)

	L.SetGlobal("count", lua.LNumber(count))
	L.SetGlobal("upperA", lua.LNumber(upperA))
	L.SetGlobal("lowerA", lua.LNumber(lowerA))
	L.SetGlobal("upperB", lua.LNumber(upperB))
	L.SetGlobal("lowerB", lua.LNumber(lowerB))
	L.SetGlobal("upperC", lua.LNumber(upperC))
	L.SetGlobal("lowerC", lua.LNumber(lowerC))

	if err := L.DoString(referenceScript); err != nil {
		return nil, fmt.Errorf("failed to evaluate reference program script: %w", err)
	}

	tbl, ok := L.GetGlobal("program").(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("reference program script did not define a `program` table")
	}

	words := make([]uint32, 0, tbl.Len())
	var assembleErr error
	tbl.ForEach(func(_, entry lua.LValue) {
		if assembleErr != nil {
			return
		}
		row, ok := entry.(*lua.LTable)
		if !ok {
			assembleErr = fmt.Errorf("program entry is not a table: %v", entry)
			return
		}
		word, err := assembleInstruction(row)
		if err != nil {
			assembleErr = err
			return
		}
		words = append(words, word)
	})
	if assembleErr != nil {
		return nil, assembleErr
	}

	return &ReferenceProgram{
		Words: words,
		Layout: DataLayout{
			Count: count,
			BaseA: baseA,
			BaseB: baseB,
			BaseC: baseC,
		},
	}, nil
}

func assembleInstruction(row *lua.LTable) (uint32, error) {
	op := row.RawGetString("op").String()
	rd := luaFieldU8(row, "rd")
	rs1 := luaFieldU8(row, "rs1")
	rs2 := luaFieldU8(row, "rs2")
	imm := luaFieldI32(row, "imm")

	switch op {
	case "LUI":
		return EncodeLUI(rd, uint32(imm)), nil
	case "ADDI":
		return EncodeADDI(rd, rs1, imm), nil
	case "FLW":
		return EncodeFLW(rd, rs1, imm), nil
	case "FSW":
		return EncodeFSW(rs1, rs2, imm), nil
	case "FADD":
		return EncodeFADD(rd, rs1, rs2), nil
	case "BNEZ":
		return EncodeBNEZ(rs1, imm), nil
	case "J":
		return EncodeJ(), nil
	default:
		return 0, fmt.Errorf("unknown mnemonic in reference program: %q", op)
	}
}

func luaFieldU8(row *lua.LTable, name string) uint8 {
	v := row.RawGetString(name)
	if n, ok := v.(lua.LNumber); ok {
		return uint8(int64(n))
	}
	return 0
}

// splitAddress materializes addr as a RISC-V-style lui+addi pair: upper is
// the 20-bit value to pass to LUI, lower is the signed 12-bit offset to add
// via ADDI such that (upper<<12) + lower == addr.
func splitAddress(addr uint32) (upper uint32, lower int32) {
	upper = (addr + 0x800) >> 12
	lower = int32(addr) - int32(upper<<12)
	return upper, lower
}

func luaFieldI32(row *lua.LTable, name string) int32 {
	v := row.RawGetString(name)
	if n, ok := v.(lua.LNumber); ok {
		return int32(n)
	}
	return 0
}
