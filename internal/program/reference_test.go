package program

import (
	"testing"

	"github.com/jasonKoogler/cpu-sim/internal/decoder"
)

func TestLoadReferenceVectorAddAssemblesExpectedWordCount(t *testing.T) {
	p, err := LoadReferenceVectorAdd(256, 256, 1280, 2304)
	if err != nil {
		t.Fatalf("LoadReferenceVectorAdd() error = %v", err)
	}

	if len(p.Words) != 18 {
		t.Fatalf("len(Words) = %d, want 18", len(p.Words))
	}

	if p.Layout.Count != 256 || p.Layout.BaseA != 256 || p.Layout.BaseB != 1280 || p.Layout.BaseC != 2304 {
		t.Errorf("Layout = %+v, unexpected", p.Layout)
	}
}

func TestLoadReferenceVectorAddEndsWithTerminator(t *testing.T) {
	p, err := LoadReferenceVectorAdd(4, 0, 16, 32)
	if err != nil {
		t.Fatalf("LoadReferenceVectorAdd() error = %v", err)
	}

	last := decoder.Decode(p.Words[len(p.Words)-1])
	if last.Opcode != decoder.OpJAL {
		t.Errorf("last instruction opcode = %#x, want J (%#x)", last.Opcode, decoder.OpJAL)
	}
}

func TestLoadReferenceVectorAddLoopBranchesBackward(t *testing.T) {
	p, err := LoadReferenceVectorAdd(4, 0, 16, 32)
	if err != nil {
		t.Fatalf("LoadReferenceVectorAdd() error = %v", err)
	}

	var branchIdx = -1
	for i, w := range p.Words {
		if decoder.Decode(w).Opcode == decoder.OpBNEZ {
			branchIdx = i
			break
		}
	}
	if branchIdx == -1 {
		t.Fatal("expected a BNEZ instruction in the reference program")
	}

	inst := decoder.Decode(p.Words[branchIdx])
	if inst.Imm >= 0 {
		t.Errorf("BNEZ imm = %d, want a negative (backward) offset", inst.Imm)
	}
}

func TestLoadReferenceVectorAddRebuildsAddressesViaLuiAddi(t *testing.T) {
	// A base large enough to need a nonzero LUI upper-immediate.
	p, err := LoadReferenceVectorAdd(8, 0x4000, 0x5000, 0x6000)
	if err != nil {
		t.Fatalf("LoadReferenceVectorAdd() error = %v", err)
	}

	lui := decoder.Decode(p.Words[0])
	addi := decoder.Decode(p.Words[1])

	if lui.Opcode != decoder.OpLUI || addi.Opcode != decoder.OpADDI {
		t.Fatalf("expected first two words to be LUI, ADDI; got %#x, %#x", lui.Opcode, addi.Opcode)
	}

	rebuilt := uint32(lui.Imm) + uint32(addi.Imm)
	if rebuilt != 0x4000 {
		t.Errorf("lui.Imm + addi.Imm = %#x, want %#x", rebuilt, 0x4000)
	}
}
