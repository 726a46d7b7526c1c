// Package pipeline implements the 5-stage in-order pipeline state machine:
// fetch, decode, execute, memory, writeback, with hazard interlocks, a
// two-bit branch predictor, timing-only forwarding advice, and the
// exception/reset channel.
package pipeline

import (
	"fmt"

	"github.com/jasonKoogler/cpu-sim/internal/branchpredictor"
	"github.com/jasonKoogler/cpu-sim/internal/cache"
	"github.com/jasonKoogler/cpu-sim/internal/cpustate"
	"github.com/jasonKoogler/cpu-sim/internal/decoder"
	"github.com/jasonKoogler/cpu-sim/internal/forwarding"
	"github.com/jasonKoogler/cpu-sim/internal/ram"
	"github.com/jasonKoogler/cpu-sim/internal/stats"
)

// Stage identifies one of the five latches, used for tracing and reporting.
type Stage int

const (
	IF Stage = iota
	ID
	EX
	MEM
	WB
)

func (s Stage) String() string {
	switch s {
	case IF:
		return "IF"
	case ID:
		return "ID"
	case EX:
		return "EX"
	case MEM:
		return "MEM"
	case WB:
		return "WB"
	default:
		return "?"
	}
}

// Latch is a latch between two stages: the decoded instruction in flight
// plus the bubble/stall flags (§3 PipelineStage).
type Latch struct {
	PC          uint32
	Instruction decoder.Instruction
	Bubble      bool
	Stall       bool
}

func bubbleLatch() Latch {
	return Latch{Bubble: true}
}

// Pipeline is the 5-stage in-order engine. It exclusively owns CPUState,
// Statistics, the branch predictor, the forwarding unit's inputs, and its
// own instruction cache; RAM is held by shared mutable reference (§3).
type Pipeline struct {
	ram        *ram.RAM
	cpu        *cpustate.CPUState
	stats      *stats.Statistics
	predictor  *branchpredictor.Predictor
	instrCache *cache.Cache

	ifLatch, idLatch, exLatch, memLatch, wbLatch Latch

	stallDecode   bool
	holdFetchNext bool

	// Decode's prediction and Execute's resolution are tracked separately:
	// a prediction only speculatively redirects fetch (the predicted BNEZ
	// itself must still reach EX to resolve), while an Execute resolution
	// is the real outcome and flushes both IF and ID (§8 property 8).
	decodeBranchTaken   bool
	decodeBranchTarget  uint32
	executeBranchTaken  bool
	executeBranchTarget uint32

	onDiagnostic func(string)
}

// New constructs a Pipeline bound to ram by mutable reference. All other
// microarchitectural state is freshly initialized.
func New(r *ram.RAM) *Pipeline {
	return &Pipeline{
		ram:        r,
		cpu:        cpustate.New(),
		stats:      stats.New(),
		predictor:  branchpredictor.New(),
		instrCache: cache.New(),
		ifLatch:    bubbleLatch(),
		idLatch:    bubbleLatch(),
		exLatch:    bubbleLatch(),
		memLatch:   bubbleLatch(),
		wbLatch:    bubbleLatch(),
	}
}

// OnDiagnostic registers a callback invoked with the exception diagnostic
// line printed on a hard reset (§7). Optional; nil by default.
func (p *Pipeline) OnDiagnostic(fn func(string)) {
	p.onDiagnostic = fn
}

// CPU returns the architectural state for read-only observation.
func (p *Pipeline) CPU() *cpustate.CPUState { return p.cpu }

// Stats returns a snapshot of the current statistics.
func (p *Pipeline) Stats() stats.Snapshot { return p.stats.Snapshot() }

// Latch returns a copy of the named stage's latch for observation.
func (p *Pipeline) Latch(s Stage) Latch {
	switch s {
	case IF:
		return p.ifLatch
	case ID:
		return p.idLatch
	case EX:
		return p.exLatch
	case MEM:
		return p.memLatch
	case WB:
		return p.wbLatch
	default:
		return bubbleLatch()
	}
}

// Tick advances the pipeline by exactly one cycle, following the cycle
// ordering invariant: dispatch any latched exception first; otherwise
// commit WB's side effect, shift latches backward, then re-evaluate MEM,
// EX, ID, IF in that order; finally resolve any taken branch and account
// the cycle (§4.6, §5, §9).
func (p *Pipeline) Tick() {
	if p.cpu.HasException() {
		p.handleException()
		return
	}

	p.writeback()

	p.shift()

	p.decodeBranchTaken = false
	p.executeBranchTaken = false

	if !p.memLatch.Bubble {
		p.memoryStage()
	}
	if !p.exLatch.Bubble {
		p.executeStage()
	}
	if !p.idLatch.Bubble {
		p.decodeStage()
	}
	p.fetchStage()

	switch {
	case p.executeBranchTaken:
		// The real outcome, resolved in EX: IF and ID hold younger
		// speculative instructions that must be squashed.
		p.cpu.PC = p.executeBranchTarget
		p.ifLatch = bubbleLatch()
		p.idLatch = bubbleLatch()
		p.stats.IncControlHazardStalls(2)
	case p.decodeBranchTaken:
		// Only a prediction: the predicted BNEZ is still sitting in ID and
		// must be left alone so it reaches EX next cycle and resolves.
		// Only IF's speculatively-fetched fall-through instruction is wrong.
		p.cpu.PC = p.decodeBranchTarget
		p.ifLatch = bubbleLatch()
		p.stats.IncControlHazardStalls(1)
	}

	p.stats.IncTotalCycles()
	p.ram.Tick()
}

// shift moves WB<-MEM<-EX<-ID<-IF and sets IF to a fresh bubble, unless a
// data hazard was detected in Decode last cycle, in which case EX receives
// a bubble instead of ID's content and both ID and IF are held so the
// stalled instruction is reprocessed next cycle (§4.6, §8 property 7).
func (p *Pipeline) shift() {
	p.wbLatch = p.memLatch
	p.memLatch = p.exLatch

	if p.stallDecode {
		p.exLatch = bubbleLatch()
		p.stallDecode = false
		p.holdFetchNext = true
		return
	}

	p.exLatch = p.idLatch
	p.idLatch = p.ifLatch
	p.ifLatch = bubbleLatch()
	p.holdFetchNext = false
}

// writeback performs the WB stage's architectural side effect: it commits
// nothing itself (Execute/Memory already committed register and memory
// state), it only counts the instruction as completed. Execute also counts
// completed instructions, so this double-counts by design (§4.6 Writeback,
// §9 design notes).
func (p *Pipeline) writeback() {
	if !p.wbLatch.Bubble && !p.wbLatch.Stall {
		p.stats.IncInstructionsExecuted()
	}
}

// fetchStage implements IF: fetch and decode the word at pc unless the RAM
// is still waiting on a prior write, or unless the cycle is holding fetch
// because Decode stalled (§4.6 Fetch).
func (p *Pipeline) fetchStage() {
	if p.holdFetchNext {
		return
	}

	if p.ram.IsWaiting() {
		p.stats.IncRAMWaitCycles()
		p.ifLatch = bubbleLatch()
		return
	}

	pc := p.cpu.PC

	if !p.instrCache.Access(pc, false) {
		p.stats.IncCacheMisses()
	}

	word := p.ram.Read32(pc)
	inst := decoder.Decode(word)

	p.ifLatch = Latch{PC: pc, Instruction: inst, Bubble: false}
	p.cpu.PC = pc + 4
}

// decodeStage implements ID: a RAW hazard against EX/MEM holds the
// instruction for a cycle; otherwise a BNEZ consults the branch predictor
// and may speculatively redirect (§4.6 Decode).
func (p *Pipeline) decodeStage() {
	if p.checkDataHazards() {
		p.stats.IncDataHazardStalls()
		p.stallDecode = true
		return
	}

	inst := p.idLatch.Instruction
	if inst.Opcode == decoder.OpBNEZ {
		if p.predictor.Predict(p.idLatch.PC) {
			p.decodeBranchTarget = uint32(int64(p.idLatch.PC) + int64(inst.Imm))
			p.decodeBranchTaken = true
		}
	}
}

// checkDataHazards implements the precise hazard contract of §4.6: a RAW
// hazard exists if the non-bubble EX or MEM latch writes a nonzero rd that
// the ID instruction reads as rs1 or rs2. Integer and float namespaces are
// not distinguished, matching the shared rd/rs field layout.
func (p *Pipeline) checkDataHazards() bool {
	inst := p.idLatch.Instruction

	if !p.exLatch.Bubble && p.exLatch.Instruction.Rd != 0 {
		if inst.Rs1 == p.exLatch.Instruction.Rd || inst.Rs2 == p.exLatch.Instruction.Rd {
			return true
		}
	}

	if !p.memLatch.Bubble && p.memLatch.Instruction.Rd != 0 {
		if inst.Rs1 == p.memLatch.Instruction.Rd || inst.Rs2 == p.memLatch.Instruction.Rd {
			return true
		}
	}

	return false
}

// executeStage implements EX: architectural register commit happens here
// for LUI/ADDI/FADD.S, and BNEZ resolves its actual direction here,
// possibly redirecting again even if Decode already predicted (§4.6
// Execute). ForwardingUnit's decision is computed for observability but
// deliberately not applied — Execute reads the architectural register file
// directly, per the source's advisory-only forwarding design (§9).
func (p *Pipeline) executeStage() {
	inst := p.exLatch.Instruction

	_, _ = forwarding.Decide(
		forwarding.Operands{Rs1: inst.Rs1, Rs2: inst.Rs2},
		forwarding.Snapshot{Bubble: p.memLatch.Bubble, Rd: p.memLatch.Instruction.Rd},
		forwarding.Snapshot{Bubble: p.wbLatch.Bubble, Rd: p.wbLatch.Instruction.Rd},
	)

	recognized := true

	switch inst.Opcode {
	case decoder.OpLUI:
		p.cpu.WriteX(inst.Rd, uint32(inst.Imm))
	case decoder.OpADDI:
		p.cpu.WriteX(inst.Rd, p.cpu.XRegs[inst.Rs1]+uint32(inst.Imm))
	case decoder.OpFADD:
		if inst.Funct7 == decoder.Funct7Fadd {
			p.cpu.WriteF(inst.Rd, p.cpu.FRegs[inst.Rs1]+p.cpu.FRegs[inst.Rs2])
		} else {
			recognized = false
		}
	case decoder.OpBNEZ:
		p.stats.IncTotalBranches()
		target := p.exLatch.PC + 4
		if p.cpu.XRegs[inst.Rs1] != 0 {
			target = uint32(int64(p.exLatch.PC) + int64(inst.Imm))
		}
		// Execute always redirects to its own resolved target, whether or
		// not it agrees with Decode's prediction — the control-hazard
		// stalls this charges are unconditional, not limited to actual
		// mispredictions (§9).
		p.executeBranchTarget = target
		p.executeBranchTaken = true
	default:
		recognized = false
	}

	if recognized {
		p.stats.IncInstructionsExecuted()
	}
}

// memoryStage implements MEM: FLW/FSW complete only if the RAM is not still
// waiting on an earlier write's modeled latency; otherwise the access
// stalls and the slot is converted to a bubble before it would reach WB
// (§4.6 Memory).
func (p *Pipeline) memoryStage() {
	inst := p.memLatch.Instruction

	switch inst.Opcode {
	case decoder.OpFLW:
		if !p.ram.IsWaiting() {
			addr := uint32(int64(p.cpu.XRegs[inst.Rs1]) + int64(inst.Imm))
			p.cpu.WriteF(inst.Rd, p.ram.ReadFloat(addr))
		} else {
			p.stats.IncMemoryStalls()
			p.memLatch.Bubble = true
		}
	case decoder.OpFSW:
		if !p.ram.IsWaiting() {
			addr := uint32(int64(p.cpu.XRegs[inst.Rs1]) + int64(inst.Imm))
			p.ram.WriteFloat(addr, p.cpu.FRegs[inst.Rs2])
			if p.ram.LastWriteMissed() {
				p.stats.IncCacheMisses()
			}
		} else {
			p.stats.IncMemoryStalls()
			p.memLatch.Bubble = true
		}
	}
}

// handleException dispatches the latched exception: prints a diagnostic,
// counts it, and performs a hard restart of all pipeline and architectural
// state. This is the only recovery path; it is not precise replay (§7).
func (p *Pipeline) handleException() {
	diag := p.cpu.Exception.String()
	if p.onDiagnostic != nil {
		p.onDiagnostic(diag)
	} else {
		fmt.Println(diag)
	}

	p.stats.IncExceptions()

	p.ifLatch = bubbleLatch()
	p.idLatch = bubbleLatch()
	p.exLatch = bubbleLatch()
	p.memLatch = bubbleLatch()
	p.wbLatch = bubbleLatch()
	p.stallDecode = false
	p.holdFetchNext = false
	p.decodeBranchTaken = false
	p.decodeBranchTarget = 0
	p.executeBranchTaken = false
	p.executeBranchTarget = 0

	p.cpu.Reset()
}

// Raise latches a fatal exception; the next Tick() will dispatch it.
func (p *Pipeline) Raise(kind cpustate.ExceptionKind, pc uint32, message string) {
	p.cpu.Raise(kind, pc, message)
}
