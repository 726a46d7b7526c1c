package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jasonKoogler/cpu-sim/internal/config"
	"github.com/jasonKoogler/cpu-sim/internal/pipeline"
	"github.com/jasonKoogler/cpu-sim/internal/program"
	"github.com/jasonKoogler/cpu-sim/internal/ram"
)

func main() {
	configPath := flag.String("config", "configs/default.yaml", "Path to the configuration file")
	verbose := flag.Bool("v", false, "Enable verbose output")
	numCycles := flag.Int64("cycles", 0, "Override the configured cycle cap (0 uses the config value)")
	showPipeline := flag.Bool("show-pipeline", false, "Print the pipeline stage order and stop")
	programPath := flag.String("program", "", "Path to an external assembled program (unsupported; the reference vector-add workload is always run)")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	if *programPath != "" {
		logger.Printf("-program is not yet supported; running the built-in reference vector-add workload instead")
	}

	if *verbose {
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}

	logger.Println("5-Stage Pipeline CPU Simulator")

	if *showPipeline {
		fmt.Println("\nPipeline Structure:")
		fmt.Println("  Total Stages: 5")
		fmt.Printf("  Pipeline Flow: %s → %s → %s → %s → %s\n",
			pipeline.IF, pipeline.ID, pipeline.EX, pipeline.MEM, pipeline.WB)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Printf("Failed to load configuration (%v); falling back to defaults", err)
		cfg = config.DefaultConfig()
	}

	if *numCycles > 0 {
		cfg.CycleCap = *numCycles
	}

	fmt.Println("\nConfiguration Summary:")
	fmt.Printf("	Cycle cap: %d\n", cfg.CycleCap)
	fmt.Printf("	Warmup cycles: %d\n", cfg.WarmupCycles)
	fmt.Printf("	Trace level: %s\n", cfg.TraceLevel)
	fmt.Printf("	RAM size: %d bytes\n", cfg.RAMSize)
	fmt.Printf("	Vector length: %d\n", cfg.VectorLength)

	mem := ram.New(cfg.RAMSize)

	prog, err := program.LoadReferenceVectorAdd(cfg.VectorLength, cfg.BaseA, cfg.BaseB, cfg.BaseC)
	if err != nil {
		logger.Fatalf("Failed to assemble reference program: %v", err)
	}

	programBase := uint32(0)
	for i, word := range prog.Words {
		mem.Write32(programBase+uint32(i*4), word)
	}
	terminationPC := programBase + uint32(len(prog.Words)-1)*4
	cfg.TerminationPC = terminationPC

	seedVectors(mem, prog.Layout)

	pipe := pipeline.New(mem)
	pipe.OnDiagnostic(func(msg string) {
		logger.Println(msg)
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	go func() {
		logger.Printf("Starting simulation (cycle cap %d)...", cfg.CycleCap)

		var cycle int64
		for cycle = 0; cycle < cfg.CycleCap; cycle++ {
			pipe.Tick()

			if *verbose && cfg.TraceLevel == "full" {
				logger.Printf("cycle=%d pc=%#x", cycle, pipe.CPU().PC)
			}

			if cycle >= cfg.WarmupCycles && pipe.CPU().PC == cfg.TerminationPC && !pipe.CPU().HasException() {
				break
			}
		}

		stats := pipe.Stats()
		fmt.Println("\nSimulation Statistics:")
		fmt.Printf("	Total Cycles: %d\n", stats.TotalCycles)
		fmt.Printf("	Instructions Executed: %d\n", stats.InstructionsExecuted)
		fmt.Printf("	CPI: %.2f\n", stats.CPI())
		fmt.Printf("	Data Hazard Stalls: %d\n", stats.DataHazardStalls)
		fmt.Printf("	Memory Stalls: %d\n", stats.MemoryStalls)
		fmt.Printf("	Control Hazard Stalls: %d\n", stats.ControlHazardStalls)
		fmt.Printf("	RAM Wait Cycles: %d\n", stats.RAMWaitCycles)
		fmt.Printf("	Cache Misses: %d\n", stats.CacheMisses)
		fmt.Printf("	Total Branches: %d\n", stats.TotalBranches)
		fmt.Printf("	Branch Mispredictions: %d\n", stats.BranchMispredictions)
		fmt.Printf("	Misprediction Rate: %.2f%%\n", stats.MispredictionRate()*100)

		if pipe.CPU().HasException() {
			logger.Printf("Simulation halted on exception: %s", pipe.CPU().Exception)
		}

		if err := verifyVectorAdd(mem, prog.Layout); err != nil {
			logger.Printf("Result verification failed: %v", err)
		} else {
			logger.Println("Result verification passed: C[i] == A[i] + B[i] for all i")
		}

		close(done)
	}()

	select {
	case <-done:
		logger.Println("Simulation completed")
	case <-sigChan:
		logger.Println("Received termination signal. Shutting down...")
	}
}

// seedVectors writes A[i] = i+1 and B[i] = 2*i into RAM ahead of the
// reference vector-add program.
func seedVectors(mem *ram.RAM, layout program.DataLayout) {
	for i := 0; i < layout.Count; i++ {
		a := float32(i + 1)
		b := float32(2 * i)
		mem.WriteFloat(layout.BaseA+uint32(i*4), a)
		mem.WriteFloat(layout.BaseB+uint32(i*4), b)
	}
}

// verifyVectorAdd checks the architectural postcondition: every C[i] equals
// A[i] + B[i] as written by the simulated program.
func verifyVectorAdd(mem *ram.RAM, layout program.DataLayout) error {
	for i := 0; i < layout.Count; i++ {
		a := mem.ReadFloat(layout.BaseA + uint32(i*4))
		b := mem.ReadFloat(layout.BaseB + uint32(i*4))
		c := mem.ReadFloat(layout.BaseC + uint32(i*4))
		if c != a+b {
			return fmt.Errorf("C[%d] = %v, want %v (A[%d]=%v + B[%d]=%v)", i, c, a+b, i, a, i, b)
		}
	}
	return nil
}
