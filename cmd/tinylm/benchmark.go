package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sys/cpu"

	"github.com/samcharles93/tinylm/internal/logger"
)

func benchmarkCmd() *cli.Command {
	var (
		warmupRuns int64
		benchRuns  int64
		seqLen     int64
	)

	return &cli.Command{
		Name:   "benchmark",
		Usage:  "Time repeated forward passes",
		Before: setup,
		Flags: commandFlags(
			&cli.Int64Flag{
				Name:        "warmup",
				Usage:       "number of warmup runs",
				Value:       1,
				Destination: &warmupRuns,
			},
			&cli.Int64Flag{
				Name:        "runs",
				Usage:       "number of benchmark runs",
				Value:       5,
				Destination: &benchRuns,
			},
			&cli.Int64Flag{
				Name:        "seq-len",
				Aliases:     []string{"n"},
				Usage:       "tokens per forward pass (0 = max-seq-len)",
				Destination: &seqLen,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if benchRuns < 1 {
				return cli.Exit("error: --runs must be at least 1", 1)
			}

			loadStart := time.Now()
			m, err := buildModel(ctx, cmd)
			if err != nil {
				return err
			}
			loadDuration := time.Since(loadStart)

			cfg := m.Config()
			n := int(seqLen)
			if n <= 0 {
				n = cfg.MaxSeqLen
			}
			ids := sequentialTokens(n, cfg.VocabSize)
			if err := m.Validate(ids); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			fmt.Println("=== tinylm Benchmark ===")
			fmt.Printf("Model:      %s\n", cfg)
			fmt.Printf("Parameters: %d\n", m.NumParameters())
			fmt.Printf("CPUs:       %d\n", runtime.NumCPU())
			fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
			fmt.Printf("CPU:        %s\n", cpuFeatures())
			fmt.Printf("Workers:    %d per attention layer\n", m.Blocks[0].Attn.Workers())
			fmt.Printf("Init:       %s\n", loadDuration.Round(time.Microsecond))
			fmt.Printf("Seq len:    %d tokens\n", n)
			fmt.Printf("Warmup:     %d runs\n", warmupRuns)
			fmt.Printf("Runs:       %d\n", benchRuns)
			fmt.Println()

			for i := range int(warmupRuns) {
				log.Debug("warmup run", "run", i+1)
				if _, err := m.Forward(ids); err != nil {
					return cli.Exit(fmt.Sprintf("error: warmup run %d: %v", i+1, err), 1)
				}
			}

			durations := make([]time.Duration, 0, benchRuns)
			for i := range int(benchRuns) {
				if err := ctx.Err(); err != nil {
					return err
				}
				start := time.Now()
				if _, err := m.Forward(ids); err != nil {
					return cli.Exit(fmt.Sprintf("error: benchmark run %d: %v", i+1, err), 1)
				}
				d := time.Since(start)
				log.Debug("benchmark run", "run", i+1, "took", d)
				durations = append(durations, d)
			}

			printBenchmark(os.Stdout, durations, n)

			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			fmt.Printf("\nMemory: %.1f MB alloc, %.1f MB sys, %d GC cycles\n",
				float64(mem.Alloc)/(1024*1024),
				float64(mem.Sys)/(1024*1024),
				mem.NumGC)
			return nil
		},
	}
}

func printBenchmark(w io.Writer, durations []time.Duration, positions int) {
	_, _ = fmt.Fprintln(w, "=== Results ===")
	_, _ = fmt.Fprintf(w, "%-6s %12s %14s\n", "Run", "Latency", "Positions/s")

	var total time.Duration
	best := durations[0]
	for i, d := range durations {
		_, _ = fmt.Fprintf(w, "%-6d %12s %14.1f\n", i+1, d.Round(time.Microsecond), positionsPerSecond(positions, d))
		total += d
		best = min(best, d)
	}
	avg := total / time.Duration(len(durations))
	_, _ = fmt.Fprintf(w, "\n%-6s %12s %14.1f\n", "Avg", avg.Round(time.Microsecond), positionsPerSecond(positions, avg))
	_, _ = fmt.Fprintf(w, "%-6s %12s %14.1f\n", "Best", best.Round(time.Microsecond), positionsPerSecond(positions, best))
}

func positionsPerSecond(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

// cpuFeatures lists the SIMD extensions relevant to the BLAS kernels.
func cpuFeatures() string {
	var feats []string
	switch runtime.GOARCH {
	case "amd64", "386":
		for _, f := range []struct {
			name string
			ok   bool
		}{
			{"sse4.2", cpu.X86.HasSSE42},
			{"avx", cpu.X86.HasAVX},
			{"avx2", cpu.X86.HasAVX2},
			{"fma", cpu.X86.HasFMA},
			{"avx512f", cpu.X86.HasAVX512F},
		} {
			if f.ok {
				feats = append(feats, f.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			feats = append(feats, "asimd")
		}
		if cpu.ARM64.HasSVE {
			feats = append(feats, "sve")
		}
	}
	if len(feats) == 0 {
		return runtime.GOARCH
	}
	return runtime.GOARCH + " " + strings.Join(feats, " ")
}
