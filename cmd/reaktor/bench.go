package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/reaktor-dev/reaktor/pkg/reaktor"
)

type benchConfig struct {
	Depth      int
	Observers  int
	Writes     int
	Batched    bool
	JSONOutput string
}

type benchResult struct {
	Depth      int     `json:"depth"`
	Observers  int     `json:"observers"`
	Writes     int     `json:"writes"`
	Batched    bool    `json:"batched"`
	DurationMs float64 `json:"duration_ms"`
	WritesPerS float64 `json:"writes_per_sec"`
	Triggers   int     `json:"observer_triggers"`
	FinalValue int     `json:"final_value"`
	NsPerWrite float64 `json:"ns_per_write"`
}

func benchCmd() *cobra.Command {
	var config benchConfig

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark write propagation through a derived chain",
		Long: `Build a chain of derived signals with a fan-out of observers at the
end, then measure how fast writes at the root propagate through it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(config)
		},
	}

	cmd.Flags().IntVar(&config.Depth, "depth", 50, "Length of the derived signal chain")
	cmd.Flags().IntVar(&config.Observers, "observers", 10, "Observers watching the end of the chain")
	cmd.Flags().IntVar(&config.Writes, "writes", 10000, "Number of writes at the root")
	cmd.Flags().BoolVar(&config.Batched, "batched", false, "Wrap all writes in one batch")
	cmd.Flags().StringVar(&config.JSONOutput, "json", "", "Write results as JSON to the given file")

	return cmd
}

func runBench(config benchConfig) error {
	root := reaktor.NewSignal(0)

	tail := root
	for i := 0; i < config.Depth; i++ {
		prev := tail
		tail = reaktor.Define(func() int { return prev.Get() + 1 })
	}

	triggers := 0
	for i := 0; i < config.Observers; i++ {
		if _, err := reaktor.NewObserver(func(args ...any) any {
			triggers++
			return tail.Get()
		}); err != nil {
			return err
		}
	}

	info("depth=%d observers=%d writes=%d batched=%v",
		config.Depth, config.Observers, config.Writes, config.Batched)

	start := time.Now()
	if config.Batched {
		err := reaktor.Batch(func() {
			for i := 0; i < config.Writes; i++ {
				root.Set(i)
			}
		})
		if err != nil {
			return err
		}
	} else {
		for i := 0; i < config.Writes; i++ {
			if err := root.Set(i); err != nil {
				return err
			}
		}
	}
	elapsed := time.Since(start)

	result := benchResult{
		Depth:      config.Depth,
		Observers:  config.Observers,
		Writes:     config.Writes,
		Batched:    config.Batched,
		DurationMs: float64(elapsed) / float64(time.Millisecond),
		WritesPerS: float64(config.Writes) / elapsed.Seconds(),
		Triggers:   triggers,
		FinalValue: tail.Peek(),
		NsPerWrite: float64(elapsed.Nanoseconds()) / float64(config.Writes),
	}

	success("%d writes in %.1fms (%.0f writes/sec, %.0f ns/write, %d observer triggers)",
		result.Writes, result.DurationMs, result.WritesPerS, result.NsPerWrite, result.Triggers)

	if config.JSONOutput != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(config.JSONOutput, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", config.JSONOutput, err)
		}
		info("results written to %s", config.JSONOutput)
	}

	return nil
}
