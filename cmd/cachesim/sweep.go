package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/harness"
	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/latency"
)

func newSweepCmd() *cobra.Command {
	config := harness.DefaultConfig()
	var (
		engine           string
		timingConfigPath string
		csvOutput        bool
		jsonOutput       bool
		synthetic        bool
	)

	cmd := &cobra.Command{
		Use:   "sweep [trace...]",
		Short: "Simulate every combination of set count and associativity.",
		Long: `Simulate every combination of set count and associativity over ` +
			`each trace. Without trace files, or with --synthetic, the ` +
			`built-in synthetic workloads are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Engine = cache.Engine(engine)
			config.Output = cmd.OutOrStdout()

			if timingConfigPath != "" {
				timing, err := latency.LoadConfig(timingConfigPath)
				if err != nil {
					return err
				}
				if err := timing.Validate(); err != nil {
					return err
				}
				config.Timing = timing
			}

			h := harness.NewHarness(config)

			for _, path := range args {
				if err := h.AddTraceFile(path); err != nil {
					return err
				}
			}

			if len(args) == 0 || synthetic {
				workloads, err := harness.GetWorkloads()
				if err != nil {
					return err
				}
				h.AddWorkloads(workloads)
			}

			results := h.RunAll()

			switch {
			case jsonOutput:
				return h.PrintJSON(results)
			case csvOutput:
				h.PrintCSV(results)
			default:
				header := color.New(color.Bold)
				_, _ = header.Fprintln(config.Output, "cachesim sweep")
				_, _ = fmt.Fprintf(config.Output, "Block size: %d words, engine: %s\n\n",
					config.BlockSize, config.Engine)
				h.PrintResults(results)
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntSliceVar(&config.SetCounts, "sets", config.SetCounts, "Total line counts to try")
	flags.IntSliceVar(&config.Associativities, "assoc", config.Associativities, "Associativities to try")
	flags.IntVar(&config.BlockSize, "block-size", config.BlockSize, "Block size in words")
	flags.StringVar(&engine, "engine", string(config.Engine), "Cache engine: native or akita")
	flags.StringVar(&timingConfigPath, "timing-config", "", "Path to timing configuration JSON file")
	flags.BoolVar(&csvOutput, "csv", false, "Output results in CSV format")
	flags.BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	flags.BoolVar(&synthetic, "synthetic", false, "Include the synthetic workloads alongside trace files")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose output")

	return cmd
}
