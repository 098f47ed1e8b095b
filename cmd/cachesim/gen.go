package main

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/loader"
)

func newGenCmd() *cobra.Command {
	config := loader.DefaultGeneratorConfig()
	var pattern, output string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a synthetic trace.",
		Long: `Generate a synthetic memory trace. Patterns are sequential, ` +
			`strided, loop and random. The trace is written to --output, or ` +
			`to standard output if no file is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.Pattern = loader.Pattern(pattern)

			addrs, err := loader.Generate(config)
			if err != nil {
				return err
			}

			if output == "" {
				return loader.Write(cmd.OutOrStdout(), addrs)
			}

			return loader.Save(output, addrs)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&pattern, "pattern", string(config.Pattern), "Access pattern: sequential, strided, loop or random")
	flags.IntVar(&config.Count, "count", config.Count, "Number of references")
	flags.Int64Var(&config.Base, "base", config.Base, "First address")
	flags.Int64Var(&config.Stride, "stride", config.Stride, "Bytes between references (strided, loop)")
	flags.Int64Var(&config.Span, "span", config.Span, "Working set size in bytes (loop, random)")
	flags.Int64Var(&config.Seed, "seed", config.Seed, "Random seed")
	flags.StringVarP(&output, "output", "o", "", "Write the trace to this file")

	return cmd
}
