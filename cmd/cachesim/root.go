package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/loader"
)

// envFile is loaded before flags are parsed so CACHESIM_* settings can live
// next to the traces.
const envFile = ".env"

// newRootCmd builds the command tree. Without a subcommand the root command
// behaves like `run` with no flags, prompting for everything.
func newRootCmd() *cobra.Command {
	prof := &profiler{}

	rootCmd := &cobra.Command{
		Use:   "cachesim",
		Short: "cachesim counts the misses of a memory trace on a simulated cache.",
		Long: `cachesim counts the misses of a memory trace on a simulated ` +
			`set-associative cache. Direct-mapped, 2-way and 4-way caches are ` +
			`supported, with a recency bit for 2-way sets and true LRU for 4-way sets.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE:  prof.start,
		PersistentPostRunE: prof.stop,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulation(newRunOptions(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	prof.addFlags(rootCmd)
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newGenCmd())

	return rootCmd
}

// Execute adds all child commands to the root command and runs it, exiting
// non-zero on failure.
func Execute() {
	if err := loadEnvFile(envFile); err != nil {
		reportError(os.Stderr, err)
		atexit.Exit(1)
	}

	if err := newRootCmd().Execute(); err != nil {
		reportError(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadEnvFile reads KEY=VALUE pairs from path into the environment. A missing
// file is not an error, and variables already set win.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	return nil
}

// reportError prints a terse message for bad input or an unreadable trace and
// the full error for anything else.
func reportError(w io.Writer, err error) {
	red := color.New(color.FgRed)

	var inputErr *InputFormatError
	var ioErr *loader.IOError

	switch {
	case errors.As(err, &inputErr):
		_, _ = red.Fprintln(w, "Invalid input")
	case errors.As(err, &ioErr):
		_, _ = red.Fprintln(w, "Error reading file.")
	default:
		_, _ = red.Fprintf(w, "Error: %v\n", err)
	}
}
