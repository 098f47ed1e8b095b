package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// profiler writes CPU and heap profiles around a command.
type profiler struct {
	cpuProfile string
	memProfile string

	cpuFile *os.File
}

func (p *profiler) addFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&p.cpuProfile, "cpuprofile", "", "write cpu profile to file")
	flags.StringVar(&p.memProfile, "memprofile", "", "write memory profile to file")
}

func (p *profiler) start(_ *cobra.Command, _ []string) error {
	if p.cpuProfile == "" {
		return nil
	}

	f, err := os.Create(p.cpuProfile)
	if err != nil {
		return fmt.Errorf("failed to create CPU profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}

	p.cpuFile = f
	atexit.Register(func() { _ = p.stop(nil, nil) })

	return nil
}

// stop ends CPU profiling and writes the heap profile. It is safe to call
// more than once.
func (p *profiler) stop(_ *cobra.Command, _ []string) error {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		_ = p.cpuFile.Close()
		p.cpuFile = nil
	}

	if p.memProfile == "" {
		return nil
	}

	f, err := os.Create(p.memProfile)
	if err != nil {
		return fmt.Errorf("failed to create memory profile: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}

	p.memProfile = ""

	return nil
}
