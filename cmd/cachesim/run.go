package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/loader"
	"github.com/sarchlab/cachesim/record"
	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/core"
	"github.com/sarchlab/cachesim/timing/latency"
)

// recordAuto asks the recorder to pick a unique database name.
const recordAuto = "auto"

// runOptions collects everything `run` needs. Geometry fields left at zero
// are taken from the config file, the environment, or a prompt, in that
// order.
type runOptions struct {
	sets      int
	assoc     int
	blockSize int
	engine    string
	tracePath string

	configPath       string
	timingConfigPath string
	recordPath       string

	verbose bool
	json    bool
}

func newRunOptions() runOptions {
	return runOptions{}
}

func newRunCmd() *cobra.Command {
	opts := newRunOptions()

	cmd := &cobra.Command{
		Use:   "run [trace]",
		Short: "Simulate one cache configuration over a trace.",
		Long: `Simulate one cache configuration over a trace file holding one ` +
			`decimal memory address per line. Values not given as flags are ` +
			`read from --config, then CACHESIM_* environment variables, and ` +
			`finally prompted for.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.tracePath = args[0]
			}
			return runSimulation(opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.sets, "sets", 0, "Total number of cache lines (1/32/64/128/256/512)")
	flags.IntVar(&opts.assoc, "assoc", 0, "Set associativity (1/2/4)")
	flags.IntVar(&opts.blockSize, "block-size", 0, "Block size in words")
	flags.StringVar(&opts.engine, "engine", "", "Cache engine: native or akita")
	flags.StringVar(&opts.configPath, "config", "", "Path to cache configuration JSON file")
	flags.StringVar(&opts.timingConfigPath, "timing-config", "", "Path to timing configuration JSON file")
	flags.StringVar(&opts.recordPath, "record", "",
		"Record every access to this SQLite file ('auto' picks a name)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVar(&opts.json, "json", false, "Print the result as JSON")

	return cmd
}

// runReport is the JSON form of a run.
type runReport struct {
	Trace         string           `json:"trace"`
	Config        cache.Config     `json:"config"`
	Statistics    cache.Statistics `json:"statistics"`
	HitRate       float64          `json:"hit_rate"`
	LegacyHitRate float64          `json:"legacy_hit_rate"`
	Estimate      latency.Estimate `json:"estimate"`
	RunID         string           `json:"run_id,omitempty"`
}

// runSimulation resolves the configuration, replays the trace and prints the
// miss count. Nothing is printed to out for a run that fails part way.
func runSimulation(opts runOptions, in io.Reader, out, errOut io.Writer) error {
	logger := log.New(io.Discard, "cachesim: ", 0)
	if opts.verbose {
		logger.SetOutput(errOut)
	}

	p := newPrompter(in, out)

	config, err := opts.cacheConfig(p)
	if err != nil {
		return err
	}

	timing := latency.DefaultTimingConfig()
	if opts.timingConfigPath != "" {
		timing, err = latency.LoadConfig(opts.timingConfigPath)
		if err != nil {
			return err
		}
	}
	if err := timing.Validate(); err != nil {
		return err
	}

	if p.asked {
		_, _ = fmt.Fprintln(out, msgInitializing)
	}

	var recorder *record.SQLiteRecorder
	coreOpts := []core.Option{core.WithLatencyTable(latency.NewTableWithConfig(timing))}
	if opts.recordPath != "" {
		path := opts.recordPath
		if path == recordAuto {
			path = ""
		}

		recorder = record.NewSQLiteRecorder(path)
		coreOpts = append(coreOpts, core.WithRecorder(recorder))
	}

	c, err := core.NewCore(config, coreOpts...)
	if err != nil {
		return err
	}

	logger.Printf("%d lines, %d-way, %d sets, block size %d, engine %s",
		config.NumCacheSets, config.Associativity, config.NumSets(),
		config.BlockSize, config.EngineOrDefault())

	tracePath := opts.tracePath
	if tracePath == "" {
		tracePath = p.token(promptTrace)
	}

	trace, err := loader.Open(tracePath)
	if err != nil {
		return err
	}
	defer func() { _ = trace.Close() }()

	if recorder != nil {
		if err := recorder.Init(config); err != nil {
			return err
		}
		defer func() { _ = recorder.Close() }()
		logger.Printf("recording accesses to %s", recorder.Path())
	}

	stats, err := c.Run(trace)
	if err != nil {
		return err
	}

	runID := ""
	if recorder != nil {
		if err := recorder.Finish(stats); err != nil {
			return err
		}
		runID = recorder.RunID()
	}

	if opts.json {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runReport{
			Trace:         tracePath,
			Config:        config,
			Statistics:    stats.Statistics,
			HitRate:       stats.HitRate(),
			LegacyHitRate: stats.LegacyHitRate(),
			Estimate:      stats.Estimate,
			RunID:         runID,
		})
	}

	_, _ = fmt.Fprintf(out, "Total misses = %d\n", stats.Misses)
	_, _ = fmt.Fprintf(out, "Hit rate = %s%%\n", formatRate(stats.LegacyHitRate()))

	if opts.verbose {
		_, _ = fmt.Fprintf(out, "Accesses: %d\n", stats.Accesses)
		_, _ = fmt.Fprintf(out, "Hits: %d\n", stats.Hits)
		_, _ = fmt.Fprintf(out, "Evictions: %d\n", stats.Evictions)
		_, _ = fmt.Fprintf(out, "Measured hit rate: %.4f%%\n", stats.HitRate())
		_, _ = fmt.Fprintf(out, "Estimated cycles: %d (AMAT %.3f)\n", stats.Cycles, stats.AMAT)
	}

	return nil
}

// cacheConfig merges the config file, the environment, the flags and, for
// anything still missing, the prompts.
func (o runOptions) cacheConfig(p *prompter) (cache.Config, error) {
	var config cache.Config

	if o.configPath != "" {
		loaded, err := cache.LoadConfig(o.configPath)
		if err != nil {
			return cache.Config{}, err
		}
		config = loaded
	}

	if err := cache.ApplyEnv(&config); err != nil {
		return cache.Config{}, err
	}

	if o.sets != 0 {
		config.NumCacheSets = o.sets
	}
	if o.assoc != 0 {
		config.Associativity = o.assoc
	}
	if o.blockSize != 0 {
		config.BlockSize = o.blockSize
	}
	if o.engine != "" {
		config.Engine = cache.Engine(o.engine)
	}

	prompts := []struct {
		field  *int
		prompt string
		name   string
	}{
		{&config.NumCacheSets, promptSets, "number of cache sets"},
		{&config.Associativity, promptAssoc, "set associativity"},
		{&config.BlockSize, promptBlockSize, "block size"},
	}

	for _, q := range prompts {
		if *q.field != 0 {
			continue
		}

		n, err := p.integer(q.prompt, q.name)
		if err != nil {
			return cache.Config{}, err
		}
		*q.field = n
	}

	return config, nil
}
