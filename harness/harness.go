// Package harness runs traces across many cache configurations and reports
// how each one performs.
package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/cachesim/loader"
	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/core"
	"github.com/sarchlab/cachesim/timing/latency"
)

// Result holds the outcome of one workload on one cache configuration.
type Result struct {
	// Workload identifies the trace
	Workload string `json:"workload"`

	// NumCacheSets is the total number of cache lines
	NumCacheSets int `json:"num_cache_sets"`

	// Associativity is the number of ways per set
	Associativity int `json:"associativity"`

	// BlockSize is the number of words per block
	BlockSize int `json:"block_size"`

	// Engine is the cache implementation used
	Engine cache.Engine `json:"engine"`

	Accesses  uint64 `json:"accesses"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`

	// HitRate is hits / accesses, in percent
	HitRate float64 `json:"hit_rate"`

	// LegacyHitRate assumes a 10,000-reference trace
	LegacyHitRate float64 `json:"legacy_hit_rate"`

	// Cycles and AMAT come from the latency table
	Cycles uint64  `json:"cycles"`
	AMAT   float64 `json:"amat"`

	// Skipped is set when the geometry cannot be built
	Skipped string `json:"skipped,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Workload is a named trace.
type Workload struct {
	// Name identifies the workload
	Name string

	// Description explains what access pattern the trace exercises
	Description string

	// Addresses are the memory references, in order
	Addresses []int64
}

// HarnessConfig configures the sweep.
type HarnessConfig struct {
	// SetCounts are the total line counts to try
	SetCounts []int

	// Associativities are the way counts to try for each set count
	Associativities []int

	// BlockSize is the block size in words shared by every configuration
	BlockSize int

	// Engine selects the cache implementation
	Engine cache.Engine

	// Timing sets the hit latency and miss penalty
	Timing *latency.TimingConfig

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns the configurations the interactive prompt offers.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		SetCounts:       []int{1, 32, 64, 128, 256, 512},
		Associativities: []int{1, 2, 4},
		BlockSize:       1,
		Engine:          cache.EngineNative,
		Timing:          latency.DefaultTimingConfig(),
		Output:          os.Stdout,
		Verbose:         false,
	}
}

// Harness runs workloads and reports results.
type Harness struct {
	config    HarnessConfig
	workloads []Workload
}

// NewHarness creates a new sweep harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Timing == nil {
		config.Timing = latency.DefaultTimingConfig()
	} else {
		config.Timing = config.Timing.Clone()
	}
	if config.BlockSize == 0 {
		config.BlockSize = 1
	}
	return &Harness{
		config:    config,
		workloads: []Workload{},
	}
}

// AddWorkload adds a workload to the harness.
func (h *Harness) AddWorkload(w Workload) {
	h.workloads = append(h.workloads, w)
}

// AddWorkloads adds multiple workloads to the harness.
func (h *Harness) AddWorkloads(workloads []Workload) {
	h.workloads = append(h.workloads, workloads...)
}

// AddTraceFile loads a trace file and adds it as a workload named after the
// file.
func (h *Harness) AddTraceFile(path string) error {
	trace, err := loader.Load(path)
	if err != nil {
		return err
	}

	h.AddWorkload(Workload{
		Name:        path,
		Description: "trace file",
		Addresses:   trace.Addresses,
	})

	return nil
}

// Configs returns every cache configuration the harness will try, in the
// order they run.
func (h *Harness) Configs() []cache.Config {
	configs := make([]cache.Config, 0,
		len(h.config.SetCounts)*len(h.config.Associativities))

	for _, sets := range h.config.SetCounts {
		for _, assoc := range h.config.Associativities {
			configs = append(configs, cache.Config{
				NumCacheSets:  sets,
				Associativity: assoc,
				BlockSize:     h.config.BlockSize,
				Engine:        h.config.Engine,
			})
		}
	}

	return configs
}

// RunAll runs every workload on every configuration and returns results.
// Configurations that cannot be built are reported as skipped rather than
// aborting the sweep.
func (h *Harness) RunAll() []Result {
	configs := h.Configs()
	results := make([]Result, 0, len(h.workloads)*len(configs))

	for _, w := range h.workloads {
		for _, config := range configs {
			results = append(results, h.run(w, config))
		}
	}

	return results
}

func (h *Harness) run(w Workload, config cache.Config) Result {
	result := Result{
		Workload:      w.Name,
		NumCacheSets:  config.NumCacheSets,
		Associativity: config.Associativity,
		BlockSize:     config.BlockSize,
		Engine:        config.EngineOrDefault(),
	}

	c, err := core.NewCore(config,
		core.WithLatencyTable(latency.NewTableWithConfig(h.config.Timing)))
	if err != nil {
		result.Skipped = err.Error()
		return result
	}

	start := time.Now()
	stats, err := c.Run(loader.NewSliceSource(w.Addresses))
	result.WallTime = time.Since(start)

	if err != nil {
		result.Skipped = err.Error()
		return result
	}

	result.Accesses = stats.Accesses
	result.Hits = stats.Hits
	result.Misses = stats.Misses
	result.Evictions = stats.Evictions
	result.HitRate = stats.HitRate()
	result.LegacyHitRate = stats.LegacyHitRate()
	result.Cycles = stats.Cycles
	result.AMAT = stats.AMAT

	return result
}

// PrintResults outputs results in a human-readable format.
func (h *Harness) PrintResults(results []Result) {
	out := h.config.Output

	_, _ = fmt.Fprintln(out, "=== Cache Sweep Results ===")
	_, _ = fmt.Fprintln(out, "")

	current := ""
	for _, r := range results {
		if r.Workload != current {
			current = r.Workload
			_, _ = fmt.Fprintf(out, "Workload: %s\n", r.Workload)
			_, _ = fmt.Fprintf(out, "  %-6s %-5s %-10s %-10s %-9s\n",
				"sets", "ways", "misses", "evictions", "hit rate")
		}

		if r.Skipped != "" {
			_, _ = fmt.Fprintf(out, "  %-6d %-5d skipped: %s\n",
				r.NumCacheSets, r.Associativity, r.Skipped)
			continue
		}

		_, _ = fmt.Fprintf(out, "  %-6d %-5d %-10d %-10d %8.3f%%\n",
			r.NumCacheSets, r.Associativity, r.Misses, r.Evictions, r.HitRate)

		if h.config.Verbose {
			_, _ = fmt.Fprintf(out, "         legacy hit rate %.4f%%, cycles %d, AMAT %.3f, wall time %v\n",
				r.LegacyHitRate, r.Cycles, r.AMAT, r.WallTime)
		}
	}

	_, _ = fmt.Fprintln(out, "")
}

// PrintCSV outputs results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output,
		"workload,sets,associativity,block_size,engine,accesses,hits,misses,evictions,hit_rate,legacy_hit_rate,cycles,amat,skipped")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%s,%d,%d,%d,%d,%.4f,%.4f,%d,%.4f,%t\n",
			r.Workload,
			r.NumCacheSets,
			r.Associativity,
			r.BlockSize,
			r.Engine,
			r.Accesses,
			r.Hits,
			r.Misses,
			r.Evictions,
			r.HitRate,
			r.LegacyHitRate,
			r.Cycles,
			r.AMAT,
			r.Skipped != "",
		)
	}
}

// Report is the complete output format for sweep results.
type Report struct {
	// Metadata about the sweep
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual results
	Results []Result `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the sweep.
type ReportMetadata struct {
	// RunID uniquely identifies the sweep
	RunID string `json:"run_id"`

	// Timestamp when the sweep was run
	Timestamp string `json:"timestamp"`

	// Timing is the latency model used for cycle estimates
	Timing latency.TimingConfig `json:"timing"`
}

// ReportSummary contains aggregate statistics across all results.
type ReportSummary struct {
	// TotalRuns is the number of configurations simulated
	TotalRuns int `json:"total_runs"`

	// SkippedRuns is the number of configurations that could not be built
	SkippedRuns int `json:"skipped_runs"`

	// Best maps each workload to the configuration with the fewest misses
	Best map[string]BestConfig `json:"best"`

	// TotalWallTime is the total wall clock time for all runs
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// BestConfig names the configuration with the fewest misses for a workload.
type BestConfig struct {
	NumCacheSets  int    `json:"num_cache_sets"`
	Associativity int    `json:"associativity"`
	Misses        uint64 `json:"misses"`
}

// Summarize computes aggregate statistics over results.
func Summarize(results []Result) ReportSummary {
	summary := ReportSummary{Best: map[string]BestConfig{}}

	for _, r := range results {
		summary.TotalWallTime += r.WallTime

		if r.Skipped != "" {
			summary.SkippedRuns++
			continue
		}

		summary.TotalRuns++

		best, ok := summary.Best[r.Workload]
		if !ok || r.Misses < best.Misses {
			summary.Best[r.Workload] = BestConfig{
				NumCacheSets:  r.NumCacheSets,
				Associativity: r.Associativity,
				Misses:        r.Misses,
			}
		}
	}

	return summary
}

// PrintJSON outputs results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []Result) error {
	report := Report{
		Metadata: ReportMetadata{
			RunID:     xid.New().String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Timing:    *h.config.Timing,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
