// Package latency turns cache hit and miss counts into timing estimates.
//
// The model is the classic one: every access pays the hit latency and every
// miss additionally pays the miss penalty.
package latency

import (
	"github.com/sarchlab/cachesim/timing/cache"
)

// Estimate is the timing a trace would take under a TimingConfig.
type Estimate struct {
	// Cycles is the total number of cycles spent on memory accesses.
	Cycles uint64 `json:"cycles"`
	// AMAT is the average memory access time in cycles.
	AMAT float64 `json:"amat"`
}

// Table provides access latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// AccessLatency returns the cycles a single access takes.
func (t *Table) AccessLatency(result cache.AccessResult) uint64 {
	if result.Hit {
		return t.config.HitLatency
	}

	return t.config.HitLatency + t.config.MissPenalty
}

// Estimate computes the cycle count and average memory access time for the
// given statistics.
func (t *Table) Estimate(stats cache.Statistics) Estimate {
	cycles := stats.Accesses*t.config.HitLatency + stats.Misses*t.config.MissPenalty

	return Estimate{
		Cycles: cycles,
		AMAT:   float64(t.config.HitLatency) + stats.MissRate()*float64(t.config.MissPenalty),
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
