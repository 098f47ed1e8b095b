// Package core provides the trace-driven cache simulation loop.
// It wraps a cache model to provide a high-level interface.
package core

import (
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/cachesim/addressing"
	"github.com/sarchlab/cachesim/loader"
	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/latency"
)

// Event describes one simulated reference.
type Event struct {
	// Index is the 0-based position of the reference in the trace.
	Index uint64
	// Fields is the decomposed address.
	Fields addressing.Fields
	// Result is the outcome of the cache access.
	Result cache.AccessResult
	// Latency is the number of cycles the access takes.
	Latency uint64
}

// A Recorder receives every simulated reference.
type Recorder interface {
	Record(event Event) error
}

// Stats holds performance statistics for the core.
type Stats struct {
	cache.Statistics
	latency.Estimate
}

// Core represents a cache fed by a stream of memory references. It is owned
// by a single goroutine; nothing in it is safe for concurrent use.
type Core struct {
	// Cache is the underlying cache model.
	Cache cache.Model

	translator *addressing.Translator
	latency    *latency.Table
	recorder   Recorder
}

// Option configures a Core.
type Option func(*Core)

// WithLatencyTable sets the table used for timing estimates.
func WithLatencyTable(table *latency.Table) Option {
	return func(c *Core) {
		c.latency = table
	}
}

// WithRecorder sends every reference to r.
func WithRecorder(r Recorder) Option {
	return func(c *Core) {
		c.recorder = r
	}
}

// NewCore creates a Core for the given cache configuration.
func NewCore(config cache.Config, opts ...Option) (*Core, error) {
	model, err := cache.NewModel(config)
	if err != nil {
		return nil, err
	}

	c := &Core{
		Cache: model,
		translator: addressing.NewTranslator(
			config.NumCacheSets,
			config.Associativity,
			config.BlockSize,
		),
		latency: latency.NewTable(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Step simulates a single memory reference.
func (c *Core) Step(memAddress int64) (cache.AccessResult, error) {
	index := c.Cache.Stats().Accesses
	fields := c.translator.Translate(memAddress)
	result := c.Cache.Access(fields.BlockAddress)

	if c.recorder != nil {
		err := c.recorder.Record(Event{
			Index:   index,
			Fields:  fields,
			Result:  result,
			Latency: c.latency.AccessLatency(result),
		})
		if err != nil {
			return result, fmt.Errorf("failed to record reference %d: %w", index, err)
		}
	}

	return result, nil
}

// Run simulates every reference src supplies until it reports io.EOF.
// Any other error ends the run; the statistics gathered up to that point are
// returned with it.
func (c *Core) Run(src loader.Source) (Stats, error) {
	for {
		addr, err := src.Next()
		if errors.Is(err, io.EOF) {
			return c.Stats(), nil
		}
		if err != nil {
			return c.Stats(), err
		}

		if _, err := c.Step(addr); err != nil {
			return c.Stats(), err
		}
	}
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	stats := c.Cache.Stats()
	return Stats{
		Statistics: stats,
		Estimate:   c.latency.Estimate(stats),
	}
}

// Reset clears all cache state.
func (c *Core) Reset() {
	c.Cache.Reset()
}
