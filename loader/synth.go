package loader

import (
	"fmt"
	"math/rand"
)

// Pattern names a synthetic access pattern.
type Pattern string

// Synthetic access patterns.
const (
	// PatternSequential walks consecutive words.
	PatternSequential Pattern = "sequential"
	// PatternStrided advances by a fixed stride.
	PatternStrided Pattern = "strided"
	// PatternLoop repeatedly strides through a working set of Span bytes.
	PatternLoop Pattern = "loop"
	// PatternRandom picks addresses uniformly in [Base, Base+Span).
	PatternRandom Pattern = "random"
)

// DefaultTraceLength is the number of references a generated trace holds
// unless told otherwise. The legacy hit-rate report assumes this length.
const DefaultTraceLength = 10000

// GeneratorConfig describes a synthetic trace.
type GeneratorConfig struct {
	Pattern Pattern
	Count   int
	Base    int64
	Stride  int64
	Span    int64
	Seed    int64
}

// DefaultGeneratorConfig returns a sequential 10,000-reference trace.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Pattern: PatternSequential,
		Count:   DefaultTraceLength,
		Stride:  4,
		Span:    4096,
		Seed:    1,
	}
}

// Generate produces the addresses described by config.
func Generate(config GeneratorConfig) ([]int64, error) {
	if config.Count < 0 {
		return nil, fmt.Errorf("trace length must be >= 0, got %d", config.Count)
	}

	addrs := make([]int64, config.Count)

	switch config.Pattern {
	case PatternSequential:
		for i := range addrs {
			addrs[i] = config.Base + int64(i)*4
		}
	case PatternStrided:
		for i := range addrs {
			addrs[i] = config.Base + int64(i)*config.Stride
		}
	case PatternLoop:
		if config.Span <= 0 {
			return nil, fmt.Errorf("loop pattern needs a positive span, got %d", config.Span)
		}
		for i := range addrs {
			addrs[i] = config.Base + (int64(i)*config.Stride)%config.Span
		}
	case PatternRandom:
		if config.Span <= 0 {
			return nil, fmt.Errorf("random pattern needs a positive span, got %d", config.Span)
		}
		rng := rand.New(rand.NewSource(config.Seed))
		for i := range addrs {
			addrs[i] = config.Base + rng.Int63n(config.Span)
		}
	default:
		return nil, fmt.Errorf("unknown pattern %q", config.Pattern)
	}

	return addrs, nil
}
