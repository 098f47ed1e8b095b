package harness

import (
	"fmt"

	"github.com/sarchlab/cachesim/loader"
)

// GetWorkloads returns the standard set of synthetic workloads. Each one
// targets a specific cache behavior and holds the default 10,000 references.
func GetWorkloads() ([]Workload, error) {
	specs := []struct {
		name        string
		description string
		config      loader.GeneratorConfig
	}{
		{
			name:        "sequential",
			description: "consecutive words - every block is touched once per word",
			config:      generator(loader.PatternSequential, 4, 0),
		},
		{
			name:        "strided_64",
			description: "one reference per 16-word stride - no spatial reuse",
			config:      generator(loader.PatternStrided, 64, 0),
		},
		{
			name:        "loop_1k",
			description: "1 KiB working set walked repeatedly - fits the larger caches",
			config:      generator(loader.PatternLoop, 4, 1024),
		},
		{
			name:        "loop_conflict",
			description: "working set whose blocks collide in a handful of sets",
			config:      generator(loader.PatternLoop, 512, 4096),
		},
		{
			name:        "random_16k",
			description: "uniform random references over 16 KiB",
			config:      generator(loader.PatternRandom, 0, 16384),
		},
	}

	workloads := make([]Workload, 0, len(specs))
	for _, s := range specs {
		addrs, err := loader.Generate(s.config)
		if err != nil {
			return nil, fmt.Errorf("failed to generate workload %s: %w", s.name, err)
		}

		workloads = append(workloads, Workload{
			Name:        s.name,
			Description: s.description,
			Addresses:   addrs,
		})
	}

	return workloads, nil
}

func generator(pattern loader.Pattern, stride, span int64) loader.GeneratorConfig {
	config := loader.DefaultGeneratorConfig()
	config.Pattern = pattern
	config.Stride = stride
	config.Span = span

	return config
}
