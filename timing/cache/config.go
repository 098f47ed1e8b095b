package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Engine selects the implementation that models the cache.
type Engine string

// Available engines.
const (
	// EngineNative is the built-in model with per-associativity replacement.
	EngineNative Engine = "native"
	// EngineAkita replays accesses through an Akita cache directory with an
	// LRU victim finder.
	EngineAkita Engine = "akita"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvNumCacheSets  = "CACHESIM_SETS"
	EnvAssociativity = "CACHESIM_ASSOC"
	EnvBlockSize     = "CACHESIM_BLOCK_SIZE"
	EnvEngine        = "CACHESIM_ENGINE"
)

var (
	// ErrInvalidConfig is returned for a cache geometry that cannot be built.
	ErrInvalidConfig = errors.New("invalid cache configuration")
	// ErrUnsupportedAssociativity is returned when the native engine is asked
	// for an associativity other than 1, 2 or 4.
	ErrUnsupportedAssociativity = errors.New("unsupported associativity")
)

// Config holds cache configuration parameters.
type Config struct {
	// NumCacheSets is the total number of lines in the cache. The lines are
	// grouped into NumCacheSets/Associativity sets.
	NumCacheSets int `json:"num_cache_sets"`

	// Associativity is the number of ways per set (1, 2 or 4 for the native
	// engine).
	Associativity int `json:"associativity"`

	// BlockSize is the number of words per block.
	BlockSize int `json:"block_size"`

	// Engine picks the cache implementation. Empty means EngineNative.
	Engine Engine `json:"engine,omitempty"`
}

// DefaultConfig returns a 32-line, 4-way cache with single-word blocks.
func DefaultConfig() Config {
	return Config{
		NumCacheSets:  32,
		Associativity: 4,
		BlockSize:     1,
		Engine:        EngineNative,
	}
}

// NumSets returns the number of sets the lines are organized into.
func (c Config) NumSets() int {
	if c.Associativity <= 0 {
		return 0
	}

	return c.NumCacheSets / c.Associativity
}

// EngineOrDefault returns the configured engine, treating empty as native.
func (c Config) EngineOrDefault() Engine {
	if c.Engine == "" {
		return EngineNative
	}

	return c.Engine
}

// Validate checks that the configuration describes a cache that can be built.
func (c Config) Validate() error {
	if c.NumCacheSets <= 0 {
		return fmt.Errorf("%w: num_cache_sets must be > 0, got %d",
			ErrInvalidConfig, c.NumCacheSets)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("%w: associativity must be > 0, got %d",
			ErrInvalidConfig, c.Associativity)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block_size must be > 0, got %d",
			ErrInvalidConfig, c.BlockSize)
	}
	if c.NumSets() < 1 {
		return fmt.Errorf("%w: %d lines cannot form a single %d-way set",
			ErrInvalidConfig, c.NumCacheSets, c.Associativity)
	}

	switch c.EngineOrDefault() {
	case EngineNative:
		switch c.Associativity {
		case 1, 2, 4:
		default:
			return fmt.Errorf("%w: %d (native engine supports 1, 2 or 4)",
				ErrUnsupportedAssociativity, c.Associativity)
		}
	case EngineAkita:
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrInvalidConfig, c.Engine)
	}

	return nil
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read cache config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse cache config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields of config with any CACHESIM_* environment
// variables that are set.
func ApplyEnv(config *Config) error {
	ints := []struct {
		name  string
		field *int
	}{
		{EnvNumCacheSets, &config.NumCacheSets},
		{EnvAssociativity, &config.Associativity},
		{EnvBlockSize, &config.BlockSize},
	}

	for _, v := range ints {
		raw, ok := os.LookupEnv(v.name)
		if !ok || raw == "" {
			continue
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer",
				ErrInvalidConfig, v.name, raw)
		}
		*v.field = n
	}

	if raw, ok := os.LookupEnv(EnvEngine); ok && raw != "" {
		config.Engine = Engine(raw)
	}

	return nil
}
