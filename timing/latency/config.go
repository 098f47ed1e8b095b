package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the latencies used to turn hit and miss counts into a
// cycle estimate.
type TimingConfig struct {
	// HitLatency is the number of cycles to service a hit.
	// Default: 1 cycle.
	HitLatency uint64 `json:"hit_latency"`

	// MissPenalty is the additional cycles a miss spends fetching the block
	// from the next level.
	// Default: 100 cycles.
	MissPenalty uint64 `json:"miss_penalty"`
}

// DefaultTimingConfig returns a TimingConfig with textbook default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		HitLatency:  1,
		MissPenalty: 100,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that the latency values are usable.
func (c *TimingConfig) Validate() error {
	if c.HitLatency == 0 {
		return fmt.Errorf("hit_latency must be > 0")
	}
	return nil
}

// Clone returns a copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
