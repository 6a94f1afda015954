package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadPricingConfig reads and parses the pricing policy file.
func LoadPricingConfig(path string) (*PricingConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing config: %v", err)
	}

	var cfg PricingConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pricing config: %v", err)
	}

	return &cfg, nil
}

// DefaultPricingConfig returns the policy used when no file is supplied.
// The thresholds follow the platform's occupancy bands and satisfy the
// critical < low < medium < high ordering the engine assumes.
func DefaultPricingConfig() *PricingConfig {
	cfg := &PricingConfig{}
	cfg.Strategy = "hold"
	cfg.OccupancyWeights.SevenDay = 0.5
	cfg.OccupancyWeights.ThirtyDay = 0.3
	cfg.OccupancyWeights.SixtyDay = 0.2
	cfg.OccupancyThresholds.High = 0.85
	cfg.OccupancyThresholds.Medium = 0.50
	cfg.OccupancyThresholds.Low = 0.40
	cfg.OccupancyThresholds.Critical = 0.20
	cfg.Adjustments.Increase.Percentage = 2
	cfg.Adjustments.Decrease.Percentage = 2
	cfg.Adjustments.Hold.OscillationPercentage = 0.5
	return cfg
}
