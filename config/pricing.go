package config

import "rateminder/server/internal/models"

// PricingConfig is the engine's read-only policy surface, loaded once
// from a JSON file and never mutated afterwards. Threshold ordering
// (critical < low < medium < high) is a caller-enforced precondition;
// the engine does not validate it.
type PricingConfig struct {
	// Strategy applied when no occupancy signal or history decides
	Strategy models.Strategy `json:"strategy"`

	OccupancyWeights struct {
		SevenDay  float64 `json:"sevenDay"`
		ThirtyDay float64 `json:"thirtyDay"`
		SixtyDay  float64 `json:"sixtyDay"`
	} `json:"occupancyWeights"`

	OccupancyThresholds struct {
		High     float64 `json:"high"`
		Medium   float64 `json:"medium"`
		Low      float64 `json:"low"`
		Critical float64 `json:"critical"`
	} `json:"occupancyThresholds"`

	Adjustments struct {
		Increase struct {
			Percentage float64 `json:"percentage"`
		} `json:"increase"`
		Decrease struct {
			Percentage float64 `json:"percentage"`
		} `json:"decrease"`
		Hold struct {
			OscillationPercentage float64 `json:"oscillationPercentage"`
		} `json:"hold"`
	} `json:"adjustments"`

	// LogFile is the path the automation layer logs to
	LogFile string `json:"logFile"`

	// Properties lists the listings to process each run
	Properties []PropertyTarget `json:"properties"`
}

// PropertyTarget identifies one managed listing on the pricing platform.
type PropertyTarget struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// WeightedOccupancy blends the three trailing windows of a reading with
// the configured weights.
func (c *PricingConfig) WeightedOccupancy(occ models.OccupancyReading) float64 {
	w := c.OccupancyWeights
	return occ.SevenDay*w.SevenDay + occ.ThirtyDay*w.ThirtyDay + occ.SixtyDay*w.SixtyDay
}
