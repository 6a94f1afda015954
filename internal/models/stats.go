package models

import "time"

// AdjustmentRecord is one computed price adjustment, one per
// (property, price type) application.
type AdjustmentRecord struct {
	Date                   time.Time
	Strategy               Strategy
	PercentChange          float64
	MinPricePercentChange  float64
	BasePricePercentChange float64
}

// OccupancySnapshot is one dated occupancy observation.
type OccupancySnapshot struct {
	Date      time.Time
	SevenDay  float64
	ThirtyDay float64
	SixtyDay  float64
}

// PriceSnapshot is one dated before/after price pair.
type PriceSnapshot struct {
	Date   time.Time
	Type   PriceType
	Before float64
	After  float64
}

// PropertyStatistics aggregates the history of one property for the
// lifetime of the process. Slices are append-ordered, not necessarily
// chronological: replaying the ledger appends most-recent-first, so
// consumers that care about time must sort or filter by Date.
type PropertyStatistics struct {
	OccupancyHistory  []OccupancySnapshot
	PriceHistory      []PriceSnapshot
	AdjustmentHistory []AdjustmentRecord

	// LastOscillationDirection is the sign of the most recent hold
	// oscillation, or 0 when no oscillation has run yet.
	LastOscillationDirection float64

	LastUpdate time.Time
}

// PropertySummary is the per-property aggregate served by the API.
type PropertySummary struct {
	PropertyID       string   `json:"property_id"`
	ChangeCount      int      `json:"change_count"`
	LastChangeDate   string   `json:"last_change_date"`
	LastMinPrice     *float64 `json:"last_min_price"`
	LastBasePrice    *float64 `json:"last_base_price"`
	AvgSevenDay      float64  `json:"avg_seven_day_occupancy"`
	FailedChangeRuns int      `json:"failed_change_runs"`
}

// LedgerStats summarizes the mirror store for the API.
type LedgerStats struct {
	TotalChanges    int    `json:"total_changes"`
	TotalProperties int    `json:"total_properties"`
	TotalFailures   int    `json:"total_failures"`
	LastChangeDate  string `json:"last_change_date"`
}
