package models

// DateLayout is the calendar-date format used throughout the ledger.
const DateLayout = "2006-01-02"

// Strategy is the categorical pricing decision for a property.
type Strategy string

const (
	StrategyIncrease Strategy = "increase"
	StrategyDecrease Strategy = "decrease"
	StrategyHold     Strategy = "hold"
)

// PriceType distinguishes the two prices managed per listing.
type PriceType string

const (
	PriceTypeMin  PriceType = "min"
	PriceTypeBase PriceType = "base"
)

// OccupancyReading holds canonical occupancy fractions in [0,1].
// Raw platform values (percentage strings, "N/A") are normalized
// at the collector boundary and never stored.
type OccupancyReading struct {
	SevenDay  float64 `json:"sevenDay"`
	ThirtyDay float64 `json:"thirtyDay"`
	SixtyDay  float64 `json:"sixtyDay"`
}

// PriceChange is a before/after pair for one price type.
type PriceChange struct {
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// ChangeRecord is one persisted unit of the change ledger.
// A record with Error set documents a failed property and is
// excluded from statistics aggregation.
type ChangeRecord struct {
	PropertyID string            `json:"propertyId"`
	Date       string            `json:"date"`
	Occupancy  *OccupancyReading `json:"occupancy,omitempty"`
	MinPrice   *PriceChange      `json:"minPrice,omitempty"`
	BasePrice  *PriceChange      `json:"basePrice,omitempty"`
	Error      string            `json:"error,omitempty"`
}
