package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rateminder/server/internal/models"
)

func TestCompute_IncreaseScaling(t *testing.T) {
	tests := []struct {
		name          string
		occ           models.OccupancyReading
		currentPrice  float64
		expectedPct   float64
		expectedPrice float64
	}{
		{
			name:          "above high threshold scales by 1.2",
			occ:           occ(0.90, 0.80, 0.75),
			currentPrice:  150,
			expectedPct:   2.4,
			expectedPrice: 154,
		},
		{
			name:          "near full occupancy scales by 1.5",
			occ:           occ(0.96, 0.80, 0.75),
			currentPrice:  150,
			expectedPct:   3,
			expectedPrice: 155, // round(150 * 1.03) = round(154.5)
		},
		{
			name:          "plain increase below high threshold",
			occ:           occ(0.80, 0.80, 0.75),
			currentPrice:  100,
			expectedPct:   2,
			expectedPrice: 102,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine(nil)
			d, ok := e.Compute("prop-1", tt.currentPrice, tt.occ, models.PriceTypeBase, models.StrategyIncrease, wednesday)

			assert.True(t, ok)
			assert.InDelta(t, tt.expectedPct, d.Adjustment.PercentChange, 1e-9)
			assert.Equal(t, tt.expectedPrice, d.NewPrice)
			assert.Equal(t, models.StrategyIncrease, d.Adjustment.Strategy)
		})
	}
}

func TestCompute_DecreaseScaling(t *testing.T) {
	tests := []struct {
		name          string
		occ           models.OccupancyReading
		currentPrice  float64
		expectedPct   float64
		expectedPrice float64
	}{
		{
			name:          "critical weighted occupancy scales by 1.5",
			occ:           occ(0.15, 0.15, 0.15),
			currentPrice:  100,
			expectedPct:   -3,
			expectedPrice: 97,
		},
		{
			name:          "cold week and month scales by 1.2",
			occ:           occ(0.25, 0.35, 0.30),
			currentPrice:  100,
			expectedPct:   -2.4,
			expectedPrice: 98, // round(97.6)
		},
		{
			name:          "plain decrease",
			occ:           occ(0.35, 0.45, 0.45),
			currentPrice:  100,
			expectedPct:   -2,
			expectedPrice: 98,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine(nil)
			d, ok := e.Compute("prop-1", tt.currentPrice, tt.occ, models.PriceTypeBase, models.StrategyDecrease, wednesday)

			assert.True(t, ok)
			assert.InDelta(t, tt.expectedPct, d.Adjustment.PercentChange, 1e-9)
			assert.Equal(t, tt.expectedPrice, d.NewPrice)
		})
	}
}

func TestCompute_WeeklyIncreaseCap(t *testing.T) {
	e := testEngine(nil)
	hot := occ(0.90, 0.85, 0.80)
	price := 150.0

	var applied float64
	for i := 0; i < 5; i++ {
		d, ok := e.Compute("prop-1", price, hot, models.PriceTypeBase, models.StrategyIncrease, wednesday)
		assert.True(t, ok)
		e.Apply("prop-1", hot, models.PriceTypeBase, price, d)
		price = d.NewPrice

		if d.Adjustment.PercentChange > 0 {
			applied += d.Adjustment.PercentChange
		}
	}

	// Two 2.4% moves fit under the cap; the third would leave only
	// 0.2%, which flips to the corrective -1% instead of a no-op.
	assert.LessOrEqual(t, applied, 5.0)
	assert.InDelta(t, 4.8, applied, 1e-9)

	adjustments := e.Statistics("prop-1").AdjustmentHistory
	assert.InDelta(t, 2.4, adjustments[0].PercentChange, 1e-9)
	assert.InDelta(t, 2.4, adjustments[1].PercentChange, 1e-9)
	assert.InDelta(t, -1, adjustments[2].PercentChange, 1e-9)
}

func TestCompute_MinPriceFloor(t *testing.T) {
	e := testEngine([]models.ChangeRecord{
		{PropertyID: "prop-1", Date: "2026-08-25", BasePrice: &models.PriceChange{Before: 195, After: 200}},
	})

	d, ok := e.Compute("prop-1", 190, occ(0.90, 0.80, 0.75), models.PriceTypeMin, models.StrategyIncrease, wednesday)

	// The raw computation lands at 195; the 80%-of-base floor wins.
	assert.True(t, ok)
	assert.Equal(t, 160.0, d.NewPrice)
}

func TestCompute_MinPriceFloorWithoutBaseHistory(t *testing.T) {
	e := testEngine(nil)

	d, ok := e.Compute("prop-1", 190, occ(0.90, 0.80, 0.75), models.PriceTypeMin, models.StrategyIncrease, wednesday)

	assert.True(t, ok)
	assert.Equal(t, 195.0, d.NewPrice)
}

func TestCompute_HoldOscillation(t *testing.T) {
	t.Run("alternates direction between calls", func(t *testing.T) {
		e := testEngine(nil)
		inBand := occ(0.60, 0.60, 0.60)

		first, ok := e.Compute("prop-1", 100, inBand, models.PriceTypeBase, models.StrategyHold, wednesday)
		assert.True(t, ok)
		e.Apply("prop-1", inBand, models.PriceTypeBase, 100, first)

		second, ok := e.Compute("prop-1", first.NewPrice, inBand, models.PriceTypeBase, models.StrategyHold, wednesday)
		assert.True(t, ok)

		assert.Positive(t, first.Adjustment.PercentChange)
		assert.Negative(t, second.Adjustment.PercentChange)
		assert.InDelta(t, 0.5, first.Adjustment.PercentChange, 1e-9)
		assert.InDelta(t, -0.5, second.Adjustment.PercentChange, 1e-9)
	})

	t.Run("weekend skews the oscillation toward revenue", func(t *testing.T) {
		saturday := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
		inBand := occ(0.60, 0.60, 0.60)

		e := testEngine(nil)
		up, ok := e.Compute("prop-1", 100, inBand, models.PriceTypeBase, models.StrategyHold, saturday)
		assert.True(t, ok)
		e.Apply("prop-1", inBand, models.PriceTypeBase, 100, up)

		down, ok := e.Compute("prop-1", up.NewPrice, inBand, models.PriceTypeBase, models.StrategyHold, saturday)
		assert.True(t, ok)

		assert.InDelta(t, 0.6, up.Adjustment.PercentChange, 1e-9)    // 0.5 * 1.2
		assert.InDelta(t, -0.4, down.Adjustment.PercentChange, 1e-9) // 0.5 * 0.8
	})

	t.Run("oscillation breaching the weekly guard flips to minus one", func(t *testing.T) {
		e := testEngine([]models.ChangeRecord{
			{PropertyID: "prop-1", Date: "2026-08-25", BasePrice: &models.PriceChange{Before: 100, After: 104.2}},
		})

		d, ok := e.Compute("prop-1", 104, occ(0.60, 0.60, 0.60), models.PriceTypeBase, models.StrategyHold, wednesday)

		assert.True(t, ok)
		assert.InDelta(t, -1, d.Adjustment.PercentChange, 1e-9)
	})

	t.Run("low weighted occupancy overrides to softened decrease", func(t *testing.T) {
		e := testEngine(nil)
		d, ok := e.Compute("prop-1", 100, occ(0.30, 0.30, 0.30), models.PriceTypeBase, models.StrategyHold, wednesday)

		assert.True(t, ok)
		assert.InDelta(t, -1.4, d.Adjustment.PercentChange, 1e-9) // 2 * 0.7
		assert.Zero(t, d.OscillationDirection)
	})

	t.Run("high weighted occupancy overrides to softened capped increase", func(t *testing.T) {
		e := testEngine(nil)
		d, ok := e.Compute("prop-1", 100, occ(0.90, 0.90, 0.90), models.PriceTypeBase, models.StrategyHold, wednesday)

		assert.True(t, ok)
		assert.InDelta(t, 1.4, d.Adjustment.PercentChange, 1e-9) // 2 * 0.7
		assert.Zero(t, d.OscillationDirection)
	})
}

func TestCompute_UnknownStrategy(t *testing.T) {
	e := testEngine(nil)

	d, ok := e.Compute("prop-1", 120, occ(0.60, 0.60, 0.60), models.PriceTypeBase, models.Strategy("freeze"), wednesday)

	assert.False(t, ok)
	assert.Equal(t, 120.0, d.NewPrice)
	assert.Empty(t, e.PendingChanges())
}

func TestApply_PendingChanges(t *testing.T) {
	e := testEngine(nil)
	reading := occ(0.90, 0.80, 0.75)

	minDecision, ok := e.Compute("prop-1", 100, reading, models.PriceTypeMin, models.StrategyIncrease, wednesday)
	assert.True(t, ok)
	e.Apply("prop-1", reading, models.PriceTypeMin, 100, minDecision)

	baseDecision, ok := e.Compute("prop-1", 150, reading, models.PriceTypeBase, models.StrategyIncrease, wednesday)
	assert.True(t, ok)
	e.Apply("prop-1", reading, models.PriceTypeBase, 150, baseDecision)

	changes := e.PendingChanges()
	assert.Len(t, changes, 1)

	rec := changes[0]
	assert.Equal(t, "prop-1", rec.PropertyID)
	assert.Equal(t, "2026-08-26", rec.Date)
	assert.NotNil(t, rec.Occupancy)
	assert.NotNil(t, rec.MinPrice)
	assert.NotNil(t, rec.BasePrice)
	assert.Equal(t, 100.0, rec.MinPrice.Before)
	assert.Equal(t, minDecision.NewPrice, rec.MinPrice.After)
	assert.Equal(t, 150.0, rec.BasePrice.Before)

	e.ClearPending()
	assert.Empty(t, e.PendingChanges())

	// Statistics survive the buffer clear.
	assert.NotNil(t, e.Statistics("prop-1"))
	assert.Len(t, e.Statistics("prop-1").AdjustmentHistory, 2)
}

func TestRecordFailure(t *testing.T) {
	e := testEngine(nil)
	e.RecordFailure("prop-9", wednesday, assert.AnError)

	changes := e.PendingChanges()
	assert.Len(t, changes, 1)
	assert.Equal(t, assert.AnError.Error(), changes[0].Error)
	assert.Nil(t, e.Statistics("prop-9"))
}
