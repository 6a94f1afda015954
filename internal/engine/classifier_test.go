package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"rateminder/server/config"
	"rateminder/server/internal/models"
)

func testPricingConfig() *config.PricingConfig {
	cfg := &config.PricingConfig{}
	cfg.Strategy = models.StrategyHold
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

func testEngine(records []models.ChangeRecord) *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(testPricingConfig(), records, logger)
}

// Wednesday, so no weekend scaling interferes.
var wednesday = time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

func occ(seven, thirty, sixty float64) models.OccupancyReading {
	return models.OccupancyReading{SevenDay: seven, ThirtyDay: thirty, SixtyDay: sixty}
}

func TestClassify_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		occ      models.OccupancyReading
		expected models.Strategy
	}{
		{
			name:     "hot seven day window",
			occ:      occ(0.90, 0.80, 0.75),
			expected: models.StrategyIncrease,
		},
		{
			name:     "cold across all windows",
			occ:      occ(0.10, 0.10, 0.10),
			expected: models.StrategyDecrease,
		},
		{
			name:     "mid occupancy falls back to configured default",
			occ:      occ(0.60, 0.60, 0.60),
			expected: models.StrategyHold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine(nil)
			assert.Equal(t, tt.expected, e.Classify("prop-1", tt.occ, wednesday))
		})
	}
}

func TestClassify_TrendRefinement(t *testing.T) {
	reading := func(seven float64) *models.OccupancyReading {
		return &models.OccupancyReading{SevenDay: seven, ThirtyDay: seven, SixtyDay: seven}
	}

	t.Run("rising trend promotes increase", func(t *testing.T) {
		e := testEngine([]models.ChangeRecord{
			{PropertyID: "prop-1", Date: "2026-08-25", Occupancy: reading(0.66)},
			{PropertyID: "prop-1", Date: "2026-08-20", Occupancy: reading(0.50)},
		})

		// Mid occupancy alone would fall through to hold; the +16pt
		// trend tips it to increase.
		assert.Equal(t, models.StrategyIncrease, e.Classify("prop-1", occ(0.60, 0.60, 0.60), wednesday))
	})

	t.Run("falling trend promotes decrease", func(t *testing.T) {
		e := testEngine([]models.ChangeRecord{
			{PropertyID: "prop-1", Date: "2026-08-25", Occupancy: reading(0.50)},
			{PropertyID: "prop-1", Date: "2026-08-20", Occupancy: reading(0.62)},
		})

		assert.Equal(t, models.StrategyDecrease, e.Classify("prop-1", occ(0.55, 0.55, 0.55), wednesday))
	})

	t.Run("flat trend with history holds", func(t *testing.T) {
		e := testEngine([]models.ChangeRecord{
			{PropertyID: "prop-1", Date: "2026-08-25", Occupancy: reading(0.60)},
			{PropertyID: "prop-1", Date: "2026-08-20", Occupancy: reading(0.60)},
		})

		assert.Equal(t, models.StrategyHold, e.Classify("prop-1", occ(0.60, 0.62, 0.61), wednesday))
	})

	t.Run("weak blended occupancy with history decreases", func(t *testing.T) {
		e := testEngine([]models.ChangeRecord{
			{PropertyID: "prop-1", Date: "2026-08-25", Occupancy: reading(0.45)},
			{PropertyID: "prop-1", Date: "2026-08-20", Occupancy: reading(0.45)},
		})

		// Weighted 0.425 sits under the 0.45 refinement bar.
		assert.Equal(t, models.StrategyDecrease, e.Classify("prop-1", occ(0.45, 0.40, 0.40), wednesday))
	})
}

func TestClassify_MomentumGuard(t *testing.T) {
	apply := func(e *Engine, strategy models.Strategy, reading models.OccupancyReading, price float64) float64 {
		d, ok := e.Compute("prop-1", price, reading, models.PriceTypeBase, strategy, wednesday)
		assert.True(t, ok)
		e.Apply("prop-1", reading, models.PriceTypeBase, price, d)
		return d.NewPrice
	}

	t.Run("three consecutive decreases force hold", func(t *testing.T) {
		e := testEngine(nil)
		price := 100.0
		cold := occ(0.10, 0.10, 0.10)
		for i := 0; i < 3; i++ {
			price = apply(e, models.StrategyDecrease, cold, price)
		}

		// Even a fully booked listing holds after the decrease streak.
		assert.Equal(t, models.StrategyHold, e.Classify("prop-1", occ(0.99, 0.99, 0.99), wednesday))
	})

	t.Run("consecutive increase run past three percent forces hold", func(t *testing.T) {
		e := testEngine(nil)
		price := 100.0
		hot := occ(0.90, 0.85, 0.80)
		price = apply(e, models.StrategyIncrease, hot, price)
		apply(e, models.StrategyIncrease, hot, price)

		assert.Equal(t, models.StrategyHold, e.Classify("prop-1", hot, wednesday))
	})

	t.Run("broken increase run still trips the weekly total", func(t *testing.T) {
		e := testEngine([]models.ChangeRecord{
			{PropertyID: "prop-1", Date: "2026-08-23", BasePrice: &models.PriceChange{Before: 100, After: 102.5}},
			{PropertyID: "prop-1", Date: "2026-08-24", BasePrice: &models.PriceChange{Before: 100, After: 99}},
			{PropertyID: "prop-1", Date: "2026-08-25", BasePrice: &models.PriceChange{Before: 100, After: 102}},
		})

		// The decrease resets the consecutive run at 2%, but the window
		// still saw +4.5% of increases in total.
		assert.Equal(t, models.StrategyHold, e.Classify("prop-1", occ(0.99, 0.99, 0.99), wednesday))
	})

	t.Run("increases older than the last seven adjustments do not extend the run", func(t *testing.T) {
		var records []models.ChangeRecord
		for day := 19; day <= 26; day++ {
			records = append(records, models.ChangeRecord{
				PropertyID: "prop-1",
				Date:       fmt.Sprintf("2026-08-%02d", day),
				BasePrice:  &models.PriceChange{Before: 100, After: 100.4},
			})
		}
		e := testEngine(records)

		// Eight +0.4% steps sum to 3.2%, under the 4% window total, and
		// only the last seven count toward the consecutive run (2.8%).
		assert.Equal(t, models.StrategyIncrease, e.Classify("prop-1", occ(0.90, 0.80, 0.75), wednesday))
	})

	t.Run("old adjustments outside the window do not trip the guard", func(t *testing.T) {
		e := testEngine([]models.ChangeRecord{
			{PropertyID: "prop-1", Date: "2026-08-01", BasePrice: &models.PriceChange{Before: 100, After: 97}},
			{PropertyID: "prop-1", Date: "2026-08-02", BasePrice: &models.PriceChange{Before: 97, After: 94}},
			{PropertyID: "prop-1", Date: "2026-08-03", BasePrice: &models.PriceChange{Before: 94, After: 91}},
		})

		assert.Equal(t, models.StrategyIncrease, e.Classify("prop-1", occ(0.90, 0.80, 0.75), wednesday))
	})
}
