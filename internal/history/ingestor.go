// Package history turns the flat change ledger into per-property
// statistics and derives short-term occupancy momentum from them.
package history

import (
	"time"

	"rateminder/server/internal/models"
)

// BuildStatistics groups flat ledger records into one PropertyStatistics
// aggregate per property. Records are consumed in ledger order (most
// recent first on disk), so the resulting history slices are not
// chronologically ascending; anything date-sensitive downstream sorts
// explicitly. Records carrying an error are skipped entirely, and
// occupancy/price entries are only added when present on the record.
func BuildStatistics(records []models.ChangeRecord) map[string]*models.PropertyStatistics {
	stats := make(map[string]*models.PropertyStatistics)

	for _, rec := range records {
		if rec.Error != "" || rec.PropertyID == "" {
			continue
		}

		st, ok := stats[rec.PropertyID]
		if !ok {
			st = &models.PropertyStatistics{}
			stats[rec.PropertyID] = st
		}

		date, err := time.Parse(models.DateLayout, rec.Date)
		if err != nil {
			// Undated records cannot participate in any windowed
			// computation; drop them rather than guess.
			continue
		}

		if rec.Occupancy != nil {
			st.OccupancyHistory = append(st.OccupancyHistory, models.OccupancySnapshot{
				Date:      date,
				SevenDay:  rec.Occupancy.SevenDay,
				ThirtyDay: rec.Occupancy.ThirtyDay,
				SixtyDay:  rec.Occupancy.SixtyDay,
			})
		}
		if rec.MinPrice != nil {
			st.PriceHistory = append(st.PriceHistory, models.PriceSnapshot{
				Date:   date,
				Type:   models.PriceTypeMin,
				Before: rec.MinPrice.Before,
				After:  rec.MinPrice.After,
			})
			st.AdjustmentHistory = append(st.AdjustmentHistory,
				replayedAdjustment(date, models.PriceTypeMin, rec.MinPrice))
		}
		if rec.BasePrice != nil {
			st.PriceHistory = append(st.PriceHistory, models.PriceSnapshot{
				Date:   date,
				Type:   models.PriceTypeBase,
				Before: rec.BasePrice.Before,
				After:  rec.BasePrice.After,
			})
			st.AdjustmentHistory = append(st.AdjustmentHistory,
				replayedAdjustment(date, models.PriceTypeBase, rec.BasePrice))
		}

		if date.After(st.LastUpdate) {
			st.LastUpdate = date
		}
	}

	return stats
}

// replayedAdjustment reconstructs an adjustment record from a persisted
// before/after pair. Only the change records are durable, so percent
// changes and the strategy direction are re-derived when the ledger is
// replayed at startup.
func replayedAdjustment(date time.Time, pt models.PriceType, pc *models.PriceChange) models.AdjustmentRecord {
	var pct float64
	if pc.Before > 0 {
		pct = (pc.After - pc.Before) / pc.Before * 100
	}

	strategy := models.StrategyHold
	switch {
	case pct > 0:
		strategy = models.StrategyIncrease
	case pct < 0:
		strategy = models.StrategyDecrease
	}

	rec := models.AdjustmentRecord{
		Date:          date,
		Strategy:      strategy,
		PercentChange: pct,
	}
	switch pt {
	case models.PriceTypeMin:
		rec.MinPricePercentChange = pct
	case models.PriceTypeBase:
		rec.BasePricePercentChange = pct
	}
	return rec
}
