package engine

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"rateminder/server/internal/history"
	"rateminder/server/internal/models"
)

// momentum summarizes the trailing-7-day adjustment activity for one
// property, independent of the occupancy signals.
type momentum struct {
	// consecutiveIncreaseSum is the cumulative percent change of the
	// unbroken run of increases ending at the most recent adjustment.
	consecutiveIncreaseSum float64

	// consecutiveDecreases counts the unbroken run of decreases ending
	// at the most recent adjustment.
	consecutiveDecreases int

	// totalIncrease and totalDecrease sum all positive and negative
	// percent changes in the window regardless of run continuity.
	totalIncrease float64
	totalDecrease float64
}

// Classify decides the categorical strategy for a property. The
// anti-whiplash momentum guard runs first and can force hold no matter
// how extreme occupancy looks; it bounds the rate of consecutive
// same-direction moves so pricing never drifts in a runaway loop.
func (e *Engine) Classify(propertyID string, occ models.OccupancyReading, now time.Time) models.Strategy {
	st := e.stats[propertyID]

	m := recentMomentum(st, now)
	if m.consecutiveIncreaseSum >= 3 || m.totalIncrease >= 4 || m.consecutiveDecreases >= 3 {
		e.logger.WithFields(logrus.Fields{
			"property_id":          propertyID,
			"run_increase_sum":     m.consecutiveIncreaseSum,
			"week_increase_sum":    m.totalIncrease,
			"consecutive_declines": m.consecutiveDecreases,
		}).Info("Momentum guard forcing hold")
		return models.StrategyHold
	}

	th := e.cfg.OccupancyThresholds
	weighted := e.cfg.WeightedOccupancy(occ)

	if occ.SevenDay >= th.High {
		return models.StrategyIncrease
	}
	if weighted < th.Low && occ.SevenDay < th.Medium {
		return models.StrategyDecrease
	}

	if st != nil && len(st.OccupancyHistory) > 0 {
		trend := history.Trend(st.OccupancyHistory)
		switch {
		case trend > 5 || occ.SevenDay > 0.7:
			return models.StrategyIncrease
		case trend < -3 || weighted < 0.45:
			return models.StrategyDecrease
		default:
			return models.StrategyHold
		}
	}

	return e.cfg.Strategy
}

// recentMomentum walks the most recent up-to-7 adjustments inside the
// trailing 7 calendar days. The consecutive run breaks on the first
// record whose direction disagrees or whose strategy was hold; the
// window totals accumulate over every record in the window.
func recentMomentum(st *models.PropertyStatistics, now time.Time) momentum {
	var m momentum
	if st == nil || len(st.AdjustmentHistory) == 0 {
		return m
	}

	recent := windowedAdjustments(st.AdjustmentHistory, now)
	for _, adj := range recent {
		if adj.PercentChange > 0 {
			m.totalIncrease += adj.PercentChange
		} else if adj.PercentChange < 0 {
			m.totalDecrease += -adj.PercentChange
		}
	}

	start := len(recent) - 7
	if start < 0 {
		start = 0
	}
	run := recent[start:]

	var direction float64
	for i := len(run) - 1; i >= 0; i-- {
		adj := run[i]
		if adj.Strategy == models.StrategyHold || adj.PercentChange == 0 {
			break
		}

		s := sign(adj.PercentChange)
		if direction == 0 {
			direction = s
		}
		if s != direction {
			break
		}

		if direction > 0 {
			m.consecutiveIncreaseSum += adj.PercentChange
		} else {
			m.consecutiveDecreases++
		}
	}

	return m
}

// windowedAdjustments returns the adjustments dated within the trailing
// 7 calendar days, sorted chronologically. Replayed history is appended
// most-recent-first while live history is appended in run order, so the
// slice must be sorted rather than trusted.
func windowedAdjustments(adjustments []models.AdjustmentRecord, now time.Time) []models.AdjustmentRecord {
	cutoff := now.AddDate(0, 0, -7)

	var recent []models.AdjustmentRecord
	for _, adj := range adjustments {
		if !adj.Date.Before(cutoff) && !adj.Date.After(now) {
			recent = append(recent, adj)
		}
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Date.Before(recent[j].Date)
	})
	return recent
}

func sign(n float64) float64 {
	if n < 0 {
		return -1
	}
	if n > 0 {
		return 1
	}
	return 0
}
