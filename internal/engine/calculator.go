package engine

import (
	"math"
	"time"

	"rateminder/server/internal/models"
)

// Decision is the pure output of one adjustment computation. Nothing is
// committed until the caller passes it to Apply.
type Decision struct {
	NewPrice   float64
	Adjustment models.AdjustmentRecord

	// OscillationDirection carries the sign of an applied hold
	// oscillation, 0 when the oscillation branch did not run.
	OscillationDirection float64
}

// weeklyIncreaseCap bounds the cumulative positive percent change per
// price type inside any rolling 7-day window.
const weeklyIncreaseCap = 5.0

// holdOscillationCap bounds the positive sum a hold oscillation may
// push the trailing week to before it flips to a corrective decrease.
const holdOscillationCap = 4.5

// Compute derives the new price for a property and price type under the
// given strategy. It is side-effect free: statistics and the run buffer
// are only touched by Apply. The returned bool is false for an
// unrecognized strategy, in which case the price is unchanged and no
// record should be committed.
func (e *Engine) Compute(propertyID string, currentPrice float64, occ models.OccupancyReading, pt models.PriceType, strategy models.Strategy, now time.Time) (Decision, bool) {
	st := e.stats[propertyID]
	th := e.cfg.OccupancyThresholds
	adj := e.cfg.Adjustments
	weighted := e.cfg.WeightedOccupancy(occ)

	var pct, oscillation float64

	switch strategy {
	case models.StrategyIncrease:
		pct = capIncrease(st, pt, e.increaseMagnitude(occ), now)

	case models.StrategyDecrease:
		pct = -e.decreaseMagnitude(occ, weighted)

	case models.StrategyHold:
		switch {
		case weighted < th.Low:
			// Too empty to idle: a softened decrease instead.
			pct = -adj.Decrease.Percentage * 0.7
		case weighted > th.High:
			// Too full to idle: a softened increase, still capped.
			pct = capIncrease(st, pt, adj.Increase.Percentage*0.7, now)
		default:
			pct, oscillation = oscillate(st, pt, adj.Hold.OscillationPercentage, now)
		}

	default:
		return Decision{NewPrice: currentPrice}, false
	}

	price := math.Round(currentPrice + currentPrice*pct/100)
	if price < 0 {
		price = 0
	}

	// The min price must stay below 80% of the most recent base price;
	// this clamp is always the final step.
	if pt == models.PriceTypeMin {
		if base, ok := latestBasePrice(st); ok {
			if floor := math.Round(0.8 * base); price > floor {
				price = floor
			}
		}
	}

	rec := models.AdjustmentRecord{
		Date:          now,
		Strategy:      strategy,
		PercentChange: pct,
	}
	switch pt {
	case models.PriceTypeMin:
		rec.MinPricePercentChange = pct
	case models.PriceTypeBase:
		rec.BasePricePercentChange = pct
	}

	return Decision{
		NewPrice:             price,
		Adjustment:           rec,
		OscillationDirection: oscillation,
	}, true
}

// increaseMagnitude scales the configured increase with how hot the
// 7-day window is.
func (e *Engine) increaseMagnitude(occ models.OccupancyReading) float64 {
	base := e.cfg.Adjustments.Increase.Percentage
	switch {
	case occ.SevenDay >= 0.95:
		return base * 1.5
	case occ.SevenDay >= e.cfg.OccupancyThresholds.High:
		return base * 1.2
	default:
		return base
	}
}

// decreaseMagnitude scales the configured decrease with how cold the
// blended occupancy is.
func (e *Engine) decreaseMagnitude(occ models.OccupancyReading, weighted float64) float64 {
	base := e.cfg.Adjustments.Decrease.Percentage
	th := e.cfg.OccupancyThresholds
	switch {
	case weighted < th.Critical:
		return base * 1.5
	case occ.SevenDay < 0.30 && occ.ThirtyDay < th.Low:
		return base * 1.2
	default:
		return base
	}
}

// capIncrease applies the rolling 7-day cumulative-increase cap. A
// proposed magnitude that would push the week past 5% is reduced to land
// exactly on the cap; if that leaves less than 1% there is no point in a
// near-no-op increase, so a small corrective -1% is substituted.
func capIncrease(st *models.PropertyStatistics, pt models.PriceType, magnitude float64, now time.Time) float64 {
	applied := positiveWeekSum(st, pt, now)
	if applied+magnitude > weeklyIncreaseCap {
		magnitude = weeklyIncreaseCap - applied
		if magnitude < 0 {
			magnitude = 0
		}
	}
	if magnitude < 1 {
		return -1
	}
	return magnitude
}

// oscillate produces the small alternating hold adjustment that keeps a
// price from going stale. Direction flips on every call, defaulting to
// upward; weekends skew the move toward revenue (bigger up, smaller
// down). When even the oscillation would push the trailing week past
// its cap, the move is forced to -1%.
func oscillate(st *models.PropertyStatistics, pt models.PriceType, magnitude float64, now time.Time) (pct, direction float64) {
	dir := 1.0
	if st != nil && st.LastOscillationDirection != 0 {
		dir = -sign(st.LastOscillationDirection)
	}

	if weekend(now) {
		if dir > 0 {
			magnitude *= 1.2
		} else {
			magnitude *= 0.8
		}
	}

	pct = dir * magnitude
	if pct > 0 && pct+positiveWeekSum(st, pt, now) > holdOscillationCap {
		pct = -1
	}

	// The stored direction follows the applied sign so alternation
	// continues from what actually happened.
	return pct, sign(pct)
}

// positiveWeekSum totals the positive percent changes applied to this
// price type within the trailing 7 calendar days.
func positiveWeekSum(st *models.PropertyStatistics, pt models.PriceType, now time.Time) float64 {
	if st == nil {
		return 0
	}

	var sum float64
	for _, adj := range windowedAdjustments(st.AdjustmentHistory, now) {
		var pct float64
		switch pt {
		case models.PriceTypeMin:
			pct = adj.MinPricePercentChange
		case models.PriceTypeBase:
			pct = adj.BasePricePercentChange
		}
		if pct > 0 {
			sum += pct
		}
	}
	return sum
}

// latestBasePrice returns the most recently recorded base-price
// after-value for the property, scanning by date because the history
// slice is append-ordered.
func latestBasePrice(st *models.PropertyStatistics) (float64, bool) {
	if st == nil {
		return 0, false
	}

	var (
		found  bool
		latest time.Time
		price  float64
	)
	for _, snap := range st.PriceHistory {
		if snap.Type != models.PriceTypeBase {
			continue
		}
		if !found || snap.Date.After(latest) {
			found = true
			latest = snap.Date
			price = snap.After
		}
	}
	return price, found
}

func weekend(now time.Time) bool {
	wd := now.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
