// Package engine implements the adaptive pricing decision core: it
// classifies each property into a strategy, computes bounded percentage
// adjustments, and accumulates the resulting change records for the
// ledger. All state lives on the Engine instance; callers inject the
// computation date, so the engine never reads the wall clock.
package engine

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"rateminder/server/config"
	"rateminder/server/internal/history"
	"rateminder/server/internal/models"
)

// Engine owns the per-property statistics rebuilt from the ledger and
// the buffer of changes computed during the current run. It is not safe
// for concurrent use; runs process properties strictly sequentially.
type Engine struct {
	cfg    *config.PricingConfig
	logger *logrus.Logger

	stats   map[string]*models.PropertyStatistics
	pending map[string]*models.ChangeRecord
	order   []string
}

// New builds an engine from the pricing policy and the replayed ledger
// records.
func New(cfg *config.PricingConfig, records []models.ChangeRecord, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Engine{
		cfg:     cfg,
		logger:  logger,
		stats:   history.BuildStatistics(records),
		pending: make(map[string]*models.ChangeRecord),
	}
}

// Statistics returns the aggregate for a property, or nil when the
// property has no history yet.
func (e *Engine) Statistics(propertyID string) *models.PropertyStatistics {
	return e.stats[propertyID]
}

// Apply commits a computed decision: it appends the adjustment to the
// property's history, records the before/after price pair, updates the
// oscillation direction when the hold oscillation ran, and upserts the
// per-run change record for this price type. Compute never mutates
// anything, so a caller that could not apply the new price on the
// platform simply skips this step.
func (e *Engine) Apply(propertyID string, occ models.OccupancyReading, pt models.PriceType, currentPrice float64, d Decision) {
	st := e.ensureStats(propertyID)

	st.AdjustmentHistory = append(st.AdjustmentHistory, d.Adjustment)
	st.PriceHistory = append(st.PriceHistory, models.PriceSnapshot{
		Date:   d.Adjustment.Date,
		Type:   pt,
		Before: currentPrice,
		After:  d.NewPrice,
	})
	if d.OscillationDirection != 0 {
		st.LastOscillationDirection = d.OscillationDirection
	}
	if d.Adjustment.Date.After(st.LastUpdate) {
		st.LastUpdate = d.Adjustment.Date
	}

	rec := e.pendingFor(propertyID, d.Adjustment.Date)
	if rec.Occupancy == nil {
		reading := occ
		rec.Occupancy = &reading
		st.OccupancyHistory = append(st.OccupancyHistory, models.OccupancySnapshot{
			Date:      d.Adjustment.Date,
			SevenDay:  occ.SevenDay,
			ThirtyDay: occ.ThirtyDay,
			SixtyDay:  occ.SixtyDay,
		})
	}

	change := &models.PriceChange{Before: currentPrice, After: d.NewPrice}
	switch pt {
	case models.PriceTypeMin:
		rec.MinPrice = change
	case models.PriceTypeBase:
		rec.BasePrice = change
	}

	e.logger.WithFields(logrus.Fields{
		"property_id":    propertyID,
		"price_type":     string(pt),
		"strategy":       string(d.Adjustment.Strategy),
		"percent_change": d.Adjustment.PercentChange,
		"old_price":      currentPrice,
		"new_price":      d.NewPrice,
	}).Info("Applied price adjustment")
}

// RecordFailure upserts an error-bearing change record for a property
// whose platform interaction failed. Error records are persisted for the
// audit trail but never feed statistics.
func (e *Engine) RecordFailure(propertyID string, now time.Time, err error) {
	rec := e.pendingFor(propertyID, now)
	rec.Error = err.Error()
}

// PendingChanges returns the current run's change records in the order
// properties were first touched.
func (e *Engine) PendingChanges() []models.ChangeRecord {
	changes := make([]models.ChangeRecord, 0, len(e.order))
	for _, id := range e.order {
		changes = append(changes, *e.pending[id])
	}
	return changes
}

// ClearPending resets the run buffer after a successful persist.
func (e *Engine) ClearPending() {
	e.pending = make(map[string]*models.ChangeRecord)
	e.order = nil
}

func (e *Engine) ensureStats(propertyID string) *models.PropertyStatistics {
	st, ok := e.stats[propertyID]
	if !ok {
		st = &models.PropertyStatistics{}
		e.stats[propertyID] = st
	}
	return st
}

func (e *Engine) pendingFor(propertyID string, date time.Time) *models.ChangeRecord {
	rec, ok := e.pending[propertyID]
	if !ok {
		rec = &models.ChangeRecord{
			PropertyID: propertyID,
			Date:       date.Format(models.DateLayout),
		}
		e.pending[propertyID] = rec
		e.order = append(e.order, propertyID)
	}
	return rec
}
