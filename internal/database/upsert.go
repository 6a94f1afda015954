package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rateminder/server/internal/models"
)

// ChangeRow is the gorm mapping of one persisted change record.
type ChangeRow struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	PropertyID string `gorm:"column:property_id;uniqueIndex:idx_property_date"`
	Date       string `gorm:"column:date;uniqueIndex:idx_property_date"`
	SevenDay   *float64
	ThirtyDay  *float64
	SixtyDay   *float64
	MinBefore  *float64
	MinAfter   *float64
	BaseBefore *float64
	BaseAfter  *float64
	Error      string
}

func (ChangeRow) TableName() string {
	return "price_changes"
}

// UpsertChanges writes a batch of change records into the mirror store,
// replacing any existing row for the same (property, date).
func UpsertChanges(tx *gorm.DB, batch []models.ChangeRecord) error {
	if len(batch) == 0 {
		return nil
	}

	rows := make([]ChangeRow, 0, len(batch))
	for _, rec := range batch {
		row := ChangeRow{
			PropertyID: rec.PropertyID,
			Date:       rec.Date,
			Error:      rec.Error,
		}
		if rec.Occupancy != nil {
			row.SevenDay = &rec.Occupancy.SevenDay
			row.ThirtyDay = &rec.Occupancy.ThirtyDay
			row.SixtyDay = &rec.Occupancy.SixtyDay
		}
		if rec.MinPrice != nil {
			row.MinBefore = &rec.MinPrice.Before
			row.MinAfter = &rec.MinPrice.After
		}
		if rec.BasePrice != nil {
			row.BaseBefore = &rec.BasePrice.Before
			row.BaseAfter = &rec.BasePrice.After
		}
		rows = append(rows, row)
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "property_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"seven_day", "thirty_day", "sixty_day",
			"min_before", "min_after", "base_before", "base_after",
			"error",
		}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to upsert change rows: %w", err)
	}
	return nil
}
