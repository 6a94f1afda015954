package database

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"rateminder/server/internal/models"
)

// Database is the raw-SQL mirror store of persisted change records.
// The JSON ledger stays the durable source of truth for the engine;
// this store exists so the API can query history without re-reading
// and scanning the ledger file.
type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// GetRecentChanges returns the newest persisted changes, optionally
// filtered to one property.
func (d *Database) GetRecentChanges(limit int, propertyID string) ([]models.ChangeRecord, error) {
	query := `
        SELECT property_id, date, seven_day, thirty_day, sixty_day,
               min_before, min_after, base_before, base_after, error
        FROM price_changes
        WHERE (? = '' OR property_id = ?)
        ORDER BY date DESC, id DESC
        LIMIT ?
    `

	rows, err := d.db.Query(query, propertyID, propertyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []models.ChangeRecord
	for rows.Next() {
		var rec models.ChangeRecord
		var sevenDay, thirtyDay, sixtyDay sql.NullFloat64
		var minBefore, minAfter, baseBefore, baseAfter sql.NullFloat64
		var errText sql.NullString

		err := rows.Scan(
			&rec.PropertyID,
			&rec.Date,
			&sevenDay,
			&thirtyDay,
			&sixtyDay,
			&minBefore,
			&minAfter,
			&baseBefore,
			&baseAfter,
			&errText,
		)
		if err != nil {
			return nil, err
		}

		if sevenDay.Valid || thirtyDay.Valid || sixtyDay.Valid {
			rec.Occupancy = &models.OccupancyReading{
				SevenDay:  sevenDay.Float64,
				ThirtyDay: thirtyDay.Float64,
				SixtyDay:  sixtyDay.Float64,
			}
		}
		if minBefore.Valid && minAfter.Valid {
			rec.MinPrice = &models.PriceChange{Before: minBefore.Float64, After: minAfter.Float64}
		}
		if baseBefore.Valid && baseAfter.Valid {
			rec.BasePrice = &models.PriceChange{Before: baseBefore.Float64, After: baseAfter.Float64}
		}
		if errText.Valid {
			rec.Error = errText.String
		}

		changes = append(changes, rec)
	}
	return changes, rows.Err()
}

// GetPropertySummary aggregates the persisted history of one property.
func (d *Database) GetPropertySummary(propertyID string) (models.PropertySummary, error) {
	query := `
        SELECT
            COUNT(*) as change_count,
            COALESCE(MAX(date), '') as last_change_date,
            COALESCE(AVG(CASE WHEN error IS NULL OR error = '' THEN seven_day END), 0) as avg_seven_day,
            COALESCE(SUM(CASE WHEN error IS NOT NULL AND error != '' THEN 1 ELSE 0 END), 0) as failed_runs
        FROM price_changes
        WHERE property_id = ?
    `

	summary := models.PropertySummary{PropertyID: propertyID}
	err := d.db.QueryRow(query, propertyID).Scan(
		&summary.ChangeCount,
		&summary.LastChangeDate,
		&summary.AvgSevenDay,
		&summary.FailedChangeRuns,
	)
	if err != nil {
		return summary, err
	}

	// Latest applied prices come from the newest rows carrying them.
	lastPrice := func(column string) (*float64, error) {
		var v sql.NullFloat64
		err := d.db.QueryRow(`
            SELECT `+column+` FROM price_changes
            WHERE property_id = ? AND `+column+` IS NOT NULL
            ORDER BY date DESC, id DESC LIMIT 1
        `, propertyID).Scan(&v)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !v.Valid {
			return nil, nil
		}
		return &v.Float64, nil
	}

	if summary.LastMinPrice, err = lastPrice("min_after"); err != nil {
		return summary, err
	}
	if summary.LastBasePrice, err = lastPrice("base_after"); err != nil {
		return summary, err
	}

	return summary, nil
}

// GetLedgerStats summarizes the whole mirror store.
func (d *Database) GetLedgerStats() (models.LedgerStats, error) {
	query := `
        SELECT
            COUNT(*) as total_changes,
            COUNT(DISTINCT property_id) as total_properties,
            COALESCE(SUM(CASE WHEN error IS NOT NULL AND error != '' THEN 1 ELSE 0 END), 0) as total_failures,
            COALESCE(MAX(date), '') as last_change_date
        FROM price_changes
    `

	var stats models.LedgerStats
	err := d.db.QueryRow(query).Scan(
		&stats.TotalChanges,
		&stats.TotalProperties,
		&stats.TotalFailures,
		&stats.LastChangeDate,
	)
	return stats, err
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}

func (d *Database) Close() error {
	return d.db.Close()
}
