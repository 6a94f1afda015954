package database

func (d *Database) RunMigrations() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS price_changes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			property_id TEXT NOT NULL,
			date TEXT NOT NULL,
			seven_day REAL,
			thirty_day REAL,
			sixty_day REAL,
			min_before REAL,
			min_after REAL,
			base_before REAL,
			base_after REAL,
			error TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(property_id, date)
		);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_price_changes_property
		ON price_changes(property_id, date);
	`)
	if err != nil {
		return err
	}

	return nil
}
