// Package ledger owns the durable change ledger: a JSON file holding the
// most-recent-first list of all past price changes, replayed on startup to
// rebuild per-property statistics.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"

	"rateminder/server/internal/models"
)

// MaxRetainedChanges caps the ledger length; the oldest entries beyond
// the cap are dropped on every persist.
const MaxRetainedChanges = 1000

// Run is the on-disk ledger shape: one run header plus its changes,
// most recent first.
type Run struct {
	LastRun string                `json:"lastRun"`
	Changes []models.ChangeRecord `json:"changes"`
}

// Decode parses ledger bytes into a flat change list. Two shapes are
// accepted for backward compatibility: a single run object, and the
// legacy array of per-run objects. The legacy shape is flattened by
// concatenating every run's changes, preserving file order. The original
// tooling kept only the first run of a legacy file; flattening all of
// them is a deliberate correction of that data loss.
func Decode(data []byte) ([]models.ChangeRecord, error) {
	var run Run
	if err := json.Unmarshal(data, &run); err == nil {
		return run.Changes, nil
	}

	var runs []Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("unrecognized ledger shape: %w", err)
	}

	var flat []models.ChangeRecord
	for _, r := range runs {
		flat = append(flat, r.Changes...)
	}
	return flat, nil
}

// Read loads the ledger at path. A missing or unreadable file yields an
// empty list, never an error: cold starts and corrupt ledgers both
// degrade to "no history".
func Read(path string) []models.ChangeRecord {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	changes, err := Decode(data)
	if err != nil {
		return nil
	}
	return changes
}
