package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"rateminder/server/internal/models"
)

// Writer merges newly computed changes into the persisted ledger.
type Writer struct {
	path   string
	logger *logrus.Logger
}

// NewWriter creates a ledger writer for the given file path.
func NewWriter(path string, logger *logrus.Logger) *Writer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Writer{
		path:   path,
		logger: logger,
	}
}

// Persist prepends the current run's changes to the existing ledger,
// trims the result to MaxRetainedChanges, stamps lastRun with the given
// date, and writes the file. On a primary write failure the current
// run's changes are written to a dated backup file next to the ledger so
// the new data is never lost; only when both writes fail is an error
// returned. Callers should clear their in-memory change buffer only on a
// nil return.
func (w *Writer) Persist(changes []models.ChangeRecord, now time.Time) error {
	existing := Read(w.path)

	merged := make([]models.ChangeRecord, 0, len(changes)+len(existing))
	merged = append(merged, changes...)
	merged = append(merged, existing...)
	if len(merged) > MaxRetainedChanges {
		merged = merged[:MaxRetainedChanges]
	}

	run := Run{
		LastRun: now.Format(models.DateLayout),
		Changes: merged,
	}

	if err := w.write(w.path, run); err != nil {
		w.logger.WithError(err).Error("Failed to write change ledger, writing backup of current run")

		backupPath := filepath.Join(
			filepath.Dir(w.path),
			fmt.Sprintf("price-changes-backup-%s.json", now.Format(models.DateLayout)),
		)
		backup := Run{
			LastRun: now.Format(models.DateLayout),
			Changes: changes,
		}
		if backupErr := w.write(backupPath, backup); backupErr != nil {
			return fmt.Errorf("failed to persist ledger (%v) and backup: %w", err, backupErr)
		}

		w.logger.WithField("backup_path", backupPath).Warn("Current run changes saved to backup file")
		return nil
	}

	w.logger.WithFields(logrus.Fields{
		"new_changes":    len(changes),
		"total_retained": len(merged),
	}).Info("Change ledger persisted")
	return nil
}

// write marshals the run and replaces the target file via a temp file
// rename, so a failure mid-write leaves the previous ledger intact.
func (w *Writer) write(path string, run Run) error {
	data, err := json.MarshalIndent(run, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write ledger file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}
	return nil
}
