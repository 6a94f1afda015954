package api

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rateminder/server/internal/database"
	"rateminder/server/internal/notify"
)

// Runner triggers a pricing pass; implemented by the scheduler.
type Runner interface {
	RunOnce() notify.RunSummary
}

type Handler struct {
	db     *database.Database
	runner Runner
	logger *logrus.Logger
}

func NewHandler(db *database.Database, runner Runner, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:     db,
		runner: runner,
		logger: logger,
	}
}

// GetRecentChanges returns the newest persisted price changes.
func (h *Handler) GetRecentChanges(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	changes, err := h.db.GetRecentChanges(limit, c.Query("property"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to query recent changes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query changes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"changes": changes})
}

// GetPropertySummary returns the persisted aggregate for one property.
func (h *Handler) GetPropertySummary(c *gin.Context) {
	propertyID := c.Param("id")

	summary, err := h.db.GetPropertySummary(propertyID)
	if err != nil {
		h.logger.WithError(err).WithField("property_id", propertyID).Error("Failed to query property summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetLedgerStats returns totals over the whole mirror store.
func (h *Handler) GetLedgerStats(c *gin.Context) {
	stats, err := h.db.GetLedgerStats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to query ledger stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// TriggerRun executes a pricing pass synchronously and returns its summary.
func (h *Handler) TriggerRun(c *gin.Context) {
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not available"})
		return
	}

	h.logger.Info("Pricing run triggered via API")
	c.JSON(http.StatusOK, h.runner.RunOnce())
}
