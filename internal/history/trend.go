package history

import (
	"sort"

	"rateminder/server/internal/models"
)

// Trend returns the short-term occupancy momentum for a property as a
// signed percentage-point delta between the two most recent 7-day
// readings. Fewer than two observations yield 0: a cold start is a true
// unknown and must not trigger a strategy change by itself. History is
// sorted by date here because the underlying slice is append-ordered.
func Trend(history []models.OccupancySnapshot) float64 {
	if len(history) < 2 {
		return 0
	}

	sorted := make([]models.OccupancySnapshot, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	return (sorted[0].SevenDay - sorted[1].SevenDay) * 100
}
