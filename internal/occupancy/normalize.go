package occupancy

import (
	"regexp"
	"strconv"
	"strings"

	"rateminder/server/internal/models"
)

// leadingNumber matches the numeric prefix of values like "85%", "85.5 %"
// or "85" after whitespace trimming.
var leadingNumber = regexp.MustCompile(`^-?[0-9]*\.?[0-9]+`)

// Normalize converts a heterogeneous occupancy value into a decimal in
// [0,1]. Missing, "N/A" and unparseable inputs all normalize to 0:
// absence of data is treated as vacancy, never as unknown, so it
// participates numerically in every average instead of being skipped.
func Normalize(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return clamp(fraction(v))
	case float32:
		return clamp(fraction(float64(v)))
	case int:
		return clamp(fraction(float64(v)))
	case int64:
		return clamp(fraction(float64(v)))
	case string:
		return clamp(parseString(v))
	default:
		return 0
	}
}

// Reading normalizes the three trailing-window values of one occupancy
// observation in a single call.
func Reading(sevenDay, thirtyDay, sixtyDay any) models.OccupancyReading {
	return models.OccupancyReading{
		SevenDay:  Normalize(sevenDay),
		ThirtyDay: Normalize(thirtyDay),
		SixtyDay:  Normalize(sixtyDay),
	}
}

func parseString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "n/a") {
		return 0
	}

	token := leadingNumber.FindString(s)
	if token == "" {
		return 0
	}

	n, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0
	}
	return fraction(n)
}

// fraction interprets values above 1 as percentages.
func fraction(n float64) float64 {
	if n > 1 {
		return n / 100
	}
	return n
}

func clamp(n float64) float64 {
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}
