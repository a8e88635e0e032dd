package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/cuereview/models"
)

// Sentinel bounds used when no range is requested. Wide enough to cover any
// recorded match without special-casing open intervals in SQL.
var (
	rangeFloor   = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	rangeCeiling = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// DefaultRange covers all recorded history.
func DefaultRange() models.DateRange {
	return models.DateRange{From: rangeFloor, To: rangeCeiling}
}

// SubtractFromDate steps back by calendar-ish units expressed in whole days.
// Months use the 365/12 approximation so a "month" is a fixed 30 days.
func SubtractFromDate(date time.Time, years, months, weeks, days int) time.Time {
	total := years*365 + months*(365/12) + weeks*7 + days
	return date.AddDate(0, 0, -total)
}

// RangeFromParams builds a range from query inputs: either a named duration
// preset or explicit from/to dates in YYYY-MM-DD, but not both. Missing
// endpoints fall back to the sentinel bounds.
func RangeFromParams(duration, from, to string) (models.DateRange, error) {
	if duration != "" {
		if from != "" || to != "" {
			return models.DateRange{}, fmt.Errorf("duration cannot be combined with an explicit f/t range")
		}
		return RangeForDuration(duration)
	}

	rng := DefaultRange()
	if from != "" {
		date, err := time.Parse("2006-01-02", from)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("invalid f date %q, want YYYY-MM-DD", from)
		}
		rng.From = date
	}
	if to != "" {
		date, err := time.Parse("2006-01-02", to)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("invalid t date %q, want YYYY-MM-DD", to)
		}
		rng.To = date
	}
	if rng.To.Before(rng.From) {
		return models.DateRange{}, fmt.Errorf("t date %s precedes f date %s", to, from)
	}
	return rng, nil
}

// RangeForDuration resolves a named preset ending now. An empty name means
// all time.
func RangeForDuration(name string) (models.DateRange, error) {
	now := time.Now()
	switch strings.ToLower(name) {
	case "":
		return DefaultRange(), nil
	case "week":
		return models.DateRange{From: SubtractFromDate(now, 0, 0, 1, 0), To: rangeCeiling}, nil
	case "month":
		return models.DateRange{From: SubtractFromDate(now, 0, 1, 0, 0), To: rangeCeiling}, nil
	case "threemonths":
		return models.DateRange{From: SubtractFromDate(now, 0, 3, 0, 0), To: rangeCeiling}, nil
	case "sixmonths":
		return models.DateRange{From: SubtractFromDate(now, 0, 6, 0, 0), To: rangeCeiling}, nil
	case "year":
		return models.DateRange{From: SubtractFromDate(now, 1, 0, 0, 0), To: rangeCeiling}, nil
	default:
		return models.DateRange{}, fmt.Errorf("unknown duration %q", name)
	}
}
