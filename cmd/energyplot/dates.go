package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/energyplot/internal/config"
	"github.com/jgoulah/energyplot/pkg/models"
)

// defaultRangeDays is the window used when neither flags nor config set a start date
const defaultRangeDays = 30

// parseDate parses a date string in either YYYY-MM-DD format or relative format (e.g., "7d").
// The result is a calendar date at midnight UTC.
func parseDate(dateStr string, now time.Time) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, dateStr)
	if err == nil {
		return t, nil
	}

	// Relative format, "7d" is 7 days before now
	if len(dateStr) > 1 && dateStr[len(dateStr)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(dateStr[:len(dateStr)-1], "%d", &days); err == nil && days >= 0 {
			d := now.AddDate(0, 0, -days)
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD or Nd for N days ago)", dateStr)
}

// resolveRange picks the inclusive date range from flags, then config, then
// defaults: to is yesterday and from is defaultRangeDays before to
func resolveRange(cfg *config.Config, fromFlag, toFlag string, now time.Time) (time.Time, time.Time, error) {
	fromStr, toStr := fromFlag, toFlag
	if fromStr == "" {
		fromStr = cfg.From
	}
	if toStr == "" {
		toStr = cfg.To
	}

	var to time.Time
	if toStr == "" {
		to, _ = parseDate("1d", now)
	} else {
		t, err := parseDate(toStr, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing --to date: %w", err)
		}
		to = t
	}

	var from time.Time
	if fromStr == "" {
		from = to.AddDate(0, 0, -(defaultRangeDays - 1))
	} else {
		f, err := parseDate(fromStr, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing --from date: %w", err)
		}
		from = f
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid range: %s is before %s", to.Format(models.DateLayout), from.Format(models.DateLayout))
	}

	return from, to, nil
}
