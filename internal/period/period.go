// Package period buckets the calendar into fixed 5-day windows anchored at
// January 1. The bucketing is pure arithmetic on "today": no I/O, no stored
// state, so two calls with the same date always agree. Period start dates
// double as insight store keys.
package period

import (
	"time"
)

const DateLayout = "2006-01-02"

const lengthDays = 5

// Period is one 5-day calendar window. Start and End are inclusive dates in
// YYYY-MM-DD form.
type Period struct {
	Start string `json:"period_start"`
	End   string `json:"period_end"`
}

// Window is the period containing a given day plus its progress state.
type Window struct {
	Period
	IsComplete    bool
	DaysRemaining int
}

// Current returns the 5-day period containing today, anchored at Jan 1 of
// today's year. DaysRemaining counts today itself, so the last day of a
// period reports 1 and a completed period reports 0.
func Current(today time.Time) Window {
	day := truncateDay(today)
	anchor := januaryFirst(day.Year())

	offset := daysBetween(anchor, day) / lengthDays * lengthDays
	start := anchor.AddDate(0, 0, offset)
	end := start.AddDate(0, 0, lengthDays-1)

	isComplete := day.After(end)
	remaining := 0
	if !isComplete {
		remaining = daysBetween(day, end) + 1
		if remaining < 0 {
			remaining = 0
		}
	}

	return Window{
		Period:        Period{Start: start.Format(DateLayout), End: end.Format(DateLayout)},
		IsComplete:    isComplete,
		DaysRemaining: remaining,
	}
}

// LastCompleted returns the period immediately before the current one. When
// today falls in the year's first period, the previous period is re-anchored
// to Jan 1 of the prior year and aligned to that year's own 5-day grid.
// After a common year the grids tile exactly; after a leap year the returned
// period overlaps the new year's first period by four days. That quirk is
// load-bearing: it decides which stored letter key historical entries map to.
func LastCompleted(today time.Time) Period {
	day := truncateDay(today)
	anchor := januaryFirst(day.Year())

	offset := daysBetween(anchor, day)/lengthDays*lengthDays - lengthDays

	var start time.Time
	if offset < 0 {
		prevAnchor := januaryFirst(day.Year() - 1)
		daysInPrevYear := daysBetween(prevAnchor, anchor)
		start = prevAnchor.AddDate(0, 0, (daysInPrevYear-1)/lengthDays*lengthDays)
	} else {
		start = anchor.AddDate(0, 0, offset)
	}
	end := start.AddDate(0, 0, lengthDays-1)

	return Period{Start: start.Format(DateLayout), End: end.Format(DateLayout)}
}

func januaryFirst(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween is exact because both arguments are UTC midnights.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
