// Package watering holds the schedule and diligence arithmetic for plants.
// All dates are day precision, represented as UTC midnight.
package watering

import (
	"math"
	"time"

	"github.com/mamadbah2/plantcare/internal/domain/models"
)

const (
	// DefaultWindowDays is the reporting window used by DiligenceRate.
	DefaultWindowDays = 30

	onTimeReward    = 2
	latePenaltyDay  = 5
	earlyPenaltyDay = 3
	hoursPerDay     = 24
)

// NormalizePeriod maps a missing or non-positive period onto the default.
func NormalizePeriod(days int) int {
	if days <= 0 {
		return models.DefaultWateringPeriodDays
	}
	return days
}

// Day returns the calendar date of t, as observed in loc, at UTC midnight.
// A nil loc means UTC.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays adds calendar days to a day value.
func AddDays(day time.Time, n int) time.Time {
	return day.AddDate(0, 0, n)
}

// DaysBetween returns floor((to - from) / 1 day).
func DaysBetween(from, to time.Time) int {
	from = Day(from, time.UTC)
	to = Day(to, time.UTC)
	return int(math.Floor(to.Sub(from).Hours() / hoursPerDay))
}

// NextWatering is last + period, with the period normalized.
func NextWatering(last time.Time, period int) time.Time {
	return AddDays(Day(last, time.UTC), NormalizePeriod(period))
}

// DueDate is the source-of-truth due date of a plant: recomputed from
// LastWatered and the current period when a watering is on record, otherwise
// whatever NextWatering was persisted (nil for a plant never watered).
func DueDate(p models.Plant) *time.Time {
	if p.LastWatered != nil {
		next := NextWatering(*p.LastWatered, p.WateringPeriodDays)
		return &next
	}
	if p.NextWatering != nil {
		d := Day(*p.NextWatering, time.UTC)
		return &d
	}
	return nil
}

// ScoreDelta converts the distance from the due date into a score change.
func ScoreDelta(diffDays int) int {
	switch {
	case diffDays == 0:
		return onTimeReward
	case diffDays > 0:
		return -latePenaltyDay * diffDays
	default:
		return -earlyPenaltyDay * -diffDays
	}
}

// RecordWatering applies a watering event on today. The score is judged
// against the due date that was pending before this watering; without one
// the watering counts as on time. Calling it twice on the same day applies
// the delta twice.
func RecordWatering(p models.Plant, today time.Time) models.Plant {
	today = Day(today, time.UTC)
	p.WateringPeriodDays = NormalizePeriod(p.WateringPeriodDays)

	diff := 0
	if prev := DueDate(p); prev != nil {
		diff = DaysBetween(*prev, today)
	}

	p.Score = models.ClampScore(p.Score + ScoreDelta(diff))

	last := today
	next := AddDays(today, p.WateringPeriodDays)
	p.LastWatered = &last
	p.NextWatering = &next
	return p
}

// IsDue reports whether the plant needs water on today. A plant with no due
// date at all has never been watered and is always due.
func IsDue(p models.Plant, today time.Time) bool {
	due := DueDate(p)
	if due == nil {
		return true
	}
	return !due.After(Day(today, time.UTC))
}

// Reschedule refreshes the persisted NextWatering after an edit.
func Reschedule(p models.Plant) models.Plant {
	p.WateringPeriodDays = NormalizePeriod(p.WateringPeriodDays)
	if p.LastWatered != nil {
		last := Day(*p.LastWatered, time.UTC)
		next := NextWatering(last, p.WateringPeriodDays)
		p.LastWatered = &last
		p.NextWatering = &next
	}
	return p
}
