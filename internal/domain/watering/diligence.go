package watering

import (
	"math"
	"time"

	"github.com/mamadbah2/plantcare/internal/domain/models"
)

// Rate is one plant's diligence over a reporting window.
type Rate struct {
	WindowDays int `json:"window_days"`
	Expected   int `json:"expected"`
	Success    int `json:"success"`
	Percent    int `json:"rate"`
}

// DiligenceRate is the single-event heuristic: success is 1 when the last
// recorded watering falls inside the window, 0 otherwise. It does not count
// waterings; DiligenceRateFromLog does.
func DiligenceRate(p models.Plant, today time.Time, windowDays int) Rate {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	r := Rate{
		WindowDays: windowDays,
		Expected:   windowDays / NormalizePeriod(p.WateringPeriodDays),
	}
	if p.LastWatered != nil && DaysBetween(*p.LastWatered, today) <= windowDays {
		r.Success = 1
	}
	r.Percent = percent(r.Success, r.Expected)
	return r
}

// DiligenceRateFromLog counts the plant's logged waterings within the
// window. Events carrying another plant id, or none, are ignored. The result
// is capped at 100 since extra waterings are not extra credit.
func DiligenceRateFromLog(p models.Plant, events []models.WateringEvent, today time.Time, windowDays int) Rate {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	r := Rate{
		WindowDays: windowDays,
		Expected:   windowDays / NormalizePeriod(p.WateringPeriodDays),
	}
	for _, ev := range events {
		if ev.PlantID == 0 || ev.PlantID != p.ID {
			continue
		}
		age := DaysBetween(ev.Date, today)
		if age < 0 || age > windowDays {
			continue
		}
		r.Success++
	}
	r.Percent = percent(r.Success, r.Expected)
	if r.Percent > 100 {
		r.Percent = 100
	}
	return r
}

func percent(success, expected int) int {
	if expected == 0 {
		return 0
	}
	return int(math.Round(100 * float64(success) / float64(expected)))
}
