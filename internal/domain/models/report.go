package models

import "time"

// ReportMode selects how diligence is measured.
type ReportMode string

const (
	// ReportRecent counts waterings from the log.
	ReportRecent ReportMode = "recent"
	// ReportScore reports the stored diligence score.
	ReportScore ReportMode = "score"
	// ReportHeuristic uses only the last watering date.
	ReportHeuristic ReportMode = "heuristic"
)

// Valid reports whether m is a known mode.
func (m ReportMode) Valid() bool {
	switch m {
	case ReportRecent, ReportScore, ReportHeuristic:
		return true
	}
	return false
}

// ReportEntry is one plant's line in a diligence report.
type ReportEntry struct {
	PlantID    int64  `json:"plant_id"`
	Name       string `json:"name"`
	PeriodDays int    `json:"period_days"`
	Expected   int    `json:"expected"`
	Success    int    `json:"success"`
	Rate       int    `json:"rate"`
	Score      int    `json:"score"`
}

// DiligenceReport aggregates every plant's diligence over a window.
type DiligenceReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Mode        ReportMode    `json:"mode"`
	WindowDays  int           `json:"window_days"`
	Entries     []ReportEntry `json:"entries"`
	Average     int           `json:"average"`
}
