package watering

import (
	"sort"
	"time"

	"github.com/mamadbah2/plantcare/internal/domain/models"
)

// MarkerKind tells a calendar client how to draw a date.
type MarkerKind string

const (
	MarkerDue     MarkerKind = "due"
	MarkerWatered MarkerKind = "watered"
)

// Marker groups the plants that share a date on the calendar.
type Marker struct {
	Date     string     `json:"date"`
	Kind     MarkerKind `json:"kind"`
	PlantIDs []int64    `json:"plant_ids"`
}

const markerLayout = "2006-01-02"

// CalendarMarkers places a due marker on every plant's due date and a
// watered marker on its last watering date. When both kinds land on the same
// date the due marker wins and absorbs the watered plants.
func CalendarMarkers(plants []models.Plant) []Marker {
	due := map[string][]int64{}
	watered := map[string][]int64{}

	for _, p := range plants {
		if d := DueDate(p); d != nil {
			key := d.Format(markerLayout)
			due[key] = append(due[key], p.ID)
		}
		if p.LastWatered != nil {
			key := Day(*p.LastWatered, time.UTC).Format(markerLayout)
			watered[key] = append(watered[key], p.ID)
		}
	}

	markers := make([]Marker, 0, len(due)+len(watered))
	for date, ids := range due {
		if extra, ok := watered[date]; ok {
			ids = append(ids, extra...)
			delete(watered, date)
		}
		markers = append(markers, Marker{Date: date, Kind: MarkerDue, PlantIDs: sortedIDs(ids)})
	}
	for date, ids := range watered {
		markers = append(markers, Marker{Date: date, Kind: MarkerWatered, PlantIDs: sortedIDs(ids)})
	}

	sort.Slice(markers, func(i, j int) bool { return markers[i].Date < markers[j].Date })
	return markers
}

func sortedIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
