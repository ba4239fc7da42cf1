package weather

import (
	"math"
	"time"
)

// Lambert conformal conic parameters of the KMA 5km forecast grid.
const (
	earthRadiusKm = 6371.00877
	gridSpacingKm = 5.0
	stdLat1       = 30.0
	stdLat2       = 60.0
	originLon     = 126.0
	originLat     = 38.0
	originX       = 43
	originY       = 136
)

// Grid is a cell of the forecast grid.
type Grid struct {
	X int `json:"grid_x"`
	Y int `json:"grid_y"`
}

// ConvertToGrid projects a latitude/longitude pair onto the forecast grid.
func ConvertToGrid(lat, lon float64) Grid {
	const degToRad = math.Pi / 180.0

	re := earthRadiusKm / gridSpacingKm
	slat1 := stdLat1 * degToRad
	slat2 := stdLat2 * degToRad
	olon := originLon * degToRad
	olat := originLat * degToRad

	sn := math.Tan(math.Pi*0.25+slat2*0.5) / math.Tan(math.Pi*0.25+slat1*0.5)
	sn = math.Log(math.Cos(slat1)/math.Cos(slat2)) / math.Log(sn)

	sf := math.Tan(math.Pi*0.25 + slat1*0.5)
	sf = math.Pow(sf, sn) * math.Cos(slat1) / sn

	ro := math.Tan(math.Pi*0.25 + olat*0.5)
	ro = re * sf / math.Pow(ro, sn)

	ra := math.Tan(math.Pi*0.25 + lat*degToRad*0.5)
	ra = re * sf / math.Pow(ra, sn)

	theta := lon*degToRad - olon
	if theta > math.Pi {
		theta -= 2.0 * math.Pi
	}
	if theta < -math.Pi {
		theta += 2.0 * math.Pi
	}
	theta *= sn

	return Grid{
		X: int(math.Floor(ra*math.Sin(theta) + originX + 0.5)),
		Y: int(math.Floor(ro - ra*math.Cos(theta) + originY + 0.5)),
	}
}

var publishHours = []int{2, 5, 8, 11, 14, 17, 20, 23}

// publishDelay is how long after the nominal hour a forecast becomes queryable.
const publishDelay = 10 * time.Minute

// BaseTime returns the base_date (YYYYMMDD) and base_time (HHMM) of the most
// recent forecast available at now. now must already be in the forecast's
// local time.
func BaseTime(now time.Time) (string, string) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for i := len(publishHours) - 1; i >= 0; i-- {
		published := midnight.Add(time.Duration(publishHours[i]) * time.Hour)
		if !now.Before(published.Add(publishDelay)) {
			return published.Format("20060102"), published.Format("1504")
		}
	}

	yesterday := midnight.AddDate(0, 0, -1)
	return yesterday.Format("20060102"), "2300"
}
