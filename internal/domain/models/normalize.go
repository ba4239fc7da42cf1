package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// ErrMissingID is returned when a stored record carries no usable identifier.
var ErrMissingID = errors.New("record has no id")

const dateLayout = "2006-01-02"

// Aliases observed for each canonical field, in priority order.
var (
	idKeys          = []string{"id", "_id", "user_plant_id"}
	nicknameKeys    = []string{"nickname", "name"}
	speciesKeys     = []string{"species_label", "ai_label_en", "common_name"}
	speciesKoKeys   = []string{"species_label_ko", "ai_label_ko"}
	periodKeys      = []string{"watering_period_days", "wateringPeriodDays", "wateringperiod", "WateringPeriod", "watering_days", "watering_cycle", "wateringCycle"}
	lastWateredKeys = []string{"last_watered", "lastWatered", "waterDate"}
	nextWaterKeys   = []string{"next_watering", "nextWatering", "nextWater"}
	imageKeys       = []string{"image", "plantImageName"}
	createdKeys     = []string{"created_at", "createdAt"}
	updatedKeys     = []string{"updated_at", "updatedAt"}
)

var nicknamePolicy = bluemonday.StrictPolicy()

// SanitizeNickname strips markup and surrounding whitespace from user input.
func SanitizeNickname(s string) string {
	return strings.TrimSpace(nicknamePolicy.Sanitize(s))
}

// NormalizeRecord folds a heterogeneous plant record (API payload, legacy
// local blob or raw store document) into the canonical Plant. A record
// without an id is rejected with ErrMissingID; callers that allocate ids
// themselves use NormalizeNewRecord.
func NormalizeRecord(raw map[string]any) (Plant, error) {
	p, err := NormalizeNewRecord(raw)
	if err != nil {
		return Plant{}, err
	}
	if p.ID == 0 {
		return Plant{}, ErrMissingID
	}
	return p, nil
}

// NormalizeNewRecord is NormalizeRecord without the id requirement.
func NormalizeNewRecord(raw map[string]any) (Plant, error) {
	if raw == nil {
		return Plant{}, errors.New("nil record")
	}

	var p Plant

	if v, ok := lookup(raw, idKeys); ok {
		id, err := toInt64(v)
		if err != nil {
			return Plant{}, fmt.Errorf("field id: %w", err)
		}
		p.ID = id
	}

	p.Nickname = SanitizeNickname(lookupString(raw, nicknameKeys))
	p.SpeciesLabel = lookupString(raw, speciesKeys)
	p.SpeciesLabelKo = lookupString(raw, speciesKoKeys)
	p.Image = lookupString(raw, imageKeys)
	p.Disease = lookupString(raw, []string{"disease"})

	p.WateringPeriodDays = DefaultWateringPeriodDays
	if v, ok := lookup(raw, periodKeys); ok {
		period, err := toInt64(v)
		if err != nil {
			return Plant{}, fmt.Errorf("field watering period: %w", err)
		}
		if period > 0 {
			p.WateringPeriodDays = int(period)
		}
	}

	if v, ok := lookup(raw, lastWateredKeys); ok {
		d, err := toDay(v)
		if err != nil {
			return Plant{}, fmt.Errorf("field last watered: %w", err)
		}
		p.LastWatered = d
	}

	if v, ok := lookup(raw, nextWaterKeys); ok {
		d, err := toDay(v)
		if err != nil {
			return Plant{}, fmt.Errorf("field next watering: %w", err)
		}
		p.NextWatering = d
	}

	if v, ok := lookup(raw, []string{"favorite"}); ok {
		p.Favorite = toBool(v)
	}

	p.Score = DefaultScore
	if v, ok := lookup(raw, []string{"score"}); ok {
		score, err := toInt64(v)
		if err != nil {
			return Plant{}, fmt.Errorf("field score: %w", err)
		}
		p.Score = ClampScore(int(score))
	}

	if v, ok := lookup(raw, []string{"confidence"}); ok {
		c, err := toFloat64(v)
		if err != nil {
			return Plant{}, fmt.Errorf("field confidence: %w", err)
		}
		p.Confidence = c
	}

	if v, ok := lookup(raw, createdKeys); ok {
		if t, err := toTime(v); err == nil {
			p.CreatedAt = t
		}
	}
	if v, ok := lookup(raw, updatedKeys); ok {
		if t, err := toTime(v); err == nil {
			p.UpdatedAt = t
		}
	}

	return p, nil
}

// ClampScore bounds a diligence score to [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func lookup(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func lookupString(raw map[string]any, keys []string) string {
	v, ok := lookup(raw, keys)
	if !ok {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float32:
		return int64(math.Round(float64(n))), nil
	case float64:
		return int64(math.Round(n)), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return int64(math.Round(f)), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(strings.TrimSpace(b))
		return parsed
	default:
		n, err := toInt64(v)
		return err == nil && n != 0
	}
}

type timer interface {
	Time() time.Time
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, errors.New("nil time")
		}
		return *t, nil
	case timer:
		return t.Time().UTC(), nil
	case string:
		s := strings.TrimSpace(t)
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return parsed, nil
		}
		if len(s) > len(dateLayout) {
			s = s[:len(dateLayout)]
		}
		return time.Parse(dateLayout, s)
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

// toDay keeps the calendar date as written and drops the clock part.
func toDay(v any) (*time.Time, error) {
	t, err := toTime(v)
	if err != nil {
		return nil, err
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}
