package species

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mamadbah2/plantcare/internal/domain/models"
)

// catalogRecord is one entry of the house plant dataset used to seed the catalog.
type catalogRecord struct {
	ID             int64       `json:"id"`
	Latin          string      `json:"latin"`
	Common         []string    `json:"common"`
	Family         string      `json:"family"`
	Category       string      `json:"category"`
	Origin         string      `json:"origin"`
	Climate        string      `json:"climate"`
	TempMax        temperature `json:"tempmax"`
	TempMin        temperature `json:"tempmin"`
	IdealLight     string      `json:"ideallight"`
	ToleratedLight string      `json:"toleratedlight"`
	Watering       string      `json:"watering"`
	WateringPeriod any         `json:"wateringperiod"`
	Insects        []string    `json:"insects"`
	Use            []string    `json:"use"`
	LabelEn        string      `json:"ai_label_en"`
	LabelKo        string      `json:"ai_label_ko"`
}

type temperature struct {
	Celsius *float64 `json:"celsius"`
}

// LoadFile reads a catalog dataset from disk.
func LoadFile(path string) ([]models.Species, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open species catalog: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a JSON array of dataset records into catalog entries.
func Decode(r io.Reader) ([]models.Species, error) {
	var records []catalogRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode species catalog: %w", err)
	}

	entries := make([]models.Species, 0, len(records))
	for _, rec := range records {
		days, amount := wateringFromText(rec.Watering)
		if explicit := periodDays(rec.WateringPeriod); explicit > 0 {
			days = explicit
		}

		entry := models.Species{
			ID:             rec.ID,
			LatinName:      rec.Latin,
			LabelEn:        strings.TrimSpace(rec.LabelEn),
			LabelKo:        strings.TrimSpace(rec.LabelKo),
			Family:         rec.Family,
			Category:       rec.Category,
			Origin:         rec.Origin,
			Climate:        rec.Climate,
			TempMinC:       rec.TempMin.Celsius,
			TempMaxC:       rec.TempMax.Celsius,
			IdealLight:     rec.IdealLight,
			ToleratedLight: rec.ToleratedLight,
			WateringDesc:   rec.Watering,
			WateringDays:   days,
			WateringAmount: amount,
			Pests:          strings.Join(rec.Insects, ", "),
			Use:            strings.Join(rec.Use, ", "),
		}
		if len(rec.Common) > 0 {
			entry.CommonName = rec.Common[0]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// wateringFromText derives an interval and amount from the free-text
// watering note of the dataset.
func wateringFromText(text string) (int, string) {
	text = strings.ToLower(text)
	switch {
	case text == "":
		return 5, "medium"
	case strings.Contains(text, "keep moist"), strings.Contains(text, "moist between"):
		return 3, "medium"
	case strings.Contains(text, "dry between"), strings.Contains(text, "can be dry"):
		return 7, "low"
	case strings.Contains(text, "keep wet"), strings.Contains(text, "constantly moist"):
		return 2, "high"
	default:
		return 5, "medium"
	}
}

// periodDays accepts the interval as a JSON number or a numeric string.
func periodDays(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
