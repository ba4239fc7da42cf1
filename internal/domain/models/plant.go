package models

import "time"

// DefaultWateringPeriodDays is used whenever a plant carries no usable period.
const DefaultWateringPeriodDays = 7

// DefaultScore is the diligence score a freshly registered plant starts with.
const DefaultScore = 100

// Plant is the canonical houseplant record. Every field name that drifted
// across clients is folded into this shape by NormalizeRecord.
type Plant struct {
	ID                 int64      `bson:"_id" json:"id"`
	Nickname           string     `bson:"nickname" json:"nickname"`
	SpeciesLabel       string     `bson:"species_label" json:"species_label"`
	SpeciesLabelKo     string     `bson:"species_label_ko" json:"species_label_ko"`
	Confidence         float64    `bson:"confidence" json:"confidence"`
	Image              string     `bson:"image" json:"image,omitempty"`
	LastWatered        *time.Time `bson:"last_watered,omitempty" json:"last_watered,omitempty"`
	WateringPeriodDays int        `bson:"watering_period_days" json:"watering_period_days"`
	NextWatering       *time.Time `bson:"next_watering,omitempty" json:"next_watering,omitempty"`
	Favorite           bool       `bson:"-" json:"favorite"`
	Score              int        `bson:"score" json:"score"`
	Disease            string     `bson:"disease,omitempty" json:"disease,omitempty"`
	CreatedAt          time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `bson:"updated_at" json:"updated_at"`
}

// DisplayName falls back to the AI-assigned labels when no nickname is set.
func (p Plant) DisplayName() string {
	switch {
	case p.Nickname != "":
		return p.Nickname
	case p.SpeciesLabelKo != "":
		return p.SpeciesLabelKo
	default:
		return p.SpeciesLabel
	}
}

// WateringEvent is one row of the watering log.
type WateringEvent struct {
	PlantID int64     `bson:"plant_id" json:"plant_id"`
	Date    time.Time `bson:"date" json:"date"`
}

// PlantPatch carries the optional fields of an edit request.
type PlantPatch struct {
	Nickname           *string    `json:"nickname"`
	WateringPeriodDays *int       `json:"watering_period_days"`
	LastWatered        *time.Time `json:"last_watered"`
	Image              *string    `json:"image"`
}

// PlantMeta is the per-plant part of the local metadata overlay.
type PlantMeta struct {
	Favorite bool `bson:"favorite" json:"favorite"`
}

// NotificationPrefs controls the daily watering reminder.
type NotificationPrefs struct {
	Enabled   bool   `bson:"enabled" json:"enabled"`
	Recipient string `bson:"recipient" json:"recipient"`
}

// Metadata is the free-form per-user state kept next to the plant records.
// Plant entries are keyed by the decimal plant id.
type Metadata struct {
	UserID        string               `bson:"_id" json:"user_id"`
	Plants        map[string]PlantMeta `bson:"plants" json:"plants"`
	Notifications NotificationPrefs    `bson:"notifications" json:"notifications"`
}
