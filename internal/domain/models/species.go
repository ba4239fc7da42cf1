package models

// Species is one entry of the reference houseplant catalog. LabelEn and
// LabelKo are the names the classifier returns, so a classified plant can be
// matched back to its care profile.
type Species struct {
	ID             int64    `bson:"_id" json:"id"`
	LatinName      string   `bson:"latin_name" json:"latin_name"`
	CommonName     string   `bson:"common_name" json:"common_name"`
	LabelEn        string   `bson:"ai_label_en" json:"ai_label_en"`
	LabelKo        string   `bson:"ai_label_ko" json:"ai_label_ko"`
	Family         string   `bson:"family,omitempty" json:"family,omitempty"`
	Category       string   `bson:"category,omitempty" json:"category,omitempty"`
	Origin         string   `bson:"origin,omitempty" json:"origin,omitempty"`
	Climate        string   `bson:"climate,omitempty" json:"climate,omitempty"`
	TempMinC       *float64 `bson:"temp_min_celsius,omitempty" json:"temp_min,omitempty"`
	TempMaxC       *float64 `bson:"temp_max_celsius,omitempty" json:"temp_max,omitempty"`
	IdealLight     string   `bson:"ideal_light,omitempty" json:"ideal_light,omitempty"`
	ToleratedLight string   `bson:"tolerated_light,omitempty" json:"tolerated_light,omitempty"`
	WateringDesc   string   `bson:"watering_desc,omitempty" json:"watering_desc,omitempty"`
	WateringDays   int      `bson:"watering_days,omitempty" json:"watering_days,omitempty"`
	WateringAmount string   `bson:"watering_amount,omitempty" json:"watering_amount,omitempty"`
	Pests          string   `bson:"insects,omitempty" json:"insects,omitempty"`
	Use            string   `bson:"use_category,omitempty" json:"use_category,omitempty"`
}

// Labeled reports whether the entry can be matched against classifier output.
func (s Species) Labeled() bool {
	return s.LabelEn != "" || s.LabelKo != ""
}
