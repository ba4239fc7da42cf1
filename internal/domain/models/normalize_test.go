package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type fakeDateTime int64

func (d fakeDateTime) Time() time.Time { return time.UnixMilli(int64(d)) }

func TestNormalizeRecordFieldDrift(t *testing.T) {
	want := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)

	records := []map[string]any{
		{"id": 4, "nickname": "Monty", "wateringperiod": 5, "last_watered": "2025-11-10"},
		{"id": int32(4), "name": "Monty", "WateringPeriod": 5.0, "waterDate": "2025-11-10T08:30:00Z"},
		{"_id": int64(4), "nickname": "Monty", "watering_days": "5", "lastWatered": fakeDateTime(want.UnixMilli())},
		{"user_plant_id": json.Number("4"), "nickname": "Monty", "watering_cycle": json.Number("5"), "last_watered": want},
	}

	for i, raw := range records {
		p, err := NormalizeRecord(raw)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if p.ID != 4 {
			t.Errorf("record %d: id = %d", i, p.ID)
		}
		if p.Nickname != "Monty" {
			t.Errorf("record %d: nickname = %q", i, p.Nickname)
		}
		if p.WateringPeriodDays != 5 {
			t.Errorf("record %d: period = %d", i, p.WateringPeriodDays)
		}
		if p.LastWatered == nil || !p.LastWatered.Equal(want) {
			t.Errorf("record %d: last watered = %v", i, p.LastWatered)
		}
	}
}

func TestNormalizeRecordDefaults(t *testing.T) {
	p, err := NormalizeRecord(map[string]any{"id": 1, "species_label_ko": "몬스테라", "wateringperiod": 0})
	if err != nil {
		t.Fatal(err)
	}
	if p.WateringPeriodDays != DefaultWateringPeriodDays {
		t.Errorf("period = %d, want default", p.WateringPeriodDays)
	}
	if p.Score != DefaultScore {
		t.Errorf("score = %d, want %d", p.Score, DefaultScore)
	}
	if p.LastWatered != nil || p.NextWatering != nil {
		t.Error("dates should stay nil when absent")
	}
	if p.DisplayName() != "몬스테라" {
		t.Errorf("display name = %q", p.DisplayName())
	}
}

func TestNormalizeRecordClampsScore(t *testing.T) {
	p, err := NormalizeRecord(map[string]any{"id": 1, "score": 140})
	if err != nil {
		t.Fatal(err)
	}
	if p.Score != 100 {
		t.Errorf("score = %d, want 100", p.Score)
	}

	p, err = NormalizeRecord(map[string]any{"id": 1, "score": -3})
	if err != nil {
		t.Fatal(err)
	}
	if p.Score != 0 {
		t.Errorf("score = %d, want 0", p.Score)
	}
}

func TestNormalizeRecordRejects(t *testing.T) {
	if _, err := NormalizeRecord(map[string]any{"nickname": "no id"}); !errors.Is(err, ErrMissingID) {
		t.Errorf("missing id: err = %v, want ErrMissingID", err)
	}
	if _, err := NormalizeRecord(map[string]any{"id": 1, "last_watered": "yesterday"}); err == nil {
		t.Error("invalid date should fail")
	}
	if _, err := NormalizeRecord(map[string]any{"id": 1, "wateringperiod": []int{1}}); err == nil {
		t.Error("invalid period type should fail")
	}
	if _, err := NormalizeRecord(nil); err == nil {
		t.Error("nil record should fail")
	}
}

func TestNormalizeNewRecordAllowsMissingID(t *testing.T) {
	p, err := NormalizeNewRecord(map[string]any{"name": "Fern", "favorite": "true", "nextWater": "2025-12-01"})
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != 0 || !p.Favorite {
		t.Errorf("got id=%d favorite=%v", p.ID, p.Favorite)
	}
	if p.NextWatering == nil || p.NextWatering.Format("2006-01-02") != "2025-12-01" {
		t.Errorf("next watering = %v", p.NextWatering)
	}
}

func TestSanitizeNickname(t *testing.T) {
	if got := SanitizeNickname("  <b>Fern</b><script>x()</script> "); got != "Fern" {
		t.Errorf("SanitizeNickname = %q, want Fern", got)
	}
}

func TestDisplayNameFallbacks(t *testing.T) {
	cases := []struct {
		plant Plant
		want  string
	}{
		{Plant{Nickname: "Bob", SpeciesLabelKo: "고무나무", SpeciesLabel: "rubber plant"}, "Bob"},
		{Plant{SpeciesLabelKo: "고무나무", SpeciesLabel: "rubber plant"}, "고무나무"},
		{Plant{SpeciesLabel: "rubber plant"}, "rubber plant"},
	}
	for _, tc := range cases {
		if got := tc.plant.DisplayName(); got != tc.want {
			t.Errorf("DisplayName() = %q, want %q", got, tc.want)
		}
	}
}
