package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/plantcare/internal/domain/models"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

type fakePlants struct {
	plants    []models.Plant
	waterings map[int64][]models.WateringEvent
	logErr    error
}

func (f *fakePlants) List(context.Context, bool) []models.Plant { return f.plants }

func (f *fakePlants) Waterings(_ context.Context, id int64, _ time.Time) ([]models.WateringEvent, error) {
	return f.waterings[id], f.logErr
}

func (f *fakePlants) Today() time.Time { return day(11, 30) }

type fakeSheets struct {
	sheetRange string
	header     []interface{}
	rows       [][]interface{}
	err        error
}

func (f *fakeSheets) AppendRows(_ context.Context, sheetRange string, header []interface{}, rows [][]interface{}) error {
	f.sheetRange = sheetRange
	f.header = header
	f.rows = rows
	return f.err
}

func fixture() *fakePlants {
	fernLast := day(11, 25)
	return &fakePlants{
		plants: []models.Plant{
			{ID: 1, Nickname: "Fern", WateringPeriodDays: 7, LastWatered: &fernLast, Score: 90},
			{ID: 2, Nickname: "Cactus", WateringPeriodDays: 0, Score: 100},
		},
		waterings: map[int64][]models.WateringEvent{
			1: {{PlantID: 1, Date: day(11, 25)}, {PlantID: 1, Date: day(11, 18)}, {PlantID: 1, Date: day(11, 10)}},
		},
	}
}

func TestBuildRecent(t *testing.T) {
	svc := NewService(fixture(), nil, nil)

	report, err := svc.Build(context.Background(), models.ReportRecent, 30)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(report.Entries) != 2 {
		t.Fatalf("entries = %d", len(report.Entries))
	}

	fern := report.Entries[0]
	if fern.Expected != 4 || fern.Success != 3 || fern.Rate != 75 {
		t.Errorf("fern = %+v", fern)
	}
	cactus := report.Entries[1]
	if cactus.PeriodDays != 7 || cactus.Rate != 0 {
		t.Errorf("cactus = %+v", cactus)
	}
	if report.Average != 38 {
		t.Errorf("average = %d, want 38", report.Average)
	}
}

func TestBuildModes(t *testing.T) {
	svc := NewService(fixture(), nil, nil)
	ctx := context.Background()

	heuristic, _ := svc.Build(ctx, models.ReportHeuristic, 0)
	if heuristic.WindowDays != 30 || heuristic.Entries[0].Rate != 25 {
		t.Errorf("heuristic = %+v", heuristic.Entries[0])
	}

	score, _ := svc.Build(ctx, models.ReportScore, 30)
	if score.Entries[0].Rate != 90 || score.Average != 95 {
		t.Errorf("score = %+v, average %d", score.Entries[0], score.Average)
	}

	if _, err := svc.Build(ctx, "weekly", 30); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("err = %v, want ErrInvalidMode", err)
	}

	empty, _ := svc.Build(ctx, "", 30)
	if empty.Mode != models.ReportRecent {
		t.Errorf("default mode = %s", empty.Mode)
	}
}

func TestBuildWithoutLog(t *testing.T) {
	plants := fixture()
	plants.logErr = errors.New("mongo down")
	svc := NewService(plants, nil, nil)

	report, err := svc.Build(context.Background(), models.ReportRecent, 30)
	if err != nil {
		t.Fatalf("log failures should not fail the report: %v", err)
	}
	if report.Entries[0].Rate != 0 {
		t.Errorf("rate = %d, want 0 without a log", report.Entries[0].Rate)
	}
}

func TestSummary(t *testing.T) {
	svc := NewService(fixture(), nil, nil)
	report, _ := svc.Build(context.Background(), models.ReportRecent, 30)

	summary := svc.Summary(report)
	for _, want := range []string{"last 30 days", "- Fern: 75% (3/4)", "- Cactus: 0% (0/4)", "Average: 38%"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	if got := svc.Summary(models.DiligenceReport{}); got != "No plants registered yet." {
		t.Errorf("empty summary = %q", got)
	}
}

func TestExport(t *testing.T) {
	sheets := &fakeSheets{}
	svc := NewService(fixture(), sheets, nil)
	report, _ := svc.Build(context.Background(), models.ReportRecent, 30)

	n, err := svc.Export(context.Background(), report)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if n != 2 || sheets.sheetRange != "Report!A:G" {
		t.Errorf("exported %d rows to %s", n, sheets.sheetRange)
	}
	if len(sheets.header) != 7 || sheets.header[0] != "date" || sheets.header[6] != "rate" {
		t.Errorf("header = %v", sheets.header)
	}
	for i, row := range sheets.rows {
		if len(row) != len(sheets.header) {
			t.Errorf("row %d has %d cells, header has %d", i, len(row), len(sheets.header))
		}
	}
	first := sheets.rows[0]
	if first[0] != "2024-11-30" || first[1] != int64(1) || first[2] != "Fern" || first[6] != 75 {
		t.Errorf("row = %v", first)
	}

	sheets.err = errors.New("quota")
	if _, err := svc.Export(context.Background(), report); err == nil {
		t.Error("expected export error")
	}

	if _, err := NewService(fixture(), nil, nil).Export(context.Background(), report); !errors.Is(err, ErrExportDisabled) {
		t.Errorf("err = %v, want ErrExportDisabled", err)
	}
}
