package reporting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/domain/models"
	"github.com/mamadbah2/plantcare/internal/domain/watering"
	repo "github.com/mamadbah2/plantcare/internal/repository/sheets"
)

const (
	dateLayout   = "2006-01-02"
	reportRange  = "Report!A:G"
	maxWindowDay = 365
)

// reportColumns heads the spreadsheet tab the first time a report lands in it.
var reportColumns = []interface{}{"date", "plant_id", "name", "mode", "expected", "success", "rate"}

var (
	// ErrInvalidMode is returned for an unknown report mode.
	ErrInvalidMode = errors.New("invalid report mode")
	// ErrExportDisabled is returned when no spreadsheet is configured.
	ErrExportDisabled = errors.New("report export is not configured")
)

// PlantSource is the slice of the plant service reports are built from.
type PlantSource interface {
	List(ctx context.Context, force bool) []models.Plant
	Waterings(ctx context.Context, id int64, since time.Time) ([]models.WateringEvent, error)
	Today() time.Time
}

// Service builds diligence reports and exports them to a spreadsheet.
type Service struct {
	plants PlantSource
	sheets repo.Repository
	logger *zap.Logger
}

// NewService wires a new reporting service instance. sheets may be nil when
// export is not configured.
func NewService(plants PlantSource, sheets repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{plants: plants, sheets: sheets, logger: logger}
}

// Build computes one entry per plant over the trailing window.
func (s *Service) Build(ctx context.Context, mode models.ReportMode, windowDays int) (models.DiligenceReport, error) {
	if mode == "" {
		mode = models.ReportRecent
	}
	if !mode.Valid() {
		return models.DiligenceReport{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if windowDays <= 0 {
		windowDays = watering.DefaultWindowDays
	}
	if windowDays > maxWindowDay {
		windowDays = maxWindowDay
	}

	today := s.plants.Today()
	report := models.DiligenceReport{
		GeneratedAt: today,
		Mode:        mode,
		WindowDays:  windowDays,
		Entries:     []models.ReportEntry{},
	}

	total := 0
	for _, p := range s.plants.List(ctx, false) {
		var rate watering.Rate
		switch mode {
		case models.ReportRecent:
			since := watering.AddDays(today, -windowDays)
			events, err := s.plants.Waterings(ctx, p.ID, since)
			if err != nil {
				s.logger.Warn("watering log unavailable, counting none", zap.Int64("plant_id", p.ID), zap.Error(err))
			}
			rate = watering.DiligenceRateFromLog(p, events, today, windowDays)
		case models.ReportHeuristic, models.ReportScore:
			rate = watering.DiligenceRate(p, today, windowDays)
		}

		entry := models.ReportEntry{
			PlantID:    p.ID,
			Name:       p.DisplayName(),
			PeriodDays: watering.NormalizePeriod(p.WateringPeriodDays),
			Expected:   rate.Expected,
			Success:    rate.Success,
			Rate:       rate.Percent,
			Score:      p.Score,
		}
		if mode == models.ReportScore {
			entry.Rate = p.Score
		}

		total += entry.Rate
		report.Entries = append(report.Entries, entry)
	}

	if n := len(report.Entries); n > 0 {
		report.Average = int(math.Round(float64(total) / float64(n)))
	}

	return report, nil
}

// Summary renders a report as a chat-friendly digest.
func (s *Service) Summary(report models.DiligenceReport) string {
	if len(report.Entries) == 0 {
		return "No plants registered yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Watering diligence, last %d days (%s):\n", report.WindowDays, report.Mode)
	for _, e := range report.Entries {
		if report.Mode == models.ReportScore {
			fmt.Fprintf(&b, "- %s: score %d\n", e.Name, e.Score)
			continue
		}
		fmt.Fprintf(&b, "- %s: %d%% (%d/%d)\n", e.Name, e.Rate, e.Success, e.Expected)
	}
	fmt.Fprintf(&b, "Average: %d%%", report.Average)
	return b.String()
}

// Export appends the report rows to the spreadsheet, one per plant.
func (s *Service) Export(ctx context.Context, report models.DiligenceReport) (int, error) {
	if s.sheets == nil {
		return 0, ErrExportDisabled
	}

	date := report.GeneratedAt.Format(dateLayout)
	rows := make([][]interface{}, 0, len(report.Entries))
	for _, e := range report.Entries {
		rows = append(rows, []interface{}{date, e.PlantID, e.Name, string(report.Mode), e.Expected, e.Success, e.Rate})
	}

	if err := s.sheets.AppendRows(ctx, reportRange, reportColumns, rows); err != nil {
		return 0, fmt.Errorf("export report: %w", err)
	}

	s.logger.Info("report exported", zap.String("date", date), zap.Int("rows", len(rows)))
	return len(rows), nil
}
