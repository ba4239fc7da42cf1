package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/plantcare/internal/config"
	"github.com/mamadbah2/plantcare/internal/domain/models"
	"github.com/mamadbah2/plantcare/internal/service/reminder"
	"github.com/mamadbah2/plantcare/internal/service/reporting"
)

type fakeReminder struct {
	calls []time.Time
}

func (f *fakeReminder) CheckAndNotify(_ context.Context, now time.Time) (reminder.Outcome, error) {
	f.calls = append(f.calls, now)
	return reminder.Outcome{Sent: true}, nil
}

type fakeReporting struct {
	window   int
	exported bool
	err      error
}

func (f *fakeReporting) Build(_ context.Context, mode models.ReportMode, window int) (models.DiligenceReport, error) {
	f.window = window
	return models.DiligenceReport{Mode: mode, WindowDays: window, Entries: []models.ReportEntry{{PlantID: 1}}}, nil
}

func (f *fakeReporting) Export(context.Context, models.DiligenceReport) (int, error) {
	f.exported = true
	return 1, f.err
}

var cfg = config.ReminderConfig{CronSchedule: "0 9 * * *", ReportCronSchedule: "0 20 * * 5"}

func TestStartRegistersJobs(t *testing.T) {
	s := NewScheduler(cfg, time.UTC, &fakeReminder{}, &fakeReporting{}, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if s.Entries() != 2 {
		t.Errorf("entries = %d, want 2", s.Entries())
	}
}

func TestStartWithoutReporting(t *testing.T) {
	s := NewScheduler(cfg, nil, &fakeReminder{}, nil, nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if s.Entries() != 1 {
		t.Errorf("entries = %d, want 1", s.Entries())
	}
	if _, err := s.ExportWeeklyReport(context.Background()); !errors.Is(err, reporting.ErrExportDisabled) {
		t.Errorf("err = %v", err)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	bad := config.ReminderConfig{CronSchedule: "whenever", ReportCronSchedule: "0 20 * * 5"}
	if err := NewScheduler(bad, time.UTC, &fakeReminder{}, nil, nil).Start(); err == nil {
		t.Error("expected schedule error")
	}
}

func TestManualRuns(t *testing.T) {
	rem := &fakeReminder{}
	rep := &fakeReporting{}
	s := NewScheduler(cfg, time.UTC, rem, rep, nil)
	fixed := time.Date(2024, 11, 20, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if _, err := s.RunReminder(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rem.calls) != 1 || !rem.calls[0].Equal(fixed) {
		t.Errorf("reminder calls = %v", rem.calls)
	}

	rows, err := s.ExportWeeklyReport(context.Background())
	if err != nil || rows != 1 || !rep.exported || rep.window != 30 {
		t.Errorf("export = %d, %v, %+v", rows, err, rep)
	}
}
