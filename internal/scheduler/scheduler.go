package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/config"
	"github.com/mamadbah2/plantcare/internal/domain/models"
	"github.com/mamadbah2/plantcare/internal/domain/watering"
	"github.com/mamadbah2/plantcare/internal/service/reminder"
	"github.com/mamadbah2/plantcare/internal/service/reporting"
)

// ReminderRunner sends the daily watering reminder.
type ReminderRunner interface {
	CheckAndNotify(ctx context.Context, now time.Time) (reminder.Outcome, error)
}

// ReportExporter builds and exports the weekly diligence report.
type ReportExporter interface {
	Build(ctx context.Context, mode models.ReportMode, windowDays int) (models.DiligenceReport, error)
	Export(ctx context.Context, report models.DiligenceReport) (int, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	reminder  ReminderRunner
	reporting ReportExporter
	cfg       config.ReminderConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. Schedules are evaluated in loc.
// reporting may be nil when export is not configured.
func NewScheduler(cfg config.ReminderConfig, loc *time.Location, reminderSvc ReminderRunner, reportingSvc ReportExporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return &Scheduler{
		cron:      c,
		reminder:  reminderSvc,
		reporting: reportingSvc,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("reminder_schedule", s.cfg.CronSchedule),
		zap.String("report_schedule", s.cfg.ReportCronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runReminder); err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}

	if s.reporting != nil {
		if _, err := s.cron.AddFunc(s.cfg.ReportCronSchedule, s.runWeeklyExport); err != nil {
			return fmt.Errorf("schedule weekly report: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Entries is the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// RunReminder runs the reminder job immediately.
func (s *Scheduler) RunReminder(ctx context.Context) (reminder.Outcome, error) {
	return s.reminder.CheckAndNotify(ctx, s.now())
}

// ExportWeeklyReport builds the report over the last week and exports it.
func (s *Scheduler) ExportWeeklyReport(ctx context.Context) (int, error) {
	if s.reporting == nil {
		return 0, reporting.ErrExportDisabled
	}
	report, err := s.reporting.Build(ctx, models.ReportRecent, watering.DefaultWindowDays)
	if err != nil {
		return 0, err
	}
	return s.reporting.Export(ctx, report)
}

func (s *Scheduler) runReminder() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	outcome, err := s.RunReminder(ctx)
	if err != nil {
		s.logger.Error("watering reminder failed", zap.Error(err))
		return
	}
	s.logger.Info("watering reminder checked",
		zap.Bool("sent", outcome.Sent),
		zap.String("reason", outcome.Reason),
		zap.Int("due", len(outcome.Plants)))
}

func (s *Scheduler) runWeeklyExport() {
	s.logger.Info("exporting weekly report")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rows, err := s.ExportWeeklyReport(ctx)
	if err != nil && !errors.Is(err, reporting.ErrExportDisabled) {
		s.logger.Error("failed to export weekly report", zap.Error(err))
		return
	}
	s.logger.Info("weekly report exported", zap.Int("rows", rows))
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
