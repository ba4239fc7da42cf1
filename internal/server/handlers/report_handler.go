package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/domain/models"
	"github.com/mamadbah2/plantcare/internal/service/reminder"
)

// ReportService builds and exports diligence reports.
type ReportService interface {
	Build(ctx context.Context, mode models.ReportMode, windowDays int) (models.DiligenceReport, error)
	Summary(report models.DiligenceReport) string
	Export(ctx context.Context, report models.DiligenceReport) (int, error)
}

// SettingsService reads and writes the reminder preferences.
type SettingsService interface {
	Notifications(ctx context.Context) models.NotificationPrefs
	SetNotifications(ctx context.Context, prefs models.NotificationPrefs) (models.NotificationPrefs, error)
}

// ReminderTrigger runs the reminder job on demand.
type ReminderTrigger interface {
	RunReminder(ctx context.Context) (reminder.Outcome, error)
}

// CareHandler serves reports, weather, settings and manual reminder runs.
type CareHandler struct {
	reports  ReportService
	settings SettingsService
	weather  WeatherService
	reminder ReminderTrigger
	logger   *zap.Logger
}

// NewCareHandler constructs the HTTP handler adapter. weather and reminder may be nil.
func NewCareHandler(reports ReportService, settings SettingsService, weather WeatherService, reminder ReminderTrigger, logger *zap.Logger) *CareHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CareHandler{
		reports:  reports,
		settings: settings,
		weather:  weather,
		reminder: reminder,
		logger:   logger,
	}
}

func (h *CareHandler) buildReport(c *gin.Context) (models.DiligenceReport, bool) {
	window := 0
	if raw := c.Query("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a positive number of days"})
			return models.DiligenceReport{}, false
		}
		window = parsed
	}

	report, err := h.reports.Build(c.Request.Context(), models.ReportMode(c.Query("mode")), window)
	if err != nil {
		respondError(c, h.logger, err)
		return models.DiligenceReport{}, false
	}
	return report, true
}

// Report returns the diligence report. ?mode=recent|score|heuristic&window=N.
func (h *CareHandler) Report(c *gin.Context) {
	report, ok := h.buildReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report":  report,
		"summary": h.reports.Summary(report),
	})
}

// ExportReport appends the report to the configured spreadsheet.
func (h *CareHandler) ExportReport(c *gin.Context) {
	report, ok := h.buildReport(c)
	if !ok {
		return
	}
	rows, err := h.reports.Export(c.Request.Context(), report)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// Weather returns the forecast and care hint for ?lat=&lon=.
func (h *CareHandler) Weather(c *gin.Context) {
	if h.weather == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "weather lookup is not configured"})
		return
	}
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required"})
		return
	}

	report, err := h.weather.Lookup(c.Request.Context(), lat, lon)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Notifications returns the reminder preferences.
func (h *CareHandler) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Notifications(c.Request.Context()))
}

// SetNotifications replaces the reminder preferences.
func (h *CareHandler) SetNotifications(c *gin.Context) {
	var prefs models.NotificationPrefs
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	saved, err := h.settings.SetNotifications(c.Request.Context(), prefs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// RunReminder triggers the daily reminder check immediately.
func (h *CareHandler) RunReminder(c *gin.Context) {
	if h.reminder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reminders are not configured"})
		return
	}
	outcome, err := h.reminder.RunReminder(c.Request.Context())
	if err != nil {
		h.logger.Error("manual reminder run failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send reminder", "outcome": outcome})
		return
	}
	c.JSON(http.StatusOK, outcome)
}
