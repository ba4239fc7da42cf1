package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/domain/models"
	"github.com/mamadbah2/plantcare/internal/domain/watering"
	"github.com/mamadbah2/plantcare/internal/service/plants"
	weathersvc "github.com/mamadbah2/plantcare/internal/service/weather"
)

// PlantService is the plant collection API used by the HTTP layer.
type PlantService interface {
	Register(ctx context.Context, req plants.RegisterRequest) (models.Plant, error)
	List(ctx context.Context, force bool) []models.Plant
	Get(ctx context.Context, id int64) (models.Plant, error)
	Update(ctx context.Context, id int64, patch models.PlantPatch) (models.Plant, error)
	Delete(ctx context.Context, id int64) error
	Water(ctx context.Context, id int64) (models.Plant, error)
	SetFavorite(ctx context.Context, id int64, favorite bool) (models.Plant, error)
	Due(ctx context.Context) []models.Plant
	Calendar(ctx context.Context) []watering.Marker
	Diagnose(ctx context.Context, id int64, filename string, photo io.Reader) (plants.Diagnosis, error)
	Advice(ctx context.Context, id int64, temperature *float64) (string, error)
	Import(ctx context.Context, records []map[string]any) (plants.ImportResult, error)
	Waterings(ctx context.Context, id int64, since time.Time) ([]models.WateringEvent, error)
	Today() time.Time
}

// WeatherService looks up the forecast for a coordinate.
type WeatherService interface {
	Lookup(ctx context.Context, lat, lon float64) (*weathersvc.Report, error)
}

// PlantHandler serves the plant collection routes.
type PlantHandler struct {
	svc     PlantService
	weather WeatherService
	logger  *zap.Logger
}

// NewPlantHandler constructs the HTTP handler adapter. weather may be nil.
func NewPlantHandler(svc PlantService, weather WeatherService, logger *zap.Logger) *PlantHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlantHandler{svc: svc, weather: weather, logger: logger}
}

type registerBody struct {
	Nickname           string `json:"nickname"`
	SpeciesLabel       string `json:"species_label"`
	SpeciesLabelKo     string `json:"species_label_ko"`
	WateringPeriodDays int    `json:"watering_period_days"`
	Image              string `json:"image"`
}

// List returns every plant. ?force=true bypasses the cache.
func (h *PlantHandler) List(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("force"))
	c.JSON(http.StatusOK, gin.H{"plants": h.svc.List(c.Request.Context(), force)})
}

// Register creates a plant from a multipart photo upload or a JSON body.
func (h *PlantHandler) Register(c *gin.Context) {
	var req plants.RegisterRequest

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		req.Nickname = c.PostForm("nickname")
		req.SpeciesLabel = c.PostForm("species_label")
		req.SpeciesLabelKo = c.PostForm("species_label_ko")
		if raw := c.PostForm("watering_period_days"); raw != "" {
			period, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "watering_period_days must be a number"})
				return
			}
			req.WateringPeriodDays = period
		}

		if header, err := c.FormFile("photo"); err == nil {
			file, err := header.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable photo"})
				return
			}
			defer file.Close()
			req.Filename = header.Filename
			req.Photo = file
		}
	} else {
		var body registerBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req = plants.RegisterRequest{
			Nickname:           body.Nickname,
			SpeciesLabel:       body.SpeciesLabel,
			SpeciesLabelKo:     body.SpeciesLabelKo,
			WateringPeriodDays: body.WateringPeriodDays,
			Filename:           body.Image,
		}
	}

	plant, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, plant)
}

// Get returns one plant.
func (h *PlantHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	plant, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plant)
}

// Update edits a plant.
func (h *PlantHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch models.PlantPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	plant, err := h.svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plant)
}

// Delete removes a plant.
func (h *PlantHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Water records a watering on today.
func (h *PlantHandler) Water(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	plant, err := h.svc.Water(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plant)
}

// SetFavorite toggles the favorite flag.
func (h *PlantHandler) SetFavorite(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body struct {
		Favorite *bool `json:"favorite" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "favorite is required"})
		return
	}
	plant, err := h.svc.SetFavorite(c.Request.Context(), id, *body.Favorite)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plant)
}

// Due lists plants to water today.
func (h *PlantHandler) Due(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plants": h.svc.Due(c.Request.Context())})
}

// Calendar returns the watering calendar markers.
func (h *PlantHandler) Calendar(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"markers": h.svc.Calendar(c.Request.Context())})
}

// Diagnose classifies an uploaded leaf photo.
func (h *PlantHandler) Diagnose(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	header, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable photo"})
		return
	}
	defer file.Close()

	diagnosis, err := h.svc.Diagnose(c.Request.Context(), id, header.Filename, file)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, diagnosis)
}

// Advice returns a care note. With ?lat=&lon= the local temperature is included.
func (h *PlantHandler) Advice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var temperature *float64
	if h.weather != nil && c.Query("lat") != "" && c.Query("lon") != "" {
		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
		if latErr != nil || lonErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon must be numbers"})
			return
		}
		report, err := h.weather.Lookup(c.Request.Context(), lat, lon)
		if err != nil {
			h.logger.Warn("advice without weather", zap.Error(err))
		} else {
			temperature = &report.TemperatureC
		}
	}

	advice, err := h.svc.Advice(c.Request.Context(), id, temperature)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plant_id": id, "advice": advice})
}

// Import ingests a JSON array of legacy plant records.
func (h *PlantHandler) Import(c *gin.Context) {
	var records []map[string]any
	if err := c.ShouldBindJSON(&records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a JSON array of records"})
		return
	}
	result, err := h.svc.Import(c.Request.Context(), records)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Waterings returns the watering log of the last ?days=N days (default 30).
func (h *PlantHandler) Waterings(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	days := watering.DefaultWindowDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive number"})
			return
		}
		days = parsed
	}

	if _, err := h.svc.Get(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	events, err := h.svc.Waterings(c.Request.Context(), id, watering.AddDays(h.svc.Today(), -days))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if events == nil {
		events = []models.WateringEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"plant_id": id, "days": days, "waterings": events})
}
