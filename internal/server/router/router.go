package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/server/handlers"
	"github.com/mamadbah2/plantcare/internal/server/middleware"
)

// maxUploadBytes bounds the in-memory part of photo uploads.
const maxUploadBytes = 10 << 20

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the HTTP adapters served by the engine.
type Handlers struct {
	Plants  *handlers.PlantHandler
	Care    *handlers.CareHandler
	Species *handlers.SpeciesHandler
	Webhook *handlers.WebhookHandler
}

// Options tunes the engine.
type Options struct {
	AllowedOrigins    []string
	ClassifyPerMinute int
	Health            Pinger
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = maxUploadBytes
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	r.GET("/healthz", healthz(opts.Health))

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
	}

	classify := middleware.NewRateLimiter(opts.ClassifyPerMinute).Middleware()
	api := r.Group("/api")

	if h.Plants != nil {
		api.GET("/plants", h.Plants.List)
		api.POST("/plants", classify, h.Plants.Register)
		api.POST("/plants/import", h.Plants.Import)
		api.GET("/plants/:id", h.Plants.Get)
		api.PATCH("/plants/:id", h.Plants.Update)
		api.DELETE("/plants/:id", h.Plants.Delete)
		api.POST("/plants/:id/water", h.Plants.Water)
		api.PUT("/plants/:id/favorite", h.Plants.SetFavorite)
		api.POST("/plants/:id/diagnose", classify, h.Plants.Diagnose)
		api.GET("/plants/:id/advice", h.Plants.Advice)
		api.GET("/plants/:id/waterings", h.Plants.Waterings)
		api.GET("/due", h.Plants.Due)
		api.GET("/calendar", h.Plants.Calendar)
	}

	if h.Species != nil {
		api.GET("/species", h.Species.List)
		api.GET("/species/search", h.Species.Search)
		api.GET("/species/:id", h.Species.Get)
	}

	if h.Care != nil {
		api.GET("/report", h.Care.Report)
		api.POST("/report/export", h.Care.ExportReport)
		api.GET("/weather", h.Care.Weather)
		api.GET("/settings/notifications", h.Care.Notifications)
		api.PUT("/settings/notifications", h.Care.SetNotifications)
		api.POST("/reminders/run", h.Care.RunReminder)
	}

	logger.Info("router initialized", zap.Int("routes", len(r.Routes())))

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func healthz(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
