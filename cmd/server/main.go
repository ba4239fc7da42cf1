package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/cache"
	"github.com/mamadbah2/plantcare/internal/config"
	"github.com/mamadbah2/plantcare/internal/repository/memory"
	"github.com/mamadbah2/plantcare/internal/repository/mongodb"
	"github.com/mamadbah2/plantcare/internal/repository/sheets"
	"github.com/mamadbah2/plantcare/internal/scheduler"
	"github.com/mamadbah2/plantcare/internal/server/handlers"
	"github.com/mamadbah2/plantcare/internal/server/router"
	commandsvc "github.com/mamadbah2/plantcare/internal/service/commands"
	plantsvc "github.com/mamadbah2/plantcare/internal/service/plants"
	remindersvc "github.com/mamadbah2/plantcare/internal/service/reminder"
	reportingsvc "github.com/mamadbah2/plantcare/internal/service/reporting"
	speciessvc "github.com/mamadbah2/plantcare/internal/service/species"
	weathersvc "github.com/mamadbah2/plantcare/internal/service/weather"
	whatsappsvc "github.com/mamadbah2/plantcare/internal/service/whatsapp"
	"github.com/mamadbah2/plantcare/pkg/clients/anthropic"
	"github.com/mamadbah2/plantcare/pkg/clients/classifier"
	weatherclient "github.com/mamadbah2/plantcare/pkg/clients/weather"
	whatsappclient "github.com/mamadbah2/plantcare/pkg/clients/whatsapp"
	"github.com/mamadbah2/plantcare/pkg/logger"
)

const memoryScheme = "memory://"

type store interface {
	plantsvc.Store
	speciessvc.Store
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func main() {
	envFile := flag.String("env", "", "path to an env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()

	var plantStore store
	if strings.HasPrefix(cfg.MongoDB.URI, memoryScheme) {
		plantStore = memory.NewRepository()
		baseLogger.Warn("using in-memory plant store, data is lost on restart")
	} else {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		plantStore = mongoRepo
	}
	defer func() {
		if err := plantStore.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close plant store", zap.Error(err))
		}
	}()

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Info("google sheets not configured, report export disabled")
	}

	var weatherCache weathersvc.Cache
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			baseLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		weatherCache = cache.NewRedisWeatherCache(redisClient, cfg.Weather.CacheTTL)
	} else {
		weatherCache = cache.NewMemoryWeatherCache(cfg.Weather.CacheTTL)
	}

	var advisor plantsvc.Advisor
	if cfg.AI.AnthropicKey != "" {
		advisor = anthropic.NewClient(cfg.AI.AnthropicKey)
		baseLogger.Info("anthropic care advice enabled")
	} else {
		baseLogger.Warn("anthropic api key missing, care advice disabled")
	}

	speciesSvc := speciessvc.NewService(plantStore, baseLogger.Named("svc.species"))
	if cfg.Catalog.SeedPath != "" {
		entries, err := speciessvc.LoadFile(cfg.Catalog.SeedPath)
		if err != nil {
			baseLogger.Fatal("failed to read species catalog", zap.String("path", cfg.Catalog.SeedPath), zap.Error(err))
		}
		if _, err := speciesSvc.Seed(ctx, entries); err != nil {
			baseLogger.Error("failed to seed species catalog", zap.Error(err))
		}
	}

	plantSvc := plantsvc.NewService(
		plantStore,
		classifier.NewClient(cfg.Classifier),
		advisor,
		cache.NewPlantCache(cfg.Cache.PlantTTL),
		plantsvc.Options{UserID: cfg.User.ID, Location: loc, Catalog: speciesSvc},
		baseLogger.Named("svc.plants"),
	)
	reportingSvc := reportingsvc.NewService(plantSvc, sheetsRepo, baseLogger.Named("svc.reporting"))

	var weatherSvc handlers.WeatherService
	if cfg.Weather.APIKey != "" {
		weatherSvc = weathersvc.NewService(weatherclient.NewClient(cfg.Weather), weatherCache, baseLogger.Named("svc.weather"))
	} else {
		baseLogger.Warn("weather api key missing, weather lookups disabled")
	}

	whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
	var messenger remindersvc.Messenger
	if cfg.WhatsApp.Enabled() {
		messenger = whatsClient
	} else {
		baseLogger.Warn("whatsapp not configured, reminders will not be delivered")
	}
	reminderSvc := remindersvc.NewService(plantSvc, messenger, loc, baseLogger.Named("svc.reminder"))

	var exporter scheduler.ReportExporter
	if sheetsRepo != nil {
		exporter = reportingSvc
	}
	sched := scheduler.NewScheduler(cfg.Reminder, loc, reminderSvc, exporter, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	commandDispatcher := commandsvc.NewService(plantSvc, reportingSvc, baseLogger.Named("svc.commands"))
	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))

	engine := router.New(router.Handlers{
		Plants:  handlers.NewPlantHandler(plantSvc, weatherSvc, baseLogger.Named("handlers.plants")),
		Care:    handlers.NewCareHandler(reportingSvc, plantSvc, weatherSvc, sched, baseLogger.Named("handlers.care")),
		Species: handlers.NewSpeciesHandler(speciesSvc, baseLogger.Named("handlers.species")),
		Webhook: handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp")),
	}, router.Options{
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		ClassifyPerMinute: cfg.Classifier.RatePerMinute,
		Health:            plantStore,
	}, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
