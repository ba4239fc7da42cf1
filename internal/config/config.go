package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	MongoDB    MongoDBConfig
	User       UserConfig
	Cache      CacheConfig
	Catalog    CatalogConfig
	Classifier ClassifierConfig
	Weather    WeatherConfig
	Redis      RedisConfig
	WhatsApp   WhatsAppConfig
	Reminder   ReminderConfig
	Sheets     SheetsConfig
	AI         AIConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// UserConfig identifies the single owner of the plant collection.
type UserConfig struct {
	ID string
}

// CacheConfig tunes the in-process plant list cache.
type CacheConfig struct {
	PlantTTL time.Duration
}

// CatalogConfig points at the house plant dataset that seeds the species
// catalog on startup. Seeding is skipped when SeedPath is empty.
type CatalogConfig struct {
	SeedPath string
}

// ClassifierConfig points at the species/disease inference endpoint.
type ClassifierConfig struct {
	URL           string
	Timeout       time.Duration
	RatePerMinute int
}

// WeatherConfig points at the short-term forecast API.
type WeatherConfig struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// RedisConfig is optional; weather lookups are cached there when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
}

// Enabled reports whether reminders can be delivered.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// ReminderConfig holds scheduler-related settings.
type ReminderConfig struct {
	CronSchedule       string
	ReportCronSchedule string
	Timezone           string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether report export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// AIConfig holds settings for LLM providers.
type AIConfig struct {
	AnthropicKey string
}

// LogConfig controls the zap logger and its optional rolling file.
type LogConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			AllowedOrigins: splitList(getenvWithDefault("ALLOWED_ORIGINS", "*")),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "plantcare"),
		},
		User: UserConfig{
			ID: getenvWithDefault("USER_ID", "default"),
		},
		Cache: CacheConfig{
			PlantTTL: getenvDuration("PLANT_CACHE_TTL", 5*time.Second),
		},
		Catalog: CatalogConfig{
			SeedPath: os.Getenv("SPECIES_CATALOG_PATH"),
		},
		Classifier: ClassifierConfig{
			URL:           getenvWithDefault("CLASSIFIER_URL", "http://localhost:5000"),
			Timeout:       getenvDuration("CLASSIFIER_TIMEOUT", 20*time.Second),
			RatePerMinute: getenvInt("CLASSIFY_RATE_PER_MINUTE", 20),
		},
		Weather: WeatherConfig{
			URL:      getenvWithDefault("WEATHER_URL", "https://apis.data.go.kr/1360000/VilageFcstInfoService_2.0"),
			APIKey:   os.Getenv("WEATHER_API_KEY"),
			Timeout:  getenvDuration("WEATHER_TIMEOUT", 10*time.Second),
			CacheTTL: getenvDuration("WEATHER_CACHE_TTL", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		},
		Reminder: ReminderConfig{
			CronSchedule:       getenvWithDefault("REMINDER_CRON_SCHEDULE", "0 9 * * *"),
			ReportCronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * 5"),
			Timezone:           getenvWithDefault("TIMEZONE", "Asia/Seoul"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		AI: AIConfig{
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		Log: LogConfig{
			Level:      getenvWithDefault("LOG_LEVEL", "info"),
			Path:       os.Getenv("LOG_PATH"),
			MaxSizeMB:  getenvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getenvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getenvInt("LOG_MAX_AGE_DAYS", 7),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.User.ID == "" {
		return errors.New("USER_ID must not be empty")
	}

	if c.Classifier.URL == "" {
		return errors.New("CLASSIFIER_URL must be provided")
	}
	if c.Classifier.Timeout <= 0 {
		return errors.New("CLASSIFIER_TIMEOUT must be positive")
	}

	if _, err := time.LoadLocation(c.Reminder.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is invalid: %w", c.Reminder.Timezone, err)
	}

	if _, err := cron.ParseStandard(c.Reminder.CronSchedule); err != nil {
		return fmt.Errorf("REMINDER_CRON_SCHEDULE is invalid: %w", err)
	}
	if _, err := cron.ParseStandard(c.Reminder.ReportCronSchedule); err != nil {
		return fmt.Errorf("REPORT_CRON_SCHEDULE is invalid: %w", err)
	}

	if c.WhatsApp.Enabled() && c.WhatsApp.VerifyToken == "" {
		return errors.New("META_VERIFY_TOKEN must be provided when WHATSAPP_TOKEN is set")
	}

	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reminder.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
