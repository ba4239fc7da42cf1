package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "MONGODB_URI", "TIMEZONE", "PLANT_CACHE_TTL", "WHATSAPP_TOKEN", "ALLOWED_ORIGINS", "REMINDER_CRON_SCHEDULE", "REPORT_CRON_SCHEDULE", "CLASSIFIER_URL", "CLASSIFIER_TIMEOUT", "USER_ID", "MONGODB_DB_NAME", "SPECIES_CATALOG_PATH"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Cache.PlantTTL != 5*time.Second {
		t.Errorf("plant ttl = %s", cfg.Cache.PlantTTL)
	}
	if cfg.Reminder.CronSchedule != "0 9 * * *" {
		t.Errorf("reminder schedule = %q", cfg.Reminder.CronSchedule)
	}
	if cfg.WhatsApp.Enabled() {
		t.Error("whatsapp should be disabled without a token")
	}
	if cfg.Sheets.Enabled() {
		t.Error("sheets should be disabled without credentials")
	}
	if cfg.Catalog.SeedPath != "" {
		t.Errorf("catalog seed path = %q, want none", cfg.Catalog.SeedPath)
	}
	if cfg.Location().String() != "Asia/Seoul" {
		t.Errorf("location = %s", cfg.Location())
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("PLANT_CACHE_TTL", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	os.Unsetenv("APP_PORT")
	os.Unsetenv("PLANT_CACHE_TTL")
	os.Unsetenv("ALLOWED_ORIGINS")

	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "APP_PORT=9090\nPLANT_CACHE_TTL=2s\nALLOWED_ORIGINS=http://a.test, http://b.test\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Cache.PlantTTL != 2*time.Second {
		t.Errorf("plant ttl = %s, want 2s", cfg.Cache.PlantTTL)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: "8080"},
			MongoDB:    MongoDBConfig{URI: "mongodb://localhost", DBName: "plantcare"},
			User:       UserConfig{ID: "default"},
			Classifier: ClassifierConfig{URL: "http://localhost", Timeout: time.Second},
			Reminder:   ReminderConfig{CronSchedule: "0 9 * * *", ReportCronSchedule: "0 20 * * 5", Timezone: "UTC"},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }, "APP_PORT"},
		{"missing mongo", func(c *Config) { c.MongoDB.URI = "" }, "MONGODB_URI"},
		{"missing classifier", func(c *Config) { c.Classifier.URL = "" }, "CLASSIFIER_URL"},
		{"bad timezone", func(c *Config) { c.Reminder.Timezone = "Mars/Olympus" }, "TIMEZONE"},
		{"bad cron", func(c *Config) { c.Reminder.CronSchedule = "every day" }, "REMINDER_CRON_SCHEDULE"},
		{"whatsapp without verify token", func(c *Config) {
			c.WhatsApp.AccessToken = "token"
			c.WhatsApp.PhoneNumberID = "123"
		}, "META_VERIFY_TOKEN"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}

	var nilCfg *Config
	if err := nilCfg.Validate(); err == nil {
		t.Error("nil config should fail validation")
	}
}
