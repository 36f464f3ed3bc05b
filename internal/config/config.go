// Package config loads all runtime settings from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every knob the service reads from the environment. Transports
// are optional: a missing token degrades that channel to a skip, never a
// startup failure.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPPort    int    `envconfig:"HTTP_PORT" default:"8080"`

	// Persistence
	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	DBPath   string `envconfig:"DB_PATH" default:"homeplan.db"`

	// Household
	Timezone    string `envconfig:"TIMEZONE" default:"Europe/Madrid"`
	CatalogPath string `envconfig:"CATALOG_PATH"` // optional YAML; built-in catalog when empty
	AppBaseURL  string `envconfig:"APP_BASE_URL" default:"https://reminderdave.vercel.app"`

	// Shared secret required by the cron endpoint.
	CronSecret string `envconfig:"CRON_SECRET"`

	// Email (Postmark)
	EmailServerToken string `envconfig:"EMAIL_SERVER_TOKEN"`
	EmailFromName    string `envconfig:"EMAIL_FROM_NAME" default:"Plan de Casa"`
	EmailFromAddress string `envconfig:"EMAIL_FROM_ADDRESS"`

	// Shared household Telegram bot used by the daily jobs. Per-person bots
	// are resolved from the env names declared in the catalog.
	DailyBotToken string `envconfig:"DAILY_BOT_TOKEN"`
	DailyChatID   string `envconfig:"DAILY_CHAT_ID"`

	// Internal minute scheduler. Disable when an external cron drives the
	// /api/cron endpoint instead.
	SchedulerEnabled bool `envconfig:"SCHEDULER_ENABLED" default:"true"`

	// SQLite backups to S3-compatible storage.
	BackupBucket    string        `envconfig:"BACKUP_BUCKET"`
	BackupRegion    string        `envconfig:"BACKUP_REGION" default:"us-east-1"`
	BackupEndpoint  string        `envconfig:"BACKUP_ENDPOINT"` // non-AWS providers
	BackupAccessKey string        `envconfig:"BACKUP_ACCESS_KEY"`
	BackupSecretKey string        `envconfig:"BACKUP_SECRET_KEY"`
	BackupPrefix    string        `envconfig:"BACKUP_PREFIX" default:"homeplan"`
	BackupInterval  time.Duration `envconfig:"BACKUP_INTERVAL" default:"24h"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("HOMEPLAN", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// EmailEnabled reports whether the Postmark sender is fully configured.
func (c *Config) EmailEnabled() bool {
	return c.EmailServerToken != "" && c.EmailFromAddress != ""
}

// DailyBotEnabled reports whether the shared household bot can post.
func (c *Config) DailyBotEnabled() bool {
	return c.DailyBotToken != "" && c.DailyChatID != ""
}

// BackupEnabled reports whether S3 backups are configured.
func (c *Config) BackupEnabled() bool {
	return c.BackupBucket != "" && c.BackupAccessKey != "" && c.BackupSecretKey != ""
}
