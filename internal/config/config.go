package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// S3Config holds object storage settings. When Bucket is empty the server
// falls back to local directory storage.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Config is the top-level application configuration. Values load from a
// YAML file, then PARISH_* environment variables override individual fields.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// DBPath is the SQLite database file path.
	DBPath string `yaml:"db_path"`

	// Timezone is the IANA timezone used for scheduled jobs (e.g. "Pacific/Auckland").
	Timezone string `yaml:"timezone"`

	// OutboxCron is a cron-style schedule for outbox retry processing.
	OutboxCron string `yaml:"outbox_cron"`

	// PublishCron is a cron-style schedule for publishing due social posts.
	PublishCron string `yaml:"publish_cron"`

	// ContinuationCron is a cron-style schedule for extending open-ended
	// recurring event series.
	ContinuationCron string `yaml:"continuation_cron"`

	// HorizonDays is the forward generation window for recurring events
	// without an explicit end date.
	HorizonDays int `yaml:"horizon_days"`

	// ResendAPIKey enables outbound email when non-empty.
	ResendAPIKey string `yaml:"resend_api_key"`

	// EmailFrom is the sender address for outbound email.
	EmailFrom string `yaml:"email_from"`

	// UploadDir is the local image storage directory, used when S3 is not
	// configured.
	UploadDir string `yaml:"upload_dir"`

	// SocialWebhookURL receives published social posts as JSON. Leave empty
	// to log posts instead of delivering them.
	SocialWebhookURL string `yaml:"social_webhook_url"`

	// S3 holds object storage settings for event and post images.
	S3 S3Config `yaml:"s3"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           ":8080",
		DBPath:           "parish.db",
		Timezone:         "Pacific/Auckland",
		OutboxCron:       "*/5 * * * *",
		PublishCron:      "* * * * *",
		ContinuationCron: "0 3 * * *",
		HorizonDays:      180,
		EmailFrom:        "noreply@parish.example",
		UploadDir:        "uploads",
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.DBPath == "" {
		c.DBPath = "parish.db"
	}
	if c.Timezone == "" {
		c.Timezone = "Pacific/Auckland"
	}
	if c.OutboxCron == "" {
		c.OutboxCron = "*/5 * * * *"
	}
	if c.PublishCron == "" {
		c.PublishCron = "* * * * *"
	}
	if c.ContinuationCron == "" {
		c.ContinuationCron = "0 3 * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 180
	}
	if c.EmailFrom == "" {
		c.EmailFrom = "noreply@parish.example"
	}
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
}

// Load loads configuration from the given YAML path, then applies
// environment overrides. A .env file in the working directory is loaded
// first if present.
//
// If path is empty or the file does not exist, defaults apply and only the
// environment is consulted.
func Load(path string) (*Config, error) {
	// Missing .env is not an error
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}
	cfg.Normalize()
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides individual fields from PARISH_* environment variables.
func (c *Config) applyEnv() {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setStr(&c.Listen, "PARISH_LISTEN")
	setStr(&c.DBPath, "PARISH_DB_PATH")
	setStr(&c.Timezone, "PARISH_TIMEZONE")
	setStr(&c.OutboxCron, "PARISH_OUTBOX_CRON")
	setStr(&c.PublishCron, "PARISH_PUBLISH_CRON")
	setStr(&c.ContinuationCron, "PARISH_CONTINUATION_CRON")
	setStr(&c.ResendAPIKey, "PARISH_RESEND_API_KEY")
	setStr(&c.EmailFrom, "PARISH_EMAIL_FROM")
	setStr(&c.UploadDir, "PARISH_UPLOAD_DIR")
	setStr(&c.SocialWebhookURL, "PARISH_SOCIAL_WEBHOOK_URL")
	setStr(&c.S3.Bucket, "PARISH_S3_BUCKET")
	setStr(&c.S3.Region, "PARISH_S3_REGION")
	setStr(&c.S3.Endpoint, "PARISH_S3_ENDPOINT")
	setStr(&c.S3.AccessKeyID, "PARISH_S3_ACCESS_KEY_ID")
	setStr(&c.S3.SecretAccessKey, "PARISH_S3_SECRET_ACCESS_KEY")

	if v := os.Getenv("PARISH_HORIZON_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.HorizonDays = n
		}
	}
}
