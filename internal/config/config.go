package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all process settings. Values come from an optional YAML file
// and are overridden by environment variables.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Mail      MailConfig      `yaml:"mail"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

// TelegramConfig contains bot transport settings. Token is the only
// hard-required value in the whole configuration.
type TelegramConfig struct {
	Token          string `yaml:"token"`
	OperatorChatID int64  `yaml:"operator_chat_id"`
	OperatorID     int64  `yaml:"operator_id"`
}

// MailConfig contains outbound email settings. All optional: with no API key
// the mailer reports every send as a non-fatal failure.
type MailConfig struct {
	SendgridAPIKey string `yaml:"sendgrid_api_key"`
	From           string `yaml:"from"`
	FromName       string `yaml:"from_name"`
}

// StorageConfig contains data file locations.
type StorageConfig struct {
	DatabaseFile string `yaml:"database_file"`
	// SessionsDB enables the sqlite-backed session table when set.
	// Empty means in-memory sessions that do not survive a restart.
	SessionsDB string `yaml:"sessions_db"`
}

// SchedulerConfig contains the reminder sweep schedule.
type SchedulerConfig struct {
	ReminderSpec string `yaml:"reminder_spec"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML config file (SELFSTORAGE_CONFIG_FILE or config.yaml),
// applies environment overrides and defaults. A missing config file is not an
// error: env vars alone are enough to run the bot.
func Load() (*Config, error) {
	path := os.Getenv("SELFSTORAGE_CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.overrideWithEnv()
	cfg.applyDefaults()

	if cfg.Telegram.Token == "" {
		return nil, fmt.Errorf("TG_TOKEN is not set")
	}
	return &cfg, nil
}

func (c *Config) overrideWithEnv() {
	if val := os.Getenv("TG_TOKEN"); val != "" {
		c.Telegram.Token = val
	}
	if val := os.Getenv("TG_OPERATOR_CHAT_ID"); val != "" {
		if id, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.Telegram.OperatorChatID = id
		}
	}
	if val := os.Getenv("TG_OPERATOR_ID"); val != "" {
		if id, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.Telegram.OperatorID = id
		}
	}
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Mail.SendgridAPIKey = val
	}
	if val := os.Getenv("MAIL_FROM"); val != "" {
		c.Mail.From = val
	}
	if val := os.Getenv("MAIL_FROM_NAME"); val != "" {
		c.Mail.FromName = val
	}
	if val := os.Getenv("DATABASE_FILE"); val != "" {
		c.Storage.DatabaseFile = val
	}
	if val := os.Getenv("SESSIONS_DB"); val != "" {
		c.Storage.SessionsDB = val
	}
	if val := os.Getenv("REMINDER_SPEC"); val != "" {
		c.Scheduler.ReminderSpec = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

func (c *Config) applyDefaults() {
	if c.Storage.DatabaseFile == "" {
		c.Storage.DatabaseFile = "database.json"
	}
	if c.Scheduler.ReminderSpec == "" {
		c.Scheduler.ReminderSpec = "0 9 * * *" // daily at 09:00
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = "SelfStorage"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
