package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// PathEnv names the variable holding the optional YAML config file path.
const PathEnv = "CLUBFUND_CONFIG"

type Config struct {
	// HTTP Server
	Port               string   `yaml:"port" env:"PORT"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE"`

	// Logging
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`

	// Backend selection
	DataBackend  string `yaml:"data_backend" env:"DATA_BACKEND"`
	SQLiteDBPath string `yaml:"sqlite_db_path" env:"SQLITE_DB_PATH"`
	DatabaseURL  string `yaml:"database_url" env:"DATABASE_URL"`
	SeedFile     string `yaml:"seed_file" env:"SEED_FILE"`

	// AMQP
	AMQPURL      string `yaml:"amqp_url" env:"AMQP_URL"`
	AMQPExchange string `yaml:"amqp_exchange" env:"AMQP_EXCHANGE"`
	AMQPQueue    string `yaml:"amqp_queue" env:"AMQP_QUEUE"`

	// Google Sheets balance export
	SheetsExportEnabled   bool   `yaml:"sheets_export_enabled" env:"SHEETS_EXPORT_ENABLED"`
	GoogleSpreadsheetID   string `yaml:"google_spreadsheet_id" env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName       string `yaml:"google_sheet_name" env:"GOOGLE_SHEET_NAME"`
	GoogleCredentialsFile string `yaml:"google_credentials_file" env:"GOOGLE_CREDENTIALS_FILE"`
	GoogleCredentialsJSON string `yaml:"google_credentials_json" env:"GOOGLE_CREDENTIALS_JSON"`

	// Discord digest
	DiscordEnabled   bool   `yaml:"discord_enabled" env:"DISCORD_ENABLED"`
	DiscordBotToken  string `yaml:"discord_bot_token" env:"DISCORD_BOT_TOKEN"`
	DiscordChannelID string `yaml:"discord_channel_id" env:"DISCORD_CHANNEL_ID"`
	DigestDebtors    int    `yaml:"digest_debtors" env:"DIGEST_DEBTORS"`

	// Scheduler, six-field cron expressions with seconds
	ExportCron string `yaml:"export_cron" env:"EXPORT_CRON"`
	DigestCron string `yaml:"digest_cron" env:"DIGEST_CRON"`
	Timezone   string `yaml:"timezone" env:"TIMEZONE"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// Defaults returns the configuration used when neither file nor
// environment say otherwise.
func Defaults() *Config {
	return &Config{
		Port:               "8081",
		RateLimitPerMinute: 60,
		LogLevel:           "info",
		LogFormat:          "text",
		DataBackend:        "memory",
		SQLiteDBPath:       "./data/clubfund.db",
		SeedFile:           "./data/seed.yaml",
		AMQPExchange:       "clubfund",
		AMQPQueue:          "ledger_changed",
		GoogleSheetName:    "Balances",
		DigestDebtors:      5,
		ExportCron:         "0 */15 * * * *",
		DigestCron:         "0 0 9 * * 1",
		Timezone:           "Asia/Ho_Chi_Minh",
		ShutdownTimeout:    30 * time.Second,
	}
}

// Load applies defaults, then the YAML file at path (a missing file is
// fine), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by CLUBFUND_CONFIG, if any.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(PathEnv))
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AMQPEnabled reports whether ledger events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "postgres" {
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: must be a postgres:// or postgresql:// URL")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsExportEnabled {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when sheets export is enabled")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when sheets export is enabled")
		}
		hasFile := c.GoogleCredentialsFile != ""
		if !hasFile && c.GoogleCredentialsJSON == "" {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for sheets export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if c.DiscordEnabled {
		if c.DiscordBotToken == "" {
			errors = append(errors, "DISCORD_BOT_TOKEN is required when discord digest is enabled")
		}
		if c.DiscordChannelID == "" {
			errors = append(errors, "DISCORD_CHANNEL_ID is required when discord digest is enabled")
		}
	}
	if c.DigestDebtors < 0 || c.DigestDebtors > 50 {
		errors = append(errors, fmt.Sprintf("invalid digest debtors %d: must be between 0 and 50", c.DigestDebtors))
	}

	if _, err := cronParser.Parse(c.ExportCron); err != nil {
		errors = append(errors, fmt.Sprintf("invalid export cron '%s': %v", c.ExportCron, err))
	}
	if _, err := cronParser.Parse(c.DigestCron); err != nil {
		errors = append(errors, fmt.Sprintf("invalid digest cron '%s': %v", c.DigestCron, err))
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	} else if c.RateLimitPerMinute > 10000 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at most 10000", c.RateLimitPerMinute))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
