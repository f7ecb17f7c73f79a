package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	toml "github.com/pelletier/go-toml/v2"
)

// ErrMissingConfig is returned by Validate when a required setting is absent.
var ErrMissingConfig = errors.New("missing required configuration")

// DefaultAMFIURL is the AMFI NAV history download, queried one day at a time.
const DefaultAMFIURL = "https://www.amfiindia.com/api/download-nav-history?strMFID=all&schemeTypeDesc=all&FromDate={from}&ToDate={to}"

// Config holds all configuration for navsync
type Config struct {
	Environment string         `toml:"environment"`
	Storage     StorageConfig  `toml:"storage"`
	AMFI        AMFIConfig     `toml:"amfi"`
	Schedule    ScheduleConfig `toml:"schedule"`
	Report      ReportConfig   `toml:"report"`
	Logging     LoggingConfig  `toml:"logging"`
}

// StorageConfig holds the document store connection.
type StorageConfig struct {
	Backend   string `toml:"backend"` // "surrealdb" (default) or "memory"
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// AMFIConfig holds the upstream NAV feed configuration
type AMFIConfig struct {
	URLTemplate string `toml:"url_template"` // {date}, {from} and {to} are replaced with the requested day
	DateLayout  string `toml:"date_layout"`  // Go layout used for the placeholders
	Timeout     string `toml:"timeout"`
	Attempts    int    `toml:"attempts"`
	RetryDelay  string `toml:"retry_delay"`
	RateLimit   int    `toml:"rate_limit"` // requests per second, 0 disables
	Delimiter   string `toml:"delimiter"`  // empty auto-detects
	UserAgent   string `toml:"user_agent"`
}

// GetTimeout parses and returns the request timeout
func (c *AMFIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// GetRetryDelay parses and returns the delay between fetch attempts
func (c *AMFIConfig) GetRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil || d < 0 {
		return 60 * time.Second
	}
	return d
}

// GetAttempts returns the fetch attempt budget
func (c *AMFIConfig) GetAttempts() int {
	if c.Attempts <= 0 {
		return 3
	}
	return c.Attempts
}

// ScheduleConfig controls which day counts as "yesterday" and how often watch mode runs.
type ScheduleConfig struct {
	TimeZone string `toml:"timezone"`
	Interval string `toml:"interval"`
}

// Location loads the configured time zone.
func (c *ScheduleConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// GetInterval parses and returns the watch interval
func (c *ScheduleConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return 6 * time.Hour
	}
	return d
}

// ReportConfig holds defaults for the report command
type ReportConfig struct {
	Dates int `toml:"dates"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Backend:   "surrealdb",
			Address:   "ws://localhost:8000/rpc",
			Namespace: "navsync",
			Database:  "mutualfunds",
			Username:  "root",
			Password:  "root",
		},
		AMFI: AMFIConfig{
			URLTemplate: DefaultAMFIURL,
			DateLayout:  "2006-01-02",
			Timeout:     "120s",
			Attempts:    3,
			RetryDelay:  "60s",
			RateLimit:   1,
			UserAgent:   "navsync/" + GetVersion(),
		},
		Schedule: ScheduleConfig{
			TimeZone: "Asia/Kolkata",
			Interval: "6h",
		},
		Report: ReportConfig{
			Dates: 7,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Outputs:    []string{"console"},
			FilePath:   "./logs/navsync.log",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NAVSYNC_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("NAVSYNC_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("NAVSYNC_STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = v
	}
	if v := os.Getenv("NAVSYNC_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("NAVSYNC_STORAGE_NAMESPACE"); v != "" {
		config.Storage.Namespace = v
	}
	if v := os.Getenv("NAVSYNC_STORAGE_DATABASE"); v != "" {
		config.Storage.Database = v
	}
	if v := os.Getenv("NAVSYNC_STORAGE_USERNAME"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("NAVSYNC_STORAGE_PASSWORD"); v != "" {
		config.Storage.Password = v
	}

	if v := os.Getenv("NAVSYNC_AMFI_URL"); v != "" {
		config.AMFI.URLTemplate = v
	}
	if v := os.Getenv("NAVSYNC_AMFI_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.AMFI.Attempts = n
		}
	}

	if tz := os.Getenv("NAVSYNC_TIMEZONE"); tz != "" {
		config.Schedule.TimeZone = tz
	}
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.AMFI.URLTemplate) == "" {
		missing = append(missing, "amfi.url_template")
	}
	if c.Storage.Backend == "" || c.Storage.Backend == "surrealdb" {
		if c.Storage.Address == "" {
			missing = append(missing, "storage.address")
		}
		if c.Storage.Namespace == "" {
			missing = append(missing, "storage.namespace")
		}
		if c.Storage.Database == "" {
			missing = append(missing, "storage.database")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if _, err := c.Schedule.Location(); err != nil {
		return err
	}
	return nil
}
