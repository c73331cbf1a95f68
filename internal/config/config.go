package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

var validate = validator.New()

type AppConfig struct {
	Port string `validate:"required,numeric"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	// RefreshInterval controls how often the dataset is rebuilt.
	RefreshInterval time.Duration `validate:"min=1m"`
	// RefreshSchedule is an optional 5-field cron expression; it overrides RefreshInterval.
	RefreshSchedule string

	// FetchTimeout bounds the download step of one refresh.
	FetchTimeout time.Duration `validate:"gt=0"`
	HTTPTimeout  time.Duration `validate:"gt=0"`

	// Upstream source: HTTP base URL (empty means the public JHU directory),
	// or a local directory when DataDir is set.
	UpstreamBaseURL string `validate:"omitempty,url"`
	DataDir         string

	// ColdStartWait runs one refresh before the server accepts queries.
	ColdStartWait bool
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:            getenvDefault("PORT", "8080"),
		LogLevel:        getenvDefault("LOG_LEVEL", "info"),
		LogFormat:       getenvDefault("LOG_FORMAT", "json"),
		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),
		UpstreamBaseURL: os.Getenv("UPSTREAM_BASE_URL"),
		DataDir:         os.Getenv("DATA_DIR"),
		ColdStartWait:   getenvBool("COLD_START_WAIT", true),
	}

	var err error
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", "2m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the cron expression.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid REFRESH_SCHEDULE: %w", err)
		}
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
