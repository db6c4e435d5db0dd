package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Log backends selectable with LOG_BACKEND.
const (
	BackendLogless  = "logless"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`
	AdminAddr  string `env:"ADMIN_ADDR" envDefault:":9090"`

	LogBackend     string        `env:"LOG_BACKEND" envDefault:"logless"`
	LoglessBaseURL string        `env:"LOGLESS_BASE_URL" envDefault:"https://logless.bespoken.tools/v1"`
	LoglessRPS     float64       `env:"LOGLESS_RPS" envDefault:"10"`
	LoglessBurst   int           `env:"LOGLESS_BURST" envDefault:"20"`
	LoglessTimeout time.Duration `env:"LOGLESS_TIMEOUT" envDefault:"10s"`
	PostgresURL    string        `env:"POSTGRES_URL"`
	PostgresSchema bool          `env:"POSTGRES_ENSURE_SCHEMA" envDefault:"true"`

	RedisAddr string        `env:"REDIS_ADDR"` // empty disables caching
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"1m"`

	NATSURL                 string        `env:"NATS_URL"` // empty disables live updates and invalidation
	NATSToken               string        `env:"NATS_TOKEN"`
	NATSInvalidationSubject string        `env:"NATS_INVALIDATION_SUBJECT" envDefault:"logs.ingested"`
	InvalidationRetries     int           `env:"INVALIDATION_RETRIES" envDefault:"3"`
	InvalidationBackoff     time.Duration `env:"INVALIDATION_BACKOFF" envDefault:"1s"`
	SSEFlushInterval        time.Duration `env:"SSE_FLUSH_INTERVAL" envDefault:"1s"`

	AdminAPIKeys []string `env:"ADMIN_API_KEYS" envSeparator:","`

	RedactionFields []string `env:"REDACTION_FIELDS" envDefault:"apiAccessToken,accessToken,consentToken" envSeparator:","`

	SummaryDuplicates string        `env:"SUMMARY_DUPLICATES" envDefault:"sum"`
	SummaryLocation   string        `env:"SUMMARY_LOCATION" envDefault:"UTC"`
	DefaultLookback   time.Duration `env:"DEFAULT_LOOKBACK" envDefault:"168h"` // 7 days
	DefaultLogLimit   int           `env:"DEFAULT_LOG_LIMIT" envDefault:"50"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LogBackend {
	case BackendLogless:
	case BackendPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for the %s backend", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown LOG_BACKEND %q", c.LogBackend)
	}
	if _, err := time.LoadLocation(c.SummaryLocation); err != nil {
		return fmt.Errorf("invalid SUMMARY_LOCATION: %w", err)
	}
	if c.DefaultLogLimit <= 0 {
		return fmt.Errorf("DEFAULT_LOG_LIMIT must be positive")
	}
	return nil
}

// Location returns the configured summary location.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SummaryLocation)
	if err != nil {
		return time.UTC
	}
	return loc
}
