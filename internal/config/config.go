// Package config loads service configuration from the environment and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverFirestore = "firestore"
	DriverPostgres  = "postgres"
	DriverMemory    = "memory"
)

// DefaultTotalCapacity is the fixed number of bays in the lot.
const DefaultTotalCapacity = 30

// Capacity is the single source of capacity defaults for stats, the live
// subscriber, and dashboards. It is compiled in, not read from the environment.
type Capacity struct {
	Total int
	Zones []domain.Zone
}

// DefaultCapacity returns the staff lot layout: three cosmetic zones of ten bays.
func DefaultCapacity() Capacity {
	return Capacity{
		Total: DefaultTotalCapacity,
		Zones: []domain.Zone{
			{ID: "zone-a", Name: "Zone A - Staff", Capacity: 10},
			{ID: "zone-b", Name: "Zone B - Staff", Capacity: 10},
			{ID: "zone-v", Name: "Visitor Parking", Capacity: 10},
		},
	}
}

// Config holds application configuration loaded from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port string `mapstructure:"PORT"`
	// CORSOrigins is a comma-separated allow-list for browser clients (the dashboard).
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
	// StoreDriver selects the live-count backend: firestore, postgres or memory.
	StoreDriver string `mapstructure:"STORE_DRIVER"`
	// DatabaseURL is the Postgres DSN used when StoreDriver is postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// FirebaseCredentialsFile is the path to a service account JSON file.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	// FirebaseServiceAccount holds serialized service account JSON; used when the file is missing.
	FirebaseServiceAccount string `mapstructure:"FIREBASE_SERVICE_ACCOUNT"`
	// FirebaseProjectID overrides the project id found in the credentials.
	FirebaseProjectID string `mapstructure:"FIREBASE_PROJECT_ID"`
	// EventRateLimit caps gate event POSTs per client IP per minute; 0 disables.
	EventRateLimit int `mapstructure:"EVENT_RATE_LIMIT"`
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP. Only
	// enable it behind a proxy that overwrites those headers.
	TrustProxy bool `mapstructure:"TRUST_PROXY"`
	// HistoryDefaultLimit is used by GET /events/history when no limit is given.
	HistoryDefaultLimit int `mapstructure:"HISTORY_DEFAULT_LIMIT"`
	// HistoryMaxLimit bounds any requested history limit.
	HistoryMaxLimit int `mapstructure:"HISTORY_MAX_LIMIT"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is json or text.
	LogFormat string `mapstructure:"LOG_FORMAT"`
	// OTLPEndpoint enables trace export when set (e.g. http://localhost:4318).
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// ServiceName is reported to the tracing backend.
	ServiceName string `mapstructure:"SERVICE_NAME"`
	// ShutdownTimeout bounds graceful HTTP shutdown (e.g. "10s").
	ShutdownTimeout string `mapstructure:"SHUTDOWN_TIMEOUT"`

	Capacity Capacity `mapstructure:"-"`
}

// Load reads .env (if present), then builds and validates Config from the environment.
// A missing .env is ignored; environment variables override it.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("STORE_DRIVER", DriverFirestore)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "firebase-service-account.json")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT", "")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("EVENT_RATE_LIMIT", 120)
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("HISTORY_DEFAULT_LIMIT", 20)
	v.SetDefault("HISTORY_MAX_LIMIT", 100)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("SERVICE_NAME", "smart-parking-api")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Capacity = DefaultCapacity()

	if cfg.Port == "" {
		return nil, errors.New("config: PORT must be set")
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case DriverFirestore, DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("config: unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.EventRateLimit < 0 {
		return nil, errors.New("config: EVENT_RATE_LIMIT must not be negative")
	}
	if cfg.HistoryMaxLimit <= 0 {
		return nil, errors.New("config: HISTORY_MAX_LIMIT must be positive")
	}
	if cfg.HistoryDefaultLimit <= 0 || cfg.HistoryDefaultLimit > cfg.HistoryMaxLimit {
		return nil, errors.New("config: HISTORY_DEFAULT_LIMIT must be between 1 and HISTORY_MAX_LIMIT")
	}

	return &cfg, nil
}

// CORSOriginList returns the allowed origins from the comma-separated config.
func (c *Config) CORSOriginList() []string {
	if c == nil || c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ShutdownTimeoutDuration parses ShutdownTimeout. Returns 10s if unset or invalid.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
