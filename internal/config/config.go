package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                = "DAYPOLL"
	defaultHTTPAddress       = "0.0.0.0:8080"
	defaultDatabaseDriver    = "sqlite"
	defaultDatabasePath      = "daypoll.db"
	defaultLogLevel          = "info"
	defaultTokenTTLHours     = 8760
	defaultShareBaseURL      = "http://localhost:3000"
	defaultAllowedOrigins    = "*"
	defaultRequestsPerSecond = 5.0
	defaultBurst             = 20
	driverSQLite             = "sqlite"
	driverPostgres           = "postgres"
	maxRequestsPerSecond     = 1000.0
	maxTokenTTLHours         = 24 * 365 * 5
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress       string
	DatabaseDriver    string
	DatabasePath      string
	DatabaseDSN       string
	LogLevel          string
	SigningSecret     string
	TokenTTL          time.Duration
	ShareBaseURL      string
	AllowedOrigins    []string
	RequestsPerSecond float64
	Burst             int
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.driver", defaultDatabaseDriver)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("database.dsn", "")
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("auth.signing_secret", "")
	configViper.SetDefault("auth.token_ttl_hours", defaultTokenTTLHours)
	configViper.SetDefault("share.base_url", defaultShareBaseURL)
	configViper.SetDefault("cors.allowed_origins", defaultAllowedOrigins)
	configViper.SetDefault("rate.requests_per_second", defaultRequestsPerSecond)
	configViper.SetDefault("rate.burst", defaultBurst)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       strings.TrimSpace(configViper.GetString("http.address")),
		DatabaseDriver:    strings.ToLower(strings.TrimSpace(configViper.GetString("database.driver"))),
		DatabasePath:      strings.TrimSpace(configViper.GetString("database.path")),
		DatabaseDSN:       strings.TrimSpace(configViper.GetString("database.dsn")),
		LogLevel:          configViper.GetString("log.level"),
		SigningSecret:     configViper.GetString("auth.signing_secret"),
		TokenTTL:          time.Duration(configViper.GetInt("auth.token_ttl_hours")) * time.Hour,
		ShareBaseURL:      strings.TrimRight(strings.TrimSpace(configViper.GetString("share.base_url")), "/"),
		AllowedOrigins:    splitList(configViper.GetString("cors.allowed_origins")),
		RequestsPerSecond: configViper.GetFloat64("rate.requests_per_second"),
		Burst:             configViper.GetInt("rate.burst"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.HTTPAddress == "" {
		return fmt.Errorf("http.address is required")
	}
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	switch c.DatabaseDriver {
	case driverSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("database.path is required")
		}
	case driverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be %s or %s", driverSQLite, driverPostgres)
	}
	hours := int(c.TokenTTL / time.Hour)
	if hours <= 0 || hours > maxTokenTTLHours {
		return fmt.Errorf("auth.token_ttl_hours must be between 1 and %d", maxTokenTTLHours)
	}
	if c.ShareBaseURL == "" {
		return fmt.Errorf("share.base_url is required")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("cors.allowed_origins is required")
	}
	if c.RequestsPerSecond <= 0 || c.RequestsPerSecond > maxRequestsPerSecond {
		return fmt.Errorf("rate.requests_per_second must be in (0, %.0f]", maxRequestsPerSecond)
	}
	if c.Burst <= 0 {
		return fmt.Errorf("rate.burst must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
