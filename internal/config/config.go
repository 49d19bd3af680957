package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"business-svc/internal/datastore"
)

// Config is the process configuration read from the environment.
type Config struct {
	StoreType            string  `env:"BIZ_STORE_TYPE"          envDefault:"postgresql"`
	ConnectionString     string  `env:"DB_CONN_STRING"          envDefault:"postgres://localhost:5432/postgres?sslmode=disable"`
	MockDataPath         string  `env:"BIZ_MOCK_DATA_PATH"      envDefault:"data/mocks"`
	LogMode              string  `env:"BIZ_LOG_MODE"            envDefault:"development"`
	InvitationTTLDays    int     `env:"BIZ_INVITATION_TTL_DAYS" envDefault:"7"`
	OTelEnabled          bool    `env:"OTEL_ENABLED"            envDefault:"false"`
	OTelExporterEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSamplerRatio     float64 `env:"OTEL_SAMPLER_RATIO"      envDefault:"1.0"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.InvitationTTLDays <= 0 {
		return Config{}, fmt.Errorf("BIZ_INVITATION_TTL_DAYS must be positive, got %d", cfg.InvitationTTLDays)
	}
	return cfg, nil
}

// DataStore maps the store settings onto a datastore.Config.
func (c Config) DataStore() datastore.Config {
	config := datastore.Config{}

	switch strings.ToLower(c.StoreType) {
	case "mock":
		config.Type = datastore.MockStore
		config.MockDataPath = c.MockDataPath
	default:
		// postgresql, postgres, db and anything unknown
		config.Type = datastore.PostgreSQLStore
		config.ConnectionString = c.ConnectionString
	}

	return config
}

// GetDataStoreConfig returns the data store configuration based on environment variables
func GetDataStoreConfig() datastore.Config {
	cfg, err := Load()
	if err != nil {
		// fall back to defaults for everything the environment got wrong
		cfg = Config{}
		_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	}
	return cfg.DataStore()
}

// IsMockMode returns true if running in mock mode
func IsMockMode() bool {
	cfg, err := Load()
	return err == nil && strings.EqualFold(cfg.StoreType, "mock")
}
