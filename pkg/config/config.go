// Package config loads process configuration from environment variables.
// Variable names nest with a "__" delimiter (DATABASE__HOST, APP__SECRET_KEY),
// each read (most with an explicit default) and assigned to a field of a
// nested struct.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig holds the DATABASE__* block.
type DatabaseConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       string
	SSLMode  string
}

// Env is the deployment environment.
type Env string

// Supported deployment environments.
const (
	EnvDev  Env = "dev"
	EnvProd Env = "prod"
)

// AppConfig holds the APP__* block.
type AppConfig struct {
	SecretKey string
	Algorithm string // JWT signing algorithm, e.g. "HS256"
	LogLevel  string
	Env       Env
}

// Config is the umbrella configuration object passed as an explicit
// dependency to every component that needs it — no ambient globals.
type Config struct {
	Database DatabaseConfig
	App      AppConfig
}

// LoadFromEnv reads Config from the process environment with
// production-ready defaults via getEnvOrDefault; the database password
// and the secret key have no default and are read with os.Getenv.
func LoadFromEnv() (*Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("DATABASE__PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE__PORT: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DATABASE__HOST", "localhost"),
			Port:     port,
			Username: getEnvOrDefault("DATABASE__USERNAME", "ollamafleet"),
			Password: os.Getenv("DATABASE__PASSWORD"),
			DB:       getEnvOrDefault("DATABASE__DB", "ollamafleet"),
			SSLMode:  getEnvOrDefault("DATABASE__SSLMODE", "disable"),
		},
		App: AppConfig{
			SecretKey: os.Getenv("APP__SECRET_KEY"),
			Algorithm: getEnvOrDefault("APP__ALGORITHM", "HS256"),
			LogLevel:  getEnvOrDefault("APP__LOG_LEVEL", "info"),
			Env:       Env(getEnvOrDefault("APP__ENV", string(EnvDev))),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field invariants that a malformed deployment would
// otherwise only surface as confusing runtime errors — a bad config is a
// fatal startup error.
func (c *Config) Validate() error {
	if c.App.SecretKey == "" {
		return fmt.Errorf("APP__SECRET_KEY is required")
	}
	if c.App.Env != EnvDev && c.App.Env != EnvProd {
		return fmt.Errorf("APP__ENV must be %q or %q, got %q", EnvDev, EnvProd, c.App.Env)
	}
	if c.Database.Password == "" && c.App.Env == EnvProd {
		return fmt.Errorf("DATABASE__PASSWORD is required in prod")
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
