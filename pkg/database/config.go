package database

import (
	"fmt"
	"time"

	"github.com/ollamafleet/router/pkg/config"
)

// Config holds database connection and pool settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// FromAppConfig builds a database Config from the process-wide
// DATABASE__* block, filling in production-ready pool defaults. Those
// pool knobs aren't part of this router's configuration surface, so
// they're fixed constants here rather than additional env vars.
func FromAppConfig(dc config.DatabaseConfig) Config {
	return Config{
		Host:            dc.Host,
		Port:            dc.Port,
		User:            dc.Username,
		Password:        dc.Password,
		Database:        dc.DB,
		SSLMode:         dc.SSLMode,
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 15 * time.Minute,
	}
}

// Validate checks the pool settings are internally consistent.
func (c Config) Validate() error {
	if c.Password == "" {
		return fmt.Errorf("database password is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("MaxIdleConns (%d) cannot exceed MaxOpenConns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("MaxOpenConns must be at least 1")
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("MaxIdleConns cannot be negative")
	}
	return nil
}
