package database

import (
	"errors"
	"time"
)

// Config defines the database configuration. The backing store is a
// single local SQLite file (no server, no cgo) — see DESIGN.md for why
// this replaced the teacher's Postgres DSN.
type Config struct {
	// Path is the SQLite database file path. ":memory:" is accepted for
	// tests.
	Path string `mapstructure:"path"`

	// Connection pool settings
	MaxIdleConns    int           `mapstructure:"maxidleconns"`
	MaxOpenConns    int           `mapstructure:"maxopenconns"`
	ConnMaxLifetime time.Duration `mapstructure:"connmaxlifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"connmaxidletime"`

	// GORM settings
	LogLevel          string        `mapstructure:"loglevel"` // silent, error, warn, info
	SlowThreshold     time.Duration `mapstructure:"slowthreshold"`
	SkipDefaultTx     bool          `mapstructure:"skipdefaulttx"`
	PrepareStmt       bool          `mapstructure:"preparestmt"`
	DisableForeignKey bool          `mapstructure:"disableforeignkey"`

	AutoMigrate bool `mapstructure:"automigrate"`
}

// DefaultConfig returns the default database configuration.
func DefaultConfig() *Config {
	return &Config{
		Path: "ragcore.db",

		MaxIdleConns:    1,
		MaxOpenConns:    1, // SQLite serializes writers; a single pooled connection avoids SQLITE_BUSY storms
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,

		LogLevel:          "warn",
		SlowThreshold:     200 * time.Millisecond,
		SkipDefaultTx:     false,
		PrepareStmt:       true,
		DisableForeignKey: false,

		AutoMigrate: true,
	}
}

// Validate validates the database configuration.
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.New("database path is required")
	}

	validLogLevels := []string{"silent", "error", "warn", "info"}
	validLogLevel := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			validLogLevel = true
			break
		}
	}
	if !validLogLevel {
		return errors.New("invalid log level, must be one of: silent, error, warn, info")
	}

	if c.MaxIdleConns < 0 {
		return errors.New("max idle connections must be >= 0")
	}
	if c.MaxOpenConns < 0 {
		return errors.New("max open connections must be >= 0")
	}
	if c.MaxIdleConns > c.MaxOpenConns && c.MaxOpenConns > 0 {
		return errors.New("max idle connections cannot exceed max open connections")
	}
	if c.ConnMaxLifetime < 0 {
		return errors.New("connection max lifetime must be >= 0")
	}
	if c.ConnMaxIdleTime < 0 {
		return errors.New("connection max idle time must be >= 0")
	}
	if c.SlowThreshold < 0 {
		return errors.New("slow threshold must be >= 0")
	}

	return nil
}
