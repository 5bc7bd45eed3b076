// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Input/output locations
	DataDir    string
	ReportPath string

	// Optional remediation ledger (nil when not configured)
	Ledger *LedgerConfig

	// Domain constants used by the rule catalog
	Bounds Bounds

	// Logging
	LogLevel  string
	LogFormat string
}

// LedgerConfig holds PostgreSQL connection parameters for the
// remediation ledger
type LedgerConfig struct {
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

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DataDir:    getEnv("DATA_DIR", "dataset"),
		ReportPath: getEnv("REPORT_PATH", "reports/validation_report.md"),
		Bounds:     DefaultBounds(),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
	}

	// The ledger is optional; it is only configured when a host is set
	ledgerCfg, err := LoadLedgerConfig()
	if err != nil {
		return nil, errors.New("failed to load ledger configuration: " + err.Error())
	}
	cfg.Ledger = ledgerCfg

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data directory is required")
	}

	if c.ReportPath == "" {
		return errors.New("report path is required")
	}

	if err := c.Bounds.Validate(); err != nil {
		return err
	}

	return nil
}

// LoadLedgerConfig loads the remediation ledger configuration from
// environment variables. Returns nil (no error) when LEDGER_HOST is unset,
// meaning remediation records are logged but not persisted.
func LoadLedgerConfig() (*LedgerConfig, error) {
	host := os.Getenv("LEDGER_HOST")
	if host == "" {
		return nil, nil
	}

	user := os.Getenv("LEDGER_USER")
	if user == "" {
		return nil, errors.New("LEDGER_USER environment variable is required when LEDGER_HOST is set")
	}

	password := os.Getenv("LEDGER_PASSWORD")
	if password == "" {
		return nil, errors.New("LEDGER_PASSWORD environment variable is required when LEDGER_HOST is set")
	}

	database := os.Getenv("LEDGER_DB")
	if database == "" {
		return nil, errors.New("LEDGER_DB environment variable is required when LEDGER_HOST is set")
	}

	cfg := &LedgerConfig{
		Host:     host,
		Port:     getEnvAsInt("LEDGER_PORT", 5432),
		User:     user,
		Password: password,
		Database: database,
		SSLMode:  getEnv("LEDGER_SSLMODE", "disable"),

		MaxOpenConns:    getEnvAsInt("LEDGER_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("LEDGER_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(getEnvAsInt("LEDGER_CONN_MAX_LIFETIME_SECONDS", 1800)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvAsInt("LEDGER_CONN_MAX_IDLE_TIME_SECONDS", 600)) * time.Second,
	}

	return cfg, nil
}

// ConnectionString returns a formatted PostgreSQL connection string
func (c *LedgerConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
