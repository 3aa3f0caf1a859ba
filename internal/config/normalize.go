package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

// applyEnv lets SLEEVE_* variables override file and default values.
func (c *Config) applyEnv() error {
	if value, ok := lookupEnv("SLEEVE_CATALOG_DB"); ok {
		c.Paths.CatalogDB = value
	}
	if value, ok := lookupEnv("SLEEVE_CONFIRMATIONS"); ok {
		c.Paths.Confirmations = value
	}
	if value, ok := lookupEnv("SLEEVE_LOG_DIR"); ok {
		c.Paths.LogDir = value
	}
	if value, ok := lookupEnv("SLEEVE_LOG_LEVEL"); ok {
		c.Logging.Level = value
	}
	if value, ok := lookupEnv("SLEEVE_LOG_FORMAT"); ok {
		c.Logging.Format = value
	}
	if value, ok := lookupEnv("SLEEVE_BATCH_WORKERS"); ok {
		workers, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("SLEEVE_BATCH_WORKERS: %w", err)
		}
		c.Batch.Workers = workers
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CatalogDB) == "" {
		c.Paths.CatalogDB = defaultCatalogDB
	}
	if c.Paths.CatalogDB, err = expandPath(strings.TrimSpace(c.Paths.CatalogDB)); err != nil {
		return fmt.Errorf("paths.catalog_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.Confirmations) == "" {
		c.Paths.Confirmations = defaultConfirmationsPath
	}
	if c.Paths.Confirmations, err = expandPath(strings.TrimSpace(c.Paths.Confirmations)); err != nil {
		return fmt.Errorf("paths.confirmations: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "":
		format = defaultLogFormat
	case "text", "pretty":
		format = "console"
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch level {
	case "":
		level = defaultLogLevel
	case "warning":
		level = "warn"
	}
	c.Logging.Level = level
}
