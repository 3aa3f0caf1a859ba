package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.CatalogDB == "" {
		return errors.New("paths.catalog_db must be set")
	}
	if c.Confirmations.Enabled && c.Paths.Confirmations == "" {
		return errors.New("paths.confirmations must be set when confirmations.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 0 {
		return errors.New("batch.workers must be zero (auto) or positive")
	}
	if c.Batch.CandidateLimit <= 0 {
		return errors.New("batch.candidate_limit must be positive")
	}
	if c.Batch.CandidateLimit > maxCandidateLimit {
		return fmt.Errorf("batch.candidate_limit must not exceed %d", maxCandidateLimit)
	}
	return nil
}
