package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"sleeve/internal/catalog"
	"sleeve/internal/config"
	"sleeve/internal/confirmations"
	"sleeve/internal/identification"
	"sleeve/internal/logging"
	"sleeve/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	catalog *catalog.Store
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", path, err)
			return
		}
		if level := c.levelOverride(); level != "" {
			cfg.Logging.Level = level
			if err := cfg.Validate(); err != nil {
				c.configErr = services.Wrap(services.ErrConfiguration, "config", "log level flag", "", err)
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) levelOverride() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = services.Wrap(services.ErrConfiguration, "cli", "setup logging", "", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openCatalog opens the catalog once per invocation; closeCatalog releases it.
func (c *commandContext) openCatalog() (*catalog.Store, error) {
	if c.catalog != nil {
		return c.catalog, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := catalog.Open(cfg.Paths.CatalogDB)
	if err != nil {
		return nil, err
	}
	c.catalog = store
	return store, nil
}

// confirmationStore returns the configured store, or an error when
// confirmations are disabled.
func (c *commandContext) confirmationStore() (*confirmations.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Confirmations.Enabled {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "confirmations", "confirmations are disabled; set [confirmations] enabled = true", nil)
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return confirmations.NewStore(cfg.Paths.Confirmations, logger), nil
}

func (c *commandContext) newIdentifier() (*identification.Identifier, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	store, err := c.openCatalog()
	if err != nil {
		return nil, err
	}

	var source identification.ConfirmationSource
	if cfg.Confirmations.Enabled {
		source = confirmations.NewStore(cfg.Paths.Confirmations, logger)
	}
	return identification.NewIdentifier(store, source, logger, cfg.Batch.CandidateLimit), nil
}

func (c *commandContext) closeCatalog() {
	if c.catalog == nil {
		return
	}
	if err := c.catalog.Close(); err != nil && c.logger != nil {
		c.logger.Warn("failed to close catalog", logging.Error(err))
	}
	c.catalog = nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
