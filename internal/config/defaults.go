package config

const (
	defaultConfigPath        = "~/.config/sleeve/config.toml"
	defaultProjectConfig     = "sleeve.toml"
	defaultCatalogDB         = "~/.local/share/sleeve/catalog.db"
	defaultConfirmationsPath = "~/.local/share/sleeve/confirmations.json"
	defaultLogDir            = "~/.local/share/sleeve/logs"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultBatchWorkers      = 0
	defaultCandidateLimit    = 50
	maxCandidateLimit        = 1000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CatalogDB:     defaultCatalogDB,
			Confirmations: defaultConfirmationsPath,
			LogDir:        defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Batch: Batch{
			Workers:        defaultBatchWorkers,
			CandidateLimit: defaultCandidateLimit,
		},
		Confirmations: Confirmations{
			Enabled: true,
		},
	}
}
