package config

const (
	defaultImagePrefix      = "IMG-"
	defaultVideoPrefix      = "VID-"
	defaultHashBudget       = 60
	defaultQuickPrefixBytes = 1024 * 1024
	defaultMetadataTool     = "exiftool"
	defaultMetadataTimeout  = 10
	defaultLogDir           = "~/.local/share/mediasane/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Naming: Naming{
			ImagePrefix: defaultImagePrefix,
			VideoPrefix: defaultVideoPrefix,
		},
		Hashing: Hashing{
			BudgetSeconds:    defaultHashBudget,
			QuickPrefixBytes: defaultQuickPrefixBytes,
		},
		Metadata: Metadata{
			Tool:           defaultMetadataTool,
			TimeoutSeconds: defaultMetadataTimeout,
		},
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
