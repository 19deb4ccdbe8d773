package config

const (
	defaultOutputDir            = "~/Documents/markerq"
	defaultStagingDir           = "~/.local/share/markerq/staging"
	defaultLogDir               = "~/.local/share/markerq/logs"
	defaultFavoritesPath        = "~/.config/markerq/favorites.toml"
	defaultConverterBinary      = "marker_single"
	defaultConverterTimeout     = 3600
	defaultDownloadTimeout      = 120
	defaultDownloadUserAgent    = "markerq/0.1.0"
	defaultWatchSettleSeconds   = 2
	defaultQueuePollInterval    = 2
	defaultErrorRetryInterval   = 15
	defaultMinFreeSpaceMiB      = 256
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:     defaultOutputDir,
			StagingDir:    defaultStagingDir,
			LogDir:        defaultLogDir,
			FavoritesPath: defaultFavoritesPath,
		},
		Converter: Converter{
			Binary:         defaultConverterBinary,
			TimeoutSeconds: defaultConverterTimeout,
		},
		Organize: Organize{
			ProjectFolders: true,
			MoveOriginal:   false,
		},
		Download: Download{
			TimeoutSeconds: defaultDownloadTimeout,
			UserAgent:      defaultDownloadUserAgent,
		},
		Watch: Watch{
			SettleSeconds: defaultWatchSettleSeconds,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			MinFreeSpaceMiB:    defaultMinFreeSpaceMiB,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
