package config

const (
	defaultDataDir                  = "~/.local/share/intake/data"
	defaultLogDir                   = "~/.local/share/intake/logs"
	defaultAPIBind                  = "127.0.0.1:7519"
	defaultStorageBackend           = "local"
	defaultLocalBlobDir             = "~/.local/share/intake/blobs"
	defaultSignedURLTTLDays         = 365
	defaultFetchMaxBytes            = int64(20 << 20) // 20 MiB
	defaultFetchTimeoutSeconds      = 30
	defaultMaxRetries               = 3
	defaultBaseDelaySeconds         = 300 // 5 minutes
	defaultSweepIntervalSeconds     = 300
	defaultSweepBatchLimit          = 25
	defaultSweepPacingMillis        = 500
	defaultProcessingTimeoutSeconds = 1800
	defaultBatchConcurrency         = 4
	defaultLogFormat                = "text"
	defaultLogLevel                 = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Storage: Storage{
			Backend:          defaultStorageBackend,
			LocalDir:         defaultLocalBlobDir,
			SignedURLTTLDays: defaultSignedURLTTLDays,
		},
		Fetch: Fetch{
			MaxBytes:       defaultFetchMaxBytes,
			TimeoutSeconds: defaultFetchTimeoutSeconds,
		},
		Retry: Retry{
			MaxRetries:       defaultMaxRetries,
			BaseDelaySeconds: defaultBaseDelaySeconds,
		},
		Sweep: Sweep{
			IntervalSeconds:          defaultSweepIntervalSeconds,
			BatchLimit:               defaultSweepBatchLimit,
			PacingMillis:             defaultSweepPacingMillis,
			ProcessingTimeoutSeconds: defaultProcessingTimeoutSeconds,
		},
		Ingest: Ingest{
			BatchConcurrency: defaultBatchConcurrency,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
