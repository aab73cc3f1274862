package config

// Storage backends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

const (
	defaultConfigPath     = "~/.config/scribe/config.toml"
	defaultBaseURL        = "http://localhost:8000/api"
	defaultTimeoutSeconds = 30
	defaultRateBurst      = 1
	defaultUserAgent      = "scribe/dev"
	defaultStorageBackend = StorageFile
	defaultStorageDir     = "~/.local/share/scribe"
	defaultLogFormat      = "console"
	defaultLogLevel       = "warn"
)

var defaultBootstrapPaths = []string{"/login", "/register"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultTimeoutSeconds,
			RateBurst:      defaultRateBurst,
			UserAgent:      defaultUserAgent,
		},
		Storage: Storage{
			Backend: defaultStorageBackend,
			Dir:     defaultStorageDir,
		},
		Session: Session{
			BootstrapPaths: append([]string(nil), defaultBootstrapPaths...),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
