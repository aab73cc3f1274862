package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"scribe/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains connection settings for the processing platform backend.
type API struct {
	BaseURL        string  `toml:"base_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"`
	RateBurst      int     `toml:"rate_burst"`
	UserAgent      string  `toml:"user_agent"`
}

// Storage selects where the session credential and identity are persisted.
type Storage struct {
	// Backend is one of "file", "sqlite", or "memory".
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
}

// Session contains auth pipeline settings.
type Session struct {
	// BootstrapPaths lists path fragments that identify login/registration
	// endpoints. Requests to them never carry a credential.
	BootstrapPaths []string `toml:"bootstrap_paths"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scribe.
//
// Configuration sections:
//   - API: backend base address, timeouts, and outbound rate limiting
//   - Storage: durable client storage backend for the session
//   - Session: auth-bootstrap endpoint detection
//   - Logging: log format and level
type Config struct {
	API     API     `toml:"api"`
	Storage Storage `toml:"storage"`
	Session Session `toml:"session"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory used by persistent storage backends.
func (c *Config) EnsureDirectories() error {
	if c.Storage.Backend == StorageMemory {
		return nil
	}
	if err := os.MkdirAll(c.Storage.Dir, 0o700); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Storage.Dir, err)
	}
	return nil
}

// HTTPTimeout returns the per-request timeout for backend calls.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// StoragePath returns the file backing the configured storage backend.
func (c *Config) StoragePath() string {
	switch c.Storage.Backend {
	case StorageSQLite:
		return filepath.Join(c.Storage.Dir, "session.db")
	case StorageFile:
		return filepath.Join(c.Storage.Dir, "session.json")
	default:
		return ""
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
