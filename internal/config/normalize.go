package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeAPI()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeSession()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeAPI() {
	if value, ok := os.LookupEnv("SCRIBE_API_URL"); ok && strings.TrimSpace(value) != "" {
		c.API.BaseURL = value
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultBaseURL
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.API.RateBurst <= 0 {
		c.API.RateBurst = defaultRateBurst
	}
	c.API.UserAgent = strings.TrimSpace(c.API.UserAgent)
	if c.API.UserAgent == "" {
		c.API.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	if value, ok := os.LookupEnv("SCRIBE_STATE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Storage.Dir = value
	}
	if strings.TrimSpace(c.Storage.Dir) == "" {
		c.Storage.Dir = defaultStorageDir
	}
	var err error
	if c.Storage.Dir, err = expandPath(c.Storage.Dir); err != nil {
		return fmt.Errorf("storage.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSession() {
	paths := make([]string, 0, len(c.Session.BootstrapPaths))
	seen := make(map[string]struct{}, len(c.Session.BootstrapPaths))
	for _, p := range c.Session.BootstrapPaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		paths = append(paths, defaultBootstrapPaths...)
	}
	c.Session.BootstrapPaths = paths
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
