package testsupport

import (
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp state directory per
// test. It defaults to the in-memory storage backend and applies any provided
// options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.API.BaseURL = "http://127.0.0.1:0/api"
	cfgVal.Storage.Backend = config.StorageMemory
	cfgVal.Storage.Dir = filepath.Join(base, "state")
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	return builder.cfg
}

// WithBaseURL points the test config at a backend, typically an httptest server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.BaseURL = url
	}
}

// WithStorageBackend selects the storage backend on the test config.
func WithStorageBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Backend = backend
	}
}

// WithBootstrapPaths overrides the endpoints that never carry a credential.
func WithBootstrapPaths(paths ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Session.BootstrapPaths = append([]string(nil), paths...)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Storage.Dir)
}
