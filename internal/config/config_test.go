package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"scribe/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SCRIBE_API_URL", "")
	t.Setenv("SCRIBE_STATE_DIR", "")
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantDir := filepath.Join(home, ".local", "share", "scribe")
	if cfg.Storage.Dir != wantDir {
		t.Fatalf("unexpected storage dir: got %q want %q", cfg.Storage.Dir, wantDir)
	}
	if cfg.Storage.Backend != config.StorageFile {
		t.Fatalf("expected file backend by default, got %q", cfg.Storage.Backend)
	}
	if cfg.API.BaseURL != "http://localhost:8000/api" {
		t.Fatalf("unexpected base url: %q", cfg.API.BaseURL)
	}
	if got := cfg.HTTPTimeout().Seconds(); got != 30 {
		t.Fatalf("unexpected timeout: %v", got)
	}
	if len(cfg.Session.BootstrapPaths) != 2 {
		t.Fatalf("expected default bootstrap paths, got %v", cfg.Session.BootstrapPaths)
	}
	if cfg.StoragePath() != filepath.Join(wantDir, "session.json") {
		t.Fatalf("unexpected storage path: %q", cfg.StoragePath())
	}
}

func TestLoadHonoursEnvironmentOverrides(t *testing.T) {
	isolateEnv(t)
	stateDir := t.TempDir()
	t.Setenv("SCRIBE_API_URL", "https://scribe.example.com/api/")
	t.Setenv("SCRIBE_STATE_DIR", stateDir)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != "https://scribe.example.com/api" {
		t.Fatalf("expected trimmed env base url, got %q", cfg.API.BaseURL)
	}
	if cfg.Storage.Dir != stateDir {
		t.Fatalf("expected env state dir, got %q", cfg.Storage.Dir)
	}
}

func TestLoadCustomFileNormalizesValues(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	custom := config.Default()
	custom.API.BaseURL = "  https://backend.local/api  "
	custom.Storage.Backend = " SQLite "
	custom.Storage.Dir = filepath.Join(dir, "state")
	custom.Session.BootstrapPaths = []string{"login", "/login", " ", "/signup"}
	custom.Logging.Format = "JSON"
	custom.Logging.Level = ""

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q to be used, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.API.BaseURL != "https://backend.local/api" {
		t.Fatalf("unexpected base url: %q", cfg.API.BaseURL)
	}
	if cfg.Storage.Backend != config.StorageSQLite {
		t.Fatalf("expected sqlite backend, got %q", cfg.Storage.Backend)
	}
	if cfg.StoragePath() != filepath.Join(dir, "state", "session.db") {
		t.Fatalf("unexpected storage path: %q", cfg.StoragePath())
	}
	want := []string{"/login", "/signup"}
	if strings.Join(cfg.Session.BootstrapPaths, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected bootstrap paths: %v", cfg.Session.BootstrapPaths)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "warn" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "scheme",
			mutate: func(c *config.Config) { c.API.BaseURL = "ftp://backend" },
			want:   "api.base_url",
		},
		{
			name:   "host",
			mutate: func(c *config.Config) { c.API.BaseURL = "http://" },
			want:   "host",
		},
		{
			name:   "rate",
			mutate: func(c *config.Config) { c.API.RateLimit = -1 },
			want:   "api.rate_limit",
		},
		{
			name:   "backend",
			mutate: func(c *config.Config) { c.Storage.Backend = "redis" },
			want:   "storage.backend",
		},
		{
			name:   "format",
			mutate: func(c *config.Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Storage.Backend != config.StorageFile {
		t.Fatalf("unexpected backend from sample: %q", cfg.Storage.Backend)
	}
}

func TestEnsureDirectoriesSkipsMemoryBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = config.StorageMemory
	cfg.Storage.Dir = filepath.Join(t.TempDir(), "never")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if _, err := os.Stat(cfg.Storage.Dir); !os.IsNotExist(err) {
		t.Fatalf("expected no directory for memory backend, stat err=%v", err)
	}
}
