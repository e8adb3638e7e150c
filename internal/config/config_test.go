package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func validConfig() Config {
	return Config{
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{Type: "local", LocalPath: "./catalog", SnapshotPattern: "*"},
		Catalog: CatalogConfig{GroupPolicy: "never"},
		Metrics: MetricsConfig{Enabled: true, Port: 9090},
	}
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Errorf("Address() = %q", cfg.Server.Address())
	}
	if cfg.Storage.Type != "local" || cfg.Storage.LocalPath != "./catalog" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if !cfg.Catalog.ExtendedValidation || !cfg.Catalog.IsolatedWorkspaces || !cfg.Catalog.Locking {
		t.Errorf("catalog = %+v, want every feature enabled", cfg.Catalog)
	}
	if cfg.Catalog.GroupPolicy != "never" {
		t.Errorf("group policy = %q", cfg.Catalog.GroupPolicy)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("watch debounce = %s", cfg.Watch.Debounce)
	}
	if cfg.Server.CORS.Enabled() {
		t.Error("CORS should be disabled by default")
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "geocat.yaml")
	content := `
server:
  port: 9000
storage:
  type: http
  http:
    base_url: https://config.example.org/catalog
catalog:
  group_policy: any_hidden
  locking: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEOCAT_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Storage.HTTP.BaseURL != "https://config.example.org/catalog" {
		t.Errorf("base url = %q", cfg.Storage.HTTP.BaseURL)
	}
	if cfg.Storage.HTTP.IndexFile != "index.txt" {
		t.Errorf("index file = %q, want default", cfg.Storage.HTTP.IndexFile)
	}
	if cfg.Catalog.GroupPolicy != "any_hidden" || cfg.Catalog.Locking {
		t.Errorf("catalog = %+v", cfg.Catalog)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want debug from environment", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "geocat.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 70000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "validating config") {
		t.Errorf("Load() error = %v, want validation error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "bad port", modify: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port"},
		{name: "metrics port clash", modify: func(c *Config) { c.Metrics.Port = 8080 }, wantErr: "collides"},
		{name: "metrics disabled ignores port", modify: func(c *Config) { c.Metrics = MetricsConfig{} }},
		{name: "group policy", modify: func(c *Config) { c.Catalog.GroupPolicy = "sometimes" }, wantErr: "group policy"},
		{name: "sync interval", modify: func(c *Config) { c.Sync.Enabled = true }, wantErr: "interval"},
		{name: "snapshot pattern", modify: func(c *Config) { c.Storage.SnapshotPattern = "[" }, wantErr: "snapshot pattern"},
		{name: "local path", modify: func(c *Config) { c.Storage.LocalPath = "" }, wantErr: "local storage path"},
		{
			name:    "s3 region",
			modify:  func(c *Config) { c.Storage.Type = "s3"; c.Storage.S3.Bucket = "catalog" },
			wantErr: "S3 region",
		},
		{
			name:    "azure account",
			modify:  func(c *Config) { c.Storage.Type = "azure"; c.Storage.Azure.Container = "catalog" },
			wantErr: "azure account",
		},
		{name: "http url", modify: func(c *Config) { c.Storage.Type = "http" }, wantErr: "HTTP base URL"},
		{name: "unknown storage", modify: func(c *Config) { c.Storage.Type = "ftp" }, wantErr: "unknown storage type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
