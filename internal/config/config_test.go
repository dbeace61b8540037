package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:8000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Data.Source != "csv" {
		t.Errorf("Data.Source = %q, want csv", cfg.Data.Source)
	}
	if cfg.Recommend.DefaultCount != 5 || cfg.Recommend.Neighbors != 10 {
		t.Errorf("Recommend = %+v, want defaults 5/10", cfg.Recommend)
	}
	if cfg.Cluster.Clusters != 5 || cfg.Cluster.Seed != 42 {
		t.Errorf("Cluster = %+v, want defaults 5/42", cfg.Cluster)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"server:",
		"  addr: 0.0.0.0:9000",
		"data:",
		"  source: postgres",
		"  database_url: postgres://localhost/vibemap",
		"cluster:",
		"  clusters: 7",
		"  auto_optimize: true",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Data.Source != "postgres" {
		t.Errorf("Data.Source = %q", cfg.Data.Source)
	}
	if cfg.Cluster.Clusters != 7 || !cfg.Cluster.AutoOptimize {
		t.Errorf("Cluster = %+v, want 7 auto-optimized", cfg.Cluster)
	}
	// Untouched sections keep their defaults.
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want default info", cfg.Log.Level)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VIBEMAP_SERVER__ADDR", "127.0.0.1:7777")
	t.Setenv("VIBEMAP_DATA__CSV_PATH", "/tmp/songs.csv")
	t.Setenv("VIBEMAP_LOG__FORMAT", "json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7777" {
		t.Errorf("Server.Addr = %q, want env override", cfg.Server.Addr)
	}
	if cfg.Data.CSVPath != "/tmp/songs.csv" {
		t.Errorf("Data.CSVPath = %q, want env override", cfg.Data.CSVPath)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Data.Source = "sqlite" },
			wantErr: "data.source",
		},
		{
			name: "postgres without url",
			mutate: func(c *Config) {
				c.Data.Source = "postgres"
				c.Data.DatabaseURL = ""
			},
			wantErr: "database_url",
		},
		{
			name: "spotify without credentials",
			mutate: func(c *Config) {
				c.Data.Source = "spotify"
			},
			wantErr: "client_id",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: "log.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
		{
			name:    "too few clusters",
			mutate:  func(c *Config) { c.Cluster.Clusters = 1 },
			wantErr: "cluster.clusters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
