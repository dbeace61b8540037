// Package config loads application configuration from built-in defaults,
// an optional YAML file and environment variables, in that precedence
// order (env highest).
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// EnvPrefix is the prefix of all configuration environment variables.
// Nesting uses a double underscore: VIBEMAP_DATA__CSV_PATH sets
// data.csv_path.
const EnvPrefix = "VIBEMAP_"

// Config is the full application configuration. It is immutable after
// Load and safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Data      DataConfig      `koanf:"data"`
	Spotify   SpotifyConfig   `koanf:"spotify"`
	Recommend RecommendConfig `koanf:"recommend"`
	Cluster   ClusterConfig   `koanf:"cluster"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// DataConfig selects and configures the catalog source.
type DataConfig struct {
	Source      string `koanf:"source"` // csv, postgres or spotify
	CSVPath     string `koanf:"csv_path"`
	DatabaseURL string `koanf:"database_url"`
	ModelPath   string `koanf:"model_path"` // optional saved model bundle
}

// SpotifyConfig holds Spotify API credentials for the spotify source.
type SpotifyConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	PlaylistID   string `koanf:"playlist_id"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	DefaultCount int `koanf:"default_count"`
	Neighbors    int `koanf:"neighbors"`
}

// ClusterConfig holds cluster engine settings.
type ClusterConfig struct {
	Enabled      bool  `koanf:"enabled"`
	Clusters     int   `koanf:"clusters"`
	Seed         int64 `koanf:"seed"`
	AutoOptimize bool  `koanf:"auto_optimize"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8000",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Data: DataConfig{
			Source:  "csv",
			CSVPath: "data/songs.csv",
		},
		Recommend: RecommendConfig{
			DefaultCount: 5,
			Neighbors:    10,
		},
		Cluster: ClusterConfig{
			Enabled:      true,
			Clusters:     5,
			Seed:         42,
			AutoOptimize: false,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path if
// path is non-empty, then VIBEMAP_ environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransform maps VIBEMAP_DATA__CSV_PATH to data.csv_path.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log.format %q: want json or console", c.Log.Format)
	}

	switch c.Data.Source {
	case "csv":
		if c.Data.CSVPath == "" {
			return fmt.Errorf("data.csv_path is required for the csv source")
		}
	case "postgres":
		if c.Data.DatabaseURL == "" {
			return fmt.Errorf("data.database_url is required for the postgres source")
		}
	case "spotify":
		if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
			return fmt.Errorf("spotify.client_id and spotify.client_secret are required for the spotify source")
		}
		if c.Spotify.PlaylistID == "" {
			return fmt.Errorf("spotify.playlist_id is required for the spotify source")
		}
	default:
		return fmt.Errorf("invalid data.source %q: want csv, postgres or spotify", c.Data.Source)
	}

	if c.Recommend.DefaultCount < 0 || c.Recommend.Neighbors < 0 {
		return fmt.Errorf("recommend.default_count and recommend.neighbors must be non-negative")
	}
	if c.Cluster.Clusters < 2 {
		return fmt.Errorf("cluster.clusters must be at least 2, got %d", c.Cluster.Clusters)
	}
	return nil
}
