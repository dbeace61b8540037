// Command vibemap serves song recommendations and mood clusters over an
// HTTP JSON API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeff13in/VibeMap/internal/catalog"
	"github.com/jeff13in/VibeMap/internal/cluster"
	"github.com/jeff13in/VibeMap/internal/config"
	"github.com/jeff13in/VibeMap/internal/ingest"
	"github.com/jeff13in/VibeMap/internal/recommend"
	"github.com/jeff13in/VibeMap/internal/server"
	"github.com/jeff13in/VibeMap/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	tracks, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info().Int("tracks", len(tracks)).Str("source", cfg.Data.Source).Msg("catalog loaded")

	rec, err := buildRecommender(cfg, tracks, logger)
	if err != nil {
		return err
	}
	logger.Info().Int("rows", rec.Len()).Msg("recommendation engine ready")

	var clu *cluster.Engine
	if cfg.Cluster.Enabled {
		clu = cluster.New(cluster.Config{
			Clusters: cfg.Cluster.Clusters,
			Seed:     cfg.Cluster.Seed,
		})
		if err := clu.Fit(tracks, cfg.Cluster.AutoOptimize); err != nil {
			return fmt.Errorf("fitting clusters: %w", err)
		}
		labels, err := clu.Analyze()
		if err != nil {
			return fmt.Errorf("analyzing clusters: %w", err)
		}
		sil, db, _ := clu.Quality()
		logger.Info().
			Int("clusters", clu.K()).
			Float64("silhouette", sil).
			Float64("davies_bouldin", db).
			Interface("labels", labels).
			Msg("cluster engine ready")
	}

	srv := server.NewServer(server.Config{Addr: cfg.Server.Addr}, rec, clu, logger)
	return srv.Run()
}

// loadCatalog fetches the track catalog from the configured source.
func loadCatalog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) ([]catalog.Track, error) {
	switch cfg.Data.Source {
	case "csv":
		tracks, err := catalog.LoadCSVFile(cfg.Data.CSVPath)
		if err != nil {
			return nil, fmt.Errorf("loading catalog from %s: %w", cfg.Data.CSVPath, err)
		}
		return tracks, nil

	case "postgres":
		db, err := store.New(ctx, cfg.Data.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
		tracks, err := db.Songs().CleanedSongs(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading catalog from database: %w", err)
		}
		return tracks, nil

	case "spotify":
		client, err := ingest.New(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
		if err != nil {
			return nil, fmt.Errorf("creating spotify client: %w", err)
		}
		logger.Info().Str("playlist", cfg.Spotify.PlaylistID).Msg("fetching playlist")
		tracks, err := client.FetchPlaylist(ctx, cfg.Spotify.PlaylistID)
		if err != nil {
			return nil, fmt.Errorf("fetching playlist: %w", err)
		}
		return tracks, nil
	}
	return nil, fmt.Errorf("unknown catalog source %q", cfg.Data.Source)
}

// buildRecommender prepares the engine, reusing a saved model bundle when
// one is configured and present. A freshly fitted engine is saved back to
// the bundle path.
func buildRecommender(cfg *config.Config, tracks []catalog.Track, logger zerolog.Logger) (*recommend.Recommender, error) {
	recCfg := recommend.Config{
		DefaultCount: cfg.Recommend.DefaultCount,
		Neighbors:    cfg.Recommend.Neighbors,
	}

	if cfg.Data.ModelPath != "" {
		if f, err := os.Open(cfg.Data.ModelPath); err == nil {
			defer f.Close()
			rec, err := recommend.LoadModel(f)
			if err != nil {
				return nil, fmt.Errorf("loading model bundle %s: %w", cfg.Data.ModelPath, err)
			}
			if err := rec.Attach(tracks); err != nil {
				return nil, fmt.Errorf("attaching catalog to model bundle: %w", err)
			}
			logger.Info().Str("path", cfg.Data.ModelPath).Msg("model bundle loaded")
			return rec, nil
		}
	}

	rec := recommend.New(recCfg)
	if err := rec.Prepare(tracks); err != nil {
		return nil, fmt.Errorf("preparing recommendation engine: %w", err)
	}

	if cfg.Data.ModelPath != "" {
		f, err := os.Create(cfg.Data.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("creating model bundle %s: %w", cfg.Data.ModelPath, err)
		}
		defer f.Close()
		if err := rec.SaveModel(f); err != nil {
			return nil, fmt.Errorf("saving model bundle: %w", err)
		}
		logger.Info().Str("path", cfg.Data.ModelPath).Msg("model bundle saved")
	}
	return rec, nil
}

// newLogger builds the process logger from the log section.
func newLogger(cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parsing log level: %w", err)
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger(), nil
}
