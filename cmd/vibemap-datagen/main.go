// Command vibemap-datagen produces a synthetic song catalog for local
// development. The output is written as CSV and can optionally be upserted
// into a Postgres database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jeff13in/VibeMap/internal/catalog"
	"github.com/jeff13in/VibeMap/internal/datagen"
	"github.com/jeff13in/VibeMap/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		count       = flag.Int("count", datagen.DefaultTracks, "number of tracks to generate")
		seed        = flag.Int64("seed", datagen.DefaultSeed, "random seed")
		nullFrac    = flag.Float64("null-frac", 0, "fraction of rows losing feature values")
		dupFrac     = flag.Float64("dup-frac", 0, "fraction of rows duplicated")
		outlierFrac = flag.Float64("outlier-frac", 0, "fraction of rows given out-of-range values")
		out         = flag.String("out", "data/songs.csv", "output CSV path")
		databaseURL = flag.String("database-url", "", "optional Postgres URL to upsert the catalog into")
	)
	flag.Parse()

	tracks := datagen.Generate(datagen.Config{
		Tracks:      *count,
		Seed:        *seed,
		NullFrac:    *nullFrac,
		DupFrac:     *dupFrac,
		OutlierFrac: *outlierFrac,
	})

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	defer f.Close()
	if err := catalog.WriteCSV(f, tracks); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	fmt.Printf("Wrote %d tracks to %s\n", len(tracks), *out)

	if *databaseURL != "" {
		ctx := context.Background()
		db, err := store.New(ctx, *databaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
		songs := db.Songs()
		if err := songs.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
		if err := songs.UpsertBatch(ctx, tracks); err != nil {
			return fmt.Errorf("upserting tracks: %w", err)
		}
		fmt.Printf("Upserted %d tracks into the database\n", len(tracks))
	}
	return nil
}
