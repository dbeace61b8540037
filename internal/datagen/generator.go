// Package datagen produces synthetic song catalogs with Spotify-like
// audio features. Catalogs can be salted with data quality issues
// (nulls, duplicates, out-of-range values) to exercise cleaning
// pipelines. Output is reproducible for a fixed seed.
package datagen

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/jeff13in/VibeMap/internal/catalog"
)

const (
	// DefaultTracks is the catalog size used when none is configured.
	DefaultTracks = 1000
	// DefaultSeed is the default generator seed.
	DefaultSeed = 42
)

// Config holds generator parameters. The zero value produces a clean
// catalog of DefaultTracks rows.
type Config struct {
	Tracks      int
	Seed        int64
	NullFrac    float64 // fraction of rows losing tempo/valence/energy/danceability
	DupFrac     float64 // fraction of rows duplicated verbatim
	OutlierFrac float64 // fraction of rows given out-of-range values
}

func (c Config) withDefaults() Config {
	if c.Tracks <= 0 {
		c.Tracks = DefaultTracks
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	return c
}

// nullTargets are the columns null injection hits, mirroring the gaps a
// real export tends to have.
var nullTargets = []string{"tempo", "valence", "energy", "danceability"}

// boundedFeatures are the columns outlier injection pushes outside [0,1].
var boundedFeatures = []string{
	"energy", "valence", "danceability", "acousticness",
	"instrumentalness", "liveness", "speechiness",
}

var artistNames = []string{
	"The Midnight Owls", "Clara Voss", "Neon Harbor", "Los Ritmos",
	"Ember & Ash", "DJ Halcyon", "The Paper Kites Revival", "Mona Lindqvist",
	"Static Bloom", "Ivory Coastline", "Ruben Delgado", "Night Shift Trio",
}

var albumNames = []string{
	"Afterglow", "Paper Lanterns", "City of Echoes", "Low Tide",
	"Chromatic", "First Light", "Analog Hearts", "Wildflower Season",
}

// Generate builds a synthetic catalog. Audio features are drawn from
// clamped normals lightly correlated with popularity, tempo and loudness
// follow energy. With any of the fraction knobs set, quality issues are
// injected after generation.
func Generate(cfg Config) []catalog.Track {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	tracks := make([]catalog.Track, cfg.Tracks)
	for i := range tracks {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			// rand.Rand.Read cannot fail.
			panic(err)
		}
		tracks[i] = catalog.Track{
			ID:         id.String(),
			Name:       fmt.Sprintf("Song %04d", i+1),
			Artist:     artistNames[rng.Intn(len(artistNames))],
			Album:      albumNames[rng.Intn(len(albumNames))],
			Popularity: float64(rng.Intn(101)),
		}
		tracks[i].URL = "https://open.spotify.com/track/" + tracks[i].ID
	}

	popNorm := popularityNorm(tracks)
	for i := range tracks {
		t := &tracks[i]
		p := popNorm[i]
		t.Energy = round4(clamp01(0.55 + 0.20*p + 0.18*rng.NormFloat64()))
		t.Valence = round4(clamp01(0.50 + 0.10*p + 0.22*rng.NormFloat64()))
		t.Danceability = round4(clamp01(0.58 + 0.10*p + 0.17*rng.NormFloat64()))
		t.Acousticness = round4(clamp01(0.35 - 0.15*p + 0.25*rng.NormFloat64()))
		t.Instrumentalness = round4(clamp01(0.10 + 0.20*rng.NormFloat64()))
		t.Liveness = round4(clamp01(0.18 + 0.12*rng.NormFloat64()))
		t.Speechiness = round4(clamp01(0.08 + 0.06*rng.NormFloat64()))
		t.Tempo = round2(clamp(115+25*(t.Energy-0.5)+18*rng.NormFloat64(), 60, 200))
		t.Loudness = round2(clamp(-8+6*(t.Energy-0.5)+3*rng.NormFloat64(), -30, 0))
	}

	tracks = injectNulls(tracks, cfg.NullFrac, rng)
	tracks = injectDuplicates(tracks, cfg.DupFrac, rng)
	tracks = injectOutliers(tracks, cfg.OutlierFrac, rng)
	return tracks
}

// popularityNorm min-max normalizes popularity, substituting divisor 1
// when every row has the same value.
func popularityNorm(tracks []catalog.Track) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range tracks {
		lo = math.Min(lo, tracks[i].Popularity)
		hi = math.Max(hi, tracks[i].Popularity)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	out := make([]float64, len(tracks))
	for i := range tracks {
		out[i] = (tracks[i].Popularity - lo) / span
	}
	return out
}

// injectNulls blanks each target column in a random subset of rows.
func injectNulls(tracks []catalog.Track, frac float64, rng *rand.Rand) []catalog.Track {
	if frac <= 0 {
		return tracks
	}
	n := max(1, int(float64(len(tracks))*frac))
	for _, col := range nullTargets {
		for _, i := range rng.Perm(len(tracks))[:n] {
			setFeature(&tracks[i], col, math.NaN())
		}
	}
	return tracks
}

// injectDuplicates appends verbatim copies of a random subset of rows.
func injectDuplicates(tracks []catalog.Track, frac float64, rng *rand.Rand) []catalog.Track {
	if frac <= 0 {
		return tracks
	}
	n := max(1, int(float64(len(tracks))*frac))
	for _, i := range rng.Perm(len(tracks))[:n] {
		tracks = append(tracks, tracks[i])
	}
	return tracks
}

// injectOutliers pushes tempo out of range for half the hit rows and the
// bounded features out of [0,1] for the other half.
func injectOutliers(tracks []catalog.Track, frac float64, rng *rand.Rand) []catalog.Track {
	if frac <= 0 {
		return tracks
	}
	tempoOutliers := []float64{10, 30, 250, 320}
	featureOutliers := []float64{-0.4, -0.1, 1.2, 1.6}

	k := max(1, int(float64(len(tracks))*frac))
	idx := rng.Perm(len(tracks))[:k]
	half := k / 2
	for _, i := range idx[:half] {
		tracks[i].Tempo = tempoOutliers[rng.Intn(len(tempoOutliers))]
	}
	for _, i := range idx[half:] {
		for _, col := range boundedFeatures {
			setFeature(&tracks[i], col, featureOutliers[rng.Intn(len(featureOutliers))])
		}
	}
	return tracks
}

func setFeature(t *catalog.Track, name string, v float64) {
	switch name {
	case "energy":
		t.Energy = v
	case "valence":
		t.Valence = v
	case "danceability":
		t.Danceability = v
	case "tempo":
		t.Tempo = v
	case "acousticness":
		t.Acousticness = v
	case "instrumentalness":
		t.Instrumentalness = v
	case "liveness":
		t.Liveness = v
	case "speechiness":
		t.Speechiness = v
	case "loudness":
		t.Loudness = v
	}
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func round2(v float64) float64 {
	return math.Round(v*1e2) / 1e2
}
