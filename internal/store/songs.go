package store

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeff13in/VibeMap/internal/catalog"
)

// SongRepository handles song catalog database operations. Missing
// feature values are stored as NULL and surface as NaN on the Track, the
// representation the engines expect.
type SongRepository struct {
	pool *pgxpool.Pool
}

// EnsureSchema creates the cleaned_songs table if it does not exist.
func (r *SongRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS cleaned_songs (
			track_id         text PRIMARY KEY,
			track_name       text NOT NULL DEFAULT '',
			artist           text NOT NULL DEFAULT '',
			album            text NOT NULL DEFAULT '',
			popularity       double precision NOT NULL DEFAULT 0,
			valence          double precision,
			energy           double precision,
			danceability     double precision,
			tempo            double precision,
			acousticness     double precision,
			instrumentalness double precision,
			liveness         double precision,
			speechiness      double precision,
			loudness         double precision,
			spotify_url      text NOT NULL DEFAULT ''
		)
	`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("creating cleaned_songs table: %w", err)
	}
	return nil
}

// UpsertBatch inserts or updates multiple songs in one round trip.
func (r *SongRepository) UpsertBatch(ctx context.Context, tracks []catalog.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	query := `
		INSERT INTO cleaned_songs (
			track_id, track_name, artist, album, popularity,
			valence, energy, danceability, tempo, acousticness,
			instrumentalness, liveness, speechiness, loudness, spotify_url
		)
		SELECT * FROM unnest(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::float8[],
			$6::float8[], $7::float8[], $8::float8[], $9::float8[], $10::float8[],
			$11::float8[], $12::float8[], $13::float8[], $14::float8[], $15::text[]
		)
		ON CONFLICT (track_id) DO UPDATE SET
			track_name = EXCLUDED.track_name,
			artist = EXCLUDED.artist,
			album = EXCLUDED.album,
			popularity = EXCLUDED.popularity,
			valence = EXCLUDED.valence,
			energy = EXCLUDED.energy,
			danceability = EXCLUDED.danceability,
			tempo = EXCLUDED.tempo,
			acousticness = EXCLUDED.acousticness,
			instrumentalness = EXCLUDED.instrumentalness,
			liveness = EXCLUDED.liveness,
			speechiness = EXCLUDED.speechiness,
			loudness = EXCLUDED.loudness,
			spotify_url = EXCLUDED.spotify_url
	`

	ids := make([]string, len(tracks))
	names := make([]string, len(tracks))
	artists := make([]string, len(tracks))
	albums := make([]string, len(tracks))
	popularity := make([]float64, len(tracks))
	urls := make([]string, len(tracks))
	features := make(map[string][]*float64, len(catalog.FeatureNames))
	for _, name := range catalog.FeatureNames {
		features[name] = make([]*float64, len(tracks))
	}

	for i := range tracks {
		t := &tracks[i]
		ids[i] = t.ID
		names[i] = t.Name
		artists[i] = t.Artist
		albums[i] = t.Album
		popularity[i] = t.Popularity
		urls[i] = t.URL
		for _, name := range catalog.FeatureNames {
			features[name][i] = nullableFloat(t.Feature(name))
		}
	}

	_, err := r.pool.Exec(ctx, query,
		ids, names, artists, albums, popularity,
		features["valence"], features["energy"], features["danceability"],
		features["tempo"], features["acousticness"], features["instrumentalness"],
		features["liveness"], features["speechiness"], features["loudness"],
		urls,
	)
	if err != nil {
		return fmt.Errorf("batch upserting songs: %w", err)
	}
	return nil
}

// CleanedSongs returns the full catalog ordered by track id, the order
// the engines treat as catalog order.
func (r *SongRepository) CleanedSongs(ctx context.Context) ([]catalog.Track, error) {
	query := `
		SELECT track_id, track_name, artist, album, popularity,
			valence, energy, danceability, tempo, acousticness,
			instrumentalness, liveness, speechiness, loudness, spotify_url
		FROM cleaned_songs
		ORDER BY track_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying cleaned songs: %w", err)
	}
	defer rows.Close()

	var tracks []catalog.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning song: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cleaned songs: %w", err)
	}
	return tracks, nil
}

// Get retrieves a song by track id.
func (r *SongRepository) Get(ctx context.Context, trackID string) (catalog.Track, error) {
	query := `
		SELECT track_id, track_name, artist, album, popularity,
			valence, energy, danceability, tempo, acousticness,
			instrumentalness, liveness, speechiness, loudness, spotify_url
		FROM cleaned_songs
		WHERE track_id = $1
	`
	track, err := scanTrack(r.pool.QueryRow(ctx, query, trackID))
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Track{}, ErrNotFound
	}
	if err != nil {
		return catalog.Track{}, fmt.Errorf("querying song: %w", err)
	}
	return track, nil
}

// Count returns the number of stored songs.
func (r *SongRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM cleaned_songs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting songs: %w", err)
	}
	return n, nil
}

func scanTrack(row pgx.Row) (catalog.Track, error) {
	var t catalog.Track
	var valence, energy, danceability, tempo, acousticness *float64
	var instrumentalness, liveness, speechiness, loudness *float64

	err := row.Scan(
		&t.ID, &t.Name, &t.Artist, &t.Album, &t.Popularity,
		&valence, &energy, &danceability, &tempo, &acousticness,
		&instrumentalness, &liveness, &speechiness, &loudness, &t.URL,
	)
	if err != nil {
		return catalog.Track{}, err
	}

	t.Valence = floatOrNaN(valence)
	t.Energy = floatOrNaN(energy)
	t.Danceability = floatOrNaN(danceability)
	t.Tempo = floatOrNaN(tempo)
	t.Acousticness = floatOrNaN(acousticness)
	t.Instrumentalness = floatOrNaN(instrumentalness)
	t.Liveness = floatOrNaN(liveness)
	t.Speechiness = floatOrNaN(speechiness)
	t.Loudness = floatOrNaN(loudness)
	return t, nil
}

// nullableFloat maps NaN to SQL NULL.
func nullableFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// floatOrNaN maps SQL NULL to NaN.
func floatOrNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
