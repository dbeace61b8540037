// Package recommend implements the song recommendation engine: feature
// normalization, mood/tempo filtering and seed-track similarity search over
// an in-memory catalog.
//
// The engine is synchronous and has no internal locking: a single writer
// prepares or rebuilds it, after which any number of readers may query it
// concurrently.
package recommend

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/jeff13in/VibeMap/internal/catalog"
)

const (
	// DefaultCount is the default result count per query.
	DefaultCount = 5
	// DefaultNeighbors is the default width of the nearest-neighbor index.
	DefaultNeighbors = 10
)

// scaledFeatureNames is the column order of the normalized and scaled
// feature matrices. Tempo and loudness appear min-max normalized; the
// other features are already bounded in [0, 1].
var scaledFeatureNames = []string{
	"valence",
	"energy",
	"danceability",
	"tempo_normalized",
	"acousticness",
	"instrumentalness",
	"liveness",
	"speechiness",
	"loudness_normalized",
}

// Config holds recommendation engine parameters. The zero value uses the
// defaults.
type Config struct {
	DefaultCount int // result count when a query passes n <= 0
	Neighbors    int // nearest-neighbor index width
}

func (c Config) withDefaults() Config {
	if c.DefaultCount <= 0 {
		c.DefaultCount = DefaultCount
	}
	if c.Neighbors <= 0 {
		c.Neighbors = DefaultNeighbors
	}
	return c
}

// row is a catalog track plus the two derived normalized columns. The raw
// columns are kept unchanged.
type row struct {
	catalog.Track
	TempoNormalized    float64
	LoudnessNormalized float64
}

// Feature resolves the two derived columns in addition to the raw features.
func (r *row) Feature(name string) float64 {
	switch name {
	case "tempo_normalized":
		return r.TempoNormalized
	case "loudness_normalized":
		return r.LoudnessNormalized
	}
	return r.Track.Feature(name)
}

// Result is one recommendation row: the track, its derived columns and,
// for similarity queries only, a score in [0, 1] where 1 is most similar.
type Result struct {
	catalog.Track
	TempoNormalized    float64
	LoudnessNormalized float64
	SimilarityScore    float64
}

// Recommender owns a prepared catalog snapshot: the row set, the fitted
// standardization parameters, the scaled feature matrix and the cosine
// nearest-neighbor index.
type Recommender struct {
	cfg    Config
	rows   []row
	byID   map[string]int
	scaler *Scaler
	scaled *mat.Dense
	knn    *knnIndex
}

// New creates an unprepared engine.
func New(cfg Config) *Recommender {
	return &Recommender{cfg: cfg.withDefaults()}
}

// Prepare loads a catalog snapshot: rows with any missing feature are
// dropped, tempo and loudness are min-max normalized over the kept rows,
// standardization is fitted on the full kept set, and the neighbor index is
// built. Any previous snapshot is discarded.
func (rec *Recommender) Prepare(tracks []catalog.Track) error {
	rec.scaler = &Scaler{}
	return rec.load(tracks, true)
}

// Attach loads a catalog snapshot reusing previously fitted standardization
// parameters, typically after LoadModel. Refitting per catalog rebuild is
// Prepare's job; Attach exists so a reloaded model bundle reproduces the
// exact distances it was saved with.
func (rec *Recommender) Attach(tracks []catalog.Track) error {
	if !rec.scaler.fitted(len(scaledFeatureNames)) {
		return fmt.Errorf("%w: no fitted scaler to attach with", ErrNotReady)
	}
	return rec.load(tracks, false)
}

func (rec *Recommender) load(tracks []catalog.Track, fit bool) error {
	rows := make([]row, 0, len(tracks))
	for i := range tracks {
		if tracks[i].HasAllFeatures() {
			rows = append(rows, row{Track: tracks[i]})
		}
	}

	normalizeColumn(rows, func(r *row) float64 { return r.Tempo }, func(r *row, v float64) { r.TempoNormalized = v })
	normalizeColumn(rows, func(r *row) float64 { return r.Loudness }, func(r *row, v float64) { r.LoudnessNormalized = v })

	byID := make(map[string]int, len(rows))
	for i := range rows {
		byID[rows[i].ID] = i
	}

	normalized := mat.NewDense(max(len(rows), 1), len(scaledFeatureNames), nil)
	for i := range rows {
		for j, name := range scaledFeatureNames {
			normalized.Set(i, j, rows[i].Feature(name))
		}
	}

	var scaled *mat.Dense
	if len(rows) > 0 {
		if fit {
			scaled = rec.scaler.FitTransform(normalized)
		} else {
			scaled = rec.scaler.Transform(normalized)
		}
	}

	rec.rows = rows
	rec.byID = byID
	rec.scaled = scaled
	rec.knn = nil
	if scaled != nil {
		rec.knn = newKNNIndex(scaled, rec.cfg.Neighbors)
	}
	return nil
}

// normalizeColumn applies (x-min)/(max-min) with the divisor replaced by 1
// when the column is constant, so a zero range yields 0 for every row.
func normalizeColumn(rows []row, get func(*row) float64, set func(*row, float64)) {
	if len(rows) == 0 {
		return
	}
	lo, hi := get(&rows[0]), get(&rows[0])
	for i := range rows {
		v := get(&rows[i])
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	for i := range rows {
		set(&rows[i], (get(&rows[i])-lo)/span)
	}
}

// Len returns the number of prepared rows.
func (rec *Recommender) Len() int {
	return len(rec.rows)
}

// RebuildIndex rebuilds the nearest-neighbor index with a new width. The
// scaled feature matrix is reused, not recomputed.
func (rec *Recommender) RebuildIndex(neighbors int) error {
	if rec.scaled == nil {
		return fmt.Errorf("%w: no scaled feature matrix", ErrNotReady)
	}
	if neighbors <= 0 {
		neighbors = DefaultNeighbors
	}
	rec.cfg.Neighbors = neighbors
	rec.knn = newKNNIndex(rec.scaled, neighbors)
	return nil
}

// ByMood returns up to n tracks matching the named mood rule, in catalog
// order. Filter modes are pure selection: no score, no re-ranking.
func (rec *Recommender) ByMood(mood string, n int) ([]Result, error) {
	if rec.rows == nil {
		return nil, fmt.Errorf("%w: call Prepare first", ErrNotReady)
	}
	mask, err := rec.moodMask(mood)
	if err != nil {
		return nil, err
	}
	return rec.take(mask, n), nil
}

// ByTempo returns up to n tracks in the named tempo band, in catalog order.
func (rec *Recommender) ByTempo(tempo string, n int) ([]Result, error) {
	if rec.rows == nil {
		return nil, fmt.Errorf("%w: call Prepare first", ErrNotReady)
	}
	mask, err := rec.tempoMask(tempo)
	if err != nil {
		return nil, err
	}
	return rec.take(mask, n), nil
}

// ByMoodAndTempo intersects a mood rule with a tempo band. An empty result
// is valid output, not an error.
func (rec *Recommender) ByMoodAndTempo(mood, tempo string, n int) ([]Result, error) {
	if rec.rows == nil {
		return nil, fmt.Errorf("%w: call Prepare first", ErrNotReady)
	}
	moodMask, err := rec.moodMask(mood)
	if err != nil {
		return nil, err
	}
	tempoMask, err := rec.tempoMask(tempo)
	if err != nil {
		return nil, err
	}
	for i := range moodMask {
		moodMask[i] = moodMask[i] && tempoMask[i]
	}
	return rec.take(moodMask, n), nil
}

func (rec *Recommender) take(mask []bool, n int) []Result {
	if n <= 0 {
		n = rec.cfg.DefaultCount
	}
	results := make([]Result, 0, n)
	for i, keep := range mask {
		if !keep {
			continue
		}
		results = append(results, rec.result(i, 0))
		if len(results) == n {
			break
		}
	}
	return results
}

func (rec *Recommender) result(i int, score float64) Result {
	r := &rec.rows[i]
	return Result{
		Track:              r.Track,
		TempoNormalized:    r.TempoNormalized,
		LoudnessNormalized: r.LoudnessNormalized,
		SimilarityScore:    score,
	}
}

// TrackByID returns the prepared row with the given track id.
func (rec *Recommender) TrackByID(id string) (Result, error) {
	if rec.rows == nil {
		return Result{}, fmt.Errorf("%w: call Prepare first", ErrNotReady)
	}
	i, ok := rec.byID[id]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return rec.result(i, 0), nil
}

// SearchTracks returns up to limit tracks whose name or artist contains the
// query, case-insensitively, in catalog order.
func (rec *Recommender) SearchTracks(query string, limit int) ([]Result, error) {
	if rec.rows == nil {
		return nil, fmt.Errorf("%w: call Prepare first", ErrNotReady)
	}
	if limit <= 0 {
		limit = rec.cfg.DefaultCount
	}
	q := strings.ToLower(query)
	var results []Result
	for i := range rec.rows {
		r := &rec.rows[i]
		if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.Artist), q) {
			results = append(results, rec.result(i, 0))
			if len(results) == limit {
				break
			}
		}
	}
	return results, nil
}
