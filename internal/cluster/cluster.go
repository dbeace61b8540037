// Package cluster groups catalog tracks into mood clusters. It runs
// seeded k-means over a five-feature projection, optionally sweeping the
// cluster count and picking the silhouette-best candidate, then derives a
// human-readable label for each cluster from its mean feature values.
//
// The engine moves through three states: unfit, fitted and analyzed.
// Queries issued out of order fail with ErrNotFitted or ErrNotAnalyzed.
// Like the recommendation engine it has no internal locking: one writer
// fits, then any number of readers may query.
package cluster

import (
	"fmt"
	"math"

	"github.com/muesli/clusters"
	"gonum.org/v1/gonum/mat"

	"github.com/jeff13in/VibeMap/internal/catalog"
)

const (
	// DefaultClusters is the cluster count used when none is configured.
	DefaultClusters = 5
	// DefaultSeed is the default k-means initialization seed.
	DefaultSeed = 42

	// Sweep candidates fit cheaply; the final model fits generously.
	sweepNInit   = 10
	sweepMaxIter = 300
	finalNInit   = 20
	finalMaxIter = 500

	minSweepK = 2
	maxSweepK = 10
)

// FeatureNames is the projection clustered over. Tempo enters min-max
// normalized; the other four features are already bounded in [0, 1].
var FeatureNames = []string{"valence", "energy", "danceability", "tempo_normalized", "acousticness"}

// primitiveNames are the raw columns Analyze reports means for. Tempo is
// the raw BPM column, not the normalized one.
var primitiveNames = []string{"valence", "energy", "danceability", "tempo", "acousticness"}

// Config holds cluster engine parameters. The zero value uses the
// defaults.
type Config struct {
	Clusters     int   // cluster count when not auto-optimizing
	Seed         int64 // k-means initialization seed
	AutoOptimize bool  // sweep cluster counts before the final fit
}

func (c Config) withDefaults() Config {
	if c.Clusters <= 0 {
		c.Clusters = DefaultClusters
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	return c
}

type state int

const (
	stateUnfit state = iota
	stateFitted
	stateAnalyzed
)

// Assignment is one clustered row: the track plus its cluster id.
type Assignment struct {
	catalog.Track
	Cluster int
}

// Profile describes one cluster after Analyze: its size, its mean raw
// feature values and the label derived from them.
type Profile struct {
	Cluster int
	Label   string
	Size    int
	Means   map[string]float64
}

// CandidateScore records the quality metrics of one cluster-count
// candidate from the auto-optimize sweep. Silhouette selects the count;
// Davies-Bouldin is reported only.
type CandidateScore struct {
	K             int
	Silhouette    float64
	DaviesBouldin float64
	Inertia       float64
}

// Engine owns one fitted cluster model: the projected catalog rows, the
// scaled matrix, the centroids and per-row assignments, and after
// Analyze the cluster label map.
type Engine struct {
	cfg   Config
	state state

	tracks      []catalog.Track
	scaled      *mat.Dense
	scaler      *scaler
	assignments []int
	centroids   [][]float64
	k           int

	silhouette    float64
	daviesBouldin float64
	sweep         []CandidateScore

	labels   map[int]string
	profiles []Profile
}

// New creates an unfitted engine.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// SelectFeatures keeps the rows of tracks carrying all five projection
// features and returns them with the raw projection matrix, tempo min-max
// normalized over the kept rows (divisor 1 when the column is constant).
// The drop is independent of any other consumer's missing-data policy.
func SelectFeatures(tracks []catalog.Track) ([]catalog.Track, *mat.Dense) {
	kept := make([]catalog.Track, 0, len(tracks))
	for i := range tracks {
		complete := true
		for _, name := range primitiveNames {
			if math.IsNaN(tracks[i].Feature(name)) {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, tracks[i])
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range kept {
		if t := kept[i].Tempo; t < lo {
			lo = t
		}
		if t := kept[i].Tempo; t > hi {
			hi = t
		}
	}
	span := hi - lo
	if span == 0 || len(kept) == 0 {
		span = 1
	}

	raw := mat.NewDense(max(len(kept), 1), len(FeatureNames), nil)
	for i := range kept {
		raw.Set(i, 0, kept[i].Valence)
		raw.Set(i, 1, kept[i].Energy)
		raw.Set(i, 2, kept[i].Danceability)
		raw.Set(i, 3, (kept[i].Tempo-lo)/span)
		raw.Set(i, 4, kept[i].Acousticness)
	}
	return kept, raw
}

// Fit clusters the catalog. Rows missing any projection feature are
// dropped, the projection is standardized with a freshly fitted scaler,
// and k-means runs at the configured count. With autoOptimize, counts
// 2..10 are swept first and the silhouette-best one is used. Identical
// data, seed and count always produce identical assignments.
func (e *Engine) Fit(tracks []catalog.Track, autoOptimize bool) error {
	kept, raw := SelectFeatures(tracks)
	if len(kept) < minSweepK {
		return fmt.Errorf("%w: %d usable rows", ErrTooFewRows, len(kept))
	}

	sc := &scaler{}
	scaled := sc.fitTransform(raw)

	k := e.cfg.Clusters
	var sweep []CandidateScore
	if autoOptimize {
		var err error
		k, sweep, err = searchK(scaled, e.cfg.Seed)
		if err != nil {
			return err
		}
	}

	res, err := runKMeans(scaled, k, finalNInit, finalMaxIter, e.cfg.Seed)
	if err != nil {
		return err
	}

	e.tracks = kept
	e.scaled = scaled
	e.scaler = sc
	e.assignments = res.assignments
	e.centroids = res.centroids
	e.k = k
	e.silhouette = silhouette(scaled, res.assignments, k)
	e.daviesBouldin = daviesBouldin(scaled, res.assignments, res.centroids)
	e.sweep = sweep
	e.labels = nil
	e.profiles = nil
	e.state = stateFitted
	return nil
}

// searchK sweeps cluster counts 2..10 (capped at rows-1) and returns the
// silhouette-best count plus the per-candidate scores.
func searchK(scaled *mat.Dense, seed int64) (int, []CandidateScore, error) {
	rows, _ := scaled.Dims()
	hi := maxSweepK
	if rows-1 < hi {
		hi = rows - 1
	}
	if hi < minSweepK {
		return 0, nil, fmt.Errorf("%w: %d rows for cluster count search", ErrTooFewRows, rows)
	}

	bestK, bestScore := 0, math.Inf(-1)
	sweep := make([]CandidateScore, 0, hi-minSweepK+1)
	for k := minSweepK; k <= hi; k++ {
		res, err := runKMeans(scaled, k, sweepNInit, sweepMaxIter, seed)
		if err != nil {
			return 0, nil, err
		}
		sil := silhouette(scaled, res.assignments, k)
		sweep = append(sweep, CandidateScore{
			K:             k,
			Silhouette:    sil,
			DaviesBouldin: daviesBouldin(scaled, res.assignments, res.centroids),
			Inertia:       res.inertia,
		})
		if sil > bestScore {
			bestScore, bestK = sil, k
		}
	}
	return bestK, sweep, nil
}

// Assignments returns every clustered row with its cluster id, in catalog
// order.
func (e *Engine) Assignments() ([]Assignment, error) {
	if e.state < stateFitted {
		return nil, fmt.Errorf("%w: call Fit first", ErrNotFitted)
	}
	out := make([]Assignment, len(e.tracks))
	for i := range e.tracks {
		out[i] = Assignment{Track: e.tracks[i], Cluster: e.assignments[i]}
	}
	return out, nil
}

// K returns the fitted cluster count, 0 before Fit.
func (e *Engine) K() int {
	return e.k
}

// Len returns the number of clustered rows.
func (e *Engine) Len() int {
	return len(e.tracks)
}

// Quality returns the silhouette score and Davies-Bouldin index of the
// fitted partition.
func (e *Engine) Quality() (silhouette, daviesBouldin float64, err error) {
	if e.state < stateFitted {
		return 0, 0, fmt.Errorf("%w: call Fit first", ErrNotFitted)
	}
	return e.silhouette, e.daviesBouldin, nil
}

// Sweep returns the cluster-count candidate scores from the last
// auto-optimize run, nil when Fit ran at a fixed count.
func (e *Engine) Sweep() []CandidateScore {
	return append([]CandidateScore(nil), e.sweep...)
}

// Analyze computes each cluster's mean raw feature values, derives its
// label from the decision table and stores the result. The returned label
// map is a fresh copy on every call; mutating it does not touch the
// engine's stored labels.
func (e *Engine) Analyze() (map[int]string, error) {
	if e.state < stateFitted {
		return nil, fmt.Errorf("%w: call Fit first", ErrNotFitted)
	}

	profiles := make([]Profile, e.k)
	for c := range profiles {
		profiles[c] = Profile{Cluster: c, Means: make(map[string]float64, len(primitiveNames))}
	}
	for i := range e.tracks {
		p := &profiles[e.assignments[i]]
		p.Size++
		for _, name := range primitiveNames {
			p.Means[name] += e.tracks[i].Feature(name)
		}
	}

	labels := make(map[int]string, e.k)
	for c := range profiles {
		p := &profiles[c]
		if p.Size > 0 {
			for name := range p.Means {
				p.Means[name] /= float64(p.Size)
			}
		}
		p.Label = interpretCluster(p.Means)
		labels[c] = p.Label
	}

	e.labels = labels
	e.profiles = profiles
	e.state = stateAnalyzed
	return copyLabels(labels), nil
}

// Labels returns a copy of the stored label map from the last Analyze.
func (e *Engine) Labels() (map[int]string, error) {
	if e.state < stateAnalyzed {
		return nil, fmt.Errorf("%w: call Analyze first", ErrNotAnalyzed)
	}
	return copyLabels(e.labels), nil
}

// Profiles returns the per-cluster statistics from the last Analyze.
func (e *Engine) Profiles() ([]Profile, error) {
	if e.state < stateAnalyzed {
		return nil, fmt.Errorf("%w: call Analyze first", ErrNotAnalyzed)
	}
	return append([]Profile(nil), e.profiles...), nil
}

func copyLabels(labels map[int]string) map[int]string {
	out := make(map[int]string, len(labels))
	for c, l := range labels {
		out[c] = l
	}
	return out
}

// Attach assigns a catalog to a model restored by LoadModel: each kept
// row goes to its nearest stored centroid. On a converged model this
// reproduces the assignments the model was fitted with, so a reloaded
// bundle answers queries identically against an unchanged catalog.
func (e *Engine) Attach(tracks []catalog.Track) error {
	if !e.scaler.fitted(len(FeatureNames)) || len(e.centroids) == 0 {
		return fmt.Errorf("%w: no model to attach to", ErrNotFitted)
	}

	kept, raw := SelectFeatures(tracks)
	if len(kept) < len(e.centroids) {
		return fmt.Errorf("%w: %d usable rows for %d clusters", ErrTooFewRows, len(kept), len(e.centroids))
	}
	scaled := e.scaler.transform(raw)

	cc := make(clusters.Clusters, len(e.centroids))
	for i, center := range e.centroids {
		cc[i].Center = clusters.Coordinates(center)
	}
	assignments := make([]int, len(kept))
	for i := range kept {
		assignments[i] = cc.Nearest(observation{row: i, coords: clusters.Coordinates(scaled.RawRowView(i))})
	}

	e.tracks = kept
	e.scaled = scaled
	e.assignments = assignments
	e.silhouette = silhouette(scaled, assignments, e.k)
	e.daviesBouldin = daviesBouldin(scaled, assignments, e.centroids)
	e.state = stateFitted
	return nil
}
