package recommend

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Method selects a similarity backend for BySong.
type Method int

const (
	// MethodKNN queries the pre-built nearest-neighbor index using cosine
	// distance.
	MethodKNN Method = iota
	// MethodCosine ranks by pairwise cosine similarity against every row.
	MethodCosine
	// MethodEuclidean ranks by pairwise euclidean distance against every row.
	MethodEuclidean
)

// methodNames maps wire names to methods, in the order they are documented.
var methodNames = []string{"knn", "cosine", "euclidean"}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod resolves a wire name to a Method.
func ParseMethod(s string) (Method, error) {
	for i, name := range methodNames {
		if s == name {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (valid methods: %v)", ErrUnknownMethod, s, methodNames)
}

// knnIndex is the exact (brute-force) cosine neighbor structure: the scaled
// rows normalized to unit length, so cosine distance is 1 minus a dot
// product. Rebuilding with a different width reuses the scaled matrix.
type knnIndex struct {
	unit      *mat.Dense
	neighbors int
}

func newKNNIndex(scaled *mat.Dense, neighbors int) *knnIndex {
	rows, cols := scaled.Dims()
	unit := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		v := scaled.RawRowView(i)
		norm := floats.Norm(v, 2)
		dst := unit.RawRowView(i)
		if norm == 0 {
			continue
		}
		for j, x := range v {
			dst[j] = x / norm
		}
	}
	return &knnIndex{unit: unit, neighbors: neighbors}
}

// cosineDistances returns 1 - cos(seed, i) for every row i.
func (ix *knnIndex) cosineDistances(seed int) []float64 {
	rows, _ := ix.unit.Dims()
	sv := ix.unit.RawRowView(seed)
	dists := make([]float64, rows)
	for i := 0; i < rows; i++ {
		dists[i] = 1 - floats.Dot(sv, ix.unit.RawRowView(i))
	}
	return dists
}

// BySong returns the top n tracks most similar to the seed track, ranked by
// the chosen method. The seed never appears in its own results and every
// score lies in [0, 1], 1 being most similar.
func (rec *Recommender) BySong(trackID string, method Method, n int) ([]Result, error) {
	if rec.rows == nil || rec.scaled == nil {
		return nil, fmt.Errorf("%w: call Prepare first", ErrNotReady)
	}
	seed, ok := rec.byID[trackID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, trackID)
	}
	if n <= 0 {
		n = rec.cfg.DefaultCount
	}
	// Never more results than non-seed rows.
	if m := len(rec.rows) - 1; n > m {
		n = m
	}

	switch method {
	case MethodKNN:
		return rec.bySongKNN(seed, n)
	case MethodCosine:
		return rec.bySongCosine(seed, n)
	case MethodEuclidean:
		return rec.bySongEuclidean(seed, n)
	}
	return nil, fmt.Errorf("%w: %v (valid methods: %v)", ErrUnknownMethod, int(method), methodNames)
}

// bySongKNN queries the neighbor index for n+1 hits and drops the first:
// the seed is always its own nearest neighbor at distance 0. Cosine
// distance d in [0, 2] maps to similarity 1 - d/2.
func (rec *Recommender) bySongKNN(seed, n int) ([]Result, error) {
	if rec.knn == nil {
		return nil, fmt.Errorf("%w: similarity index not built", ErrNotReady)
	}
	dists := rec.knn.cosineDistances(seed)
	// Pin the seed to the front so dropping the first hit always drops it,
	// even when other rows sit at distance 0.
	dists[seed] = -1

	order := rankAscending(dists)
	order = order[1 : n+1]

	results := make([]Result, len(order))
	for i, idx := range order {
		results[i] = rec.result(idx, clamp01(1-dists[idx]/2))
	}
	return results, nil
}

// bySongCosine computes pairwise cosine similarity against every row,
// excludes the seed by sentinel (keeping index alignment), and maps
// similarity s in [-1, 1] to (s+1)/2.
func (rec *Recommender) bySongCosine(seed, n int) ([]Result, error) {
	sims := rec.knnOrUnit().cosineDistances(seed)
	for i := range sims {
		sims[i] = 1 - sims[i] // back to similarity
	}
	sims[seed] = math.Inf(-1)

	order := rankDescending(sims)
	order = order[:n]

	results := make([]Result, len(order))
	for i, idx := range order {
		results[i] = rec.result(idx, clamp01((sims[idx]+1)/2))
	}
	return results, nil
}

// bySongEuclidean computes pairwise euclidean distance against every row,
// excludes the seed by +Inf sentinel, and normalizes the selected block by
// its own maximum distance: score = 1 - d/max(d), with 1 substituted when
// the maximum is 0.
func (rec *Recommender) bySongEuclidean(seed, n int) ([]Result, error) {
	rows, _ := rec.scaled.Dims()
	sv := rec.scaled.RawRowView(seed)
	dists := make([]float64, rows)
	for i := 0; i < rows; i++ {
		var sq float64
		for j, x := range rec.scaled.RawRowView(i) {
			d := x - sv[j]
			sq += d * d
		}
		dists[i] = math.Sqrt(sq)
	}
	dists[seed] = math.Inf(1)

	order := rankAscending(dists)
	order = order[:n]

	maxDist := 0.0
	for _, idx := range order {
		if dists[idx] > maxDist {
			maxDist = dists[idx]
		}
	}
	if maxDist == 0 {
		maxDist = 1
	}

	results := make([]Result, len(order))
	for i, idx := range order {
		results[i] = rec.result(idx, clamp01(1-dists[idx]/maxDist))
	}
	return results, nil
}

// knnOrUnit returns the unit-normalized matrix, building it on demand when
// the index was never constructed. The pairwise cosine method does not
// depend on the index lifecycle.
func (rec *Recommender) knnOrUnit() *knnIndex {
	if rec.knn != nil {
		return rec.knn
	}
	return newKNNIndex(rec.scaled, rec.cfg.Neighbors)
}

// rankAscending returns row indices ordered by value ascending, breaking
// ties by index for stable, reproducible output.
func rankAscending(values []float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		va, vb := values[order[a]], values[order[b]]
		if va != vb {
			return va < vb
		}
		return order[a] < order[b]
	})
	return order
}

func rankDescending(values []float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		va, vb := values[order[a]], values[order[b]]
		if va != vb {
			return va > vb
		}
		return order[a] < order[b]
	})
	return order
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
