package cluster

import (
	"encoding/gob"
	"fmt"
	"io"
)

// modelBundle is the serialized form of a fitted cluster model:
// standardization parameters, centroids and the label map if Analyze has
// run. The catalog is not part of the bundle; reload with LoadModel and
// call Attach with the same catalog to reproduce identical assignments.
type modelBundle struct {
	Mean         []float64
	Scale        []float64
	FeatureNames []string
	Seed         int64
	Centroids    [][]float64
	Labels       map[int]string
}

// SaveModel writes the fitted model to w.
func (e *Engine) SaveModel(w io.Writer) error {
	if e.state < stateFitted {
		return fmt.Errorf("%w: nothing fitted to save", ErrNotFitted)
	}
	bundle := modelBundle{
		Mean:         e.scaler.mean,
		Scale:        e.scaler.scale,
		FeatureNames: FeatureNames,
		Seed:         e.cfg.Seed,
		Centroids:    e.centroids,
		Labels:       e.labels,
	}
	if err := gob.NewEncoder(w).Encode(bundle); err != nil {
		return fmt.Errorf("encoding cluster model bundle: %w", err)
	}
	return nil
}

// LoadModel reads a model saved by SaveModel. The returned engine has no
// catalog until Attach is called; Analyze after Attach re-derives the same
// labels the saved model had, since the decision table is deterministic.
func LoadModel(r io.Reader) (*Engine, error) {
	var bundle modelBundle
	if err := gob.NewDecoder(r).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decoding cluster model bundle: %w", err)
	}
	if len(bundle.Mean) != len(FeatureNames) || len(bundle.Scale) != len(FeatureNames) {
		return nil, fmt.Errorf("cluster model bundle has %d feature columns, want %d", len(bundle.Mean), len(FeatureNames))
	}
	if len(bundle.Centroids) < minSweepK {
		return nil, fmt.Errorf("cluster model bundle has %d centroids, want at least %d", len(bundle.Centroids), minSweepK)
	}

	e := New(Config{Clusters: len(bundle.Centroids), Seed: bundle.Seed})
	e.scaler = &scaler{mean: bundle.Mean, scale: bundle.Scale}
	e.centroids = bundle.Centroids
	e.k = len(bundle.Centroids)
	e.labels = bundle.Labels
	return e, nil
}
