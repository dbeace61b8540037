package recommend

import (
	"encoding/gob"
	"fmt"
	"io"
)

// modelBundle is the serialized form of a fitted engine: standardization
// parameters, feature layout and configuration. The catalog itself is not
// part of the bundle; reload with LoadModel and call Attach with the same
// catalog to reproduce identical query results.
type modelBundle struct {
	Mean         []float64
	Scale        []float64
	FeatureNames []string
	Neighbors    int
	DefaultCount int
}

// SaveModel writes the fitted engine parameters to w.
func (rec *Recommender) SaveModel(w io.Writer) error {
	if !rec.scaler.fitted(len(scaledFeatureNames)) {
		return fmt.Errorf("%w: nothing fitted to save", ErrNotReady)
	}
	bundle := modelBundle{
		Mean:         rec.scaler.Mean,
		Scale:        rec.scaler.Scale,
		FeatureNames: scaledFeatureNames,
		Neighbors:    rec.cfg.Neighbors,
		DefaultCount: rec.cfg.DefaultCount,
	}
	if err := gob.NewEncoder(w).Encode(bundle); err != nil {
		return fmt.Errorf("encoding model bundle: %w", err)
	}
	return nil
}

// LoadModel reads engine parameters saved by SaveModel. The returned engine
// has no catalog until Attach is called.
func LoadModel(r io.Reader) (*Recommender, error) {
	var bundle modelBundle
	if err := gob.NewDecoder(r).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decoding model bundle: %w", err)
	}
	if len(bundle.Mean) != len(scaledFeatureNames) || len(bundle.Scale) != len(scaledFeatureNames) {
		return nil, fmt.Errorf("model bundle has %d feature columns, want %d", len(bundle.Mean), len(scaledFeatureNames))
	}
	rec := New(Config{DefaultCount: bundle.DefaultCount, Neighbors: bundle.Neighbors})
	rec.scaler = &Scaler{Mean: bundle.Mean, Scale: bundle.Scale}
	return rec, nil
}
