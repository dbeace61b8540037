package cluster

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// Summing identical 0.1 values gives an inexact mean, so the per-column
// deviations are tiny but nonzero. The fitted scale must still treat the
// column as constant and transform it to exactly 0, not 1.
func TestScalerInexactConstantColumn(t *testing.T) {
	data := mat.NewDense(7, 2, nil)
	for i := 0; i < 7; i++ {
		data.Set(i, 0, 0.1)
		data.Set(i, 1, float64(i))
	}

	var s scaler
	out := s.fitTransform(data)

	if s.scale[0] != 1 {
		t.Errorf("scale[0] = %v, want 1", s.scale[0])
	}
	if s.mean[0] != 0.1 {
		t.Errorf("mean[0] = %v, want 0.1", s.mean[0])
	}
	for i := 0; i < 7; i++ {
		if v := out.At(i, 0); v != 0 {
			t.Errorf("row %d: scaled constant = %v, want 0", i, v)
		}
	}
}
