package cluster

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// scaler standardizes matrix columns to zero mean and unit variance with
// parameters fitted once. It is deliberately separate from the
// recommendation engine's scaler: the two pipelines fit on different
// projections and must not share state.
type scaler struct {
	mean  []float64
	scale []float64
}

func (s *scaler) fit(m mat.Matrix) {
	rows, cols := m.Dims()
	s.mean = make([]float64, cols)
	s.scale = make([]float64, cols)

	for j := 0; j < cols; j++ {
		var sum float64
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < rows; i++ {
			v := m.At(i, j)
			sum += v
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if lo == hi {
			// Constant column. The summed mean can be inexact, which
			// would leave a tiny nonzero deviation; use the exact value.
			s.mean[j] = lo
			s.scale[j] = 1
			continue
		}
		mean := sum / float64(rows)

		var sq float64
		for i := 0; i < rows; i++ {
			d := m.At(i, j) - mean
			sq += d * d
		}
		scale := math.Sqrt(sq / float64(rows))
		if scale == 0 {
			scale = 1
		}

		s.mean[j] = mean
		s.scale[j] = scale
	}
}

func (s *scaler) transform(m mat.Matrix) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, (m.At(i, j)-s.mean[j])/s.scale[j])
		}
	}
	return out
}

func (s *scaler) fitTransform(m mat.Matrix) *mat.Dense {
	s.fit(m)
	return s.transform(m)
}

func (s *scaler) fitted(cols int) bool {
	return s != nil && len(s.mean) == cols && len(s.scale) == cols
}
