package recommend

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Scaler standardizes matrix columns to zero mean and unit variance using
// parameters fitted once on a reference matrix. Constant columns get scale
// 1 so transforming them yields 0 instead of NaN.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// Fit computes per-column mean and population standard deviation.
func (s *Scaler) Fit(m mat.Matrix) {
	rows, cols := m.Dims()
	s.Mean = make([]float64, cols)
	s.Scale = make([]float64, cols)

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
			s.Mean[j] = lo
			s.Scale[j] = 1
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

		s.Mean[j] = mean
		s.Scale[j] = scale
	}
}

// Transform returns a standardized copy of m using the fitted parameters.
func (s *Scaler) Transform(m mat.Matrix) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, (m.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return out
}

// FitTransform fits the scaler on m and returns the standardized matrix.
func (s *Scaler) FitTransform(m mat.Matrix) *mat.Dense {
	s.Fit(m)
	return s.Transform(m)
}

// fitted reports whether Fit has run for the given column count.
func (s *Scaler) fitted(cols int) bool {
	return s != nil && len(s.Mean) == cols && len(s.Scale) == cols
}
