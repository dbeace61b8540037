package cluster

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// silhouette returns the mean silhouette coefficient over all rows:
// (b-a)/max(a,b) per row, where a is the mean euclidean distance to the
// row's own cluster and b the smallest mean distance to any other
// cluster. Rows in singleton clusters score 0.
func silhouette(data *mat.Dense, assignments []int, k int) float64 {
	rows, _ := data.Dims()
	if rows == 0 || k < 2 {
		return 0
	}

	sizes := make([]int, k)
	for _, c := range assignments {
		sizes[c]++
	}

	var total float64
	sums := make([]float64, k)
	for i := 0; i < rows; i++ {
		own := assignments[i]
		if sizes[own] <= 1 {
			continue
		}

		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < rows; j++ {
			if j == i {
				continue
			}
			sums[assignments[j]] += floats.Distance(data.RawRowView(i), data.RawRowView(j), 2)
		}

		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || sizes[c] == 0 {
				continue
			}
			if mean := sums[c] / float64(sizes[c]); mean < b {
				b = mean
			}
		}
		if math.IsInf(b, 1) {
			continue
		}
		total += (b - a) / math.Max(a, b)
	}
	return total / float64(rows)
}

// daviesBouldin returns the Davies-Bouldin index: the mean, over clusters,
// of the worst (scatter_i+scatter_j)/separation_ij ratio, where scatter is
// the mean euclidean distance of a cluster's rows to its centroid and
// separation the distance between two centroids. Lower is better.
func daviesBouldin(data *mat.Dense, assignments []int, centroids [][]float64) float64 {
	k := len(centroids)
	if k < 2 {
		return 0
	}

	sizes := make([]int, k)
	scatter := make([]float64, k)
	rows, _ := data.Dims()
	for i := 0; i < rows; i++ {
		c := assignments[i]
		sizes[c]++
		scatter[c] += floats.Distance(data.RawRowView(i), centroids[c], 2)
	}
	for c := range scatter {
		if sizes[c] > 0 {
			scatter[c] /= float64(sizes[c])
		}
	}

	var total float64
	var counted int
	for i := 0; i < k; i++ {
		if sizes[i] == 0 {
			continue
		}
		worst := 0.0
		for j := 0; j < k; j++ {
			if j == i || sizes[j] == 0 {
				continue
			}
			sep := floats.Distance(centroids[i], centroids[j], 2)
			if sep == 0 {
				continue
			}
			if r := (scatter[i] + scatter[j]) / sep; r > worst {
				worst = r
			}
		}
		total += worst
		counted++
	}
	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}
