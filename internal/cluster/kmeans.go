package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/muesli/clusters"
	"gonum.org/v1/gonum/mat"
)

// observation adapts one scaled catalog row to the clusters.Observation
// interface. The row index survives the partition so assignments can be
// recovered afterwards.
type observation struct {
	row    int
	coords clusters.Coordinates
}

func (o observation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o observation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// kmeansResult is one converged partition. Inertia is the sum of squared
// distances from each row to its assigned centroid.
type kmeansResult struct {
	assignments []int
	centroids   [][]float64
	inertia     float64
}

// runKMeans partitions the rows of data into k clusters with Lloyd's
// iteration, restarting nInit times from fresh k-means++ initializations
// and keeping the partition with the lowest inertia. The rand source is
// built from seed inside this function, so identical data, seed and k
// always produce identical assignments regardless of what ran before.
func runKMeans(data *mat.Dense, k, nInit, maxIter int, seed int64) (kmeansResult, error) {
	rows, _ := data.Dims()
	if k < 2 {
		return kmeansResult{}, fmt.Errorf("cluster count must be at least 2, got %d", k)
	}
	if rows < k {
		return kmeansResult{}, fmt.Errorf("%w: %d rows for %d clusters", ErrTooFewRows, rows, k)
	}

	obs := make(clusters.Observations, rows)
	for i := 0; i < rows; i++ {
		obs[i] = observation{row: i, coords: clusters.Coordinates(data.RawRowView(i))}
	}

	rng := rand.New(rand.NewSource(seed))
	best := kmeansResult{inertia: math.Inf(1)}
	for run := 0; run < nInit; run++ {
		res := lloyd(obs, seedCentroids(rng, obs, k), maxIter)
		if res.inertia < best.inertia {
			best = res
		}
	}
	return best, nil
}

// seedCentroids picks k initial centers with the k-means++ scheme: the
// first center uniformly at random, each further one with probability
// proportional to its squared distance from the nearest chosen center.
func seedCentroids(rng *rand.Rand, obs clusters.Observations, k int) clusters.Clusters {
	cc := make(clusters.Clusters, 0, k)
	first := obs[rng.Intn(len(obs))].Coordinates()
	cc = append(cc, clusters.Cluster{Center: append(clusters.Coordinates(nil), first...)})

	dists := make([]float64, len(obs))
	for len(cc) < k {
		var total float64
		for i, o := range obs {
			nearest := math.Inf(1)
			for _, c := range cc {
				if d := o.Distance(c.Center); d < nearest {
					nearest = d
				}
			}
			dists[i] = nearest
			total += nearest
		}

		pick := rng.Intn(len(obs))
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dists {
				target -= d
				if target <= 0 {
					pick = i
					break
				}
			}
		}
		center := obs[pick].Coordinates()
		cc = append(cc, clusters.Cluster{Center: append(clusters.Coordinates(nil), center...)})
	}
	return cc
}

// lloyd alternates assignment and recentering until assignments stop
// changing or maxIter is reached. Clusters left empty by a pass keep
// their previous center.
func lloyd(obs clusters.Observations, cc clusters.Clusters, maxIter int) kmeansResult {
	assignments := make([]int, len(obs))
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		cc.Reset()
		changed := false
		for i, o := range obs {
			nearest := cc.Nearest(o)
			cc[nearest].Append(o)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed = true
			}
		}
		cc.Recenter()
		if !changed {
			break
		}
	}

	centroids := make([][]float64, len(cc))
	for i := range cc {
		centroids[i] = append([]float64(nil), cc[i].Center...)
	}
	var inertia float64
	for i, o := range obs {
		inertia += o.Distance(clusters.Coordinates(centroids[assignments[i]]))
	}
	return kmeansResult{assignments: assignments, centroids: centroids, inertia: inertia}
}
