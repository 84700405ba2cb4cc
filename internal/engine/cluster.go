package engine

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"threat-intel-service/internal/model"
)

// DefaultClusterEps is the DBSCAN neighborhood radius in standardized
// feature space (Euclidean).
const DefaultClusterEps = 0.5

const (
	labelUndefined = -2
	labelNoise     = -1
)

// clusterer groups events into density-connected components. A fresh
// standardization is computed on every invocation; no statistics carry
// across runs.
type clusterer struct {
	eps float64
}

func newClusterer(eps float64) clusterer {
	if eps <= 0 {
		eps = DefaultClusterEps
	}
	return clusterer{eps: eps}
}

// detect returns clusters as index lists into events, in discovery order.
// Batches smaller than minClusterSize produce no clusters; points outside
// every dense region are noise and excluded. Membership is deterministic for
// a fixed input ordering.
func (c clusterer) detect(events []model.AttackEvent, minClusterSize int) ([][]int, error) {
	if len(events) < minClusterSize {
		return nil, nil
	}

	matrix := make([][]float64, len(events))
	for i, ev := range events {
		vec, err := extractFeatures(ev)
		if err != nil {
			return nil, err
		}
		matrix[i] = vec[:]
	}

	standardize(matrix)
	labels := dbscan(matrix, c.eps, minClusterSize)

	var clusters [][]int
	for i, label := range labels {
		if label < 0 {
			continue
		}
		for label >= len(clusters) {
			clusters = append(clusters, nil)
		}
		clusters[label] = append(clusters[label], i)
	}
	return clusters, nil
}

// standardize scales each column to zero mean and unit variance in place.
// A zero-variance column contributes 0 after scaling instead of failing.
func standardize(matrix [][]float64) {
	if len(matrix) == 0 {
		return
	}

	col := make([]float64, len(matrix))
	for d := 0; d < featureDims; d++ {
		for i := range matrix {
			col[i] = matrix[i][d]
		}
		mean := stat.Mean(col, nil)

		variance := 0.0
		for _, v := range col {
			diff := v - mean
			variance += diff * diff
		}
		std := math.Sqrt(variance / float64(len(col)))

		for i := range matrix {
			if std == 0 {
				matrix[i][d] = 0
				continue
			}
			matrix[i][d] = (matrix[i][d] - mean) / std
		}
	}
}

// dbscan labels each point with its cluster index, or labelNoise. The
// neighborhood of a point includes the point itself, so a core point needs
// minPts total points within eps.
func dbscan(points [][]float64, eps float64, minPts int) []int {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = labelUndefined
	}

	cluster := 0
	for i := range points {
		if labels[i] != labelUndefined {
			continue
		}

		neighbors := regionQuery(points, i, eps)
		if len(neighbors) < minPts {
			labels[i] = labelNoise
			continue
		}

		labels[i] = cluster
		seeds := append([]int(nil), neighbors...)
		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if labels[j] == labelNoise {
				labels[j] = cluster
			}
			if labels[j] != labelUndefined {
				continue
			}
			labels[j] = cluster

			expanded := regionQuery(points, j, eps)
			if len(expanded) >= minPts {
				seeds = append(seeds, expanded...)
			}
		}
		cluster++
	}
	return labels
}

func regionQuery(points [][]float64, idx int, eps float64) []int {
	var neighbors []int
	for j := range points {
		if floats.Distance(points[idx], points[j], 2) <= eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}
