package qc

import (
	"fmt"
	"math"
	"math/rand"

	"surveyqc/internal/model"
)

// maxClusterIterations bounds the k-means-style refinement.
const maxClusterIterations = 50

// hammingDistance counts the coordinates where two answer vectors differ.
func hammingDistance(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

// ClusterResponses partitions responses into k clusters under the Hamming
// distance over their answer vectors. Centers are refined as the
// dimension-wise majority answer, which keeps them in the same discrete
// space the distance operates on. In supervised mode every cluster is
// labeled with the majority known-validity status of its members and each
// member inherits that label.
func ClusterResponses(
	responses []*model.SurveyResponse,
	k int,
	supervised bool,
	rng *rand.Rand,
	questions []*model.Question,
) error {
	if k <= 0 {
		return fmt.Errorf("cluster count must be positive, got %d", k)
	}
	if len(responses) < k {
		return fmt.Errorf("cannot form %d clusters from %d responses", k, len(responses))
	}

	points := make([][]float64, len(responses))
	for i, sr := range responses {
		points[i] = sr.Point(questions)
	}

	centers := seedCenters(points, k, rng)
	assignment := make([]int, len(points))

	for iter := 0; iter < maxClusterIterations; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, center := range centers {
				if d := hammingDistance(p, center); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignment[i] != best {
				assignment[i] = best
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}
		for c := range centers {
			centers[c] = majorityCenter(points, assignment, c, len(questions))
		}
	}

	for i, sr := range responses {
		sr.ClusterLabel = fmt.Sprintf("cluster_%d", assignment[i])
	}
	if supervised {
		labelValidity(responses, assignment, k)
	}
	return nil
}

// seedCenters picks k initial centers: a uniformly random first center, then
// each next center is the point farthest from its nearest chosen center.
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64{}, points[rng.Intn(len(points))]...))
	for len(centers) < k {
		farIdx, farDist := 0, -1.0
		for i, p := range points {
			nearest := math.Inf(1)
			for _, c := range centers {
				if d := hammingDistance(p, c); d < nearest {
					nearest = d
				}
			}
			if nearest > farDist {
				farIdx, farDist = i, nearest
			}
		}
		centers = append(centers, append([]float64{}, points[farIdx]...))
	}
	return centers
}

// majorityCenter recomputes a cluster center as the per-dimension mode of
// its members. An empty cluster keeps a zero center.
func majorityCenter(points [][]float64, assignment []int, cluster, dims int) []float64 {
	center := make([]float64, dims)
	for d := 0; d < dims; d++ {
		counts := make(map[float64]int)
		for i, p := range points {
			if assignment[i] == cluster {
				counts[p[d]]++
			}
		}
		best, bestCount := 0.0, 0
		for v, n := range counts {
			if n > bestCount {
				best, bestCount = v, n
			}
		}
		center[d] = best
	}
	return center
}

// labelValidity assigns every member of a cluster the majority known
// validity status among its members.
func labelValidity(responses []*model.SurveyResponse, assignment []int, k int) {
	for c := 0; c < k; c++ {
		counts := make(map[model.ValidityStatus]int)
		for i, sr := range responses {
			if assignment[i] == c {
				counts[sr.KnownValidity]++
			}
		}
		label := model.ValidityMaybe
		max := 0
		for status, n := range counts {
			if n > max {
				label, max = status, n
			}
		}
		for i, sr := range responses {
			if assignment[i] == c {
				sr.ComputedValidity = label
			}
		}
	}
}
