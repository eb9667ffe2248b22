// Package cluster groups embedded responses into clusters of near-duplicate
// meaning using density-based clustering on cosine distance.
package cluster

import (
	"math"

	"github.com/rotisserie/eris"
)

// Outlier is the assignment for a point not dense enough to join any cluster.
const Outlier = -1

// Params controls the DBSCAN run.
type Params struct {
	// Eps is the neighborhood radius in cosine distance.
	Eps float64
	// MinPoints is the minimum neighborhood size (including the point itself)
	// for a point to be a core point. With MinPoints=2 every cluster has at
	// least two members, so outliers are exactly the singleton groups.
	MinPoints int
}

// DefaultParams mirrors the reference clustering configuration.
func DefaultParams() Params {
	return Params{Eps: 0.3, MinPoints: 2}
}

// Assignment maps each input index to a cluster id (0..n) or Outlier.
type Assignment struct {
	Labels     []int
	NumCluster int
}

// Outliers returns the indices assigned to no cluster, in input order.
func (a *Assignment) Outliers() []int {
	var out []int
	for i, l := range a.Labels {
		if l == Outlier {
			out = append(out, i)
		}
	}
	return out
}

// Representatives returns, for each cluster id, the first input index carrying
// that id. Representative choice is positional, not centroid-based: it must be
// cheap and reproducible given stable input ordering.
func (a *Assignment) Representatives() map[int]int {
	reps := make(map[int]int, a.NumCluster)
	for i, l := range a.Labels {
		if l == Outlier {
			continue
		}
		if _, ok := reps[l]; !ok {
			reps[l] = i
		}
	}
	return reps
}

// Members returns the input indices assigned to the given cluster id.
func (a *Assignment) Members(id int) []int {
	var members []int
	for i, l := range a.Labels {
		if l == id {
			members = append(members, i)
		}
	}
	return members
}

// Normalize scales every vector to unit length in place and returns the slice.
// Zero vectors are left untouched. On unit vectors, Euclidean distance is
// monotonic with cosine distance.
func Normalize(vectors [][]float64) [][]float64 {
	for _, v := range vectors {
		var sum float64
		for _, x := range v {
			sum += x * x
		}
		if sum == 0 {
			continue
		}
		inv := 1 / math.Sqrt(sum)
		for i := range v {
			v[i] *= inv
		}
	}
	return vectors
}

// CosineDistance returns 1 - cosine similarity of a and b.
func CosineDistance(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// CosineSimilarity returns the cosine similarity of a and b.
func CosineSimilarity(a, b []float64) float64 {
	return 1 - CosineDistance(a, b)
}

// Run executes DBSCAN over the vectors. The algorithm is fully deterministic:
// points are visited in input order, neighbors are scanned in input order, and
// cluster ids are assigned in discovery order, so a fixed embedding set always
// yields an identical Assignment.
func Run(vectors [][]float64, p Params) (*Assignment, error) {
	n := len(vectors)
	if p.Eps <= 0 {
		return nil, eris.Errorf("cluster: eps must be positive, got %v", p.Eps)
	}
	if p.MinPoints < 2 {
		return nil, eris.Errorf("cluster: min points must be at least 2, got %d", p.MinPoints)
	}
	for i := 1; i < n; i++ {
		if len(vectors[i]) != len(vectors[0]) {
			return nil, eris.Errorf("cluster: vector %d has dimension %d, want %d", i, len(vectors[i]), len(vectors[0]))
		}
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = Outlier
	}

	// N <= 1: clustering is skipped, every member is its own outlier.
	if n <= 1 {
		return &Assignment{Labels: labels}, nil
	}

	const unvisited = -2
	state := make([]int, n)
	for i := range state {
		state[i] = unvisited
	}

	neighbors := func(idx int) []int {
		var hood []int
		for j := 0; j < n; j++ {
			if CosineDistance(vectors[idx], vectors[j]) <= p.Eps {
				hood = append(hood, j)
			}
		}
		return hood
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if state[i] != unvisited {
			continue
		}
		hood := neighbors(i)
		if len(hood) < p.MinPoints {
			state[i] = Outlier
			continue
		}

		state[i] = clusterID
		labels[i] = clusterID

		// Expand the cluster over the seed set. The seed list grows as new
		// core points are found; order stays deterministic.
		seeds := append([]int(nil), hood...)
		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if state[j] == Outlier {
				// Border point previously ruled a noise point.
				state[j] = clusterID
				labels[j] = clusterID
			}
			if state[j] != unvisited {
				continue
			}
			state[j] = clusterID
			labels[j] = clusterID

			jHood := neighbors(j)
			if len(jHood) >= p.MinPoints {
				seeds = append(seeds, jHood...)
			}
		}
		clusterID++
	}

	return &Assignment{Labels: labels, NumCluster: clusterID}, nil
}

// Cohesion returns the mean cosine similarity between the representative of
// the given cluster and its other members. Propagating the representative's
// result to the whole cluster assumes approximate equivalence; this number
// makes that assumption visible instead of hiding it.
func Cohesion(vectors [][]float64, a *Assignment, id int) float64 {
	members := a.Members(id)
	if len(members) < 2 {
		return 1
	}
	rep := members[0]
	var sum float64
	for _, m := range members[1:] {
		sum += CosineSimilarity(vectors[rep], vectors[m])
	}
	return sum / float64(len(members)-1)
}
