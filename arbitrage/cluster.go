package arbitrage

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/krakentools/krakentools/model"
)

const maxClusterIterations = 100

// ClusterVolumes reduces the number of distinct volume breakpoints of every base currency to at most buckets
// using a 1-D k-means. Breakpoints are moved to the centroid of their cluster, buckets that become empty are
// merged into the preceding bucket of their edge with rates averaged by the original bucket widths.
func ClusterVolumes(matrix *DepthMatrix, buckets int) (*DepthMatrix, error) {
	if buckets < 1 {
		return nil, fmt.Errorf("need at least 1 volume bucket, was %d", buckets)
	}

	breakpoints := map[model.Asset][]float64{}
	for _, k := range matrix.Keys() {
		breakpoints[k.Base] = appendBreakpoint(breakpoints[k.Base], k.Lower)
		breakpoints[k.Base] = appendBreakpoint(breakpoints[k.Base], k.Upper)
	}

	mappings := map[model.Asset]map[float64]float64{}
	for base, points := range breakpoints {
		points = distinctSorted(points)
		mapping := map[float64]float64{}
		if len(points) < 2 || len(points) <= buckets {
			for _, p := range points {
				mapping[p] = p
			}
		} else {
			centroids, assignment := kmeans1D(points, buckets)
			for i, p := range points {
				mapping[p] = centroids[assignment[i]]
			}
		}
		mappings[base] = mapping
	}

	out := MakeDepthMatrix()
	order, grouped := matrix.listings()
	for _, l := range order {
		mapping := mappings[l.Base]
		remap := func(v float64) float64 {
			if v == 0 || IsUnbounded(v) {
				return v
			}
			return mapping[v]
		}

		var current *Key
		var currentQuote Quote
		var weight float64
		flush := func() error {
			if current == nil {
				return nil
			}
			return out.Add(*current, currentQuote)
		}
		for _, k := range grouped[l] {
			q, _ := matrix.Get(k)
			lower := remap(k.Lower)
			upper := remap(k.Upper)
			if lower == upper && current != nil {
				// collapsed bucket, its volume now trades at the preceding bucket
				w := k.Width()
				currentQuote.Rate = (currentQuote.Rate*weight + q.Rate*w) / (weight + w)
				currentQuote.Price = (currentQuote.Price*weight + q.Price*w) / (weight + w)
				weight += w
				current.Upper = upper
				continue
			}

			e := flush()
			if e != nil {
				return nil, e
			}
			current = &Key{Edge: k.Edge, Base: k.Base, Lower: lower, Upper: upper}
			currentQuote = q
			weight = k.Width()
		}
		e := flush()
		if e != nil {
			return nil, e
		}
	}

	e := out.Validate()
	if e != nil {
		return nil, errors.Wrap(e, "clustered depth matrix is invalid")
	}
	return out, nil
}

func appendBreakpoint(points []float64, v float64) []float64 {
	if v == 0 || IsUnbounded(v) {
		return points
	}
	return append(points, v)
}

func distinctSorted(points []float64) []float64 {
	sort.Float64s(points)
	out := []float64{}
	for _, p := range points {
		if len(out) == 0 || out[len(out)-1] != p {
			out = append(out, p)
		}
	}
	return out
}

// kmeans1D clusters sorted distinct points into k groups seeded at the quantiles,
// it returns the sorted centroids and the cluster index of every point
func kmeans1D(points []float64, k int) ([]float64, []int) {
	n := len(points)
	centroids := make([]float64, k)
	for j := range centroids {
		centroids[j] = points[(2*j+1)*n/(2*k)]
	}

	assignment := assignNearest(points, centroids)
	for iter := 0; iter < maxClusterIterations; iter++ {
		sums := make([]float64, k)
		counts := make([]int, k)
		for i, p := range points {
			sums[assignment[i]] += p
			counts[assignment[i]]++
		}
		for j := range centroids {
			if counts[j] > 0 {
				centroids[j] = sums[j] / float64(counts[j])
			}
		}
		sort.Float64s(centroids)

		next := assignNearest(points, centroids)
		changed := false
		for i := range next {
			if next[i] != assignment[i] {
				changed = true
				break
			}
		}
		assignment = next
		if !changed {
			break
		}
	}
	return centroids, assignment
}

// assignNearest maps every point to its closest centroid, ties go to the lower centroid so the mapping is monotonic
func assignNearest(points []float64, centroids []float64) []int {
	assignment := make([]int, len(points))
	for i, p := range points {
		best := 0
		for j := 1; j < len(centroids); j++ {
			if math.Abs(p-centroids[j]) < math.Abs(p-centroids[best]) {
				best = j
			}
		}
		assignment[i] = best
	}
	return assignment
}
