package latent

import (
	"math"
	"math/rand"
	"sort"

	"fotd/domain/flavor"
)

// K-Means constants: fixed seed and sklearn-style restart count so
// cluster assignments are reproducible across runs.
const (
	kmeansSeed     = 42
	kmeansRestarts = 10
	kmeansMaxIter  = 100
)

// Clustering assigns each store to a cluster id in [0, k).
type Clustering struct {
	Stores []string
	Labels []int
}

// Map returns the store → cluster-id mapping.
func (c *Clustering) Map() map[string]int {
	out := make(map[string]int, len(c.Stores))
	for i, s := range c.Stores {
		out[s] = c.Labels[i]
	}
	return out
}

// ClusterInfo summarizes one cluster.
type ClusterInfo struct {
	Size          int
	TopFlavors    []string
	ExampleStores []string
}

// ClusterStores runs K-Means over store latent profiles (the W matrix
// from NMF, or PCA scores). It always produces exactly one label per
// row. When there are no more rows than clusters, each row becomes its
// own cluster.
func ClusterStores(w *LabeledMatrix, nClusters int) *Clustering {
	rows := toRows(w)
	labels := kmeans(rows, nClusters)
	return &Clustering{Stores: w.RowLabels, Labels: labels}
}

// ClusterSummary describes each cluster: member count, the flavors its
// stores serve most, and example store identifiers.
func ClusterSummary(ds *flavor.Dataset, clustering *Clustering, nTopFlavors int) map[int]ClusterInfo {
	members := make(map[int][]string)
	for i, store := range clustering.Stores {
		id := clustering.Labels[i]
		members[id] = append(members[id], store)
	}

	out := make(map[int]ClusterInfo, len(members))
	for id, stores := range members {
		sort.Strings(stores)
		counts := make(map[string]int)
		for _, store := range stores {
			for _, o := range ds.Store(store) {
				counts[o.Title]++
			}
		}
		type fc struct {
			title string
			count int
		}
		ranked := make([]fc, 0, len(counts))
		for title, n := range counts {
			ranked = append(ranked, fc{title, n})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].count != ranked[j].count {
				return ranked[i].count > ranked[j].count
			}
			return ranked[i].title < ranked[j].title
		})
		if nTopFlavors < len(ranked) {
			ranked = ranked[:nTopFlavors]
		}
		top := make([]string, len(ranked))
		for i, r := range ranked {
			top[i] = r.title
		}

		examples := stores
		if len(examples) > 5 {
			examples = examples[:5]
		}
		out[id] = ClusterInfo{
			Size:          len(stores),
			TopFlavors:    top,
			ExampleStores: examples,
		}
	}
	return out
}

func toRows(m *LabeledMatrix) [][]float64 {
	rows := make([][]float64, m.Rows())
	for i := range rows {
		rows[i] = m.Row(i)
	}
	return rows
}

// kmeans is Lloyd's algorithm with seeded random initialization and
// multiple restarts, keeping the assignment with the lowest inertia.
func kmeans(rows [][]float64, k int) []int {
	n := len(rows)
	labels := make([]int, n)
	if n == 0 || k < 1 {
		return labels
	}
	if n <= k {
		for i := range labels {
			labels[i] = i
		}
		return labels
	}

	rng := rand.New(rand.NewSource(kmeansSeed))
	bestInertia := math.Inf(1)
	best := make([]int, n)

	for restart := 0; restart < kmeansRestarts; restart++ {
		centroids := initialCentroids(rng, rows, k)
		assign := make([]int, n)
		for iter := 0; iter < kmeansMaxIter; iter++ {
			changed := assignRows(rows, centroids, assign)
			recomputeCentroids(rng, rows, assign, centroids)
			if !changed {
				break
			}
		}
		inertia := 0.0
		for i, row := range rows {
			inertia += squaredDistance(row, centroids[assign[i]])
		}
		if inertia < bestInertia {
			bestInertia = inertia
			copy(best, assign)
		}
	}
	copy(labels, best)
	return labels
}

func initialCentroids(rng *rand.Rand, rows [][]float64, k int) [][]float64 {
	perm := rng.Perm(len(rows))
	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		centroids[c] = append([]float64(nil), rows[perm[c]]...)
	}
	return centroids
}

func assignRows(rows, centroids [][]float64, assign []int) bool {
	changed := false
	for i, row := range rows {
		bestC, bestD := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := squaredDistance(row, centroid); d < bestD {
				bestC, bestD = c, d
			}
		}
		if assign[i] != bestC {
			assign[i] = bestC
			changed = true
		}
	}
	return changed
}

func recomputeCentroids(rng *rand.Rand, rows [][]float64, assign []int, centroids [][]float64) {
	dim := len(rows[0])
	counts := make([]int, len(centroids))
	for c := range centroids {
		centroids[c] = make([]float64, dim)
	}
	for i, row := range rows {
		c := assign[i]
		counts[c]++
		for j, v := range row {
			centroids[c][j] += v
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			// reseed empty clusters from a random row
			copy(centroids[c], rows[rng.Intn(len(rows))])
			continue
		}
		for j := range centroids[c] {
			centroids[c][j] /= float64(counts[c])
		}
	}
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Silhouette scores cluster separation in [-1, 1]. It returns 0 when
// fewer than two clusters carry members or the input is degenerate.
func Silhouette(rows [][]float64, labels []int) float64 {
	n := len(rows)
	if n < 2 {
		return 0.0
	}
	clusterRows := make(map[int][]int)
	for i, l := range labels {
		clusterRows[l] = append(clusterRows[l], i)
	}
	if len(clusterRows) < 2 {
		return 0.0
	}

	var total float64
	for i, row := range rows {
		own := labels[i]
		if len(clusterRows[own]) <= 1 {
			continue // silhouette of a singleton is 0
		}

		var a float64
		for _, j := range clusterRows[own] {
			if j != i {
				a += math.Sqrt(squaredDistance(row, rows[j]))
			}
		}
		a /= float64(len(clusterRows[own]) - 1)

		b := math.Inf(1)
		for l, idx := range clusterRows {
			if l == own {
				continue
			}
			var d float64
			for _, j := range idx {
				d += math.Sqrt(squaredDistance(row, rows[j]))
			}
			d /= float64(len(idx))
			if d < b {
				b = d
			}
		}

		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n)
}

// clusterAndSilhouette clusters latent rows and scores the separation,
// degrading to all-zero labels and score 0 when there are no more rows
// than clusters.
func clusterAndSilhouette(m *LabeledMatrix, nClusters int) ([]int, float64) {
	rows := toRows(m)
	if len(rows) <= nClusters {
		return make([]int, len(rows)), 0.0
	}
	labels := kmeans(rows, nClusters)
	distinct := make(map[int]struct{})
	for _, l := range labels {
		distinct[l] = struct{}{}
	}
	if len(distinct) < 2 {
		return labels, 0.0
	}
	return labels, Silhouette(rows, labels)
}
