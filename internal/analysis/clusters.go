package analysis

import (
	"sort"

	"github.com/san-kum/psim/internal/sim"
)

// DefaultMinClusterSize is the size a group of particles must exceed to
// count as a cluster.
const DefaultMinClusterSize = 4

// FindClusters groups particles connected through their interaction lists
// and keeps the groups with more than minSize members. A bond listed by
// either particle counts. Member IDs are sorted and clusters are ordered by
// their lowest ID.
func FindClusters(ps []*sim.Particle, minSize int) [][]int {
	adj := make([][]int, len(ps))
	for i, p := range ps {
		for _, j := range p.Interactions {
			if j < 0 || j >= len(ps) || j == i {
				continue
			}
			adj[i] = append(adj[i], j)
			adj[j] = append(adj[j], i)
		}
	}

	seen := make([]bool, len(ps))
	var clusters [][]int
	for i := range ps {
		if seen[i] {
			continue
		}
		queue := []int{i}
		seen[i] = true
		for qi := 0; qi < len(queue); qi++ {
			for _, j := range adj[queue[qi]] {
				if !seen[j] {
					seen[j] = true
					queue = append(queue, j)
				}
			}
		}
		if len(queue) > minSize {
			sort.Ints(queue)
			clusters = append(clusters, queue)
		}
	}
	return clusters
}

// Clustered reports which particles belong to any of clusters.
func Clustered(n int, clusters [][]int) []bool {
	in := make([]bool, n)
	for _, c := range clusters {
		for _, id := range c {
			in[id] = true
		}
	}
	return in
}
