package analysis

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/psim/internal/sim"
)

// Bin is one bar of an integer-valued histogram.
type Bin struct {
	Value int
	Count int
}

// IntHistogram bins integer values into unit-width bins. Empty bins are
// dropped and the rest are sorted by value.
func IntHistogram(values []int) []Bin {
	if len(values) == 0 {
		return nil
	}
	data := make([]float64, len(values))
	for i, v := range values {
		data[i] = float64(v)
	}
	sort.Float64s(data)

	lo, hi := data[0], data[len(data)-1]
	n := int(hi-lo) + 1
	dividers := floats.Span(make([]float64, n+1), lo-0.5, hi+0.5)
	counts := stat.Histogram(nil, dividers, data, nil)

	bins := make([]Bin, 0, n)
	for k, c := range counts {
		if c > 0 {
			bins = append(bins, Bin{Value: int(lo) + k, Count: int(c)})
		}
	}
	return bins
}

func CoordinationHistogram(ps []*sim.Particle) []Bin {
	values := make([]int, len(ps))
	for i, p := range ps {
		values[i] = p.Coordination
	}
	return IntHistogram(values)
}

func ClusterSizeHistogram(clusters [][]int) []Bin {
	values := make([]int, len(clusters))
	for i, c := range clusters {
		values[i] = len(c)
	}
	return IntHistogram(values)
}

// ClusterCoordinationHistogram bins the coordination of particles that
// belong to a cluster.
func ClusterCoordinationHistogram(ps []*sim.Particle, clusters [][]int) []Bin {
	var values []int
	for _, c := range clusters {
		for _, id := range c {
			values = append(values, ps[id].Coordination)
		}
	}
	return IntHistogram(values)
}

// WriteBins writes one "value count" pair per line.
func WriteBins(w io.Writer, bins []Bin) error {
	for _, b := range bins {
		if _, err := fmt.Fprintf(w, "%d %d\n", b.Value, b.Count); err != nil {
			return err
		}
	}
	return nil
}
