package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/psim/internal/sim"
)

// Summary describes a series of samples of one quantity.
type Summary struct {
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	s := Summary{N: len(xs), Min: floats.Min(xs), Max: floats.Max(xs)}
	if len(xs) == 1 {
		s.Mean = xs[0]
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(xs, nil)
	s.Variance = s.Std * s.Std
	return s
}

// Column extracts one named column from a series. Unknown names give nil.
func Column(series []Sample, name string) []float64 {
	get, ok := columns[name]
	if !ok {
		return nil
	}
	out := make([]float64, len(series))
	for i, s := range series {
		out[i] = get(s)
	}
	return out
}

var columns = map[string]func(Sample) float64{
	"time":              func(s Sample) float64 { return s.Time },
	"temperature":       func(s Sample) float64 { return s.Temperature },
	"msd":               func(s Sample) float64 { return s.MSD },
	"tracked_msd":       func(s Sample) float64 { return s.TrackedMSD },
	"clusters":          func(s Sample) float64 { return float64(s.Clusters) },
	"mean_coordination": func(s Sample) float64 { return s.MeanCoordination },
	"potential":         func(s Sample) float64 { return s.Potential },
}

// ColumnNames lists the series columns in file order.
func ColumnNames() []string {
	return []string{"time", "temperature", "msd", "tracked_msd", "clusters", "mean_coordination", "potential"}
}

// Diffusion estimates the diffusion coefficient from the slope of the
// tracked MSD against time, MSD = 6Dt, by least squares.
func Diffusion(series []Sample) float64 {
	if len(series) < 2 {
		return math.NaN()
	}
	t := Column(series, "time")
	msd := Column(series, "tracked_msd")
	_, slope := stat.LinearRegression(t, msd, nil, false)
	return slope / 6
}

// StateSummary reports per-particle quantities of a single configuration.
type StateSummary struct {
	Particles        int     `json:"particles"`
	Temperature      float64 `json:"temperature"`
	MeanCoordination float64 `json:"mean_coordination"`
	Clusters         int     `json:"clusters"`
	LargestCluster   int     `json:"largest_cluster"`
	Potential        float64 `json:"potential"`
	MeanWork         float64 `json:"mean_work"`
}

func SummarizeState(ps []*sim.Particle) StateSummary {
	clusters := FindClusters(ps, DefaultMinClusterSize)
	largest := 0
	for _, c := range clusters {
		largest = max(largest, len(c))
	}
	return StateSummary{
		Particles:        len(ps),
		Temperature:      Temperature(ps),
		MeanCoordination: MeanCoordination(ps),
		Clusters:         len(clusters),
		LargestCluster:   largest,
		Potential:        PotentialEnergy(ps),
		MeanWork:         MeanWork(ps),
	}
}
