package metrics

import (
	"github.com/san-kum/psim/internal/analysis"
	"github.com/san-kum/psim/internal/sim"
)

// average is a running mean of a per-step observable.
type average struct {
	name    string
	measure func(*sim.State) float64
	sum     float64
	last    float64
	samples int
}

func (a *average) Name() string { return a.name }

func (a *average) Observe(s *sim.State) {
	a.last = a.measure(s)
	a.sum += a.last
	a.samples++
}

func (a *average) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return a.sum / float64(a.samples)
}

// Last is the most recent sample.
func (a *average) Last() float64 { return a.last }

func (a *average) Reset() {
	a.sum = 0
	a.last = 0
	a.samples = 0
}

type Temperature struct{ average }

func NewTemperature() *Temperature {
	return &Temperature{average{
		name:    "temperature",
		measure: func(s *sim.State) float64 { return analysis.Temperature(s.Particles) },
	}}
}

// MeanDisplacement averages the per-step mean squared displacement.
type MeanDisplacement struct{ average }

func NewMeanDisplacement() *MeanDisplacement {
	return &MeanDisplacement{average{
		name:    "msd",
		measure: func(s *sim.State) float64 { return analysis.MeanDisplacement(s.Particles) },
	}}
}

type Coordination struct{ average }

func NewCoordination() *Coordination {
	return &Coordination{average{
		name:    "mean_coordination",
		measure: func(s *sim.State) float64 { return analysis.MeanCoordination(s.Particles) },
	}}
}

// ClusterCount reports the number of clusters at the latest step.
type ClusterCount struct {
	average
	minSize int
}

func NewClusterCount(minSize int) *ClusterCount {
	c := &ClusterCount{minSize: minSize}
	c.average = average{
		name: "clusters",
		measure: func(s *sim.State) float64 {
			return float64(len(analysis.FindClusters(s.Particles, c.minSize)))
		},
	}
	return c
}

func (c *ClusterCount) Value() float64 { return c.last }
