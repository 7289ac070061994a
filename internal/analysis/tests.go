package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/psim/internal/cell"
	"github.com/san-kum/psim/internal/sim"
)

// Input is the data a post-run test works on: a configuration read back
// from a recovery snapshot and the series recorded during the run.
type Input struct {
	Particles []*sim.Particle
	Box       float64
	// Range is the bond distance, as a multiple of the contact distance,
	// used to rebuild interactions for snapshots that do not carry them.
	Range          float64
	MinClusterSize int
	Series         []Sample
}

// Report is the result of one test.
type Report struct {
	Test   string             `json:"test"`
	Values map[string]float64 `json:"values"`
	Bins   []Bin              `json:"bins,omitempty"`
}

type testFunc func(in Input) (Report, error)

var registry = map[string]testFunc{
	"clusters":     clustersTest,
	"coordination": coordinationTest,
	"msd":          msdTest,
	"temperature":  temperatureTest,
	"potential":    potentialTest,
}

func TestNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunTest runs the named post-run test.
func RunTest(name string, in Input) (Report, error) {
	fn, ok := registry[name]
	if !ok {
		return Report{}, fmt.Errorf("analysis: unknown test %q: %w", name, sim.ErrInput)
	}
	rep, err := fn(in)
	rep.Test = name
	return rep, err
}

// Rebond recomputes coordination and interaction lists from distances:
// particles closer than rangeFactor times their contact distance bond.
func Rebond(ps []*sim.Particle, box, rangeFactor float64) error {
	maxR := 0.0
	for _, p := range ps {
		maxR = math.Max(maxR, p.Radius)
	}
	cut := rangeFactor * 2 * maxR
	if cut <= 0 || box <= 0 {
		return fmt.Errorf("analysis: bond range %.3f in box %.3f: %w", cut, box, sim.ErrInput)
	}

	scale := int(box / cut)
	if scale < 1 {
		scale = 1
	}
	g, err := cell.New(box, scale)
	if err != nil {
		return err
	}
	if err := g.Rebuild(ps); err != nil {
		return err
	}

	for _, p := range ps {
		p.Coordination = 0
		p.Interactions = p.Interactions[:0]
	}
	for i, p := range ps {
		g.ForEachNeighbor(i, func(j int) {
			q := ps[j]
			r := rangeFactor * (p.Radius + q.Radius)
			if sim.Dist2(p.Pos, q.Pos, box) < r*r {
				p.AddInteraction(q.ID)
			}
		})
	}
	return nil
}

func (in Input) bonded() error {
	if len(in.Particles) == 0 {
		return fmt.Errorf("analysis: no particles: %w", sim.ErrInput)
	}
	for _, p := range in.Particles {
		if p.Coordination > 0 {
			return nil
		}
	}
	if in.Range <= 0 {
		return nil
	}
	return Rebond(in.Particles, in.Box, in.Range)
}

func (in Input) minSize() int {
	if in.MinClusterSize > 0 {
		return in.MinClusterSize
	}
	return DefaultMinClusterSize
}

func clustersTest(in Input) (Report, error) {
	if err := in.bonded(); err != nil {
		return Report{}, err
	}
	clusters := FindClusters(in.Particles, in.minSize())
	largest, members := 0, 0
	for _, c := range clusters {
		largest = max(largest, len(c))
		members += len(c)
	}
	mean := 0.0
	if len(clusters) > 0 {
		mean = float64(members) / float64(len(clusters))
	}
	return Report{
		Values: map[string]float64{
			"count":    float64(len(clusters)),
			"largest":  float64(largest),
			"meanSize": mean,
			"fraction": float64(members) / float64(len(in.Particles)),
		},
		Bins: ClusterSizeHistogram(clusters),
	}, nil
}

func coordinationTest(in Input) (Report, error) {
	if err := in.bonded(); err != nil {
		return Report{}, err
	}
	values := make([]float64, len(in.Particles))
	for i, p := range in.Particles {
		values[i] = float64(p.Coordination)
	}
	s := Summarize(values)

	clusters := FindClusters(in.Particles, in.minSize())
	clustered := 0.0
	if cc := ClusterCoordinationHistogram(in.Particles, clusters); len(cc) > 0 {
		total, n := 0, 0
		for _, b := range cc {
			total += b.Value * b.Count
			n += b.Count
		}
		clustered = float64(total) / float64(n)
	}
	return Report{
		Values: map[string]float64{
			"mean":          s.Mean,
			"std":           s.Std,
			"max":           s.Max,
			"clusteredMean": clustered,
		},
		Bins: CoordinationHistogram(in.Particles),
	}, nil
}

func needSeries(in Input) error {
	if len(in.Series) == 0 {
		return fmt.Errorf("analysis: empty series: %w", sim.ErrInput)
	}
	return nil
}

func msdTest(in Input) (Report, error) {
	if err := needSeries(in); err != nil {
		return Report{}, err
	}
	last := in.Series[len(in.Series)-1]
	values := map[string]float64{
		"final":    last.TrackedMSD,
		"stepMean": Summarize(Column(in.Series, "msd")).Mean,
	}
	if len(in.Series) > 1 {
		values["diffusion"] = Diffusion(in.Series)
	}
	return Report{Values: values}, nil
}

func temperatureTest(in Input) (Report, error) {
	if err := needSeries(in); err != nil {
		return Report{}, err
	}
	s := Summarize(Column(in.Series, "temperature"))
	return Report{Values: map[string]float64{
		"mean": s.Mean, "std": s.Std, "min": s.Min, "max": s.Max,
	}}, nil
}

func potentialTest(in Input) (Report, error) {
	if err := needSeries(in); err != nil {
		return Report{}, err
	}
	s := Summarize(Column(in.Series, "potential"))
	values := map[string]float64{
		"mean": s.Mean, "std": s.Std, "variance": s.Variance,
		"final": in.Series[len(in.Series)-1].Potential,
	}
	if len(in.Particles) > 0 {
		values["meanWork"] = MeanWork(in.Particles)
	}
	return Report{Values: values}, nil
}
