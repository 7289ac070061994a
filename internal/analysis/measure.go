package analysis

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/sim"
)

// Temperature is the kinetic temperature sum(|v|^2)/(3N) in units of kT
// for unit mass.
func Temperature(ps []*sim.Particle) float64 {
	if len(ps) == 0 {
		return 0
	}
	var sum float64
	for _, p := range ps {
		sum += r3.Norm2(p.Vel)
	}
	return sum / (3 * float64(len(ps)))
}

// MeanDisplacement is the mean squared displacement over the last step.
func MeanDisplacement(ps []*sim.Particle) float64 {
	if len(ps) == 0 {
		return 0
	}
	var sum float64
	for _, p := range ps {
		sum += r3.Norm2(p.Displacement())
	}
	return sum / float64(len(ps))
}

func MeanCoordination(ps []*sim.Particle) float64 {
	if len(ps) == 0 {
		return 0
	}
	total := 0
	for _, p := range ps {
		total += p.Coordination
	}
	return float64(total) / float64(len(ps))
}

// PotentialEnergy is the pair energy per particle.
func PotentialEnergy(ps []*sim.Particle) float64 {
	if len(ps) == 0 {
		return 0
	}
	var sum float64
	for _, p := range ps {
		sum += p.Potential
	}
	return sum / float64(len(ps))
}

// MeanWork is the work done by the force field per particle over the last
// step.
func MeanWork(ps []*sim.Particle) float64 {
	if len(ps) == 0 {
		return 0
	}
	var sum float64
	for _, p := range ps {
		sum += p.Work()
	}
	return sum / float64(len(ps))
}

// Sample is one row of the run series.
type Sample struct {
	Time             float64 `json:"time"`
	Temperature      float64 `json:"temperature"`
	MSD              float64 `json:"msd"`
	TrackedMSD       float64 `json:"tracked_msd"`
	Clusters         int     `json:"clusters"`
	MeanCoordination float64 `json:"mean_coordination"`
	Potential        float64 `json:"potential"`
}

// Measure takes a sample of s. tracker may be nil.
func Measure(s *sim.State, tracker *Tracker) Sample {
	ps := s.Particles
	out := Sample{
		Time:             s.Time,
		Temperature:      Temperature(ps),
		MSD:              MeanDisplacement(ps),
		Clusters:         len(FindClusters(ps, DefaultMinClusterSize)),
		MeanCoordination: MeanCoordination(ps),
		Potential:        PotentialEnergy(ps),
	}
	if tracker != nil {
		out.TrackedMSD = tracker.MSD()
	}
	return out
}
