package metrics

import (
	"math"

	"github.com/san-kum/psim/internal/analysis"
	"github.com/san-kum/psim/internal/sim"
)

// PotentialEnergy is the time average of the pair energy per particle.
type PotentialEnergy struct {
	name    string
	sum     float64
	samples int
}

func NewPotentialEnergy() *PotentialEnergy {
	return &PotentialEnergy{name: "potential"}
}

func (e *PotentialEnergy) Name() string { return e.name }

func (e *PotentialEnergy) Observe(s *sim.State) {
	e.sum += analysis.PotentialEnergy(s.Particles)
	e.samples++
}

func (e *PotentialEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *PotentialEnergy) Reset() {
	e.sum = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative change of the total energy,
// kinetic plus pair, from its first sample. It is only meaningful for the
// deterministic integrators.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

// TotalEnergy is the kinetic plus pair energy of ps.
func TotalEnergy(ps []*sim.Particle) float64 {
	var total float64
	for _, p := range ps {
		total += p.KineticEnergy() + p.Potential
	}
	return total
}

func (e *EnergyDrift) Observe(s *sim.State) {
	energy := TotalEnergy(s.Particles)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
