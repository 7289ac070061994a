package forces

import (
	"fmt"
	"math"

	"github.com/san-kum/psim/internal/sim"
)

// overlapRatio is the fraction of the contact distance below which two
// particles are considered to have interpenetrated.
const overlapRatio = 0.8

// Pair is the result of evaluating a potential for one particle pair.
// Force is the scalar along the separation; positive values push the
// particles apart.
type Pair struct {
	Force   float64
	Energy  float64
	Counted bool
}

// Potential is a spherically symmetric pair interaction. contact is the
// sum of the two radii.
type Potential interface {
	Name() string
	Cutoff() float64
	Pair(r, contact float64) (Pair, error)
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Quencher is implemented by potentials that can switch to a quenched
// parameter set mid-run.
type Quencher interface {
	Quench()
}

// TimeDependent is implemented by potentials whose output depends on the
// simulation clock.
type TimeDependent interface {
	TimeDependent() bool
}

func checkOverlap(r, contact float64) error {
	if r < overlapRatio*contact {
		return sim.ErrOverlap
	}
	return nil
}

func checkFinite(name string, p Pair) error {
	if math.IsNaN(p.Force) || math.IsInf(p.Force, 0) {
		return fmt.Errorf("%s: %w", name, sim.ErrInfiniteForce)
	}
	return nil
}

func unknownParam(force, name string) error {
	return fmt.Errorf("%s: unknown parameter %q: %w", force, name, sim.ErrInput)
}

func positiveParam(force, name string, v float64) error {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s: %s must be positive, got %g: %w", force, name, v, sim.ErrInput)
	}
	return nil
}
