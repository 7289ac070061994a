package sim

import (
	"context"
	"math"
)

// State is the shared simulation state handed to integrators, forces and
// observers. Particles are indexed by ID.
type State struct {
	Particles []*Particle

	Box           float64
	CellSize      float64
	CellScale     int
	Concentration float64
	Temp          float64

	Time       float64
	Dt         float64
	Step       int
	EndTime    float64
	OutputFreq int
	Seed       int64
}

func (s *State) N() int { return len(s.Particles) }

// TotalSteps is the number of steps left until EndTime.
func (s *State) TotalSteps() int {
	if s.Dt <= 0 || s.EndTime <= s.Time {
		return 0
	}
	return int(math.Ceil((s.EndTime-s.Time)/s.Dt - 1e-9))
}

func (s *State) Done() bool {
	return s.Time >= s.EndTime-s.Dt*1e-6
}

// Integrator advances particle positions by one step using the forces
// already stored on each particle.
type Integrator interface {
	Name() string
	Step(ctx context.Context, s *State) error
}

type Observer interface {
	Observe(s *State) error
}

type Metric interface {
	Name() string
	Observe(s *State)
	Value() float64
	Reset()
}

// ObserverFunc adapts a plain function to an Observer.
type ObserverFunc func(s *State) error

func (f ObserverFunc) Observe(s *State) error { return f(s) }
