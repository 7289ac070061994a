package integrators

import (
	"context"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/compute"
	"github.com/san-kum/psim/internal/sim"
)

// Euler is the semi-implicit (symplectic) Euler method.
type Euler struct {
	backend compute.Backend
}

func NewEuler(backend compute.Backend) *Euler {
	if backend == nil {
		backend = compute.NewSerialBackend()
	}
	return &Euler{backend: backend}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(ctx context.Context, s *sim.State) error {
	return e.backend.ForEach(ctx, s.N(), func(start, end int) error {
		for i := start; i < end; i++ {
			p := s.Particles[i]
			p.Vel = r3.Add(p.Vel, r3.Scale(s.Dt/p.Mass, p.Force))
			if err := p.SetPos(r3.Add(p.Pos, r3.Scale(s.Dt, p.Vel)), s.Box); err != nil {
				return err
			}
		}
		return nil
	})
}
