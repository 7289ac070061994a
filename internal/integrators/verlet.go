package integrators

import (
	"context"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/compute"
	"github.com/san-kum/psim/internal/sim"
)

// Verlet is velocity Verlet in kick-drift-kick form, split across calls:
// each step completes the previous half kick with the fresh forces, then
// kicks and drifts again. Velocities are reported at half steps.
type Verlet struct {
	backend compute.Backend
}

func NewVerlet(backend compute.Backend) *Verlet {
	if backend == nil {
		backend = compute.NewSerialBackend()
	}
	return &Verlet{backend: backend}
}

func (v *Verlet) Name() string { return "verlet" }

func (v *Verlet) Step(ctx context.Context, s *sim.State) error {
	first := s.Step == 0
	halfDt := 0.5 * s.Dt

	return v.backend.ForEach(ctx, s.N(), func(start, end int) error {
		for i := start; i < end; i++ {
			p := s.Particles[i]
			kick := r3.Scale(halfDt/p.Mass, p.Force)
			if !first {
				p.Vel = r3.Add(p.Vel, kick)
			}
			p.Vel = r3.Add(p.Vel, kick)
			if err := p.SetPos(r3.Add(p.Pos, r3.Scale(s.Dt, p.Vel)), s.Box); err != nil {
				return err
			}
		}
		return nil
	})
}
