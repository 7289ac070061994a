package system

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/psim/internal/config"
	"github.com/san-kum/psim/internal/forces"
	"github.com/san-kum/psim/internal/sim"
)

// Snapshot is a deep copy of the particle state at one instant, enough to
// restart a run.
type Snapshot struct {
	Time      float64
	Step      int
	Particles []*sim.Particle
}

func (s *System) Snapshot() *Snapshot {
	ps := make([]*sim.Particle, s.state.N())
	for i, p := range s.state.Particles {
		c := *p
		c.Interactions = append([]int(nil), p.Interactions...)
		ps[i] = &c
	}
	return &Snapshot{Time: s.state.Time, Step: s.state.Step, Particles: ps}
}

// Restore builds a system from cfg and continues from snap. The particle
// count in snap wins over cfg.NParticles.
func Restore(cfg *config.Config, integ sim.Integrator, fm *forces.Manager, snap *Snapshot, opts ...Option) (*System, error) {
	if snap == nil || len(snap.Particles) == 0 {
		return nil, fmt.Errorf("system: empty snapshot: %w", sim.ErrInput)
	}
	c := cfg.Clone()
	c.NParticles = len(snap.Particles)

	s, err := New(c, integ, fm, opts...)
	if err != nil {
		return nil, err
	}

	for i, p := range snap.Particles {
		if p.ID != i {
			return nil, fmt.Errorf("system: snapshot particle %d has id %d: %w", i, p.ID, sim.ErrInput)
		}
		if !sim.InBox(p.Pos, s.state.Box) {
			return nil, &sim.ParticleError{ID: p.ID, Pos: p.Pos, Err: sim.ErrParticleBounds}
		}
	}

	s.state.Particles = snap.Particles
	s.state.Time = snap.Time
	s.state.Step = snap.Step
	if s.state.Step == 0 && snap.Time > 0 {
		s.state.Step = int(math.Round(snap.Time / c.Dt))
	}
	if err := s.grid.Rebuild(s.state.Particles); err != nil {
		return nil, err
	}
	s.initialized = true

	if q := c.QuenchTime; q > 0 && s.state.Time >= q {
		s.Quench()
	}

	s.logger.Info("system restored",
		zap.Int("particles", s.state.N()),
		zap.Float64("time", s.state.Time),
		zap.Int("step", s.state.Step),
	)
	return s, nil
}
