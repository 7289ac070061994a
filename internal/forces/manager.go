package forces

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/cell"
	"github.com/san-kum/psim/internal/compute"
	"github.com/san-kum/psim/internal/sim"
)

// Manager owns the configured potentials and evaluates the net force on
// every particle.
type Manager struct {
	forces           []Potential
	backend          compute.Backend
	interactionRange float64
	logger           *zap.Logger
}

type Option func(*Manager)

func WithBackend(b compute.Backend) Option {
	return func(m *Manager) { m.backend = b }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithInteractionRange records any pair closer than r as interacting, in
// addition to the pairs counted by the potentials themselves.
func WithInteractionRange(r float64) Option {
	return func(m *Manager) { m.interactionRange = r }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		backend: compute.NewSerialBackend(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) AddForce(p Potential) {
	m.forces = append(m.forces, p)
	m.logger.Info("force added", zap.String("force", p.Name()), zap.Float64("cutoff", p.Cutoff()))
}

func (m *Manager) Forces() []Potential { return m.forces }

func (m *Manager) SetBackend(b compute.Backend) { m.backend = b }

func (m *Manager) MaxCutoff() float64 {
	cut := 0.0
	for _, f := range m.forces {
		cut = math.Max(cut, f.Cutoff())
	}
	return math.Max(cut, m.interactionRange)
}

func (m *Manager) TimeDependent() bool {
	for _, f := range m.forces {
		if td, ok := f.(TimeDependent); ok && td.TimeDependent() {
			return true
		}
	}
	return false
}

// Quench forwards to every potential that supports it.
func (m *Manager) Quench() {
	for _, f := range m.forces {
		if q, ok := f.(Quencher); ok {
			q.Quench()
			m.logger.Info("force quenched", zap.String("force", f.Name()))
		}
	}
}

// Compute accumulates the force, pair energy and interaction list of every
// particle from its neighbors in g. Callers reset particles with NextIter
// first. Each goroutine writes only to the particles in its own chunk.
func (m *Manager) Compute(ctx context.Context, s *sim.State, g *cell.Grid) error {
	if len(m.forces) == 0 {
		return nil
	}
	cut := m.MaxCutoff()
	cut2 := cut * cut
	ps := s.Particles

	return m.backend.ForEach(ctx, len(ps), func(start, end int) error {
		for i := start; i < end; i++ {
			if err := m.accumulate(i, ps, s.Box, cut2, g); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *Manager) accumulate(i int, ps []*sim.Particle, box, cut2 float64, g *cell.Grid) error {
	p := ps[i]
	var err error

	g.ForEachNeighbor(i, func(j int) {
		if err != nil {
			return
		}
		q := ps[j]
		// separation from q to p, so positive forces push p away from q
		d := sim.Separation(q.Pos, p.Pos, box)
		r2 := r3.Norm2(d)
		if r2 >= cut2 {
			return
		}
		r := math.Sqrt(r2)
		contact := p.Radius + q.Radius

		var force, energy float64
		counted := m.interactionRange > 0 && r < m.interactionRange
		for _, f := range m.forces {
			if r >= f.Cutoff() {
				continue
			}
			pair, perr := f.Pair(r, contact)
			if perr != nil {
				err = pairError(perr, p.ID, q.ID, r)
				return
			}
			force += pair.Force
			energy += pair.Energy
			counted = counted || pair.Counted
		}

		p.AddForce(r3.Scale(force/r, d))
		p.Potential += 0.5 * energy
		if counted {
			p.AddInteraction(q.ID)
		}
	})
	return err
}

func pairError(err error, i, j int, r float64) error {
	if errors.Is(err, sim.ErrOverlap) {
		return &sim.OverlapError{I: i, J: j, R: r}
	}
	return fmt.Errorf("pair %d-%d at r=%.5f: %w", i, j, r, err)
}
