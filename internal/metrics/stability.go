package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/sim"
)

// Stability is the fraction of steps in which no particle moved further
// than threshold. A value well below one means dt is too large.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(st *sim.State) {
	s.samples++
	limit := s.threshold * s.threshold
	for _, p := range st.Particles {
		d := r3.Norm2(p.Displacement())
		if d > limit || math.IsNaN(d) {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
