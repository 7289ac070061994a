package integrators

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/compute"
	"github.com/san-kum/psim/internal/sim"
)

// lowFriction is the friction below which the series forms of the
// coefficients replace the closed forms.
const lowFriction = 0.05

// Brownian is the stochastic position-Verlet scheme of van Gunsteren and
// Berendsen (1981). Positions are advanced from the current and previous
// positions plus a correlated Gaussian displacement; velocities are only
// reconstructed every VelFreq steps.
type Brownian struct {
	Gamma   float64
	KT      float64
	VelFreq int
	Seed    int64

	backend compute.Backend
	logger  *zap.Logger

	dt    float64
	coeff brownianCoeffs

	mem        []r3.Vec
	memCorr    []r3.Vec
	rngs       []*rand.Rand
	velCounter int
}

// brownianCoeffs holds the integration constants for a given gamma and dt.
type brownianCoeffs struct {
	y                  float64
	c0, c1, c2, c3     float64
	goy2, goy3, hn, gn float64
	sig1, sig2         float64
	corr, dev          float64
}

type BrownianOption func(*Brownian)

func WithBackend(b compute.Backend) BrownianOption {
	return func(br *Brownian) { br.backend = b }
}

func WithLogger(l *zap.Logger) BrownianOption {
	return func(br *Brownian) { br.logger = l }
}

func NewBrownian(gamma, kT float64, velFreq int, seed int64, opts ...BrownianOption) *Brownian {
	b := &Brownian{
		Gamma:   gamma,
		KT:      kT,
		VelFreq: velFreq,
		Seed:    seed,
		backend: compute.NewSerialBackend(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Brownian) Name() string { return "brownian" }

// Coefficients returns the integration constants for the last time step
// used, for diagnostics.
func (b *Brownian) Coefficients() map[string]float64 {
	c := b.coeff
	return map[string]float64{
		"y": c.y, "c0": c.c0, "c1": c.c1, "c2": c.c2, "c3": c.c3,
		"goy2": c.goy2, "goy3": c.goy3, "hn": c.hn,
		"sig1": c.sig1, "sig2": c.sig2, "corr": c.corr, "dev": c.dev,
	}
}

func computeCoeffs(gamma, kT, dt float64) brownianCoeffs {
	y := gamma * dt
	c := brownianCoeffs{y: y}

	var s1, s2 float64
	if y > 0 {
		ty := 2.0 * y
		c.c0 = math.Exp(-y)
		aa1 := 1.0 - c.c0
		aa2 := 0.5*y*(1.0+c.c0) - aa1
		aa3 := y - aa1
		c.c1 = aa1 / y
		c.c2 = aa2 / (y * y)
		c.c3 = aa3 / (y * y)
		s1 = 2.0*y - 3.0 + 4.0*math.Exp(-y) - math.Exp(-ty)
		s2 = -2.0*y - 3.0 + 4.0*math.Exp(y) - math.Exp(ty)
		c.gn = math.Exp(y) - ty - math.Exp(-y)
		c.goy2 = c.gn / (y * y)
		c.goy3 = c.gn / (y * y * y)
		c.hn = y / (math.Exp(y) - math.Exp(-y))
	}

	if gamma < lowFriction {
		y2 := y * y
		y3 := y2 * y
		y4 := y3 * y
		y5 := y4 * y
		y6 := y5 * y
		y7 := y6 * y
		y8 := y7 * y
		y9 := y8 * y
		c.c1 = 1.0 - 0.5*y + y2/6.0 - y3/24.0 + y4/120.0
		c.c2 = y/12.0 - y2/24.0 + y3/80.0 - y4/360.0
		c.c3 = 0.5 - y/6.0 + y2/24.0 - y3/120.0
		s1 = (2.0/3.0)*y3 - 0.5*y4 + (7.0/30.0)*y5 - y6/12.0 + (31.0/1260.0)*y7 - y8/160.0 + (127.0/90720.0)*y9
		s2 = -(2.0/3.0)*y3 - 0.5*y4 - (7.0/30.0)*y5 - y6/12.0 - (31.0/1260.0)*y7 - y8/160.0 - (127.0/90720.0)*y9
		c.goy2 = y/3.0 + y3/60.0
		c.goy3 = 1.0/3.0 + y2/60.0
		c.hn = 0.5 - y2/12.0 + (7.0/720.0)*y4
		c.gn = y3/3.0 + y5/60.0
	}

	if gamma == 0 {
		// frictionless limit: plain position Verlet with no noise
		c.c0, c.c1, c.c2, c.c3 = 1.0, 1.0, 0.0, 0.5
		c.dev = 1.0
		return c
	}

	g2 := gamma * gamma
	c.sig1 = math.Sqrt(kT * s1 / g2)
	c.sig2 = math.Sqrt(-kT * s2 / g2)
	if c.sig1 > 0 && c.sig2 > 0 {
		c.corr = (kT / g2) * (c.gn / (c.sig1 * c.sig2))
	}
	c.dev = math.Sqrt(1.0 - c.corr*c.corr)
	return c
}

func (b *Brownian) prepare(s *sim.State) error {
	if b.Gamma < 0 || b.KT < 0 {
		return fmt.Errorf("brownian: gamma %g and kT %g must be non-negative: %w", b.Gamma, b.KT, sim.ErrInput)
	}
	if s.Dt != b.dt {
		b.dt = s.Dt
		b.coeff = computeCoeffs(b.Gamma, b.KT, s.Dt)
		b.logger.Debug("brownian coefficients",
			zap.Float64("y", b.coeff.y),
			zap.Float64("sig1", b.coeff.sig1),
			zap.Float64("sig2", b.coeff.sig2),
			zap.Float64("corr", b.coeff.corr),
			zap.Float64("dev", b.coeff.dev),
			zap.Float64("c0", b.coeff.c0),
			zap.Float64("c1", b.coeff.c1),
			zap.Float64("c2", b.coeff.c2),
			zap.Float64("c3", b.coeff.c3),
		)
	}

	// seed 0 takes the seed the system resolved at Init, or the clock
	if b.Seed == 0 {
		if s.Seed == 0 {
			s.Seed = time.Now().UnixNano()
		}
		b.Seed = s.Seed
	}

	n := s.N()
	if len(b.rngs) != n {
		b.mem = make([]r3.Vec, n)
		b.memCorr = make([]r3.Vec, n)
		b.rngs = make([]*rand.Rand, n)
		for i := range b.rngs {
			b.rngs[i] = rand.New(rand.NewSource(uint64(b.Seed) * uint64(i+1)))
		}
	}
	return nil
}

func gauss(r *rand.Rand) r3.Vec {
	return r3.Vec{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()}
}

func (b *Brownian) Step(ctx context.Context, s *sim.State) error {
	if err := b.prepare(s); err != nil {
		return err
	}

	first := s.Step == 0
	withVel := b.VelFreq == 0 || b.velCounter == b.VelFreq

	err := b.backend.ForEach(ctx, s.N(), func(start, end int) error {
		for i := start; i < end; i++ {
			var err error
			if first {
				err = b.firstStep(i, s)
			} else {
				err = b.normalStep(i, s, withVel)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !first {
		if b.velCounter == b.VelFreq {
			b.velCounter = 0
		} else {
			b.velCounter++
		}
	}
	return nil
}

func (b *Brownian) firstStep(i int, s *sim.State) error {
	p := s.Particles[i]
	c := b.coeff
	dt := s.Dt
	b.memCorr[i] = r3.Vec{}
	b.mem[i] = gauss(b.rngs[i])

	next := r3.Add(p.Pos, r3.Scale(c.c1*dt, p.Vel))
	next = r3.Add(next, r3.Scale(c.c3*dt*dt/p.Mass, p.Force))
	next = r3.Add(next, r3.Scale(c.sig1, b.mem[i]))
	return p.SetPos(next, s.Box)
}

func (b *Brownian) normalStep(i int, s *sim.State, withVel bool) error {
	p := s.Particles[i]
	c := b.coeff
	dt := s.Dt
	dt2 := dt * dt
	invM := 1.0 / p.Mass

	b.memCorr[i] = r3.Scale(c.sig2, r3.Add(r3.Scale(c.corr, b.mem[i]), r3.Scale(c.dev, gauss(b.rngs[i]))))
	b.mem[i] = gauss(b.rngs[i])

	df := r3.Sub(p.Force, p.PrevForce)

	next := r3.Sub(r3.Scale(1.0+c.c0, p.Pos), r3.Scale(c.c0, p.Prev))
	next = r3.Add(next, r3.Scale(invM*dt2*c.c1, p.Force))
	next = r3.Add(next, r3.Scale(invM*dt2*c.c2, df))
	next = r3.Add(next, r3.Scale(c.sig1, b.mem[i]))
	next = r3.Add(next, r3.Scale(c.c0, b.memCorr[i]))

	if withVel {
		dx := r3.Sub(next, p.Pos)
		dx0 := p.Displacement()
		g2 := invM * dt2 * c.goy2
		g3 := invM * dt2 * dt * c.goy3

		v := r3.Add(dx, dx0)
		v = r3.Add(v, r3.Scale(g2, p.Force))
		v = r3.Sub(v, r3.Scale(g3, df))
		v = r3.Add(v, r3.Sub(b.memCorr[i], r3.Scale(c.sig1, b.mem[i])))
		p.Vel = r3.Scale(c.hn/dt, v)
	}

	return p.SetPos(next, s.Box)
}
