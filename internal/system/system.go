package system

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/psim/internal/cell"
	"github.com/san-kum/psim/internal/compute"
	"github.com/san-kum/psim/internal/config"
	"github.com/san-kum/psim/internal/forces"
	"github.com/san-kum/psim/internal/sim"
)

// placementSpacing is the minimum centre distance at initial placement, as a
// multiple of the contact distance.
const placementSpacing = 1.1

// System owns the particles, the cell grid, the force manager and the
// integrator, and drives them through the run loop.
type System struct {
	cfg    *config.Config
	state  *sim.State
	grid   *cell.Grid
	integ  sim.Integrator
	forces *forces.Manager

	logger    *zap.Logger
	observers []sim.Observer
	metrics   []sim.Metric
	timer     *sim.Timer

	initialized bool
	quenched    bool
}

type Option func(*System)

func WithLogger(l *zap.Logger) Option {
	return func(s *System) { s.logger = l }
}

// WithBackend sets the backend used for force evaluation.
func WithBackend(b compute.Backend) Option {
	return func(s *System) { s.forces.SetBackend(b) }
}

func WithObserver(o sim.Observer) Option {
	return func(s *System) { s.observers = append(s.observers, o) }
}

func WithMetric(m sim.Metric) Option {
	return func(s *System) { s.metrics = append(s.metrics, m) }
}

// Geometry is the box derived from the particle count, radius and target
// concentration.
type Geometry struct {
	Box           float64
	CellSize      float64
	Concentration float64
}

// Size computes the box so that it holds cfg.Scale whole cells of integer
// edge per axis. The resulting concentration differs slightly from the
// requested one.
func Size(cfg *config.Config) Geometry {
	vP := float64(cfg.NParticles) * 4.0 / 3.0 * math.Pi * math.Pow(cfg.Radius, 3)
	box := math.Floor(math.Cbrt(vP / cfg.Concentration))
	cellSize := math.Floor(box / float64(cfg.Scale))
	box = cellSize * float64(cfg.Scale)

	g := Geometry{Box: box, CellSize: cellSize}
	if box > 0 {
		g.Concentration = vP / (box * box * box)
	}
	return g
}

func New(cfg *config.Config, integ sim.Integrator, fm *forces.Manager, opts ...Option) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if integ == nil || fm == nil {
		return nil, fmt.Errorf("system: integrator and force manager are required: %w", sim.ErrInput)
	}

	geo := Size(cfg)
	if geo.CellSize < 1 {
		return nil, fmt.Errorf("system: cell size %.0f < 1, lower the scale or concentration: %w", geo.CellSize, sim.ErrInput)
	}
	if cut := fm.MaxCutoff(); geo.CellSize < cut {
		return nil, fmt.Errorf("system: cell size %.0f below interaction cutoff %.3f: %w", geo.CellSize, cut, sim.ErrInput)
	}

	grid, err := cell.New(geo.Box, cfg.Scale)
	if err != nil {
		return nil, err
	}

	s := &System{
		cfg:    cfg,
		grid:   grid,
		integ:  integ,
		forces: fm,
		logger: zap.NewNop(),
		timer:  sim.NewTimer(),
		state: &sim.State{
			Box:           geo.Box,
			CellSize:      geo.CellSize,
			CellScale:     cfg.Scale,
			Concentration: geo.Concentration,
			Temp:          cfg.KT,
			Dt:            cfg.Dt,
			EndTime:       cfg.EndTime,
			OutputFreq:    cfg.OutputFreq(),
			Seed:          cfg.Seed,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *System) State() *sim.State          { return s.state }
func (s *System) Grid() *cell.Grid           { return s.grid }
func (s *System) Config() *config.Config     { return s.cfg }
func (s *System) Forces() *forces.Manager    { return s.forces }
func (s *System) Integrator() sim.Integrator { return s.integ }
func (s *System) Metrics() []sim.Metric      { return s.metrics }

func (s *System) AddObserver(o sim.Observer) { s.observers = append(s.observers, o) }
func (s *System) AddMetric(m sim.Metric)     { s.metrics = append(s.metrics, m) }

// Init places the particles at random without overlap, draws velocities
// from a Maxwell distribution at kT and builds the cell grid.
func (s *System) Init(ctx context.Context) error {
	if s.state.Seed == 0 {
		s.state.Seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(uint64(s.state.Seed)))

	if err := s.place(ctx, rng); err != nil {
		return err
	}
	s.maxwell(rng)

	if err := s.grid.Rebuild(s.state.Particles); err != nil {
		return err
	}
	s.initialized = true

	s.logger.Info("system initialized",
		zap.Int("particles", s.state.N()),
		zap.Float64("box", s.state.Box),
		zap.Float64("cellSize", s.state.CellSize),
		zap.Float64("concentration", s.state.Concentration),
		zap.Int64("seed", s.state.Seed),
	)
	return nil
}

func (s *System) place(ctx context.Context, rng *rand.Rand) error {
	n := s.cfg.NParticles
	box := s.state.Box
	maxFailures := 10 * n
	failures := 0

	ps := make([]*sim.Particle, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := sim.NewParticle(i, r3.Vec{}, s.cfg.Radius, s.cfg.Mass)
		for {
			pos := r3.Vec{X: rng.Float64() * box, Y: rng.Float64() * box, Z: rng.Float64() * box}
			if free(pos, p.Radius, ps, box) {
				if err := p.Place(pos, box); err != nil {
					return err
				}
				break
			}
			failures++
			if failures > maxFailures {
				return fmt.Errorf("placed %d of %d particles after %d rejections: %w", i, n, failures, sim.ErrInitialization)
			}
		}
		ps = append(ps, p)
	}

	s.state.Particles = ps
	if failures > 0 {
		s.logger.Debug("placement rejections", zap.Int("failures", failures))
	}
	return nil
}

func free(pos r3.Vec, radius float64, ps []*sim.Particle, box float64) bool {
	for _, q := range ps {
		d := placementSpacing * (radius + q.Radius)
		if sim.Dist2(pos, q.Pos, box) < d*d {
			return false
		}
	}
	return true
}

// maxwell draws zero-mean velocities with standard deviation sqrt(kT/m) on
// each axis.
func (s *System) maxwell(rng *rand.Rand) {
	ps := s.state.Particles
	kT := s.cfg.KT
	sigma := math.Sqrt(kT / s.cfg.Mass)

	if len(ps) == 1 {
		sign := func() float64 {
			if rng.Float64() < 0.5 {
				return -1
			}
			return 1
		}
		ps[0].Vel = r3.Vec{X: sign() * sigma, Y: sign() * sigma, Z: sign() * sigma}
		return
	}

	axes := [3][]float64{}
	for a := range axes {
		axes[a] = make([]float64, len(ps))
		for i := range ps {
			axes[a][i] = rng.NormFloat64()
		}
		mean, std := stat.MeanStdDev(axes[a], nil)
		scale := 0.0
		if std > 0 {
			scale = sigma / std
		}
		for i := range axes[a] {
			axes[a][i] = (axes[a][i] - mean) * scale
		}
	}
	for i, p := range ps {
		p.Vel = r3.Vec{X: axes[0][i], Y: axes[1][i], Z: axes[2][i]}
	}
}

// Run steps the system until EndTime or until ctx is cancelled. Observers
// see the state every OutputFreq steps and once more at the end.
func (s *System) Run(ctx context.Context) error {
	if !s.initialized {
		if err := s.Init(ctx); err != nil {
			return err
		}
	}

	st := s.state
	total := st.TotalSteps()
	every := st.OutputFreq
	if every < 1 {
		every = 1
	}

	s.timer.Reset()
	s.logger.Info("run started",
		zap.String("integrator", s.integ.Name()),
		zap.Int("steps", total),
		zap.Float64("dt", st.Dt),
		zap.Float64("endTime", st.EndTime),
	)

	done := 0
	observed := false
	for !st.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(ctx); err != nil {
			return err
		}
		done++
		observed = false

		if st.Step%every == 0 {
			if err := s.notify(); err != nil {
				return err
			}
			observed = true
			s.logger.Info("progress",
				zap.String("bar", sim.Progress(done, total, 30)),
				zap.Float64("time", st.Time),
				zap.Duration("eta", s.timer.Remaining(done, total)),
				zap.Duration("perStep", s.timer.Average()),
			)
		}
	}

	if !observed {
		if err := s.notify(); err != nil {
			return err
		}
	}
	s.logger.Info("run finished",
		zap.Int("steps", done),
		zap.Duration("elapsed", s.timer.Elapsed()),
	)
	return nil
}

func (s *System) notify() error {
	for _, o := range s.observers {
		if err := o.Observe(s.state); err != nil {
			return s.wrap(err)
		}
	}
	return nil
}

// Step performs one iteration: forces, integration, grid rebuild, clock.
func (s *System) Step(ctx context.Context) error {
	st := s.state
	for _, p := range st.Particles {
		p.NextIter()
	}

	if err := s.forces.Compute(ctx, st, s.grid); err != nil {
		return s.wrap(err)
	}
	if err := s.integ.Step(ctx, st); err != nil {
		return s.wrap(err)
	}
	if err := s.grid.Rebuild(st.Particles); err != nil {
		return s.wrap(err)
	}

	st.Time += st.Dt
	st.Step++
	s.timer.Lap()

	if q := s.cfg.QuenchTime; q > 0 && !s.quenched && st.Time >= q {
		s.Quench()
	}

	for _, m := range s.metrics {
		m.Observe(st)
	}
	return nil
}

func (s *System) wrap(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &sim.SimulationError{Step: s.state.Step, Time: s.state.Time, Wrapped: err}
}

// Quench switches the forces to their quenched parameters.
func (s *System) Quench() {
	s.forces.Quench()
	s.quenched = true
	s.logger.Info("quenched", zap.Float64("time", s.state.Time))
}

func (s *System) Quenched() bool { return s.quenched }

// Initialized reports whether the particles have been placed or restored.
func (s *System) Initialized() bool { return s.initialized }
