package experiment

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/san-kum/psim/internal/analysis"
	"github.com/san-kum/psim/internal/compute"
	"github.com/san-kum/psim/internal/config"
	"github.com/san-kum/psim/internal/forces"
	"github.com/san-kum/psim/internal/integrators"
	"github.com/san-kum/psim/internal/metrics"
	"github.com/san-kum/psim/internal/sim"
)

// stabilityThreshold flags steps that move a particle more than a tenth of
// a diameter.
const stabilityThreshold = 0.1

type integratorFactory func(cfg *config.Config, backend compute.Backend, logger *zap.Logger) sim.Integrator

type Registry struct {
	integrators map[string]integratorFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]integratorFactory),
	}

	r.integrators["brownian"] = func(cfg *config.Config, b compute.Backend, l *zap.Logger) sim.Integrator {
		return integrators.NewBrownian(cfg.Gamma, cfg.KT, cfg.VelFreq, cfg.Seed,
			integrators.WithBackend(b), integrators.WithLogger(l))
	}
	r.integrators["verlet"] = func(_ *config.Config, b compute.Backend, _ *zap.Logger) sim.Integrator {
		return integrators.NewVerlet(b)
	}
	r.integrators["euler"] = func(_ *config.Config, b compute.Backend, _ *zap.Logger) sim.Integrator {
		return integrators.NewEuler(b)
	}

	return r
}

// GetForce builds a potential by name. "a+b" names a composite.
func (r *Registry) GetForce(name string, params map[string]float64) (forces.Potential, error) {
	return forces.New(name, params)
}

func (r *Registry) GetIntegrator(name string, cfg *config.Config, backend compute.Backend, logger *zap.Logger) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s: %w", name, sim.ErrInput)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return fn(cfg, backend, logger), nil
}

func (r *Registry) ListForces() []string {
	return forces.Names()
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns the per-step metrics for a run of cfg. Energy drift
// only means something for the deterministic integrators.
func DefaultMetrics(cfg *config.Config) []sim.Metric {
	ms := []sim.Metric{
		metrics.NewTemperature(),
		metrics.NewMeanDisplacement(),
		metrics.NewCoordination(),
		metrics.NewClusterCount(analysis.DefaultMinClusterSize),
		metrics.NewPotentialEnergy(),
		metrics.NewStability(stabilityThreshold),
	}
	if cfg.Integrator != "brownian" {
		ms = append(ms, metrics.NewEnergyDrift())
	}
	return ms
}
