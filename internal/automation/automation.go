package automation

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/psim/internal/config"
	"github.com/san-kum/psim/internal/experiment"
	"github.com/san-kum/psim/internal/sim"
	"github.com/san-kum/psim/internal/storage"
)

// Scenario is a batch of trials sharing a base config.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Base        Base    `yaml:"base"`
	Trials      []Trial `yaml:"trials"`
}

// Base selects the starting config for every trial: a config file, a
// preset of Force, or the defaults.
type Base struct {
	Config string `yaml:"config"`
	Force  string `yaml:"force"`
	Preset string `yaml:"preset"`
}

// Trial overrides the base config. Config holds any config fields and is
// decoded over the base; Params are merged into the force parameters.
type Trial struct {
	Name   string             `yaml:"name"`
	Config yaml.Node          `yaml:"config"`
	Params map[string]float64 `yaml:"params"`
}

// TrialResult pairs a trial with the config it ran and its outcome.
type TrialResult struct {
	Name    string
	TrialID string
	Config  *config.Config
	Result  *experiment.Result
}

type Option func(*runner)

type runner struct {
	logger   *zap.Logger
	store    *storage.Store
	compress bool
}

func WithLogger(l *zap.Logger) Option {
	return func(r *runner) { r.logger = l }
}

// WithStore records every trial into its own directory under s.
func WithStore(s *storage.Store, compress bool) Option {
	return func(r *runner) {
		r.store = s
		r.compress = compress
	}
}

func newRunner(opts []Option) *runner {
	r := &runner{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario: %v: %w", err, sim.ErrInput)
	}
	if len(scenario.Trials) == 0 {
		return nil, fmt.Errorf("scenario %q has no trials: %w", scenario.Name, sim.ErrInput)
	}
	return &scenario, nil
}

func (b Base) resolve() (*config.Config, error) {
	switch {
	case b.Config != "":
		return config.Load(b.Config)
	case b.Preset != "":
		force := b.Force
		if force == "" {
			force = config.DefaultForce
		}
		cfg := config.GetPreset(force, b.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %s/%s: %w", force, b.Preset, sim.ErrInput)
		}
		return cfg, nil
	default:
		cfg := config.DefaultConfig()
		if b.Force != "" {
			cfg.Force = b.Force
		}
		return cfg, nil
	}
}

// Resolve builds the config for trial i.
func (s *Scenario) Resolve(i int) (*config.Config, error) {
	if i < 0 || i >= len(s.Trials) {
		return nil, fmt.Errorf("trial %d out of range: %w", i, sim.ErrInput)
	}
	base, err := s.Base.resolve()
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()

	t := s.Trials[i]
	if !t.Config.IsZero() {
		if err := t.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("trial %d config: %v: %w", i+1, err, sim.ErrInput)
		}
	}
	if len(t.Params) > 0 {
		params := make(map[string]float64, len(cfg.Params)+len(t.Params))
		for k, v := range cfg.Params {
			params[k] = v
		}
		for k, v := range t.Params {
			params[k] = v
		}
		cfg.Params = params
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all trials in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, opts ...Option) ([]TrialResult, error) {
	r := newRunner(opts)
	results := make([]TrialResult, 0, len(scenario.Trials))

	for i, trial := range scenario.Trials {
		cfg, err := scenario.Resolve(i)
		if err != nil {
			return results, fmt.Errorf("trial %d: %w", i+1, err)
		}
		name := trial.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", scenario.Name, i+1)
		}
		r.logger.Info("trial started",
			zap.String("scenario", scenario.Name),
			zap.String("trial", name),
			zap.Int("index", i+1),
			zap.Int("of", len(scenario.Trials)),
		)

		tr, err := r.run(ctx, cfg, name, registry)
		if err != nil {
			return results, fmt.Errorf("trial %d (%s): %w", i+1, name, err)
		}
		results = append(results, *tr)
	}

	return results, nil
}

func (r *runner) run(ctx context.Context, cfg *config.Config, name string, registry *experiment.Registry) (*TrialResult, error) {
	setup := []experiment.SetupOption{experiment.WithLogger(r.logger)}
	out := &TrialResult{Name: name, Config: cfg}
	if r.store != nil {
		t, err := r.store.Create(cfg, name)
		if err != nil {
			return nil, err
		}
		out.TrialID = t.ID
		setup = append(setup, experiment.WithRecording(t, storage.WithCompression(r.compress)))
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(registry, setup...); err != nil {
		return nil, err
	}
	res, err := exp.Run(ctx)
	if err != nil {
		return nil, err
	}
	out.Result = res
	return out, nil
}

// ParameterSweep runs one trial per value of a single force parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds the final metric values at one parameter value.
type SweepResult struct {
	ParamValue float64
	TrialID    string
	Metrics    map[string]float64
}

// Values lists the swept parameter values, evenly spaced and inclusive.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps < 2 {
		return []float64{s.ParamMin}
	}
	step := (s.ParamMax - s.ParamMin) / float64(s.NumSteps-1)
	vals := make([]float64, s.NumSteps)
	for i := range vals {
		vals[i] = s.ParamMin + float64(i)*step
	}
	return vals
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, opts ...Option) ([]SweepResult, error) {
	if sweep.Base == nil || sweep.ParamName == "" {
		return nil, fmt.Errorf("sweep needs a base config and a parameter: %w", sim.ErrInput)
	}
	// reject unknown parameters before running anything
	if _, err := registry.GetForce(sweep.Base.Force, map[string]float64{sweep.ParamName: sweep.ParamMin}); err != nil {
		return nil, err
	}

	r := newRunner(opts)
	vals := sweep.Values()
	results := make([]SweepResult, 0, len(vals))

	for i, v := range vals {
		cfg := sweep.Base.Clone()
		params := make(map[string]float64, len(cfg.Params)+1)
		for k, pv := range cfg.Params {
			params[k] = pv
		}
		params[sweep.ParamName] = v
		cfg.Params = params

		name := fmt.Sprintf("%s_%s-%s", cfg.Force, sweep.ParamName, storage.FormatTime(v))
		tr, err := r.run(ctx, cfg, name, registry)
		if err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", sweep.ParamName, v, err)
		}
		results = append(results, SweepResult{
			ParamValue: v,
			TrialID:    tr.TrialID,
			Metrics:    tr.Result.Metrics,
		})

		r.logger.Info("sweep point done",
			zap.Int("index", i+1),
			zap.Int("of", len(vals)),
			zap.String("param", sweep.ParamName),
			zap.Float64("value", v),
		)
	}

	return results, nil
}
