package experiment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/psim/internal/analysis"
	"github.com/san-kum/psim/internal/compute"
	"github.com/san-kum/psim/internal/config"
	"github.com/san-kum/psim/internal/forces"
	"github.com/san-kum/psim/internal/sim"
	"github.com/san-kum/psim/internal/storage"
	"github.com/san-kum/psim/internal/system"
)

// Result is what a finished run reports.
type Result struct {
	Metrics   map[string]float64
	Steps     int
	FinalTime float64
	Duration  time.Duration
}

// Experiment wires a config into a runnable system.
type Experiment struct {
	cfg      *config.Config
	system   *system.System
	tracker  *analysis.Tracker
	backend  compute.Backend
	logger   *zap.Logger
	snapshot *system.Snapshot
	obs      []sim.Observer

	trial    *storage.Trial
	recOpts  []storage.RecorderOption
	recorder *storage.Recorder
}

type SetupOption func(*Experiment)

func WithLogger(l *zap.Logger) SetupOption {
	return func(e *Experiment) { e.logger = l }
}

func WithObserver(o sim.Observer) SetupOption {
	return func(e *Experiment) { e.obs = append(e.obs, o) }
}

// WithSnapshot continues from snap instead of placing particles afresh.
func WithSnapshot(snap *system.Snapshot) SetupOption {
	return func(e *Experiment) { e.snapshot = snap }
}

// WithRecording writes snapshots, movie frames and the series into trial
// while the experiment runs.
func WithRecording(trial *storage.Trial, opts ...storage.RecorderOption) SetupOption {
	return func(e *Experiment) {
		e.trial = trial
		e.recOpts = opts
	}
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg, logger: zap.NewNop()}
}

func (e *Experiment) Setup(r *Registry, opts ...SetupOption) error {
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	e.backend = compute.AutoSelectBackend(e.cfg.Threads)

	pot, err := r.GetForce(e.cfg.Force, e.cfg.Params)
	if err != nil {
		return err
	}
	fm := forces.NewManager(
		forces.WithBackend(e.backend),
		forces.WithLogger(e.logger),
		forces.WithInteractionRange(e.cfg.InteractionRange),
	)
	fm.AddForce(pot)

	integ, err := r.GetIntegrator(e.cfg.Integrator, e.cfg, e.backend, e.logger)
	if err != nil {
		return err
	}

	e.tracker = analysis.NewTracker(e.backend.Workers())
	sysOpts := []system.Option{
		system.WithLogger(e.logger),
		system.WithMetric(e.tracker),
	}
	for _, m := range DefaultMetrics(e.cfg) {
		sysOpts = append(sysOpts, system.WithMetric(m))
	}
	for _, o := range e.obs {
		sysOpts = append(sysOpts, system.WithObserver(o))
	}
	if e.trial != nil {
		ropts := append([]storage.RecorderOption{storage.WithLogger(e.logger)}, e.recOpts...)
		e.recorder = storage.NewRecorder(e.trial, e.tracker, ropts...)
		sysOpts = append(sysOpts, system.WithObserver(e.recorder))
	}

	if e.snapshot != nil {
		e.system, err = system.Restore(e.cfg, integ, fm, e.snapshot, sysOpts...)
	} else {
		e.system, err = system.New(e.cfg, integ, fm, sysOpts...)
	}
	if err != nil {
		return err
	}

	e.logger.Info("experiment ready",
		zap.String("force", pot.Name()),
		zap.String("integrator", integ.Name()),
		zap.String("backend", e.backend.Name()),
		zap.Int("workers", e.backend.Workers()),
	)
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.system == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	if !e.system.Initialized() {
		if err := e.system.Init(ctx); err != nil {
			return nil, err
		}
	}
	if e.recorder != nil {
		if err := e.recorder.Start(e.system.State()); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	startStep := e.system.State().Step
	err := e.system.Run(ctx)

	st := e.system.State()
	res := &Result{
		Metrics:   make(map[string]float64),
		Steps:     st.Step - startStep,
		FinalTime: st.Time,
		Duration:  time.Since(start),
	}
	for _, m := range e.system.Metrics() {
		res.Metrics[m.Name()] = m.Value()
	}

	if e.recorder != nil {
		if ferr := e.recorder.Finish(st, res.Metrics, err); ferr != nil && err == nil {
			err = ferr
		}
	}
	return res, err
}

func (e *Experiment) System() *system.System { return e.system }

func (e *Experiment) Tracker() *analysis.Tracker { return e.tracker }

func (e *Experiment) Config() *config.Config { return e.cfg }

// Recorder is nil unless the experiment was set up WithRecording.
func (e *Experiment) Recorder() *storage.Recorder { return e.recorder }
