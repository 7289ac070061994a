package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/psim/internal/config"
	"github.com/san-kum/psim/internal/experiment"
	"github.com/san-kum/psim/internal/sim"
	"github.com/san-kum/psim/internal/storage"
	"github.com/san-kum/psim/internal/system"
	"github.com/san-kum/psim/internal/telemetry"
	"github.com/san-kum/psim/internal/tui"
)

type runOptions struct {
	configFile string
	preset     string
	name       string

	dt            float64
	endTime       float64
	seed          int64
	kT            float64
	particles     int
	concentration float64
	scale         int
	threads       int
	gamma         float64
	velFreq       int
	integrator    string
	quenchTime    float64
	outputFreq    int
	params        map[string]string

	live        bool
	theme       string
	metricsAddr string
	compress    bool
}

// outputFlags are shared by run and resume.
func (o *runOptions) outputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.live, "live", false, "show a live terminal view")
	cmd.Flags().StringVar(&o.theme, "theme", "cyberpunk", "live view theme")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
	cmd.Flags().BoolVar(&o.compress, "compress", false, "zstd compress movie frames")
}

func newRunCmd() *cobra.Command {
	return (&runOptions{}).runCmd()
}

func (o *runOptions) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [force]",
		Short: "run a new trial",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force := ""
			if len(args) > 0 {
				force = args[0]
			}
			cfg, err := o.config(cmd, force)
			if err != nil {
				return err
			}

			st := storage.New(dataDir)
			trial, err := st.Create(cfg, o.name)
			if err != nil {
				return err
			}
			logger.Info("trial created", zap.String("trial", trial.ID), zap.String("dir", trial.Dir))
			return o.execute(cmd.Context(), cfg, trial, nil)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.configFile, "config", "", "config file path (yaml)")
	f.StringVar(&o.preset, "preset", "", "start from a preset of the force")
	f.StringVar(&o.name, "name", "", "trial name (default <force>_<unix time>)")
	f.Float64Var(&o.dt, "dt", config.DefaultDt, "timestep")
	f.Float64Var(&o.endTime, "end-time", config.DefaultEndTime, "simulated end time")
	f.Int64Var(&o.seed, "seed", config.DefaultSeed, "random seed, 0 for time based")
	f.Float64Var(&o.kT, "kt", config.DefaultKT, "thermal energy")
	f.IntVar(&o.particles, "particles", config.DefaultParticles, "number of particles")
	f.Float64Var(&o.concentration, "concentration", config.DefaultConcentration, "volume fraction")
	f.IntVar(&o.scale, "scale", config.DefaultScale, "cells per box edge")
	f.IntVar(&o.threads, "threads", config.DefaultThreads, "worker goroutines, 0 for all CPUs")
	f.Float64Var(&o.gamma, "gamma", config.DefaultGamma, "friction coefficient")
	f.IntVar(&o.velFreq, "vel-freq", config.DefaultVelFreq, "steps between velocity estimates")
	f.StringVar(&o.integrator, "integrator", config.DefaultIntegrator, "integrator (brownian, verlet, euler)")
	f.Float64Var(&o.quenchTime, "quench-time", 0, "switch forces to their quenched parameters at this time")
	f.IntVar(&o.outputFreq, "output-freq", 0, "steps between outputs (default 1/dt)")
	f.StringToStringVarP(&o.params, "param", "p", nil, "force parameter, e.g. -p wellDepth=2")
	o.outputFlags(cmd)
	return cmd
}

// config layers defaults, then preset, then config file, then the flags
// that were set explicitly.
func (o *runOptions) config(cmd *cobra.Command, force string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.preset != "" {
		pf := force
		if pf == "" {
			pf = config.DefaultForce
		}
		cfg = config.GetPreset(pf, o.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q for %s (available: %v): %w", o.preset, pf, config.ListPresets(pf), sim.ErrInput)
		}
	}
	if o.configFile != "" {
		c, err := config.Load(o.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}
	if force != "" {
		cfg.Force = force
	}

	f := cmd.Flags()
	if f.Changed("dt") {
		cfg.Dt = o.dt
	}
	if f.Changed("end-time") {
		cfg.EndTime = o.endTime
	}
	if f.Changed("seed") {
		cfg.Seed = o.seed
	}
	if f.Changed("kt") {
		cfg.KT = o.kT
	}
	if f.Changed("particles") {
		cfg.NParticles = o.particles
	}
	if f.Changed("concentration") {
		cfg.Concentration = o.concentration
	}
	if f.Changed("scale") {
		cfg.Scale = o.scale
	}
	if f.Changed("threads") {
		cfg.Threads = o.threads
	}
	if f.Changed("gamma") {
		cfg.Gamma = o.gamma
	}
	if f.Changed("vel-freq") {
		cfg.VelFreq = o.velFreq
	}
	if f.Changed("integrator") {
		cfg.Integrator = o.integrator
	}
	if f.Changed("quench-time") {
		cfg.QuenchTime = o.quenchTime
	}
	if f.Changed("output-freq") {
		cfg.OutputEvery = o.outputFreq
	}
	if f.Changed("compress") {
		cfg.Compress = o.compress
	}
	if cfg.Params == nil {
		cfg.Params = map[string]float64{}
	}
	for k, v := range o.params {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("param %s=%q: %w", k, v, sim.ErrInput)
		}
		cfg.Params[k] = x
	}
	return cfg, cfg.Validate()
}

// execute runs cfg into trial, continuing from snap when it is non-nil.
func (o *runOptions) execute(parent context.Context, cfg *config.Config, trial *storage.Trial, snap *system.Snapshot) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// the live view owns the terminal
	lg := logger
	if o.live {
		lg = zap.NewNop()
	}

	setup := []experiment.SetupOption{
		experiment.WithLogger(lg),
		experiment.WithRecording(trial, storage.WithCompression(cfg.Compress), storage.WithLogger(lg)),
	}
	if snap != nil {
		setup = append(setup, experiment.WithSnapshot(snap))
	}
	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry(), setup...); err != nil {
		return err
	}

	if o.metricsAddr != "" {
		col := telemetry.NewCollector(trial.ID, exp.Tracker())
		col.StartAt(exp.System().State().Step)
		exp.System().AddObserver(col)

		mux := http.NewServeMux()
		mux.Handle("/metrics", col.Handler())
		srv := &http.Server{Addr: o.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("serving metrics", zap.String("addr", o.metricsAddr))
	}

	var (
		res *experiment.Result
		err error
	)
	if o.live {
		feed := tui.NewFeed(exp.Tracker())
		exp.System().AddObserver(feed)

		done := make(chan error, 1)
		go func() {
			r, runErr := exp.Run(ctx)
			res = r
			feed.Finish(runErr)
			done <- runErr
		}()
		uiErr := tui.Run(cfg.Force+" / "+trial.ID, feed, cancel, tui.GetTheme(o.theme))
		err = <-done
		if err == nil && uiErr != nil && !errors.Is(uiErr, context.Canceled) {
			err = uiErr
		}
	} else {
		res, err = exp.Run(ctx)
	}

	if res != nil {
		printResult(trial, res)
	}
	if errors.Is(err, context.Canceled) {
		fmt.Printf("stopped; resume with: psim resume %s\n", trial.ID)
		return nil
	}
	return err
}

func printResult(trial *storage.Trial, res *experiment.Result) {
	fmt.Printf("trial: %s\n", trial.ID)
	fmt.Printf("steps: %d  time: %g  wall: %v\n", res.Steps, res.FinalTime, res.Duration.Round(time.Millisecond))

	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nMETRIC\tVALUE")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.6g\n", name, res.Metrics[name])
	}
	w.Flush()
}

func newResumeCmd() *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "resume [trial] [time]",
		Short: "continue a trial from a snapshot, discarding later output",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			trial, err := st.Open(args[0])
			if err != nil {
				return err
			}
			cfg, err := trial.Config()
			if err != nil {
				return err
			}

			var at float64
			if len(args) > 1 {
				at, err = strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("time %q: %w", args[1], sim.ErrInput)
				}
			} else if at, err = trial.Latest(); err != nil {
				return err
			}

			snap, err := trial.ReadRecovery(at)
			if err != nil {
				return err
			}
			if err := trial.Rewind(at); err != nil {
				return err
			}

			if cmd.Flags().Changed("end-time") {
				cfg.EndTime = o.endTime
				if err := trial.SaveConfig(cfg); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("compress") {
				cfg.Compress = o.compress
			}
			if cfg.EndTime <= snap.Time {
				return fmt.Errorf("snapshot at %g is past the end time %g, raise --end-time: %w", snap.Time, cfg.EndTime, sim.ErrInput)
			}

			logger.Info("resuming", zap.String("trial", trial.ID), zap.Float64("from", snap.Time), zap.Float64("to", cfg.EndTime))
			return o.execute(cmd.Context(), cfg, trial, snap)
		},
	}
	cmd.Flags().Float64Var(&o.endTime, "end-time", 0, "new end time")
	o.outputFlags(cmd)
	return cmd
}
