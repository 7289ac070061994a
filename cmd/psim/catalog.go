package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/psim/internal/automation"
	"github.com/san-kum/psim/internal/config"
	"github.com/san-kum/psim/internal/experiment"
	"github.com/san-kum/psim/internal/forces"
	"github.com/san-kum/psim/internal/storage"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [force]",
		Short: "list available presets, for one force or all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(config.Presets))
			if len(args) > 0 {
				names = append(names, args[0])
			} else {
				for name := range config.Presets {
					names = append(names, name)
				}
				sort.Strings(names)
			}

			for _, force := range names {
				presets := config.ListPresets(force)
				if len(presets) == 0 {
					fmt.Printf("no presets for force: %s\n", force)
					continue
				}
				fmt.Printf("presets for %s:\n", force)
				for _, p := range presets {
					cfg := config.GetPreset(force, p)
					fmt.Printf("  %-10s N=%d c=%g end=%g %s\n", p, cfg.NParticles, cfg.Concentration, cfg.EndTime, formatParams(cfg.Params))
				}
			}
			return nil
		},
	}
}

func formatParams(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, " ")
}

func newForcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forces",
		Short: "list forces with their default parameters, and the integrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FORCE\tCUTOFF\tPARAMS")
			for _, name := range reg.ListForces() {
				p, err := forces.New(name, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%g\t%s\n", name, p.Cutoff(), formatParams(p.GetParams()))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Println("\ncombine forces with +, e.g. psim run calibration+yukawa -p yukawa.kT=4")
			fmt.Printf("integrators: %s\n", strings.Join(reg.ListIntegrators(), ", "))
			return nil
		},
	}
}

func newBatchCmd() *cobra.Command {
	var compress bool
	cmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run every trial of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			logger.Info("scenario loaded", zap.String("name", sc.Name), zap.Int("trials", len(sc.Trials)))

			results, runErr := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(),
				automation.WithLogger(logger),
				automation.WithStore(storage.New(dataDir), compress),
			)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TRIAL\tID\tSTEPS\tWALL\tTEMP\tCLUSTERS\tMSD")
			for _, r := range results {
				m := r.Result.Metrics
				fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%.4f\t%g\t%.4g\n",
					r.Name, r.TrialID, r.Result.Steps, r.Result.Duration.Round(time.Millisecond),
					m["temperature"], m["clusters"], m["tracked_msd"])
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&compress, "compress", false, "zstd compress movie frames")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var (
		configFile string
		param      string
		from, to   float64
		steps      int
		endTime    float64
		record     bool
	)
	cmd := &cobra.Command{
		Use:   "sweep [force]",
		Short: "run one trial per value of a force parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := config.DefaultConfig()
			if configFile != "" {
				c, err := config.Load(configFile)
				if err != nil {
					return err
				}
				base = c
			}
			base.Force = args[0]
			if cmd.Flags().Changed("end-time") {
				base.EndTime = endTime
			}

			opts := []automation.Option{automation.WithLogger(logger)}
			if record {
				opts = append(opts, automation.WithStore(storage.New(dataDir), false))
			}
			sweep := &automation.ParameterSweep{
				Base:      base,
				ParamName: param,
				ParamMin:  from,
				ParamMax:  to,
				NumSteps:  steps,
			}
			results, runErr := automation.RunSweep(cmd.Context(), sweep, experiment.NewRegistry(), opts...)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tTEMP\tCLUSTERS\tCOORD\tMSD\tTRIAL\n", strings.ToUpper(param))
			for _, r := range results {
				fmt.Fprintf(w, "%g\t%.4f\t%g\t%.3f\t%.4g\t%s\n",
					r.ParamValue, r.Metrics["temperature"], r.Metrics["clusters"],
					r.Metrics["mean_coordination"], r.Metrics["tracked_msd"], r.TrialID)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "base config file (yaml)")
	cmd.Flags().StringVar(&param, "param", "", "force parameter to sweep")
	cmd.Flags().Float64Var(&from, "from", 0, "first value")
	cmd.Flags().Float64Var(&to, "to", 1, "last value")
	cmd.Flags().IntVar(&steps, "steps", 5, "number of values")
	cmd.Flags().Float64Var(&endTime, "end-time", config.DefaultEndTime, "simulated end time of each trial")
	cmd.Flags().BoolVar(&record, "record", false, "store every trial under --data")
	_ = cmd.MarkFlagRequired("param")
	return cmd
}
