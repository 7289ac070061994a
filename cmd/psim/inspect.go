package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/psim/internal/analysis"
	"github.com/san-kum/psim/internal/export"
	"github.com/san-kum/psim/internal/sim"
	"github.com/san-kum/psim/internal/storage"
	"github.com/san-kum/psim/internal/system"
)

// defaultBondRange rebuilds bonds for snapshots at 1.1 contact distances,
// the usual cutoff of the attractive potentials.
const defaultBondRange = 1.1

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list trials",
		RunE: func(cmd *cobra.Command, args []string) error {
			trials, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(trials) == 0 {
				fmt.Println("no trials found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFORCE\tINTEG\tCREATED\tSTATUS\tN\tTIME\tEND")
			for _, m := range trials {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%g\t%g\n",
					m.ID,
					m.Force,
					m.Integrator,
					m.Created.Format("2006-01-02 15:04:05"),
					m.Status,
					m.Particles,
					m.LastTime,
					m.EndTime,
				)
			}
			return w.Flush()
		},
	}
}

// snapshotAt loads the snapshot at the time given in args[i], or the
// latest one.
func snapshotAt(trial *storage.Trial, args []string, i int) (*system.Snapshot, error) {
	if len(args) > i {
		at, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return nil, fmt.Errorf("time %q: %w", args[i], sim.ErrInput)
		}
		return trial.ReadRecovery(at)
	}
	at, err := trial.Latest()
	if err != nil {
		return nil, err
	}
	return trial.ReadRecovery(at)
}

func newPlotCmd() *cobra.Command {
	var (
		columns []string
		png     string
	)
	cmd := &cobra.Command{
		Use:   "plot [trial]",
		Short: "plot the time series of a trial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trial, err := storage.New(dataDir).Open(args[0])
			if err != nil {
				return err
			}
			series, err := trial.LoadSeries()
			if err != nil {
				return err
			}
			if len(series) == 0 {
				return fmt.Errorf("no data to plot")
			}

			if png != "" {
				if err := os.MkdirAll(png, 0755); err != nil {
					return err
				}
				for _, col := range columns {
					path := filepath.Join(png, col+".png")
					if err := analysis.PlotSeries(series, col, path); err != nil {
						return err
					}
					fmt.Printf("wrote %s\n", path)
				}
				return nil
			}

			fmt.Printf("trial: %s\n", trial.ID)
			fmt.Printf("samples: %d  t=%g..%g\n\n", len(series), series[0].Time, series[len(series)-1].Time)
			for _, col := range columns {
				data := analysis.Column(series, col)
				if data == nil {
					return fmt.Errorf("unknown column %q (available: %v): %w", col, analysis.ColumnNames()[1:], sim.ErrInput)
				}
				if len(data) < 2 {
					fmt.Printf("%s: %g\n\n", col, data[0])
					continue
				}
				fmt.Println(asciigraph.Plot(data,
					asciigraph.Height(10),
					asciigraph.Width(60),
					asciigraph.Caption(col+" vs time"),
				))
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&columns, "column", []string{"temperature", "tracked_msd", "clusters"}, "series columns to plot")
	cmd.Flags().StringVar(&png, "png", "", "write PNG plots into this directory instead")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		format string
		out    string
		axis   string
		size   int
		column string
	)
	cmd := &cobra.Command{
		Use:   "export [trial] [time]",
		Short: "export a trial as JSON, a snapshot as SVG or a series column as SVG",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			trial, err := storage.New(dataDir).Open(args[0])
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "json":
				return trial.ExportJSON(w)
			case "svg":
				meta, err := trial.Metadata()
				if err != nil {
					return err
				}
				snap, err := snapshotAt(trial, args, 1)
				if err != nil {
					return err
				}
				if err := analysis.Rebond(snap.Particles, meta.Box, defaultBondRange); err != nil {
					return err
				}
				svg, err := export.SnapshotSVG(snap.Particles, meta.Box, axis, size)
				if err != nil {
					return err
				}
				_, err = io.WriteString(w, svg)
				return err
			case "series":
				series, err := trial.LoadSeries()
				if err != nil {
					return err
				}
				ys := analysis.Column(series, column)
				if ys == nil {
					return fmt.Errorf("unknown column %q: %w", column, sim.ErrInput)
				}
				svg := export.SeriesSVG(analysis.Column(series, "time"), ys, size, size/2, "#00ff88")
				if svg == "" {
					return fmt.Errorf("need at least two samples to draw %s", column)
				}
				_, err = io.WriteString(w, svg)
				return err
			}
			return fmt.Errorf("unknown format %q (json, svg, series): %w", format, sim.ErrInput)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json, svg or series")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&axis, "axis", "z", "viewing axis for svg")
	cmd.Flags().IntVar(&size, "size", 600, "image size in pixels")
	cmd.Flags().StringVar(&column, "column", "tracked_msd", "series column for --format series")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var (
		at        string
		bondRange float64
		minSize   int
		asJSON    bool
		png       string
	)
	cmd := &cobra.Command{
		Use:   "analyze [trial] [tests...]",
		Short: "run analysis tests on a snapshot and the series of a trial",
		Long:  "Tests: clusters, coordination, msd, potential, temperature. All run when none are named.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trial, err := storage.New(dataDir).Open(args[0])
			if err != nil {
				return err
			}
			meta, err := trial.Metadata()
			if err != nil {
				return err
			}
			var timeArg []string
			if at != "" {
				timeArg = []string{at}
			}
			snap, err := snapshotAt(trial, timeArg, 0)
			if err != nil {
				return err
			}
			series, err := trial.LoadSeries()
			if err != nil {
				return err
			}

			tests := args[1:]
			if len(tests) == 0 {
				tests = analysis.TestNames()
			}
			in := analysis.Input{
				Particles:      snap.Particles,
				Box:            meta.Box,
				Range:          bondRange,
				MinClusterSize: minSize,
				Series:         series,
			}

			reports := make([]analysis.Report, 0, len(tests))
			for _, name := range tests {
				rep, err := analysis.RunTest(name, in)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				reports = append(reports, rep)
			}

			if png != "" {
				if err := os.MkdirAll(png, 0755); err != nil {
					return err
				}
				for _, rep := range reports {
					if len(rep.Bins) == 0 {
						continue
					}
					path := filepath.Join(png, fmt.Sprintf("%s-%s.png", rep.Test, storage.FormatTime(snap.Time)))
					if err := analysis.PlotHistogram(rep.Bins, rep.Test, path); err != nil {
						return err
					}
				}
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}

			fmt.Printf("trial: %s  snapshot t=%g  particles: %d\n", trial.ID, snap.Time, len(snap.Particles))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, rep := range reports {
				fmt.Fprintf(w, "\n%s\t\n", rep.Test)
				keys := make([]string, 0, len(rep.Values))
				for k := range rep.Values {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(w, "  %s\t%.6g\n", k, rep.Values[k])
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "snapshot time (default latest)")
	cmd.Flags().Float64Var(&bondRange, "range", defaultBondRange, "bond distance in contact distances, for snapshots without bonds")
	cmd.Flags().IntVar(&minSize, "min-cluster", analysis.DefaultMinClusterSize, "smallest cluster counted")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	cmd.Flags().StringVar(&png, "png", "", "write histogram PNGs into this directory")
	return cmd
}
