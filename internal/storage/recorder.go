package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/san-kum/psim/internal/analysis"
	"github.com/san-kum/psim/internal/sim"
	"github.com/san-kum/psim/internal/system"
)

// Recorder is a run observer that writes snapshots, movie frames, series
// rows and histograms into a trial.
type Recorder struct {
	trial      *Trial
	tracker    *analysis.Tracker
	compress   bool
	histograms bool
	logger     *zap.Logger

	frames int
	last   analysis.Sample
}

type RecorderOption func(*Recorder)

func WithCompression(on bool) RecorderOption {
	return func(r *Recorder) { r.compress = on }
}

func WithHistograms(on bool) RecorderOption {
	return func(r *Recorder) { r.histograms = on }
}

func WithLogger(l *zap.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// NewRecorder records into trial. tracker supplies the tracked MSD column
// and may be nil.
func NewRecorder(trial *Trial, tracker *analysis.Tracker, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		trial:      trial,
		tracker:    tracker,
		histograms: true,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start writes the initial configuration and marks the trial as running.
func (r *Recorder) Start(s *sim.State) error {
	if s.Step == 0 {
		comment := fmt.Sprintf("initial box=%g seed=%d", s.Box, s.Seed)
		if err := WriteXYZ(r.trial.InitialStatePath(), s.Particles, comment); err != nil {
			return err
		}
	}
	return r.trial.UpdateMetadata(func(m *Metadata) {
		m.Status = StatusRunning
		m.Seed = s.Seed
		m.Particles = s.N()
		m.Box = s.Box
		m.Concentration = s.Concentration
	})
}

func (r *Recorder) Observe(s *sim.State) error {
	snap := &system.Snapshot{Time: s.Time, Step: s.Step, Particles: s.Particles}
	if err := r.trial.WriteRecovery(snap); err != nil {
		return err
	}

	comment := fmt.Sprintf("time=%g step=%d", s.Time, s.Step)
	if err := WriteXYZ(r.trial.MoviePath(s.Time, r.compress), s.Particles, comment); err != nil {
		return err
	}

	sample := analysis.Measure(s, r.tracker)
	if err := r.trial.AppendSeries(sample); err != nil {
		return err
	}
	r.last = sample

	if r.histograms {
		if err := r.writeHistograms(s); err != nil {
			return err
		}
	}

	r.frames++
	r.logger.Debug("recorded",
		zap.Float64("time", s.Time),
		zap.Float64("temperature", sample.Temperature),
		zap.Int("clusters", sample.Clusters),
	)
	return nil
}

func (r *Recorder) writeHistograms(s *sim.State) error {
	clusters := analysis.FindClusters(s.Particles, analysis.DefaultMinClusterSize)
	sets := map[string][]analysis.Bin{
		"coordination":         analysis.CoordinationHistogram(s.Particles),
		"cluster-size":         analysis.ClusterSizeHistogram(clusters),
		"cluster-coordination": analysis.ClusterCoordinationHistogram(s.Particles, clusters),
	}
	for name, bins := range sets {
		f, err := os.Create(r.trial.path(histogramDir, name+"-"+FormatTime(s.Time)+".txt"))
		if err != nil {
			return err
		}
		werr := analysis.WriteBins(f, bins)
		cerr := f.Close()
		if werr != nil {
			return werr
		}
		if cerr != nil {
			return cerr
		}
	}
	return nil
}

// Finish writes the final configuration and stores the final metric values
// in the metadata. A cancelled run is marked stopped and any other runErr
// marks it failed.
func (r *Recorder) Finish(s *sim.State, metrics map[string]float64, runErr error) error {
	if err := WriteXYZ(r.trial.FinalStatePath(), s.Particles, fmt.Sprintf("final time=%g", s.Time)); err != nil {
		return err
	}
	return r.trial.UpdateMetadata(func(m *Metadata) {
		m.LastTime = s.Time
		m.Steps = s.Step
		m.Metrics = metrics
		m.Status = StatusFinished
		switch {
		case errors.Is(runErr, context.Canceled):
			m.Status = StatusStopped
		case runErr != nil:
			m.Status = StatusFailed
		}
	})
}

func (r *Recorder) Frames() int           { return r.frames }
func (r *Recorder) Last() analysis.Sample { return r.last }
func (r *Recorder) Trial() *Trial         { return r.trial }
