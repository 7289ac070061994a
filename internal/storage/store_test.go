package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/analysis"
	"github.com/san-kum/psim/internal/config"
	"github.com/san-kum/psim/internal/sim"
	"github.com/san-kum/psim/internal/system"
)

func newTrial(t *testing.T) (*Store, *Trial) {
	t.Helper()
	st := New(t.TempDir())
	cfg := config.DefaultConfig()
	cfg.Params = map[string]float64{"wellDepth": 2}
	trial, err := st.Create(cfg, "gel")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return st, trial
}

func particles() []*sim.Particle {
	a := sim.NewParticle(0, r3.Vec{X: 1.25, Y: 2.5, Z: 3.75}, 0.5, 1)
	a.Prev = r3.Vec{X: 1.2, Y: 2.4, Z: 3.7}
	a.Force = r3.Vec{X: -0.1, Y: 1e-9, Z: 3}
	a.PrevForce = r3.Vec{X: 0.2}
	b := sim.NewParticle(1, r3.Vec{X: 7, Y: 8, Z: 0.1}, 0.75, 2)
	return []*sim.Particle{a, b}
}

func TestStoreCreateLoad(t *testing.T) {
	st, trial := newTrial(t)

	if trial.ID != "gel" {
		t.Errorf("expected id gel, got %s", trial.ID)
	}

	meta, err := st.Load("gel")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Force != "ao" {
		t.Errorf("expected force ao, got %s", meta.Force)
	}
	if meta.Seed != 90210 {
		t.Errorf("expected seed 90210, got %d", meta.Seed)
	}
	if meta.Status != StatusCreated {
		t.Errorf("expected status created, got %s", meta.Status)
	}

	cfg, err := trial.Config()
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}
	if cfg.Params["wellDepth"] != 2 {
		t.Errorf("expected wellDepth 2, got %f", cfg.Params["wellDepth"])
	}

	for _, d := range []string{snapshotDir, movieDir, histogramDir} {
		if _, err := os.Stat(filepath.Join(trial.Dir, d)); err != nil {
			t.Errorf("expected %s directory: %v", d, err)
		}
	}
}

func TestStoreCreateDeduplicatesNames(t *testing.T) {
	st, _ := newTrial(t)
	again, err := st.Create(config.DefaultConfig(), "gel")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != "gel-1" {
		t.Errorf("expected gel-1, got %s", again.ID)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestStoreOpenMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Open("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	runs, err := New(filepath.Join(t.TempDir(), "missing")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list for missing dir, got %v, %v", runs, err)
	}
}

func TestRecoveryRoundTrip(t *testing.T) {
	_, trial := newTrial(t)
	ps := particles()
	snap := &system.Snapshot{Time: 0.1 + 0.2, Step: 300, Particles: ps}

	if err := trial.WriteRecovery(snap); err != nil {
		t.Fatal(err)
	}

	times, err := trial.Snapshots()
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != 1 || times[0] != 0.3 {
		t.Fatalf("expected snapshot at 0.3, got %v", times)
	}

	got, err := trial.ReadRecovery(times[0])
	if err != nil {
		t.Fatal(err)
	}
	if got.Step != 300 || got.Time != snap.Time {
		t.Errorf("expected step 300 at %g, got %d at %g", snap.Time, got.Step, got.Time)
	}
	if len(got.Particles) != 2 {
		t.Fatalf("expected 2 particles, got %d", len(got.Particles))
	}
	for i, p := range got.Particles {
		want := ps[i]
		if p.ID != i || p.Pos != want.Pos || p.Prev != want.Prev ||
			p.Force != want.Force || p.PrevForce != want.PrevForce ||
			p.Mass != want.Mass || p.Radius != want.Radius {
			t.Errorf("particle %d: expected %+v, got %+v", i, want, p)
		}
	}
}

func TestWriteRecoveryOverwrites(t *testing.T) {
	_, trial := newTrial(t)
	ps := particles()

	if err := trial.WriteRecovery(&system.Snapshot{Time: 1, Step: 10, Particles: ps}); err != nil {
		t.Fatal(err)
	}
	if err := trial.WriteRecovery(&system.Snapshot{Time: 1, Step: 11, Particles: ps[:1]}); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	got, err := trial.ReadRecovery(1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Step != 11 || len(got.Particles) != 1 {
		t.Errorf("expected the second write, got step %d with %d particles", got.Step, len(got.Particles))
	}
}

func TestReadRecoveryRejectsShortLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recovery.txt")
	if err := os.WriteFile(path, []byte("1 2 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadRecoveryFile(path); !errors.Is(err, sim.ErrInput) {
		t.Errorf("expected ErrInput, got %v", err)
	}
}

func TestXYZ(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"plain", "frame.xyz"},
		{"zstd", "frame.xyz.zst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			ps := particles()
			if err := WriteXYZ(path, ps, "time=1"); err != nil {
				t.Fatal(err)
			}

			pos, comment, err := ReadXYZ(path)
			if err != nil {
				t.Fatal(err)
			}
			if comment != "time=1" {
				t.Errorf("expected comment time=1, got %q", comment)
			}
			if len(pos) != len(ps) {
				t.Fatalf("expected %d positions, got %d", len(ps), len(pos))
			}
			for i := range pos {
				if r3.Norm(r3.Sub(pos[i], ps[i].Pos)) > 1e-6 {
					t.Errorf("position %d: expected %v, got %v", i, ps[i].Pos, pos[i])
				}
			}
		})
	}
}

func TestXYZCompressedIsSmaller(t *testing.T) {
	dir := t.TempDir()
	var ps []*sim.Particle
	for i := 0; i < 500; i++ {
		ps = append(ps, sim.NewParticle(i, r3.Vec{X: 1, Y: 2, Z: 3}, 0.5, 1))
	}
	plain, packed := filepath.Join(dir, "a.xyz"), filepath.Join(dir, "a.xyz.zst")
	if err := WriteXYZ(plain, ps, ""); err != nil {
		t.Fatal(err)
	}
	if err := WriteXYZ(packed, ps, ""); err != nil {
		t.Fatal(err)
	}

	a, _ := os.Stat(plain)
	b, _ := os.Stat(packed)
	if b.Size() >= a.Size() {
		t.Errorf("expected compressed %d < plain %d", b.Size(), a.Size())
	}
}

func TestReadXYZTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xyz")
	if err := os.WriteFile(path, []byte("3\ncomment\nH 1 2 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadXYZ(path); !errors.Is(err, sim.ErrInput) {
		t.Errorf("expected ErrInput, got %v", err)
	}
}

func TestSeries(t *testing.T) {
	_, trial := newTrial(t)

	empty, err := trial.LoadSeries()
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty series, got %v, %v", empty, err)
	}

	rows := []analysis.Sample{
		{Time: 1, Temperature: 0.98, MSD: 1e-3, TrackedMSD: 0.5, Clusters: 2, MeanCoordination: 1.5, Potential: -0.25},
		{Time: 2, Temperature: 1.01, MSD: 2e-3, TrackedMSD: 1.1, Clusters: 3, MeanCoordination: 2.5, Potential: -0.5},
	}
	for _, r := range rows {
		if err := trial.AppendSeries(r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := trial.LoadSeries()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Errorf("row %d: expected %+v, got %+v", i, rows[i], got[i])
		}
	}
}

func TestRewind(t *testing.T) {
	_, trial := newTrial(t)
	ps := particles()

	for _, at := range []float64{1, 2, 3} {
		if err := trial.WriteRecovery(&system.Snapshot{Time: at, Particles: ps}); err != nil {
			t.Fatal(err)
		}
		if err := WriteXYZ(trial.MoviePath(at, at == 3), ps, ""); err != nil {
			t.Fatal(err)
		}
		if err := trial.AppendSeries(analysis.Sample{Time: at}); err != nil {
			t.Fatal(err)
		}
	}

	if err := trial.Rewind(2); err != nil {
		t.Fatal(err)
	}

	times, _ := trial.Snapshots()
	if len(times) != 2 || times[1] != 2 {
		t.Errorf("expected snapshots [1 2], got %v", times)
	}
	if _, err := os.Stat(trial.MoviePath(3, true)); !os.IsNotExist(err) {
		t.Error("expected frame at t=3 removed")
	}
	if _, err := os.Stat(trial.MoviePath(2, false)); err != nil {
		t.Error("expected frame at t=2 kept")
	}
	series, _ := trial.LoadSeries()
	if len(series) != 2 {
		t.Errorf("expected 2 series rows, got %d", len(series))
	}

	latest, err := trial.Latest()
	if err != nil || latest != 2 {
		t.Errorf("expected latest 2, got %g, %v", latest, err)
	}
}

func TestRecorder(t *testing.T) {
	_, trial := newTrial(t)
	ps := particles()
	ps[0].AddInteraction(1)
	ps[1].AddInteraction(0)
	s := &sim.State{Particles: ps, Box: 10, Seed: 7}

	rec := NewRecorder(trial, analysis.NewTracker(1), WithCompression(true))
	if err := rec.Start(s); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(trial.InitialStatePath()); err != nil {
		t.Fatalf("expected initial state: %v", err)
	}

	s.Time, s.Step = 1, 1000
	if err := rec.Observe(s); err != nil {
		t.Fatal(err)
	}
	if rec.Frames() != 1 {
		t.Errorf("expected 1 frame, got %d", rec.Frames())
	}
	if _, err := os.Stat(trial.MoviePath(1, true)); err != nil {
		t.Errorf("expected compressed frame: %v", err)
	}
	hist, err := os.ReadFile(filepath.Join(trial.Dir, histogramDir, "coordination-1.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(hist) != "1 2\n" {
		t.Errorf("unexpected histogram %q", hist)
	}

	if err := rec.Finish(s, map[string]float64{"temperature": 1}, nil); err != nil {
		t.Fatal(err)
	}
	meta, err := trial.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if meta.Status != StatusFinished || meta.Steps != 1000 || meta.Box != 10 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if math.Abs(meta.Metrics["temperature"]-1) > 1e-12 {
		t.Errorf("expected temperature metric 1, got %f", meta.Metrics["temperature"])
	}
}

func TestRecorderFinishStatus(t *testing.T) {
	tests := []struct {
		name   string
		runErr error
		want   string
	}{
		{"clean", nil, StatusFinished},
		{"cancelled", fmt.Errorf("run: %w", context.Canceled), StatusStopped},
		{"failed", &sim.SimulationError{Step: 3, Wrapped: sim.ErrOverlap}, StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, trial := newTrial(t)
			s := &sim.State{Particles: particles(), Box: 10}
			rec := NewRecorder(trial, nil)
			if err := rec.Finish(s, nil, tt.runErr); err != nil {
				t.Fatal(err)
			}
			meta, err := trial.Metadata()
			if err != nil {
				t.Fatal(err)
			}
			if meta.Status != tt.want {
				t.Errorf("expected status %s, got %s", tt.want, meta.Status)
			}
		})
	}
}

func TestExportJSON(t *testing.T) {
	_, trial := newTrial(t)
	if err := trial.AppendSeries(analysis.Sample{Time: 1, Temperature: 2}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := trial.ExportJSON(&buf); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.Metadata.ID != "gel" {
		t.Errorf("expected id gel, got %s", data.Metadata.ID)
	}
	if len(data.Series) != 1 || data.Summary["temperature"].Mean != 2 {
		t.Errorf("unexpected export %+v", data)
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.1 + 0.2, "0.3"},
		{100, "100"},
		{0.001 * 1000, "1"},
		{12.5, "12.5"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.in); got != tt.want {
			t.Errorf("FormatTime(%v): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}
