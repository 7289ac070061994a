package storage

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/sim"
	"github.com/san-kum/psim/internal/system"
)

const recoveryFile = "recovery.txt"

// FormatTime renders a simulation time for use in file names, rounded to
// six decimals so accumulated float error does not leak into paths.
func FormatTime(t float64) string {
	return strconv.FormatFloat(math.Round(t*1e6)/1e6, 'f', -1, 64)
}

func (t *Trial) snapshotPath(at float64) string {
	return t.path(snapshotDir, "time-"+FormatTime(at), recoveryFile)
}

// WriteRecovery stores snap under snapshots/time-<t>/recovery.txt. Each
// particle is one line: x y z x0 y0 z0 fx fy fz fx0 fy0 fz0 m r, where x0
// is the previous position and fx0 the previous force.
func (t *Trial) WriteRecovery(snap *system.Snapshot) error {
	path := t.snapshotPath(snap.Time)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# time %s step %d particles %d\n",
		strconv.FormatFloat(snap.Time, 'g', -1, 64), snap.Step, len(snap.Particles))

	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, p := range snap.Particles {
		fields := []string{
			ff(p.Pos.X), ff(p.Pos.Y), ff(p.Pos.Z),
			ff(p.Prev.X), ff(p.Prev.Y), ff(p.Prev.Z),
			ff(p.Force.X), ff(p.Force.Y), ff(p.Force.Z),
			ff(p.PrevForce.X), ff(p.PrevForce.Y), ff(p.PrevForce.Z),
			ff(p.Mass), ff(p.Radius),
		}
		if _, err := w.WriteString(strings.Join(fields, " ") + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadRecovery loads the snapshot taken at time at.
func (t *Trial) ReadRecovery(at float64) (*system.Snapshot, error) {
	return ReadRecoveryFile(t.snapshotPath(at))
}

func ReadRecoveryFile(path string) (*system.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	snap := &system.Snapshot{}
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			parseHeader(text, snap)
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 14 {
			return nil, fmt.Errorf("%s:%d: expected 14 fields, got %d: %w", path, line, len(fields), sim.ErrInput)
		}
		v := make([]float64, 14)
		for i, s := range fields {
			if v[i], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: %v: %w", path, line, err, sim.ErrInput)
			}
		}

		p := sim.NewParticle(len(snap.Particles), r3.Vec{X: v[0], Y: v[1], Z: v[2]}, v[13], v[12])
		p.Prev = r3.Vec{X: v[3], Y: v[4], Z: v[5]}
		p.Force = r3.Vec{X: v[6], Y: v[7], Z: v[8]}
		p.PrevForce = r3.Vec{X: v[9], Y: v[10], Z: v[11]}
		snap.Particles = append(snap.Particles, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

func parseHeader(line string, snap *system.Snapshot) {
	fields := strings.Fields(strings.TrimPrefix(line, "#"))
	for i := 0; i+1 < len(fields); i += 2 {
		switch fields[i] {
		case "time":
			snap.Time, _ = strconv.ParseFloat(fields[i+1], 64)
		case "step":
			snap.Step, _ = strconv.Atoi(fields[i+1])
		}
	}
}

// Snapshots lists the times of every stored snapshot in increasing order.
func (t *Trial) Snapshots() ([]float64, error) {
	entries, err := os.ReadDir(t.path(snapshotDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var times []float64
	for _, e := range entries {
		name, ok := strings.CutPrefix(e.Name(), "time-")
		if !e.IsDir() || !ok {
			continue
		}
		v, err := strconv.ParseFloat(name, 64)
		if err != nil {
			continue
		}
		times = append(times, v)
	}
	sort.Float64s(times)
	return times, nil
}

// Latest returns the most recent snapshot time, or an error if there are
// none.
func (t *Trial) Latest() (float64, error) {
	times, err := t.Snapshots()
	if err != nil {
		return 0, err
	}
	if len(times) == 0 {
		return 0, fmt.Errorf("trial %s has no snapshots: %w", t.ID, ErrNotFound)
	}
	return times[len(times)-1], nil
}

// Rewind deletes every snapshot, movie frame and series row after at, so
// a resumed run does not leave stale output behind.
func (t *Trial) Rewind(at float64) error {
	times, err := t.Snapshots()
	if err != nil {
		return err
	}
	cut := math.Round(at*1e6) / 1e6
	for _, v := range times {
		if v > cut {
			if err := os.RemoveAll(t.path(snapshotDir, "time-"+FormatTime(v))); err != nil {
				return err
			}
		}
	}

	frames, err := filepath.Glob(t.path(movieDir, "system-*"))
	if err != nil {
		return err
	}
	for _, f := range frames {
		name := strings.TrimPrefix(filepath.Base(f), "system-")
		name = strings.TrimSuffix(strings.TrimSuffix(name, ".zst"), ".xyz")
		if v, err := strconv.ParseFloat(name, 64); err == nil && v > cut {
			if err := os.Remove(f); err != nil {
				return err
			}
		}
	}

	series, err := t.LoadSeries()
	if err != nil || len(series) == 0 {
		return err
	}
	keep := series[:0]
	for _, s := range series {
		if math.Round(s.Time*1e6)/1e6 <= cut {
			keep = append(keep, s)
		}
	}
	return t.WriteSeries(keep)
}
