package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/sim"
)

// zstdReadCloser closes the decoder and the underlying file together.
type zstdReadCloser struct {
	*zstd.Decoder
	f *os.File
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

// zstdWriteCloser flushes the encoder before closing the file.
type zstdWriteCloser struct {
	*zstd.Encoder
	f *os.File
}

func (z zstdWriteCloser) Close() error {
	if err := z.Encoder.Close(); err != nil {
		z.f.Close()
		return err
	}
	return z.f.Close()
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

func create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !compressed(path) {
		return f, nil
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, err
	}
	return zstdWriteCloser{Encoder: enc, f: f}, nil
}

func open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !compressed(path) {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return zstdReadCloser{Decoder: dec, f: f}, nil
}

// WriteXYZ writes the particle positions in XYZ format. A .zst suffix
// compresses the file with zstd.
func WriteXYZ(path string, ps []*sim.Particle, comment string) error {
	wc, err := create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(wc)
	fmt.Fprintf(w, "%d\n%s\n", len(ps), strings.ReplaceAll(comment, "\n", " "))
	for _, p := range ps {
		fmt.Fprintf(w, "H %.6f %.6f %.6f\n", p.Pos.X, p.Pos.Y, p.Pos.Z)
	}
	if err := w.Flush(); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

// ReadXYZ reads back a file written by WriteXYZ.
func ReadXYZ(path string) ([]r3.Vec, string, error) {
	rc, err := open(path)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	if !sc.Scan() {
		return nil, "", fmt.Errorf("%s: missing count line: %w", path, sim.ErrInput)
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || n < 0 {
		return nil, "", fmt.Errorf("%s: bad count %q: %w", path, sc.Text(), sim.ErrInput)
	}
	if !sc.Scan() {
		return nil, "", fmt.Errorf("%s: missing comment line: %w", path, sim.ErrInput)
	}
	comment := sc.Text()

	pos := make([]r3.Vec, 0, n)
	for sc.Scan() && len(pos) < n {
		fields := strings.Fields(sc.Text())
		if len(fields) != 4 {
			return nil, "", fmt.Errorf("%s: line %d: expected 4 fields: %w", path, len(pos)+3, sim.ErrInput)
		}
		var v [3]float64
		for i := range v {
			if v[i], err = strconv.ParseFloat(fields[i+1], 64); err != nil {
				return nil, "", fmt.Errorf("%s: line %d: %v: %w", path, len(pos)+3, err, sim.ErrInput)
			}
		}
		pos = append(pos, r3.Vec{X: v[0], Y: v[1], Z: v[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, "", err
	}
	if len(pos) != n {
		return nil, "", fmt.Errorf("%s: expected %d particles, got %d: %w", path, n, len(pos), sim.ErrInput)
	}
	return pos, comment, nil
}

// MoviePath is the frame path for time at.
func (t *Trial) MoviePath(at float64, compress bool) string {
	name := "system-" + FormatTime(at) + ".xyz"
	if compress {
		name += ".zst"
	}
	return t.path(movieDir, name)
}

func (t *Trial) InitialStatePath() string { return t.path(initialFile) }
func (t *Trial) FinalStatePath() string   { return t.path(finalFile) }
