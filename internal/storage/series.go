package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/san-kum/psim/internal/analysis"
	"github.com/san-kum/psim/internal/sim"
)

func sampleRow(s analysis.Sample) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }
	return []string{
		f(s.Time), f(s.Temperature), f(s.MSD), f(s.TrackedMSD),
		strconv.Itoa(s.Clusters), f(s.MeanCoordination), f(s.Potential),
	}
}

// AppendSeries adds one row to series.csv, writing the header first if
// the file is new.
func (t *Trial) AppendSeries(s analysis.Sample) error {
	f, err := os.OpenFile(t.path(seriesFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(analysis.ColumnNames()); err != nil {
			return err
		}
	}
	if err := w.Write(sampleRow(s)); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// WriteSeries replaces series.csv with samples.
func (t *Trial) WriteSeries(samples []analysis.Sample) error {
	f, err := os.Create(t.path(seriesFile))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(analysis.ColumnNames()); err != nil {
		return err
	}
	for _, s := range samples {
		if err := w.Write(sampleRow(s)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// LoadSeries reads series.csv. A missing file is an empty series.
func (t *Trial) LoadSeries() ([]analysis.Sample, error) {
	file, err := os.Open(t.path(seriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", t.path(seriesFile), err, sim.ErrInput)
	}
	if len(records) < 2 {
		return []analysis.Sample{}, nil
	}

	out := make([]analysis.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(analysis.ColumnNames()) {
			return nil, fmt.Errorf("%s: row %d has %d columns: %w", t.path(seriesFile), i+2, len(rec), sim.ErrInput)
		}
		v := make([]float64, len(rec))
		for j, field := range rec {
			if v[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("%s: row %d: %v: %w", t.path(seriesFile), i+2, err, sim.ErrInput)
			}
		}
		out = append(out, analysis.Sample{
			Time:             v[0],
			Temperature:      v[1],
			MSD:              v[2],
			TrackedMSD:       v[3],
			Clusters:         int(v[4]),
			MeanCoordination: v[5],
			Potential:        v[6],
		})
	}
	return out, nil
}
