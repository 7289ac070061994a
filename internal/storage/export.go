package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/psim/internal/analysis"
)

// ExportData is the JSON form of a trial.
type ExportData struct {
	Metadata  *Metadata                   `json:"metadata"`
	Series    []analysis.Sample           `json:"series"`
	Summary   map[string]analysis.Summary `json:"summary"`
	Snapshots []float64                   `json:"snapshots"`
}

// Export gathers the metadata, series, per-column summaries and snapshot
// times of the trial.
func (t *Trial) Export() (*ExportData, error) {
	meta, err := t.Metadata()
	if err != nil {
		return nil, err
	}
	series, err := t.LoadSeries()
	if err != nil {
		return nil, err
	}
	snaps, err := t.Snapshots()
	if err != nil {
		return nil, err
	}

	summary := make(map[string]analysis.Summary)
	for _, col := range analysis.ColumnNames()[1:] {
		summary[col] = analysis.Summarize(analysis.Column(series, col))
	}

	if series == nil {
		series = []analysis.Sample{}
	}
	return &ExportData{Metadata: meta, Series: series, Summary: summary, Snapshots: snaps}, nil
}

func (t *Trial) ExportJSON(w io.Writer) error {
	data, err := t.Export()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
