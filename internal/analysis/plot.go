package analysis

import (
	"fmt"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotHistogram writes bins as a bar chart. The image format follows the
// extension of path.
func PlotHistogram(bins []Bin, title, path string) error {
	if len(bins) == 0 {
		return fmt.Errorf("plot %s: no data", title)
	}

	values := make(plotter.Values, len(bins))
	labels := make([]string, len(bins))
	for i, b := range bins {
		values[i] = float64(b.Count)
		labels[i] = strconv.Itoa(b.Value)
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "count"
	p.Add(plotter.NewGrid())

	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(labels...)

	return p.Save(5*vg.Inch, 3*vg.Inch, path)
}

// PlotSeries writes one column of a series against time as a line plot.
func PlotSeries(series []Sample, column, path string) error {
	ys := Column(series, column)
	if ys == nil {
		return fmt.Errorf("plot: unknown column %q", column)
	}
	if len(ys) == 0 {
		return fmt.Errorf("plot %s: no data", column)
	}

	pts := make(plotter.XYs, len(series))
	for i, s := range series {
		pts[i].X = s.Time
		pts[i].Y = ys[i]
	}

	p := plot.New()
	p.Title.Text = column
	p.X.Label.Text = "time"
	p.Y.Label.Text = column
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1)
	line.Color = plotutil.Color(1)
	p.Add(line)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
