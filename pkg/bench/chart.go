package bench

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// SaveChart renders the total query time of every result as a bar chart.
// The image format follows the file extension (.png, .svg, .pdf, ...).
func SaveChart(rep *Report, path string) error {
	if len(rep.Results) == 0 {
		return fmt.Errorf("bench: nothing to chart")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%d range queries over price [%g, %g]", rep.Repeat, rep.MinPrice, rep.MaxPrice)
	p.Y.Label.Text = "total seconds"

	values := make(plotter.Values, len(rep.Results))
	names := make([]string, len(rep.Results))
	for i, res := range rep.Results {
		values[i] = res.Elapsed.Seconds()
		names[i] = res.Name
	}

	bars, err := plotter.NewBarChart(values, vg.Points(28))
	if err != nil {
		return fmt.Errorf("bench: chart: %w", err)
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	width := vg.Length(2+len(names)) * vg.Inch
	return p.Save(width, 4*vg.Inch, path)
}
