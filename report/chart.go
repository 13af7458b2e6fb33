package report

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/liftlab/harlift/evaluation"
	"github.com/liftlab/harlift/pkg/errors"
)

// SaveImportanceChart renders a bar chart of the top-n features by gain
// importance and saves it to path. The format follows the file extension
// (.png, .svg, .pdf).
func SaveImportanceChart(ranks []evaluation.FeatureRank, n int, path string) error {
	if len(ranks) == 0 {
		return errors.NewValueError("SaveImportanceChart", "no features to plot")
	}
	if n <= 0 || n > len(ranks) {
		n = len(ranks)
	}

	values := make(plotter.Values, n)
	names := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = ranks[i].Importance
		names[i] = ranks[i].Name
	}

	p := plot.New()
	p.Title.Text = "Feature importance (gain)"
	p.Y.Label.Text = "gain share"
	p.X.Tick.Label.Rotation = 0.9
	p.X.Tick.Label.XAlign = -1
	p.X.Tick.Label.YAlign = -0.5

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return errors.Wrap(err, "building bar chart")
	}
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving chart to %s", path)
	}
	return nil
}

// SaveErrorCurve renders the cross-validated error by boosting round and
// saves it to path.
func SaveErrorCurve(meanHistory []float64, path string) error {
	if len(meanHistory) == 0 {
		return errors.NewValueError("SaveErrorCurve", "empty error history")
	}

	pts := make(plotter.XYs, len(meanHistory))
	for i, e := range meanHistory {
		pts[i].X = float64(i)
		pts[i].Y = e
	}

	p := plot.New()
	p.Title.Text = "Cross-validated error by round"
	p.X.Label.Text = "boosting round"
	p.Y.Label.Text = "mean held-out error"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "building error curve")
	}
	p.Add(line, plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving chart to %s", path)
	}
	return nil
}
