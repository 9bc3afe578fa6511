package tuner

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/brettski74/milton/internal/status"
)

// PlotFit renders a fitted model's predicted temperature against the
// recorded actual temperature over history and saves it as a PNG to
// path, for eyeballing a tuning run the way the fit itself cannot show
// (an SSE number alone hides whether the residual is a steady bias, a
// lag, or noise).
func PlotFit(history []*status.Status, model Model, path string) error {
	times := make([]float64, len(history))
	actual := make([]float64, len(history))
	predicted := make([]float64, len(history))

	for i, s := range history {
		times[i] = s.Now
		actual[i] = s.Temperature
		predicted[i] = model.Predict(s)
	}

	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "predictor fit: " + model.PackageTag()
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "temperature"

	if err := plotutil.AddLinePoints(p,
		"actual", toPlotterXYs(times, actual),
		"predicted", toPlotterXYs(times, predicted),
	); err != nil {
		return err
	}

	return p.Save(10*vg.Inch, 6*vg.Inch, path)
}

func toPlotterXYs(x, y []float64) plotter.XYs {
	points := make(plotter.XYs, len(x))
	for i := range points {
		points[i].X = x[i]
		points[i].Y = y[i]
	}
	return points
}
