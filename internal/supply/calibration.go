package supply

import "github.com/brettski74/milton/internal/thermal/pwlinear"

// ChannelCalibration holds the three piecewise-linear tables spec.md §3
// defines per electrical channel (voltage or current): what to request of
// the supply to get a desired calibrated output, what a raw reading really
// represents, and what the supply internally stores as its own setpoint.
// Each defaults to identity (built with two coincident-slope points so
// Estimate(x) == x) when no calibration data is supplied.
type ChannelCalibration struct {
	Requested *pwlinear.PiecewiseLinear // actual (desired cooked output) -> requested (raw to send)
	Output    *pwlinear.PiecewiseLinear // sampled (raw reading) -> output (cooked)
	Setpoint  *pwlinear.PiecewiseLinear // requested (raw sent) -> setpoint (what supply reports storing)
}

// NewIdentityChannelCalibration returns a calibration whose three tables
// are all the identity function.
func NewIdentityChannelCalibration() ChannelCalibration {
	return ChannelCalibration{
		Requested: identityTable(),
		Output:    identityTable(),
		Setpoint:  identityTable(),
	}
}

func identityTable() *pwlinear.PiecewiseLinear {
	t := pwlinear.New()
	t.AddPoint(0, 0)
	t.AddPoint(1, 1)
	return t
}

// CalibrationPoint is one (x, y) calibration sample for a channel table.
type CalibrationPoint struct {
	X, Y float64
}

// BuildTable constructs a PiecewiseLinear from a list of calibration
// points, or the identity function if points is empty.
func BuildTable(points []CalibrationPoint) *pwlinear.PiecewiseLinear {
	if len(points) == 0 {
		return identityTable()
	}
	t := pwlinear.New()
	for _, p := range points {
		t.AddPoint(p.X, p.Y)
	}
	return t
}

func estimateOrIdentity(t *pwlinear.PiecewiseLinear, x float64) float64 {
	if t == nil {
		return x
	}
	y, err := t.Estimate(x)
	if err != nil {
		return x
	}
	return y
}
