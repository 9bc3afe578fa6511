package predictor

import (
	"github.com/brettski74/milton/internal/milerr"
	"github.com/brettski74/milton/internal/thermal/pwlinear"
)

// RTDPoint is one (resistance, temperature) calibration sample.
type RTDPoint struct {
	Resistance  float64
	Temperature float64
}

// RTDTable maps measured heating-element resistance to temperature and
// back, rebuilt wholesale from a list of calibration points (spec.md §3).
type RTDTable struct {
	byResistance  *pwlinear.PiecewiseLinear
	byTemperature *pwlinear.PiecewiseLinear
}

// NewRTDTable builds a table from calibration points. The points need not
// be pre-sorted.
func NewRTDTable(points []RTDPoint) *RTDTable {
	t := &RTDTable{
		byResistance:  pwlinear.New(),
		byTemperature: pwlinear.New(),
	}
	for _, p := range points {
		t.byResistance.AddPoint(p.Resistance, p.Temperature)
		t.byTemperature.AddPoint(p.Temperature, p.Resistance)
	}
	return t
}

// Temperature inverts the table: resistance -> temperature.
func (t *RTDTable) Temperature(resistance float64) (float64, error) {
	if t.byResistance.Length() == 0 {
		return 0, milerr.New(milerr.CalibrationMissing, "RTD calibration table has no points")
	}
	return t.byResistance.Estimate(resistance)
}

// Resistance is the forward direction: temperature -> resistance.
func (t *RTDTable) Resistance(temperature float64) (float64, error) {
	if t.byTemperature.Length() == 0 {
		return 0, milerr.New(milerr.CalibrationMissing, "RTD calibration table has no points")
	}
	return t.byTemperature.Estimate(temperature)
}
