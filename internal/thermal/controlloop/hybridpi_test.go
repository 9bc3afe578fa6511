package controlloop

import (
	"testing"

	"github.com/brettski74/milton/internal/status"
	"github.com/brettski74/milton/internal/thermal/predictor"
	"github.com/brettski74/milton/internal/thermal/pwlinear"
	"github.com/stretchr/testify/assert"
)

// fixedFeedforward reports a caller-supplied feed-forward power and never
// touches PredictTemperature, letting controller tests drive
// status.PredictTemperature directly as spec.md §8 scenario 3 specifies.
type fixedFeedforward struct {
	power float64
}

func (f *fixedFeedforward) PredictTemperature(s *status.Status) float64 { return s.PredictTemperature }
func (f *fixedFeedforward) PredictPower(s *status.Status) float64       { return f.power }

var _ predictor.PowerPredictor = (*fixedFeedforward)(nil)

// HybridPI saturation, spec.md §8 scenario 3.
func TestHybridPI_Saturation(t *testing.T) {
	pred := &fixedFeedforward{power: 150}
	rtd := predictor.NewRTDTable([]predictor.RTDPoint{{Resistance: 100, Temperature: 0}, {Resistance: 200, Temperature: 100}})
	c := New(pred, rtd, Params{Kp: 2.47, Ki: 0.1, Pmin: 0, Pmax: 120})

	s := status.New(status.EventTimer)
	s.Period = 1
	s.HasAmbient = true
	s.Ambient = 25
	s.NowTemperature = 50
	s.PredictTemperature = 100 // error = +50

	power := c.GetRequiredPower(s)
	assert.Equal(t, 120.0, power)
	// Same-sign saturation (error positive, saturated at pmax): the
	// tick's integral contribution is frozen (integral stays at its
	// pre-tick value of 0 rather than picking up +50*0.1*1), but
	// back-calculation anti-windup still applies against the full
	// unsaturated demand (150 + 2.47*50 + 0.1*5 = 274), pulling the
	// persisted integral negative.
	kaw := 0.1 / 2.47
	wantIntegral := kaw * (120 - 274.0)
	assert.InDelta(t, wantIntegral, c.integral, 1e-6)

	pred.power = 80
	s2 := status.New(status.EventTimer)
	s2.Period = 1
	s2.HasAmbient = true
	s2.Ambient = 25
	s2.NowTemperature = 95
	s2.PredictTemperature = 100 // error = +5

	power2 := c.GetRequiredPower(s2)
	assert.LessOrEqual(t, power2, 120.0)
}

// Cutoff policy, spec.md §8 scenario 4.
func TestHybridPI_CutoffPolicy(t *testing.T) {
	pred := &fixedFeedforward{}
	rtd := predictor.NewRTDTable([]predictor.RTDPoint{{Resistance: 100, Temperature: 0}, {Resistance: 200, Temperature: 100}})
	c := New(pred, rtd, Params{Kp: 1, Ki: 0, Pmin: 0, Pmax: 200})
	c.SetCutoffTemperature(227)

	curve := pwlinear.New()
	curve.AddPoint(20, 120)
	curve.AddPoint(220, 120)
	curve.AddPoint(230, 50)
	c.SetPowerLimit(curve)

	s := status.New(status.EventTimer)
	s.Temperature = 227
	assert.Equal(t, 0.0, c.GetPowerLimited(s, 90))

	s2 := status.New(status.EventTimer)
	s2.Temperature = 225
	assert.InDelta(t, 85.0, c.GetPowerLimited(s2, 100), 1e-9)
}

// ConsumeCutoffWarning fires once per cutoff engagement, not once per tick
// cutoff stays engaged (spec.md §7).
func TestHybridPI_CutoffWarningFiresOnce(t *testing.T) {
	pred := &fixedFeedforward{}
	rtd := predictor.NewRTDTable([]predictor.RTDPoint{{Resistance: 100, Temperature: 0}, {Resistance: 200, Temperature: 100}})
	c := New(pred, rtd, Params{Kp: 1, Ki: 0, Pmin: 0, Pmax: 200})
	c.SetCutoffTemperature(227)

	assert.Empty(t, c.ConsumeCutoffWarning())

	s := status.New(status.EventTimer)
	s.Temperature = 227
	c.GetPowerLimited(s, 90)
	assert.NotEmpty(t, c.ConsumeCutoffWarning())
	assert.Empty(t, c.ConsumeCutoffWarning())

	// Still engaged next tick: no new warning.
	c.GetPowerLimited(s, 90)
	assert.Empty(t, c.ConsumeCutoffWarning())

	// Drops back below cutoff, then re-engages: warns again.
	s2 := status.New(status.EventTimer)
	s2.Temperature = 200
	c.GetPowerLimited(s2, 90)
	c.GetPowerLimited(s, 90)
	assert.NotEmpty(t, c.ConsumeCutoffWarning())
}

func TestHybridPI_GetAmbient_Idempotent(t *testing.T) {
	pred := &fixedFeedforward{}
	rtd := predictor.NewRTDTable([]predictor.RTDPoint{{Resistance: 100, Temperature: 0}})
	c := New(pred, rtd, Params{Kp: 1, Ki: 0, Pmin: 0, Pmax: 1})

	s := status.New(status.EventTimer)
	s.HasDeviceTemperature = true
	s.DeviceTemperature = 27

	first := c.GetAmbient(s)
	snapshot := *s
	second := c.GetAmbient(s)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot.Ambient, s.Ambient)
	assert.Equal(t, snapshot.HasAmbient, s.HasAmbient)
}

func TestHybridPI_GetAmbient_DefaultFallback(t *testing.T) {
	pred := &fixedFeedforward{}
	rtd := predictor.NewRTDTable([]predictor.RTDPoint{{Resistance: 100, Temperature: 0}})
	c := New(pred, rtd, Params{Kp: 1, Ki: 0, Pmin: 0, Pmax: 1})

	s := status.New(status.EventTimer)
	s.Temperature = 400 // far outside default+5, so falls through to configured default

	got := c.GetAmbient(s)
	assert.Equal(t, 25.0, got)
}

func TestHybridPI_GetTemperature(t *testing.T) {
	pred := &fixedFeedforward{}
	rtd := predictor.NewRTDTable([]predictor.RTDPoint{{Resistance: 100, Temperature: 0}, {Resistance: 139, Temperature: 100}})
	c := New(pred, rtd, Params{Kp: 1, Ki: 0, Pmin: 0, Pmax: 1})

	s := status.New(status.EventTimer)
	s.Resistance = 119.5

	temp, err := c.GetTemperature(s)
	assert.NoError(t, err)
	assert.InDelta(t, 50, temp, 1e-6)
	assert.InDelta(t, 50, s.Temperature, 1e-6)
}

func TestHybridPI_AnticipationHorizon_DefaultsToZero(t *testing.T) {
	pred := &fixedFeedforward{}
	rtd := predictor.NewRTDTable([]predictor.RTDPoint{{Resistance: 100, Temperature: 0}})
	c := New(pred, rtd, Params{Kp: 1, Ki: 0, Pmin: 0, Pmax: 1})

	assert.Equal(t, 0, c.AnticipationHorizon())

	c.SetAnticipationHorizon(3)
	assert.Equal(t, 3, c.AnticipationHorizon())
}
