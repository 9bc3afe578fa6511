package controlloop

import (
	"fmt"
	"math"

	"github.com/brettski74/milton/internal/status"
	"github.com/brettski74/milton/internal/thermal/pwlinear"
	"github.com/brettski74/milton/internal/thermal/predictor"
)

// Params are the tunable gains of the HybridPI controller (spec.md §4.6).
type Params struct {
	Kp   float64
	Ki   float64
	Kaw  float64 // back-calculation gain; defaults to Ki/Kp when zero.
	Pmin float64
	Pmax float64
}

// HybridPI is the feed-forward + PI controller with back-calculation
// anti-windup, a power-limit curve and a thermal cutoff. It is adapted from
// controller.PIDController but restructured around the Status carrier and
// the predictPower feed-forward term rather than a bare setpoint/input
// pair, since the thermal core runs as a fixed-period state machine rather
// than an ad hoc sample loop.
type HybridPI struct {
	predictor predictor.PowerPredictor
	rtd       *predictor.RTDTable
	params    Params

	integral float64

	defaultAmbient float64

	limitsEnabled bool
	powerLimit    *pwlinear.PiecewiseLinear

	cutoffEnabled bool
	cutoff        float64
	cutoffActive  bool

	anticipationHorizon int

	pendingWarning string
}

// New constructs a HybridPI controller. predictor supplies both the
// thermal-lag estimate (PredictTemperature) and the feed-forward power
// term (PredictPower); rtd inverts measured resistance to temperature.
func New(pred predictor.PowerPredictor, rtd *predictor.RTDTable, params Params) *HybridPI {
	if params.Kaw == 0 && params.Kp != 0 {
		params.Kaw = params.Ki / params.Kp
	}

	return &HybridPI{
		predictor:      pred,
		rtd:            rtd,
		params:         params,
		defaultAmbient: 25,
		limitsEnabled:  true,
		cutoffEnabled:  true,
		cutoff:         math.Inf(1),
	}
}

// SetDefaultAmbient overrides the 25°C fallback used by getAmbient.
func (c *HybridPI) SetDefaultAmbient(ambient float64) { c.defaultAmbient = ambient }

// SetPowerLimit installs the power-limit curve (temperature -> max watts).
func (c *HybridPI) SetPowerLimit(curve *pwlinear.PiecewiseLinear) { c.powerLimit = curve }

// SetCutoffTemperature sets the hard thermal cutoff.
func (c *HybridPI) SetCutoffTemperature(temperature float64) { c.cutoff = temperature }

// EnableLimits toggles whether the power-limit curve is applied.
func (c *HybridPI) EnableLimits(enabled bool) { c.limitsEnabled = enabled }

// EnableCutoff toggles whether the thermal cutoff is applied.
func (c *HybridPI) EnableCutoff(enabled bool) { c.cutoffEnabled = enabled }

// SetAnticipationHorizon configures how many ticks ahead of `then` this
// controller wants the profile engine to also report via
// anticipate-temperature (spec.md §4.8). 0 (the default) disables
// anticipation: HybridPI's feed-forward term only ever needs
// then-temperature, one period ahead, to invert the predictor cascade.
func (c *HybridPI) SetAnticipationHorizon(k int) { c.anticipationHorizon = k }

// AnticipationHorizon implements profile.AnticipationSource.
func (c *HybridPI) AnticipationHorizon() int { return c.anticipationHorizon }

// GetTemperature inverts the RTD table against the status's measured
// resistance, writing the result into status.Temperature.
func (c *HybridPI) GetTemperature(s *status.Status) (float64, error) {
	t, err := c.rtd.Temperature(s.Resistance)
	if err != nil {
		return 0, err
	}
	s.Temperature = t
	return t, nil
}

// GetAmbient resolves the tick's ambient temperature using the five-step
// precedence order of spec.md §4.6, writing the result back into
// status.Ambient. Idempotent: calling it twice on the same status leaves
// status unchanged on the second call and returns the same value, since
// every branch below either reads a field already marked Has* or compares
// against the now-resolved status.Ambient.
func (c *HybridPI) GetAmbient(s *status.Status) float64 {
	if s.HasAmbient {
		return s.Ambient
	}

	tolerance := 5.0

	if s.HasDeviceAmbient && c.coherent(s.DeviceAmbient) {
		s.Ambient = s.DeviceAmbient
		s.HasAmbient = true
		return s.Ambient
	}

	if s.HasDeviceTemperature && math.Abs(s.DeviceTemperature-c.defaultAmbient) <= tolerance {
		s.Ambient = s.DeviceTemperature
		s.HasAmbient = true
		return s.Ambient
	}

	if math.Abs(s.Temperature-c.defaultAmbient) <= tolerance {
		s.Ambient = s.Temperature
		s.HasAmbient = true
		return s.Ambient
	}

	s.Ambient = c.defaultAmbient
	s.HasAmbient = true
	return s.Ambient
}

// coherent reports whether a device-reported ambient reading looks sane.
// Device ambient sensors occasionally report exactly zero when
// disconnected; treat that as incoherent rather than a real 0°C reading.
func (c *HybridPI) coherent(deviceAmbient float64) bool {
	return deviceAmbient != 0
}

// GetRequiredPower computes the unsaturated FF+PI power demand, applies
// saturation with the associated same-direction integral freeze and
// back-calculation anti-windup, and persists the integral for the next
// tick (spec.md §4.6). After resolving ambient it runs
// Predictor.PredictTemperature for this tick, so
// status.PredictTemperature reflects the current estimate.
func (c *HybridPI) GetRequiredPower(s *status.Status) float64 {
	c.GetAmbient(s)
	c.predictor.PredictTemperature(s)

	feedforward := c.predictor.PredictPower(s)

	errVal := s.PredictTemperature - s.NowTemperature
	integralNext := c.integral + errVal*c.params.Ki*s.Period

	powerUnsat := feedforward + c.params.Kp*errVal + c.params.Ki*integralNext

	powerSat := powerUnsat
	saturatedSameDirection := false
	if powerSat > c.params.Pmax {
		powerSat = c.params.Pmax
		saturatedSameDirection = errVal >= 0
	} else if powerSat < c.params.Pmin {
		powerSat = c.params.Pmin
		saturatedSameDirection = errVal <= 0
	}

	if saturatedSameDirection {
		// Don't let this tick's contribution compound the windup.
		integralNext = c.integral
	}

	integralNext += c.params.Kaw * (powerSat - powerUnsat)

	maxIntegral := 0.2 * c.params.Pmax
	if integralNext > maxIntegral {
		integralNext = maxIntegral
	} else if integralNext < -maxIntegral {
		integralNext = -maxIntegral
	}
	c.integral = integralNext

	s.SetPower = powerSat
	return powerSat
}

// GetPowerLimited clamps a requested power against the thermal cutoff and
// the power-limit curve, each independently suppressible via stage
// attributes carried on the status record (spec.md §4.6). The first tick a
// cutoff newly engages, it queues a warning for ConsumeCutoffWarning rather
// than returning an error: spec.md §7 treats cutoff as an expected
// safety clamp, not a fault, so it's logged once rather than on every tick
// it stays engaged.
func (c *HybridPI) GetPowerLimited(s *status.Status, requested float64) float64 {
	if c.cutoffEnabled && !s.StageDisableCutoff && s.Temperature >= c.cutoff {
		if !c.cutoffActive {
			c.cutoffActive = true
			c.pendingWarning = fmt.Sprintf("thermal cutoff engaged at %.1f°C (limit %.1f°C)", s.Temperature, c.cutoff)
		}
		return 0
	}
	c.cutoffActive = false

	if c.limitsEnabled && !s.StageDisableLimits && c.powerLimit != nil {
		limit, err := c.powerLimit.Estimate(s.Temperature)
		if err == nil && requested > limit {
			return limit
		}
	}

	return requested
}

// ConsumeCutoffWarning returns and clears the pending cutoff warning, if
// any. The event loop polls this once per tick after GetPowerLimited so the
// warning surfaces exactly once per cutoff engagement rather than once per
// tick cutoff stays engaged.
func (c *HybridPI) ConsumeCutoffWarning() string {
	msg := c.pendingWarning
	c.pendingWarning = ""
	return msg
}
