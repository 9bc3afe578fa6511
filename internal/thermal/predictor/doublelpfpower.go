package predictor

import (
	"math"

	"github.com/brettski74/milton/internal/status"
	"github.com/brettski74/milton/internal/thermal/pwlinear"
)

// DoubleLPFPower extends DoubleLPF with a third stage modeling heating
// element temperature as a function of applied power, letting it invert
// the whole cascade to compute the feed-forward power needed to reach a
// requested next hotplate temperature (spec.md §4.5).
type DoubleLPFPower struct {
	*DoubleLPF

	tauPower *pwlinear.PiecewiseLinear // temperature -> tau_power
	gain     *pwlinear.PiecewiseLinear // temperature -> gain

	elemPrimed bool
	elemPrev   float64
}

// NewDoubleLPFPower wraps a DoubleLPF with the power-to-temperature tables.
// Both tables map heating-element temperature to, respectively, the
// power-stage time constant and the steady-state gain (°C per watt).
func NewDoubleLPFPower(period float64, params DoubleLPFParams, tauPower, gain *pwlinear.PiecewiseLinear) *DoubleLPFPower {
	return &DoubleLPFPower{
		DoubleLPF: NewDoubleLPF(period, params),
		tauPower:  tauPower,
		gain:      gain,
	}
}

// PredictPower computes the power required during the next period to reach
// status.ThenTemperature (the profile's requested next hotplate
// temperature), given the current heating-element temperature and the
// predictor's current cascade state. This is the controller's
// feed-forward term (spec.md §4.6).
//
// The open question in spec.md §9 about `power-iir` never being seeded is
// resolved here: the internal element-temperature estimate used by the
// power stage is seeded from the first observed temperature rather than
// left at zero, matching how DoubleLPF itself seeds `predict = T_elem` on
// its first call.
func (p *DoubleLPFPower) PredictPower(s *status.Status) float64 {
	if !p.elemPrimed {
		p.elemPrev = s.Temperature
		p.elemPrimed = true
	}

	tauPower, err := p.tauPower.Estimate(s.Temperature)
	if err != nil {
		tauPower = p.period
	}
	gain, err := p.gain.Estimate(s.Temperature)
	if err != nil || math.Abs(gain) < 1e-9 {
		// No usable gain curve: no feed-forward contribution.
		return 0
	}

	alphaPower := p.period / (p.period + tauPower)
	alphaInner := p.period / (p.period + p.params.TauInner)
	alphaOuter := p.OuterAlpha()

	target := s.ThenTemperature

	// Invert the outer stage: predict = alphaOuter*ambient + (1-alphaOuter)*intermediate.
	intermediateTarget := target
	if alphaOuter < 1 {
		intermediateTarget = (target - alphaOuter*s.Ambient) / (1 - alphaOuter)
	}

	// Invert the inner stage: intermediate = alphaInner*T_elem + (1-alphaInner)*intermediate_prev.
	elemTarget := intermediateTarget
	if alphaInner > 0 {
		elemTarget = (intermediateTarget - (1-alphaInner)*p.Intermediate()) / alphaInner
	}

	// Invert the power stage: T_elem,next = alphaPower*T_ss + (1-alphaPower)*T_elem,prev.
	tssTarget := elemTarget
	if alphaPower > 0 {
		tssTarget = (elemTarget - (1-alphaPower)*p.elemPrev) / alphaPower
	}

	// Invert the steady-state formula: T_ss = ambient + power*gain.
	power := (tssTarget - s.Ambient) / gain

	p.elemPrev = elemTarget
	s.Set("feedforward-power", power)
	return power
}
