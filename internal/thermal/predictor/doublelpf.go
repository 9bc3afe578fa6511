package predictor

import (
	"math"

	"github.com/brettski74/milton/internal/status"
	"github.com/brettski74/milton/internal/thermal/filter"
)

// DoubleLPFParams are the tunable parameters of the cascaded-filter
// predictor (spec.md §4.5).
type DoubleLPFParams struct {
	TauInner      float64
	OuterOffset   float64
	OuterGradient float64
}

// DoubleLPF estimates hotplate-surface temperature from heating-element
// temperature via two cascaded filters: an inner single-pole IIR on the
// element temperature, then an outer blend toward ambient whose time
// constant itself depends on the inner filter's current output.
type DoubleLPF struct {
	params DoubleLPFParams
	period float64
	inner  *filter.LowPassFilter

	primed      bool
	intermediate float64
	predict     float64
}

// NewDoubleLPF constructs a predictor sampled every period seconds.
func NewDoubleLPF(period float64, params DoubleLPFParams) *DoubleLPF {
	return &DoubleLPF{
		params: params,
		period: period,
		inner:  filter.NewLowPassFilter(period, params.TauInner),
	}
}

// SetParams updates the tunable parameters (used by the offline tuner).
func (p *DoubleLPF) SetParams(params DoubleLPFParams) {
	p.params = params
	p.inner.SetTau(params.TauInner)
}

func (p *DoubleLPF) Params() DoubleLPFParams { return p.params }

func (p *DoubleLPF) PredictTemperature(s *status.Status) float64 {
	tElem := s.Temperature

	if !p.primed {
		// On first call, predict = T_elem (spec.md §4.5); also seed the
		// inner filter so later calls don't see a cold-start transient.
		p.inner.Reset()
		p.intermediate = p.inner.Next(tElem)
		p.predict = tElem
		p.primed = true
		s.PredictTemperature = p.predict
		return p.predict
	}

	p.intermediate = p.inner.Next(tElem)

	outerTau := math.Max(p.period, p.params.OuterGradient*p.intermediate+p.params.OuterOffset)
	alphaOuter := p.period / (p.period + outerTau)
	p.predict = alphaOuter*s.Ambient + (1-alphaOuter)*p.intermediate

	s.PredictTemperature = p.predict
	return p.predict
}

// Intermediate exposes the inner filter's current output, used by
// DoubleLPFPower's cascade inversion.
func (p *DoubleLPF) Intermediate() float64 { return p.intermediate }

// OuterAlpha computes alpha_outer for the current intermediate value,
// shared with DoubleLPFPower's predictPower inversion.
func (p *DoubleLPF) OuterAlpha() float64 {
	outerTau := math.Max(p.period, p.params.OuterGradient*p.intermediate+p.params.OuterOffset)
	return p.period / (p.period + outerTau)
}
