package predictor

import (
	"math"

	"github.com/brettski74/milton/internal/milerr"
	"gonum.org/v1/gonum/stat"
)

// StepSample is one (time, value) observation of a response approaching a
// final value.
type StepSample struct {
	T float64
	Y float64
}

// StepFitResult reports the fitted first-order step-response parameters
// plus the OLS sums used to derive them, for testability (spec.md §4.4).
type StepFitResult struct {
	Tau         float64
	Amplitude   float64
	Capacitance float64 // zero unless a thermal resistance was supplied
	HasCapacitance bool

	Gradient  float64
	Intercept float64

	N  int
	Sx float64
	Sy float64
	Sxx float64
	Sxy float64
}

// FirstOrderStepEstimator fits ln(F-y) = a*t + b by ordinary least squares
// over samples of a response approaching a final value F from an initial
// value I, discarding samples past a given threshold fraction of the step
// (0.8 by default) and past an optional post-peak cutoff time.
type FirstOrderStepEstimator struct {
	// Threshold is the fraction of the total step beyond which samples are
	// discarded (default 0.8).
	Threshold float64
	// PostPeakCutoff, if positive, discards samples at or after this time.
	PostPeakCutoff float64
}

// NewFirstOrderStepEstimator returns an estimator with the default 80%
// threshold and no post-peak cutoff.
func NewFirstOrderStepEstimator() *FirstOrderStepEstimator {
	return &FirstOrderStepEstimator{Threshold: 0.8}
}

// Fit performs the regression. initial and final are I and F; resistance,
// if non-zero, is used to recover heat capacitance C = tau/R.
func (e *FirstOrderStepEstimator) Fit(samples []StepSample, initial, final, resistance float64) (*StepFitResult, error) {
	threshold := e.Threshold
	if threshold <= 0 {
		threshold = 0.8
	}

	direction := 1.0
	if final < initial {
		direction = -1.0
	}
	totalStep := math.Abs(final - initial)

	var xs, ys []float64
	for _, s := range samples {
		if e.PostPeakCutoff > 0 && s.T >= e.PostPeakCutoff {
			continue
		}

		remaining := direction * (final - s.Y)
		if remaining <= 0 {
			// Already at or past the final value: ln(F-y) undefined/negative infinity.
			continue
		}

		progressed := totalStep - remaining
		if totalStep > 0 && progressed/totalStep > threshold {
			continue
		}

		xs = append(xs, s.T)
		ys = append(ys, math.Log(remaining))
	}

	if len(xs) < 2 {
		return nil, milerr.New(milerr.InsufficientData, "fewer than two usable samples survived the fitting window")
	}

	intercept, gradient := stat.LinearRegression(xs, ys, nil, false)

	n := len(xs)
	var sx, sy, sxx, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
	}

	result := &StepFitResult{
		Gradient:  gradient,
		Intercept: intercept,
		N:         n,
		Sx:        sx,
		Sy:        sy,
		Sxx:       sxx,
		Sxy:       sxy,
	}

	if gradient < 0 {
		result.Tau = -1 / gradient
	}
	result.Amplitude = math.Exp(intercept)

	if resistance != 0 && result.Tau != 0 {
		result.Capacitance = result.Tau / resistance
		result.HasCapacitance = true
	}

	return result, nil
}
