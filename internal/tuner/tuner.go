package tuner

import (
	"github.com/brettski74/milton/internal/status"
)

// ParamVector names one axis of a predictor's or controller's tunable
// parameters, bounded to the range the search is allowed to explore.
type ParamVector struct {
	Name   string
	Lo, Hi float64
}

// Model is anything whose parameters can be swept by the offline Tuner:
// it applies a parameter vector and predicts a value for each history
// sample, from which the Tuner computes the squared tracking error.
type Model interface {
	// ApplyParams installs the given parameter values, in the same order
	// as the ParamVector list passed to Tuner.Fit.
	ApplyParams(values []float64)
	// Predict returns the model's predicted value for one history sample,
	// used to compute the biased SSE against the sample's actual value.
	Predict(s *status.Status) float64
	// PackageTag identifies which predictor/controller implementation
	// this model is, reported alongside the winning parameter vector.
	PackageTag() string
}

// Tuner wraps MinimumSearch to fit a Model's parameters against a subset
// of recorded run history (spec.md §4.10): samples are filtered by time
// and temperature cutoffs, then a biased sum-of-squared-error objective
// over that subset drives the search.
type Tuner struct {
	model  Model
	search *MinimumSearch
}

// NewTuner constructs a Tuner over the given model and search
// configuration.
func NewTuner(model Model, search *MinimumSearch) *Tuner {
	return &Tuner{model: model, search: search}
}

// FitResult reports the winning parameter vector and the model's package
// tag, for logging/diagnostics.
type FitResult struct {
	Params     map[string]float64
	PackageTag string
	SSE        float64
}

// Fit filters history to samples with Now in [timeLo, timeHi] and
// Temperature in [tempLo, tempHi], then runs the search, biasing the SSE
// objective by weight(s) for each retained sample (weight defaults to 1
// via uniformWeight when nil).
func (t *Tuner) Fit(history []*status.Status, axes []ParamVector, timeLo, timeHi, tempLo, tempHi float64, weight func(s *status.Status) float64) (*FitResult, error) {
	if weight == nil {
		weight = uniformWeight
	}

	var subset []*status.Status
	for _, s := range history {
		if s.Now < timeLo || s.Now > timeHi {
			continue
		}
		if s.Temperature < tempLo || s.Temperature > tempHi {
			continue
		}
		subset = append(subset, s)
	}

	searchAxes := make([]Axis, len(axes))
	for i, a := range axes {
		searchAxes[i] = Axis{Lo: a.Lo, Hi: a.Hi}
	}

	result, err := t.search.Run(searchAxes, func(point []float64) float64 {
		t.model.ApplyParams(point)

		var sse float64
		for _, s := range subset {
			predicted := t.model.Predict(s)
			err := predicted - s.Temperature
			sse += weight(s) * err * err
		}
		return sse
	})
	if err != nil {
		return nil, err
	}

	params := make(map[string]float64, len(axes))
	for i, a := range axes {
		params[a.Name] = result.Point[i]
	}

	return &FitResult{Params: params, PackageTag: t.model.PackageTag(), SSE: result.Value}, nil
}

func uniformWeight(*status.Status) float64 { return 1 }
