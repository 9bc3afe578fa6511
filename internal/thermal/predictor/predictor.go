package predictor

import "github.com/brettski74/milton/internal/status"

// Predictor turns the current tick's heating-element temperature into an
// estimated hotplate-surface temperature, writing the result into the
// status record's PredictTemperature field (spec.md §4.5).
type Predictor interface {
	PredictTemperature(s *status.Status) float64
}

// PowerPredictor is implemented by predictors able to invert their own
// thermal model to compute the feed-forward power needed to reach a target
// temperature (spec.md §4.5's DoubleLPFPower.predictPower).
type PowerPredictor interface {
	Predictor
	PredictPower(s *status.Status) float64
}

// PassThrough reports the heating-element temperature unchanged; used for
// testing the rest of the pipeline without thermal lag.
type PassThrough struct{}

func NewPassThrough() *PassThrough { return &PassThrough{} }

func (p *PassThrough) PredictTemperature(s *status.Status) float64 {
	s.PredictTemperature = s.Temperature
	return s.Temperature
}
