package tuner

import (
	"testing"

	"github.com/brettski74/milton/internal/status"
	"github.com/stretchr/testify/assert"
)

// linearModel predicts gain*s.Now + offset; used to verify Fit recovers
// known parameters from synthetic history.
type linearModel struct {
	gain, offset float64
}

func (m *linearModel) ApplyParams(values []float64) {
	m.gain = values[0]
	m.offset = values[1]
}

func (m *linearModel) Predict(s *status.Status) float64 {
	return m.gain*s.Now + m.offset
}

func (m *linearModel) PackageTag() string { return "linearModel" }

func TestTuner_FitRecoversKnownParameters(t *testing.T) {
	model := &linearModel{}

	var history []*status.Status
	for now := 0.0; now <= 100; now += 5 {
		s := status.New(status.EventTimer)
		s.Now = now
		s.Temperature = 2*now + 10
		history = append(history, s)
	}

	search := NewMinimumSearch(10, 0.05)
	tuner := NewTuner(model, search)

	axes := []ParamVector{
		{Name: "gain", Lo: 0, Hi: 5},
		{Name: "offset", Lo: 0, Hi: 20},
	}

	result, err := tuner.Fit(history, axes, 0, 100, 0, 1000, nil)
	assert.NoError(t, err)
	assert.InDelta(t, 2.0, result.Params["gain"], 0.2)
	assert.InDelta(t, 10.0, result.Params["offset"], 0.5)
	assert.Equal(t, "linearModel", result.PackageTag)
	assert.InDelta(t, 0, result.SSE, 1.0)
}

func TestTuner_FitFiltersHistoryWindow(t *testing.T) {
	model := &linearModel{}

	history := []*status.Status{
		{Now: 0, Temperature: 10},
		{Now: 200, Temperature: 99999}, // outside time window, must be excluded
	}

	search := NewMinimumSearch(4, 0.1)
	tuner := NewTuner(model, search)

	axes := []ParamVector{{Name: "gain", Lo: 0, Hi: 1}, {Name: "offset", Lo: 0, Hi: 20}}
	result, err := tuner.Fit(history, axes, 0, 100, 0, 1000, nil)
	assert.NoError(t, err)
	assert.Less(t, result.SSE, 99999.0)
}
