package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brettski74/milton/internal/status"
)

func TestStatusServer_LatestIsNilUntilRecorded(t *testing.T) {
	s := NewStatusServer()
	assert.Nil(t, s.Latest())

	sample := status.New(status.EventTimer)
	sample.Temperature = 150
	s.Record(sample)

	assert.Equal(t, sample, s.Latest())
}

func TestStatusServer_HistoryCSVIncludesEveryRecordedSample(t *testing.T) {
	s := NewStatusServer()

	a := status.New(status.EventTimer)
	a.Now, a.Temperature, a.StageName = 0, 25, "preheat"
	s.Record(a)

	b := status.New(status.EventTimer)
	b.Now, b.Temperature, b.StageName = 1, 30, "preheat"
	s.Record(b)

	csv := s.HistoryCSV()
	assert.Contains(t, csv, "now,temperature,power,set_power,stage")
	assert.Contains(t, csv, "preheat")
}

func TestStatusServer_InjectKeyIsConsumedFromKeysChannel(t *testing.T) {
	s := NewStatusServer()
	assert.True(t, s.InjectKey('q'))

	select {
	case k := <-s.Keys():
		assert.Equal(t, byte('q'), k)
	default:
		t.Fatal("expected injected key to be readable from Keys()")
	}
}

func TestStatusServer_InjectKeyReportsFalseWhenBufferFull(t *testing.T) {
	s := NewStatusServer()
	for i := 0; i < 16; i++ {
		assert.True(t, s.InjectKey('a'))
	}
	assert.False(t, s.InjectKey('b'))
}
