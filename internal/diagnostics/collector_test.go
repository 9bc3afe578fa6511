package diagnostics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArrayCollector_AggregatesPercentiles(t *testing.T) {
	c := NewArray()
	for i := 1; i <= 100; i++ {
		c.Add(time.Duration(i) * time.Millisecond)
	}

	agg := c.Aggregate()
	assert.InDelta(t, 50*time.Millisecond, agg.P50, float64(2*time.Millisecond))
	assert.InDelta(t, 95*time.Millisecond, agg.P95, float64(2*time.Millisecond))
}

func TestArrayCollector_EmptyAggregateIsZero(t *testing.T) {
	c := NewArray()
	agg := c.Aggregate()
	assert.Zero(t, agg.P50)
}

func TestArrayCollector_Reset(t *testing.T) {
	c := NewArray()
	c.Add(10 * time.Millisecond)
	c.Reset()
	assert.Zero(t, c.Aggregate().P50)
}

func TestTachymeter_AggregatesPercentiles(t *testing.T) {
	c := NewTachymeter(128)
	for i := 1; i <= 100; i++ {
		c.Add(time.Duration(i) * time.Millisecond)
	}

	agg := c.Aggregate()
	assert.Greater(t, agg.P50, time.Duration(0))
}

func TestTime_RecordsDurationAndPropagatesError(t *testing.T) {
	c := NewArray()
	wantErr := errors.New("boom")

	err := Time(c, func() error {
		time.Sleep(time.Millisecond)
		return wantErr
	})

	assert.Equal(t, wantErr, err)
	assert.Equal(t, 1, len(c.(*arrayCollector).samples))
}
