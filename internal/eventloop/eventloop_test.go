package eventloop

import (
	"errors"
	"testing"
	"time"

	"github.com/brettski74/milton/internal/milerr"
	"github.com/brettski74/milton/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSupply struct {
	polls     int
	lastPower float64
	onCalls   []bool
}

func (f *fakeSupply) Poll() (voltage, current, power, resistance float64, hasResistance bool, err error) {
	f.polls++
	return 10, 1, 10, 10, true, nil
}

func (f *fakeSupply) SetPower(p, r float64) error {
	f.lastPower = p
	return nil
}

func (f *fakeSupply) On(flag bool) error {
	f.onCalls = append(f.onCalls, flag)
	return nil
}

func (f *fakeSupply) Shutdown() error { return nil }

type fakeController struct{}

func (fakeController) GetTemperature(s *status.Status) (float64, error) {
	s.Temperature = 100
	return 100, nil
}

func (fakeController) GetRequiredPower(s *status.Status) float64 { return 50 }

func (fakeController) GetPowerLimited(s *status.Status, requested float64) float64 { return requested }

type stopAfterNTicks struct {
	n     int
	ticks int
}

func (c *stopAfterNTicks) Capabilities() Capabilities {
	return Capabilities{
		TimerEvent: func(s *status.Status) (Signal, error) {
			c.ticks++
			if c.ticks >= c.n {
				return Stop, nil
			}
			return Continue, nil
		},
	}
}

func TestEventLoop_StopsAfterCommandSignal(t *testing.T) {
	supply := &fakeSupply{}
	cmd := &stopAfterNTicks{n: 3}

	loop := New(supply, fakeController{}, nil, cmd, 5*time.Millisecond)
	history, err := loop.Run()

	assert.NoError(t, err)
	assert.Equal(t, 3, cmd.ticks)
	// Preprocess record + 3 timer records.
	assert.Equal(t, 4, len(history))
	assert.Equal(t, status.EventPreprocess, history[0].Event)
	assert.Equal(t, status.EventTimer, history[1].Event)
	assert.InDelta(t, 50.0, supply.lastPower, 1e-9)
	assert.Contains(t, supply.onCalls, false) // shutdown turns output off
}

type withPostprocess struct {
	stopAfterNTicks
	postprocessed []*status.Status
}

func (c *withPostprocess) Capabilities() Capabilities {
	caps := c.stopAfterNTicks.Capabilities()
	caps.Postprocess = func(history []*status.Status) error {
		c.postprocessed = history
		return nil
	}
	return caps
}

func TestEventLoop_RunsPostprocessWithFullHistory(t *testing.T) {
	supply := &fakeSupply{}
	cmd := &withPostprocess{stopAfterNTicks: stopAfterNTicks{n: 2}}

	loop := New(supply, fakeController{}, nil, cmd, 5*time.Millisecond)
	history, err := loop.Run()

	assert.NoError(t, err)
	assert.Equal(t, history, cmd.postprocessed)
	assert.Equal(t, 3, len(cmd.postprocessed))
}

// flakySupply answers the preprocess poll, fails the failUntil polls that
// follow it (the first failUntil ticks), then succeeds, to exercise
// spec.md §7's retry-with-warning policy.
type flakySupply struct {
	pollCalls     int
	failUntil     int
	setPowerCalls int
	lastPower     float64
	onCalls       []bool
}

func (f *flakySupply) Poll() (voltage, current, power, resistance float64, hasResistance bool, err error) {
	f.pollCalls++
	if f.pollCalls > 1 && f.pollCalls <= f.failUntil+1 {
		return 0, 0, 0, 0, false, errors.New("transport hiccup")
	}
	return 10, 1, 10, 10, true, nil
}

func (f *flakySupply) SetPower(p, r float64) error {
	f.setPowerCalls++
	f.lastPower = p
	return nil
}

func (f *flakySupply) On(flag bool) error {
	f.onCalls = append(f.onCalls, flag)
	return nil
}

func (f *flakySupply) Shutdown() error { return nil }

type warnCapturingCommand struct {
	stopAfterNTicks
	warnings []string
}

func (c *warnCapturingCommand) Capabilities() Capabilities {
	caps := c.stopAfterNTicks.Capabilities()
	caps.Warn = func(message string) { c.warnings = append(c.warnings, message) }
	return caps
}

func TestEventLoop_PollFailureRetriesThenRecovers(t *testing.T) {
	supply := &flakySupply{failUntil: 1}
	cmd := &warnCapturingCommand{stopAfterNTicks: stopAfterNTicks{n: 2}}

	loop := New(supply, fakeController{}, nil, cmd, 5*time.Millisecond)
	history, err := loop.Run()

	assert.NoError(t, err)
	assert.Equal(t, 2, cmd.ticks)
	require.Len(t, cmd.warnings, 1)
	assert.Contains(t, cmd.warnings[0], "poll failed")
	// Preprocess + 1 failed-poll record + 2 successful timer records.
	assert.Equal(t, 4, len(history))
}

func TestEventLoop_PollFailureEscalatesAfterWindow(t *testing.T) {
	supply := &flakySupply{failUntil: 100}
	cmd := &warnCapturingCommand{stopAfterNTicks: stopAfterNTicks{n: 10}}

	loop := New(supply, fakeController{}, nil, cmd, 5*time.Millisecond)
	loop.FailureWindow = 2
	_, err := loop.Run()

	require.Error(t, err)
	var milErr *milerr.Error
	require.ErrorAs(t, err, &milErr)
	assert.Equal(t, milerr.ConnectFailure, milErr.Kind)
	// The preprocess poll plus FailureWindow failed tick polls.
	assert.Equal(t, 3, supply.pollCalls)
}

// warningOnceController reports a cutoff warning exactly once, mirroring
// HybridPI.ConsumeCutoffWarning's consume-and-clear behavior.
type warningOnceController struct {
	fakeController
	pending string
}

func (c *warningOnceController) ConsumeCutoffWarning() string {
	msg := c.pending
	c.pending = ""
	return msg
}

func TestEventLoop_SurfacesCutoffWarningOnce(t *testing.T) {
	supply := &fakeSupply{}
	controller := &warningOnceController{pending: "thermal cutoff engaged"}
	cmd := &warnCapturingCommand{stopAfterNTicks: stopAfterNTicks{n: 2}}

	loop := New(supply, controller, nil, cmd, 5*time.Millisecond)
	_, err := loop.Run()

	assert.NoError(t, err)
	require.Len(t, cmd.warnings, 1)
	assert.Equal(t, "thermal cutoff engaged", cmd.warnings[0])
}
