package supply

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterface_PollReportsResistance(t *testing.T) {
	backend := NewSimulatedBackend(20, 10, 0.02)
	iface := New(backend)
	assert.NoError(t, iface.Connect())

	assert.NoError(t, iface.SetVoltage(10))

	v, c, p, r, hasR, err := iface.Poll()
	assert.NoError(t, err)
	assert.True(t, hasR)
	assert.InDelta(t, 10.0, v, 1e-9)
	assert.InDelta(t, 1.0, c, 1e-9)
	assert.InDelta(t, 10.0, p, 1e-9)
	assert.InDelta(t, 10.0, r, 1e-9)
}

func TestInterface_SetVoltageClampsToLimits(t *testing.T) {
	backend := NewSimulatedBackend(20, 10, 0.02)
	iface := New(backend)
	assert.NoError(t, iface.Connect())
	iface.SetVoltageLimits(Limits{Min: 0, Max: 15})

	assert.NoError(t, iface.SetVoltage(20))
	assert.Equal(t, 15.0, iface.GetVoltageSetPoint())
}

func TestInterface_SetPowerPrefersConstantVoltage(t *testing.T) {
	backend := NewSimulatedBackend(20, 10, 0.02)
	iface := New(backend)
	assert.NoError(t, iface.Connect())
	assert.NoError(t, iface.SetVoltage(10)) // seeds outputVoltage/outputCurrent via poll

	_, _, _, _, _, err := iface.Poll()
	assert.NoError(t, err)

	// power = 40W at R=10ohm -> v = sqrt(40*10) = 20V
	assert.NoError(t, iface.SetPower(40, 10))
	assert.InDelta(t, 20.0, iface.GetVoltageSetPoint(), 1e-9)
}

func TestInterface_SetPowerFailsWithoutResistance(t *testing.T) {
	backend := NewSimulatedBackend(20, 10, 0.02)
	iface := New(backend)
	assert.NoError(t, iface.Connect())

	err := iface.SetPower(40, 0)
	assert.Error(t, err)
}

func TestInterface_PollReadsBackVoltageAfterAdvance(t *testing.T) {
	backend := NewSimulatedBackend(20, 10, 0.02)
	iface := New(backend)
	assert.NoError(t, iface.Connect())
	assert.NoError(t, iface.On(true))
	assert.NoError(t, iface.SetVoltage(5))

	backend.Advance(1)
	v, _, _, _, _, err := iface.Poll()
	assert.NoError(t, err)
	assert.InDelta(t, 5.0, v, 1e-9)
}
