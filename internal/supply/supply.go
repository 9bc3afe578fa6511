// Package supply implements the Interface leaf of the thermal pipeline
// (spec.md §4.7): an abstraction over a programmable DC power supply, with
// per-channel calibration, a one-request-per-tick discipline and
// electrical limit clamping. Concrete backends (internal/transport's
// serial backend, or the in-process SimulatedBackend below) implement the
// six backend-private hooks; Interface wraps them with the cooked-value
// semantics and limit enforcement every caller sees.
package supply

import (
	"math"

	"github.com/brettski74/milton/internal/milerr"
)

// Backend is the set of private hooks a concrete power-supply driver must
// implement. Every method may perform at most one round trip to the
// physical or simulated device; Interface relies on this to uphold the
// one-request-per-tick discipline.
type Backend interface {
	Connect() (vset, iset float64, on bool, vout, iout float64, err error)
	Disconnect() error
	Poll() (vout, iout float64, onKnown bool, on bool, err error)
	SetVoltage(v float64) (ok bool, onKnown bool, on bool, isetKnown bool, iset float64, err error)
	SetCurrent(i float64) (ok bool, onKnown bool, on bool, vsetKnown bool, vset float64, err error)
	On(flag bool) (ok bool, err error)
}

// Limits describes a channel's operating envelope.
type Limits struct {
	Min float64
	Max float64
}

// Interface is the cooked-value, limit-enforcing, calibration-aware facade
// over a Backend (spec.md §4.7).
type Interface struct {
	backend Backend

	voltage ChannelCalibration
	current ChannelCalibration

	voltageLimits Limits
	currentLimits Limits
	powerLimits   Limits

	on bool

	voltageSetpoint float64
	currentSetpoint float64
	outputVoltage   float64
	outputCurrent   float64

	connected bool
}

// New constructs an Interface over backend with identity calibration and
// unbounded limits; callers configure calibration/limits via the setters
// below before the first poll.
func New(backend Backend) *Interface {
	return &Interface{
		backend:       backend,
		voltage:       NewIdentityChannelCalibration(),
		current:       NewIdentityChannelCalibration(),
		voltageLimits: Limits{Min: 0, Max: math.Inf(1)},
		currentLimits: Limits{Min: 0, Max: math.Inf(1)},
		powerLimits:   Limits{Min: 0, Max: math.Inf(1)},
	}
}

// SetVoltageCalibration installs the voltage channel's calibration tables.
func (i *Interface) SetVoltageCalibration(c ChannelCalibration) { i.voltage = c }

// SetCurrentCalibration installs the current channel's calibration tables.
func (i *Interface) SetCurrentCalibration(c ChannelCalibration) { i.current = c }

// SetVoltageLimits sets the clamp applied before every voltage setpoint is
// sent to the backend.
func (i *Interface) SetVoltageLimits(l Limits) { i.voltageLimits = l }

// SetCurrentLimits sets the clamp applied before every current setpoint is
// sent to the backend.
func (i *Interface) SetCurrentLimits(l Limits) { i.currentLimits = l }

// SetPowerLimits bounds the power envelope used by SetPower.
func (i *Interface) SetPowerLimits(l Limits) { i.powerLimits = l }

// Connect performs the backend's one-time connection round trip and seeds
// the cooked setpoint/output state from it.
func (i *Interface) Connect() error {
	vset, iset, on, vout, iout, err := i.backend.Connect()
	if err != nil {
		return milerr.Wrap(milerr.ConnectFailure, "connecting to power supply", err)
	}

	i.voltageSetpoint = estimateOrIdentity(i.voltage.Setpoint, vset)
	i.currentSetpoint = estimateOrIdentity(i.current.Setpoint, iset)
	i.on = on
	i.outputVoltage = estimateOrIdentity(i.voltage.Output, vout)
	i.outputCurrent = estimateOrIdentity(i.current.Output, iout)
	i.connected = true
	return nil
}

// Shutdown disconnects from the backend.
func (i *Interface) Shutdown() error {
	if !i.connected {
		return nil
	}
	i.connected = false
	return i.backend.Disconnect()
}

// ResetCalibration restores identity calibration on both channels, used by
// the `--reset` CLI flag (spec.md §6).
func (i *Interface) ResetCalibration() {
	i.voltage = NewIdentityChannelCalibration()
	i.current = NewIdentityChannelCalibration()
}

// Poll performs the single poll round trip for this tick, writing cooked
// voltage/current/power/resistance into the supplied fields via the
// returned values; callers (the event loop) stamp these onto the Status
// record.
func (i *Interface) Poll() (voltage, current, power, resistance float64, hasResistance bool, err error) {
	vout, iout, onKnown, on, err := i.backend.Poll()
	if err != nil {
		return 0, 0, 0, 0, false, milerr.Wrap(milerr.ConnectFailure, "polling power supply", err)
	}

	if onKnown {
		i.on = on
	}

	i.outputVoltage = estimateOrIdentity(i.voltage.Output, vout)
	i.outputCurrent = estimateOrIdentity(i.current.Output, iout)

	voltage = i.outputVoltage
	current = i.outputCurrent
	power = voltage * current

	if current > 0 {
		resistance = voltage / current
		hasResistance = true
	}

	return voltage, current, power, resistance, hasResistance, nil
}

// SetVoltage requests a cooked voltage output, clamped to the voltage
// channel's limits, in a single round trip.
func (i *Interface) SetVoltage(v float64) error {
	v = clamp(v, i.voltageLimits)
	raw := estimateOrIdentity(i.voltage.Requested, v)

	ok, onKnown, on, isetKnown, iset, err := i.backend.SetVoltage(raw)
	if err != nil {
		return milerr.Wrap(milerr.ConnectFailure, "setting voltage", err)
	}
	if ok {
		i.voltageSetpoint = v
	}
	if onKnown {
		i.on = on
	}
	if isetKnown {
		i.currentSetpoint = estimateOrIdentity(i.current.Setpoint, iset)
	}
	return nil
}

// SetCurrent requests a cooked current output, clamped to the current
// channel's limits, in a single round trip.
func (i *Interface) SetCurrent(c float64) error {
	c = clamp(c, i.currentLimits)
	raw := estimateOrIdentity(i.current.Requested, c)

	ok, onKnown, on, vsetKnown, vset, err := i.backend.SetCurrent(raw)
	if err != nil {
		return milerr.Wrap(milerr.ConnectFailure, "setting current", err)
	}
	if ok {
		i.currentSetpoint = c
	}
	if onKnown {
		i.on = on
	}
	if vsetKnown {
		i.voltageSetpoint = estimateOrIdentity(i.voltage.Setpoint, vset)
	}
	return nil
}

// SetPower requests power p watts, preferring constant-voltage mode:
// v = sqrt(p*R). R is taken from resistance if supplied (non-zero),
// otherwise from the last polled resistance; if neither is available and
// the last polled current was <= 0, the call fails with
// ResistanceUnavailable (spec.md §4.7). The result is clamped to the
// configured power envelope and to the implied current limit p/v before
// being sent, and costs exactly one backend round trip via SetVoltage.
func (i *Interface) SetPower(p float64, resistance float64) error {
	p = clamp(p, i.powerLimits)

	r := resistance
	if r == 0 {
		if i.outputCurrent <= 0 {
			return milerr.New(milerr.ResistanceUnavailable, "no resistance available to compute constant-voltage setpoint")
		}
		r = i.outputVoltage / i.outputCurrent
	}

	v := math.Sqrt(p * r)

	if v > 0 {
		impliedCurrentLimit := i.currentLimits.Max
		if impliedCurrentLimit > 0 && !math.IsInf(impliedCurrentLimit, 1) {
			maxVoltageForCurrent := impliedCurrentLimit * r
			if v > maxVoltageForCurrent {
				v = maxVoltageForCurrent
			}
		}
	}

	return i.SetVoltage(v)
}

// On requests the output enable state in a single round trip.
func (i *Interface) On(flag bool) error {
	ok, err := i.backend.On(flag)
	if err != nil {
		return milerr.Wrap(milerr.ConnectFailure, "toggling output enable", err)
	}
	if ok {
		i.on = flag
	}
	return nil
}

func (i *Interface) IsOn() bool                    { return i.on }
func (i *Interface) GetVoltageSetPoint() float64   { return i.voltageSetpoint }
func (i *Interface) GetCurrentSetPoint() float64   { return i.currentSetpoint }
func (i *Interface) GetOutputVoltage() float64     { return i.outputVoltage }
func (i *Interface) GetOutputCurrent() float64     { return i.outputCurrent }
func (i *Interface) GetVoltageLimits() Limits      { return i.voltageLimits }
func (i *Interface) GetCurrentLimits() Limits      { return i.currentLimits }
func (i *Interface) GetPowerLimits() Limits        { return i.powerLimits }

func clamp(v float64, l Limits) float64 {
	if v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}
