package supply

// SimulatedBackend is an in-process Backend driving a simple thermal-mass
// plant, adapted from controller.waterBoiler: heat accumulates
// proportional to power*elapsed and dissipates at a constant rate. The
// supply tests use it, and `milton run` falls back to it when no serial
// port is configured, so no real supply needs to be attached.
type SimulatedBackend struct {
	Resistance float64 // ohms, assumed constant
	Dissipation float64 // degrees lost per second regardless of power

	temperature float64
	voltage     float64
	current     float64
	on          bool
}

// NewSimulatedBackend constructs a backend starting at the given ambient
// temperature.
func NewSimulatedBackend(initialTemperature, resistance, dissipation float64) *SimulatedBackend {
	return &SimulatedBackend{
		Resistance:  resistance,
		Dissipation: dissipation,
		temperature: initialTemperature,
	}
}

// Advance steps the simulated plant forward by elapsed seconds at the
// currently commanded voltage, the way waterBoiler.advance does for the
// PID controller's integration test.
func (b *SimulatedBackend) Advance(elapsed float64) {
	if b.on && b.voltage > 0 {
		power := b.voltage * b.voltage / b.Resistance
		b.temperature += power * elapsed / 100 // lumped thermal mass
	}
	b.temperature -= b.Dissipation * elapsed
}

// Temperature reports the plant's current simulated temperature, used by
// test harnesses to drive an RTD-equivalent resistance reading.
func (b *SimulatedBackend) Temperature() float64 { return b.temperature }

func (b *SimulatedBackend) Connect() (vset, iset float64, on bool, vout, iout float64, err error) {
	return 0, 0, false, b.voltage, b.current, nil
}

func (b *SimulatedBackend) Disconnect() error { return nil }

func (b *SimulatedBackend) Poll() (vout, iout float64, onKnown bool, on bool, err error) {
	return b.voltage, b.current, true, b.on, nil
}

func (b *SimulatedBackend) SetVoltage(v float64) (ok bool, onKnown bool, on bool, isetKnown bool, iset float64, err error) {
	b.voltage = v
	b.current = v / b.Resistance
	return true, true, b.on, false, 0, nil
}

func (b *SimulatedBackend) SetCurrent(c float64) (ok bool, onKnown bool, on bool, vsetKnown bool, vset float64, err error) {
	b.current = c
	b.voltage = c * b.Resistance
	return true, true, b.on, false, 0, nil
}

func (b *SimulatedBackend) On(flag bool) (ok bool, err error) {
	b.on = flag
	if !flag {
		b.voltage = 0
		b.current = 0
	}
	return true, nil
}
