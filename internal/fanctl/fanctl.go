// Package fanctl actuates the cooling fan a profile stage may request
// (spec.md §4.8's `fan` stage attribute) through a GPIO output pin, using
// periph.io/x/periph the way the retrieved google-periph host examples
// initialize and drive a pin (periph.io/x/periph/host.Init plus
// conn/gpio/gpioreg.ByName).
package fanctl

import (
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"

	"github.com/brettski74/milton/internal/milerr"
)

// Fan drives a boolean output, satisfying eventloop.Fan.
type Fan interface {
	Set(on bool) error
}

// noopFan is returned when no GPIO pin is configured, so the event loop
// can always call Fan.Set without a nil check (spec.md §4.9a: "degrades
// to a no-op when no GPIO pin is configured").
type noopFan struct{}

func (noopFan) Set(bool) error { return nil }

// gpioFan drives a single periph.io GPIO output pin.
type gpioFan struct {
	pin gpio.PinIO
}

// New returns a Fan bound to pinName (e.g. "GPIO17"), or a no-op Fan if
// pinName is empty. host.Init() registers the platform's GPIO drivers;
// gpioreg.ByName resolves the named pin from that registry.
func New(pinName string) (Fan, error) {
	if pinName == "" {
		return noopFan{}, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, milerr.Wrap(milerr.ConnectFailure, "initializing periph host drivers", err)
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, milerr.New(milerr.ConnectFailure, "no such GPIO pin: "+pinName)
	}

	return &gpioFan{pin: pin}, nil
}

func (f *gpioFan) Set(on bool) error {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	return f.pin.Out(level)
}
