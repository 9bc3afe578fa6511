// Package transport implements the backend-private hooks of the supply
// Interface against real hardware, grounded on the line-oriented
// request/response pattern the corpus's other serial-device drivers use
// (connect with an explicit Mode, write a command line, read a
// newline-terminated response with a deadline).
package transport

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/brettski74/milton/internal/milerr"
)

// SerialConfig holds connection configuration for a serial-attached power
// supply.
type SerialConfig struct {
	PortPath string `yaml:"port" json:"port"`
	BaudRate int    `yaml:"baud_rate" json:"baudRate"`
	Timeout  time.Duration
}

// SerialBackend drives a power supply over a line-oriented ASCII serial
// protocol: `V<value>\n` / `I<value>\n` set voltage/current, `O0\n`/`O1\n`
// toggle output, and `?\n` requests a `<vout>,<iout>,<on>\n` status line.
// Any concrete supply's actual dialect differs; this backend is the shape
// the rest of the pipeline is written against.
type SerialBackend struct {
	cfg    SerialConfig
	port   serial.Port
	reader *bufio.Reader
}

// NewSerialBackend constructs a backend for the given configuration,
// defaulting BaudRate to 9600 and Timeout to 500ms when unset.
func NewSerialBackend(cfg SerialConfig) *SerialBackend {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 9600
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 500 * time.Millisecond
	}
	return &SerialBackend{cfg: cfg}
}

func (b *SerialBackend) Connect() (vset, iset float64, on bool, vout, iout float64, err error) {
	mode := &serial.Mode{
		BaudRate: b.cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(b.cfg.PortPath, mode)
	if err != nil {
		return 0, 0, false, 0, 0, fmt.Errorf("opening %s: %w", b.cfg.PortPath, err)
	}
	if err := port.SetReadTimeout(b.cfg.Timeout); err != nil {
		port.Close()
		return 0, 0, false, 0, 0, fmt.Errorf("setting read timeout: %w", err)
	}

	b.port = port
	b.reader = bufio.NewReader(port)

	vout, iout, onKnown, on, err := b.Poll()
	if err != nil {
		port.Close()
		return 0, 0, false, 0, 0, err
	}
	_ = onKnown
	return vout, iout, on, vout, iout, nil
}

func (b *SerialBackend) Disconnect() error {
	if b.port == nil {
		return nil
	}
	return b.port.Close()
}

func (b *SerialBackend) Poll() (vout, iout float64, onKnown bool, on bool, err error) {
	line, err := b.request("?")
	if err != nil {
		return 0, 0, false, false, err
	}

	parts := strings.Split(line, ",")
	if len(parts) < 2 {
		return 0, 0, false, false, fmt.Errorf("malformed status line %q", line)
	}

	vout, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false, false, fmt.Errorf("parsing voltage: %w", err)
	}
	iout, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false, false, fmt.Errorf("parsing current: %w", err)
	}

	if len(parts) >= 3 {
		onFlag := strings.TrimSpace(parts[2])
		on = onFlag == "1"
		onKnown = true
	}

	return vout, iout, onKnown, on, nil
}

func (b *SerialBackend) SetVoltage(v float64) (ok bool, onKnown bool, on bool, isetKnown bool, iset float64, err error) {
	_, err = b.request(fmt.Sprintf("V%.4f", v))
	if err != nil {
		return false, false, false, false, 0, err
	}
	return true, false, false, false, 0, nil
}

func (b *SerialBackend) SetCurrent(c float64) (ok bool, onKnown bool, on bool, vsetKnown bool, vset float64, err error) {
	_, err = b.request(fmt.Sprintf("I%.4f", c))
	if err != nil {
		return false, false, false, false, 0, err
	}
	return true, false, false, false, 0, nil
}

func (b *SerialBackend) On(flag bool) (ok bool, err error) {
	cmd := "O0"
	if flag {
		cmd = "O1"
	}
	_, err = b.request(cmd)
	if err != nil {
		return false, err
	}
	return true, nil
}

// request writes cmd terminated by a newline and reads a single
// newline-terminated response line. Every exported method performs
// exactly one such round trip, matching the one-request-per-tick
// discipline the Interface facade depends on.
func (b *SerialBackend) request(cmd string) (string, error) {
	if b.port == nil {
		return "", fmt.Errorf("serial backend not connected")
	}

	if _, err := b.port.Write([]byte(cmd + "\n")); err != nil {
		return "", fmt.Errorf("writing command %q: %w", cmd, err)
	}

	line, err := b.reader.ReadString('\n')
	if err != nil {
		// A dropped byte or a response that never arrives within
		// SetReadTimeout shows up here as a plain read error; the supply
		// itself is rarely at fault, so callers treat this as the
		// retryable ProtocolTimeout kind rather than a fatal connection
		// failure (spec.md §7).
		return "", milerr.Wrap(milerr.ProtocolTimeout, fmt.Sprintf("reading response to %q", cmd), err)
	}
	return strings.TrimSpace(line), nil
}
