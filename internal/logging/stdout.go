package logging

import (
	"fmt"
	"time"

	"github.com/brettski74/milton/internal/status"
)

// stdoutLogger prints one summary line per tick, grounded in the
// teacher's logging.stdoutLogger (which does the same for dimmer output
// and PID state).
type stdoutLogger struct{}

// NewStdout returns a Logger that writes a one-line summary per tick to
// standard output.
func NewStdout() Logger { return stdoutLogger{} }

func (stdoutLogger) Log(s *status.Status) error {
	fmt.Printf("[%s] t=%.1fs stage=%s temp=%.2f set=%.2f power=%.2f\n",
		time.Now().Format(time.StampMilli), s.Now, s.StageName, s.Temperature, s.ThenTemperature, s.SetPower)
	return nil
}

func (stdoutLogger) LogWarning(message string) error {
	fmt.Printf("[%s] WARNING: %s\n", time.Now().Format(time.StampMilli), message)
	return nil
}

func (stdoutLogger) Close() error { return nil }
