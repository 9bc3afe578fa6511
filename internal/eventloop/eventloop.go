package eventloop

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/brettski74/milton/internal/milerr"
	"github.com/brettski74/milton/internal/profile"
	"github.com/brettski74/milton/internal/status"
)

// Supply is the subset of supply.Interface the event loop drives.
type Supply interface {
	Poll() (voltage, current, power, resistance float64, hasResistance bool, err error)
	SetPower(p, resistance float64) error
	On(flag bool) error
	Shutdown() error
}

// Controller is the subset of controlloop.HybridPI the event loop drives.
type Controller interface {
	GetTemperature(s *status.Status) (float64, error)
	GetRequiredPower(s *status.Status) float64
	GetPowerLimited(s *status.Status, requested float64) float64
}

// Fan actuates the profile's per-stage fan attribute; internal/fanctl's
// Fan satisfies this.
type Fan interface {
	Set(on bool) error
}

// cutoffWarner is optionally implemented by a Controller that wants to
// surface a one-time warning when its thermal cutoff engages (spec.md §7).
// controlloop.HybridPI implements it.
type cutoffWarner interface {
	ConsumeCutoffWarning() string
}

// Clock abstracts elapsed-time reads for the `now` field, independent of
// wall-clock ticking (so tests can drive ticks without real time passing).
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// EventLoop is the fixed-period state machine of spec.md §4.9:
// Init -> Preprocess -> Ticking <-> KeyInput -> Postprocess -> Shutdown.
type EventLoop struct {
	Supply     Supply
	Controller Controller
	Profile    *profile.Engine
	Command    Command
	Fan        Fan // optional, nil if no fan configured

	Period time.Duration
	Clock  Clock

	// FailureWindow is the number of consecutive poll failures tolerated
	// before a transient transport error escalates to a fatal shutdown
	// (spec.md §7). Defaults to 5 when zero.
	FailureWindow int

	// Keys, if non-nil, is read for keystrokes during the KeyInput state.
	// Only consulted when the command exposes KeyEvent.
	Keys <-chan byte

	caps    Capabilities
	history []*status.Status
	start   time.Time

	pollFailures   int
	lastPower      float64
	lastResistance float64

	sigCh  chan os.Signal
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs an EventLoop. Period is the fixed tick interval; Clock
// defaults to the real wall clock when nil.
func New(supply Supply, controller Controller, prof *profile.Engine, cmd Command, period time.Duration) *EventLoop {
	return &EventLoop{
		Supply:        supply,
		Controller:    controller,
		Profile:       prof,
		Command:       cmd,
		Period:        period,
		Clock:         realClock{},
		FailureWindow: 5,
	}
}

// Run drives the full state machine to completion, returning the final
// run history. It installs SIGINT/SIGTERM/SIGQUIT handling for a
// single-shot clean shutdown (spec.md §4.9's Cancellation clause) and
// guarantees the supply is turned off and disconnected on every exit path,
// including panics.
func (e *EventLoop) Run() (history []*status.Status, err error) {
	// Init.
	e.caps = e.Command.Capabilities()
	e.history = nil
	e.start = e.Clock.Now()
	e.pollFailures = 0
	if e.FailureWindow <= 0 {
		e.FailureWindow = 5
	}

	e.sigCh = make(chan os.Signal, 1)
	signal.Notify(e.sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(e.sigCh)

	e.stopCh = make(chan struct{})

	defer func() {
		if shutdownErr := e.shutdown(); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}()

	if e.caps.Initialize != nil {
		if initErr := e.caps.Initialize(); initErr != nil {
			return nil, initErr
		}
	}

	ranPreprocess, err := e.runPreprocess()
	if err != nil {
		return e.history, err
	}

	interrupted := false
	if ranPreprocess {
		interrupted, err = e.runTicking()
		if err != nil {
			return e.history, err
		}
	}

	if e.caps.Postprocess != nil && len(e.history) > 0 && (!interrupted || e.postprocessOnInterrupt()) {
		if postErr := e.caps.Postprocess(e.history); postErr != nil {
			return e.history, postErr
		}
	}

	return e.history, nil
}

// postprocessOnInterrupt reports whether this command opts into running
// Postprocess after an interrupted run. Commands do this by also exposing
// a zero-argument capability check; absent that, an interrupted run skips
// Postprocess per spec.md §4.9's Cancellation clause.
func (e *EventLoop) postprocessOnInterrupt() bool {
	type interruptOptIn interface {
		PostprocessOnInterrupt() bool
	}
	if opt, ok := e.Command.(interruptOptIn); ok {
		return opt.PostprocessOnInterrupt()
	}
	return false
}

func (e *EventLoop) runPreprocess() (bool, error) {
	s := status.New(status.EventPreprocess)
	if err := e.poll(s); err != nil {
		return false, err
	}

	if e.caps.Preprocess != nil {
		sig, err := e.caps.Preprocess(s)
		if err != nil {
			return false, err
		}
		if sig == Stop {
			e.history = append(e.history, s.Clone())
			return false, nil
		}
	}

	e.history = append(e.history, s.Clone())
	return true, nil
}

// runTicking runs the Ticking/KeyInput states until the command signals
// Stop, the profile finishes, or a termination signal arrives. Returns
// whether the run was interrupted by a signal.
func (e *EventLoop) runTicking() (interrupted bool, err error) {
	ticker := time.NewTicker(e.Period)
	defer ticker.Stop()

	periodSeconds := e.Period.Seconds()

	for {
		select {
		case <-e.sigCh:
			return true, nil

		case <-ticker.C:
			s := status.New(status.EventTimer)
			s.Now = e.Clock.Now().Sub(e.start).Seconds()
			s.Period = periodSeconds

			if pollErr := e.poll(s); pollErr != nil {
				e.pollFailures++
				if e.pollFailures >= e.FailureWindow {
					msg := fmt.Sprintf("poll failed %d times consecutively, escalating to shutdown", e.pollFailures)
					e.warn(fmt.Sprintf("%s: %v", msg, pollErr))
					return false, milerr.Wrap(milerr.ConnectFailure, msg, pollErr)
				}

				e.warn(fmt.Sprintf("poll failed (attempt %d/%d), holding last power setting: %v", e.pollFailures, e.FailureWindow, pollErr))

				// Best-effort: keep driving the supply with the last
				// known-good setpoint rather than leaving it at whatever
				// it was mid-command (spec.md §7).
				if setErr := e.Supply.SetPower(e.lastPower, e.lastResistance); setErr != nil {
					e.warn(fmt.Sprintf("best-effort SetPower also failed: %v", setErr))
				}

				e.history = append(e.history, s.Clone())
				continue
			}
			e.pollFailures = 0

			if _, tErr := e.Controller.GetTemperature(s); tErr != nil {
				return false, tErr
			}

			if e.Profile != nil {
				var anticip profile.AnticipationSource
				if a, ok := e.Controller.(profile.AnticipationSource); ok {
					anticip = a
				}
				e.Profile.Tick(s, anticip)
			}

			if e.Fan != nil {
				if fanErr := e.Fan.Set(s.StageFan); fanErr != nil {
					return false, fanErr
				}
			}

			requested := e.Controller.GetRequiredPower(s)
			limited := e.Controller.GetPowerLimited(s, requested)

			if w, ok := e.Controller.(cutoffWarner); ok {
				if msg := w.ConsumeCutoffWarning(); msg != "" {
					e.warn(msg)
				}
			}

			if setErr := e.Supply.SetPower(limited, s.Resistance); setErr != nil {
				return false, setErr
			}
			e.lastPower = limited
			e.lastResistance = s.Resistance

			sig := Continue
			if e.caps.TimerEvent != nil {
				var tErr error
				sig, tErr = e.caps.TimerEvent(s)
				if tErr != nil {
					e.history = append(e.history, s.Clone())
					return false, tErr
				}
			}

			e.history = append(e.history, s.Clone())

			if sig == Stop {
				return false, nil
			}

			if e.Profile != nil && e.Profile.Done(s.Now, s.Period) {
				return false, nil
			}

		case key, ok := <-e.Keys:
			if !ok || e.caps.KeyEvent == nil {
				continue
			}

			s := status.New(status.EventKey)
			s.Now = e.Clock.Now().Sub(e.start).Seconds()
			s.Key = string(rune(key))

			sig, kErr := e.caps.KeyEvent(s)
			if kErr != nil {
				e.history = append(e.history, s.Clone())
				return false, kErr
			}

			e.history = append(e.history, s.Clone())

			if sig == Stop {
				return false, nil
			}
		}
	}
}

// warn forwards a warning-level notice to the command's Warn capability, if
// it installed one; otherwise the notice is dropped.
func (e *EventLoop) warn(message string) {
	if e.caps.Warn != nil {
		e.caps.Warn(message)
	}
}

func (e *EventLoop) poll(s *status.Status) error {
	voltage, current, power, resistance, hasResistance, err := e.Supply.Poll()
	if err != nil {
		return milerr.Wrap(milerr.ConnectFailure, "polling supply during event loop tick", err)
	}

	s.Voltage = voltage
	s.Current = current
	s.Power = power
	s.Resistance = resistance
	s.HasResistance = hasResistance
	return nil
}

// shutdown turns the supply's output off and disconnects it. This must
// run even on abnormal termination (spec.md §4.9), so Run defers it
// unconditionally.
func (e *EventLoop) shutdown() error {
	if e.Supply == nil {
		return nil
	}

	var errs []error
	if err := e.Supply.On(false); err != nil {
		errs = append(errs, err)
	}
	if err := e.Supply.Shutdown(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("shutdown: %v", errs)
}
