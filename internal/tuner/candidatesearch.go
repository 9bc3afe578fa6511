package tuner

import (
	"fmt"
	"sync"
	"time"
)

// ParamSetter installs a parameter value that influences tracking error
// (e.g. one axis of a predictor's or controller's tuning). Get reads the
// value currently in effect (used as the sampling mean); Set installs a
// new one.
type ParamSetter interface {
	Get() float64
	Set(value float64)
}

// ErrorSampler reports the most recent tracking-error samples (e.g.
// abs(predict-temperature - now-temperature) per tick) collected since
// the last Reset.
type ErrorSampler interface {
	Add(value float64)
	Reset()
	All() []float64
}

// CandidateSearch is the online candidate-vs-control background loop
// (spec.md §9 Design Notes), adapted from onlinetraining.OnlineTraining:
// it periodically samples a candidate parameter value via
// SampleTruncatedNormal, collects tracking-error samples under the
// current ("control") value and the candidate value, and promotes the
// candidate when a Kolmogorov-Smirnov test shows it's significantly
// better. It never touches the Interface, Controller, or EventLoop state
// directly; it only observes errors reported to it and adjusts the
// tunable parameter through ParamSetter.
type CandidateSearch struct {
	param   ParamSetter
	control ErrorSampler
	current ErrorSampler

	stddev        float64
	lo, hi        float64
	collectPeriod time.Duration
	percentile    Percentile

	mu           sync.Mutex
	usingCandidate bool

	started bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewCandidateSearch constructs a search over a single parameter bounded
// to [lo, hi], sampling candidates with the given standard deviation and
// collecting errorSampler samples for collectPeriod before each
// significance check.
func NewCandidateSearch(param ParamSetter, control, current ErrorSampler, lo, hi, stddev float64, collectPeriod time.Duration) *CandidateSearch {
	return &CandidateSearch{
		param:         param,
		control:       control,
		current:       current,
		stddev:        stddev,
		lo:            lo,
		hi:            hi,
		collectPeriod: collectPeriod,
		percentile:    P99d5,
	}
}

// Start runs the background search loop.
func (c *CandidateSearch) Start() error {
	if c.started {
		return fmt.Errorf("candidate search already started")
	}

	c.stop = make(chan struct{})
	c.wg.Add(1)
	go c.loop()
	c.started = true
	return nil
}

// Stop ends the background loop, restoring the control parameter value.
func (c *CandidateSearch) Stop() error {
	if !c.started {
		return fmt.Errorf("candidate search not started")
	}

	close(c.stop)
	c.wg.Wait()
	c.started = false
	return nil
}

// AddError records a tracking-error sample against whichever group
// (control or candidate) is currently active.
func (c *CandidateSearch) AddError(value float64) {
	c.mu.Lock()
	usingCandidate := c.usingCandidate
	c.mu.Unlock()

	if usingCandidate {
		c.current.Add(value)
	} else {
		c.control.Add(value)
	}
}

func (c *CandidateSearch) loop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		mean := c.param.Get()
		candidateValue := SampleTruncatedNormal(c.lo, c.hi, mean, c.stddev)

		c.control.Reset()
		c.current.Reset()

		// Collect the control group under the current value first.
		select {
		case <-c.stop:
			return
		case <-time.After(c.collectPeriod):
		}

		c.mu.Lock()
		c.usingCandidate = true
		c.mu.Unlock()
		c.param.Set(candidateValue)

		select {
		case <-c.stop:
			c.mu.Lock()
			c.usingCandidate = false
			c.mu.Unlock()
			c.param.Set(mean)
			return
		case <-time.After(c.collectPeriod):
		}

		c.mu.Lock()
		c.usingCandidate = false
		c.mu.Unlock()

		if c.improves() {
			// Keep the candidate value in effect; it's already installed.
			continue
		}

		// Revert to the pre-round value.
		c.param.Set(mean)
	}
}

// improves reports whether the candidate group's error distribution is
// significantly lower than the control group's, mirroring
// OnlineTraining.checkCandidateImprovesResponseTimes but comparing
// tracking error instead of response-time percentiles.
func (c *CandidateSearch) improves() bool {
	control := c.control.All()
	candidate := c.current.All()

	if len(control) < 2 || len(candidate) < 2 {
		return false
	}

	controlMean := mean(control)
	candidateMean := mean(candidate)
	if candidateMean >= controlMean {
		return false
	}

	return KolmogorovSmirnovRejects(control, candidate, c.percentile)
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
