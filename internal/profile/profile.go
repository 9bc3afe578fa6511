// Package profile implements the ProfileEngine leaf of the thermal
// pipeline (spec.md §4.8): a piecewise-linear time-to-temperature
// schedule built from an ordered sequence of stages, with stage attribute
// lookup and an anticipation lookahead for controllers that report one.
package profile

import (
	"math"

	"github.com/brettski74/milton/internal/status"
	"github.com/brettski74/milton/internal/thermal/pwlinear"
)

// Stage is one segment of a reflow (or other thermal) profile.
type Stage struct {
	Name           string
	Seconds        float64
	Temperature    float64
	Fan            bool
	DisableLimits  bool
	DisableCutoff  bool
}

// AnticipationSource is implemented by controllers that can report how
// many ticks ahead they look when computing feed-forward power (spec.md
// §4.8). A horizon of 0 means no anticipation is requested this tick.
type AnticipationSource interface {
	AnticipationHorizon() int
}

// Engine accumulates stage durations into absolute `when` timestamps on
// first use, then answers then/now/anticipate temperature lookups and
// stage-attribute queries for each tick.
type Engine struct {
	stages []Stage

	defaultAmbient float64

	built    bool
	schedule *pwlinear.PiecewiseLinear
	whens    []float64 // cumulative `when` for each stage, same index as stages
	lastWhen float64
}

// New constructs a profile engine from an ordered stage list. The stage
// schedule is not built until the first tick, matching the teacher's
// lazy-build idiom of deferring schedule construction to first use.
func New(stages []Stage) *Engine {
	return &Engine{stages: stages, defaultAmbient: 25}
}

// SetDefaultAmbient overrides the 25°C starting point used to seed the
// schedule before the first stage (see build).
func (e *Engine) SetDefaultAmbient(ambient float64) { e.defaultAmbient = ambient }

func (e *Engine) build() {
	if e.built {
		return
	}

	e.schedule = pwlinear.New()
	// Seed the schedule with a point at t=0 so lookups before the first
	// stage's `when` ramp up from ambient instead of extrapolating
	// backward along the first stage's slope.
	e.schedule.AddPoint(0, e.defaultAmbient)

	when := 0.0
	e.whens = make([]float64, len(e.stages))
	for i, st := range e.stages {
		when += st.Seconds
		e.schedule.AddPoint(when, st.Temperature, st.Name)
		e.whens[i] = when
	}
	e.lastWhen = when
	e.built = true
}

// Tick evaluates the profile for the current sample, writing
// then-temperature, now-temperature, stage attributes, and (when anticip
// is non-nil and reports a horizon >= 1) anticipate-temperature/period
// into the status record (spec.md §4.8).
func (e *Engine) Tick(s *status.Status, anticip AnticipationSource) {
	e.build()

	then := s.Now + s.Period

	thenTemp, _ := e.schedule.Estimate(then)
	nowTemp, _ := e.schedule.Estimate(s.Now)

	s.ThenTemperature = thenTemp
	s.NowTemperature = nowTemp

	e.applyStageAttributes(s, then)

	if anticip != nil {
		if k := anticip.AnticipationHorizon(); k >= 1 {
			horizon := float64(k+1) * s.Period
			anticipateTemp, _ := e.schedule.Estimate(s.Now + horizon)
			s.AnticipateTemperature = anticipateTemp
			s.AnticipatePeriod = horizon
			s.HasAnticipation = true
		}
	}
}

// applyStageAttributes resolves which stage governs time `then` and
// stamps its attributes onto the status record. Each non-final stage
// owns the half-open interval [previous `when`, this stage's `when`); a
// boundary moment belongs to the stage that starts there, not the one
// that ends there. The final stage's interval is closed at both ends.
// Once `then` exceeds every stage's `when`, the profile has finished and
// the synthetic "end" stage applies.
func (e *Engine) applyStageAttributes(s *status.Status, then float64) {
	if then > e.lastWhen {
		s.StageName = "end"
		s.StageFan = false
		s.StageDisableLimits = false
		s.StageDisableCutoff = false
		return
	}

	lower := 0.0
	for i, st := range e.stages {
		upper := e.whens[i]
		last := i == len(e.stages)-1

		if then >= lower && (then < upper || (last && then <= upper)) {
			s.StageName = st.Name
			s.StageFan = st.Fan
			s.StageDisableLimits = st.DisableLimits
			s.StageDisableCutoff = st.DisableCutoff
			return
		}
		lower = upper
	}
}

// Done reports the terminal condition: now rounded to the nearest period
// exceeds the last accumulated `when` (spec.md §4.8).
func (e *Engine) Done(now, period float64) bool {
	e.build()
	if period <= 0 {
		return now > e.lastWhen
	}
	rounded := math.Round(now/period) * period
	return rounded > e.lastWhen
}
