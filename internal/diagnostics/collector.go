// Package diagnostics makes the latency claims of spec.md §5 ("95th
// percentile round-trip latency must stay well inside the period")
// observable: a small Collector interface for round-trip latency samples
// (such as Interface.poll and Interface.setPower calls), with two
// interchangeable implementations grounded on the teacher's two
// response-time-collector strategies. The run loop does not record into a
// Collector; callers time the calls they want measured.
package diagnostics

import "time"

// Aggregation reports the latency percentiles spec.md §5 cares about.
type Aggregation struct {
	P50 time.Duration
	P95 time.Duration
	P99 time.Duration
}

// Collector accumulates round-trip latency samples for one kind of
// transport call (poll or setPower) and aggregates them on demand,
// mirroring the teacher's responsetime.Collector interface.
type Collector interface {
	Add(t time.Duration)
	Aggregate() *Aggregation
	Reset()
}

// Time runs f, recording its wall-clock duration into c, and returns
// whatever error f returned, so a call such as Interface.Poll/SetPower can
// be timed without duplicating the timing boilerplate at the call site.
func Time(c Collector, f func() error) error {
	start := time.Now()
	err := f()
	c.Add(time.Since(start))
	return err
}
