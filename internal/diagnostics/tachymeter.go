package diagnostics

import (
	"time"

	"github.com/jamiealquiza/tachymeter"
)

// tachymeterCollector captures timings with a fixed-size ring buffer via
// jamiealquiza/tachymeter, grounded directly in the teacher's
// response_time.tachymeterResponseTimeCollector. Suited to the core loop
// itself: the instrumentation overhead stays inside the per-tick budget.
type tachymeterCollector struct {
	tach *tachymeter.Tachymeter
}

// NewTachymeter returns a Collector backed by a window-sized tachymeter
// ring buffer.
func NewTachymeter(window int) Collector {
	return &tachymeterCollector{tach: tachymeter.New(&tachymeter.Config{Size: window})}
}

func (c *tachymeterCollector) Add(t time.Duration) { c.tach.AddTime(t) }

func (c *tachymeterCollector) Aggregate() *Aggregation {
	agg := c.tach.Calc()
	return &Aggregation{P50: agg.Time.P50, P95: agg.Time.P95, P99: agg.Time.P99}
}

func (c *tachymeterCollector) Reset() {
	c.tach.Reset()
}
