package diagnostics

import (
	"fmt"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// arrayCollector keeps every sample and computes percentiles on demand
// via github.com/montanaflynn/stats, grounded in the teacher's
// responsetimecollector.arrayCollector. O(n) storage and computation;
// intended for the bounded lifetime of a `milton tune` run, not the core
// loop.
type arrayCollector struct {
	mu      sync.Mutex
	samples []float64
}

// NewArray returns a Collector that retains every sample for percentile
// computation, suited to offline tuning runs rather than the core loop.
func NewArray() Collector {
	return &arrayCollector{}
}

func (c *arrayCollector) Add(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, float64(t)/float64(time.Second))
}

func (c *arrayCollector) Aggregate() *Aggregation {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.samples) == 0 {
		return &Aggregation{}
	}

	p50, err := stats.Median(c.samples)
	if err != nil {
		panic(fmt.Errorf("unexpected err in arrayCollector.Aggregate computing p50: %w", err))
	}
	p95, err := stats.Percentile(c.samples, 95)
	if err != nil {
		panic(fmt.Errorf("unexpected err in arrayCollector.Aggregate computing p95: %w", err))
	}
	p99, err := stats.Percentile(c.samples, 99)
	if err != nil {
		panic(fmt.Errorf("unexpected err in arrayCollector.Aggregate computing p99: %w", err))
	}

	return &Aggregation{
		P50: time.Duration(p50 * float64(time.Second)),
		P95: time.Duration(p95 * float64(time.Second)),
		P99: time.Duration(p99 * float64(time.Second)),
	}
}

func (c *arrayCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = nil
}
