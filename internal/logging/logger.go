// Package logging implements Milton's run logger: a small interface with
// noop/stdout/csv/influxdb drivers, selected by name the way the
// teacher's logging package is selected by its caller, and consulted once
// per tick with the full Status record rather than the teacher's four
// narrow per-metric methods.
package logging

import "github.com/brettski74/milton/internal/status"

// Logger receives one record per tick of the run (spec.md §3's
// RunHistory, as it's produced rather than after the fact), plus the
// warning-level notices spec.md §7's error-handling policy calls for:
// a transient transport retry, a repeated-failure escalation, and a
// thermal-cutoff engagement are all surfaced through LogWarning rather
// than as a Status row, since none of them is itself a sample.
type Logger interface {
	Log(s *status.Status) error
	LogWarning(message string) error
	Close() error
}

// noopLogger discards every record, mirroring the teacher's
// logging.noopLogger.
type noopLogger struct{}

// NewNoop returns a Logger that does nothing, the default driver.
func NewNoop() Logger { return noopLogger{} }

func (noopLogger) Log(*status.Status) error { return nil }
func (noopLogger) LogWarning(string) error  { return nil }
func (noopLogger) Close() error             { return nil }
