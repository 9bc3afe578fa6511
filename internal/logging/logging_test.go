package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettski74/milton/internal/config"
	"github.com/brettski74/milton/internal/status"
)

func TestNoop_DoesNothing(t *testing.T) {
	l := NewNoop()
	assert.NoError(t, l.Log(status.New(status.EventTimer)))
	assert.NoError(t, l.Close())
}

func TestParseColumn_SplitsKeyAndFormat(t *testing.T) {
	c := ParseColumn("temperature:%.2f")
	assert.Equal(t, "temperature", c.Key)
	assert.Equal(t, "%.2f", c.Format)

	c2 := ParseColumn("temperature")
	assert.Equal(t, "temperature", c2.Key)
	assert.Equal(t, "%s", c2.Format)
}

func TestExpandFilename_ExpandsCommandAndTimestamp(t *testing.T) {
	start := time.Date(2026, 7, 31, 10, 30, 0, 0, time.UTC)
	name := ExpandFilename("%c-%d.csv", "run", start)
	assert.Equal(t, "run-20260731-103000.csv", name)
}

func TestCSV_WritesHeaderAndFormattedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	columns := []Column{
		{Key: "now", Format: "%.1f"},
		{Key: "temperature", Format: "%.2f"},
		{Key: "stage.name", Format: "%s"},
	}

	l, err := NewCSV(path, columns)
	require.NoError(t, err)

	s := status.New(status.EventTimer)
	s.Now = 1.5
	s.Temperature = 123.456
	s.StageName = "preheat"

	require.NoError(t, l.Log(s))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "now,temperature,stage.name", lines[0])
	assert.Equal(t, "1.5,123.46,preheat", lines[1])
}

func TestCSV_ExtraColumnFallsBackToStatusMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	l, err := NewCSV(path, []Column{{Key: "tuning.sse", Format: "%.3f"}})
	require.NoError(t, err)

	s := status.New(status.EventTimer)
	s.Set("tuning.sse", 4.2)
	require.NoError(t, l.Log(s))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "4.200")
}

func TestRegistry_UnknownDriverFails(t *testing.T) {
	_, err := New(Options{Driver: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestRegistry_NoopByDefault(t *testing.T) {
	l, err := New(Options{})
	require.NoError(t, err)
	assert.IsType(t, noopLogger{}, l)
}

func TestDebugFilter_DropsBelowConfiguredLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "milton-debug.cfg")
	require.NoError(t, os.WriteFile(path, []byte("milton::logging = 1\n"), 0o644))
	levels, err := config.ParseDebugLevels(path)
	require.NoError(t, err)

	calls := 0
	counting := countingLogger{calls: &calls}

	filtered := DebugFilter{Logger: counting, Levels: levels, Namespace: "milton::logging", MinLevel: 2}
	assert.NoError(t, filtered.Log(status.New(status.EventTimer)))
	assert.Equal(t, 0, calls)

	filtered.MinLevel = 1
	assert.NoError(t, filtered.Log(status.New(status.EventTimer)))
	assert.Equal(t, 1, calls)
}

type countingLogger struct {
	calls *int
}

func (c countingLogger) Log(*status.Status) error { *c.calls = *c.calls + 1; return nil }
func (c countingLogger) LogWarning(string) error   { return nil }
func (c countingLogger) Close() error              { return nil }
