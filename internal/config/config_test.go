package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestResolve_FindsFileOnSearchPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "milton.yaml", "device: {}\n")

	path, err := Resolve("milton.yaml", []string{dir})
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "milton.yaml"), path)
}

func TestResolve_NotFound(t *testing.T) {
	_, err := Resolve("nope.yaml", []string{t.TempDir()})
	assert.Error(t, err)
}

func TestPreprocess_ExpandsEnvironmentVariables(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MILTON_TEST_PORT", "/dev/ttyUSB3")
	path := writeFile(t, dir, "milton.yaml", "device:\n  port: $MILTON_TEST_PORT\n")

	doc, err := Preprocess(path, []string{dir})
	assert.NoError(t, err)
	assert.Contains(t, doc, "/dev/ttyUSB3")
}

func TestPreprocess_InlinesNamedInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rtd.yaml", "- resistance: 100\n  temperature: 0\n- resistance: 138\n  temperature: 100\n")
	path := writeFile(t, dir, "milton.yaml", "device:\n  rtd: !include rtd.yaml\n")

	doc, err := Preprocess(path, []string{dir})
	assert.NoError(t, err)
	assert.Contains(t, doc, "resistance: 100")
	assert.Contains(t, doc, "resistance: 138")
}

func TestPreprocess_OptionalIncludeMissingFileIsSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "milton.yaml", "overrides: !include? missing.yaml\nfoo: bar\n")

	doc, err := Preprocess(path, []string{dir})
	assert.NoError(t, err)
	assert.Contains(t, doc, "foo: bar")
}

func TestPreprocess_RequiredIncludeMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "milton.yaml", "overrides: !include missing.yaml\n")

	_, err := Preprocess(path, []string{dir})
	assert.Error(t, err)
}

func TestPreprocess_DetectsCircularInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "!include b.yaml\n")
	path := writeFile(t, dir, "b.yaml", "!include a.yaml\n")

	_, err := Preprocess(path, []string{dir})
	assert.Error(t, err)
}

func TestDebugLevels_LongestMatchingAncestor(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "milton-debug.cfg", "# comment\nmilton::controller = 2\nmilton::controller::predictor = 4\nmilton = 1\n")

	levels, err := ParseDebugLevels(path)
	assert.NoError(t, err)

	assert.Equal(t, 4, levels.Level("milton::controller::predictor"))
	assert.Equal(t, 2, levels.Level("milton::controller"))
	assert.Equal(t, 2, levels.Level("milton::controller::tuner"))
	assert.Equal(t, 1, levels.Level("milton::profile"))
	assert.Equal(t, 0, levels.Level("unrelated"))
}

func TestDebugLevels_MissingFileYieldsEmptyTable(t *testing.T) {
	levels, err := ParseDebugLevels(filepath.Join(t.TempDir(), "absent.cfg"))
	assert.NoError(t, err)
	assert.Equal(t, 0, levels.Level("anything"))
}

func TestLoad_ReadsValidatesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "milton.yaml", `
device:
  voltageMax: 24
  currentMax: 10
  powerMax: 200
  rtd:
    - resistance: 100
      temperature: 0
    - resistance: 138
      temperature: 100
controller:
  kp: 2.5
  pmax: 120
  predictor:
    package: passthrough
profile:
  - name: preheat
    seconds: 90
    temperature: 150
`)

	cfg, err := Load("milton.yaml", []string{dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, 9600, cfg.Device.BaudRate)
	assert.Equal(t, 1.0, cfg.Period)
	assert.Equal(t, 25.0, cfg.Controller.Ambient)
	assert.Equal(t, "noop", cfg.Logging.Driver)
	assert.Len(t, cfg.Profile, 1)
}

func TestLoad_MissingRequiredFieldFailsValidation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "milton.yaml", "device:\n  rtd:\n    - resistance: 100\n    - resistance: 138\n")

	_, err := Load("milton.yaml", []string{dir}, nil)
	assert.Error(t, err)
}
