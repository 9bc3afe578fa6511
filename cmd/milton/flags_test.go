package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGlobalFlags_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	g, err := parseGlobalFlags(fs, nil)
	require.NoError(t, err)
	assert.Equal(t, "milton.yaml", g.configFile)
	assert.False(t, g.hasAmbient)
	assert.False(t, g.hasCutoff)
}

func TestParseGlobalFlags_AmbientAndCutoffAreTyped(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	g, err := parseGlobalFlags(fs, []string{"--ambient", "22.5", "--cutoff", "180"})
	require.NoError(t, err)
	assert.True(t, g.hasAmbient)
	assert.Equal(t, 22.5, g.ambient)
	assert.True(t, g.hasCutoff)
	assert.Equal(t, 180, g.cutoff)
}

func TestParseGlobalFlags_RepeatableOverridesAccumulate(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	g, err := parseGlobalFlags(fs, []string{"--override", "a.yaml", "--override", "controller:b.yaml"})
	require.NoError(t, err)
	assert.Equal(t, stringList{"a.yaml", "controller:b.yaml"}, g.overrides)
}

func TestParseR0_InterpretsLargeValuesAsMilliohms(t *testing.T) {
	r, temp, err := parseR0("1500")
	require.NoError(t, err)
	assert.Equal(t, 1.5, r)
	assert.Equal(t, 25.0, temp)
}

func TestParseR0_SmallValueKeptAsOhms(t *testing.T) {
	r, temp, err := parseR0("100:20")
	require.NoError(t, err)
	assert.Equal(t, 100.0, r)
	assert.Equal(t, 20.0, temp)
}

func TestParseLimit_ParsesTemperatureAndPower(t *testing.T) {
	p, err := parseLimit("200:150")
	require.NoError(t, err)
	assert.Equal(t, 200.0, p.X)
	assert.Equal(t, 150.0, p.Y)
}

func TestParseLimit_RejectsMissingColon(t *testing.T) {
	_, err := parseLimit("200")
	assert.Error(t, err)
}

func TestParseTuneFlags_RequiresHistory(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, _, err := parseTuneFlags(fs, nil)
	assert.Error(t, err)
}

func TestParseTuneFlags_CombinesGlobalAndTuneFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	g, tf, err := parseTuneFlags(fs, []string{"--history", "run.csv", "--config", "custom.yaml", "--steps", "4"})
	require.NoError(t, err)
	assert.Equal(t, "custom.yaml", g.configFile)
	assert.Equal(t, "run.csv", tf.historyFile)
	assert.Equal(t, 4, tf.steps)
}
