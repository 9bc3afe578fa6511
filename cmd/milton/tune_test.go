package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brettski74/milton/internal/thermal/predictor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHistory_ParsesKnownColumnsAndFallsBackToExtra(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.csv")
	content := "now,temperature,ambient,set.power,widgetcount\n0,25,22,0,3\n1,30,22,5.5,4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	history, err := loadHistory(path)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, 1.0, history[1].Now)
	assert.Equal(t, 30.0, history[1].Temperature)
	assert.Equal(t, 22.0, history[1].Ambient)
	assert.True(t, history[1].HasAmbient)
	assert.Equal(t, 5.5, history[1].SetPower)

	v, ok := history[1].Get("widgetcount")
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)
}

func TestLoadHistory_EmptyFileYieldsNoRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.csv")
	require.NoError(t, os.WriteFile(path, []byte("now,temperature\n"), 0o644))

	history, err := loadHistory(path)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDoubleLPFModel_PackageTag(t *testing.T) {
	m := &doubleLPFModel{period: 1, params: predictor.DoubleLPFParams{TauInner: 10}}
	assert.Equal(t, "doublelpf", m.PackageTag())
}

func TestDoubleLPFModel_ApplyParamsRebuildsPredictor(t *testing.T) {
	m := &doubleLPFModel{period: 1}
	m.ApplyParams([]float64{5, 50, 2})
	assert.Equal(t, 5.0, m.params.TauInner)
	assert.Equal(t, 50.0, m.params.OuterOffset)
	assert.Equal(t, 2.0, m.params.OuterGradient)
	assert.NotNil(t, m.dlpf)
}
