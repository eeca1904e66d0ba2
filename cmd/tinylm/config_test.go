package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/tinylm/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func setFlags(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

// resetModelFlags restores the flag variables to their defaults.
func resetModelFlags(t *testing.T) {
	t.Helper()
	def := model.DefaultConfig()
	vocabSize, dModel, maxSeqLen = int64(def.VocabSize), int64(def.DModel), int64(def.MaxSeqLen)
	numBlocks, numHeads, dFF = int64(def.NumBlocks), int64(def.NumHeads), int64(def.DFF)
	headWorkers, seed = 0, 42
	logLevel, logFormat = "info", "pretty"
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
model:
  vocab_size: 50
  d_model: 16
  num_heads: 2
seed: 7
log_level: debug
server_address: 0.0.0.0:9000
`)
	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)
	require.NotNil(t, cfg.Model.VocabSize)
	assert.EqualValues(t, 50, *cfg.Model.VocabSize)
	assert.EqualValues(t, 16, *cfg.Model.DModel)
	assert.Nil(t, cfg.Model.DFF)
	require.NotNil(t, cfg.Seed)
	assert.EqualValues(t, 7, *cfg.Seed)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:9000", cfg.ServerAddress)
}

func TestLoadConfigMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := LoadConfig(missing, false)
	require.NoError(t, err)
	assert.Equal(t, FileConfig{}, cfg)

	_, err = LoadConfig(missing, true)
	assert.Error(t, err)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""), true)
	require.NoError(t, err)
	assert.Equal(t, FileConfig{}, cfg)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "model:\n  layers: 3\n"), false)
	assert.Error(t, err)
}

func TestResolveModelConfigPrecedence(t *testing.T) {
	resetModelFlags(t)
	t.Cleanup(func() { resetModelFlags(t) })

	cfg, err := LoadConfig(writeConfig(t, `
model:
  vocab_size: 50
  d_model: 16
seed: 7
`), true)
	require.NoError(t, err)

	// Config file values replace flag defaults.
	got, s := resolveModelConfig(setFlags(), cfg)
	assert.Equal(t, 50, got.VocabSize)
	assert.Equal(t, 16, got.DModel)
	assert.Equal(t, 256, got.DFF)
	assert.EqualValues(t, 7, s)

	// Explicit flags win over the file.
	vocabSize, seed = 80, 3
	got, s = resolveModelConfig(setFlags("vocab-size", "seed"), cfg)
	assert.Equal(t, 80, got.VocabSize)
	assert.Equal(t, 16, got.DModel)
	assert.EqualValues(t, 3, s)
}

func TestApplyLoggingConfig(t *testing.T) {
	resetModelFlags(t)
	t.Cleanup(func() { resetModelFlags(t) })

	cfg := FileConfig{LogLevel: "warn", LogFormat: "json"}
	applyLoggingConfig(setFlags("log-format"), cfg)
	assert.Equal(t, "warn", logLevel)
	assert.Equal(t, "pretty", logFormat)
}
