package main

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/tinylm/internal/model"
	"github.com/samcharles93/tinylm/internal/tensor"
)

func smallModel(t *testing.T) *model.LanguageModel {
	t.Helper()
	m, err := model.NewLanguageModel(model.Config{
		VocabSize: 30,
		DModel:    8,
		MaxSeqLen: 8,
		NumBlocks: 1,
		NumHeads:  2,
		DFF:       16,
	}, tensor.NewRand(3))
	require.NoError(t, err)
	return m
}

func TestWriteRunJSON(t *testing.T) {
	m := smallModel(t)
	ids := []int{1, 2, 3}
	logits, err := m.Forward(ids)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeRunJSON(&buf, m.Config(), ids, &logits, 1500*time.Microsecond))

	var doc runDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, [2]int{3, 30}, doc.Shape)
	assert.Equal(t, ids, doc.Tokens)
	assert.Equal(t, 30, doc.Config.VocabSize)
	assert.InDelta(t, 1.5, doc.DurationMS, 1e-9)
	require.Len(t, doc.Positions, 3)
	for i, p := range doc.Positions {
		assert.Equal(t, ids[i], p.Input)
		assert.Equal(t, tensor.ArgMax(logits.Row(i)), p.Predicted)
		assert.Len(t, p.Logits, 30)
	}
}

func TestPrintRun(t *testing.T) {
	m := smallModel(t)
	ids := []int{4, 5}
	logits, err := m.Forward(ids)
	require.NoError(t, err)

	var buf bytes.Buffer
	printRun(&buf, m, ids, &logits, 3)
	out := buf.String()
	assert.Contains(t, out, "Logits:     2 x 30")
	assert.Contains(t, out, "Input:      [4 5]")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "1 "))
}

func TestFormatRow(t *testing.T) {
	assert.Equal(t, "[]", formatRow(nil))
	assert.Equal(t, "[0.5000 -1.2500]", formatRow([]float32{0.5, -1.25}))
}

func TestPrintModelSummary(t *testing.T) {
	m := smallModel(t)
	var buf bytes.Buffer
	printModelSummary(&buf, m)
	out := buf.String()
	assert.Contains(t, out, "head_dim")
	assert.Regexp(t, `total\s+`+strconv.Itoa(m.NumParameters()), out)
}

func TestPrintAttentionMarksMaskedEntries(t *testing.T) {
	m := smallModel(t)
	ids := []int{1, 2, 3}
	tr, err := m.Trace(ids)
	require.NoError(t, err)

	var buf bytes.Buffer
	printAttention(&buf, ids, &tr.Attention[0][0])
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	// The first query sees only itself.
	assert.Equal(t, []string{"1", "1.000", ".", "."}, strings.Fields(lines[1]))
	assert.NotContains(t, strings.Fields(lines[3]), ".")
}

func TestPrintBenchmark(t *testing.T) {
	var buf bytes.Buffer
	printBenchmark(&buf, []time.Duration{2 * time.Millisecond, time.Millisecond}, 10)
	out := buf.String()
	assert.Contains(t, out, "Avg")
	assert.Regexp(t, `Best\s+1ms\s+10000\.0`, out)
	assert.Equal(t, 0.0, positionsPerSecond(10, 0))
}

func TestCPUFeatures(t *testing.T) {
	assert.NotEmpty(t, cpuFeatures())
}
