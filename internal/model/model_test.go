package model

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	return Config{
		VocabSize: 100,
		DModel:    16,
		MaxSeqLen: 50,
		NumBlocks: 2,
		NumHeads:  4,
		DFF:       32,
	}
}

func newSmallModel(t *testing.T, seed int64) *LanguageModel {
	t.Helper()
	m, err := NewLanguageModel(smallConfig(), rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return m
}

func seqIDs(n, vocab int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = (i * 7) % vocab
	}
	return ids
}

func TestLanguageModelShape(t *testing.T) {
	t.Parallel()
	m := newSmallModel(t, 1)

	logits, err := m.Forward(seqIDs(10, 100))
	require.NoError(t, err)
	assert.Equal(t, 10, logits.R)
	assert.Equal(t, 100, logits.C)
}

func TestLanguageModelShapeAcrossConfigs(t *testing.T) {
	t.Parallel()
	configs := []Config{
		{VocabSize: 7, DModel: 4, MaxSeqLen: 3, NumBlocks: 1, NumHeads: 1, DFF: 4},
		{VocabSize: 50, DModel: 12, MaxSeqLen: 20, NumBlocks: 3, NumHeads: 3, DFF: 8},
		{VocabSize: 1000, DModel: 64, MaxSeqLen: 100, NumBlocks: 1, NumHeads: 8, DFF: 256, HeadWorkers: 2},
	}
	for _, cfg := range configs {
		m, err := NewLanguageModel(cfg, rand.New(rand.NewSource(3)))
		require.NoError(t, err, cfg.String())
		for _, n := range []int{1, cfg.MaxSeqLen} {
			logits, err := m.Forward(seqIDs(n, cfg.VocabSize))
			require.NoError(t, err)
			assert.Equal(t, n, logits.R, cfg.String())
			assert.Equal(t, cfg.VocabSize, logits.C, cfg.String())
		}
	}
}

func TestLanguageModelSequenceTooLong(t *testing.T) {
	t.Parallel()
	m := newSmallModel(t, 2)

	logits, err := m.Forward(seqIDs(51, 100))
	require.ErrorIs(t, err, ErrSequenceTooLong)
	assert.Nil(t, logits.Data)
	assert.Zero(t, logits.R)
}

func TestLanguageModelInvalidInputs(t *testing.T) {
	t.Parallel()
	m := newSmallModel(t, 3)

	_, err := m.Forward(nil)
	assert.ErrorIs(t, err, ErrEmptySequence)

	_, err = m.Forward([]int{1, 2, 100})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	// Length is reported before bad ids.
	ids := seqIDs(60, 100)
	ids[0] = 500
	_, err = m.Forward(ids)
	assert.ErrorIs(t, err, ErrSequenceTooLong)

	tr, err := m.Trace([]int{-4})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Nil(t, tr)
}

func TestNewLanguageModelRejectsBadConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"indivisible heads", func(c *Config) { c.DModel, c.NumHeads = 10, 3 }, "num_heads"},
		{"zero vocab", func(c *Config) { c.VocabSize = 0 }, "vocab_size"},
		{"zero blocks", func(c *Config) { c.NumBlocks = 0 }, "num_blocks"},
		{"negative d_ff", func(c *Config) { c.DFF = -1 }, "d_ff"},
		{"negative workers", func(c *Config) { c.HeadWorkers = -2 }, "head_workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			tt.mut(&cfg)
			m, err := NewLanguageModel(cfg, nil)
			require.ErrorIs(t, err, ErrConfiguration)
			assert.Nil(t, m)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestLanguageModelDeterministicForSeed(t *testing.T) {
	t.Parallel()
	a := newSmallModel(t, 42)
	b := newSmallModel(t, 42)
	c := newSmallModel(t, 43)
	ids := seqIDs(8, 100)

	la, err := a.Forward(ids)
	require.NoError(t, err)
	lb, err := b.Forward(ids)
	require.NoError(t, err)
	lc, err := c.Forward(ids)
	require.NoError(t, err)

	assert.Equal(t, la.Data, lb.Data)
	assert.NotEqual(t, la.Data, lc.Data)
}

func TestLanguageModelRepeatedCallsAgree(t *testing.T) {
	t.Parallel()
	m := newSmallModel(t, 5)
	ids := seqIDs(12, 100)
	want, err := m.Forward(ids)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]float32, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.Forward(ids)
			results[i], errs[i] = got.Data, err
		}()
	}
	wg.Wait()
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want.Data, results[i], "goroutine %d", i)
	}
}

// Changing a later token must not change logits at earlier positions.
func TestLanguageModelIsCausal(t *testing.T) {
	t.Parallel()
	m := newSmallModel(t, 6)
	a := []int{3, 14, 15, 92, 65, 35}
	b := []int{3, 14, 15, 0, 1, 2}

	la, err := m.Forward(a)
	require.NoError(t, err)
	lb, err := m.Forward(b)
	require.NoError(t, err)

	for pos := 0; pos < 3; pos++ {
		compareSlices(t, lb.Row(pos), la.Row(pos), 1e-5)
	}
	assert.NotEqual(t, la.Row(3), lb.Row(3))
}

func TestLanguageModelTrace(t *testing.T) {
	t.Parallel()
	m := newSmallModel(t, 7)
	ids := seqIDs(6, 100)

	tr, err := m.Trace(ids)
	require.NoError(t, err)
	logits, err := m.Forward(ids)
	require.NoError(t, err)
	assert.Equal(t, logits.Data, tr.Logits.Data)

	require.Len(t, tr.Attention, 2)
	for b, heads := range tr.Attention {
		require.Len(t, heads, 4)
		for h, w := range heads {
			require.Equal(t, 6, w.R)
			for i := 0; i < w.R; i++ {
				var sum float64
				for j, v := range w.Row(i) {
					sum += float64(v)
					if j > i {
						assert.Less(t, v, float32(1e-6), "block %d head %d (%d,%d)", b, h, i, j)
					}
				}
				assert.InDelta(t, 1, sum, 1e-5)
			}
		}
	}
}

func TestCausalMask(t *testing.T) {
	t.Parallel()
	mask := CausalMask(4)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := float32(0)
			if j > i {
				want = MaskValue
			}
			assert.Equal(t, want, mask.At(i, j))
		}
	}
}

func TestParameterCounts(t *testing.T) {
	t.Parallel()
	m := newSmallModel(t, 8)
	pc := m.ParameterCounts()
	cfg := smallConfig()

	assert.Equal(t, cfg.VocabSize*cfg.DModel, pc.Embedding)
	assert.Equal(t, cfg.DModel*cfg.VocabSize, pc.Output)
	// per block: 4 heads * 3 * (16*4) + W_o 16*16
	assert.Equal(t, cfg.NumBlocks*(4*3*16*4+16*16), pc.Attention)
	assert.Equal(t, cfg.NumBlocks*(16*32+32+32*16+16), pc.FFN)
	assert.Equal(t, cfg.NumBlocks*4*16, pc.Norm)
	assert.Equal(t, pc.Total, m.NumParameters())
	assert.Equal(t, pc.Embedding+pc.Attention+pc.FFN+pc.Norm+pc.Output, pc.Total)
}

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 16, cfg.HeadDim())
}

func BenchmarkLanguageModelForward(b *testing.B) {
	m, err := NewLanguageModel(DefaultConfig(), rand.New(rand.NewSource(1)))
	if err != nil {
		b.Fatal(err)
	}
	ids := []int{10, 25, 5, 99, 30, 72}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Forward(ids); err != nil {
			b.Fatal(err)
		}
	}
}
