package model

import (
	"math/rand"

	"github.com/samcharles93/tinylm/internal/tensor"
)

// MaskValue is the additive bias for positions that must not be attended to.
const MaskValue float32 = -1e9

// LanguageModel owns the embedding, positional encoding, block stack and
// output projection.  Nothing is mutated after construction, so Forward is
// safe to call from multiple goroutines.
type LanguageModel struct {
	Embedding  *TokenEmbedding
	Positional *PositionalEncoding
	Blocks     []*TransformerBlock
	Output     tensor.Mat // [DModel x VocabSize]

	cfg Config
}

// NewLanguageModel validates cfg and initialises every layer from rng.  A nil
// rng selects a time-seeded generator.
func NewLanguageModel(cfg Config, rng *rand.Rand) (*LanguageModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng = ensureRand(rng)

	emb, err := NewTokenEmbedding(cfg.VocabSize, cfg.DModel, rng)
	if err != nil {
		return nil, err
	}
	pos, err := NewPositionalEncoding(cfg.MaxSeqLen, cfg.DModel)
	if err != nil {
		return nil, err
	}
	blocks := make([]*TransformerBlock, cfg.NumBlocks)
	for i := range blocks {
		blocks[i], err = NewTransformerBlock(cfg.DModel, cfg.NumHeads, cfg.DFF, cfg.HeadWorkers, rng)
		if err != nil {
			return nil, err
		}
	}
	out := tensor.NewMat(cfg.DModel, cfg.VocabSize)
	tensor.FillUniform(&out, rng, -embeddingInitRange, embeddingInitRange)

	return &LanguageModel{
		Embedding:  emb,
		Positional: pos,
		Blocks:     blocks,
		Output:     out,
		cfg:        cfg,
	}, nil
}

// Config returns the configuration the model was built with.
func (m *LanguageModel) Config() Config {
	return m.cfg
}

// Validate runs every input check Forward performs, without computing
// anything.
func (m *LanguageModel) Validate(ids []int) error {
	if len(ids) == 0 {
		return ErrEmptySequence
	}
	if err := m.Positional.CheckLen(len(ids)); err != nil {
		return err
	}
	return m.Embedding.CheckIDs(ids)
}

// Forward returns logits of shape (len(ids), VocabSize).
func (m *LanguageModel) Forward(ids []int) (tensor.Mat, error) {
	logits, _, err := m.forward(ids, false)
	return logits, err
}

// Trace is a forward pass with the attention weights kept.
// Attention[b][h] is the (seq, seq) weight matrix of head h in block b.
type Trace struct {
	Logits    tensor.Mat
	Attention [][]tensor.Mat
}

// Trace runs Forward and keeps every head's attention weights.
func (m *LanguageModel) Trace(ids []int) (*Trace, error) {
	logits, attn, err := m.forward(ids, true)
	if err != nil {
		return nil, err
	}
	return &Trace{Logits: logits, Attention: attn}, nil
}

func (m *LanguageModel) forward(ids []int, keepWeights bool) (tensor.Mat, [][]tensor.Mat, error) {
	if err := m.Validate(ids); err != nil {
		return tensor.Mat{}, nil, err
	}

	mask := CausalMask(len(ids))
	emb, err := m.Embedding.Forward(ids)
	if err != nil {
		return tensor.Mat{}, nil, err
	}
	x, err := m.Positional.Forward(&emb)
	if err != nil {
		return tensor.Mat{}, nil, err
	}

	var attn [][]tensor.Mat
	if keepWeights {
		attn = make([][]tensor.Mat, len(m.Blocks))
	}
	for i, block := range m.Blocks {
		next, weights, err := block.forward(&x, &mask, keepWeights)
		if err != nil {
			return tensor.Mat{}, nil, err
		}
		if keepWeights {
			attn[i] = weights
		}
		x = next
	}

	return tensor.Mul(&x, &m.Output), attn, nil
}

// CausalMask returns an (n, n) matrix with MaskValue above the diagonal and
// zero elsewhere, so position i only sees positions j <= i.
func CausalMask(n int) tensor.Mat {
	mask := tensor.NewMat(n, n)
	for i := 0; i < n; i++ {
		row := mask.Row(i)
		for j := i + 1; j < n; j++ {
			row[j] = MaskValue
		}
	}
	return mask
}

// ParameterCounts breaks the parameter total down by component.
type ParameterCounts struct {
	Embedding int `json:"embedding"`
	Attention int `json:"attention"`
	FFN       int `json:"ffn"`
	Norm      int `json:"norm"`
	Output    int `json:"output"`
	Total     int `json:"total"`
}

func (m *LanguageModel) ParameterCounts() ParameterCounts {
	pc := ParameterCounts{
		Embedding: m.Embedding.NumParameters(),
		Output:    m.Output.Len(),
	}
	for _, b := range m.Blocks {
		pc.Attention += b.Attn.NumParameters()
		pc.FFN += b.FFN.NumParameters()
		pc.Norm += b.Norm1.NumParameters() + b.Norm2.NumParameters()
	}
	pc.Total = pc.Embedding + pc.Attention + pc.FFN + pc.Norm + pc.Output
	return pc
}

// NumParameters counts trainable values; the positional table is fixed and
// excluded.
func (m *LanguageModel) NumParameters() int {
	return m.ParameterCounts().Total
}
