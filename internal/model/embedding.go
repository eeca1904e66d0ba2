package model

import (
	"math"
	"math/rand"

	"github.com/samcharles93/tinylm/internal/tensor"
)

// embeddingInitRange is the half-width of the uniform init used for the
// embedding table and the output projection.
const embeddingInitRange = 0.1

// TokenEmbedding maps token ids to rows of a (VocabSize x DModel) table.
type TokenEmbedding struct {
	VocabSize int
	DModel    int

	Weight tensor.Mat // [VocabSize x DModel]
}

// NewTokenEmbedding allocates the table with values uniform in [-0.1, 0.1).
func NewTokenEmbedding(vocabSize, dModel int, rng *rand.Rand) (*TokenEmbedding, error) {
	if vocabSize <= 0 {
		return nil, configErrorf("vocab_size", "must be positive, got %d", vocabSize)
	}
	if dModel <= 0 {
		return nil, configErrorf("d_model", "must be positive, got %d", dModel)
	}
	e := &TokenEmbedding{
		VocabSize: vocabSize,
		DModel:    dModel,
		Weight:    tensor.NewMat(vocabSize, dModel),
	}
	tensor.FillUniform(&e.Weight, ensureRand(rng), -embeddingInitRange, embeddingInitRange)
	return e, nil
}

// CheckIDs returns an *IndexError for the first id outside [0, VocabSize).
func (e *TokenEmbedding) CheckIDs(ids []int) error {
	for pos, id := range ids {
		if id < 0 || id >= e.VocabSize {
			return &IndexError{Position: pos, ID: id, VocabSize: e.VocabSize}
		}
	}
	return nil
}

// Forward gathers the rows for ids into a new (len(ids) x DModel) matrix.
// Ids are checked before anything is allocated.
func (e *TokenEmbedding) Forward(ids []int) (tensor.Mat, error) {
	if err := e.CheckIDs(ids); err != nil {
		return tensor.Mat{}, err
	}
	out := tensor.NewMat(len(ids), e.DModel)
	tensor.GatherRows(&out, &e.Weight, ids)
	return out, nil
}

func (e *TokenEmbedding) NumParameters() int {
	return e.Weight.Len()
}

// PositionalEncoding holds the fixed sinusoidal table
//
//	PE(p, 2i)   = sin(p / 10000^(2i/d))
//	PE(p, 2i+1) = cos(p / 10000^(2i/d))
//
// computed once at construction.
type PositionalEncoding struct {
	MaxSeqLen int
	DModel    int

	table tensor.Mat // [MaxSeqLen x DModel]
}

func NewPositionalEncoding(maxSeqLen, dModel int) (*PositionalEncoding, error) {
	if maxSeqLen <= 0 {
		return nil, configErrorf("max_seq_len", "must be positive, got %d", maxSeqLen)
	}
	if dModel <= 0 {
		return nil, configErrorf("d_model", "must be positive, got %d", dModel)
	}
	table := tensor.NewMat(maxSeqLen, dModel)
	for i := 0; i < dModel; i++ {
		// Odd features share the frequency of the even feature before them.
		invFreq := 1.0 / math.Pow(10000.0, float64(2*(i/2))/float64(dModel))
		for pos := 0; pos < maxSeqLen; pos++ {
			angle := float64(pos) * invFreq
			if i%2 == 0 {
				table.Set(pos, i, float32(math.Sin(angle)))
			} else {
				table.Set(pos, i, float32(math.Cos(angle)))
			}
		}
	}
	return &PositionalEncoding{
		MaxSeqLen: maxSeqLen,
		DModel:    dModel,
		table:     table,
	}, nil
}

// At returns the table value for position pos and feature i.
func (p *PositionalEncoding) At(pos, i int) float32 {
	return p.table.At(pos, i)
}

// CheckLen returns a *SequenceError when n exceeds MaxSeqLen.
func (p *PositionalEncoding) CheckLen(n int) error {
	if n > p.MaxSeqLen {
		return &SequenceError{Len: n, Max: p.MaxSeqLen}
	}
	return nil
}

// Forward returns x + table[0:x.R] as a new matrix.
func (p *PositionalEncoding) Forward(x *tensor.Mat) (tensor.Mat, error) {
	if err := p.CheckLen(x.R); err != nil {
		return tensor.Mat{}, err
	}
	if x.C != p.DModel {
		panic("positional encoding: width mismatch")
	}
	window := p.table.SliceRows(0, x.R)
	return tensor.Sum(x, &window), nil
}

// ensureRand falls back to a time-seeded generator.
func ensureRand(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		return tensor.NewRand(-1)
	}
	return rng
}
