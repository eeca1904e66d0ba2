package model

import (
	"math/rand"

	"github.com/samcharles93/tinylm/internal/tensor"
)

// TransformerBlock is the post-norm block
//
//	h1  = Norm1(x + Attn(x, mask))
//	out = Norm2(h1 + FFN(h1))
//
// Input and output are both (seq, DModel), so blocks stack freely.
type TransformerBlock struct {
	Attn  *MultiHeadAttention
	FFN   *FeedForward
	Norm1 *LayerNorm
	Norm2 *LayerNorm
}

// NewTransformerBlock builds one block; headWorkers is passed to the
// attention layer (see MultiHeadConfig.Workers).
func NewTransformerBlock(dModel, numHeads, dFF, headWorkers int, rng *rand.Rand) (*TransformerBlock, error) {
	rng = ensureRand(rng)
	attn, err := MultiHeadConfig{DModel: dModel, NumHeads: numHeads, Workers: headWorkers}.Build(rng)
	if err != nil {
		return nil, err
	}
	ffn, err := NewFeedForward(dModel, dFF, rng)
	if err != nil {
		return nil, err
	}
	norm1, err := NewLayerNorm(dModel)
	if err != nil {
		return nil, err
	}
	norm2, err := NewLayerNorm(dModel)
	if err != nil {
		return nil, err
	}
	return &TransformerBlock{
		Attn:  attn,
		FFN:   ffn,
		Norm1: norm1,
		Norm2: norm2,
	}, nil
}

// Forward runs the block.  The only error source is a mask of the wrong
// shape.
func (b *TransformerBlock) Forward(x, mask *tensor.Mat) (tensor.Mat, error) {
	out, _, err := b.forward(x, mask, false)
	return out, err
}

// ForwardWithWeights also returns the per-head attention weights.
func (b *TransformerBlock) ForwardWithWeights(x, mask *tensor.Mat) (tensor.Mat, []tensor.Mat, error) {
	return b.forward(x, mask, true)
}

func (b *TransformerBlock) forward(x, mask *tensor.Mat, keepWeights bool) (tensor.Mat, []tensor.Mat, error) {
	attnOut, weights, err := b.Attn.forward(x, mask, keepWeights)
	if err != nil {
		return tensor.Mat{}, nil, err
	}
	// Residual: attnOut is ours, accumulate in place.
	tensor.AddMat(&attnOut, x)
	h1 := b.Norm1.Forward(&attnOut)

	ffnOut := b.FFN.Forward(&h1)
	tensor.AddMat(&ffnOut, &h1)
	return b.Norm2.Forward(&ffnOut), weights, nil
}

func (b *TransformerBlock) NumParameters() int {
	return b.Attn.NumParameters() + b.FFN.NumParameters() +
		b.Norm1.NumParameters() + b.Norm2.NumParameters()
}
